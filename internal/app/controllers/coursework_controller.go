package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

// CreateAttendance godoc
// @Summary Record attendance
// @Description Marking a student absent notifies the student
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AttendanceRequest true "Attendance"
// @Success 201 {object} dto.APIResponse{data=models.Attendance}
// @Failure 409 {object} dto.ErrorResponse "Already recorded for that day"
// @Router /attendance [post]
func (c *AcademicController) CreateAttendance(ctx *gin.Context) {
	var req dto.AttendanceRequest
	if !bindJSON(ctx, &req) {
		return
	}
	record, err := c.academicService.CreateAttendance(ctx.Request.Context(), &req)
	respond(ctx, http.StatusCreated, record, err)
}

// BulkCreateAttendance godoc
// @Summary Record attendance in bulk
// @Description All records are stored or none is
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BulkAttendanceRequest true "Records"
// @Success 201 {object} dto.APIResponse{data=[]models.Attendance}
// @Router /attendance/bulk [post]
func (c *AcademicController) BulkCreateAttendance(ctx *gin.Context) {
	var req dto.BulkAttendanceRequest
	if !bindJSON(ctx, &req) {
		return
	}
	records, err := c.academicService.BulkCreateAttendance(ctx.Request.Context(), &req)
	respond(ctx, http.StatusCreated, records, err)
}

// UpdateAttendance godoc
// @Summary Update attendance
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Attendance ID"
// @Param request body dto.AttendanceRequest true "Attendance"
// @Success 200 {object} dto.APIResponse{data=models.Attendance}
// @Router /attendance/{id} [put]
func (c *AcademicController) UpdateAttendance(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.AttendanceRequest
	if !bindJSON(ctx, &req) {
		return
	}
	record, err := c.academicService.UpdateAttendance(ctx.Request.Context(), id, &req)
	respond(ctx, http.StatusOK, record, err)
}

// @Summary Get attendance
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Attendance ID"
// @Success 200 {object} dto.APIResponse{data=models.Attendance}
// @Router /attendance/{id} [get]
func (c *AcademicController) GetAttendance(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	record, err := c.academicService.GetAttendance(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, record, err)
}

// @Summary List attendance
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param sectionId query int false "Section filter"
// @Param studentId query int false "Student filter"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Attendance}}
// @Router /attendance [get]
func (c *AcademicController) ListAttendance(ctx *gin.Context) {
	list(ctx, func(f models.AcademicFilter, p helpers.PageRequest) ([]*models.Attendance, int64, error) {
		return c.academicService.ListAttendance(ctx.Request.Context(), f, p)
	})
}

// @Summary Delete attendance
// @Tags attendance
// @Security BearerAuth
// @Param id path int true "Attendance ID"
// @Success 200 {object} dto.APIResponse
// @Router /attendance/{id} [delete]
func (c *AcademicController) DeleteAttendance(ctx *gin.Context) {
	remove(ctx, "Attendance", c.academicService.DeleteAttendance)
}

// CreateAssessment godoc
// @Summary Create assessment
// @Tags assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AssessmentRequest true "Assessment"
// @Success 201 {object} dto.APIResponse{data=models.Assessment}
// @Router /assessments [post]
func (c *AcademicController) CreateAssessment(ctx *gin.Context) {
	var req dto.AssessmentRequest
	if !bindJSON(ctx, &req) {
		return
	}
	assessment, err := c.academicService.CreateAssessment(ctx.Request.Context(), &req)
	respond(ctx, http.StatusCreated, assessment, err)
}

// UpdateAssessment godoc
// @Summary Update assessment
// @Description Lowering total marks below a recorded result is rejected
// @Tags assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Param request body dto.AssessmentRequest true "Assessment"
// @Success 200 {object} dto.APIResponse{data=models.Assessment}
// @Router /assessments/{id} [put]
func (c *AcademicController) UpdateAssessment(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.AssessmentRequest
	if !bindJSON(ctx, &req) {
		return
	}
	assessment, err := c.academicService.UpdateAssessment(ctx.Request.Context(), id, &req)
	respond(ctx, http.StatusOK, assessment, err)
}

// @Summary Get assessment
// @Tags assessments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Success 200 {object} dto.APIResponse{data=models.Assessment}
// @Router /assessments/{id} [get]
func (c *AcademicController) GetAssessment(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	assessment, err := c.academicService.GetAssessment(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, assessment, err)
}

// @Summary List assessments
// @Tags assessments
// @Produce json
// @Security BearerAuth
// @Param sectionId query int false "Section filter"
// @Param subjectId query int false "Subject filter"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Assessment}}
// @Router /assessments [get]
func (c *AcademicController) ListAssessments(ctx *gin.Context) {
	list(ctx, func(f models.AcademicFilter, p helpers.PageRequest) ([]*models.Assessment, int64, error) {
		return c.academicService.ListAssessments(ctx.Request.Context(), f, p)
	})
}

// @Summary Delete assessment
// @Tags assessments
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Success 200 {object} dto.APIResponse
// @Router /assessments/{id} [delete]
func (c *AcademicController) DeleteAssessment(ctx *gin.Context) {
	remove(ctx, "Assessment", c.academicService.DeleteAssessment)
}

// CreateResult godoc
// @Summary Record result
// @Description Marks may not exceed the assessment's total. The student is notified.
// @Tags results
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AssessmentResultRequest true "Result"
// @Success 201 {object} dto.APIResponse{data=models.AssessmentResult}
// @Router /results [post]
func (c *AcademicController) CreateResult(ctx *gin.Context) {
	var req dto.AssessmentResultRequest
	if !bindJSON(ctx, &req) {
		return
	}
	result, err := c.academicService.CreateResult(ctx.Request.Context(), &req)
	respond(ctx, http.StatusCreated, result, err)
}

// BulkCreateResults godoc
// @Summary Record results in bulk
// @Tags results
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BulkResultRequest true "Results"
// @Success 201 {object} dto.APIResponse{data=[]models.AssessmentResult}
// @Router /results/bulk [post]
func (c *AcademicController) BulkCreateResults(ctx *gin.Context) {
	var req dto.BulkResultRequest
	if !bindJSON(ctx, &req) {
		return
	}
	results, err := c.academicService.BulkCreateResults(ctx.Request.Context(), &req)
	respond(ctx, http.StatusCreated, results, err)
}

// @Summary Update result
// @Tags results
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Result ID"
// @Param request body dto.AssessmentResultRequest true "Result"
// @Success 200 {object} dto.APIResponse{data=models.AssessmentResult}
// @Router /results/{id} [put]
func (c *AcademicController) UpdateResult(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.AssessmentResultRequest
	if !bindJSON(ctx, &req) {
		return
	}
	result, err := c.academicService.UpdateResult(ctx.Request.Context(), id, &req)
	respond(ctx, http.StatusOK, result, err)
}

// @Summary Get result
// @Tags results
// @Produce json
// @Security BearerAuth
// @Param id path int true "Result ID"
// @Success 200 {object} dto.APIResponse{data=models.AssessmentResult}
// @Router /results/{id} [get]
func (c *AcademicController) GetResult(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	result, err := c.academicService.GetResult(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, result, err)
}

// @Summary List results
// @Tags results
// @Produce json
// @Security BearerAuth
// @Param assessmentId query int false "Assessment filter"
// @Param studentId query int false "Student filter"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.AssessmentResult}}
// @Router /results [get]
func (c *AcademicController) ListResults(ctx *gin.Context) {
	list(ctx, func(f models.AcademicFilter, p helpers.PageRequest) ([]*models.AssessmentResult, int64, error) {
		return c.academicService.ListResults(ctx.Request.Context(), f, p)
	})
}

// @Summary Delete result
// @Tags results
// @Security BearerAuth
// @Param id path int true "Result ID"
// @Success 200 {object} dto.APIResponse
// @Router /results/{id} [delete]
func (c *AcademicController) DeleteResult(ctx *gin.Context) {
	remove(ctx, "Result", c.academicService.DeleteResult)
}

// CreateAssignment godoc
// @Summary Create assignment
// @Description JSON or multipart with an optional file. The section's students are notified.
// @Tags assignments
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body dto.AssignmentRequest true "Assignment"
// @Param file formData file false "Attachment"
// @Success 201 {object} dto.APIResponse{data=models.Assignment}
// @Router /assignments [post]
func (c *AcademicController) CreateAssignment(ctx *gin.Context) {
	var req dto.AssignmentRequest
	file, valid := bind(ctx, &req)
	if !valid {
		return
	}
	assignment, err := c.academicService.CreateAssignment(ctx.Request.Context(), &req, file)
	respond(ctx, http.StatusCreated, assignment, err)
}

// @Summary Update assignment
// @Tags assignments
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assignment ID"
// @Param request body dto.AssignmentRequest true "Assignment"
// @Param file formData file false "Replacement attachment"
// @Success 200 {object} dto.APIResponse{data=models.Assignment}
// @Router /assignments/{id} [put]
func (c *AcademicController) UpdateAssignment(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.AssignmentRequest
	file, valid := bind(ctx, &req)
	if !valid {
		return
	}
	assignment, err := c.academicService.UpdateAssignment(ctx.Request.Context(), id, &req, file)
	respond(ctx, http.StatusOK, assignment, err)
}

// @Summary Get assignment
// @Tags assignments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assignment ID"
// @Success 200 {object} dto.APIResponse{data=models.Assignment}
// @Router /assignments/{id} [get]
func (c *AcademicController) GetAssignment(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	assignment, err := c.academicService.GetAssignment(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, assignment, err)
}

// @Summary List assignments
// @Tags assignments
// @Produce json
// @Security BearerAuth
// @Param sectionId query int false "Section filter"
// @Param subjectId query int false "Subject filter"
// @Param q query string false "Search on title"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Assignment}}
// @Router /assignments [get]
func (c *AcademicController) ListAssignments(ctx *gin.Context) {
	list(ctx, func(f models.AcademicFilter, p helpers.PageRequest) ([]*models.Assignment, int64, error) {
		return c.academicService.ListAssignments(ctx.Request.Context(), f, p)
	})
}

// @Summary Delete assignment
// @Tags assignments
// @Security BearerAuth
// @Param id path int true "Assignment ID"
// @Success 200 {object} dto.APIResponse
// @Router /assignments/{id} [delete]
func (c *AcademicController) DeleteAssignment(ctx *gin.Context) {
	remove(ctx, "Assignment", c.academicService.DeleteAssignment)
}

// Submit godoc
// @Summary Submit an assignment
// @Description Students submit once per assignment, optionally with a file
// @Tags submissions
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body dto.SubmissionRequest true "Submission"
// @Param file formData file false "Work"
// @Success 201 {object} dto.APIResponse{data=models.AssignmentSubmission}
// @Failure 409 {object} dto.ErrorResponse "Already submitted"
// @Router /submissions [post]
func (c *AcademicController) Submit(ctx *gin.Context) {
	var req dto.SubmissionRequest
	file, valid := bind(ctx, &req)
	if !valid {
		return
	}
	submission, err := c.academicService.Submit(ctx.Request.Context(), &req, file)
	respond(ctx, http.StatusCreated, submission, err)
}

// GradeSubmission godoc
// @Summary Grade a submission
// @Tags submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Param request body dto.GradeSubmissionRequest true "Score 0-100 and remarks"
// @Success 200 {object} dto.APIResponse{data=models.AssignmentSubmission}
// @Router /submissions/{id}/grade [post]
func (c *AcademicController) GradeSubmission(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.GradeSubmissionRequest
	if !bindJSON(ctx, &req) {
		return
	}
	submission, err := c.academicService.GradeSubmission(ctx.Request.Context(), id, &req)
	respond(ctx, http.StatusOK, submission, err)
}

// @Summary Get submission
// @Tags submissions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Success 200 {object} dto.APIResponse{data=models.AssignmentSubmission}
// @Router /submissions/{id} [get]
func (c *AcademicController) GetSubmission(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	submission, err := c.academicService.GetSubmission(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, submission, err)
}

// @Summary List submissions
// @Tags submissions
// @Produce json
// @Security BearerAuth
// @Param assignmentId query int false "Assignment filter"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.AssignmentSubmission}}
// @Router /submissions [get]
func (c *AcademicController) ListSubmissions(ctx *gin.Context) {
	list(ctx, func(f models.AcademicFilter, p helpers.PageRequest) ([]*models.AssignmentSubmission, int64, error) {
		return c.academicService.ListSubmissions(ctx.Request.Context(), f, p)
	})
}

// @Summary Delete submission
// @Tags submissions
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Success 200 {object} dto.APIResponse
// @Router /submissions/{id} [delete]
func (c *AcademicController) DeleteSubmission(ctx *gin.Context) {
	remove(ctx, "Submission", c.academicService.DeleteSubmission)
}
