package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/app/services"
	"github.com/yigit/schoolsphere/internal/middleware"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

// AcademicController serves the school structure (years, classes, sections,
// subjects, timetable) and the coursework records kept against it.
type AcademicController struct {
	academicService *services.AcademicService
	logger          zerolog.Logger
}

func NewAcademicController(academicService *services.AcademicService, logger zerolog.Logger) *AcademicController {
	return &AcademicController{academicService: academicService, logger: logger}
}

func academicFilter(ctx *gin.Context) (models.AcademicFilter, error) {
	f := models.AcademicFilter{
		ClassID:      queryID(ctx, "classId"),
		SectionID:    queryID(ctx, "sectionId"),
		SubjectID:    queryID(ctx, "subjectId"),
		StudentID:    queryID(ctx, "studentId"),
		AssessmentID: queryID(ctx, "assessmentId"),
		AssignmentID: queryID(ctx, "assignmentId"),
		Search:       ctx.Query("q"),
	}
	if raw, ok := ctx.GetQuery("weekday"); ok {
		day, err := strconv.Atoi(raw)
		if err != nil || day < 0 || day > 6 {
			return f, apperrors.NewValidationError("weekday", "weekday must be between 0 and 6")
		}
		f.Weekday = &day
	}
	var err error
	if f.From, err = queryDate(ctx, "from"); err != nil {
		return f, err
	}
	if f.To, err = queryDate(ctx, "to"); err != nil {
		return f, err
	}
	return f, nil
}

// list runs a scoped, paginated academic listing.
func list[T any](ctx *gin.Context, fetch func(models.AcademicFilter, helpers.PageRequest) ([]T, int64, error)) {
	f, err := academicFilter(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	p := helpers.ParsePaginationParams(ctx)
	items, total, err := fetch(f, p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page(ctx, items, total, p)
}

// respond answers with result, or with the error envelope.
func respond[T any](ctx *gin.Context, status int, result T, err error) {
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if status == http.StatusCreated {
		created(ctx, result)
		return
	}
	ok(ctx, result)
}


// CreateYear godoc
// @Summary Create academic year
// @Tags academic-years
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AcademicYearRequest true "Academic year"
// @Success 201 {object} dto.APIResponse{data=models.AcademicYear}
// @Router /academic-years [post]
func (c *AcademicController) CreateYear(ctx *gin.Context) {
	var req dto.AcademicYearRequest
	if !bindJSON(ctx, &req) {
		return
	}
	year, err := c.academicService.CreateYear(ctx.Request.Context(), &req)
	respond(ctx, http.StatusCreated, year, err)
}

// UpdateYear godoc
// @Summary Update academic year
// @Tags academic-years
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Academic year ID"
// @Param request body dto.AcademicYearRequest true "Academic year"
// @Success 200 {object} dto.APIResponse{data=models.AcademicYear}
// @Router /academic-years/{id} [put]
func (c *AcademicController) UpdateYear(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.AcademicYearRequest
	if !bindJSON(ctx, &req) {
		return
	}
	year, err := c.academicService.UpdateYear(ctx.Request.Context(), id, &req)
	respond(ctx, http.StatusOK, year, err)
}

// ActivateYear godoc
// @Summary Activate academic year
// @Description Deactivates every other year
// @Tags academic-years
// @Produce json
// @Security BearerAuth
// @Param id path int true "Academic year ID"
// @Success 200 {object} dto.APIResponse{data=models.AcademicYear}
// @Router /academic-years/{id}/activate [post]
func (c *AcademicController) ActivateYear(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	year, err := c.academicService.ActivateYear(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, year, err)
}

// GetYear godoc
// @Summary Get academic year
// @Tags academic-years
// @Produce json
// @Security BearerAuth
// @Param id path int true "Academic year ID"
// @Success 200 {object} dto.APIResponse{data=models.AcademicYear}
// @Router /academic-years/{id} [get]
func (c *AcademicController) GetYear(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	year, err := c.academicService.GetYear(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, year, err)
}

// ListYears godoc
// @Summary List academic years
// @Tags academic-years
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.AcademicYear}}
// @Router /academic-years [get]
func (c *AcademicController) ListYears(ctx *gin.Context) {
	list(ctx, func(f models.AcademicFilter, p helpers.PageRequest) ([]*models.AcademicYear, int64, error) {
		return c.academicService.ListYears(ctx.Request.Context(), f, p)
	})
}

// DeleteYear godoc
// @Summary Delete academic year
// @Tags academic-years
// @Security BearerAuth
// @Param id path int true "Academic year ID"
// @Success 200 {object} dto.APIResponse
// @Router /academic-years/{id} [delete]
func (c *AcademicController) DeleteYear(ctx *gin.Context) {
	remove(ctx, "Academic year", c.academicService.DeleteYear)
}

// CreateClass godoc
// @Summary Create class
// @Tags classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ClassRequest true "Class"
// @Success 201 {object} dto.APIResponse{data=models.Class}
// @Router /classes [post]
func (c *AcademicController) CreateClass(ctx *gin.Context) {
	var req dto.ClassRequest
	if !bindJSON(ctx, &req) {
		return
	}
	class, err := c.academicService.CreateClass(ctx.Request.Context(), &req)
	respond(ctx, http.StatusCreated, class, err)
}

// UpdateClass godoc
// @Summary Update class
// @Tags classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Class ID"
// @Param request body dto.ClassRequest true "Class"
// @Success 200 {object} dto.APIResponse{data=models.Class}
// @Router /classes/{id} [put]
func (c *AcademicController) UpdateClass(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.ClassRequest
	if !bindJSON(ctx, &req) {
		return
	}
	class, err := c.academicService.UpdateClass(ctx.Request.Context(), id, &req)
	respond(ctx, http.StatusOK, class, err)
}

// GetClass godoc
// @Summary Get class
// @Tags classes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Class ID"
// @Success 200 {object} dto.APIResponse{data=models.Class}
// @Router /classes/{id} [get]
func (c *AcademicController) GetClass(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	class, err := c.academicService.GetClass(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, class, err)
}

// ListClasses godoc
// @Summary List classes
// @Tags classes
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search on name"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Class}}
// @Router /classes [get]
func (c *AcademicController) ListClasses(ctx *gin.Context) {
	list(ctx, func(f models.AcademicFilter, p helpers.PageRequest) ([]*models.Class, int64, error) {
		return c.academicService.ListClasses(ctx.Request.Context(), f, p)
	})
}

// DeleteClass godoc
// @Summary Delete class
// @Tags classes
// @Security BearerAuth
// @Param id path int true "Class ID"
// @Success 200 {object} dto.APIResponse
// @Router /classes/{id} [delete]
func (c *AcademicController) DeleteClass(ctx *gin.Context) {
	remove(ctx, "Class", c.academicService.DeleteClass)
}

// CreateSection godoc
// @Summary Create section
// @Tags sections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SectionRequest true "Section"
// @Success 201 {object} dto.APIResponse{data=models.Section}
// @Failure 409 {object} dto.ErrorResponse "Section name taken in class and year"
// @Router /sections [post]
func (c *AcademicController) CreateSection(ctx *gin.Context) {
	var req dto.SectionRequest
	if !bindJSON(ctx, &req) {
		return
	}
	section, err := c.academicService.CreateSection(ctx.Request.Context(), &req)
	respond(ctx, http.StatusCreated, section, err)
}

// UpdateSection godoc
// @Summary Update section
// @Tags sections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Section ID"
// @Param request body dto.SectionRequest true "Section"
// @Success 200 {object} dto.APIResponse{data=models.Section}
// @Router /sections/{id} [put]
func (c *AcademicController) UpdateSection(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.SectionRequest
	if !bindJSON(ctx, &req) {
		return
	}
	section, err := c.academicService.UpdateSection(ctx.Request.Context(), id, &req)
	respond(ctx, http.StatusOK, section, err)
}

// GetSection godoc
// @Summary Get section
// @Tags sections
// @Produce json
// @Security BearerAuth
// @Param id path int true "Section ID"
// @Success 200 {object} dto.APIResponse{data=models.Section}
// @Router /sections/{id} [get]
func (c *AcademicController) GetSection(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	section, err := c.academicService.GetSection(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, section, err)
}

// ListSections godoc
// @Summary List sections
// @Description Teachers see the sections they teach, students the ones they are enrolled in
// @Tags sections
// @Produce json
// @Security BearerAuth
// @Param classId query int false "Class filter"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Section}}
// @Router /sections [get]
func (c *AcademicController) ListSections(ctx *gin.Context) {
	list(ctx, func(f models.AcademicFilter, p helpers.PageRequest) ([]*models.Section, int64, error) {
		return c.academicService.ListSections(ctx.Request.Context(), f, p)
	})
}

// DeleteSection godoc
// @Summary Delete section
// @Tags sections
// @Security BearerAuth
// @Param id path int true "Section ID"
// @Success 200 {object} dto.APIResponse
// @Router /sections/{id} [delete]
func (c *AcademicController) DeleteSection(ctx *gin.Context) {
	remove(ctx, "Section", c.academicService.DeleteSection)
}

// AddStudents godoc
// @Summary Enroll students
// @Tags sections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Section ID"
// @Param request body dto.IDList true "Student ids"
// @Success 200 {object} dto.APIResponse{data=models.Section}
// @Router /sections/{id}/students [post]
func (c *AcademicController) AddStudents(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.IDList
	if !bindJSON(ctx, &req) {
		return
	}
	section, err := c.academicService.AddStudents(ctx.Request.Context(), id, req.IDs)
	respond(ctx, http.StatusOK, section, err)
}

// RemoveStudents godoc
// @Summary Unenroll students
// @Tags sections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Section ID"
// @Param request body dto.IDList true "Student ids"
// @Success 200 {object} dto.APIResponse{data=models.Section}
// @Router /sections/{id}/students/remove [post]
func (c *AcademicController) RemoveStudents(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.IDList
	if !bindJSON(ctx, &req) {
		return
	}
	section, err := c.academicService.RemoveStudents(ctx.Request.Context(), id, req.IDs)
	respond(ctx, http.StatusOK, section, err)
}

// CreateSubject godoc
// @Summary Create subject
// @Tags subjects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SubjectRequest true "Subject"
// @Success 201 {object} dto.APIResponse{data=models.Subject}
// @Router /subjects [post]
func (c *AcademicController) CreateSubject(ctx *gin.Context) {
	var req dto.SubjectRequest
	if !bindJSON(ctx, &req) {
		return
	}
	subject, err := c.academicService.CreateSubject(ctx.Request.Context(), &req)
	respond(ctx, http.StatusCreated, subject, err)
}

// UpdateSubject godoc
// @Summary Update subject
// @Tags subjects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Subject ID"
// @Param request body dto.SubjectRequest true "Subject"
// @Success 200 {object} dto.APIResponse{data=models.Subject}
// @Router /subjects/{id} [put]
func (c *AcademicController) UpdateSubject(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.SubjectRequest
	if !bindJSON(ctx, &req) {
		return
	}
	subject, err := c.academicService.UpdateSubject(ctx.Request.Context(), id, &req)
	respond(ctx, http.StatusOK, subject, err)
}

// GetSubject godoc
// @Summary Get subject
// @Tags subjects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Subject ID"
// @Success 200 {object} dto.APIResponse{data=models.Subject}
// @Router /subjects/{id} [get]
func (c *AcademicController) GetSubject(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	subject, err := c.academicService.GetSubject(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, subject, err)
}

// ListSubjects godoc
// @Summary List subjects
// @Tags subjects
// @Produce json
// @Security BearerAuth
// @Param classId query int false "Class filter"
// @Param q query string false "Search on name or code"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Subject}}
// @Router /subjects [get]
func (c *AcademicController) ListSubjects(ctx *gin.Context) {
	list(ctx, func(f models.AcademicFilter, p helpers.PageRequest) ([]*models.Subject, int64, error) {
		return c.academicService.ListSubjects(ctx.Request.Context(), f, p)
	})
}

// DeleteSubject godoc
// @Summary Delete subject
// @Tags subjects
// @Security BearerAuth
// @Param id path int true "Subject ID"
// @Success 200 {object} dto.APIResponse
// @Router /subjects/{id} [delete]
func (c *AcademicController) DeleteSubject(ctx *gin.Context) {
	remove(ctx, "Subject", c.academicService.DeleteSubject)
}

// CreateTimetableEntry godoc
// @Summary Create timetable entry
// @Tags timetable
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.TimetableRequest true "Entry"
// @Success 201 {object} dto.APIResponse{data=models.TimetableEntry}
// @Failure 409 {object} dto.ErrorResponse "Overlaps another entry of the section"
// @Router /timetable [post]
func (c *AcademicController) CreateTimetableEntry(ctx *gin.Context) {
	var req dto.TimetableRequest
	if !bindJSON(ctx, &req) {
		return
	}
	entry, err := c.academicService.CreateTimetableEntry(ctx.Request.Context(), &req)
	respond(ctx, http.StatusCreated, entry, err)
}

// UpdateTimetableEntry godoc
// @Summary Update timetable entry
// @Tags timetable
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Entry ID"
// @Param request body dto.TimetableRequest true "Entry"
// @Success 200 {object} dto.APIResponse{data=models.TimetableEntry}
// @Router /timetable/{id} [put]
func (c *AcademicController) UpdateTimetableEntry(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.TimetableRequest
	if !bindJSON(ctx, &req) {
		return
	}
	entry, err := c.academicService.UpdateTimetableEntry(ctx.Request.Context(), id, &req)
	respond(ctx, http.StatusOK, entry, err)
}

// GetTimetableEntry godoc
// @Summary Get timetable entry
// @Tags timetable
// @Produce json
// @Security BearerAuth
// @Param id path int true "Entry ID"
// @Success 200 {object} dto.APIResponse{data=models.TimetableEntry}
// @Router /timetable/{id} [get]
func (c *AcademicController) GetTimetableEntry(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	entry, err := c.academicService.GetTimetableEntry(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, entry, err)
}

// ListTimetable godoc
// @Summary List timetable
// @Tags timetable
// @Produce json
// @Security BearerAuth
// @Param sectionId query int false "Section filter"
// @Param weekday query int false "Weekday, 0 is Monday"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.TimetableEntry}}
// @Router /timetable [get]
func (c *AcademicController) ListTimetable(ctx *gin.Context) {
	list(ctx, func(f models.AcademicFilter, p helpers.PageRequest) ([]*models.TimetableEntry, int64, error) {
		return c.academicService.ListTimetable(ctx.Request.Context(), f, p)
	})
}

// DeleteTimetableEntry godoc
// @Summary Delete timetable entry
// @Tags timetable
// @Security BearerAuth
// @Param id path int true "Entry ID"
// @Success 200 {object} dto.APIResponse
// @Router /timetable/{id} [delete]
func (c *AcademicController) DeleteTimetableEntry(ctx *gin.Context) {
	remove(ctx, "Timetable entry", c.academicService.DeleteTimetableEntry)
}
