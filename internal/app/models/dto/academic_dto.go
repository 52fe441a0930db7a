package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yigit/schoolsphere/internal/app/models"
)

type AcademicYearRequest struct {
	Name      string      `json:"name" binding:"required,max=50" example:"2024-2025"`
	StartDate models.Date `json:"startDate" binding:"required"`
	EndDate   models.Date `json:"endDate" binding:"required"`
	IsActive  bool        `json:"isActive"`
}

type ClassRequest struct {
	Name        string `json:"name" binding:"required,max=100" example:"Grade 5"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}

type SectionRequest struct {
	Name           string `json:"name" binding:"required,max=50" example:"A"`
	ClassID        int64  `json:"classId" binding:"required,gt=0"`
	TeacherID      *int64 `json:"teacherId" binding:"omitempty,gt=0"`
	AcademicYearID int64  `json:"academicYearId" binding:"required,gt=0"`
}

type SubjectRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Code        string `json:"code" binding:"required,max=20"`
	Description string `json:"description" binding:"omitempty,max=1000"`
	ClassID     int64  `json:"classId" binding:"required,gt=0"`
	TeacherID   *int64 `json:"teacherId" binding:"omitempty,gt=0"`
}

type AttendanceRequest struct {
	StudentID int64       `json:"studentId" binding:"required,gt=0"`
	SectionID int64       `json:"sectionId" binding:"required,gt=0"`
	Date      models.Date `json:"date" binding:"required"`
	IsPresent bool        `json:"isPresent"`
	Remarks   string      `json:"remarks" binding:"omitempty,max=500"`
}

type BulkAttendanceRequest struct {
	Records []AttendanceRequest `json:"records" binding:"required,min=1,dive"`
}

type AssessmentRequest struct {
	Name       string          `json:"name" binding:"required,max=100"`
	SubjectID  int64           `json:"subjectId" binding:"required,gt=0"`
	SectionID  int64           `json:"sectionId" binding:"required,gt=0"`
	Date       models.Date     `json:"date" binding:"required"`
	TotalMarks decimal.Decimal `json:"totalMarks"`
}

type AssessmentResultRequest struct {
	AssessmentID  int64           `json:"assessmentId" binding:"required,gt=0"`
	StudentID     int64           `json:"studentId" binding:"required,gt=0"`
	MarksObtained decimal.Decimal `json:"marksObtained"`
	Remarks       string          `json:"remarks" binding:"omitempty,max=500"`
}

type BulkResultRequest struct {
	Results []AssessmentResultRequest `json:"results" binding:"required,min=1,dive"`
}

// AssignmentRequest is bound from JSON or from a multipart form with an optional file
type AssignmentRequest struct {
	Title       string    `json:"title" form:"title" binding:"required,max=200"`
	Description string    `json:"description" form:"description"`
	SubjectID   int64     `json:"subjectId" form:"subjectId" binding:"required,gt=0"`
	SectionID   int64     `json:"sectionId" form:"sectionId" binding:"required,gt=0"`
	DueDate     time.Time `json:"dueDate" form:"dueDate" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

type SubmissionRequest struct {
	AssignmentID int64  `json:"assignmentId" form:"assignmentId" binding:"required,gt=0"`
	Remarks      string `json:"remarks" form:"remarks" binding:"omitempty,max=1000"`
}

// GradeSubmissionRequest is the teacher side of a submission
type GradeSubmissionRequest struct {
	Score   *decimal.Decimal `json:"score"`
	Remarks *string          `json:"remarks" binding:"omitempty,max=1000"`
}

type TimetableRequest struct {
	SectionID int64  `json:"sectionId" binding:"required,gt=0"`
	SubjectID int64  `json:"subjectId" binding:"required,gt=0"`
	Weekday   *int   `json:"weekday" binding:"required,min=0,max=6"`
	StartTime string `json:"startTime" binding:"required,clock" example:"08:30"`
	EndTime   string `json:"endTime" binding:"required,clock" example:"09:15"`
}
