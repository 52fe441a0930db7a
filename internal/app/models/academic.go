package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scope restricts a listing to the rows a caller may see. Exactly one of the
// fields is meaningful; All wins when set.
type Scope struct {
	All       bool
	TeacherID int64
	StudentID int64
	ParentID  int64
}

// AcademicYear is ordered newest first by start date.
type AcademicYear struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	StartDate Date      `json:"startDate" db:"start_date"`
	EndDate   Date      `json:"endDate" db:"end_date"`
	IsActive  bool      `json:"isActive" db:"is_active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Class is a grade level such as "Grade 5".
type Class struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Section is a class division for one academic year.
type Section struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	ClassID        int64     `json:"classId" db:"class_id"`
	TeacherID      *int64    `json:"teacherId,omitempty" db:"teacher_id"`
	AcademicYearID int64     `json:"academicYearId" db:"academic_year_id"`
	StudentCount   int       `json:"studentCount" db:"student_count"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

type Subject struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Code        string    `json:"code" db:"code"`
	Description string    `json:"description" db:"description"`
	ClassID     int64     `json:"classId" db:"class_id"`
	TeacherID   *int64    `json:"teacherId,omitempty" db:"teacher_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

type Attendance struct {
	ID        int64     `json:"id" db:"id"`
	StudentID int64     `json:"studentId" db:"student_id"`
	SectionID int64     `json:"sectionId" db:"section_id"`
	Date      Date      `json:"date" db:"date"`
	IsPresent bool      `json:"isPresent" db:"is_present"`
	Remarks   string    `json:"remarks" db:"remarks"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type Assessment struct {
	ID         int64           `json:"id" db:"id"`
	Name       string          `json:"name" db:"name"`
	SubjectID  int64           `json:"subjectId" db:"subject_id"`
	SectionID  int64           `json:"sectionId" db:"section_id"`
	Date       Date            `json:"date" db:"date"`
	TotalMarks decimal.Decimal `json:"totalMarks" db:"total_marks"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time       `json:"updatedAt" db:"updated_at"`
}

type AssessmentResult struct {
	ID            int64           `json:"id" db:"id"`
	AssessmentID  int64           `json:"assessmentId" db:"assessment_id"`
	StudentID     int64           `json:"studentId" db:"student_id"`
	MarksObtained decimal.Decimal `json:"marksObtained" db:"marks_obtained"`
	Remarks       string          `json:"remarks" db:"remarks"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

type Assignment struct {
	ID              int64     `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Description     string    `json:"description" db:"description"`
	SubjectID       int64     `json:"subjectId" db:"subject_id"`
	SectionID       int64     `json:"sectionId" db:"section_id"`
	DueDate         time.Time `json:"dueDate" db:"due_date"`
	FileKey         string    `json:"-" db:"file_key"`
	FileURL         string    `json:"fileUrl,omitempty" db:"-"`
	SubmissionCount int       `json:"submissionCount" db:"submission_count"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

type AssignmentSubmission struct {
	ID           int64            `json:"id" db:"id"`
	AssignmentID int64            `json:"assignmentId" db:"assignment_id"`
	StudentID    int64            `json:"studentId" db:"student_id"`
	FileKey      string           `json:"-" db:"file_key"`
	FileURL      string           `json:"fileUrl,omitempty" db:"-"`
	SubmittedAt  time.Time        `json:"submittedAt" db:"submitted_at"`
	Remarks      string           `json:"remarks" db:"remarks"`
	Score        *decimal.Decimal `json:"score,omitempty" db:"score"`
	UpdatedAt    time.Time        `json:"updatedAt" db:"updated_at"`
}

// TimetableEntry is one weekly slot. Weekday 0 is Monday. Times are "HH:MM".
type TimetableEntry struct {
	ID        int64     `json:"id" db:"id"`
	SectionID int64     `json:"sectionId" db:"section_id"`
	SubjectID int64     `json:"subjectId" db:"subject_id"`
	Weekday   int       `json:"weekday" db:"weekday"`
	StartTime string    `json:"startTime" db:"start_time"`
	EndTime   string    `json:"endTime" db:"end_time"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// AcademicFilter carries the optional list filters shared by academic resources.
type AcademicFilter struct {
	ClassID      int64
	SectionID    int64
	SubjectID    int64
	StudentID    int64
	AssessmentID int64
	AssignmentID int64
	Weekday      *int
	From         *Date
	To           *Date
	Search       string
	Scope        Scope
}
