package dto

import "github.com/yigit/schoolsphere/internal/app/models"

// CreateUserRequest creates an account inside the current school
type CreateUserRequest struct {
	Username  string          `json:"username" binding:"required,min=3,max=150,alphanum"`
	Email     string          `json:"email" binding:"required,email"`
	Password  string          `json:"password" binding:"required,min=8"`
	FirstName string          `json:"firstName" binding:"required,max=100"`
	LastName  string          `json:"lastName" binding:"required,max=100"`
	Role      models.RoleType `json:"role" binding:"required"`
	Phone     string          `json:"phone" binding:"omitempty,max=20"`
	Address   string          `json:"address" binding:"omitempty,max=500"`
}

// UpdateUserRequest is an admin-side partial update
type UpdateUserRequest struct {
	Email     *string          `json:"email" binding:"omitempty,email"`
	FirstName *string          `json:"firstName" binding:"omitempty,max=100"`
	LastName  *string          `json:"lastName" binding:"omitempty,max=100"`
	Role      *models.RoleType `json:"role"`
	Phone     *string          `json:"phone" binding:"omitempty,max=20"`
	Address   *string          `json:"address" binding:"omitempty,max=500"`
	IsActive  *bool            `json:"isActive"`
}

// CreateStudentRequest creates the user and its profile together
type CreateStudentRequest struct {
	CreateUserRequest
	AdmissionNumber string       `json:"admissionNumber" binding:"required,max=50"`
	DateOfBirth     *models.Date `json:"dateOfBirth"`
	BloodGroup      string       `json:"bloodGroup" binding:"omitempty,oneof=A+ A- B+ B- O+ O- AB+ AB-"`
	ParentID        *int64       `json:"parentId" binding:"omitempty,gt=0"`
}

type UpdateStudentRequest struct {
	UpdateUserRequest
	AdmissionNumber *string      `json:"admissionNumber" binding:"omitempty,max=50"`
	DateOfBirth     *models.Date `json:"dateOfBirth"`
	BloodGroup      *string      `json:"bloodGroup" binding:"omitempty,oneof=A+ A- B+ B- O+ O- AB+ AB-"`
	ParentID        *int64       `json:"parentId" binding:"omitempty,gt=0"`
}

type CreateTeacherRequest struct {
	CreateUserRequest
	EmployeeID      string       `json:"employeeId" binding:"required,max=50"`
	DateOfBirth     *models.Date `json:"dateOfBirth"`
	Qualification   string       `json:"qualification" binding:"omitempty,max=200"`
	ExperienceYears int          `json:"experienceYears" binding:"gte=0"`
	Subjects        []string     `json:"subjects"`
}

type UpdateTeacherRequest struct {
	UpdateUserRequest
	EmployeeID      *string      `json:"employeeId" binding:"omitempty,max=50"`
	DateOfBirth     *models.Date `json:"dateOfBirth"`
	Qualification   *string      `json:"qualification" binding:"omitempty,max=200"`
	ExperienceYears *int         `json:"experienceYears" binding:"omitempty,gte=0"`
	Subjects        []string     `json:"subjects"`
}

// StudentResponse flattens a student for API output
type StudentResponse struct {
	UserResponse
	AdmissionNumber string       `json:"admissionNumber"`
	DateOfBirth     *models.Date `json:"dateOfBirth,omitempty"`
	BloodGroup      string       `json:"bloodGroup,omitempty"`
	ParentID        *int64       `json:"parentId,omitempty"`
}

// NewStudentResponse flattens s.
func NewStudentResponse(s *models.Student) *StudentResponse {
	return &StudentResponse{
		UserResponse:    *NewUserResponse(&s.User),
		AdmissionNumber: s.Profile.AdmissionNumber,
		DateOfBirth:     s.Profile.DateOfBirth,
		BloodGroup:      s.Profile.BloodGroup,
		ParentID:        s.Profile.ParentID,
	}
}

type TeacherResponse struct {
	UserResponse
	EmployeeID      string       `json:"employeeId"`
	DateOfBirth     *models.Date `json:"dateOfBirth,omitempty"`
	Qualification   string       `json:"qualification,omitempty"`
	ExperienceYears int          `json:"experienceYears"`
	Subjects        []string     `json:"subjects"`
}

func NewTeacherResponse(t *models.Teacher) *TeacherResponse {
	subjects := []string(t.Profile.Subjects)
	if subjects == nil {
		subjects = []string{}
	}
	return &TeacherResponse{
		UserResponse:    *NewUserResponse(&t.User),
		EmployeeID:      t.Profile.EmployeeID,
		DateOfBirth:     t.Profile.DateOfBirth,
		Qualification:   t.Profile.Qualification,
		ExperienceYears: t.Profile.ExperienceYears,
		Subjects:        subjects,
	}
}
