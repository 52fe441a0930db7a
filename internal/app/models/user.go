package models

import (
	"strings"
	"time"
)

// User defines the user model based on the 'users' table of a schema
type User struct {
	ID             int64      `json:"id" db:"id" example:"1"`
	Username       string     `json:"username" db:"username" example:"jdoe"`
	Email          string     `json:"email" db:"email" example:"jdoe@school.test"`
	Password       string     `json:"-" db:"password"`
	FirstName      string     `json:"firstName" db:"first_name" example:"John"`
	LastName       string     `json:"lastName" db:"last_name" example:"Doe"`
	RoleType       RoleType   `json:"role" db:"role" example:"teacher"`
	Phone          string     `json:"phone" db:"phone"`
	Address        string     `json:"address" db:"address"`
	ProfilePicture string     `json:"-" db:"profile_picture"`
	IsActive       bool       `json:"isActive" db:"is_active" example:"true"`
	LastLoginAt    *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// StudentProfile holds student-only attributes keyed by the user id.
type StudentProfile struct {
	UserID          int64  `json:"userId" db:"user_id"`
	AdmissionNumber string `json:"admissionNumber" db:"admission_number"`
	DateOfBirth     *Date  `json:"dateOfBirth,omitempty" db:"date_of_birth"`
	BloodGroup      string `json:"bloodGroup" db:"blood_group"`
	ParentID        *int64 `json:"parentId,omitempty" db:"parent_id"`
}

// TeacherProfile holds teacher-only attributes keyed by the user id.
type TeacherProfile struct {
	UserID          int64      `json:"userId" db:"user_id"`
	EmployeeID      string     `json:"employeeId" db:"employee_id"`
	DateOfBirth     *Date      `json:"dateOfBirth,omitempty" db:"date_of_birth"`
	Qualification   string     `json:"qualification" db:"qualification"`
	ExperienceYears int        `json:"experienceYears" db:"experience_years"`
	Subjects        StringList `json:"subjects" db:"subjects"`
}

// Student is a user together with its student profile.
type Student struct {
	User    User           `json:"user"`
	Profile StudentProfile `json:"profile"`
}

// Teacher is a user together with its teacher profile.
type Teacher struct {
	User    User           `json:"user"`
	Profile TeacherProfile `json:"profile"`
}

// RefreshToken is an opaque, rotatable session credential.
type RefreshToken struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	IsRevoked bool      `db:"is_revoked"`
	CreatedAt time.Time `db:"created_at"`
}

// PasswordResetToken is a single-use token mailed to the user.
type PasswordResetToken struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	IsUsed    bool      `db:"is_used"`
	CreatedAt time.Time `db:"created_at"`
}

// UserFilter narrows user listings.
type UserFilter struct {
	Role   RoleType
	Search string
	// OnlyID restricts the listing to a single user when non-zero
	OnlyID    int64
	SectionID int64
	ClassID   int64
	ParentID  int64
}
