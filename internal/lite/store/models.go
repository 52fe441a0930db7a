package store

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// Role is a lite account role.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTeacher    Role = "teacher"
	RoleStudent    Role = "student"
	RoleParent     Role = "parent"
	RoleLibrarian  Role = "librarian"
	RoleAccountant Role = "accountant"
)

// Roles lists every valid Role in display order.
var Roles = []Role{RoleAdmin, RoleTeacher, RoleStudent, RoleParent, RoleLibrarian, RoleAccountant}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

type User struct {
	ID             int64     `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	Username       string    `db:"username" json:"username"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Role           Role      `db:"role" json:"role"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	IsVerified     bool      `db:"is_verified" json:"is_verified"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type Student struct {
	ID                int64       `db:"id" json:"id"`
	UserID            null.Int64  `db:"user_id" json:"user_id"`
	AdmissionNumber   string      `db:"admission_number" json:"admission_number" validate:"required,max=32"`
	RollNumber        string      `db:"roll_number" json:"roll_number"`
	ClassName         string      `db:"class_name" json:"class_name" validate:"required,max=32"`
	Section           string      `db:"section" json:"section" validate:"max=8"`
	DateOfBirth       null.Time   `db:"date_of_birth" json:"date_of_birth"`
	Gender            null.String `db:"gender" json:"gender"`
	BloodGroup        null.String `db:"blood_group" json:"blood_group"`
	Address           string      `db:"address" json:"address"`
	Phone             string      `db:"phone" json:"phone"`
	ParentName        string      `db:"parent_name" json:"parent_name"`
	ParentPhone       string      `db:"parent_phone" json:"parent_phone"`
	ParentEmail       string      `db:"parent_email" json:"parent_email" validate:"omitempty,email"`
	EmergencyContact  string      `db:"emergency_contact" json:"emergency_contact"`
	MedicalConditions string      `db:"medical_conditions" json:"medical_conditions"`
	CreatedAt         time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at" json:"updated_at"`
}

// BookStatus is the shelf state of a title.
type BookStatus string

const (
	BookAvailable   BookStatus = "available"
	BookIssued      BookStatus = "issued"
	BookLost        BookStatus = "lost"
	BookDamaged     BookStatus = "damaged"
	BookUnderRepair BookStatus = "under_repair"
)

type Book struct {
	ID              int64           `db:"id" json:"id"`
	Title           string          `db:"title" json:"title" validate:"required,max=255"`
	ISBN            string          `db:"isbn" json:"isbn" validate:"required,max=20"`
	Author          string          `db:"author" json:"author" validate:"required,max=255"`
	Publisher       string          `db:"publisher" json:"publisher"`
	Category        string          `db:"category" json:"category"`
	Edition         string          `db:"edition" json:"edition"`
	PublicationYear null.Int        `db:"publication_year" json:"publication_year"`
	Copies          int             `db:"copies" json:"copies" validate:"gte=0"`
	AvailableCopies int             `db:"available_copies" json:"available_copies" validate:"gte=0,ltefield=Copies"`
	Price           decimal.Decimal `db:"price" json:"price"`
	Location        string          `db:"location" json:"location"`
	Description     string          `db:"description" json:"description"`
	CoverImage      string          `db:"cover_image" json:"cover_image"`
	Status          BookStatus      `db:"status" json:"status" validate:"omitempty,oneof=available issued lost damaged under_repair"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

type Category struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name" validate:"required,max=100"`
	Description string     `db:"description" json:"description"`
	ParentID    null.Int64 `db:"parent_id" json:"parent_id"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

type Member struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id" validate:"required,gt=0"`
	MembershipType string    `db:"membership_type" json:"membership_type" validate:"required,max=32"`
	CardNumber     string    `db:"card_number" json:"card_number" validate:"required,max=32"`
	StartDate      time.Time `db:"start_date" json:"start_date" validate:"required"`
	EndDate        null.Time `db:"end_date" json:"end_date"`
	MaxBooks       int       `db:"max_books" json:"max_books" validate:"gte=1,lte=50"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// CirculationStatus tracks one loan.
type CirculationStatus string

const (
	CirculationIssued   CirculationStatus = "issued"
	CirculationReturned CirculationStatus = "returned"
	CirculationOverdue  CirculationStatus = "overdue"
	CirculationLost     CirculationStatus = "lost"
)

type Circulation struct {
	ID         int64             `db:"id" json:"id"`
	BookID     int64             `db:"book_id" json:"book_id"`
	MemberID   int64             `db:"member_id" json:"member_id"`
	IssueDate  time.Time         `db:"issue_date" json:"issue_date"`
	DueDate    time.Time         `db:"due_date" json:"due_date"`
	ReturnDate null.Time         `db:"return_date" json:"return_date"`
	FineAmount decimal.Decimal   `db:"fine_amount" json:"fine_amount"`
	Status     CirculationStatus `db:"status" json:"status"`
	Remarks    string            `db:"remarks" json:"remarks"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time         `db:"updated_at" json:"updated_at"`
}

// Page is a skip/limit window.
type Page struct {
	Skip  int
	Limit int
}
