package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/db"
	"github.com/yigit/schoolsphere/internal/pkg/auth"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

// The interfaces below are what services need from the repositories. The
// concrete *repositories types satisfy them; tests use the mocks package.

type SchoolStore interface {
	Create(ctx context.Context, s *models.School) error
	GetByID(ctx context.Context, id int64) (*models.School, error)
	GetBySchema(ctx context.Context, schema string) (*models.School, error)
	GetByDomain(ctx context.Context, domain string) (*models.School, error)
	List(ctx context.Context, f models.SchoolFilter, p helpers.PageRequest) ([]*models.School, int64, error)
	ListSchemas(ctx context.Context) ([]string, error)
	Update(ctx context.Context, s *models.School) error
	Delete(ctx context.Context, id int64) error
	AddDomain(ctx context.Context, d *models.Domain) error
	ListDomains(ctx context.Context, schoolID int64) ([]models.Domain, error)
	DeleteDomain(ctx context.Context, schoolID, domainID int64) error
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, f models.UserFilter, p helpers.PageRequest) ([]*models.User, int64, error)
	Update(ctx context.Context, u *models.User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdateProfilePicture(ctx context.Context, id int64, key string) error
	Delete(ctx context.Context, id int64) error
	CountByRole(ctx context.Context, roles ...models.RoleType) (int64, error)
	Exists(ctx context.Context, id int64) (bool, error)
	CreateStudentProfile(ctx context.Context, p *models.StudentProfile) error
	UpdateStudentProfile(ctx context.Context, p *models.StudentProfile) error
	GetStudent(ctx context.Context, id int64, scope models.Scope) (*models.Student, error)
	ListStudents(ctx context.Context, scope models.Scope, f models.UserFilter, p helpers.PageRequest) ([]*models.Student, int64, error)
	CreateTeacherProfile(ctx context.Context, p *models.TeacherProfile) error
	UpdateTeacherProfile(ctx context.Context, p *models.TeacherProfile) error
	GetTeacher(ctx context.Context, id int64) (*models.Teacher, error)
	ListTeachers(ctx context.Context, f models.UserFilter, p helpers.PageRequest) ([]*models.Teacher, int64, error)
	ChildrenOf(ctx context.Context, parentID int64) ([]int64, error)
	AudienceIDs(ctx context.Context, roles []models.RoleType, classIDs, sectionIDs []int64) ([]int64, error)
}

type TokenStore interface {
	CreateToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	GetToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
}

type PasswordResetStore interface {
	CreateToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	GetToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	MarkTokenAsUsed(ctx context.Context, token string) error
}

type AcademicYearStore interface {
	Create(ctx context.Context, y *models.AcademicYear) error
	GetByID(ctx context.Context, id int64) (*models.AcademicYear, error)
	List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.AcademicYear, int64, error)
	Update(ctx context.Context, y *models.AcademicYear) error
	DeactivateOthers(ctx context.Context, keepID int64) error
	Delete(ctx context.Context, id int64) error
}

type ClassStore interface {
	Create(ctx context.Context, c *models.Class) error
	GetByID(ctx context.Context, id int64) (*models.Class, error)
	List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Class, int64, error)
	Update(ctx context.Context, c *models.Class) error
	Delete(ctx context.Context, id int64) error
}

type SectionStore interface {
	Create(ctx context.Context, s *models.Section) error
	GetByID(ctx context.Context, id int64, scope models.Scope) (*models.Section, error)
	List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Section, int64, error)
	Update(ctx context.Context, s *models.Section) error
	Delete(ctx context.Context, id int64) error
	AddStudents(ctx context.Context, sectionID int64, studentIDs []int64) error
	RemoveStudents(ctx context.Context, sectionID int64, studentIDs []int64) error
	StudentIDs(ctx context.Context, sectionID int64) ([]int64, error)
	IsEnrolled(ctx context.Context, sectionID, studentID int64) (bool, error)
	IsTeacherOf(ctx context.Context, teacherID, sectionID int64) (bool, error)
	Affiliation(ctx context.Context, userID int64, role models.RoleType) ([]int64, []int64, error)
}

type SubjectStore interface {
	Create(ctx context.Context, s *models.Subject) error
	GetByID(ctx context.Context, id int64, scope models.Scope) (*models.Subject, error)
	List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Subject, int64, error)
	Update(ctx context.Context, s *models.Subject) error
	Delete(ctx context.Context, id int64) error
}

type AttendanceStore interface {
	Create(ctx context.Context, a *models.Attendance) error
	CreateBulk(ctx context.Context, records []*models.Attendance) error
	GetByID(ctx context.Context, id int64, scope models.Scope) (*models.Attendance, error)
	List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Attendance, int64, error)
	Update(ctx context.Context, a *models.Attendance) error
	Delete(ctx context.Context, id int64) error
}

type AssessmentStore interface {
	Create(ctx context.Context, a *models.Assessment) error
	GetByID(ctx context.Context, id int64, scope models.Scope) (*models.Assessment, error)
	List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Assessment, int64, error)
	Update(ctx context.Context, a *models.Assessment) error
	Delete(ctx context.Context, id int64) error
	HighestResult(ctx context.Context, assessmentID int64) (*models.AssessmentResult, error)
	CreateResult(ctx context.Context, res *models.AssessmentResult) error
	GetResult(ctx context.Context, id int64, scope models.Scope) (*models.AssessmentResult, error)
	ListResults(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.AssessmentResult, int64, error)
	UpdateResult(ctx context.Context, res *models.AssessmentResult) error
	DeleteResult(ctx context.Context, id int64) error
}

type AssignmentStore interface {
	Create(ctx context.Context, a *models.Assignment) error
	GetByID(ctx context.Context, id int64, scope models.Scope) (*models.Assignment, error)
	List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Assignment, int64, error)
	Update(ctx context.Context, a *models.Assignment) error
	Delete(ctx context.Context, id int64) error
	CreateSubmission(ctx context.Context, s *models.AssignmentSubmission) error
	GetSubmission(ctx context.Context, id int64, scope models.Scope) (*models.AssignmentSubmission, error)
	ListSubmissions(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.AssignmentSubmission, int64, error)
	GradeSubmission(ctx context.Context, s *models.AssignmentSubmission) error
	DeleteSubmission(ctx context.Context, id int64) error
}

type TimetableStore interface {
	Create(ctx context.Context, e *models.TimetableEntry) error
	GetByID(ctx context.Context, id int64, scope models.Scope) (*models.TimetableEntry, error)
	List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.TimetableEntry, int64, error)
	Overlaps(ctx context.Context, e *models.TimetableEntry) (bool, error)
	Update(ctx context.Context, e *models.TimetableEntry) error
	Delete(ctx context.Context, id int64) error
}

type BookStore interface {
	Create(ctx context.Context, b *models.Book) error
	GetByID(ctx context.Context, id int64) (*models.Book, error)
	GetForUpdate(ctx context.Context, id int64) (*models.Book, error)
	List(ctx context.Context, f models.BookFilter, p helpers.PageRequest) ([]*models.Book, int64, error)
	Update(ctx context.Context, b *models.Book) error
	Delete(ctx context.Context, id int64) error
	OutstandingCount(ctx context.Context, bookID int64) (int, error)
	CreateIssue(ctx context.Context, i *models.BookIssue) error
	GetIssue(ctx context.Context, id int64, scope models.Scope) (*models.BookIssue, error)
	ListIssues(ctx context.Context, f models.BookFilter, p helpers.PageRequest) ([]*models.BookIssue, int64, error)
	UpdateIssue(ctx context.Context, i *models.BookIssue) error
	MarkOverdue(ctx context.Context, today models.Date) (int64, error)
}

type FeeStore interface {
	CreateCategory(ctx context.Context, c *models.FeeCategory) error
	GetCategory(ctx context.Context, id int64) (*models.FeeCategory, error)
	ListCategories(ctx context.Context, p helpers.PageRequest) ([]*models.FeeCategory, int64, error)
	UpdateCategory(ctx context.Context, c *models.FeeCategory) error
	DeleteCategory(ctx context.Context, id int64) error
	CreateStructure(ctx context.Context, s *models.FeeStructure) error
	GetStructure(ctx context.Context, id int64) (*models.FeeStructure, error)
	ListStructures(ctx context.Context, f models.FinanceFilter, p helpers.PageRequest) ([]*models.FeeStructure, int64, error)
	UpdateStructure(ctx context.Context, s *models.FeeStructure) error
	DeleteStructure(ctx context.Context, id int64) error
	CreateDiscount(ctx context.Context, d *models.Discount) error
	GetDiscount(ctx context.Context, id int64) (*models.Discount, error)
	ListDiscounts(ctx context.Context, p helpers.PageRequest) ([]*models.Discount, int64, error)
	UpdateDiscount(ctx context.Context, d *models.Discount) error
	DeleteDiscount(ctx context.Context, id int64) error
}

type StudentFeeStore interface {
	Create(ctx context.Context, f *models.StudentFee) error
	GetByID(ctx context.Context, id int64, scope models.Scope) (*models.StudentFee, error)
	List(ctx context.Context, f models.FinanceFilter, p helpers.PageRequest) ([]*models.StudentFee, int64, error)
	Update(ctx context.Context, f *models.StudentFee) error
	Delete(ctx context.Context, id int64) error
	MarkOverdue(ctx context.Context, today models.Date) (int64, error)
	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, id int64, scope models.Scope) (*models.Payment, error)
	ListPayments(ctx context.Context, f models.FinanceFilter, p helpers.PageRequest) ([]*models.Payment, int64, error)
	Summary(ctx context.Context, f models.FinanceFilter) (*models.PaymentSummary, error)
	PaidTotal(ctx context.Context, studentFeeID int64) (decimal.Decimal, error)
	DeletePayment(ctx context.Context, id int64) error
}

type AnnouncementStore interface {
	Create(ctx context.Context, a *models.Announcement) error
	GetByID(ctx context.Context, id int64) (*models.Announcement, error)
	List(ctx context.Context, f models.CommunicationFilter, p helpers.PageRequest) ([]*models.Announcement, int64, error)
	Update(ctx context.Context, a *models.Announcement) error
	Delete(ctx context.Context, id int64) error
}

type NotificationStore interface {
	CreateMany(ctx context.Context, items []*models.Notification) error
	GetByID(ctx context.Context, id int64) (*models.Notification, error)
	List(ctx context.Context, f models.CommunicationFilter, p helpers.PageRequest) ([]*models.Notification, int64, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context, recipientID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
	UnreadCount(ctx context.Context, recipientID int64) (int64, error)
}

type MessageStore interface {
	Create(ctx context.Context, m *models.Message) error
	GetByID(ctx context.Context, id int64) (*models.Message, error)
	List(ctx context.Context, f models.CommunicationFilter, p helpers.PageRequest) ([]*models.Message, int64, error)
	MarkRead(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

type DeliveryLogStore interface {
	ListEmails(ctx context.Context, since time.Time, p helpers.PageRequest) ([]*models.EmailLog, int64, error)
	ListSMS(ctx context.Context, since time.Time, p helpers.PageRequest) ([]*models.SMSLog, int64, error)
}

// Transactor runs fn in one database transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn db.TransactionFn) error
}

// SchemaProvisioner creates and drops tenant schemas.
type SchemaProvisioner interface {
	Provision(ctx context.Context, schema string) error
	Drop(ctx context.Context, schema string) error
}

// TokenIssuer mints access and refresh tokens.
type TokenIssuer interface {
	GenerateTokenPair(sub auth.Subject) (*auth.TokenPair, error)
	GetRefreshTokenExpiry() time.Time
}

// Pusher fans realtime events out to connected users of a school.
type Pusher interface {
	Publish(schema string, userIDs []int64, eventType string, data any)
}
