package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/db"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/dberrors"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
	"github.com/yigit/schoolsphere/internal/pkg/logger"
	"github.com/yigit/schoolsphere/internal/tenancy"
)

// psql builds PostgreSQL statements with $n placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all the repository instances
type Repositories struct {
	SchoolRepository        *SchoolRepository
	UserRepository          *UserRepository
	TokenRepository         *TokenRepository
	PasswordResetRepository *PasswordResetTokenRepository
	AcademicYearRepository  *AcademicYearRepository
	ClassRepository         *ClassRepository
	SectionRepository       *SectionRepository
	SubjectRepository       *SubjectRepository
	AttendanceRepository    *AttendanceRepository
	AssessmentRepository    *AssessmentRepository
	AssignmentRepository    *AssignmentRepository
	TimetableRepository     *TimetableRepository
	BookRepository          *BookRepository
	FeeRepository           *FeeRepository
	StudentFeeRepository    *StudentFeeRepository
	AnnouncementRepository  *AnnouncementRepository
	NotificationRepository  *NotificationRepository
	MessageRepository       *MessageRepository
	DeliveryLogRepository   *DeliveryLogRepository
}

// NewRepositories initializes all repositories
func NewRepositories(sqlDB *sql.DB) *Repositories {
	return &Repositories{
		SchoolRepository:        NewSchoolRepository(sqlDB),
		UserRepository:          NewUserRepository(sqlDB),
		TokenRepository:         NewTokenRepository(sqlDB),
		PasswordResetRepository: NewPasswordResetTokenRepository(sqlDB),
		AcademicYearRepository:  NewAcademicYearRepository(sqlDB),
		ClassRepository:         NewClassRepository(sqlDB),
		SectionRepository:       NewSectionRepository(sqlDB),
		SubjectRepository:       NewSubjectRepository(sqlDB),
		AttendanceRepository:    NewAttendanceRepository(sqlDB),
		AssessmentRepository:    NewAssessmentRepository(sqlDB),
		AssignmentRepository:    NewAssignmentRepository(sqlDB),
		TimetableRepository:     NewTimetableRepository(sqlDB),
		BookRepository:          NewBookRepository(sqlDB),
		FeeRepository:           NewFeeRepository(sqlDB),
		StudentFeeRepository:    NewStudentFeeRepository(sqlDB),
		AnnouncementRepository:  NewAnnouncementRepository(sqlDB),
		NotificationRepository:  NewNotificationRepository(sqlDB),
		MessageRepository:       NewMessageRepository(sqlDB),
		DeliveryLogRepository:   NewDeliveryLogRepository(sqlDB),
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// baseRepository runs statements on the transaction in ctx, or on the pool.
type baseRepository struct {
	db *sql.DB
}

func (r *baseRepository) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.db)
}

func inTx(ctx context.Context) bool {
	return db.InTransaction(ctx)
}

// t returns the tenant-qualified name of table.
func (r *baseRepository) t(ctx context.Context, table string) string {
	return tenancy.Table(ctx, table)
}

// getOne runs b and scans a single row; sql.ErrNoRows becomes notFound.
func (r *baseRepository) getOne(ctx context.Context, b squirrel.Sqlizer, notFound error, dest ...any) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.conn(ctx).QueryRowContext(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound
		}
		return fmt.Errorf("error executing query: %w", err)
	}
	return nil
}

// exec runs b and returns the affected row count.
func (r *baseRepository) exec(ctx context.Context, b squirrel.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	result, err := r.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// execOne is exec that reports notFound when nothing matched.
func (r *baseRepository) execOne(ctx context.Context, b squirrel.Sqlizer, notFound error) error {
	n, err := r.exec(ctx, b)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// each runs b and calls fn for every row.
func (r *baseRepository) each(ctx context.Context, b squirrel.Sqlizer, fn func(rowScanner) error) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}
	}
	return rows.Err()
}

// page runs b for one page. The total row count comes from a COUNT(*) OVER()
// column that fn must scan into the int64 it is handed, after its own columns.
func (r *baseRepository) page(ctx context.Context, b squirrel.SelectBuilder, p helpers.PageRequest, fn func(rowScanner, *int64) error) (int64, error) {
	b = b.Column("COUNT(*) OVER()").Limit(p.Limit()).Offset(p.Offset())

	var total int64
	err := r.each(ctx, b, func(row rowScanner) error {
		return fn(row, &total)
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *baseRepository) count(ctx context.Context, b squirrel.SelectBuilder) (int64, error) {
	var n int64
	if err := r.getOne(ctx, b, nil, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// constraintError translates a PostgreSQL integrity violation for callers.
// Named constraints map through byName; any other unique violation becomes
// a conflict and foreign key or check failures become validation errors.
func constraintError(err error, byName map[string]error) error {
	if err == nil {
		return nil
	}
	if mapped, ok := byName[dberrors.ConstraintName(err)]; ok {
		return mapped
	}
	switch {
	case dberrors.IsUniqueViolation(err):
		return apperrors.NewConflictError("a record with the same unique values already exists")
	case dberrors.IsForeignKeyViolation(err):
		return apperrors.NewValidationError(dberrors.ConstraintName(err), "referenced record does not exist")
	case dberrors.IsCheckViolation(err):
		return apperrors.NewValidationError(dberrors.ConstraintName(err), "value violates a database constraint")
	}
	return err
}

// logFailure logs unexpected repository errors; mapped sentinels pass silently.
func logFailure(err error, msg string) error {
	if err == nil {
		return nil
	}
	var ce *apperrors.CustomError
	if errors.As(err, &ce) || isSentinel(err) {
		return err
	}
	logger.Error().Err(err).Msg(msg)
	return err
}

func isSentinel(err error) bool {
	return apperrors.IsNotFound(err) ||
		errors.Is(err, apperrors.ErrInvalidPasswordResetToken) ||
		errors.Is(err, apperrors.ErrPasswordResetTokenUsed)
}

// studentScope limits a student id column to the students a scope may read.
func (r *baseRepository) studentScope(ctx context.Context, s models.Scope, col string) squirrel.Sqlizer {
	switch {
	case s.All:
		return nil
	case s.StudentID != 0:
		return squirrel.Eq{col: s.StudentID}
	case s.ParentID != 0:
		return squirrel.Expr(fmt.Sprintf("%s IN (SELECT user_id FROM %s WHERE parent_id = ?)",
			col, r.t(ctx, "student_profiles")), s.ParentID)
	case s.TeacherID != 0:
		return squirrel.Expr(fmt.Sprintf("%s IN (SELECT ss.student_id FROM %s ss JOIN %s sec ON sec.id = ss.section_id WHERE sec.teacher_id = ?)",
			col, r.t(ctx, "section_students"), r.t(ctx, "sections")), s.TeacherID)
	}
	return squirrel.Expr("1 = 0")
}

// sectionScope limits a section id column to the sections a scope may read.
func (r *baseRepository) sectionScope(ctx context.Context, s models.Scope, col string) squirrel.Sqlizer {
	switch {
	case s.All:
		return nil
	case s.TeacherID != 0:
		return squirrel.Expr(fmt.Sprintf("%s IN (SELECT id FROM %s WHERE teacher_id = ?)",
			col, r.t(ctx, "sections")), s.TeacherID)
	case s.StudentID != 0:
		return squirrel.Expr(fmt.Sprintf("%s IN (SELECT section_id FROM %s WHERE student_id = ?)",
			col, r.t(ctx, "section_students")), s.StudentID)
	case s.ParentID != 0:
		return squirrel.Expr(fmt.Sprintf("%s IN (SELECT ss.section_id FROM %s ss JOIN %s sp ON sp.user_id = ss.student_id WHERE sp.parent_id = ?)",
			col, r.t(ctx, "section_students"), r.t(ctx, "student_profiles")), s.ParentID)
	}
	return squirrel.Expr("1 = 0")
}

// recordScope is for per-student records that belong to a section: teachers
// see their sections, students and parents see their own rows.
func (r *baseRepository) recordScope(ctx context.Context, s models.Scope, studentCol, sectionCol string) squirrel.Sqlizer {
	if s.TeacherID != 0 {
		return r.sectionScope(ctx, s, sectionCol)
	}
	return r.studentScope(ctx, s, studentCol)
}

// int64Array passes ids as a PostgreSQL array parameter; nil becomes '{}'.
func int64Array(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

// where appends cond when it is not nil.
func where(b squirrel.SelectBuilder, cond squirrel.Sqlizer) squirrel.SelectBuilder {
	if cond == nil {
		return b
	}
	return b.Where(cond)
}
