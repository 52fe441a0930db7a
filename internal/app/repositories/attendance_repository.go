package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

var attendanceColumns = []string{"id", "student_id", "section_id", "date", "is_present", "remarks", "created_at", "updated_at"}

var attendanceConstraints = map[string]error{
	"attendance_student_section_date_key": apperrors.ErrDuplicateAttendance,
}

// AttendanceRepository handles daily attendance marks
type AttendanceRepository struct {
	baseRepository
}

func NewAttendanceRepository(db *sql.DB) *AttendanceRepository {
	return &AttendanceRepository{baseRepository{db: db}}
}

func attendanceTargets(a *models.Attendance) []any {
	return []any{&a.ID, &a.StudentID, &a.SectionID, &a.Date, &a.IsPresent, &a.Remarks, &a.CreatedAt, &a.UpdatedAt}
}

func (r *AttendanceRepository) Create(ctx context.Context, a *models.Attendance) error {
	query := psql.Insert(r.t(ctx, "attendance")).
		Columns("student_id", "section_id", "date", "is_present", "remarks").
		Values(a.StudentID, a.SectionID, a.Date, a.IsPresent, a.Remarks).
		Suffix("RETURNING id, created_at, updated_at")

	err := r.getOne(ctx, query, nil, &a.ID, &a.CreatedAt, &a.UpdatedAt)
	return logFailure(constraintError(err, attendanceConstraints), "Failed to create attendance")
}

// CreateBulk inserts every record; run it inside a transaction for
// all-or-nothing semantics.
func (r *AttendanceRepository) CreateBulk(ctx context.Context, records []*models.Attendance) error {
	for _, a := range records {
		if err := r.Create(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (r *AttendanceRepository) GetByID(ctx context.Context, id int64, scope models.Scope) (*models.Attendance, error) {
	query := psql.Select(attendanceColumns...).From(r.t(ctx, "attendance")).Where(squirrel.Eq{"id": id})
	query = where(query, r.recordScope(ctx, scope, "student_id", "section_id"))

	var a models.Attendance
	if err := r.getOne(ctx, query, apperrors.ErrAttendanceNotFound, attendanceTargets(&a)...); err != nil {
		return nil, logFailure(err, "Failed to get attendance")
	}
	return &a, nil
}

func (r *AttendanceRepository) List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Attendance, int64, error) {
	query := psql.Select(attendanceColumns...).From(r.t(ctx, "attendance")).OrderBy("date DESC", "id")
	query = where(query, r.recordScope(ctx, f.Scope, "student_id", "section_id"))
	if f.SectionID != 0 {
		query = query.Where(squirrel.Eq{"section_id": f.SectionID})
	}
	if f.StudentID != 0 {
		query = query.Where(squirrel.Eq{"student_id": f.StudentID})
	}
	if f.From != nil {
		query = query.Where(squirrel.GtOrEq{"date": *f.From})
	}
	if f.To != nil {
		query = query.Where(squirrel.LtOrEq{"date": *f.To})
	}

	records := []*models.Attendance{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var a models.Attendance
		if err := row.Scan(append(attendanceTargets(&a), total)...); err != nil {
			return err
		}
		records = append(records, &a)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list attendance")
	}
	return records, total, nil
}

func (r *AttendanceRepository) Update(ctx context.Context, a *models.Attendance) error {
	a.UpdatedAt = time.Now()
	query := psql.Update(r.t(ctx, "attendance")).
		Set("date", a.Date).
		Set("is_present", a.IsPresent).
		Set("remarks", a.Remarks).
		Set("updated_at", a.UpdatedAt).
		Where(squirrel.Eq{"id": a.ID})

	err := r.execOne(ctx, query, apperrors.ErrAttendanceNotFound)
	return logFailure(constraintError(err, attendanceConstraints), "Failed to update attendance")
}

func (r *AttendanceRepository) Delete(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "attendance")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrAttendanceNotFound), "Failed to delete attendance")
}
