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

var academicYearColumns = []string{"id", "name", "start_date", "end_date", "is_active", "created_at", "updated_at"}

var academicYearConstraints = map[string]error{
	"academic_years_name_key":    apperrors.NewConflictError("an academic year with this name already exists"),
	"academic_years_dates_check": apperrors.NewValidationError("endDate", "start date must be before end date"),
}

type AcademicYearRepository struct {
	baseRepository
}

func NewAcademicYearRepository(db *sql.DB) *AcademicYearRepository {
	return &AcademicYearRepository{baseRepository{db: db}}
}

func academicYearTargets(y *models.AcademicYear) []any {
	return []any{&y.ID, &y.Name, &y.StartDate, &y.EndDate, &y.IsActive, &y.CreatedAt, &y.UpdatedAt}
}

func (r *AcademicYearRepository) Create(ctx context.Context, y *models.AcademicYear) error {
	query := psql.Insert(r.t(ctx, "academic_years")).
		Columns("name", "start_date", "end_date", "is_active").
		Values(y.Name, y.StartDate, y.EndDate, y.IsActive).
		Suffix("RETURNING id, created_at, updated_at")

	err := r.getOne(ctx, query, nil, &y.ID, &y.CreatedAt, &y.UpdatedAt)
	return logFailure(constraintError(err, academicYearConstraints), "Failed to create academic year")
}

func (r *AcademicYearRepository) GetByID(ctx context.Context, id int64) (*models.AcademicYear, error) {
	query := psql.Select(academicYearColumns...).From(r.t(ctx, "academic_years")).Where(squirrel.Eq{"id": id})

	var y models.AcademicYear
	if err := r.getOne(ctx, query, apperrors.ErrAcademicYearNotFound, academicYearTargets(&y)...); err != nil {
		return nil, logFailure(err, "Failed to get academic year")
	}
	return &y, nil
}

// List returns academic years, newest start date first.
func (r *AcademicYearRepository) List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.AcademicYear, int64, error) {
	query := psql.Select(academicYearColumns...).From(r.t(ctx, "academic_years")).OrderBy("start_date DESC")
	if f.Search != "" {
		query = query.Where(squirrel.ILike{"name": helpers.LikePattern(f.Search)})
	}

	years := []*models.AcademicYear{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var y models.AcademicYear
		if err := row.Scan(append(academicYearTargets(&y), total)...); err != nil {
			return err
		}
		years = append(years, &y)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list academic years")
	}
	return years, total, nil
}

func (r *AcademicYearRepository) Update(ctx context.Context, y *models.AcademicYear) error {
	y.UpdatedAt = time.Now()
	query := psql.Update(r.t(ctx, "academic_years")).
		Set("name", y.Name).
		Set("start_date", y.StartDate).
		Set("end_date", y.EndDate).
		Set("is_active", y.IsActive).
		Set("updated_at", y.UpdatedAt).
		Where(squirrel.Eq{"id": y.ID})

	err := r.execOne(ctx, query, apperrors.ErrAcademicYearNotFound)
	return logFailure(constraintError(err, academicYearConstraints), "Failed to update academic year")
}

// DeactivateOthers clears is_active on every year except keepID.
func (r *AcademicYearRepository) DeactivateOthers(ctx context.Context, keepID int64) error {
	query := psql.Update(r.t(ctx, "academic_years")).
		Set("is_active", false).
		Set("updated_at", time.Now()).
		Where(squirrel.And{squirrel.NotEq{"id": keepID}, squirrel.Eq{"is_active": true}})
	_, err := r.exec(ctx, query)
	return logFailure(err, "Failed to deactivate academic years")
}

func (r *AcademicYearRepository) Delete(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "academic_years")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrAcademicYearNotFound), "Failed to delete academic year")
}
