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

var classColumns = []string{"id", "name", "description", "created_at", "updated_at"}

var classConstraints = map[string]error{
	"classes_name_key": apperrors.NewConflictError("a class with this name already exists"),
}

// ClassRepository handles grade levels
type ClassRepository struct {
	baseRepository
}

func NewClassRepository(db *sql.DB) *ClassRepository {
	return &ClassRepository{baseRepository{db: db}}
}

func classTargets(c *models.Class) []any {
	return []any{&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt}
}

func (r *ClassRepository) Create(ctx context.Context, c *models.Class) error {
	query := psql.Insert(r.t(ctx, "classes")).
		Columns("name", "description").
		Values(c.Name, c.Description).
		Suffix("RETURNING id, created_at, updated_at")

	err := r.getOne(ctx, query, nil, &c.ID, &c.CreatedAt, &c.UpdatedAt)
	return logFailure(constraintError(err, classConstraints), "Failed to create class")
}

func (r *ClassRepository) GetByID(ctx context.Context, id int64) (*models.Class, error) {
	query := psql.Select(classColumns...).From(r.t(ctx, "classes")).Where(squirrel.Eq{"id": id})

	var c models.Class
	if err := r.getOne(ctx, query, apperrors.ErrClassNotFound, classTargets(&c)...); err != nil {
		return nil, logFailure(err, "Failed to get class")
	}
	return &c, nil
}

func (r *ClassRepository) List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Class, int64, error) {
	query := psql.Select(classColumns...).From(r.t(ctx, "classes")).OrderBy("name")
	if f.Search != "" {
		query = query.Where(squirrel.ILike{"name": helpers.LikePattern(f.Search)})
	}

	classes := []*models.Class{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var c models.Class
		if err := row.Scan(append(classTargets(&c), total)...); err != nil {
			return err
		}
		classes = append(classes, &c)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list classes")
	}
	return classes, total, nil
}

func (r *ClassRepository) Update(ctx context.Context, c *models.Class) error {
	c.UpdatedAt = time.Now()
	query := psql.Update(r.t(ctx, "classes")).
		Set("name", c.Name).
		Set("description", c.Description).
		Set("updated_at", c.UpdatedAt).
		Where(squirrel.Eq{"id": c.ID})

	err := r.execOne(ctx, query, apperrors.ErrClassNotFound)
	return logFailure(constraintError(err, classConstraints), "Failed to update class")
}

func (r *ClassRepository) Delete(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "classes")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrClassNotFound), "Failed to delete class")
}
