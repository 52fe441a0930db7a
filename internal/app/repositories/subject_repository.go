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

var subjectColumns = []string{"id", "name", "code", "description", "class_id", "teacher_id", "created_at", "updated_at"}

var subjectConstraints = map[string]error{
	"subjects_code_key": apperrors.ErrSubjectCodeExists,
}

type SubjectRepository struct {
	baseRepository
}

func NewSubjectRepository(db *sql.DB) *SubjectRepository {
	return &SubjectRepository{baseRepository{db: db}}
}

func subjectTargets(s *models.Subject) []any {
	return []any{&s.ID, &s.Name, &s.Code, &s.Description, &s.ClassID, &s.TeacherID, &s.CreatedAt, &s.UpdatedAt}
}

// subjectScope keeps teachers to the subjects they teach.
func subjectScope(s models.Scope) squirrel.Sqlizer {
	if s.TeacherID != 0 && !s.All {
		return squirrel.Eq{"teacher_id": s.TeacherID}
	}
	return nil
}

func (r *SubjectRepository) Create(ctx context.Context, s *models.Subject) error {
	query := psql.Insert(r.t(ctx, "subjects")).
		Columns("name", "code", "description", "class_id", "teacher_id").
		Values(s.Name, s.Code, s.Description, s.ClassID, s.TeacherID).
		Suffix("RETURNING id, created_at, updated_at")

	err := r.getOne(ctx, query, nil, &s.ID, &s.CreatedAt, &s.UpdatedAt)
	return logFailure(constraintError(err, subjectConstraints), "Failed to create subject")
}

func (r *SubjectRepository) GetByID(ctx context.Context, id int64, scope models.Scope) (*models.Subject, error) {
	query := where(psql.Select(subjectColumns...).From(r.t(ctx, "subjects")).Where(squirrel.Eq{"id": id}), subjectScope(scope))

	var s models.Subject
	if err := r.getOne(ctx, query, apperrors.ErrSubjectNotFound, subjectTargets(&s)...); err != nil {
		return nil, logFailure(err, "Failed to get subject")
	}
	return &s, nil
}

func (r *SubjectRepository) List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Subject, int64, error) {
	query := where(psql.Select(subjectColumns...).From(r.t(ctx, "subjects")), subjectScope(f.Scope)).OrderBy("code")
	if f.ClassID != 0 {
		query = query.Where(squirrel.Eq{"class_id": f.ClassID})
	}
	if f.Search != "" {
		pattern := helpers.LikePattern(f.Search)
		query = query.Where(squirrel.Or{squirrel.ILike{"name": pattern}, squirrel.ILike{"code": pattern}})
	}

	subjects := []*models.Subject{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var s models.Subject
		if err := row.Scan(append(subjectTargets(&s), total)...); err != nil {
			return err
		}
		subjects = append(subjects, &s)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list subjects")
	}
	return subjects, total, nil
}

func (r *SubjectRepository) Update(ctx context.Context, s *models.Subject) error {
	s.UpdatedAt = time.Now()
	query := psql.Update(r.t(ctx, "subjects")).
		Set("name", s.Name).
		Set("code", s.Code).
		Set("description", s.Description).
		Set("class_id", s.ClassID).
		Set("teacher_id", s.TeacherID).
		Set("updated_at", s.UpdatedAt).
		Where(squirrel.Eq{"id": s.ID})

	err := r.execOne(ctx, query, apperrors.ErrSubjectNotFound)
	return logFailure(constraintError(err, subjectConstraints), "Failed to update subject")
}

func (r *SubjectRepository) Delete(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "subjects")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrSubjectNotFound), "Failed to delete subject")
}
