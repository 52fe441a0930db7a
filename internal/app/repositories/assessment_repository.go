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

var assessmentColumns = []string{"id", "name", "subject_id", "section_id", "date", "total_marks", "created_at", "updated_at"}

var resultColumns = prefixed("r", []string{"id", "assessment_id", "student_id", "marks_obtained", "remarks", "created_at", "updated_at"})

var resultConstraints = map[string]error{
	"assessment_results_assessment_student_key": apperrors.ErrDuplicateResult,
}

// AssessmentRepository handles assessments and the marks recorded against them
type AssessmentRepository struct {
	baseRepository
}

func NewAssessmentRepository(db *sql.DB) *AssessmentRepository {
	return &AssessmentRepository{baseRepository{db: db}}
}

func assessmentTargets(a *models.Assessment) []any {
	return []any{&a.ID, &a.Name, &a.SubjectID, &a.SectionID, &a.Date, &a.TotalMarks, &a.CreatedAt, &a.UpdatedAt}
}

func resultTargets(res *models.AssessmentResult) []any {
	return []any{&res.ID, &res.AssessmentID, &res.StudentID, &res.MarksObtained, &res.Remarks, &res.CreatedAt, &res.UpdatedAt}
}

func (r *AssessmentRepository) Create(ctx context.Context, a *models.Assessment) error {
	query := psql.Insert(r.t(ctx, "assessments")).
		Columns("name", "subject_id", "section_id", "date", "total_marks").
		Values(a.Name, a.SubjectID, a.SectionID, a.Date, a.TotalMarks).
		Suffix("RETURNING id, created_at, updated_at")

	err := r.getOne(ctx, query, nil, &a.ID, &a.CreatedAt, &a.UpdatedAt)
	return logFailure(constraintError(err, nil), "Failed to create assessment")
}

// GetByID returns an assessment held in a section scope may see.
func (r *AssessmentRepository) GetByID(ctx context.Context, id int64, scope models.Scope) (*models.Assessment, error) {
	query := psql.Select(assessmentColumns...).From(r.t(ctx, "assessments")).Where(squirrel.Eq{"id": id})
	query = where(query, r.sectionScope(ctx, scope, "section_id"))

	var a models.Assessment
	if err := r.getOne(ctx, query, apperrors.ErrAssessmentNotFound, assessmentTargets(&a)...); err != nil {
		return nil, logFailure(err, "Failed to get assessment")
	}
	return &a, nil
}

func (r *AssessmentRepository) List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Assessment, int64, error) {
	query := psql.Select(assessmentColumns...).From(r.t(ctx, "assessments")).OrderBy("date DESC", "id")
	query = where(query, r.sectionScope(ctx, f.Scope, "section_id"))
	if f.SectionID != 0 {
		query = query.Where(squirrel.Eq{"section_id": f.SectionID})
	}
	if f.SubjectID != 0 {
		query = query.Where(squirrel.Eq{"subject_id": f.SubjectID})
	}
	if f.Search != "" {
		query = query.Where(squirrel.ILike{"name": helpers.LikePattern(f.Search)})
	}

	assessments := []*models.Assessment{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var a models.Assessment
		if err := row.Scan(append(assessmentTargets(&a), total)...); err != nil {
			return err
		}
		assessments = append(assessments, &a)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list assessments")
	}
	return assessments, total, nil
}

func (r *AssessmentRepository) Update(ctx context.Context, a *models.Assessment) error {
	a.UpdatedAt = time.Now()
	query := psql.Update(r.t(ctx, "assessments")).
		Set("name", a.Name).
		Set("subject_id", a.SubjectID).
		Set("section_id", a.SectionID).
		Set("date", a.Date).
		Set("total_marks", a.TotalMarks).
		Set("updated_at", a.UpdatedAt).
		Where(squirrel.Eq{"id": a.ID})

	err := r.execOne(ctx, query, apperrors.ErrAssessmentNotFound)
	return logFailure(constraintError(err, nil), "Failed to update assessment")
}

func (r *AssessmentRepository) Delete(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "assessments")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrAssessmentNotFound), "Failed to delete assessment")
}

// HighestResult returns the highest marks already recorded for an assessment.
func (r *AssessmentRepository) HighestResult(ctx context.Context, assessmentID int64) (*models.AssessmentResult, error) {
	query := psql.Select(resultColumns...).From(r.t(ctx, "assessment_results") + " r").
		Where(squirrel.Eq{"r.assessment_id": assessmentID}).
		OrderBy("r.marks_obtained DESC").
		Limit(1)

	var res models.AssessmentResult
	if err := r.getOne(ctx, query, apperrors.ErrResultNotFound, resultTargets(&res)...); err != nil {
		return nil, logFailure(err, "Failed to get highest result")
	}
	return &res, nil
}

func (r *AssessmentRepository) CreateResult(ctx context.Context, res *models.AssessmentResult) error {
	query := psql.Insert(r.t(ctx, "assessment_results")).
		Columns("assessment_id", "student_id", "marks_obtained", "remarks").
		Values(res.AssessmentID, res.StudentID, res.MarksObtained, res.Remarks).
		Suffix("RETURNING id, created_at, updated_at")

	err := r.getOne(ctx, query, nil, &res.ID, &res.CreatedAt, &res.UpdatedAt)
	return logFailure(constraintError(err, resultConstraints), "Failed to create result")
}

func (r *AssessmentRepository) selectResults(ctx context.Context, scope models.Scope) squirrel.SelectBuilder {
	query := psql.Select(resultColumns...).
		From(r.t(ctx, "assessment_results") + " r").
		Join(r.t(ctx, "assessments") + " a ON a.id = r.assessment_id")
	return where(query, r.recordScope(ctx, scope, "r.student_id", "a.section_id"))
}

func (r *AssessmentRepository) GetResult(ctx context.Context, id int64, scope models.Scope) (*models.AssessmentResult, error) {
	query := r.selectResults(ctx, scope).Where(squirrel.Eq{"r.id": id})

	var res models.AssessmentResult
	if err := r.getOne(ctx, query, apperrors.ErrResultNotFound, resultTargets(&res)...); err != nil {
		return nil, logFailure(err, "Failed to get result")
	}
	return &res, nil
}

func (r *AssessmentRepository) ListResults(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.AssessmentResult, int64, error) {
	query := r.selectResults(ctx, f.Scope).OrderBy("r.assessment_id", "r.student_id")
	if f.AssessmentID != 0 {
		query = query.Where(squirrel.Eq{"r.assessment_id": f.AssessmentID})
	}
	if f.StudentID != 0 {
		query = query.Where(squirrel.Eq{"r.student_id": f.StudentID})
	}
	if f.SectionID != 0 {
		query = query.Where(squirrel.Eq{"a.section_id": f.SectionID})
	}
	if f.SubjectID != 0 {
		query = query.Where(squirrel.Eq{"a.subject_id": f.SubjectID})
	}

	results := []*models.AssessmentResult{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var res models.AssessmentResult
		if err := row.Scan(append(resultTargets(&res), total)...); err != nil {
			return err
		}
		results = append(results, &res)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list results")
	}
	return results, total, nil
}

func (r *AssessmentRepository) UpdateResult(ctx context.Context, res *models.AssessmentResult) error {
	res.UpdatedAt = time.Now()
	query := psql.Update(r.t(ctx, "assessment_results")).
		Set("marks_obtained", res.MarksObtained).
		Set("remarks", res.Remarks).
		Set("updated_at", res.UpdatedAt).
		Where(squirrel.Eq{"id": res.ID})

	err := r.execOne(ctx, query, apperrors.ErrResultNotFound)
	return logFailure(constraintError(err, resultConstraints), "Failed to update result")
}

func (r *AssessmentRepository) DeleteResult(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "assessment_results")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrResultNotFound), "Failed to delete result")
}
