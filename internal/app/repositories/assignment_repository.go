package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

var submissionColumns = prefixed("sub", []string{"id", "assignment_id", "student_id", "file_key", "submitted_at", "remarks", "score", "updated_at"})

var submissionConstraints = map[string]error{
	"assignment_submissions_assignment_student_key": apperrors.ErrDuplicateSubmission,
}

// AssignmentRepository handles assignments and student submissions
type AssignmentRepository struct {
	baseRepository
}

func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{baseRepository{db: db}}
}

func (r *AssignmentRepository) selectAssignments(ctx context.Context) squirrel.SelectBuilder {
	submissions := fmt.Sprintf("(SELECT COUNT(*) FROM %s sub WHERE sub.assignment_id = a.id)", r.t(ctx, "assignment_submissions"))
	return psql.Select("a.id", "a.title", "a.description", "a.subject_id", "a.section_id", "a.due_date", "a.file_key", submissions, "a.created_at", "a.updated_at").
		From(r.t(ctx, "assignments") + " a")
}

func assignmentTargets(a *models.Assignment) []any {
	return []any{&a.ID, &a.Title, &a.Description, &a.SubjectID, &a.SectionID, &a.DueDate, &a.FileKey, &a.SubmissionCount, &a.CreatedAt, &a.UpdatedAt}
}

func submissionTargets(s *models.AssignmentSubmission) []any {
	return []any{&s.ID, &s.AssignmentID, &s.StudentID, &s.FileKey, &s.SubmittedAt, &s.Remarks, &s.Score, &s.UpdatedAt}
}

func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	query := psql.Insert(r.t(ctx, "assignments")).
		Columns("title", "description", "subject_id", "section_id", "due_date", "file_key").
		Values(a.Title, a.Description, a.SubjectID, a.SectionID, a.DueDate, a.FileKey).
		Suffix("RETURNING id, created_at, updated_at")

	err := r.getOne(ctx, query, nil, &a.ID, &a.CreatedAt, &a.UpdatedAt)
	return logFailure(constraintError(err, nil), "Failed to create assignment")
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id int64, scope models.Scope) (*models.Assignment, error) {
	query := where(r.selectAssignments(ctx).Where(squirrel.Eq{"a.id": id}), r.sectionScope(ctx, scope, "a.section_id"))

	var a models.Assignment
	if err := r.getOne(ctx, query, apperrors.ErrAssignmentNotFound, assignmentTargets(&a)...); err != nil {
		return nil, logFailure(err, "Failed to get assignment")
	}
	return &a, nil
}

func (r *AssignmentRepository) List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Assignment, int64, error) {
	query := where(r.selectAssignments(ctx), r.sectionScope(ctx, f.Scope, "a.section_id")).OrderBy("a.due_date DESC", "a.id")
	if f.SectionID != 0 {
		query = query.Where(squirrel.Eq{"a.section_id": f.SectionID})
	}
	if f.SubjectID != 0 {
		query = query.Where(squirrel.Eq{"a.subject_id": f.SubjectID})
	}
	if f.Search != "" {
		query = query.Where(squirrel.ILike{"a.title": helpers.LikePattern(f.Search)})
	}

	assignments := []*models.Assignment{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var a models.Assignment
		if err := row.Scan(append(assignmentTargets(&a), total)...); err != nil {
			return err
		}
		assignments = append(assignments, &a)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list assignments")
	}
	return assignments, total, nil
}

func (r *AssignmentRepository) Update(ctx context.Context, a *models.Assignment) error {
	a.UpdatedAt = time.Now()
	query := psql.Update(r.t(ctx, "assignments")).
		Set("title", a.Title).
		Set("description", a.Description).
		Set("subject_id", a.SubjectID).
		Set("section_id", a.SectionID).
		Set("due_date", a.DueDate).
		Set("file_key", a.FileKey).
		Set("updated_at", a.UpdatedAt).
		Where(squirrel.Eq{"id": a.ID})

	err := r.execOne(ctx, query, apperrors.ErrAssignmentNotFound)
	return logFailure(constraintError(err, nil), "Failed to update assignment")
}

func (r *AssignmentRepository) Delete(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "assignments")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrAssignmentNotFound), "Failed to delete assignment")
}

// CreateSubmission stores a student's single submission for an assignment.
func (r *AssignmentRepository) CreateSubmission(ctx context.Context, s *models.AssignmentSubmission) error {
	query := psql.Insert(r.t(ctx, "assignment_submissions")).
		Columns("assignment_id", "student_id", "file_key", "remarks").
		Values(s.AssignmentID, s.StudentID, s.FileKey, s.Remarks).
		Suffix("RETURNING id, submitted_at, updated_at")

	err := r.getOne(ctx, query, nil, &s.ID, &s.SubmittedAt, &s.UpdatedAt)
	return logFailure(constraintError(err, submissionConstraints), "Failed to create submission")
}

func (r *AssignmentRepository) selectSubmissions(ctx context.Context, scope models.Scope) squirrel.SelectBuilder {
	query := psql.Select(submissionColumns...).
		From(r.t(ctx, "assignment_submissions") + " sub").
		Join(r.t(ctx, "assignments") + " a ON a.id = sub.assignment_id")
	return where(query, r.recordScope(ctx, scope, "sub.student_id", "a.section_id"))
}

func (r *AssignmentRepository) GetSubmission(ctx context.Context, id int64, scope models.Scope) (*models.AssignmentSubmission, error) {
	query := r.selectSubmissions(ctx, scope).Where(squirrel.Eq{"sub.id": id})

	var s models.AssignmentSubmission
	if err := r.getOne(ctx, query, apperrors.ErrSubmissionNotFound, submissionTargets(&s)...); err != nil {
		return nil, logFailure(err, "Failed to get submission")
	}
	return &s, nil
}

func (r *AssignmentRepository) ListSubmissions(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.AssignmentSubmission, int64, error) {
	query := r.selectSubmissions(ctx, f.Scope).OrderBy("sub.submitted_at DESC", "sub.id")
	if f.AssignmentID != 0 {
		query = query.Where(squirrel.Eq{"sub.assignment_id": f.AssignmentID})
	}
	if f.StudentID != 0 {
		query = query.Where(squirrel.Eq{"sub.student_id": f.StudentID})
	}
	if f.SectionID != 0 {
		query = query.Where(squirrel.Eq{"a.section_id": f.SectionID})
	}

	submissions := []*models.AssignmentSubmission{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var s models.AssignmentSubmission
		if err := row.Scan(append(submissionTargets(&s), total)...); err != nil {
			return err
		}
		submissions = append(submissions, &s)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list submissions")
	}
	return submissions, total, nil
}

// GradeSubmission writes the teacher's score and remarks.
func (r *AssignmentRepository) GradeSubmission(ctx context.Context, s *models.AssignmentSubmission) error {
	s.UpdatedAt = time.Now()
	query := psql.Update(r.t(ctx, "assignment_submissions")).
		Set("score", s.Score).
		Set("remarks", s.Remarks).
		Set("updated_at", s.UpdatedAt).
		Where(squirrel.Eq{"id": s.ID})

	err := r.execOne(ctx, query, apperrors.ErrSubmissionNotFound)
	return logFailure(constraintError(err, nil), "Failed to grade submission")
}

func (r *AssignmentRepository) DeleteSubmission(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "assignment_submissions")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrSubmissionNotFound), "Failed to delete submission")
}
