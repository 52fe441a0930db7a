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

var sectionConstraints = map[string]error{
	"sections_name_class_year_key": apperrors.ErrSectionAlreadyExists,
}

// SectionRepository handles sections and their enrolment
type SectionRepository struct {
	baseRepository
}

func NewSectionRepository(db *sql.DB) *SectionRepository {
	return &SectionRepository{baseRepository{db: db}}
}

func (r *SectionRepository) selectSections(ctx context.Context) squirrel.SelectBuilder {
	studentCount := fmt.Sprintf("(SELECT COUNT(*) FROM %s ss WHERE ss.section_id = s.id)", r.t(ctx, "section_students"))
	return psql.Select("s.id", "s.name", "s.class_id", "s.teacher_id", "s.academic_year_id", studentCount, "s.created_at", "s.updated_at").
		From(r.t(ctx, "sections") + " s")
}

func sectionTargets(s *models.Section) []any {
	return []any{&s.ID, &s.Name, &s.ClassID, &s.TeacherID, &s.AcademicYearID, &s.StudentCount, &s.CreatedAt, &s.UpdatedAt}
}

func (r *SectionRepository) Create(ctx context.Context, s *models.Section) error {
	query := psql.Insert(r.t(ctx, "sections")).
		Columns("name", "class_id", "teacher_id", "academic_year_id").
		Values(s.Name, s.ClassID, s.TeacherID, s.AcademicYearID).
		Suffix("RETURNING id, created_at, updated_at")

	err := r.getOne(ctx, query, nil, &s.ID, &s.CreatedAt, &s.UpdatedAt)
	return logFailure(constraintError(err, sectionConstraints), "Failed to create section")
}

// GetByID returns the section if scope may see it.
func (r *SectionRepository) GetByID(ctx context.Context, id int64, scope models.Scope) (*models.Section, error) {
	query := where(r.selectSections(ctx).Where(squirrel.Eq{"s.id": id}), r.sectionScope(ctx, scope, "s.id"))

	var s models.Section
	if err := r.getOne(ctx, query, apperrors.ErrSectionNotFound, sectionTargets(&s)...); err != nil {
		return nil, logFailure(err, "Failed to get section")
	}
	return &s, nil
}

func (r *SectionRepository) List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Section, int64, error) {
	query := where(r.selectSections(ctx), r.sectionScope(ctx, f.Scope, "s.id")).OrderBy("s.class_id", "s.name")
	if f.ClassID != 0 {
		query = query.Where(squirrel.Eq{"s.class_id": f.ClassID})
	}
	if f.Search != "" {
		query = query.Where(squirrel.ILike{"s.name": helpers.LikePattern(f.Search)})
	}

	sections := []*models.Section{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var s models.Section
		if err := row.Scan(append(sectionTargets(&s), total)...); err != nil {
			return err
		}
		sections = append(sections, &s)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list sections")
	}
	return sections, total, nil
}

func (r *SectionRepository) Update(ctx context.Context, s *models.Section) error {
	s.UpdatedAt = time.Now()
	query := psql.Update(r.t(ctx, "sections")).
		Set("name", s.Name).
		Set("class_id", s.ClassID).
		Set("teacher_id", s.TeacherID).
		Set("academic_year_id", s.AcademicYearID).
		Set("updated_at", s.UpdatedAt).
		Where(squirrel.Eq{"id": s.ID})

	err := r.execOne(ctx, query, apperrors.ErrSectionNotFound)
	return logFailure(constraintError(err, sectionConstraints), "Failed to update section")
}

func (r *SectionRepository) Delete(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "sections")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrSectionNotFound), "Failed to delete section")
}

// AddStudents enrols students; already enrolled ones are skipped.
func (r *SectionRepository) AddStudents(ctx context.Context, sectionID int64, studentIDs []int64) error {
	query := psql.Insert(r.t(ctx, "section_students")).Columns("section_id", "student_id")
	for _, id := range studentIDs {
		query = query.Values(sectionID, id)
	}
	query = query.Suffix("ON CONFLICT DO NOTHING")

	_, err := r.exec(ctx, query)
	return logFailure(constraintError(err, nil), "Failed to add students to section")
}

// RemoveStudents drops the enrolment of studentIDs.
func (r *SectionRepository) RemoveStudents(ctx context.Context, sectionID int64, studentIDs []int64) error {
	query := psql.Delete(r.t(ctx, "section_students")).
		Where(squirrel.Eq{"section_id": sectionID, "student_id": studentIDs})
	_, err := r.exec(ctx, query)
	return logFailure(err, "Failed to remove students from section")
}

// StudentIDs lists the students enrolled in a section.
func (r *SectionRepository) StudentIDs(ctx context.Context, sectionID int64) ([]int64, error) {
	query := psql.Select("student_id").From(r.t(ctx, "section_students")).
		Where(squirrel.Eq{"section_id": sectionID}).
		OrderBy("student_id")
	return r.int64s(ctx, query, "Failed to list section students")
}

// IsEnrolled reports whether studentID is in sectionID.
func (r *SectionRepository) IsEnrolled(ctx context.Context, sectionID, studentID int64) (bool, error) {
	query := psql.Select("COUNT(*)").From(r.t(ctx, "section_students")).
		Where(squirrel.Eq{"section_id": sectionID, "student_id": studentID})
	n, err := r.count(ctx, query)
	return n > 0, logFailure(err, "Failed to check enrolment")
}

// IsTeacherOf reports whether teacherID is the class teacher of sectionID.
func (r *SectionRepository) IsTeacherOf(ctx context.Context, teacherID, sectionID int64) (bool, error) {
	query := psql.Select("COUNT(*)").From(r.t(ctx, "sections")).
		Where(squirrel.Eq{"id": sectionID, "teacher_id": teacherID})
	n, err := r.count(ctx, query)
	return n > 0, logFailure(err, "Failed to check section teacher")
}

// Affiliation returns the classes and sections a user belongs to through
// enrolment, their children, or teaching.
func (r *SectionRepository) Affiliation(ctx context.Context, userID int64, role models.RoleType) (classIDs, sectionIDs []int64, err error) {
	var query squirrel.SelectBuilder
	switch role {
	case models.RoleStudent:
		query = psql.Select("s.id", "s.class_id").From(r.t(ctx, "sections") + " s").
			Join(r.t(ctx, "section_students") + " ss ON ss.section_id = s.id").
			Where(squirrel.Eq{"ss.student_id": userID})
	case models.RoleParent:
		query = psql.Select("s.id", "s.class_id").From(r.t(ctx, "sections") + " s").
			Join(r.t(ctx, "section_students") + " ss ON ss.section_id = s.id").
			Join(r.t(ctx, "student_profiles") + " sp ON sp.user_id = ss.student_id").
			Where(squirrel.Eq{"sp.parent_id": userID})
	case models.RoleTeacher:
		query = psql.Select("s.id", "s.class_id").From(r.t(ctx, "sections") + " s").
			Where(squirrel.Eq{"s.teacher_id": userID})
	default:
		return nil, nil, nil
	}

	seenClass := map[int64]bool{}
	err = r.each(ctx, query, func(row rowScanner) error {
		var sectionID, classID int64
		if err := row.Scan(&sectionID, &classID); err != nil {
			return err
		}
		sectionIDs = append(sectionIDs, sectionID)
		if !seenClass[classID] {
			seenClass[classID] = true
			classIDs = append(classIDs, classID)
		}
		return nil
	})
	if err != nil {
		return nil, nil, logFailure(err, "Failed to load affiliation")
	}

	if role == models.RoleTeacher {
		subjectClasses := psql.Select("DISTINCT class_id").From(r.t(ctx, "subjects")).Where(squirrel.Eq{"teacher_id": userID})
		ids, err := r.int64s(ctx, subjectClasses, "Failed to load teacher subject classes")
		if err != nil {
			return nil, nil, err
		}
		for _, id := range ids {
			if !seenClass[id] {
				seenClass[id] = true
				classIDs = append(classIDs, id)
			}
		}
	}
	return classIDs, sectionIDs, nil
}

func (r *baseRepository) int64s(ctx context.Context, query squirrel.SelectBuilder, msg string) ([]int64, error) {
	ids := []int64{}
	err := r.each(ctx, query, func(row rowScanner) error {
		var id int64
		if err := row.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, logFailure(err, msg)
	}
	return ids, nil
}
