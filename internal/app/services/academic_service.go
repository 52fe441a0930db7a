package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolsphere/internal/app/auth"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/filestorage"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

const clockLayout = "15:04"

// AcademicStores groups the repositories behind the academic module.
type AcademicStores struct {
	Years       AcademicYearStore
	Classes     ClassStore
	Sections    SectionStore
	Subjects    SubjectStore
	Attendance  AttendanceStore
	Assessments AssessmentStore
	Assignments AssignmentStore
	Timetable   TimetableStore
	Users       UserStore
}

// AcademicService covers the school calendar, class structure and the
// day-to-day records teachers keep.
type AcademicService struct {
	AcademicStores
	files    filestorage.FileStorage
	notifier *Notifier
	tx       Transactor
	now      func() time.Time
	logger   zerolog.Logger
}

func NewAcademicService(
	stores AcademicStores,
	files filestorage.FileStorage,
	notifier *Notifier,
	tx Transactor,
	logger zerolog.Logger,
) *AcademicService {
	return &AcademicService{
		AcademicStores: stores,
		files:          files,
		notifier:       notifier,
		tx:             tx,
		now:            time.Now,
		logger:         logger,
	}
}

// structureScope is the read scope for the calendar and class structure:
// everyone reads, teachers and families narrowed to their own sections.
func structureScope(a *auth.Actor) models.Scope {
	return auth.ModuleScope(a, models.RoleLibrarian, models.RoleAccountant)
}

// refError turns a missing referenced row into a field validation error.
func refError(err error, field, what string) error {
	if isNotFound(err) {
		return apperrors.NewValidationError(field, what+" does not exist")
	}
	return err
}

func (s *AcademicService) admin(ctx context.Context) (*auth.Actor, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	return actor, auth.RequireAdmin(actor)
}

// ---- academic years ----

func validateYear(y *models.AcademicYear) error {
	if strings.TrimSpace(y.Name) == "" {
		return apperrors.NewValidationError("name", "name is required")
	}
	if !y.StartDate.Before(y.EndDate.Time) {
		return apperrors.NewValidationError("endDate", "end date must be after start date")
	}
	return nil
}

func (s *AcademicService) CreateYear(ctx context.Context, req *dto.AcademicYearRequest) (*models.AcademicYear, error) {
	if _, err := s.admin(ctx); err != nil {
		return nil, err
	}
	y := &models.AcademicYear{
		Name:      strings.TrimSpace(req.Name),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		IsActive:  req.IsActive,
	}
	if err := validateYear(y); err != nil {
		return nil, err
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Years.Create(ctx, y); err != nil {
			return err
		}
		if y.IsActive {
			return s.Years.DeactivateOthers(ctx, y.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error creating academic year: %w", err)
	}
	return y, nil
}

func (s *AcademicService) UpdateYear(ctx context.Context, id int64, req *dto.AcademicYearRequest) (*models.AcademicYear, error) {
	if _, err := s.admin(ctx); err != nil {
		return nil, err
	}

	var y *models.AcademicYear
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if y, err = s.Years.GetByID(ctx, id); err != nil {
			return err
		}
		y.Name = strings.TrimSpace(req.Name)
		y.StartDate = req.StartDate
		y.EndDate = req.EndDate
		y.IsActive = req.IsActive
		if err := validateYear(y); err != nil {
			return err
		}
		if err := s.Years.Update(ctx, y); err != nil {
			return err
		}
		if y.IsActive {
			return s.Years.DeactivateOthers(ctx, y.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error updating academic year: %w", err)
	}
	return y, nil
}

// ActivateYear makes id the only active academic year.
func (s *AcademicService) ActivateYear(ctx context.Context, id int64) (*models.AcademicYear, error) {
	if _, err := s.admin(ctx); err != nil {
		return nil, err
	}

	var y *models.AcademicYear
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if y, err = s.Years.GetByID(ctx, id); err != nil {
			return err
		}
		if !y.IsActive {
			y.IsActive = true
			if err := s.Years.Update(ctx, y); err != nil {
				return err
			}
		}
		return s.Years.DeactivateOthers(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("error activating academic year: %w", err)
	}
	return y, nil
}

func (s *AcademicService) GetYear(ctx context.Context, id int64) (*models.AcademicYear, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	return s.Years.GetByID(ctx, id)
}

func (s *AcademicService) ListYears(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.AcademicYear, int64, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, 0, err
	}
	return s.Years.List(ctx, f, p)
}

func (s *AcademicService) DeleteYear(ctx context.Context, id int64) error {
	if _, err := s.admin(ctx); err != nil {
		return err
	}
	return s.Years.Delete(ctx, id)
}

// ---- classes ----

func (s *AcademicService) CreateClass(ctx context.Context, req *dto.ClassRequest) (*models.Class, error) {
	if _, err := s.admin(ctx); err != nil {
		return nil, err
	}
	c := &models.Class{Name: strings.TrimSpace(req.Name), Description: req.Description}
	if err := s.Classes.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("error creating class: %w", err)
	}
	return c, nil
}

func (s *AcademicService) UpdateClass(ctx context.Context, id int64, req *dto.ClassRequest) (*models.Class, error) {
	if _, err := s.admin(ctx); err != nil {
		return nil, err
	}
	c, err := s.Classes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(req.Name)
	c.Description = req.Description
	if err := s.Classes.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("error updating class: %w", err)
	}
	return c, nil
}

func (s *AcademicService) GetClass(ctx context.Context, id int64) (*models.Class, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	return s.Classes.GetByID(ctx, id)
}

func (s *AcademicService) ListClasses(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Class, int64, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, 0, err
	}
	return s.Classes.List(ctx, f, p)
}

func (s *AcademicService) DeleteClass(ctx context.Context, id int64) error {
	if _, err := s.admin(ctx); err != nil {
		return err
	}
	return s.Classes.Delete(ctx, id)
}

// ---- sections ----

// checkTeacher verifies that an optional teacher reference holds the teacher role.
func (s *AcademicService) checkTeacher(ctx context.Context, teacherID *int64) error {
	if teacherID == nil {
		return nil
	}
	u, err := s.Users.GetByID(ctx, *teacherID)
	if err != nil {
		return refError(err, "teacherId", "teacher")
	}
	if u.RoleType != models.RoleTeacher {
		return apperrors.NewValidationError("teacherId", "referenced user is not a teacher")
	}
	return nil
}

func (s *AcademicService) fillSection(ctx context.Context, sec *models.Section, req *dto.SectionRequest) error {
	if _, err := s.Classes.GetByID(ctx, req.ClassID); err != nil {
		return refError(err, "classId", "class")
	}
	if _, err := s.Years.GetByID(ctx, req.AcademicYearID); err != nil {
		return refError(err, "academicYearId", "academic year")
	}
	if err := s.checkTeacher(ctx, req.TeacherID); err != nil {
		return err
	}
	sec.Name = strings.TrimSpace(req.Name)
	sec.ClassID = req.ClassID
	sec.AcademicYearID = req.AcademicYearID
	sec.TeacherID = req.TeacherID
	return nil
}

func (s *AcademicService) CreateSection(ctx context.Context, req *dto.SectionRequest) (*models.Section, error) {
	if _, err := s.admin(ctx); err != nil {
		return nil, err
	}
	sec := &models.Section{}
	if err := s.fillSection(ctx, sec, req); err != nil {
		return nil, err
	}
	if err := s.Sections.Create(ctx, sec); err != nil {
		return nil, fmt.Errorf("error creating section: %w", err)
	}
	return sec, nil
}

func (s *AcademicService) UpdateSection(ctx context.Context, id int64, req *dto.SectionRequest) (*models.Section, error) {
	if _, err := s.admin(ctx); err != nil {
		return nil, err
	}
	sec, err := s.Sections.GetByID(ctx, id, models.Scope{All: true})
	if err != nil {
		return nil, err
	}
	if err := s.fillSection(ctx, sec, req); err != nil {
		return nil, err
	}
	if err := s.Sections.Update(ctx, sec); err != nil {
		return nil, fmt.Errorf("error updating section: %w", err)
	}
	return sec, nil
}

func (s *AcademicService) GetSection(ctx context.Context, id int64) (*models.Section, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	scope := structureScope(actor)
	if !auth.Visible(scope) {
		return nil, apperrors.NewForbiddenError("you cannot view sections")
	}
	return s.Sections.GetByID(ctx, id, scope)
}

func (s *AcademicService) ListSections(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Section, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	f.Scope = structureScope(actor)
	if !auth.Visible(f.Scope) {
		return nil, 0, apperrors.NewForbiddenError("you cannot list sections")
	}
	return s.Sections.List(ctx, f, p)
}

func (s *AcademicService) DeleteSection(ctx context.Context, id int64) error {
	if _, err := s.admin(ctx); err != nil {
		return err
	}
	return s.Sections.Delete(ctx, id)
}

// AddStudents enrols students into a section and returns it with the new count.
func (s *AcademicService) AddStudents(ctx context.Context, sectionID int64, studentIDs []int64) (*models.Section, error) {
	if _, err := s.admin(ctx); err != nil {
		return nil, err
	}
	if len(studentIDs) == 0 {
		return nil, apperrors.NewValidationError("studentIds", "at least one student is required")
	}

	var sec *models.Section
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.Sections.GetByID(ctx, sectionID, models.Scope{All: true}); err != nil {
			return err
		}
		for _, id := range studentIDs {
			if _, err := s.Users.GetStudent(ctx, id, models.Scope{All: true}); err != nil {
				return refError(err, "studentIds", fmt.Sprintf("student %d", id))
			}
		}
		if err := s.Sections.AddStudents(ctx, sectionID, studentIDs); err != nil {
			return err
		}
		var err error
		sec, err = s.Sections.GetByID(ctx, sectionID, models.Scope{All: true})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error adding students: %w", err)
	}
	return sec, nil
}

func (s *AcademicService) RemoveStudents(ctx context.Context, sectionID int64, studentIDs []int64) (*models.Section, error) {
	if _, err := s.admin(ctx); err != nil {
		return nil, err
	}
	if len(studentIDs) == 0 {
		return nil, apperrors.NewValidationError("studentIds", "at least one student is required")
	}
	if _, err := s.Sections.GetByID(ctx, sectionID, models.Scope{All: true}); err != nil {
		return nil, err
	}
	if err := s.Sections.RemoveStudents(ctx, sectionID, studentIDs); err != nil {
		return nil, fmt.Errorf("error removing students: %w", err)
	}
	return s.Sections.GetByID(ctx, sectionID, models.Scope{All: true})
}

// ---- subjects ----

func (s *AcademicService) fillSubject(ctx context.Context, sub *models.Subject, req *dto.SubjectRequest) error {
	if _, err := s.Classes.GetByID(ctx, req.ClassID); err != nil {
		return refError(err, "classId", "class")
	}
	if err := s.checkTeacher(ctx, req.TeacherID); err != nil {
		return err
	}
	sub.Name = strings.TrimSpace(req.Name)
	sub.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	sub.Description = req.Description
	sub.ClassID = req.ClassID
	sub.TeacherID = req.TeacherID
	return nil
}

func (s *AcademicService) CreateSubject(ctx context.Context, req *dto.SubjectRequest) (*models.Subject, error) {
	if _, err := s.admin(ctx); err != nil {
		return nil, err
	}
	sub := &models.Subject{}
	if err := s.fillSubject(ctx, sub, req); err != nil {
		return nil, err
	}
	if err := s.Subjects.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("error creating subject: %w", err)
	}
	return sub, nil
}

func (s *AcademicService) UpdateSubject(ctx context.Context, id int64, req *dto.SubjectRequest) (*models.Subject, error) {
	if _, err := s.admin(ctx); err != nil {
		return nil, err
	}
	sub, err := s.Subjects.GetByID(ctx, id, models.Scope{All: true})
	if err != nil {
		return nil, err
	}
	if err := s.fillSubject(ctx, sub, req); err != nil {
		return nil, err
	}
	if err := s.Subjects.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("error updating subject: %w", err)
	}
	return sub, nil
}

func (s *AcademicService) GetSubject(ctx context.Context, id int64) (*models.Subject, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.Subjects.GetByID(ctx, id, structureScope(actor))
}

func (s *AcademicService) ListSubjects(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Subject, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	f.Scope = structureScope(actor)
	return s.Subjects.List(ctx, f, p)
}

func (s *AcademicService) DeleteSubject(ctx context.Context, id int64) error {
	if _, err := s.admin(ctx); err != nil {
		return err
	}
	return s.Subjects.Delete(ctx, id)
}

// ---- timetable ----

// parseClock normalizes "H:MM" input to "HH:MM".
func parseClock(field, v string) (string, time.Time, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(v))
	if err != nil {
		return "", time.Time{}, apperrors.NewValidationError(field, "time must use HH:MM")
	}
	return t.Format(clockLayout), t, nil
}

func (s *AcademicService) fillTimetable(ctx context.Context, e *models.TimetableEntry, req *dto.TimetableRequest) error {
	if req.Weekday == nil || *req.Weekday < 0 || *req.Weekday > 6 {
		return apperrors.NewValidationError("weekday", "weekday must be between 0 and 6")
	}
	start, startAt, err := parseClock("startTime", req.StartTime)
	if err != nil {
		return err
	}
	end, endAt, err := parseClock("endTime", req.EndTime)
	if err != nil {
		return err
	}
	if !startAt.Before(endAt) {
		return apperrors.NewValidationError("endTime", "end time must be after start time")
	}
	if _, err := s.Sections.GetByID(ctx, req.SectionID, models.Scope{All: true}); err != nil {
		return refError(err, "sectionId", "section")
	}
	if _, err := s.Subjects.GetByID(ctx, req.SubjectID, models.Scope{All: true}); err != nil {
		return refError(err, "subjectId", "subject")
	}

	e.SectionID = req.SectionID
	e.SubjectID = req.SubjectID
	e.Weekday = *req.Weekday
	e.StartTime = start
	e.EndTime = end

	overlaps, err := s.Timetable.Overlaps(ctx, e)
	if err != nil {
		return err
	}
	if overlaps {
		return &apperrors.CustomError{
			Err:     apperrors.ErrTimetableOverlap,
			Message: fmt.Sprintf("section already has a lesson between %s and %s on that day", start, end),
		}
	}
	return nil
}

func (s *AcademicService) CreateTimetableEntry(ctx context.Context, req *dto.TimetableRequest) (*models.TimetableEntry, error) {
	if _, err := s.admin(ctx); err != nil {
		return nil, err
	}
	e := &models.TimetableEntry{}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.fillTimetable(ctx, e, req); err != nil {
			return err
		}
		return s.Timetable.Create(ctx, e)
	})
	if err != nil {
		return nil, fmt.Errorf("error creating timetable entry: %w", err)
	}
	return e, nil
}

func (s *AcademicService) UpdateTimetableEntry(ctx context.Context, id int64, req *dto.TimetableRequest) (*models.TimetableEntry, error) {
	if _, err := s.admin(ctx); err != nil {
		return nil, err
	}
	var e *models.TimetableEntry
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if e, err = s.Timetable.GetByID(ctx, id, models.Scope{All: true}); err != nil {
			return err
		}
		if err := s.fillTimetable(ctx, e, req); err != nil {
			return err
		}
		return s.Timetable.Update(ctx, e)
	})
	if err != nil {
		return nil, fmt.Errorf("error updating timetable entry: %w", err)
	}
	return e, nil
}

func (s *AcademicService) GetTimetableEntry(ctx context.Context, id int64) (*models.TimetableEntry, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	scope := structureScope(actor)
	if !auth.Visible(scope) {
		return nil, apperrors.NewForbiddenError("you cannot view the timetable")
	}
	return s.Timetable.GetByID(ctx, id, scope)
}

func (s *AcademicService) ListTimetable(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.TimetableEntry, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	f.Scope = structureScope(actor)
	if !auth.Visible(f.Scope) {
		return nil, 0, apperrors.NewForbiddenError("you cannot view the timetable")
	}
	return s.Timetable.List(ctx, f, p)
}

func (s *AcademicService) DeleteTimetableEntry(ctx context.Context, id int64) error {
	if _, err := s.admin(ctx); err != nil {
		return err
	}
	return s.Timetable.Delete(ctx, id)
}
