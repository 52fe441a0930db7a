package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yigit/schoolsphere/internal/app/auth"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

var maxScore = decimal.NewFromInt(100)

// recordScope is the read scope of per-student records. Staff outside the
// academic side see nothing.
func recordScope(a *auth.Actor) (models.Scope, error) {
	scope := auth.ScopeFor(a)
	if !auth.Visible(scope) {
		return scope, apperrors.NewForbiddenError("you cannot view academic records")
	}
	return scope, nil
}

// sectionStaff allows admins and the teacher of sectionID.
func (s *AcademicService) sectionStaff(ctx context.Context, actor *auth.Actor, sectionID int64) error {
	if actor.IsAdmin() {
		return nil
	}
	if !actor.Is(models.RoleTeacher) {
		return apperrors.NewForbiddenError("only teachers and administrators can record this")
	}
	ok, err := s.Sections.IsTeacherOf(ctx, actor.UserID, sectionID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewForbiddenError("you do not teach this section")
	}
	return nil
}

func (s *AcademicService) checkEnrolled(ctx context.Context, sectionID, studentID int64) error {
	ok, err := s.Sections.IsEnrolled(ctx, sectionID, studentID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewValidationError("studentId", fmt.Sprintf("student %d is not enrolled in section %d", studentID, sectionID))
	}
	return nil
}

// ---- attendance ----

func (s *AcademicService) newAttendance(ctx context.Context, actor *auth.Actor, req *dto.AttendanceRequest) (*models.Attendance, error) {
	if err := s.sectionStaff(ctx, actor, req.SectionID); err != nil {
		return nil, err
	}
	if err := s.checkEnrolled(ctx, req.SectionID, req.StudentID); err != nil {
		return nil, err
	}
	return &models.Attendance{
		StudentID: req.StudentID,
		SectionID: req.SectionID,
		Date:      req.Date,
		IsPresent: req.IsPresent,
		Remarks:   req.Remarks,
	}, nil
}

func (s *AcademicService) notifyAbsence(ctx context.Context, a *models.Attendance) {
	if a.IsPresent {
		return
	}
	s.notifier.Notify(ctx, []int64{a.StudentID}, Notice{
		Type:       models.NotifyAttendance,
		Title:      "Marked absent",
		Message:    fmt.Sprintf("You were marked absent on %s.", a.Date),
		ObjectType: "attendance",
		ObjectID:   a.ID,
	})
}

func (s *AcademicService) CreateAttendance(ctx context.Context, req *dto.AttendanceRequest) (*models.Attendance, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.newAttendance(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if err := s.Attendance.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("error recording attendance: %w", err)
	}
	s.notifyAbsence(ctx, a)
	return a, nil
}

// BulkCreateAttendance stores every record or none of them.
func (s *AcademicService) BulkCreateAttendance(ctx context.Context, req *dto.BulkAttendanceRequest) ([]*models.Attendance, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if len(req.Records) == 0 {
		return nil, apperrors.NewValidationError("records", "at least one record is required")
	}

	records := make([]*models.Attendance, 0, len(req.Records))
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		seen := make(map[string]bool, len(req.Records))
		for i := range req.Records {
			r := &req.Records[i]
			key := fmt.Sprintf("%d/%d/%s", r.StudentID, r.SectionID, r.Date)
			if seen[key] {
				return &apperrors.CustomError{
					Err:     apperrors.ErrDuplicateAttendance,
					Message: fmt.Sprintf("student %d appears twice for %s", r.StudentID, r.Date),
				}
			}
			seen[key] = true

			a, err := s.newAttendance(ctx, actor, r)
			if err != nil {
				return err
			}
			records = append(records, a)
		}
		return s.Attendance.CreateBulk(ctx, records)
	})
	if err != nil {
		return nil, fmt.Errorf("error recording attendance: %w", err)
	}

	for _, a := range records {
		s.notifyAbsence(ctx, a)
	}
	return records, nil
}

func (s *AcademicService) UpdateAttendance(ctx context.Context, id int64, req *dto.AttendanceRequest) (*models.Attendance, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.Attendance.GetByID(ctx, id, auth.ScopeFor(actor))
	if err != nil {
		return nil, err
	}
	if err := s.sectionStaff(ctx, actor, a.SectionID); err != nil {
		return nil, err
	}
	if req.SectionID != a.SectionID || req.StudentID != a.StudentID {
		return nil, apperrors.NewValidationError("sectionId", "student and section of an attendance record cannot change")
	}

	wasPresent := a.IsPresent
	a.Date = req.Date
	a.IsPresent = req.IsPresent
	a.Remarks = req.Remarks
	if err := s.Attendance.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("error updating attendance: %w", err)
	}
	if wasPresent {
		s.notifyAbsence(ctx, a)
	}
	return a, nil
}

func (s *AcademicService) GetAttendance(ctx context.Context, id int64) (*models.Attendance, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	scope, err := recordScope(actor)
	if err != nil {
		return nil, err
	}
	return s.Attendance.GetByID(ctx, id, scope)
}

func (s *AcademicService) ListAttendance(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Attendance, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if f.Scope, err = recordScope(actor); err != nil {
		return nil, 0, err
	}
	return s.Attendance.List(ctx, f, p)
}

func (s *AcademicService) DeleteAttendance(ctx context.Context, id int64) error {
	if _, err := s.admin(ctx); err != nil {
		return err
	}
	return s.Attendance.Delete(ctx, id)
}

// ---- assessments ----

func (s *AcademicService) CreateAssessment(ctx context.Context, req *dto.AssessmentRequest) (*models.Assessment, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.sectionStaff(ctx, actor, req.SectionID); err != nil {
		return nil, err
	}
	if !req.TotalMarks.IsPositive() {
		return nil, apperrors.NewValidationError("totalMarks", "total marks must be greater than zero")
	}
	if _, err := s.Subjects.GetByID(ctx, req.SubjectID, models.Scope{All: true}); err != nil {
		return nil, refError(err, "subjectId", "subject")
	}

	a := &models.Assessment{
		Name:       strings.TrimSpace(req.Name),
		SubjectID:  req.SubjectID,
		SectionID:  req.SectionID,
		Date:       req.Date,
		TotalMarks: req.TotalMarks,
	}
	if err := s.Assessments.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("error creating assessment: %w", err)
	}
	return a, nil
}

// UpdateAssessment refuses to lower total marks below a recorded result.
func (s *AcademicService) UpdateAssessment(ctx context.Context, id int64, req *dto.AssessmentRequest) (*models.Assessment, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.Assessments.GetByID(ctx, id, auth.ScopeFor(actor))
	if err != nil {
		return nil, err
	}
	if err := s.sectionStaff(ctx, actor, a.SectionID); err != nil {
		return nil, err
	}
	if req.SectionID != a.SectionID {
		if err := s.sectionStaff(ctx, actor, req.SectionID); err != nil {
			return nil, err
		}
	}
	if !req.TotalMarks.IsPositive() {
		return nil, apperrors.NewValidationError("totalMarks", "total marks must be greater than zero")
	}

	if req.TotalMarks.LessThan(a.TotalMarks) {
		top, err := s.Assessments.HighestResult(ctx, a.ID)
		switch {
		case err == nil && top.MarksObtained.GreaterThan(req.TotalMarks):
			return nil, &apperrors.CustomError{
				Err:     apperrors.ErrMarksExceedTotal,
				Message: fmt.Sprintf("a result of %s is already recorded", top.MarksObtained),
				Details: map[string]interface{}{"field": "totalMarks"},
			}
		case err != nil && !isNotFound(err):
			return nil, err
		}
	}

	a.Name = strings.TrimSpace(req.Name)
	a.SubjectID = req.SubjectID
	a.SectionID = req.SectionID
	a.Date = req.Date
	a.TotalMarks = req.TotalMarks
	if err := s.Assessments.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("error updating assessment: %w", err)
	}
	return a, nil
}

func (s *AcademicService) GetAssessment(ctx context.Context, id int64) (*models.Assessment, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	scope, err := recordScope(actor)
	if err != nil {
		return nil, err
	}
	return s.Assessments.GetByID(ctx, id, scope)
}

func (s *AcademicService) ListAssessments(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Assessment, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if f.Scope, err = recordScope(actor); err != nil {
		return nil, 0, err
	}
	return s.Assessments.List(ctx, f, p)
}

func (s *AcademicService) DeleteAssessment(ctx context.Context, id int64) error {
	if _, err := s.admin(ctx); err != nil {
		return err
	}
	return s.Assessments.Delete(ctx, id)
}

// ---- results ----

func checkMarks(marks, total decimal.Decimal) error {
	if marks.IsNegative() {
		return apperrors.NewValidationError("marksObtained", "marks cannot be negative")
	}
	if marks.GreaterThan(total) {
		return &apperrors.CustomError{
			Err:     apperrors.ErrMarksExceedTotal,
			Message: fmt.Sprintf("marks obtained cannot exceed total marks of %s", total),
			Details: map[string]interface{}{"field": "marksObtained"},
		}
	}
	return nil
}

func (s *AcademicService) newResult(ctx context.Context, actor *auth.Actor, req *dto.AssessmentResultRequest) (*models.AssessmentResult, *models.Assessment, error) {
	a, err := s.Assessments.GetByID(ctx, req.AssessmentID, models.Scope{All: true})
	if err != nil {
		return nil, nil, refError(err, "assessmentId", "assessment")
	}
	if err := s.sectionStaff(ctx, actor, a.SectionID); err != nil {
		return nil, nil, err
	}
	if err := checkMarks(req.MarksObtained, a.TotalMarks); err != nil {
		return nil, nil, err
	}
	if err := s.checkEnrolled(ctx, a.SectionID, req.StudentID); err != nil {
		return nil, nil, err
	}
	return &models.AssessmentResult{
		AssessmentID:  a.ID,
		StudentID:     req.StudentID,
		MarksObtained: req.MarksObtained,
		Remarks:       req.Remarks,
	}, a, nil
}

func (s *AcademicService) notifyResult(ctx context.Context, res *models.AssessmentResult, a *models.Assessment) {
	s.notifier.Notify(ctx, []int64{res.StudentID}, Notice{
		Type:       models.NotifyResult,
		Title:      "New result: " + a.Name,
		Message:    fmt.Sprintf("You scored %s out of %s.", res.MarksObtained, a.TotalMarks),
		ObjectType: "assessment_result",
		ObjectID:   res.ID,
	})
}

func (s *AcademicService) CreateResult(ctx context.Context, req *dto.AssessmentResultRequest) (*models.AssessmentResult, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	res, a, err := s.newResult(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if err := s.Assessments.CreateResult(ctx, res); err != nil {
		return nil, fmt.Errorf("error recording result: %w", err)
	}
	s.notifyResult(ctx, res, a)
	return res, nil
}

// BulkCreateResults stores every result or none of them.
func (s *AcademicService) BulkCreateResults(ctx context.Context, req *dto.BulkResultRequest) ([]*models.AssessmentResult, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if len(req.Results) == 0 {
		return nil, apperrors.NewValidationError("results", "at least one result is required")
	}

	type recorded struct {
		res *models.AssessmentResult
		a   *models.Assessment
	}
	var done []recorded
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		done = done[:0]
		for i := range req.Results {
			res, a, err := s.newResult(ctx, actor, &req.Results[i])
			if err != nil {
				return err
			}
			if err := s.Assessments.CreateResult(ctx, res); err != nil {
				return err
			}
			done = append(done, recorded{res, a})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error recording results: %w", err)
	}

	out := make([]*models.AssessmentResult, 0, len(done))
	for _, d := range done {
		s.notifyResult(ctx, d.res, d.a)
		out = append(out, d.res)
	}
	return out, nil
}

func (s *AcademicService) UpdateResult(ctx context.Context, id int64, req *dto.AssessmentResultRequest) (*models.AssessmentResult, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.Assessments.GetResult(ctx, id, auth.ScopeFor(actor))
	if err != nil {
		return nil, err
	}
	a, err := s.Assessments.GetByID(ctx, res.AssessmentID, models.Scope{All: true})
	if err != nil {
		return nil, err
	}
	if err := s.sectionStaff(ctx, actor, a.SectionID); err != nil {
		return nil, err
	}
	if err := checkMarks(req.MarksObtained, a.TotalMarks); err != nil {
		return nil, err
	}

	res.MarksObtained = req.MarksObtained
	res.Remarks = req.Remarks
	if err := s.Assessments.UpdateResult(ctx, res); err != nil {
		return nil, fmt.Errorf("error updating result: %w", err)
	}
	return res, nil
}

func (s *AcademicService) GetResult(ctx context.Context, id int64) (*models.AssessmentResult, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	scope, err := recordScope(actor)
	if err != nil {
		return nil, err
	}
	return s.Assessments.GetResult(ctx, id, scope)
}

func (s *AcademicService) ListResults(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.AssessmentResult, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if f.Scope, err = recordScope(actor); err != nil {
		return nil, 0, err
	}
	return s.Assessments.ListResults(ctx, f, p)
}

func (s *AcademicService) DeleteResult(ctx context.Context, id int64) error {
	if _, err := s.admin(ctx); err != nil {
		return err
	}
	return s.Assessments.DeleteResult(ctx, id)
}

// ---- assignments ----

func (s *AcademicService) withAssignmentURL(ctx context.Context, a *models.Assignment) *models.Assignment {
	a.FileURL = presign(ctx, s.files, s.logger, a.FileKey)
	return a
}

// discard removes an uploaded object after the database write failed.
func (s *AcademicService) discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.files.DeleteFile(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to remove orphaned upload")
	}
}

// CreateAssignment stores the optional file and notifies the section's students.
func (s *AcademicService) CreateAssignment(ctx context.Context, req *dto.AssignmentRequest, file *multipart.FileHeader) (*models.Assignment, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.sectionStaff(ctx, actor, req.SectionID); err != nil {
		return nil, err
	}
	if _, err := s.Subjects.GetByID(ctx, req.SubjectID, models.Scope{All: true}); err != nil {
		return nil, refError(err, "subjectId", "subject")
	}

	key, err := upload(ctx, s.files, file, "assignments")
	if err != nil {
		return nil, err
	}
	a := &models.Assignment{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		SubjectID:   req.SubjectID,
		SectionID:   req.SectionID,
		DueDate:     req.DueDate,
		FileKey:     key,
	}
	if err := s.Assignments.Create(ctx, a); err != nil {
		s.discard(ctx, key)
		return nil, fmt.Errorf("error creating assignment: %w", err)
	}

	students, err := s.Sections.StudentIDs(ctx, a.SectionID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("sectionId", a.SectionID).Msg("Failed to load section students for notification")
	}
	s.notifier.Notify(ctx, students, Notice{
		Type:       models.NotifyAssignment,
		Title:      "New assignment: " + a.Title,
		Message:    fmt.Sprintf("Due %s.", a.DueDate.Format("2006-01-02 15:04")),
		ObjectType: "assignment",
		ObjectID:   a.ID,
	})
	return s.withAssignmentURL(ctx, a), nil
}

// UpdateAssignment replaces the stored file when a new one is uploaded.
func (s *AcademicService) UpdateAssignment(ctx context.Context, id int64, req *dto.AssignmentRequest, file *multipart.FileHeader) (*models.Assignment, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.Assignments.GetByID(ctx, id, auth.ScopeFor(actor))
	if err != nil {
		return nil, err
	}
	if err := s.sectionStaff(ctx, actor, a.SectionID); err != nil {
		return nil, err
	}
	if req.SectionID != a.SectionID {
		if err := s.sectionStaff(ctx, actor, req.SectionID); err != nil {
			return nil, err
		}
	}

	key, err := upload(ctx, s.files, file, "assignments")
	if err != nil {
		return nil, err
	}
	oldKey := a.FileKey
	a.Title = strings.TrimSpace(req.Title)
	a.Description = req.Description
	a.SubjectID = req.SubjectID
	a.SectionID = req.SectionID
	a.DueDate = req.DueDate
	if key != "" {
		a.FileKey = key
	}
	if err := s.Assignments.Update(ctx, a); err != nil {
		s.discard(ctx, key)
		return nil, fmt.Errorf("error updating assignment: %w", err)
	}
	if key != "" {
		s.discard(ctx, oldKey)
	}
	return s.withAssignmentURL(ctx, a), nil
}

func (s *AcademicService) GetAssignment(ctx context.Context, id int64) (*models.Assignment, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	scope, err := recordScope(actor)
	if err != nil {
		return nil, err
	}
	a, err := s.Assignments.GetByID(ctx, id, scope)
	if err != nil {
		return nil, err
	}
	return s.withAssignmentURL(ctx, a), nil
}

func (s *AcademicService) ListAssignments(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Assignment, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if f.Scope, err = recordScope(actor); err != nil {
		return nil, 0, err
	}
	items, total, err := s.Assignments.List(ctx, f, p)
	if err != nil {
		return nil, 0, err
	}
	for _, a := range items {
		s.withAssignmentURL(ctx, a)
	}
	return items, total, nil
}

func (s *AcademicService) DeleteAssignment(ctx context.Context, id int64) error {
	if _, err := s.admin(ctx); err != nil {
		return err
	}
	a, err := s.Assignments.GetByID(ctx, id, models.Scope{All: true})
	if err != nil {
		return err
	}
	if err := s.Assignments.Delete(ctx, id); err != nil {
		return err
	}
	s.discard(ctx, a.FileKey)
	return nil
}

// ---- submissions ----

func (s *AcademicService) withSubmissionURL(ctx context.Context, sub *models.AssignmentSubmission) *models.AssignmentSubmission {
	sub.FileURL = presign(ctx, s.files, s.logger, sub.FileKey)
	return sub
}

// Submit records the caller's single submission for an assignment of one of
// their sections.
func (s *AcademicService) Submit(ctx context.Context, req *dto.SubmissionRequest, file *multipart.FileHeader) (*models.AssignmentSubmission, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.Require(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	if _, err := s.Assignments.GetByID(ctx, req.AssignmentID, models.Scope{StudentID: actor.UserID}); err != nil {
		return nil, refError(err, "assignmentId", "assignment")
	}

	key, err := upload(ctx, s.files, file, "submissions")
	if err != nil {
		return nil, err
	}
	sub := &models.AssignmentSubmission{
		AssignmentID: req.AssignmentID,
		StudentID:    actor.UserID,
		FileKey:      key,
		Remarks:      req.Remarks,
	}
	if err := s.Assignments.CreateSubmission(ctx, sub); err != nil {
		s.discard(ctx, key)
		return nil, fmt.Errorf("error creating submission: %w", err)
	}
	return s.withSubmissionURL(ctx, sub), nil
}

// GradeSubmission is the teacher side: a score from 0 to 100 and remarks.
func (s *AcademicService) GradeSubmission(ctx context.Context, id int64, req *dto.GradeSubmissionRequest) (*models.AssignmentSubmission, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Is(models.RoleTeacher) {
		return nil, apperrors.NewForbiddenError("only teachers and administrators can grade submissions")
	}
	sub, err := s.Assignments.GetSubmission(ctx, id, auth.ScopeFor(actor))
	if err != nil {
		return nil, err
	}

	if req.Score != nil {
		if req.Score.IsNegative() || req.Score.GreaterThan(maxScore) {
			return nil, apperrors.NewValidationError("score", "score must be between 0 and 100")
		}
		score := *req.Score
		sub.Score = &score
	}
	if req.Remarks != nil {
		sub.Remarks = *req.Remarks
	}
	if err := s.Assignments.GradeSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("error grading submission: %w", err)
	}
	return s.withSubmissionURL(ctx, sub), nil
}

func (s *AcademicService) GetSubmission(ctx context.Context, id int64) (*models.AssignmentSubmission, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	scope, err := recordScope(actor)
	if err != nil {
		return nil, err
	}
	sub, err := s.Assignments.GetSubmission(ctx, id, scope)
	if err != nil {
		return nil, err
	}
	return s.withSubmissionURL(ctx, sub), nil
}

func (s *AcademicService) ListSubmissions(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.AssignmentSubmission, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if f.Scope, err = recordScope(actor); err != nil {
		return nil, 0, err
	}
	items, total, err := s.Assignments.ListSubmissions(ctx, f, p)
	if err != nil {
		return nil, 0, err
	}
	for _, sub := range items {
		s.withSubmissionURL(ctx, sub)
	}
	return items, total, nil
}

func (s *AcademicService) DeleteSubmission(ctx context.Context, id int64) error {
	if _, err := s.admin(ctx); err != nil {
		return err
	}
	sub, err := s.Assignments.GetSubmission(ctx, id, models.Scope{All: true})
	if err != nil {
		return err
	}
	if err := s.Assignments.DeleteSubmission(ctx, id); err != nil {
		return err
	}
	s.discard(ctx, sub.FileKey)
	return nil
}
