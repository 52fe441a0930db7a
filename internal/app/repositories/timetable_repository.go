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

// Times travel as "HH:MM" text in both directions.
var timetableColumns = []string{
	"id", "section_id", "subject_id", "weekday",
	"to_char(start_time, 'HH24:MI')", "to_char(end_time, 'HH24:MI')",
	"created_at", "updated_at",
}

var timetableConstraints = map[string]error{
	"timetable_entries_section_weekday_start_key": apperrors.ErrTimetableOverlap,
	"timetable_entries_times_check":               apperrors.NewValidationError("endTime", "end time must be after start time"),
}

type TimetableRepository struct {
	baseRepository
}

func NewTimetableRepository(db *sql.DB) *TimetableRepository {
	return &TimetableRepository{baseRepository{db: db}}
}

func timetableTargets(e *models.TimetableEntry) []any {
	return []any{&e.ID, &e.SectionID, &e.SubjectID, &e.Weekday, &e.StartTime, &e.EndTime, &e.CreatedAt, &e.UpdatedAt}
}

func (r *TimetableRepository) Create(ctx context.Context, e *models.TimetableEntry) error {
	query := psql.Insert(r.t(ctx, "timetable_entries")).
		Columns("section_id", "subject_id", "weekday", "start_time", "end_time").
		Values(e.SectionID, e.SubjectID, e.Weekday, e.StartTime, e.EndTime).
		Suffix("RETURNING id, created_at, updated_at")

	err := r.getOne(ctx, query, nil, &e.ID, &e.CreatedAt, &e.UpdatedAt)
	return logFailure(constraintError(err, timetableConstraints), "Failed to create timetable entry")
}

func (r *TimetableRepository) GetByID(ctx context.Context, id int64, scope models.Scope) (*models.TimetableEntry, error) {
	query := psql.Select(timetableColumns...).From(r.t(ctx, "timetable_entries")).Where(squirrel.Eq{"id": id})
	query = where(query, r.sectionScope(ctx, scope, "section_id"))

	var e models.TimetableEntry
	if err := r.getOne(ctx, query, apperrors.ErrTimetableNotFound, timetableTargets(&e)...); err != nil {
		return nil, logFailure(err, "Failed to get timetable entry")
	}
	return &e, nil
}

func (r *TimetableRepository) List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.TimetableEntry, int64, error) {
	query := psql.Select(timetableColumns...).From(r.t(ctx, "timetable_entries")).OrderBy("section_id", "weekday", "start_time")
	query = where(query, r.sectionScope(ctx, f.Scope, "section_id"))
	if f.SectionID != 0 {
		query = query.Where(squirrel.Eq{"section_id": f.SectionID})
	}
	if f.SubjectID != 0 {
		query = query.Where(squirrel.Eq{"subject_id": f.SubjectID})
	}
	if f.Weekday != nil {
		query = query.Where(squirrel.Eq{"weekday": *f.Weekday})
	}

	entries := []*models.TimetableEntry{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var e models.TimetableEntry
		if err := row.Scan(append(timetableTargets(&e), total)...); err != nil {
			return err
		}
		entries = append(entries, &e)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list timetable")
	}
	return entries, total, nil
}

// Overlaps reports whether e collides with another slot of the same section
// and weekday. The entry itself is ignored so updates can keep their slot.
func (r *TimetableRepository) Overlaps(ctx context.Context, e *models.TimetableEntry) (bool, error) {
	query := psql.Select("COUNT(*)").From(r.t(ctx, "timetable_entries")).
		Where(squirrel.Eq{"section_id": e.SectionID, "weekday": e.Weekday}).
		Where(squirrel.NotEq{"id": e.ID}).
		Where("start_time < ?::time AND end_time > ?::time", e.EndTime, e.StartTime)

	n, err := r.count(ctx, query)
	return n > 0, logFailure(err, "Failed to check timetable overlap")
}

func (r *TimetableRepository) Update(ctx context.Context, e *models.TimetableEntry) error {
	e.UpdatedAt = time.Now()
	query := psql.Update(r.t(ctx, "timetable_entries")).
		Set("section_id", e.SectionID).
		Set("subject_id", e.SubjectID).
		Set("weekday", e.Weekday).
		Set("start_time", e.StartTime).
		Set("end_time", e.EndTime).
		Set("updated_at", e.UpdatedAt).
		Where(squirrel.Eq{"id": e.ID})

	err := r.execOne(ctx, query, apperrors.ErrTimetableNotFound)
	return logFailure(constraintError(err, timetableConstraints), "Failed to update timetable entry")
}

func (r *TimetableRepository) Delete(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "timetable_entries")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrTimetableNotFound), "Failed to delete timetable entry")
}
