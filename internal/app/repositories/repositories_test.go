package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
	"github.com/yigit/schoolsphere/internal/tenancy"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock, context.Context) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := tenancy.WithTenant(context.Background(), &tenancy.Tenant{SchoolID: 1, SchemaName: "school_a", IsApproved: true})
	return db, mock, ctx
}

func q(sql string) string {
	return regexp.QuoteMeta(sql)
}

func TestConstraintError(t *testing.T) {
	named := map[string]error{"books_isbn_key": apperrors.ErrISBNExists}

	tests := []struct {
		name  string
		err   error
		check func(t *testing.T, got error)
	}{
		{"nil", nil, func(t *testing.T, got error) { assert.NoError(t, got) }},
		{"named constraint", &pgconn.PgError{Code: "23505", ConstraintName: "books_isbn_key"}, func(t *testing.T, got error) {
			assert.ErrorIs(t, got, apperrors.ErrISBNExists)
		}},
		{"other unique", &pgconn.PgError{Code: "23505", ConstraintName: "other_key"}, func(t *testing.T, got error) {
			assert.ErrorIs(t, got, apperrors.ErrConflict)
		}},
		{"foreign key", &pgconn.PgError{Code: "23503", ConstraintName: "sections_class_id_fkey"}, func(t *testing.T, got error) {
			assert.ErrorIs(t, got, apperrors.ErrValidationFailed)
		}},
		{"unrelated", errors.New("connection reset"), func(t *testing.T, got error) {
			assert.EqualError(t, got, "connection reset")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, constraintError(tt.err, named))
		})
	}
}

func TestScopes(t *testing.T) {
	_, _, ctx := newMock(t)
	r := &baseRepository{}

	assert.Nil(t, r.studentScope(ctx, models.Scope{All: true}, "student_id"))

	sqlStr, args, err := r.studentScope(ctx, models.Scope{StudentID: 4}, "student_id").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "student_id = ?", sqlStr)
	assert.Equal(t, []interface{}{int64(4)}, args)

	sqlStr, args, err = r.studentScope(ctx, models.Scope{ParentID: 9}, "f.student_id").ToSql()
	require.NoError(t, err)
	assert.Equal(t, `f.student_id IN (SELECT user_id FROM "school_a"."student_profiles" WHERE parent_id = ?)`, sqlStr)
	assert.Equal(t, []interface{}{int64(9)}, args)

	sqlStr, _, err = r.recordScope(ctx, models.Scope{TeacherID: 2}, "student_id", "section_id").ToSql()
	require.NoError(t, err)
	assert.Equal(t, `section_id IN (SELECT id FROM "school_a"."sections" WHERE teacher_id = ?)`, sqlStr)

	sqlStr, _, err = r.sectionScope(ctx, models.Scope{}, "section_id").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "1 = 0", sqlStr)
}

func TestSchoolRepository_GetByDomain(t *testing.T) {
	db, mock, ctx := newMock(t)
	repo := NewSchoolRepository(db)

	mock.ExpectQuery(q(`FROM "public"."schools" s JOIN "public"."domains" d ON d.school_id = s.id WHERE d.domain = $1`)).
		WithArgs("unknown.example.com").
		WillReturnRows(sqlmock.NewRows(schoolColumns))

	school, err := repo.GetByDomain(ctx, "unknown.example.com")
	assert.Nil(t, school)
	assert.ErrorIs(t, err, apperrors.ErrTenantNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicateUsername(t *testing.T) {
	db, mock, ctx := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(q(`INSERT INTO "school_a"."users"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	err := repo.Create(ctx, &models.User{Username: "jdoe", Email: "j@x.io", RoleType: models.RoleStudent})
	assert.ErrorIs(t, err, apperrors.ErrUsernameAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepository_GetByIDScopedToTeacher(t *testing.T) {
	db, mock, ctx := newMock(t)
	repo := NewSectionRepository(db)
	now := time.Now()

	mock.ExpectQuery(q(`FROM "school_a"."sections" s WHERE s.id = $1 AND s.id IN (SELECT id FROM "school_a"."sections" WHERE teacher_id = $2)`)).
		WithArgs(int64(5), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "class_id", "teacher_id", "academic_year_id", "student_count", "created_at", "updated_at"}).
			AddRow(5, "A", 1, 7, 2, 24, now, now))

	section, err := repo.GetByID(ctx, 5, models.Scope{TeacherID: 7})
	require.NoError(t, err)
	assert.Equal(t, "A", section.Name)
	assert.Equal(t, 24, section.StudentCount)
	require.NotNil(t, section.TeacherID)
	assert.Equal(t, int64(7), *section.TeacherID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepository_GetByIDOutsideScope(t *testing.T) {
	db, mock, ctx := newMock(t)
	repo := NewSectionRepository(db)

	mock.ExpectQuery(q(`FROM "school_a"."sections" s WHERE s.id = $1 AND s.id IN (SELECT section_id FROM "school_a"."section_students" WHERE student_id = $2)`)).
		WithArgs(int64(5), int64(30)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(ctx, 5, models.Scope{StudentID: 30})
	assert.ErrorIs(t, err, apperrors.ErrSectionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepository_Affiliation(t *testing.T) {
	db, mock, ctx := newMock(t)
	repo := NewSectionRepository(db)

	mock.ExpectQuery(q(`SELECT s.id, s.class_id FROM "school_a"."sections" s JOIN "school_a"."section_students" ss ON ss.section_id = s.id WHERE ss.student_id = $1`)).
		WithArgs(int64(30)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_id"}).AddRow(2, 1).AddRow(3, 1))

	classes, sections, err := repo.Affiliation(ctx, 30, models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, classes)
	assert.Equal(t, []int64{2, 3}, sections)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepository_AddStudentsSkipsEnrolled(t *testing.T) {
	db, mock, ctx := newMock(t)
	repo := NewSectionRepository(db)

	mock.ExpectExec(q(`INSERT INTO "school_a"."section_students" (section_id,student_id) VALUES ($1,$2),($3,$4) ON CONFLICT DO NOTHING`)).
		WithArgs(int64(5), int64(30), int64(5), int64(31)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AddStudents(ctx, 5, []int64{30, 31}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepository_Overlaps(t *testing.T) {
	db, mock, ctx := newMock(t)
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "school_a"\."timetable_entries" WHERE .*start_time < \$4::time AND end_time > \$5::time`).
		WithArgs(int64(3), 2, int64(0), "09:00", "08:00").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	overlap, err := repo.Overlaps(ctx, &models.TimetableEntry{SectionID: 3, Weekday: 2, StartTime: "08:00", EndTime: "09:00"})
	require.NoError(t, err)
	assert.True(t, overlap)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_CreateDuplicate(t *testing.T) {
	db, mock, ctx := newMock(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(q(`INSERT INTO "school_a"."attendance"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "attendance_student_section_date_key"})

	err := repo.Create(ctx, &models.Attendance{StudentID: 30, SectionID: 5, Date: models.NewDate(2024, 9, 2)})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateAttendance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepository_ListCountsSubmissions(t *testing.T) {
	db, mock, ctx := newMock(t)
	repo := NewAssignmentRepository(db)
	due := time.Now().Add(48 * time.Hour)

	mock.ExpectQuery(q(`(SELECT COUNT(*) FROM "school_a"."assignment_submissions" sub WHERE sub.assignment_id = a.id)`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "subject_id", "section_id", "due_date", "file_key", "submission_count", "created_at", "updated_at", "count"}).
			AddRow(1, "Essay", "", 2, 5, due, "", 3, due, due, 1))

	items, total, err := repo.List(ctx, models.AcademicFilter{SectionID: 5, Scope: models.Scope{All: true}}, helpers.PageRequest{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].SubmissionCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
