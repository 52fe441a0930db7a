package store

import (
	"context"
	"database/sql/driver"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return New(sqlx.NewDb(db, "postgres")), mock
}

func columns(list string) []string {
	parts := strings.Split(list, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

var (
	now   = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	today = day(now)
)

func memberRow(id int64, maxBooks int, active bool) *sqlmock.Rows {
	return sqlmock.NewRows(columns(memberColumns)).
		AddRow(id, int64(7), "student", "LIB-7", today.AddDate(0, -1, 0), nil, maxBooks, active, now, now)
}

func TestUserCreate(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("ada@school.test", "ada", "hash", "Ada", "L", RoleTeacher, true, false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(5), now, now))

	u := &User{Email: "ada@school.test", Username: "ada", HashedPassword: "hash", FirstName: "Ada", LastName: "L", Role: RoleTeacher, IsActive: true}
	require.NoError(t, s.Users.Create(context.Background(), u))
	assert.Equal(t, int64(5), u.ID)
}

func TestUserCreateDuplicate(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "users_username_key"})

	err := s.Users.Create(context.Background(), &User{Username: "ada", Role: RoleAdmin})
	assert.Equal(t, ErrDuplicate, errors.Cause(err))
	assert.Contains(t, err.Error(), "users_username_key")
}

func TestUserTaken(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("ada", "ADA@school.test").
		WillReturnRows(sqlmock.NewRows([]string{"a", "b"}).AddRow(false, true))

	nameTaken, emailTaken, err := s.Users.Taken(context.Background(), "ada", "ADA@school.test")
	require.NoError(t, err)
	assert.False(t, nameTaken)
	assert.True(t, emailTaken)
}

func TestUserGetByUsernameMissing(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(`FROM users WHERE username = \$1`).WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(columns(userColumns)))

	_, err := s.Users.GetByUsername(context.Background(), "ghost")
	assert.Equal(t, ErrNotFound, errors.Cause(err))
}

func TestStudentListFilters(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM students WHERE class_name = $1 AND section = $2 ORDER BY class_name, section, roll_number, id LIMIT 20 OFFSET 40`)).
		WithArgs("10", "B").
		WillReturnRows(sqlmock.NewRows(columns(studentColumns)))

	students, err := s.Students.List(context.Background(), StudentFilter{ClassName: "10", Section: "B"}, Page{Skip: 40, Limit: 20})
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
}

func TestBookSearch(t *testing.T) {
	s, mock := newMock(t)
	row := []driver.Value{int64(1), "Optics", "9780306406157", "Newton", "", "science", "", nil, 3, 2, "12.50", "", "", "", "available", now, now}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM books WHERE category = $1 AND (title ILIKE $2 OR author ILIKE $3 OR isbn ILIKE $4) ORDER BY title, id LIMIT 100 OFFSET 0`)).
		WithArgs("science", "%opt%", "%opt%", "%opt%").
		WillReturnRows(sqlmock.NewRows(columns(bookColumns)).AddRow(row...))

	books, err := s.Books.List(context.Background(), BookFilter{Category: "science", Search: "opt"}, Page{})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Optics", books[0].Title)
	assert.False(t, books[0].PublicationYear.Valid)
	assert.True(t, decimal.RequireFromString("12.5").Equal(books[0].Price))
}

func TestDeleteMissing(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM books WHERE id = \$1`).WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Books.Delete(context.Background(), 9)
	assert.Equal(t, ErrNotFound, errors.Cause(err))
}

func TestDeleteReferenced(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM books`).WillReturnError(&pq.Error{Code: foreignKeyViolation})

	err := s.Books.Delete(context.Background(), 9)
	assert.Equal(t, ErrInUse, errors.Cause(err))
}

func TestCategoryRoots(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(`WHERE parent_id IS NULL ORDER BY name LIMIT \$1 OFFSET \$2`).WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(columns(categoryColumns)).AddRow(int64(1), "Science", "", nil, now, now))

	roots, err := s.Categories.Roots(context.Background(), Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.False(t, roots[0].ParentID.Valid)
}

func TestIssue(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM library_members WHERE id = \$1 FOR UPDATE`).WithArgs(int64(3)).WillReturnRows(memberRow(3, 2, true))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM book_circulations`).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT available_copies FROM books WHERE id = \$1 FOR UPDATE`).WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"available_copies"}).AddRow(1))
	mock.ExpectExec(`UPDATE books SET available_copies = available_copies - 1`).WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO book_circulations`).
		WithArgs(int64(8), int64(3), today, today.AddDate(0, 0, 14), decimal.Zero, CirculationIssued, "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))
	mock.ExpectCommit()

	c, err := s.Circulations.Issue(context.Background(), IssueRequest{BookID: 8, MemberID: 3, Today: now, LoanDays: 14})
	require.NoError(t, err)
	assert.Equal(t, int64(11), c.ID)
	assert.Equal(t, today.AddDate(0, 0, 14), c.DueDate)
}

func TestIssueRefusals(t *testing.T) {
	t.Run("no copies", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM library_members`).WillReturnRows(memberRow(3, 2, true))
		mock.ExpectQuery(`SELECT COUNT`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT available_copies`).WillReturnRows(sqlmock.NewRows([]string{"available_copies"}).AddRow(0))
		mock.ExpectRollback()

		_, err := s.Circulations.Issue(context.Background(), IssueRequest{BookID: 8, MemberID: 3, Today: now, LoanDays: 14})
		assert.Equal(t, ErrUnavailable, errors.Cause(err))
	})

	t.Run("loan limit", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM library_members`).WillReturnRows(memberRow(3, 2, true))
		mock.ExpectQuery(`SELECT COUNT`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectRollback()

		_, err := s.Circulations.Issue(context.Background(), IssueRequest{BookID: 8, MemberID: 3, Today: now, LoanDays: 14})
		assert.Equal(t, ErrLoanLimit, errors.Cause(err))
	})

	t.Run("inactive member", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM library_members`).WillReturnRows(memberRow(3, 2, false))
		mock.ExpectRollback()

		_, err := s.Circulations.Issue(context.Background(), IssueRequest{BookID: 8, MemberID: 3, Today: now, LoanDays: 14})
		assert.Equal(t, ErrInactive, errors.Cause(err))
	})
}

func TestReturnChargesFine(t *testing.T) {
	s, mock := newMock(t)
	due := today.AddDate(0, 0, -3)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM book_circulations WHERE id = \$1 FOR UPDATE`).WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(columns(circulationColumns)).
			AddRow(int64(11), int64(8), int64(3), due.AddDate(0, 0, -14), due, nil, "0", "issued", "", now, now))
	mock.ExpectQuery(`UPDATE book_circulations SET return_date`).
		WithArgs(int64(11), sqlmock.AnyArg(), decimal.RequireFromString("4.5"), CirculationReturned).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
	mock.ExpectExec(`LEAST\(available_copies \+ 1, copies\)`).WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, err := s.Circulations.Return(context.Background(), 11, now, decimal.RequireFromString("1.5"))
	require.NoError(t, err)
	assert.True(t, c.ReturnDate.Valid)
	assert.Equal(t, CirculationReturned, c.Status)
	assert.Equal(t, "4.5", c.FineAmount.String())
}

func TestReturnTwice(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM book_circulations WHERE id = \$1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(columns(circulationColumns)).
			AddRow(int64(11), int64(8), int64(3), today, today, today, "0", "returned", "", now, now))
	mock.ExpectRollback()

	_, err := s.Circulations.Return(context.Background(), 11, now, decimal.NewFromInt(1))
	assert.Equal(t, ErrReturned, errors.Cause(err))
}

func TestOverdueUsesToday(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(`WHERE return_date IS NULL AND due_date < \$1`).WithArgs(today).
		WillReturnRows(sqlmock.NewRows(columns(circulationColumns)))

	out, err := s.Circulations.Overdue(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFine(t *testing.T) {
	rate := decimal.RequireFromString("2.00")
	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, Fine(due, due, rate).IsZero())
	assert.True(t, Fine(due, due.AddDate(0, 0, -2), rate).IsZero())
	assert.Equal(t, "10", Fine(due, due.Add(5*24*time.Hour+3*time.Hour), rate).String())
}
