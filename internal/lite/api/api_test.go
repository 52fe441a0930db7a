package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/schoolsphere/internal/lite/config"
	"github.com/yigit/schoolsphere/internal/lite/store"
	"github.com/yigit/schoolsphere/internal/pkg/auth"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type recordingReporter struct {
	errs []error
}

func (r *recordingReporter) Report(_ *http.Request, err error, _ *Principal) {
	r.errs = append(r.errs, err)
}

type rig struct {
	srv      *Server
	mock     sqlmock.Sqlmock
	reporter *recordingReporter
}

func newRig(t *testing.T) *rig {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	reporter := &recordingReporter{}
	srv, err := New(Options{
		Config: &config.Config{
			SecretKey:      "test-secret",
			TokenTTL:       time.Hour,
			LoanDays:       14,
			FinePerDay:     decimal.NewFromInt(1),
			MaxPageSize:    50,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Store:    store.New(sqlx.NewDb(db, "postgres")),
		Logger:   zerolog.Nop(),
		Reporter: reporter,
		Now:      func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return &rig{srv: srv, mock: mock, reporter: reporter}
}

func (r *rig) tokenFor(t *testing.T, role store.Role) string {
	t.Helper()
	signed, err := r.srv.issueToken(&store.User{ID: 4, Username: "u-" + string(role), Role: role})
	require.NoError(t, err)
	return signed
}

func (r *rig) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.srv.ServeHTTP(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["detail"]
}

func userRow(username, hash string, role store.Role, active bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "username", "hashed_password", "first_name", "last_name", "role",
		"is_active", "is_verified", "created_at", "updated_at"}).
		AddRow(int64(4), username+"@school.test", username, hash, "F", "L", string(role), active, false, fixedNow, fixedNow)
}

func TestHome(t *testing.T) {
	r := newRig(t)
	rec := r.do(http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome to SchoolSphere Lite API")
}

func TestToken(t *testing.T) {
	hash, err := auth.HashPassword("s3cretpass")
	require.NoError(t, err)

	t.Run("form login", func(t *testing.T) {
		r := newRig(t)
		r.mock.ExpectQuery(`FROM users WHERE username = \$1`).WithArgs("ada").
			WillReturnRows(userRow("ada", hash, store.RoleTeacher, true))

		form := url.Values{"username": {"ada"}, "password": {"s3cretpass"}}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		rec := httptest.NewRecorder()
		r.srv.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var res tokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, "bearer", res.TokenType)

		p, err := r.srv.parseToken(res.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "ada", p.Subject)
		assert.Equal(t, store.RoleTeacher, p.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		r := newRig(t)
		r.mock.ExpectQuery(`FROM users WHERE username`).WillReturnRows(userRow("ada", hash, store.RoleTeacher, true))

		rec := r.do(http.MethodPost, "/api/v1/auth/token", `{"username":"ada","password":"nope"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
		assert.Equal(t, "Incorrect username or password", detail(t, rec))
	})

	t.Run("unknown user", func(t *testing.T) {
		r := newRig(t)
		r.mock.ExpectQuery(`FROM users WHERE username`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

		rec := r.do(http.MethodPost, "/api/v1/auth/token", `{"username":"ghost","password":"s3cretpass"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
	})
}

func TestRegister(t *testing.T) {
	body := `{"username":"ada","password":"s3cretpass","email":"Ada@School.test","first_name":"Ada","last_name":"L","role":"librarian"}`

	t.Run("created", func(t *testing.T) {
		r := newRig(t)
		r.mock.ExpectQuery(`SELECT EXISTS`).WithArgs("ada", "ada@school.test").
			WillReturnRows(sqlmock.NewRows([]string{"a", "b"}).AddRow(false, false))
		r.mock.ExpectQuery(`INSERT INTO users`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(9), fixedNow, fixedNow))

		rec := r.do(http.MethodPost, "/api/v1/auth/register", body, "")
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "User registered successfully")
	})

	t.Run("duplicate username", func(t *testing.T) {
		r := newRig(t)
		r.mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"a", "b"}).AddRow(true, false))

		rec := r.do(http.MethodPost, "/api/v1/auth/register", body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Username already registered", detail(t, rec))
	})

	t.Run("duplicate email", func(t *testing.T) {
		r := newRig(t)
		r.mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"a", "b"}).AddRow(false, true))

		rec := r.do(http.MethodPost, "/api/v1/auth/register", body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Email already registered", detail(t, rec))
	})

	t.Run("translated validation", func(t *testing.T) {
		r := newRig(t)
		rec := r.do(http.MethodPost, "/api/v1/auth/register",
			`{"username":"ada","password":"short","email":"nope","first_name":"A","last_name":"L","role":"janitor"}`, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)

		fields, ok := detail(t, rec).(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "email must be a valid email address", fields["email"])
		assert.Contains(t, fields["role"], "must be one of admin")
		assert.Contains(t, fields["password"], "at least 8 characters")
	})
}

func TestAuthRequired(t *testing.T) {
	r := newRig(t)

	rec := r.do(http.MethodGet, "/api/v1/students", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))

	rec = r.do(http.MethodGet, "/api/v1/students", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired := *r.srv
	expired.now = func() time.Time { return fixedNow.Add(-2 * time.Hour) }
	stale, err := expired.issueToken(&store.User{ID: 1, Username: "old", Role: store.RoleAdmin})
	require.NoError(t, err)
	rec = r.do(http.MethodGet, "/api/v1/students", "", stale)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListStudentsPaging(t *testing.T) {
	r := newRig(t)
	r.mock.ExpectQuery(regexp.QuoteMeta(`FROM students WHERE class_name = $1 ORDER BY class_name, section, roll_number, id LIMIT 50 OFFSET 10`)).
		WithArgs("10").
		WillReturnRows(sqlmock.NewRows([]string{"id", "admission_number", "class_name"}).AddRow(int64(1), "ADM-1", "10"))

	rec := r.do(http.MethodGet, "/api/v1/students?class_name=10&skip=10&limit=500", "", r.tokenFor(t, store.RoleTeacher))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"admission_number":"ADM-1"`)

	rec = r.do(http.MethodGet, "/api/v1/students?skip=-1", "", r.tokenFor(t, store.RoleTeacher))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStudentWritesNeedAdmin(t *testing.T) {
	r := newRig(t)
	rec := r.do(http.MethodPost, "/api/v1/students", `{"admission_number":"ADM-2","class_name":"9"}`, r.tokenFor(t, store.RoleTeacher))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not enough permissions", detail(t, rec))
}

func TestCreateStudent(t *testing.T) {
	r := newRig(t)
	r.mock.ExpectQuery(`INSERT INTO students`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(3), fixedNow, fixedNow))

	rec := r.do(http.MethodPost, "/api/v1/students", `{"admission_number":"ADM-2","class_name":"9","section":"A"}`, r.tokenFor(t, store.RoleAdmin))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":3`)
}

func TestBookNotFound(t *testing.T) {
	r := newRig(t)
	r.mock.ExpectQuery(`FROM books WHERE id = \$1`).WithArgs(int64(77)).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := r.do(http.MethodGet, "/api/v1/library/books/77", "", r.tokenFor(t, store.RoleStudent))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "record not found", detail(t, rec))

	rec = r.do(http.MethodGet, "/api/v1/library/books/abc", "", r.tokenFor(t, store.RoleStudent))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBookDefaultsAvailability(t *testing.T) {
	r := newRig(t)
	r.mock.ExpectQuery(`INSERT INTO books`).
		WithArgs("Optics", "9780306406157", "Newton", "", "", "", sqlmock.AnyArg(), 3, 3, sqlmock.AnyArg(), "", "", "", store.BookAvailable).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(5), fixedNow, fixedNow))

	rec := r.do(http.MethodPost, "/api/v1/library/books", `{"title":"Optics","isbn":"9780306406157","author":"Newton","copies":3}`, r.tokenFor(t, store.RoleLibrarian))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available_copies":3`)
}

func TestCreateBookRejectsExcessAvailability(t *testing.T) {
	r := newRig(t)
	rec := r.do(http.MethodPost, "/api/v1/library/books",
		`{"title":"Optics","isbn":"9780306406157","author":"Newton","copies":1,"available_copies":2}`, r.tokenFor(t, store.RoleLibrarian))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields, ok := detail(t, rec).(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, fields, "available_copies")
}

func TestSearchNeedsQuery(t *testing.T) {
	r := newRig(t)
	rec := r.do(http.MethodGet, "/api/v1/library/books/search", "", r.tokenFor(t, store.RoleStudent))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIssueUnavailable(t *testing.T) {
	r := newRig(t)
	r.mock.ExpectBegin()
	r.mock.ExpectQuery(`FROM library_members WHERE id = \$1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "membership_type", "card_number", "start_date", "end_date", "max_books", "is_active", "created_at", "updated_at"}).
			AddRow(int64(3), int64(4), "student", "LIB-4", fixedNow, nil, 3, true, fixedNow, fixedNow))
	r.mock.ExpectQuery(`SELECT COUNT`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	r.mock.ExpectQuery(`SELECT available_copies`).WillReturnRows(sqlmock.NewRows([]string{"available_copies"}).AddRow(0))
	r.mock.ExpectRollback()

	rec := r.do(http.MethodPost, "/api/v1/library/circulations/issue", `{"book_id":8,"member_id":3}`, r.tokenFor(t, store.RoleLibrarian))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no copies available", detail(t, rec))
}

func TestCirculationsAreStaffOnly(t *testing.T) {
	r := newRig(t)
	rec := r.do(http.MethodGet, "/api/v1/library/circulations/overdue", "", r.tokenFor(t, store.RoleStudent))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOverdueDaysLate(t *testing.T) {
	loans := withDaysLate([]store.Circulation{{ID: 1, DueDate: fixedNow.AddDate(0, 0, -4)}}, fixedNow)
	require.Len(t, loans, 1)
	assert.Equal(t, 4, loans[0].DaysLate)
}

func TestServerErrorIsReported(t *testing.T) {
	r := newRig(t)
	r.mock.ExpectQuery(`FROM book_categories`).WillReturnError(errors.New("connection reset"))

	rec := r.do(http.MethodGet, "/api/v1/library/categories", "", r.tokenFor(t, store.RoleStudent))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", detail(t, rec))
	require.Len(t, r.reporter.errs, 1)
	assert.Contains(t, r.reporter.errs[0].Error(), "connection reset")
}
