package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yigit/schoolsphere/internal/app/auth"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/app/services"
	"github.com/yigit/schoolsphere/internal/app/services/mocks"
	"github.com/yigit/schoolsphere/internal/middleware"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
	"github.com/yigit/schoolsphere/internal/tenancy"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.RegisterValidators(); err != nil {
		panic(err)
	}
}

// as binds a test school and an actor the way the auth middleware would.
func as(role models.RoleType, userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := tenancy.WithTenant(c.Request.Context(), &tenancy.Tenant{SchoolID: 1, SchemaName: "school_green", IsApproved: true})
		ctx = auth.WithActor(ctx, &auth.Actor{UserID: userID, Username: "u", Role: role, Schema: "school_green"})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

type libraryRig struct {
	books  *mocks.MockBookStore
	users  *mocks.MockUserStore
	router *gin.Engine
}

func newLibraryRig(role models.RoleType) *libraryRig {
	rig := &libraryRig{books: new(mocks.MockBookStore), users: new(mocks.MockUserStore)}
	svc := services.NewLibraryService(rig.books, rig.users, &mocks.InlineTransactor{}, services.LibraryConfig{
		LoanDays:   14,
		FinePerDay: decimal.RequireFromString("1.00"),
	}, zerolog.Nop())
	c := NewLibraryController(svc, zerolog.Nop())

	r := gin.New()
	g := r.Group("/library", as(role, 3))
	g.GET("/books", c.ListBooks)
	g.GET("/books/:id", c.GetBook)
	g.POST("/books", c.CreateBook)
	g.DELETE("/books/:id", c.DeleteBook)
	rig.router = r
	return rig
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorCode {
	t.Helper()
	var res dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.NotNil(t, res.Error)
	return res.Error.Code
}

func TestListBooksPaginates(t *testing.T) {
	rig := newLibraryRig(models.RoleStudent)
	rig.books.On("List", mock.Anything, models.BookFilter{Search: "optics"}, helpers.PageRequest{Page: 2, Size: 5}).
		Return([]*models.Book{{ID: 7, Title: "Optics"}}, int64(6), nil)

	w := do(rig.router, http.MethodGet, "/library/books?q=optics&page=2&size=5", "")
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Success bool `json:"success"`
		Data    struct {
			Items      []models.Book      `json:"items"`
			Pagination dto.PaginationInfo `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Len(t, res.Data.Items, 1)
	assert.Equal(t, dto.PaginationInfo{CurrentPage: 2, TotalPages: 2, PageSize: 5, TotalItems: 6}, res.Data.Pagination)
}

func TestListBooksEmptyIsArray(t *testing.T) {
	rig := newLibraryRig(models.RoleStudent)
	rig.books.On("List", mock.Anything, mock.Anything, mock.Anything).Return([]*models.Book(nil), int64(0), nil)

	w := do(rig.router, http.MethodGet, "/library/books", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"items":[]`)
}

func TestGetBookErrors(t *testing.T) {
	rig := newLibraryRig(models.RoleStudent)
	rig.books.On("GetByID", mock.Anything, int64(99)).Return(nil, apperrors.ErrBookNotFound)

	tests := []struct {
		name   string
		path   string
		status int
		code   dto.ErrorCode
	}{
		{"malformed id", "/library/books/abc", http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"zero id", "/library/books/0", http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"missing", "/library/books/99", http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(rig.router, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestCreateBook(t *testing.T) {
	t.Run("bad isbn", func(t *testing.T) {
		rig := newLibraryRig(models.RoleLibrarian)
		w := do(rig.router, http.MethodPost, "/library/books", `{"title":"Optics","author":"Newton","isbn":"123","copies":1}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrorCodeValidationFailed, errorCode(t, w))
		rig.books.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("created", func(t *testing.T) {
		rig := newLibraryRig(models.RoleLibrarian)
		rig.books.On("Create", mock.Anything, mock.AnythingOfType("*models.Book")).Return(nil)

		w := do(rig.router, http.MethodPost, "/library/books", `{"title":"Optics","author":"Newton","isbn":"9780306406157","copies":2}`)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"availableCopies":2`)
	})

	t.Run("students cannot catalogue", func(t *testing.T) {
		rig := newLibraryRig(models.RoleStudent)
		w := do(rig.router, http.MethodPost, "/library/books", `{"title":"Optics","author":"Newton","isbn":"9780306406157","copies":2}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestDeleteBookWithOutstandingCopies(t *testing.T) {
	rig := newLibraryRig(models.RoleLibrarian)
	rig.books.On("OutstandingCount", mock.Anything, int64(4)).Return(1, nil)

	w := do(rig.router, http.MethodDelete, "/library/books/4", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	rig.books.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteBookMessage(t *testing.T) {
	rig := newLibraryRig(models.RoleLibrarian)
	rig.books.On("OutstandingCount", mock.Anything, int64(4)).Return(0, nil)
	rig.books.On("Delete", mock.Anything, int64(4)).Return(nil)

	w := do(rig.router, http.MethodDelete, "/library/books/4", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"Book deleted"`)
}

func TestTimetableWeekdayFilter(t *testing.T) {
	svc := services.NewAcademicService(services.AcademicStores{}, nil, nil, &mocks.InlineTransactor{}, zerolog.Nop())
	c := NewAcademicController(svc, zerolog.Nop())
	r := gin.New()
	r.GET("/timetable", as(models.RoleTeacher, 2), c.ListTimetable)

	w := do(r, http.MethodGet, "/timetable?weekday=9", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "weekday must be between 0 and 6")

	w = do(r, http.MethodGet, "/timetable?from=31-01-2025", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryHelpers(t *testing.T) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/?sectionId=5&bad=x&neg=-1&isRead=true&on=2025-01-31", nil)

	assert.Equal(t, int64(5), queryID(ctx, "sectionId"))
	assert.Zero(t, queryID(ctx, "bad"))
	assert.Zero(t, queryID(ctx, "neg"))
	require.NotNil(t, queryBool(ctx, "isRead"))
	assert.True(t, *queryBool(ctx, "isRead"))
	assert.Nil(t, queryBool(ctx, "missing"))

	d, err := queryDate(ctx, "on")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-31", d.Format("2006-01-02"))
}

func TestRemovePassesID(t *testing.T) {
	var got int64
	r := gin.New()
	r.DELETE("/things/:id", func(c *gin.Context) {
		remove(c, "thing", func(_ context.Context, id int64) error {
			got = id
			return nil
		})
	})

	w := do(r, http.MethodDelete, "/things/12", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(12), got)
}
