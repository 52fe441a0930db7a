package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appauth "github.com/yigit/schoolsphere/internal/app/auth"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/auth"
	"github.com/yigit/schoolsphere/internal/tenancy"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResolver map[string]*tenancy.Tenant

func (r stubResolver) ResolveTenant(_ context.Context, host string) (*tenancy.Tenant, error) {
	if t, ok := r[host]; ok {
		return t, nil
	}
	return nil, apperrors.ErrTenantNotFound
}

var resolver = stubResolver{
	"localhost":       tenancy.Public(),
	"green.localhost": {SchoolID: 1, SchemaName: "school_green", SchoolName: "Green", IsApproved: true},
	"blue.localhost":  {SchoolID: 2, SchemaName: "school_blue", SchoolName: "Blue", IsApproved: true},
	"new.localhost":   {SchoolID: 3, SchemaName: "school_new", SchoolName: "New"},
}

func jwtService(ttl time.Duration) *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{SecretKey: "secret", AccessTokenExp: ttl, RefreshTokenExp: time.Hour, TokenIssuer: "test"})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body
}

func schoolRouter(tokens *auth.JWTService) *gin.Engine {
	r := gin.New()
	r.Use(ResolveTenant(resolver))
	m := NewAuthMiddleware(tokens)
	api := r.Group("/api", TenantOnly(), m.JWTAuth())
	api.GET("/me", func(c *gin.Context) {
		a, _ := appauth.ActorFrom(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user": a.UserID, "schema": tenancy.Schema(c.Request.Context())})
	})
	api.GET("/books", m.RoleRequired(models.RoleLibrarian), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func serve(r http.Handler, host, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Host = host
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTenantResolution(t *testing.T) {
	tokens := jwtService(time.Hour)
	green, err := tokens.GenerateAccessToken(auth.Subject{UserID: 4, Role: "teacher", Schema: "school_green"})
	require.NoError(t, err)
	r := schoolRouter(tokens)

	tests := []struct {
		name   string
		host   string
		token  string
		status int
		code   dto.ErrorCode
	}{
		{"unknown host", "nowhere.example", green, http.StatusNotFound, dto.ErrorCodeTenantNotFound},
		{"public host", "localhost", green, http.StatusNotFound, dto.ErrorCodeTenantRequired},
		{"unapproved school", "new.localhost", green, http.StatusForbidden, dto.ErrorCodeSchoolNotApproved},
		{"token of another school", "blue.localhost", green, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
		{"no token", "green.localhost", "", http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
		{"garbage token", "green.localhost", "a.b.c", http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, tt.host, "/api/me", tt.token)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Error.Code)
		})
	}

	t.Run("bound school", func(t *testing.T) {
		w := serve(r, "green.localhost", "/api/me", green)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user":4,"schema":"school_green"}`, w.Body.String())
	})
}

func TestJWTAuthExpired(t *testing.T) {
	tokens := jwtService(-time.Minute)
	expired, err := tokens.GenerateAccessToken(auth.Subject{UserID: 4, Role: "teacher", Schema: "school_green"})
	require.NoError(t, err)

	w := serve(schoolRouter(tokens), "green.localhost", "/api/me", expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrorCodeExpiredToken, decodeError(t, w).Error.Code)
}

func TestJWTAuthQueryToken(t *testing.T) {
	tokens := jwtService(time.Hour)
	token, err := tokens.GenerateAccessToken(auth.Subject{UserID: 9, Role: "student", Schema: "school_green"})
	require.NoError(t, err)

	w := serve(schoolRouter(tokens), "green.localhost", "/api/me?token="+token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoleRequired(t *testing.T) {
	tokens := jwtService(time.Hour)
	r := schoolRouter(tokens)

	teacher, _ := tokens.GenerateAccessToken(auth.Subject{UserID: 4, Role: "teacher", Schema: "school_green"})
	librarian, _ := tokens.GenerateAccessToken(auth.Subject{UserID: 5, Role: "librarian", Schema: "school_green"})

	w := serve(r, "green.localhost", "/api/books", teacher)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrorCodeForbidden, decodeError(t, w).Error.Code)

	w = serve(r, "green.localhost", "/api/books", librarian)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPublicOnly(t *testing.T) {
	r := gin.New()
	r.Use(ResolveTenant(resolver))
	r.GET("/schools", PublicOnly(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, "localhost", "/schools", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, "green.localhost", "/schools", "").Code)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   dto.ErrorCode
	}{
		{apperrors.ErrBookNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{fmt.Errorf("loading: %w", apperrors.ErrStudentNotFound), http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{apperrors.ErrTenantNotFound, http.StatusNotFound, dto.ErrorCodeTenantNotFound},
		{apperrors.ErrFreeTierLimitExceeded, http.StatusBadRequest, dto.ErrorCodeFreeTierLimit},
		{apperrors.NewForbiddenError("no"), http.StatusForbidden, dto.ErrorCodeForbidden},
		{apperrors.NewValidationError("isbn", "bad"), http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{apperrors.ErrMarksExceedTotal, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{apperrors.ErrPaymentExceedsBalance, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{apperrors.ErrTimetableOverlap, http.StatusConflict, dto.ErrorCodeConflict},
		{apperrors.ErrAlreadyReturned, http.StatusConflict, dto.ErrorCodeConflict},
		{apperrors.ErrISBNExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound},
		{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, code := Classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestHandleAPIErrorEnvelope(t *testing.T) {
	r := gin.New()
	r.GET("/field", func(c *gin.Context) { HandleAPIError(c, apperrors.NewValidationError("isbn", "isbn must have 13 digits")) })
	r.GET("/boom", func(c *gin.Context) { HandleAPIError(c, errors.New("pq: connection refused")) })

	body := decodeError(t, serve(r, "", "/field", ""))
	assert.False(t, body.Success)
	assert.Equal(t, "isbn", body.Error.Field)
	assert.Equal(t, "isbn must have 13 digits", body.Error.Message)

	w := serve(r, "", "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeError(t, w).Error.Message)
}

func TestHandleBindError(t *testing.T) {
	require.NoError(t, RegisterValidators())
	type body struct {
		ISBN   string `json:"isbn" binding:"required,isbn13"`
		Copies int    `json:"copies" binding:"gt=0"`
	}
	r := gin.New()
	r.POST("/books", func(c *gin.Context) {
		var b body
		if err := c.ShouldBindJSON(&b); err != nil {
			HandleBindError(c, err)
			return
		}
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"isbn":"123","copies":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	res := decodeError(t, w)
	assert.Equal(t, "isbn", res.Error.Field)
	assert.Equal(t, "isbn must be a 13 digit ISBN", res.Error.Message)
}

func TestRequestIDAndCORS(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), CORS([]string{"https://app.example"}), AccessLog(zerolog.Nop()))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(m.Handler())
	r.GET("/books/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, "", "/books/1", "")
	serve(r, "", "/books/2", "")
	serve(r, "", "/missing", "")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requests.WithLabelValues("GET", "/books/:id", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))

	_, err = NewMetrics(reg)
	assert.Error(t, err)
}
