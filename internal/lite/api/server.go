// Package api serves the single-school HTTP API on echo.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/yigit/schoolsphere/internal/lite/config"
	"github.com/yigit/schoolsphere/internal/lite/store"
)

const (
	apiName    = "SchoolSphere Lite API"
	apiVersion = "1.0.0"
)

// Options configures New. Reporter defaults to a no-op and Now to time.Now.
type Options struct {
	Config   *config.Config
	Store    *store.Store
	Logger   zerolog.Logger
	Reporter Reporter
	Now      func() time.Time
}

// Server owns the echo instance and its dependencies.
type Server struct {
	echo      *echo.Echo
	cfg       *config.Config
	store     *store.Store
	logger    zerolog.Logger
	reporter  Reporter
	validator *requestValidator
	now       func() time.Time
}

// New wires middleware and routes.
func New(opts Options) (*Server, error) {
	v, err := newValidator()
	if err != nil {
		return nil, err
	}
	s := &Server{
		echo:      echo.New(),
		cfg:       opts.Config,
		store:     opts.Store,
		logger:    opts.Logger,
		reporter:  opts.Reporter,
		validator: v,
		now:       opts.Now,
	}
	if s.reporter == nil {
		s.reporter = nopReporter{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.setup()
	return s, nil
}

func (s *Server) setup() {
	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Debug = s.cfg.Debug
	e.Validator = s.validator
	e.HTTPErrorHandler = s.errorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := s.logger.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = s.logger.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("requestId", v.RequestID).
				Msg("Request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     s.cfg.AllowedOrigins,
		AllowCredentials: true,
	}))

	e.GET("/", s.home)
	e.GET("/health", s.health)

	v1 := e.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/token", s.token)
	authGroup.POST("/register", s.register)
	authGroup.GET("/me", s.me, s.requireAuth)

	admin := requireRole(store.RoleAdmin)
	staff := requireRole(store.RoleAdmin, store.RoleLibrarian)

	students := v1.Group("/students", s.requireAuth)
	students.GET("", s.listStudents)
	students.POST("", s.createStudent, admin)
	students.GET("/admission/:number", s.studentByAdmission)
	students.GET("/:id", s.getStudent)
	students.PUT("/:id", s.updateStudent, admin)
	students.DELETE("/:id", s.deleteStudent, admin)

	library := v1.Group("/library", s.requireAuth)

	library.GET("/books", s.listBooks)
	library.GET("/books/search", s.searchBooks)
	library.GET("/books/isbn/:isbn", s.bookByISBN)
	library.GET("/books/category/:category", s.booksByCategory)
	library.GET("/books/:id", s.getBook)
	library.POST("/books", s.createBook, staff)
	library.PUT("/books/:id", s.updateBook, staff)
	library.DELETE("/books/:id", s.deleteBook, staff)

	library.GET("/categories", s.listCategories)
	library.GET("/categories/roots", s.rootCategories)
	library.GET("/categories/:id", s.getCategory)
	library.GET("/categories/:id/subcategories", s.subcategories)
	library.POST("/categories", s.createCategory, staff)
	library.PUT("/categories/:id", s.updateCategory, staff)
	library.DELETE("/categories/:id", s.deleteCategory, staff)

	library.GET("/members", s.listMembers, staff)
	library.GET("/members/active", s.activeMembers, staff)
	library.GET("/members/card/:card", s.memberByCard, staff)
	library.GET("/members/user/:userId", s.memberByUser, staff)
	library.GET("/members/:id", s.getMember, staff)
	library.POST("/members", s.createMember, staff)
	library.PUT("/members/:id", s.updateMember, staff)
	library.DELETE("/members/:id", s.deleteMember, staff)

	library.GET("/circulations", s.listCirculations, staff)
	library.GET("/circulations/overdue", s.overdueCirculations, staff)
	library.GET("/circulations/member/:memberId/active", s.activeCirculations, staff)
	library.GET("/circulations/:id", s.getCirculation, staff)
	library.POST("/circulations/issue", s.issueBook, staff)
	library.POST("/circulations/:id/return", s.returnBook, staff)
}

func (s *Server) home(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Welcome to " + apiName,
		"version": apiVersion,
	})
}

func (s *Server) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable").SetInternal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// ServeHTTP lets tests drive the router directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start blocks serving on the configured address.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.cfg.Address).Msg("Lite API listening")
	return s.echo.Start(s.cfg.Address)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// page reads skip/limit, capping limit at the configured maximum.
func (s *Server) page(c echo.Context) (store.Page, error) {
	p := store.Page{Limit: 100}
	if raw := c.QueryParam("skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return p, echo.NewHTTPError(http.StatusBadRequest, "skip must be a non-negative integer")
		}
		p.Skip = n
	}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		p.Limit = n
	}
	if s.cfg.MaxPageSize > 0 && p.Limit > s.cfg.MaxPageSize {
		p.Limit = s.cfg.MaxPageSize
	}
	return p, nil
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}

// bindValid binds the body into dst and validates it.
func bindValid(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return err
	}
	return c.Validate(dst)
}
