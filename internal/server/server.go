package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yigit/schoolsphere/internal/bootstrap"
	"github.com/yigit/schoolsphere/internal/config"
	"github.com/yigit/schoolsphere/internal/db"
	"github.com/yigit/schoolsphere/internal/pkg/telemetry"
)

// ShutdownTimeout bounds the graceful stop of in-flight requests.
const ShutdownTimeout = 10 * time.Second

// Server holds the state for the HTTP server.
type Server struct {
	config   *config.Config
	handler  http.Handler
	database *db.PostgresDB
	tracing  telemetry.ShutdownFunc
	stop     context.CancelFunc
	logger   zerolog.Logger
	http     *http.Server
}

// NewServer creates and initializes a new server instance by calling bootstrap functions.
func NewServer(configPath string) (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	ctx := context.Background()
	tracing, err := bootstrap.SetupTelemetry(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup telemetry: %w", err)
	}

	database, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		_ = tracing(ctx)
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	deps, err := bootstrap.BuildDependencies(ctx, cfg, database, lgr)
	if err != nil {
		database.Close()
		_ = tracing(ctx)
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	background, stop := context.WithCancel(context.Background())
	deps.StartBackground(background)

	router := bootstrap.SetupRouter(cfg, deps, database, lgr)

	return &Server{
		config:   cfg,
		handler:  otelhttp.NewHandler(router, cfg.Telemetry.ServiceName),
		database: database,
		tracing:  tracing,
		stop:     stop,
		logger:   lgr,
	}, nil
}

// Run starts the HTTP server and handles graceful shutdown.
func (s *Server) Run() error {
	s.logger.Info().Str("port", s.config.Server.Port).Msg("Starting server...")

	s.http = &http.Server{
		Addr:              ":" + s.config.Server.Port,
		Handler:           s.handler,
		ReadTimeout:       s.config.ReadTimeout(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.config.WriteTimeout(),
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		serverErrors <- s.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			_ = s.Shutdown(context.Background())
			return fmt.Errorf("error starting server: %w", err)
		}
	case sig := <-osSignals:
		s.logger.Info().Str("signal", sig.String()).Msg("Received OS signal, initiating shutdown...")
	}

	return s.Shutdown(context.Background())
}

// Shutdown stops accepting requests, ends the hub and background jobs, then
// flushes traces and closes the database.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()

	var errs []error

	if s.http != nil {
		s.logger.Info().Msg("Shutting down HTTP server...")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			errs = append(errs, err)
		}
	}

	if s.stop != nil {
		s.stop()
	}

	if s.tracing != nil {
		if err := s.tracing(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Tracer shutdown error")
			errs = append(errs, err)
		}
	}

	if s.database != nil {
		s.logger.Info().Msg("Closing database connection pool...")
		s.database.Close()
	}

	s.logger.Info().Msg("Server shutdown process complete.")
	return errors.Join(errs...)
}
