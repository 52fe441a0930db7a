// Command liteapi runs the single-school SchoolSphere API.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/yigit/schoolsphere/internal/lite/api"
	"github.com/yigit/schoolsphere/internal/lite/config"
	"github.com/yigit/schoolsphere/internal/lite/store"
	"github.com/yigit/schoolsphere/internal/pkg/logger"
)

func main() {
	envDir := flag.String("env-dir", "configs", "directory holding .env.<env> files")
	migrate := flag.Bool("migrate", true, "apply pending migrations on start")
	flag.Parse()

	cfg, err := config.Load(*envDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load lite configuration")
	}

	level := "info"
	if cfg.Debug {
		level = "debug"
	}
	logger.Configure(logger.Config{
		Level:   logger.ParseLevel(level),
		Pretty:  !cfg.Production(),
		Output:  os.Stdout,
		Service: "schoolsphere-lite",
	})
	lgr := logger.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		lgr.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if *migrate {
		if err := store.Migrate(ctx, db.DB); err != nil {
			lgr.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	host, _ := os.Hostname()
	reporter := api.NewRollbarReporter(api.RollbarConfig{
		Token:       cfg.RollbarToken,
		Environment: cfg.Env,
		CodeVersion: cfg.CodeVersion,
		ServerHost:  host,
	}, lgr)
	defer api.CloseReporter()

	srv, err := api.New(api.Options{
		Config:   cfg,
		Store:    store.New(db),
		Logger:   lgr,
		Reporter: reporter,
	})
	if err != nil {
		lgr.Fatal().Err(err).Msg("Failed to build lite API")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lgr.Error().Err(err).Msg("Lite API stopped")
		}
	case <-ctx.Done():
		lgr.Info().Msg("Shutting down lite API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lgr.Error().Err(err).Msg("Lite API shutdown failed")
		}
	}
}
