package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/yigit/schoolsphere/internal/pkg/logger"
	"github.com/yigit/schoolsphere/internal/server"
)

// @title SchoolSphere API
// @version 1.0
// @description Multi-tenant school management platform. Each school is served from its own domain.

// @contact.name API Support
// @contact.email support@schoolsphere.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	configPath := flag.String("config", filepath.Join("configs", "config.yaml"), "path to the YAML configuration")
	flag.Parse()

	srv, err := server.NewServer(*configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
