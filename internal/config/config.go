package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port         string   `yaml:"port" env:"SERVER_PORT"`
		Mode         string   `yaml:"mode" env:"SERVER_MODE"`
		ReadTimeout  string   `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout string   `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
		CORSOrigins  []string `yaml:"cors_origins" env:"SERVER_CORS_ORIGINS"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxConns        int    `yaml:"max_conns" env:"DB_MAX_CONNS"`
		MinConns        int    `yaml:"min_conns" env:"DB_MIN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	JWT struct {
		Secret                 string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration  string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		RefreshTokenExpiration string `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION"`
		Issuer                 string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Tenancy struct {
		PublicDomains  []string `yaml:"public_domains" env:"TENANCY_PUBLIC_DOMAINS"`
		BaseDomain     string   `yaml:"base_domain" env:"TENANCY_BASE_DOMAIN"`
		SchemaPrefix   string   `yaml:"schema_prefix" env:"TENANCY_SCHEMA_PREFIX"`
		AutoDropSchema bool     `yaml:"auto_drop_schema" env:"TENANCY_AUTO_DROP_SCHEMA"`
		MaxStudents    int      `yaml:"max_students" env:"TENANCY_MAX_STUDENTS"`
		MaxStaff       int      `yaml:"max_staff" env:"TENANCY_MAX_STAFF"`
	} `yaml:"tenancy"`

	Email struct {
		SendGridAPIKey string `yaml:"sendgrid_api_key" env:"SENDGRID_API_KEY"`
		FromName       string `yaml:"from_name" env:"EMAIL_FROM_NAME"`
		FromAddress    string `yaml:"from_address" env:"EMAIL_FROM_ADDRESS"`
		FrontendURL    string `yaml:"frontend_url" env:"FRONTEND_URL"`
	} `yaml:"email"`

	Storage struct {
		Endpoint   string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
		AccessKey  string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
		SecretKey  string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
		Bucket     string `yaml:"bucket" env:"MINIO_BUCKET"`
		UseSSL     bool   `yaml:"use_ssl" env:"MINIO_USE_SSL"`
		PresignTTL string `yaml:"presign_ttl" env:"MINIO_PRESIGN_TTL"`
	} `yaml:"storage"`

	Telemetry struct {
		Enabled      bool    `yaml:"enabled" env:"OTEL_ENABLED"`
		Endpoint     string  `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
		Protocol     string  `yaml:"protocol" env:"OTEL_EXPORTER_OTLP_PROTOCOL"`
		SamplerRatio float64 `yaml:"sampler_ratio" env:"OTEL_SAMPLER_RATIO"`
		ServiceName  string  `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
	} `yaml:"telemetry"`

	Library struct {
		LoanDays   int    `yaml:"loan_days" env:"LIBRARY_LOAN_DAYS"`
		FinePerDay string `yaml:"fine_per_day" env:"LIBRARY_FINE_PER_DAY"`
	} `yaml:"library"`

	Pagination struct {
		DefaultSize int `yaml:"default_size" env:"PAGINATION_DEFAULT_SIZE"`
		MaxSize     int `yaml:"max_size" env:"PAGINATION_MAX_SIZE"`
	} `yaml:"pagination"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ReadTimeout = "15s"
	config.Server.WriteTimeout = "30s"
	config.Server.CORSOrigins = []string{"*"}

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "schoolsphere"
	config.Database.SSLMode = "disable"
	config.Database.MaxConns = 20
	config.Database.MinConns = 2
	config.Database.ConnMaxLifetime = "1h"

	config.JWT.AccessTokenExpiration = "5h"
	config.JWT.RefreshTokenExpiration = "24h"
	config.JWT.Issuer = "schoolsphere.app"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Tenancy.PublicDomains = []string{"localhost", "127.0.0.1"}
	config.Tenancy.BaseDomain = "localhost"
	config.Tenancy.SchemaPrefix = "school_"
	config.Tenancy.MaxStudents = 500
	config.Tenancy.MaxStaff = 50

	config.Email.FromName = "SchoolSphere"
	config.Email.FromAddress = "no-reply@schoolsphere.app"
	config.Email.FrontendURL = "http://localhost:3000"

	config.Storage.Bucket = "schoolsphere"
	config.Storage.PresignTTL = "1h"

	config.Telemetry.Protocol = "grpc"
	config.Telemetry.SamplerRatio = 1
	config.Telemetry.ServiceName = "schoolsphere-api"

	config.Library.LoanDays = 14
	config.Library.FinePerDay = "1.00"

	config.Pagination.DefaultSize = 10
	config.Pagination.MaxSize = 100
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.JWT.RefreshTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT refresh token expiration format: %w", err)
	}

	if !strings.HasSuffix(config.Tenancy.SchemaPrefix, "_") || strings.HasPrefix(config.Tenancy.SchemaPrefix, "pg_") {
		return fmt.Errorf("tenancy schema prefix %q must end with '_' and not start with 'pg_'", config.Tenancy.SchemaPrefix)
	}

	if config.Tenancy.MaxStudents <= 0 || config.Tenancy.MaxStaff <= 0 {
		return fmt.Errorf("tenancy free-tier limits must be positive")
	}

	if fine, err := decimal.NewFromString(config.Library.FinePerDay); err != nil || fine.IsNegative() {
		return fmt.Errorf("library fine_per_day must be a non-negative decimal")
	}

	if config.Library.LoanDays <= 0 {
		return fmt.Errorf("library loan_days must be positive")
	}

	switch config.Telemetry.Protocol {
	case "grpc", "http":
	default:
		return fmt.Errorf("unsupported telemetry protocol %q", config.Telemetry.Protocol)
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

func (c *Config) AccessTokenTTL() time.Duration {
	return helpers.ParseDuration(c.JWT.AccessTokenExpiration, 5*time.Hour)
}

func (c *Config) RefreshTokenTTL() time.Duration {
	return helpers.ParseDuration(c.JWT.RefreshTokenExpiration, 24*time.Hour)
}

func (c *Config) ConnMaxLifetime() time.Duration {
	return helpers.ParseDuration(c.Database.ConnMaxLifetime, time.Hour)
}

func (c *Config) ReadTimeout() time.Duration {
	return helpers.ParseDuration(c.Server.ReadTimeout, 15*time.Second)
}

func (c *Config) WriteTimeout() time.Duration {
	return helpers.ParseDuration(c.Server.WriteTimeout, 30*time.Second)
}

func (c *Config) PresignTTL() time.Duration {
	return helpers.ParseDuration(c.Storage.PresignTTL, time.Hour)
}

// FinePerDay is validated at load time, so a parse failure here means zero.
func (c *Config) FinePerDay() decimal.Decimal {
	fine, err := decimal.NewFromString(c.Library.FinePerDay)
	if err != nil {
		return decimal.Zero
	}
	return fine
}

// IsPublicDomain reports whether host serves the public schema.
func (c *Config) IsPublicDomain(host string) bool {
	for _, d := range c.Tenancy.PublicDomains {
		if strings.EqualFold(d, host) {
			return true
		}
	}
	return false
}
