package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/yigit/schoolsphere/internal/app/controllers"
	"github.com/yigit/schoolsphere/internal/app/jobs"
	"github.com/yigit/schoolsphere/internal/app/migrations"
	"github.com/yigit/schoolsphere/internal/app/repositories"
	"github.com/yigit/schoolsphere/internal/app/routes"
	"github.com/yigit/schoolsphere/internal/app/services"
	"github.com/yigit/schoolsphere/internal/config"
	"github.com/yigit/schoolsphere/internal/db"
	"github.com/yigit/schoolsphere/internal/middleware"
	pkgauth "github.com/yigit/schoolsphere/internal/pkg/auth"
	"github.com/yigit/schoolsphere/internal/pkg/email"
	"github.com/yigit/schoolsphere/internal/pkg/filestorage"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
	"github.com/yigit/schoolsphere/internal/pkg/logger"
	"github.com/yigit/schoolsphere/internal/pkg/telemetry"
	"github.com/yigit/schoolsphere/internal/pkg/websocket"
	"github.com/yigit/schoolsphere/internal/tenancy"
)

// TokenCleanupInterval is how often stale auth tokens are purged.
const TokenCleanupInterval = time.Hour

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos       *repositories.Repositories
	JWTService  *pkgauth.JWTService
	Files       *filestorage.ObjectFileStorage
	Mailer      *email.EmailServiceImpl
	Hub         *websocket.Hub
	Upgrader    *gorillaws.Upgrader
	Provisioner *tenancy.Provisioner
	Cleaner     *jobs.TokenCleaner
	Metrics     *middleware.Metrics
	Registry    *prometheus.Registry
	Auth        *middleware.AuthMiddleware
	Controllers *routes.Controllers
	Schools     *services.SchoolService
	Logger      zerolog.Logger
}

// LoadConfigAndSetupLogger reads an optional .env file, loads the
// configuration and configures the global logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn().Err(err).Msg("Failed to read .env file")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	level := logger.ParseLevel(cfg.Logging.Level)
	logger.Configure(logger.Config{
		Level:   level,
		Pretty:  strings.EqualFold(cfg.Logging.Format, "console") || strings.EqualFold(cfg.Logging.Format, "text"),
		Output:  os.Stdout,
		Service: cfg.Telemetry.ServiceName,
	})

	lgr := logger.Logger()
	lgr.Info().Str("logLevel", string(level)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupTelemetry installs the tracer provider.
func SetupTelemetry(ctx context.Context, cfg *config.Config) (telemetry.ShutdownFunc, error) {
	return telemetry.Init(ctx, telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		Protocol:     cfg.Telemetry.Protocol,
		SamplerRatio: cfg.Telemetry.SamplerRatio,
		ServiceName:  cfg.Telemetry.ServiceName,
	})
}

// SetupDatabase connects and brings the public schema and every
// provisioned school schema to the latest migration.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	if err := MigrateAll(ctx, database, lgr); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// MigrateAll applies pending public and tenant migrations.
func MigrateAll(ctx context.Context, database *db.PostgresDB, lgr zerolog.Logger) error {
	migrator := migrations.NewMigrator(database.SQL)

	lgr.Info().Msg("Running public schema migrations...")
	if err := migrator.MigratePublic(ctx); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("public migrations failed: %w", err)
	}

	schools := repositories.NewSchoolRepository(database.SQL)
	provisioner := tenancy.NewProvisioner(database.SQL, migrator)

	schemas, err := schools.ListSchemas(tenancy.WithTenant(ctx, tenancy.Public()))
	if err != nil {
		return fmt.Errorf("failed to list school schemas: %w", err)
	}

	migrated := 0
	for _, schema := range schemas {
		exists, err := provisioner.Exists(ctx, schema)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}
		if err := migrator.MigrateTenant(ctx, schema); err != nil {
			lgr.Error().Err(err).Str("schema", schema).Msg("Tenant migration error")
			return fmt.Errorf("migrations for %s failed: %w", schema, err)
		}
		migrated++
	}

	lgr.Info().Int("schools", migrated).Msg("Database migrations successfully applied.")
	return nil
}

// newObjectStore connects to MinIO. Outside production a missing or
// unreachable server falls back to in-memory storage.
func newObjectStore(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (filestorage.ObjectStore, error) {
	store, err := filestorage.NewMinIO(ctx, filestorage.MinIOConfig{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err == nil {
		lgr.Info().Str("endpoint", cfg.Storage.Endpoint).Str("bucket", cfg.Storage.Bucket).Msg("Object storage connected")
		return store, nil
	}
	if isProduction(cfg) {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}
	lgr.Warn().Err(err).Msg("Object storage unavailable, keeping uploads in memory")
	return filestorage.NewMemoryStore("http://localhost:" + cfg.Server.Port + "/files"), nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	helpers.SetPageLimits(cfg.Pagination.DefaultSize, cfg.Pagination.MaxSize)
	if err := middleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	deps.Repos = repositories.NewRepositories(database.SQL)
	repos := deps.Repos
	tx := db.NewTransactor(database.SQL)

	store, err := newObjectStore(ctx, cfg, lgr)
	if err != nil {
		return nil, err
	}
	deps.Files = filestorage.NewObjectFileStorage(store, cfg.PresignTTL())

	deps.Mailer = email.NewEmailService(email.Config{
		SendGridAPIKey: cfg.Email.SendGridAPIKey,
		FromName:       cfg.Email.FromName,
		FromAddress:    cfg.Email.FromAddress,
		FrontendURL:    cfg.Email.FrontendURL,
	}, repos.DeliveryLogRepository, lgr)

	deps.JWTService = pkgauth.NewJWTService(pkgauth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  cfg.AccessTokenTTL(),
		RefreshTokenExp: cfg.RefreshTokenTTL(),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.Provisioner = tenancy.NewProvisioner(database.SQL, migrations.NewMigrator(database.SQL))
	deps.Hub = websocket.NewHub(lgr)
	deps.Upgrader = websocket.NewUpgrader(cfg.Server.CORSOrigins)
	notifier := services.NewNotifier(repos.NotificationRepository, deps.Hub, lgr)

	deps.Cleaner = jobs.NewTokenCleaner(repos.SchoolRepository, deps.Provisioner, repos.TokenRepository, repos.PasswordResetRepository, lgr)

	deps.Schools = services.NewSchoolService(
		repos.SchoolRepository,
		repos.UserRepository,
		deps.Provisioner,
		deps.Mailer,
		tx,
		services.TenancyConfig{
			PublicDomains:  cfg.Tenancy.PublicDomains,
			BaseDomain:     cfg.Tenancy.BaseDomain,
			SchemaPrefix:   cfg.Tenancy.SchemaPrefix,
			AutoDropSchema: cfg.Tenancy.AutoDropSchema,
			MaxStudents:    cfg.Tenancy.MaxStudents,
			MaxStaff:       cfg.Tenancy.MaxStaff,
		},
		lgr,
	)
	authService := services.NewAuthService(
		repos.UserRepository,
		repos.TokenRepository,
		repos.PasswordResetRepository,
		deps.JWTService,
		deps.Files,
		deps.Mailer,
		tx,
		lgr,
	)
	userService := services.NewUserService(repos.UserRepository, deps.Files, deps.Mailer, tx, lgr)
	academicService := services.NewAcademicService(services.AcademicStores{
		Years:       repos.AcademicYearRepository,
		Classes:     repos.ClassRepository,
		Sections:    repos.SectionRepository,
		Subjects:    repos.SubjectRepository,
		Attendance:  repos.AttendanceRepository,
		Assessments: repos.AssessmentRepository,
		Assignments: repos.AssignmentRepository,
		Timetable:   repos.TimetableRepository,
		Users:       repos.UserRepository,
	}, deps.Files, notifier, tx, lgr)
	libraryService := services.NewLibraryService(repos.BookRepository, repos.UserRepository, tx, services.LibraryConfig{
		LoanDays:   cfg.Library.LoanDays,
		FinePerDay: cfg.FinePerDay(),
	}, lgr)
	financeService := services.NewFinanceService(repos.FeeRepository, repos.StudentFeeRepository, repos.UserRepository, notifier, tx, lgr)
	communicationService := services.NewCommunicationService(services.CommunicationStores{
		Announcements: repos.AnnouncementRepository,
		Notifications: repos.NotificationRepository,
		Messages:      repos.MessageRepository,
		Deliveries:    repos.DeliveryLogRepository,
		Sections:      repos.SectionRepository,
		Users:         repos.UserRepository,
	}, deps.Files, notifier, tx, lgr)

	deps.Auth = middleware.NewAuthMiddleware(deps.JWTService)

	deps.Controllers = &routes.Controllers{
		Auth:          controllers.NewAuthController(authService, lgr),
		Users:         controllers.NewUserController(userService, lgr),
		Schools:       controllers.NewSchoolController(deps.Schools, lgr),
		Academic:      controllers.NewAcademicController(academicService, lgr),
		Library:       controllers.NewLibraryController(libraryService, lgr),
		Finance:       controllers.NewFinanceController(financeService, lgr),
		Communication: controllers.NewCommunicationController(communicationService, deps.Hub, deps.Upgrader, deps.Auth, lgr),
	}

	deps.Registry = prometheus.NewRegistry()
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Metrics, err = middleware.NewMetrics(deps.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return deps, nil
}

// StartBackground runs the websocket hub and the token cleaner until ctx ends.
func (d *Dependencies) StartBackground(ctx context.Context) {
	go d.Hub.Run(ctx)
	go d.Cleaner.Start(ctx, TokenCleanupInterval)
}

func isProduction(cfg *config.Config) bool {
	return strings.EqualFold(cfg.Server.Mode, "production")
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, database routes.Pinger, lgr zerolog.Logger) *gin.Engine {
	if isProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(lgr),
		middleware.CORS(cfg.Server.CORSOrigins),
		deps.Metrics.Handler(),
	)

	routes.SetupSwagger(router, "")
	routes.SetupOperational(router, database, deps.Registry)
	routes.SetupRouter(router, deps.Controllers, deps.Auth, deps.Schools)

	return router
}
