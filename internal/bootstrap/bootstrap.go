package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/registrar/internal/app/controllers"
	appMigrations "github.com/yigit/registrar/internal/app/migrations"
	appRepos "github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/app/repositories/sqlite"
	appRoutes "github.com/yigit/registrar/internal/app/routes"
	appServices "github.com/yigit/registrar/internal/app/services"
	"github.com/yigit/registrar/internal/config"
	"github.com/yigit/registrar/internal/db"
	appMiddleware "github.com/yigit/registrar/internal/middleware"
	"github.com/yigit/registrar/internal/pkg/logger"
	"github.com/yigit/registrar/internal/pkg/validation"
	"github.com/yigit/registrar/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Store                appRepos.Store
	PrerequisiteService  *appServices.PrerequisiteService
	CapacityService      *appServices.CapacityService
	EnrollmentService    *appServices.EnrollmentService
	GradeService         *appServices.GradeService
	CourseService        *appServices.CourseService
	StudentService       *appServices.StudentService
	SchoolService        *appServices.SchoolManagementService
	StudentController    *appControllers.StudentController
	CourseController     *appControllers.CourseController
	EnrollmentController *appControllers.EnrollmentController
	GradeController      *appControllers.GradeController
	Logger               zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.Config{
		Level:  cfg.Logging.Level,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})
	lgr.Info().Stringer("logLevel", zerolog.GlobalLevel()).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStore opens the configured store and brings its schema up to date.
func SetupStore(cfg *config.Config, lgr zerolog.Logger) (appRepos.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		lgr.Info().Str("path", cfg.Database.SQLitePath).Msg("Opening SQLite store...")
		store, err := sqlite.Open(cfg.Database.SQLitePath)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to open SQLite store")
			return nil, err
		}
		lgr.Info().Msg("SQLite store ready.")
		return store, nil
	default:
		return setupPostgres(cfg, lgr)
	}
}

func setupPostgres(cfg *config.Config, lgr zerolog.Logger) (appRepos.Store, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg, logger.Component(lgr, "postgres"))
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, lgr)
	if err := migrator.Migrate(ctx, appMigrations.PostgresFS, "postgres"); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return appRepos.NewPostgresStore(database), nil
}

// BuildDependencies initializes services and controllers over the store.
func BuildDependencies(cfg *config.Config, store appRepos.Store, lgr zerolog.Logger) *Dependencies {
	deps := &Dependencies{Store: store, Logger: lgr}

	deps.PrerequisiteService = appServices.NewPrerequisiteService(store, logger.Component(lgr, "prerequisites"))
	deps.CapacityService = appServices.NewCapacityService(
		store,
		logger.Component(lgr, "capacity"),
		cfg.Enrollment.ReservationMaxAttempts,
	)
	deps.EnrollmentService = appServices.NewEnrollmentService(
		store,
		deps.PrerequisiteService,
		deps.CapacityService,
		logger.Component(lgr, "enrollments"),
	)
	deps.GradeService = appServices.NewGradeService(store, deps.CapacityService, logger.Component(lgr, "grades"))
	deps.CourseService = appServices.NewCourseService(store, logger.Component(lgr, "courses"))
	deps.StudentService = appServices.NewStudentService(store, deps.CapacityService, logger.Component(lgr, "students"))
	deps.SchoolService = appServices.NewSchoolManagementService(
		deps.EnrollmentService,
		deps.GradeService,
		deps.CapacityService,
		deps.PrerequisiteService,
		logger.Component(lgr, "school"),
	)

	deps.StudentController = appControllers.NewStudentController(
		deps.StudentService,
		deps.EnrollmentService,
		deps.GradeService,
		deps.SchoolService,
	)
	deps.CourseController = appControllers.NewCourseController(
		deps.CourseService,
		deps.CapacityService,
		deps.EnrollmentService,
		deps.GradeService,
		deps.SchoolService,
	)
	deps.EnrollmentController = appControllers.NewEnrollmentController(deps.EnrollmentService, deps.SchoolService)
	deps.GradeController = appControllers.NewGradeController(deps.GradeService, deps.SchoolService)

	return deps
}

// SeedDemoData creates the demo catalogue when enabled in the configuration.
func SeedDemoData(ctx context.Context, cfg *config.Config, deps *Dependencies) {
	if !cfg.Enrollment.SeedDemoData {
		return
	}
	if err := seed.CreateDefaultData(ctx, deps.CourseService, deps.StudentService, deps.Logger); err != nil {
		deps.Logger.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := validation.RegisterRules(); err != nil {
		lgr.Error().Err(err).Msg("Failed to register validation rules")
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(lgr))

	appRoutes.SetupRouter(router,
		deps.StudentController,
		deps.CourseController,
		deps.EnrollmentController,
		deps.GradeController,
	)

	return router
}
