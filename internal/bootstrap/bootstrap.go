package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/mclass/internal/app/controllers"
	appMigrations "github.com/yigit/mclass/internal/app/migrations"
	"github.com/yigit/mclass/internal/app/models"
	appRepos "github.com/yigit/mclass/internal/app/repositories"
	appRoutes "github.com/yigit/mclass/internal/app/routes"
	appServices "github.com/yigit/mclass/internal/app/services"
	"github.com/yigit/mclass/internal/config"
	"github.com/yigit/mclass/internal/db"
	appMiddleware "github.com/yigit/mclass/internal/middleware"
	pkgAuth "github.com/yigit/mclass/internal/pkg/auth"
	"github.com/yigit/mclass/internal/pkg/helpers"
	"github.com/yigit/mclass/internal/pkg/logger"
	"github.com/yigit/mclass/internal/pkg/queue"
	"github.com/yigit/mclass/internal/pkg/ratelimit"
	"github.com/yigit/mclass/internal/pkg/resourcelock"
	"github.com/yigit/mclass/internal/pkg/validation"
	"github.com/yigit/mclass/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos             *appRepos.Repositories
	JWTService        *pkgAuth.JWTService
	AuthService       *appServices.AuthService
	ClassService      appServices.ClassService
	EnrollmentService appServices.EnrollmentService

	AuthController   *appControllers.AuthController
	ClassController  *appControllers.ClassController
	ApplyController  *appControllers.ApplyController
	HealthController *appControllers.HealthController

	AuthMiddleware *appMiddleware.AuthMiddleware
	LockMiddleware *appMiddleware.LockMiddleware
	RateLimit      gin.HandlerFunc

	// Optional pieces; nil when disabled in config
	Locker      resourcelock.Locker
	WriteQueue  *queue.SerialTaskQueue
	RedisClient *redis.Client

	Logger zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logger.Configure(logger.ConfigFromStrings(cfg.Logging.Level, cfg.Logging.Format))

	lgr := logger.Get()
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// OpenDatabase connects to the configured driver.
func OpenDatabase(cfg *config.Config, lgr zerolog.Logger) (db.Database, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		lgr.Info().Str("path", cfg.Database.SQLitePath).Msg("Opening sqlite database...")
		database, err := db.NewSQLiteDB(db.SQLiteFileDSN(cfg.Database.SQLitePath))
		if err != nil {
			return nil, err
		}
		return database, nil
	case "postgres":
		lgr.Info().Str("host", cfg.Database.Host).Msg("Establishing database connection...")
		database, err := db.NewPostgresDB(cfg)
		if err != nil {
			return nil, err
		}
		return database, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

// SetupDatabase establishes the database connection, runs migrations and seeds the admin.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (db.Database, error) {
	database, err := OpenDatabase(cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		database.Close()
		return nil, err
	}
	lgr.Info().Str("driver", cfg.Database.Driver).Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(database, lgr).Up(ctx); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if cfg.Seed.Enabled {
		admin := seed.AdminAccount{
			Email:    cfg.Seed.AdminEmail,
			Password: cfg.Seed.AdminPassword,
			Name:     cfg.Seed.AdminName,
		}
		if _, err := seed.CreateDefaultAdmin(ctx, appRepos.NewUserRepository(database), admin, lgr); err != nil {
			// Not fatal, the API is usable without an admin
			lgr.Error().Err(err).Msg("Failed to create default admin, proceeding anyway...")
		}
	}

	return database, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
// Background workers started here stop when ctx is cancelled.
func BuildDependencies(ctx context.Context, cfg *config.Config, database db.Database, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(database)

	policy, err := models.ParseSeatPolicy(cfg.Enrollment.SeatPolicy)
	if err != nil {
		return nil, err
	}
	if err := deps.Repos.Settings.PinSeatPolicy(ctx, policy); err != nil {
		return nil, err
	}

	if err := deps.setupLocker(ctx, cfg, lgr); err != nil {
		return nil, err
	}

	opts := appServices.EnrollmentOptions{Policy: policy}
	if cfg.Enrollment.SerializeWrites {
		deps.WriteQueue = queue.New(logger.Component("write-queue"))
		opts.Serializer = deps.WriteQueue
		lgr.Info().Msg("Enrollment writes are serialized through a single worker")
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 24*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.AuthService = appServices.NewAuthService(deps.Repos.UserRepository, deps.JWTService, logger.Component("auth"))
	deps.ClassService = appServices.NewClassService(database, deps.Repos.ClassRepository, logger.Component("class"))
	deps.EnrollmentService = appServices.NewEnrollmentService(
		database,
		deps.Repos.ClassRepository,
		deps.Repos.ApplyRepository,
		opts,
		logger.Component("enrollment"),
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.LockMiddleware = appMiddleware.NewLockMiddleware(deps.Locker, logger.Component("lock"))

	if cfg.RateLimit.Enabled {
		store := ratelimit.NewStore(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		store.StartJanitor(ctx)
		deps.RateLimit = appMiddleware.RateLimit(store)
	}

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, lgr)
	deps.ClassController = appControllers.NewClassController(deps.ClassService, lgr)
	deps.ApplyController = appControllers.NewApplyController(deps.EnrollmentService, lgr)
	deps.HealthController = appControllers.NewHealthController(database)

	lgr.Info().
		Str("seatPolicy", string(policy)).
		Bool("lock", deps.Locker != nil).
		Bool("rateLimit", deps.RateLimit != nil).
		Msg("Dependencies initialized")
	return deps, nil
}

func (d *Dependencies) setupLocker(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) error {
	if !cfg.Lock.Enabled {
		return nil
	}

	ttl := helpers.ParseDuration(cfg.Lock.LeaseTTL, resourcelock.DefaultTTL)

	switch cfg.Lock.Backend {
	case "redis":
		d.RedisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Lock.RedisAddr,
			Password: cfg.Lock.RedisPassword,
			DB:       cfg.Lock.RedisDB,
		})
		locker := resourcelock.NewRedisLocker(d.RedisClient,
			resourcelock.WithPrefix(cfg.Lock.RedisPrefix),
			resourcelock.WithTTL(ttl),
		)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := locker.Ping(pingCtx); err != nil {
			_ = d.RedisClient.Close()
			return fmt.Errorf("failed to connect to redis at %s: %w", cfg.Lock.RedisAddr, err)
		}
		d.Locker = locker
		lgr.Info().Str("addr", cfg.Lock.RedisAddr).Dur("ttl", ttl).Msg("Redis class locks enabled")
	default:
		locker := resourcelock.NewMemoryLocker(ttl, logger.Component("lock"))
		locker.StartJanitor(ctx, ttl)
		d.Locker = locker
		lgr.Info().Dur("ttl", ttl).Msg("In-process class locks enabled")
	}
	return nil
}

// Close stops the write queue and releases external clients.
func (d *Dependencies) Close(ctx context.Context) error {
	var errs error
	if d.WriteQueue != nil {
		if err := d.WriteQueue.Shutdown(ctx); err != nil {
			errs = errors.Join(errs, fmt.Errorf("write queue: %w", err))
		}
	}
	if d.RedisClient != nil {
		if err := d.RedisClient.Close(); err != nil {
			errs = errors.Join(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errs
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	}

	validation.RegisterGinRules()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(logger.Component("http")))

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router,
		appRoutes.Controllers{
			Auth:   deps.AuthController,
			Class:  deps.ClassController,
			Apply:  deps.ApplyController,
			Health: deps.HealthController,
		},
		appRoutes.Guards{
			Auth:         deps.AuthMiddleware,
			Lock:         deps.LockMiddleware,
			RateLimit:    deps.RateLimit,
			ResolveClass: deps.EnrollmentService.ResolveClassID,
		},
	)

	return router
}
