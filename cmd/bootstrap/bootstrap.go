package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"psych-booking-engine/config"
	deliveryHttp "psych-booking-engine/internal/delivery/http"
	"psych-booking-engine/internal/delivery/http/handler"
	"psych-booking-engine/internal/delivery/http/middleware"
	"psych-booking-engine/internal/infrastructure/cache"
	"psych-booking-engine/internal/infrastructure/database"
	"psych-booking-engine/internal/metrics"
	"psych-booking-engine/internal/repository"
	"psych-booking-engine/internal/scheduling"
	"psych-booking-engine/internal/service"
	"psych-booking-engine/internal/usecase"
	"psych-booking-engine/pkg/jwt"
	"psych-booking-engine/pkg/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
	Sweeper     *service.StatusSweeper
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	// Setup logger
	log := setupLogger(cfg.App)
	app.Log = log
	log.Info("Configuration loaded successfully")

	if cfg.DB.RunMigrations {
		if err := database.RunMigrations(cfg.DB.MigrationURL(), log); err != nil {
			return nil, err
		}
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, log, cfg.App.Env == "development")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis, log)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient

	// Initialize all layers
	app.Server, app.Sweeper = initializeServer(cfg, log, db, redisClient)

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(cfg config.AppConfig) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// initializeServer creates and configures the HTTP server and the status sweeper
func initializeServer(cfg *config.Config, log *logrus.Logger, db *gorm.DB, redisClient *redis.Client) (*http.Server, *service.StatusSweeper) {
	// Initialize token verifier
	verifier := jwt.NewVerifier(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(registry)

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	bookingRepo := repository.NewBookingRepository()
	providerRepo := repository.NewProviderProfileRepository()
	pendingMatchRepo := repository.NewPendingMatchRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	auditService := service.NewAuditService(db, log, auditLogRepo)
	availabilityCache := service.NewAvailabilityCache(redisClient, log, cfg.Booking.AvailabilityCacheTTL)
	clock := scheduling.NewSystemClock(cfg.Booking.Location())
	sleeper := scheduling.NewTimerSleeper()

	// Initialize usecases
	availabilityUsecase := usecase.NewAvailabilityUsecase(db, log, providerRepo, bookingRepo, availabilityCache, clock, cfg.Booking)
	matchingUsecase := usecase.NewMatchingUsecase(db, log, providerRepo, pendingMatchRepo, auditService, bookingMetrics, cfg.Booking)
	reservationUsecase := usecase.NewReservationUsecase(db, log, bookingRepo, userRepo, availabilityUsecase, matchingUsecase, availabilityCache, auditService, bookingMetrics, clock, sleeper, cfg.Booking)
	lifecycleUsecase := usecase.NewLifecycleUsecase(db, log, bookingRepo, availabilityUsecase, availabilityCache, auditService, bookingMetrics, clock)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Initialize handlers
	availabilityHandler := handler.NewAvailabilityHandler(availabilityUsecase, cfg.Booking.HorizonDays)
	matchHandler := handler.NewMatchHandler(matchingUsecase, customValidator)
	bookingHandler := handler.NewBookingHandler(reservationUsecase, lifecycleUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase, customValidator)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(verifier, redisClient)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSOrigins...)
	requestLogger := middleware.NewRequestLogger(log, bookingMetrics)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.BookingPerMinute, cfg.RateLimit.BookingBurst)

	// Initialize router
	router := deliveryHttp.NewRouter(
		availabilityHandler,
		matchHandler,
		bookingHandler,
		auditLogHandler,
		authMiddleware,
		corsMiddleware,
		requestLogger,
		rateLimiter,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	)
	httpRouter := router.Setup()

	sweeper := service.NewStatusSweeper(lifecycleUsecase, log, cfg.Booking.SweepInterval)

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}, sweeper
}

// Run starts the HTTP server and the status sweeper and handles graceful shutdown
func (app *App) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app.Sweeper.Start(ctx)

	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	app.Sweeper.Stop()

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
