package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/portinscan/portinscan/application/port/outbound"
	"github.com/portinscan/portinscan/application/usecase"
	"github.com/portinscan/portinscan/infrastructure/adapter/memory"
	"github.com/portinscan/portinscan/infrastructure/adapter/postgres"
	"github.com/portinscan/portinscan/infrastructure/config"
	"github.com/portinscan/portinscan/infrastructure/http/router"
	"github.com/portinscan/portinscan/infrastructure/service/jwt"
	"github.com/portinscan/portinscan/infrastructure/service/logger"
	"github.com/portinscan/portinscan/infrastructure/service/metrics"
	"github.com/portinscan/portinscan/infrastructure/service/password"
	"github.com/portinscan/portinscan/infrastructure/service/ratelimit"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logger
	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "portinscan-auth",
	})
	structuredLogger.Info(ctx, "Application starting", map[string]interface{}{
		"env":           cfg.Environment,
		"store_backend": cfg.StoreBackend,
	})

	// Credential store
	var userRepo outbound.UserRepository
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		structuredLogger.Warn(ctx, "Using in-memory credential store; users are lost on restart", nil)
		userRepo = memory.NewUserRepository()
	default:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			structuredLogger.Error(ctx, "Failed to connect to database", err, nil)
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer closeDB(db)

		if cfg.DBAutoMigrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				structuredLogger.Error(ctx, "Failed to apply migrations", err, nil)
				log.Fatalf("Failed to apply migrations: %v", err)
			}
		}
		structuredLogger.Info(ctx, "Database connection established", nil)
		userRepo = postgres.NewUserRepositoryAdapter(db, cfg.RefreshTokenSalt)
	}

	// Initialize services
	tokenService, err := jwt.NewJWTService(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize JWT service: %v", err)
	}
	passwordService := password.NewBcryptPasswordService(cfg.BcryptCost)

	var recorder metrics.Recorder = metrics.NewNoop()
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		prom, err := metrics.NewPrometheusRecorder()
		if err != nil {
			log.Fatalf("Failed to initialize metrics: %v", err)
		}
		recorder = prom
		metricsHandler = prom.Handler()
	}

	// Rate limiting is best effort: without Redis the server still starts
	rateLimitService, err := ratelimit.NewRateLimitService(ratelimit.RateLimitConfig{
		Enabled:       cfg.RateLimitEnabled,
		Backend:       cfg.RateLimitBackend,
		RedisURL:      cfg.RedisURL,
		LoginAttempts: cfg.RateLimitLoginAttempts,
		LoginWindow:   cfg.RateLimitLoginWindow,
		BlockDuration: cfg.RateLimitBlockDuration,
	}, structuredLogger)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to initialize rate limit service, login is not rate limited", err, map[string]interface{}{
			"backend": cfg.RateLimitBackend,
		})
		rateLimitService = nil
	}

	// Initialize use cases
	handler := router.New(router.Dependencies{
		Config:                  cfg,
		Logger:                  structuredLogger,
		CredentialAuthenticator: usecase.NewCredentialAuthenticator(userRepo, passwordService, structuredLogger),
		TokenIssuer:             usecase.NewTokenIssuer(userRepo, tokenService, structuredLogger),
		RequestAuthenticator:    usecase.NewRequestAuthenticator(userRepo, tokenService, structuredLogger, recorder, cfg.RefreshTokenRotation),
		LogoutUseCase:           usecase.NewLogoutUseCase(userRepo, structuredLogger, cfg.LogoutRevokesRefresh),
		RateLimitService:        rateLimitService,
		Metrics:                 recorder,
		MetricsHandler:          metricsHandler,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		structuredLogger.Info(ctx, "Starting server", map[string]interface{}{
			"addr": cfg.Addr(),
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			structuredLogger.Error(ctx, "Server failed to start", err, map[string]interface{}{
				"addr": cfg.Addr(),
			})
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	structuredLogger.Info(ctx, "Shutting down server...", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		structuredLogger.Error(ctx, "Server forced to shutdown", err, nil)
	}
	structuredLogger.Info(ctx, "Server exited", nil)
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
}
