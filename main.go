package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"users-be/internal/cache"
	"users-be/internal/config"
	"users-be/internal/controllers"
	"users-be/internal/database"
	"users-be/internal/jwt"
	"users-be/internal/logger"
	"users-be/internal/repository"
	"users-be/internal/routes"
	"users-be/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	appLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	if err := run(cfg, appLogger); err != nil {
		appLogger.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, appLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	userRepo, closeStore, err := newUserRepository(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Initialize Redis cache (optional - continue if Redis is unavailable)
	var cacheClient cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			appLogger.Warn("Failed to connect to Redis, continuing without cache", zap.Error(err))
			cacheClient = nil
		} else {
			appLogger.Info("Connected to Redis cache")
			defer cacheClient.Close()
		}
	}

	jwtService, err := jwt.NewJWTService(cfg.JWTSecret, time.Duration(cfg.JWTTTL)*time.Hour)
	if err != nil {
		return fmt.Errorf("JWT_SECRET is required: %w", err)
	}

	userService := service.NewUserService(userRepo, cacheClient, service.UserServiceConfig{
		SaltRounds: cfg.SaltRounds,
		CacheTTL:   time.Duration(cfg.UserCacheTTL) * time.Second,
	}, appLogger)
	authService := service.NewAuthService(userRepo, jwtService)

	docsController, err := controllers.NewDocsController()
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := routes.Setup(routes.Dependencies{
		UserController: controllers.NewUserController(userService, appLogger),
		AuthController: controllers.NewAuthController(authService, appLogger),
		DocsController: docsController,
		JWTService:     jwtService,
		Logger:         appLogger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("Server starting", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// newUserRepository connects to PostgreSQL and migrates it, or falls back to memory when no database is configured.
func newUserRepository(ctx context.Context, cfg *config.Config, appLogger *zap.Logger) (repository.UserRepository, func(), error) {
	if cfg.DatabaseURL == "" {
		appLogger.Warn("DATABASE_URL is empty; users are kept in memory and lost on restart")
		return repository.NewMemoryUserRepository(), func() {}, nil
	}

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	appLogger.Info("Connected to database")

	if err := database.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	appLogger.Info("Database migrations completed")

	return repository.NewUserRepository(db), func() { db.Close() }, nil
}
