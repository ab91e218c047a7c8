package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dferrin/lockbox/internal/auth"
	"github.com/dferrin/lockbox/internal/background"
	"github.com/dferrin/lockbox/internal/cache"
	"github.com/dferrin/lockbox/internal/config"
	"github.com/dferrin/lockbox/internal/cryptox"
	"github.com/dferrin/lockbox/internal/database"
	"github.com/dferrin/lockbox/internal/handlers"
	"github.com/dferrin/lockbox/internal/repositories"
	"github.com/dferrin/lockbox/internal/routes"
	"github.com/dferrin/lockbox/internal/services"
	pkghttp "github.com/dferrin/lockbox/pkg/http"
	pkglogger "github.com/dferrin/lockbox/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	secretRepo := repositories.NewSecretRepository(db)
	attemptRepo := repositories.NewLoginAttemptRepository(db)

	engine := cryptox.NewEngine(cfg.Vault.KeyA, cfg.Vault.KeyB)
	listCache := cache.NewMemory(5 * time.Minute)
	auditLogger := pkglogger.NewAuditLogger(logger)

	sessionService := services.NewSessionService(sessionRepo, userRepo, cfg.Session.TTL, logger)
	lockoutService := services.NewLockoutService(attemptRepo, cfg.Lockout, logger)
	authService := services.NewAuthService(userRepo, sessionService, lockoutService,
		cfg.Lockout.DiscloseAttempts, logger, auditLogger)
	vaultService := services.NewVaultService(secretRepo, engine, listCache, logger)

	cookieConfig := auth.DefaultCookieConfig(cfg.Server.Env)
	ipConfig := &pkghttp.IPConfig{}

	authHandler := handlers.NewAuthHandler(authService, cookieConfig, ipConfig, logger)
	secretsHandler := handlers.NewSecretsHandler(vaultService, logger)

	router := routes.Setup(routes.Dependencies{
		Config:         cfg,
		DB:             db,
		AuthHandler:    authHandler,
		SecretsHandler: secretsHandler,
		SessionService: sessionService,
		Logger:         logger,
	})

	// Counters are safe to drop once both the rolling window and any active
	// lock have passed.
	counterGrace := cfg.Lockout.Window + cfg.Lockout.Duration
	cleanup := background.NewCleanupManager(sessionRepo, attemptRepo,
		cfg.Session.CleanupInterval, counterGrace, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cleanup.Start(ctx)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
}
