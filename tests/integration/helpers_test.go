package integration

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dferrin/lockbox/internal/auth"
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
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a throwaway Postgres container, connects, and applies
// all migrations. The container is torn down when the test finishes.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("lockbox_test"),
		postgres.WithUsername("lockbox"),
		postgres.WithPassword("lockbox-test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dbCfg := &config.DatabaseConfig{
		Host:              host,
		Port:              port.Int(),
		User:              "lockbox",
		Password:          "lockbox-test-password",
		Name:              "lockbox_test",
		SSLMode:           "disable",
		MaxConns:          5,
		MinConns:          1,
		MaxConnLifetime:   5 * time.Minute,
		MaxConnIdleTime:   1 * time.Minute,
		HealthCheckPeriod: 1 * time.Minute,
	}

	logger := slog.New(slog.DiscardHandler)

	db, err := database.NewConnection(dbCfg, logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate())

	return db
}

type testApp struct {
	router chi.Router
	db     *database.DB
}

// newTestApp wires the full application stack against a container database.
// The lockout config is tightened so lock-expiry scenarios run in test time.
func newTestApp(t *testing.T, lockout config.LockoutConfig) *testApp {
	t.Helper()

	db := setupTestDB(t)
	logger := slog.New(slog.DiscardHandler)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port: "0",
			Env:  "test",
		},
		Vault: config.VaultConfig{
			KeyA: "integration-test-key-alpha",
			KeyB: "integration-test-key-bravo",
		},
		Session: config.SessionConfig{
			TTL:             time.Hour,
			CleanupInterval: time.Hour,
		},
		Lockout: lockout,
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
	authHandler := handlers.NewAuthHandler(authService, cookieConfig, &pkghttp.IPConfig{}, logger)
	secretsHandler := handlers.NewSecretsHandler(vaultService, logger)

	router := routes.Setup(routes.Dependencies{
		Config:         cfg,
		DB:             db,
		AuthHandler:    authHandler,
		SecretsHandler: secretsHandler,
		SessionService: sessionService,
		Logger:         logger,
	})

	return &testApp{router: router, db: db}
}

func defaultTestLockout() config.LockoutConfig {
	return config.LockoutConfig{
		Window:           15 * time.Minute,
		Threshold:        5,
		Duration:         15 * time.Minute,
		DiscloseAttempts: true,
	}
}
