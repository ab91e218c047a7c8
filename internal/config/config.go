package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Vault    VaultConfig
	Session  SessionConfig
	Lockout  LockoutConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// VaultConfig holds the two deployment secrets the layered encryption keys
// are derived from.
type VaultConfig struct {
	KeyA string
	KeyB string
}

type SessionConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

// LockoutConfig controls the failed-login counter. Window is the rolling
// window measured from the first failure; Threshold failures inside it lock
// the account for Duration. DiscloseAttempts controls whether failed logins
// report how many attempts remain before lockout.
type LockoutConfig struct {
	Window           time.Duration
	Threshold        int
	Duration         time.Duration
	DiscloseAttempts bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	keyA := getEnv("VAULT_KEY_A", "")
	keyB := getEnv("VAULT_KEY_B", "")
	if keyA == "" || keyB == "" {
		return nil, fmt.Errorf("VAULT_KEY_A and VAULT_KEY_B are required")
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "lockbox"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
		},
		Vault: VaultConfig{
			KeyA: keyA,
			KeyB: keyB,
		},
		Session: SessionConfig{
			TTL:             getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			CleanupInterval: getEnvAsDuration("SESSION_CLEANUP_INTERVAL", 1*time.Hour),
		},
		Lockout: LockoutConfig{
			Window:           getEnvAsDuration("LOCKOUT_WINDOW", 15*time.Minute),
			Threshold:        getEnvAsInt("LOCKOUT_THRESHOLD", 5),
			Duration:         getEnvAsDuration("LOCKOUT_DURATION", 15*time.Minute),
			DiscloseAttempts: getEnvAsBool("LOCKOUT_DISCLOSE_ATTEMPTS", env != "production"),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateVaultKey("VAULT_KEY_A", keyA, env); err != nil {
		return nil, err
	}
	if err := validateVaultKey("VAULT_KEY_B", keyB, env); err != nil {
		return nil, err
	}
	if keyA == keyB {
		return nil, fmt.Errorf("VAULT_KEY_A and VAULT_KEY_B must differ")
	}

	return cfg, nil
}

// validateVaultKey enforces minimum strength for an encryption key secret
func validateVaultKey(name, secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("%s must be at least %d characters in %s environment (got %d)",
			name, minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("%s cannot be a common weak value", name)
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{}
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
