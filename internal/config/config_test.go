package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv() {
	os.Setenv("VAULT_KEY_A", "test-vault-key-a-16-chars-min!!")
	os.Setenv("VAULT_KEY_B", "test-vault-key-b-16-chars-min!!")
	os.Setenv("DB_PASSWORD", "test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv()
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"Session.TTL", cfg.Session.TTL, 24 * time.Hour},
		{"Session.CleanupInterval", cfg.Session.CleanupInterval, 1 * time.Hour},
		{"Lockout.Window", cfg.Lockout.Window, 15 * time.Minute},
		{"Lockout.Duration", cfg.Lockout.Duration, 15 * time.Minute},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}

	if cfg.Lockout.Threshold != 5 {
		t.Errorf("Lockout.Threshold: got %d, want 5", cfg.Lockout.Threshold)
	}
	if !cfg.Lockout.DiscloseAttempts {
		t.Error("Lockout.DiscloseAttempts should default to true outside production")
	}
}

func TestLoad_CustomLockoutValues(t *testing.T) {
	setRequiredEnv()
	os.Setenv("LOCKOUT_WINDOW", "10m")
	os.Setenv("LOCKOUT_THRESHOLD", "3")
	os.Setenv("LOCKOUT_DURATION", "30m")
	os.Setenv("LOCKOUT_DISCLOSE_ATTEMPTS", "false")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Lockout.Window != 10*time.Minute {
		t.Errorf("Lockout.Window: got %v, want 10m", cfg.Lockout.Window)
	}
	if cfg.Lockout.Threshold != 3 {
		t.Errorf("Lockout.Threshold: got %d, want 3", cfg.Lockout.Threshold)
	}
	if cfg.Lockout.Duration != 30*time.Minute {
		t.Errorf("Lockout.Duration: got %v, want 30m", cfg.Lockout.Duration)
	}
	if cfg.Lockout.DiscloseAttempts {
		t.Error("Lockout.DiscloseAttempts should be false when explicitly disabled")
	}
}

func TestLoad_MissingVaultKeys(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without vault keys")
	}
}

func TestLoad_IdenticalVaultKeys(t *testing.T) {
	os.Clearenv()
	os.Setenv("VAULT_KEY_A", "the-same-secret-value-here!!")
	os.Setenv("VAULT_KEY_B", "the-same-secret-value-here!!")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject identical vault keys")
	}
}

func TestLoad_WeakVaultKeyInProduction(t *testing.T) {
	os.Clearenv()
	os.Setenv("ENV", "production")
	os.Setenv("VAULT_KEY_A", "tooshort")
	os.Setenv("VAULT_KEY_B", "test-vault-key-b-32-characters!!")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject short vault key in production")
	}
}
