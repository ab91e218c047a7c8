package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/dferrin/lockbox/internal/config"
	"github.com/dferrin/lockbox/internal/models"
	"github.com/dferrin/lockbox/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lockoutConfig() config.LockoutConfig {
	return config.LockoutConfig{
		Window:    15 * time.Minute,
		Threshold: 5,
		Duration:  15 * time.Minute,
	}
}

func TestLockoutService_FirstFailureCreatesCounter(t *testing.T) {
	repo := NewMockLoginAttemptRepository()
	service := services.NewLockoutService(repo, lockoutConfig(), testLogger())

	attempts, lockedUntil, err := service.RecordFailure(context.Background(), "a@x.com")

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Nil(t, lockedUntil)
}

func TestLockoutService_LockAtThreshold(t *testing.T) {
	repo := NewMockLoginAttemptRepository()
	service := services.NewLockoutService(repo, lockoutConfig(), testLogger())
	ctx := context.Background()

	var lockedUntil *time.Time
	for i := 0; i < 5; i++ {
		var err error
		_, lockedUntil, err = service.RecordFailure(ctx, "a@x.com")
		require.NoError(t, err)
	}

	require.NotNil(t, lockedUntil, "fifth failure must trigger the lock")
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), *lockedUntil, 2*time.Second)

	locked, until, err := service.CheckLockout(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, locked)
	assert.NotNil(t, until)
}

func TestLockoutService_NotLockedBelowThreshold(t *testing.T) {
	repo := NewMockLoginAttemptRepository()
	service := services.NewLockoutService(repo, lockoutConfig(), testLogger())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _, err := service.RecordFailure(ctx, "a@x.com")
		require.NoError(t, err)
	}

	locked, _, err := service.CheckLockout(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestLockoutService_WindowExpiryResetsCounter(t *testing.T) {
	repo := NewMockLoginAttemptRepository()
	service := services.NewLockoutService(repo, lockoutConfig(), testLogger())

	// Four failures whose window started 16 minutes ago.
	stale := time.Now().Add(-16 * time.Minute)
	repo.Seed(&models.LoginAttempt{
		Email:          "a@x.com",
		Attempts:       4,
		FirstAttemptAt: stale,
		LastAttemptAt:  stale,
	})

	attempts, lockedUntil, err := service.RecordFailure(context.Background(), "a@x.com")

	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "failure outside the window must reset, not accumulate")
	assert.Nil(t, lockedUntil)
}

func TestLockoutService_FailureWithinWindowIncrements(t *testing.T) {
	repo := NewMockLoginAttemptRepository()
	service := services.NewLockoutService(repo, lockoutConfig(), testLogger())

	recent := time.Now().Add(-5 * time.Minute)
	repo.Seed(&models.LoginAttempt{
		Email:          "a@x.com",
		Attempts:       2,
		FirstAttemptAt: recent,
		LastAttemptAt:  recent,
	})

	attempts, _, err := service.RecordFailure(context.Background(), "a@x.com")

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestLockoutService_CheckLockout_ExpiredLockAllows(t *testing.T) {
	repo := NewMockLoginAttemptRepository()
	service := services.NewLockoutService(repo, lockoutConfig(), testLogger())

	past := time.Now().Add(-time.Minute)
	repo.Seed(&models.LoginAttempt{
		Email:          "a@x.com",
		Attempts:       5,
		FirstAttemptAt: time.Now().Add(-20 * time.Minute),
		LastAttemptAt:  time.Now().Add(-16 * time.Minute),
		LockedUntil:    &past,
	})

	locked, _, err := service.CheckLockout(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.False(t, locked, "an elapsed lock must no longer block logins")
}

func TestLockoutService_CheckLockout_UnknownEmailNotLocked(t *testing.T) {
	repo := NewMockLoginAttemptRepository()
	service := services.NewLockoutService(repo, lockoutConfig(), testLogger())

	locked, until, err := service.CheckLockout(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.False(t, locked)
	assert.Nil(t, until)
}

func TestLockoutService_RecordSuccessDeletesCounter(t *testing.T) {
	repo := NewMockLoginAttemptRepository()
	service := services.NewLockoutService(repo, lockoutConfig(), testLogger())
	ctx := context.Background()

	_, _, err := service.RecordFailure(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, repo.Exists("a@x.com"))

	require.NoError(t, service.RecordSuccess(ctx, "a@x.com"))
	assert.False(t, repo.Exists("a@x.com"))
}

func TestLockoutService_AttemptsLeft(t *testing.T) {
	service := services.NewLockoutService(NewMockLoginAttemptRepository(), lockoutConfig(), testLogger())

	assert.Equal(t, 4, service.AttemptsLeft(1))
	assert.Equal(t, 0, service.AttemptsLeft(5))
	assert.Equal(t, 0, service.AttemptsLeft(7))
}
