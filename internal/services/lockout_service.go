package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dferrin/lockbox/internal/config"
	"github.com/dferrin/lockbox/internal/models"
)

// LoginAttemptRepository defines the interface for the failed-login counters
type LoginAttemptRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.LoginAttempt, error)
	Upsert(ctx context.Context, attempt *models.LoginAttempt) error
	Delete(ctx context.Context, email string) error
}

// LockoutService tracks failed logins per email and enforces progressive
// lockout. The counter read-modify-write is not atomic across two store
// calls; concurrent failures for the same email may under- or over-count by
// one, which is an accepted degradation.
type LockoutService struct {
	repo   LoginAttemptRepository
	config config.LockoutConfig
	logger *slog.Logger
}

// NewLockoutService creates a new LockoutService
func NewLockoutService(repo LoginAttemptRepository, cfg config.LockoutConfig, logger *slog.Logger) *LockoutService {
	return &LockoutService{
		repo:   repo,
		config: cfg,
		logger: logger,
	}
}

// CheckLockout reports whether logins for the email must be rejected right
// now, regardless of credential correctness. A missing counter means not
// locked; callers must not treat that as evidence the account exists.
func (s *LockoutService) CheckLockout(ctx context.Context, email string) (bool, *time.Time, error) {
	attempt, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil, nil
		}
		s.logger.Error("failed to check lockout", slog.Any("error", err))
		return false, nil, models.ErrInternalServer
	}

	if attempt.LockedUntil != nil && attempt.LockedUntil.After(time.Now()) {
		return true, attempt.LockedUntil, nil
	}

	return false, nil, nil
}

// RecordFailure registers a failed login and returns the updated attempt
// count plus the lock expiry, if this failure triggered one.
//
// A failure landing exactly on the window boundary counts as outside the
// window: the comparison is strictly greater-than, so the counter resets.
func (s *LockoutService) RecordFailure(ctx context.Context, email string) (int, *time.Time, error) {
	now := time.Now()

	attempt, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, models.ErrNotFound):
		attempt = &models.LoginAttempt{
			Email:          email,
			Attempts:       1,
			FirstAttemptAt: now,
			LastAttemptAt:  now,
		}
	case err != nil:
		s.logger.Error("failed to load login attempts", slog.Any("error", err))
		return 0, nil, models.ErrInternalServer
	case now.Sub(attempt.FirstAttemptAt) > s.config.Window:
		// Window expired, start fresh.
		attempt.Attempts = 1
		attempt.FirstAttemptAt = now
		attempt.LastAttemptAt = now
		attempt.LockedUntil = nil
	default:
		attempt.Attempts++
		attempt.LastAttemptAt = now
	}

	if attempt.Attempts >= s.config.Threshold {
		lockedUntil := now.Add(s.config.Duration)
		attempt.LockedUntil = &lockedUntil
		s.logger.Warn("account locked out",
			slog.Int("attempts", attempt.Attempts),
			slog.Time("locked_until", lockedUntil))
	}

	if err := s.repo.Upsert(ctx, attempt); err != nil {
		s.logger.Error("failed to record login failure", slog.Any("error", err))
		return 0, nil, models.ErrInternalServer
	}

	return attempt.Attempts, attempt.LockedUntil, nil
}

// RecordSuccess deletes the counter entirely; a successful login always
// resets the slate.
func (s *LockoutService) RecordSuccess(ctx context.Context, email string) error {
	if err := s.repo.Delete(ctx, email); err != nil {
		s.logger.Error("failed to reset login attempts", slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

// AttemptsLeft computes the failures remaining before lockout for the given
// attempt count, never going below zero.
func (s *LockoutService) AttemptsLeft(attempts int) int {
	left := s.config.Threshold - attempts
	if left < 0 {
		return 0
	}
	return left
}
