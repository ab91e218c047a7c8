package background

import (
	"context"
	"log/slog"
	"time"
)

// SessionSweeper deletes expired session rows
type SessionSweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// CounterSweeper deletes stale failed-login counters
type CounterSweeper interface {
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupManager periodically removes expired sessions and stale login
// counters. The sweep is advisory: readers already treat expired rows as
// absent, so a missed run never affects correctness.
type CleanupManager struct {
	sessions     SessionSweeper
	counters     CounterSweeper
	interval     time.Duration
	counterGrace time.Duration
	logger       *slog.Logger
}

// NewCleanupManager creates a new CleanupManager. counterGrace is how long a
// login counter may sit untouched before it is eligible for removal; it must
// cover both the rolling window and the lockout duration.
func NewCleanupManager(sessions SessionSweeper, counters CounterSweeper, interval, counterGrace time.Duration, logger *slog.Logger) *CleanupManager {
	return &CleanupManager{
		sessions:     sessions,
		counters:     counters,
		interval:     interval,
		counterGrace: counterGrace,
		logger:       logger,
	}
}

// Start runs the sweep loop until ctx is cancelled. Call in a goroutine.
func (m *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("cleanup manager started", slog.Duration("interval", m.interval))

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("cleanup manager stopped")
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *CleanupManager) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	now := time.Now()

	sessions, err := m.sessions.DeleteExpired(sweepCtx, now)
	if err != nil {
		m.logger.Error("failed to sweep expired sessions", slog.Any("error", err))
	} else if sessions > 0 {
		m.logger.Info("swept expired sessions", slog.Int64("deleted", sessions))
	}

	counters, err := m.counters.DeleteStale(sweepCtx, now.Add(-m.counterGrace))
	if err != nil {
		m.logger.Error("failed to sweep stale login counters", slog.Any("error", err))
	} else if counters > 0 {
		m.logger.Info("swept stale login counters", slog.Int64("deleted", counters))
	}
}
