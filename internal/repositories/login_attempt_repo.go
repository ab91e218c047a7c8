package repositories

import (
	"context"
	"time"

	"github.com/dferrin/lockbox/internal/database"
	"github.com/dferrin/lockbox/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LoginAttemptRepository handles database operations for the per-email
// failed-login counters
type LoginAttemptRepository struct {
	pool *pgxpool.Pool
}

func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{pool: db.Pool}
}

func scanLoginAttemptRow(scanner rowScanner) (*models.LoginAttempt, error) {
	var attempt models.LoginAttempt
	err := scanner.Scan(
		&attempt.Email, &attempt.Attempts,
		&attempt.FirstAttemptAt, &attempt.LastAttemptAt, &attempt.LockedUntil,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &attempt, nil
}

func (r *LoginAttemptRepository) GetByEmail(ctx context.Context, email string) (*models.LoginAttempt, error) {
	query := `
		SELECT email, attempts, first_attempt_at, last_attempt_at, locked_until
		FROM login_attempts WHERE email = $1
	`

	return scanLoginAttemptRow(r.pool.QueryRow(ctx, query, email))
}

// Upsert writes the counter state for an email, replacing any existing row.
func (r *LoginAttemptRepository) Upsert(ctx context.Context, attempt *models.LoginAttempt) error {
	query := `
		INSERT INTO login_attempts (email, attempts, first_attempt_at, last_attempt_at, locked_until)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET
			attempts = EXCLUDED.attempts,
			first_attempt_at = EXCLUDED.first_attempt_at,
			last_attempt_at = EXCLUDED.last_attempt_at,
			locked_until = EXCLUDED.locked_until
	`

	_, err := r.pool.Exec(ctx, query,
		attempt.Email, attempt.Attempts,
		attempt.FirstAttemptAt, attempt.LastAttemptAt, attempt.LockedUntil,
	)
	return database.MapPostgresError(err)
}

// Delete removes the counter for an email. Missing rows are not an error;
// a successful login always resets to a clean slate.
func (r *LoginAttemptRepository) Delete(ctx context.Context, email string) error {
	query := `DELETE FROM login_attempts WHERE email = $1`
	_, err := r.pool.Exec(ctx, query, email)
	return database.MapPostgresError(err)
}

// DeleteStale removes counters whose window and lock both ended before the
// cutoff. Advisory cleanup only.
func (r *LoginAttemptRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM login_attempts
		WHERE last_attempt_at <= $1 AND (locked_until IS NULL OR locked_until <= $1)
	`

	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
