package repositories

import (
	"context"
	"time"

	"github.com/dferrin/lockbox/internal/database"
	"github.com/dferrin/lockbox/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository handles database operations for login sessions
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{pool: db.Pool}
}

func scanSessionRow(scanner rowScanner) (*models.Session, error) {
	var session models.Session
	err := scanner.Scan(
		&session.Token, &session.UserID, &session.CSRFSecret,
		&session.CreatedAt, &session.ExpiresAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &session, nil
}

func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (token, user_id, csrf_secret, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		session.Token, session.UserID, session.CSRFSecret,
		session.CreatedAt, session.ExpiresAt,
	)
	return database.MapPostgresError(err)
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT token, user_id, csrf_secret, created_at, expires_at
		FROM sessions WHERE token = $1
	`

	return scanSessionRow(r.pool.QueryRow(ctx, query, token))
}

// Delete removes a session row. Deleting a missing row is not an error;
// revocation is idempotent.
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	query := `DELETE FROM sessions WHERE token = $1`
	_, err := r.pool.Exec(ctx, query, token)
	return database.MapPostgresError(err)
}

// DeleteExpired removes sessions whose expiry has passed and returns the
// number of rows removed.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at <= $1`
	result, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
