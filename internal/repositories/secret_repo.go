package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/dferrin/lockbox/internal/database"
	"github.com/dferrin/lockbox/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SecretRepository handles database operations for stored credentials
type SecretRepository struct {
	pool *pgxpool.Pool
}

func NewSecretRepository(db *database.DB) *SecretRepository {
	return &SecretRepository{pool: db.Pool}
}

func scanSecretRow(scanner rowScanner) (*models.Secret, error) {
	var secret models.Secret
	err := scanner.Scan(
		&secret.ID, &secret.UserID, &secret.Name, &secret.Ciphertext,
		&secret.CreatedAt, &secret.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &secret, nil
}

func scanSecretRows(rows pgx.Rows) ([]*models.Secret, error) {
	defer rows.Close()

	secrets := make([]*models.Secret, 0)

	for rows.Next() {
		secret, err := scanSecretRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan secret: %w", err)
		}
		secrets = append(secrets, secret)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return secrets, nil
}

func (r *SecretRepository) Create(ctx context.Context, secret *models.Secret) (*models.Secret, error) {
	secret.ID = uuid.New().String()
	now := time.Now()
	secret.CreatedAt = now
	secret.UpdatedAt = now

	query := `
		INSERT INTO secrets (id, user_id, name, ciphertext, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, name, ciphertext, created_at, updated_at
	`

	return scanSecretRow(r.pool.QueryRow(ctx, query,
		secret.ID, secret.UserID, secret.Name, secret.Ciphertext,
		secret.CreatedAt, secret.UpdatedAt,
	))
}

func (r *SecretRepository) GetByID(ctx context.Context, id string) (*models.Secret, error) {
	query := `
		SELECT id, user_id, name, ciphertext, created_at, updated_at
		FROM secrets WHERE id = $1
	`

	return scanSecretRow(r.pool.QueryRow(ctx, query, id))
}

func (r *SecretRepository) ListByOwner(ctx context.Context, userID string) ([]*models.Secret, error) {
	query := `
		SELECT id, user_id, name, ciphertext, created_at, updated_at
		FROM secrets WHERE user_id = $1
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query secrets: %w", err)
	}

	return scanSecretRows(rows)
}

func (r *SecretRepository) Update(ctx context.Context, secret *models.Secret) (*models.Secret, error) {
	secret.UpdatedAt = time.Now()

	query := `
		UPDATE secrets SET name = $1, ciphertext = $2, updated_at = $3
		WHERE id = $4
		RETURNING id, user_id, name, ciphertext, created_at, updated_at
	`

	return scanSecretRow(r.pool.QueryRow(ctx, query,
		secret.Name, secret.Ciphertext, secret.UpdatedAt, secret.ID,
	))
}

// DeleteByOwner removes a secret only when it belongs to userID. A missing
// or foreign row reports ErrNotFound; callers never learn which.
func (r *SecretRepository) DeleteByOwner(ctx context.Context, id, userID string) error {
	query := `DELETE FROM secrets WHERE id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
