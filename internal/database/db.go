package database

import (
	"database/sql"
	"errors"

	"github.com/dferrin/lockbox/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dferrin/lockbox/internal/migrations"
)

func MapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	if pgErr, ok := err.(*pgconn.PgError); ok {
		switch pgErr.Code {
		case "23505": // unique_violation
			return models.ErrConflict
		case "23503": // foreign_key_violation
			return models.ErrBadRequest
		case "23502": // not_null_violation
			return models.ErrBadRequest
		}
	}

	return err
}

// Migrate applies the embedded goose migrations against the pool's database.
func (db *DB) Migrate() error {
	goose.SetBaseFS(migrations.Files)

	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer func(c *sql.DB) { _ = c.Close() }(sqlDB)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(sqlDB, ".")
}
