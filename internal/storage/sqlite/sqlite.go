// Package sqlite is implementation of storage interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Rabinkhulimuli/blog-post-web-app/internal/storage"
)

type db struct {
	ext sqlx.ExtContext
}

type kvDTO struct {
	Key       string    `db:"key"`
	Value     []byte    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// New creates new instance of db.
func New(d *sql.DB) storage.Storage {
	return db{
		ext: sqlx.NewDb(d, "sqlite3"),
	}
}

func (s db) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	if err := sqlx.GetContext(ctx, s.ext, &v, `SELECT value FROM kv WHERE key = ?`, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return v, nil
}

func (s db) Set(ctx context.Context, key string, value []byte) error {
	kv := kvDTO{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}

	if _, err := sqlx.NamedExecContext(ctx, s.ext,
		`
			INSERT INTO kv(key, value, updated_at)
			VALUES(:key, :value, :updated_at)
			ON CONFLICT(key) DO UPDATE SET
			value=excluded.value, updated_at=excluded.updated_at
		`, kv,
	); err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}
