package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres implements Store on a single kv_entries table
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open connection. Call EnsureSchema once at startup.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the kv_entries table if it does not exist
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create kv_entries: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	var value string
	err := p.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if _, err := p.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}
