package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
)`

// SQLite is a file-backed Store. It plays the part of browser local storage
// for the command line client.
type SQLite struct {
	db *sqlx.DB
}

// OpenSQLite creates or opens the database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM kv_entries WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value,
		   updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys in order
func (s *SQLite) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, `SELECT key FROM kv_entries ORDER BY key`); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}
