package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

const eventsSchema = `
CREATE TABLE IF NOT EXISTS events (
	id             UUID PRIMARY KEY,
	aggregate_id   TEXT NOT NULL,
	aggregate_type TEXT NOT NULL,
	event_type     TEXT NOT NULL,
	data           JSONB NOT NULL,
	version        INT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	UNIQUE (aggregate_id, version)
)`

// PostgresEventStore stores events in PostgreSQL
type PostgresEventStore struct {
	db        *sql.DB
	publisher Publisher
}

func NewPostgresEventStore(db *sql.DB, publisher Publisher) *PostgresEventStore {
	return &PostgresEventStore{
		db:        db,
		publisher: publisher,
	}
}

// EnsureSchema creates the events table if it does not exist
func (es *PostgresEventStore) EnsureSchema(ctx context.Context) error {
	if _, err := es.db.ExecContext(ctx, eventsSchema); err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}
	return nil
}

// Append stores an event in PostgreSQL and publishes it. The unique
// (aggregate_id, version) constraint rejects a concurrent writer that read
// the same version.
func (es *PostgresEventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var currentVersion int
	err = es.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM events WHERE aggregate_id = $1",
		aggregateID,
	).Scan(&currentVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to read version: %w", err)
	}

	event := Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       currentVersion + 1,
	}

	_, err = es.db.ExecContext(ctx,
		`INSERT INTO events (id, aggregate_id, aggregate_type, event_type, data, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID,
		event.AggregateID,
		event.AggregateType,
		event.EventType,
		event.Data,
		event.Version,
		event.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}

	if es.publisher != nil {
		if err := es.publisher.Publish(ctx, aggregateID, event); err != nil {
			return nil, err
		}
	}

	return &event, nil
}

// GetEvents returns all events for an aggregate from PostgreSQL
func (es *PostgresEventStore) GetEvents(ctx context.Context, aggregateID string) ([]Event, error) {
	rows, err := es.db.QueryContext(ctx,
		`SELECT id, aggregate_id, aggregate_type, event_type, data, version, created_at
		 FROM events
		 WHERE aggregate_id = $1
		 ORDER BY version ASC`,
		aggregateID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// GetAllEvents returns all events from PostgreSQL
func (es *PostgresEventStore) GetAllEvents(ctx context.Context) ([]Event, error) {
	rows, err := es.db.QueryContext(ctx,
		`SELECT id, aggregate_id, aggregate_type, event_type, data, version, created_at
		 FROM events
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &e.Data, &e.Version, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
