package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
}

// EventStore keeps events in memory and publishes them
type EventStore struct {
	mu        sync.RWMutex
	events    map[string][]Event // aggregateID -> events
	publisher Publisher
}

// NewEventStore creates an in-memory store. publisher may be nil.
func NewEventStore(publisher Publisher) *EventStore {
	return &EventStore{
		events:    make(map[string][]Event),
		publisher: publisher,
	}
}

// Append stores an event and publishes it
func (es *EventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	es.mu.Lock()
	version := len(es.events[aggregateID]) + 1
	event := Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       version,
	}
	es.events[aggregateID] = append(es.events[aggregateID], event)
	es.mu.Unlock()

	if es.publisher != nil {
		if err := es.publisher.Publish(ctx, aggregateID, event); err != nil {
			return nil, err
		}
	}

	return &event, nil
}

// GetEvents returns all events for an aggregate
func (es *EventStore) GetEvents(_ context.Context, aggregateID string) ([]Event, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return append([]Event(nil), es.events[aggregateID]...), nil
}

// GetAllEvents returns all events ordered by time
func (es *EventStore) GetAllEvents(_ context.Context) ([]Event, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	var all []Event
	for _, events := range es.events {
		all = append(all, events...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Timestamp.Before(all[j].Timestamp) })
	return all, nil
}
