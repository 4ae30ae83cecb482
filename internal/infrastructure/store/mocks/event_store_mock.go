package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/example/rachana-boutique/internal/infrastructure/store"
	"github.com/google/uuid"
)

// MockEventStore is a mock implementation of EventStoreInterface for testing
type MockEventStore struct {
	mu     sync.RWMutex
	events map[string][]store.Event

	// For tracking calls in tests
	AppendCalls []AppendCall
	AppendErr   error
	GetErr      error
}

// AppendCall records parameters passed to Append
type AppendCall struct {
	AggregateID   string
	AggregateType string
	EventType     string
	Data          any
}

// NewMockEventStore creates a new MockEventStore
func NewMockEventStore() *MockEventStore {
	return &MockEventStore{
		events:      make(map[string][]store.Event),
		AppendCalls: make([]AppendCall, 0),
	}
}

// Append records the call and stores the event in memory
func (m *MockEventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*store.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendCalls = append(m.AppendCalls, AppendCall{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          data,
	})

	if m.AppendErr != nil {
		return nil, m.AppendErr
	}

	event, err := m.newEvent(aggregateID, aggregateType, eventType, data)
	if err != nil {
		return nil, err
	}
	m.events[aggregateID] = append(m.events[aggregateID], event)
	return &event, nil
}

// GetEvents returns events for an aggregate
func (m *MockEventStore) GetEvents(_ context.Context, aggregateID string) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return append([]store.Event(nil), m.events[aggregateID]...), nil
}

// GetAllEvents returns all events
func (m *MockEventStore) GetAllEvents(_ context.Context) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}

	var all []store.Event
	for _, events := range m.events {
		all = append(all, events...)
	}
	return all, nil
}

// AddEvent adds a single event without recording an Append call
func (m *MockEventStore) AddEvent(aggregateID, aggregateType, eventType string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, err := m.newEvent(aggregateID, aggregateType, eventType, data)
	if err != nil {
		return err
	}
	m.events[aggregateID] = append(m.events[aggregateID], event)
	return nil
}

// Reset clears all events and recorded calls
func (m *MockEventStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make(map[string][]store.Event)
	m.AppendCalls = make([]AppendCall, 0)
	m.AppendErr = nil
	m.GetErr = nil
}

func (m *MockEventStore) newEvent(aggregateID, aggregateType, eventType string, data any) (store.Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return store.Event{}, err
	}
	return store.Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       len(m.events[aggregateID]) + 1,
	}, nil
}
