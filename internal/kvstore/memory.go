package kvstore

import (
	"context"
	"sync"
)

// Memory is an in-memory Store
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]string),
	}
}

// Get retrieves a value by key
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[key]
	return value, ok, nil
}

// Set stores a value
func (m *Memory) Set(_ context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	return nil
}

// Remove deletes a key; removing a missing key is not an error
func (m *Memory) Remove(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Keys returns every stored key. Intended for tests and diagnostics.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}
