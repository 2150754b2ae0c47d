package kv

import (
	"context"
	"sync"
)

var _ Store = (*InMemory)(nil)

// InMemory is a process-local Store, used by tests and short-lived tools.
type InMemory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewInMemory creates an empty in-memory store
func NewInMemory() *InMemory {
	return &InMemory{
		values: make(map[string][]byte),
	}
}

func (m *InMemory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *InMemory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Copy so later mutation by the caller is not visible here
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *InMemory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

// Len returns the number of stored keys.
func (m *InMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
