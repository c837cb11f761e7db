package kvstore

import (
	"context"
	"sync"
)

// Memory is an in-process Store used for tests and single-node runs
// without external infrastructure.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

// Get returns the entry stored under key, or ErrNotFound.
func (m *Memory) Get(_ context.Context, key string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok {
		observe("memory", "get", ErrNotFound)
		return Entry{}, ErrNotFound
	}

	// Copy so callers cannot mutate the stored slice.
	value := make([]byte, len(entry.Value))
	copy(value, entry.Value)
	observe("memory", "get", nil)
	return Entry{Value: value, Version: entry.Version}, nil
}

// Put writes value under key, enforcing the version check when version >= 0.
func (m *Memory) Put(_ context.Context, key string, value []byte, version int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.entries[key].Version
	if version >= 0 && current != version {
		observe("memory", "put", ErrVersionConflict)
		return 0, ErrVersionConflict
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	next := current + 1
	m.entries[key] = Entry{Value: stored, Version: next}
	observe("memory", "put", nil)
	return next, nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	observe("memory", "delete", nil)
	return nil
}
