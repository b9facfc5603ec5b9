// Package kv defines the key-value persistence port backing the snapshot
// store, with an in-memory implementation for tests and development and a
// SQLite implementation for durable sessions.
package kv

import (
	"context"
	"sync"
)

// Store is the persistence collaborator. Invalidation is always explicit:
// values never expire on their own.
type Store interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value, replacing any previous one.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes a key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Clear wipes every key, used when the remote session is voided.
	Clear(ctx context.Context) error
}

type Memory struct {
	mu    sync.Mutex
	items map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	out := append([]byte(nil), v...)
	return out, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string][]byte)
	return nil
}
