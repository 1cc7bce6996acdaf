package storage

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value      []byte
	ttl        time.Duration
	insertedAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.insertedAt) > e.ttl
}

// Memory is a process-local store with lazy expiry.
//
// Expired entries are detected on Get and stay in memory until they are
// overwritten or cleared; there is no background sweeper.
type Memory struct {
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithClock replaces time.Now as the source of insertion and expiry times.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Save stores a copy of value under key.
func (m *Memory) Save(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{
		value:      append([]byte(nil), value...),
		ttl:        ttl,
		insertedAt: m.now(),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
	return nil
}

// Get returns a copy of the value stored under key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || entry.expired(m.now()) {
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), entry.value...), nil
}

// Clear drops every entry.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ClearedKeys.WithLabelValues("memory").Add(float64(len(m.entries)))
	m.entries = make(map[string]memoryEntry)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
