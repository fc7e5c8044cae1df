package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	entry   Entry
	expires time.Time
}

// MemoryBackend keeps entries in process memory.
type MemoryBackend struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

// NewMemoryBackend creates an in-memory backend. A nil clock uses time.Now.
func NewMemoryBackend(clock func() time.Time) *MemoryBackend {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryBackend{
		items: make(map[string]memoryItem),
		now:   clock,
	}
}

// Get returns the entry for key, or ErrMiss when absent or expired.
// Expired entries are evicted on access.
func (m *MemoryBackend) Get(ctx context.Context, key string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		return Entry{}, ErrMiss
	}
	if !m.now().Before(item.expires) {
		delete(m.items, key)
		return Entry{}, ErrMiss
	}
	return item.entry, nil
}

// Set stores a copy of entry until ttl elapses.
func (m *MemoryBackend) Set(ctx context.Context, entry Entry, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry.Payload = append([]byte(nil), entry.Payload...)
	m.items[entry.Key] = memoryItem{
		entry:   entry,
		expires: m.now().Add(ttl),
	}
	return nil
}
