package memory

import (
	"context"
	"sync"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// RecallStore is an in-memory implementation of storage.RecallStore.
type RecallStore struct {
	mu      sync.RWMutex
	entries []domain.RecallEntry
	limit   int
}

// NewRecallStore creates an empty in-memory recall store.
func NewRecallStore() *RecallStore {
	return &RecallStore{limit: storage.RecallCap}
}

var _ storage.RecallStore = (*RecallStore)(nil)

// Load returns a copy of the stored entries, most recent first.
func (s *RecallStore) Load(_ context.Context) ([]domain.RecallEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.RecallEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Merge folds entries into the store.
func (s *RecallStore) Merge(_ context.Context, entries []domain.RecallEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = storage.MergeRecall(s.entries, entries, s.limit)
	return len(s.entries), nil
}
