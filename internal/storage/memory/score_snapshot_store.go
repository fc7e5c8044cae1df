package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// ScoreSnapshotStore is an in-memory implementation of storage.ScoreSnapshotStore.
type ScoreSnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]domain.ScoreSnapshot // keyed by scan id
}

// NewScoreSnapshotStore creates a new in-memory snapshot store.
func NewScoreSnapshotStore() *ScoreSnapshotStore {
	return &ScoreSnapshotStore{data: make(map[string][]domain.ScoreSnapshot)}
}

var _ storage.ScoreSnapshotStore = (*ScoreSnapshotStore)(nil)

// InsertBulk appends one row per token.
func (s *ScoreSnapshotStore) InsertBulk(_ context.Context, scanID string, scannedAt time.Time, tokens []domain.ScoredToken) error {
	if scanID == "" {
		return storage.ErrInvalidInput
	}
	if len(tokens) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tokens {
		s.data[scanID] = append(s.data[scanID], domain.NewScoreSnapshot(scanID, scannedAt, t))
	}
	return nil
}

// GetByScan returns the rows of one scan, composite DESC.
func (s *ScoreSnapshotStore) GetByScan(_ context.Context, scanID string) ([]domain.ScoreSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.data[scanID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	out := make([]domain.ScoreSnapshot, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Composite > out[j].Composite
	})
	return out, nil
}
