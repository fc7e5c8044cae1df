package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

func TestRecallStore_MergeAndLoad(t *testing.T) {
	store := NewRecallStore()
	ctx := context.Background()
	now := time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

	n, err := store.Merge(ctx, []domain.RecallEntry{
		{Identifier: "a", FirstSeenAt: now, LastSeenAt: now},
		{Identifier: "b", FirstSeenAt: now, LastSeenAt: now},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	later := now.Add(time.Hour)
	n, err = store.Merge(ctx, []domain.RecallEntry{
		{Identifier: "b", FirstSeenAt: later, LastSeenAt: later},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Identifier)
	assert.True(t, got[0].FirstSeenAt.Equal(now))
	assert.True(t, got[0].LastSeenAt.Equal(later))

	// Load returns a copy.
	got[0].Identifier = "mutated"
	again, _ := store.Load(ctx)
	assert.Equal(t, "b", again[0].Identifier)
}

func TestRecallStore_ConcurrentMergeBounded(t *testing.T) {
	store := NewRecallStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				var batch []domain.RecallEntry
				for j := 0; j < 20; j++ {
					batch = append(batch, domain.RecallEntry{Identifier: fmt.Sprintf("%d-%d-%d", w, i, j)})
				}
				_, err := store.Merge(ctx, batch)
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, storage.RecallCap)
}

func TestScoreSnapshotStore(t *testing.T) {
	store := NewScoreSnapshotStore()
	ctx := context.Background()
	now := time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

	tokens := []domain.ScoredToken{
		{EnrichedCandidate: domain.EnrichedCandidate{Candidate: domain.Candidate{Identifier: "low"}}, Composite: 30},
		{
			EnrichedCandidate: domain.EnrichedCandidate{Candidate: domain.Candidate{Identifier: "high"}},
			Composite:         80,
			Layers:            []domain.LayerScore{{Name: "Market Cap", Score: 95}},
		},
	}
	require.NoError(t, store.InsertBulk(ctx, "scan-1", now, tokens))

	got, err := store.GetByScan(ctx, "scan-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "high", got[0].Identifier)
	assert.Equal(t, []int{95}, got[0].LayerScores)

	_, err = store.GetByScan(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, store.InsertBulk(ctx, "", now, tokens), storage.ErrInvalidInput)
}
