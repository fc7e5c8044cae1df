package storage

import (
	"context"
	"time"

	"token-radar/internal/domain"
)

// RecallStore persists the bounded history of scored tokens.
type RecallStore interface {
	// Load returns stored entries, most recent first, at most RecallCap.
	Load(ctx context.Context) ([]domain.RecallEntry, error)

	// Merge folds entries into the store using MergeRecall semantics and
	// returns the resulting entry count.
	Merge(ctx context.Context, entries []domain.RecallEntry) (int, error)
}

// ScoreSnapshotStore is an append-only log of per-scan scores.
type ScoreSnapshotStore interface {
	// InsertBulk records every token of one scan.
	InsertBulk(ctx context.Context, scanID string, scannedAt time.Time, tokens []domain.ScoredToken) error

	// GetByScan returns the snapshots of one scan ordered by composite DESC.
	// Returns ErrNotFound if the scan has no rows.
	GetByScan(ctx context.Context, scanID string) ([]domain.ScoreSnapshot, error)
}
