package clickhouse

import (
	"context"
	"fmt"
	"time"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// ScoreSnapshotStore implements storage.ScoreSnapshotStore using ClickHouse.
type ScoreSnapshotStore struct {
	conn *Conn
}

// NewScoreSnapshotStore creates a new ScoreSnapshotStore.
func NewScoreSnapshotStore(conn *Conn) *ScoreSnapshotStore {
	return &ScoreSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ScoreSnapshotStore = (*ScoreSnapshotStore)(nil)

// InsertBulk appends one row per token in a single batch.
func (s *ScoreSnapshotStore) InsertBulk(ctx context.Context, scanID string, scannedAt time.Time, tokens []domain.ScoredToken) error {
	if scanID == "" {
		return storage.ErrInvalidInput
	}
	if len(tokens) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO token_scores (
			scan_id, scanned_at, identifier, symbol, origin, composite,
			recommendation, archetype, spiking, layer_scores, fdv, liquidity_usd
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range tokens {
		snap := domain.NewScoreSnapshot(scanID, scannedAt, t)
		layers := make([]uint8, len(snap.LayerScores))
		for i, v := range snap.LayerScores {
			layers[i] = uint8(v)
		}

		err = batch.Append(
			snap.ScanID, snap.ScannedAt.UTC(), snap.Identifier, snap.Symbol,
			string(snap.Origin), uint8(snap.Composite),
			string(snap.Recommendation), string(snap.Archetype), snap.Spiking,
			layers, snap.FDV, snap.LiquidityUSD,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByScan returns the rows of one scan ordered by composite DESC.
func (s *ScoreSnapshotStore) GetByScan(ctx context.Context, scanID string) ([]domain.ScoreSnapshot, error) {
	query := `
		SELECT scan_id, scanned_at, identifier, symbol, origin, composite,
		       recommendation, archetype, spiking, layer_scores, fdv, liquidity_usd
		FROM token_scores
		WHERE scan_id = ?
		ORDER BY composite DESC, identifier ASC
	`

	rows, err := s.conn.Query(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("query by scan id: %w", err)
	}
	defer rows.Close()

	snaps, err := scanScoreSnapshots(rows)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, storage.ErrNotFound
	}
	return snaps, nil
}

type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanScoreSnapshots(rows chRows) ([]domain.ScoreSnapshot, error) {
	var out []domain.ScoreSnapshot

	for rows.Next() {
		var (
			snap                   domain.ScoreSnapshot
			origin, rec, archetype string
			composite              uint8
			layers                 []uint8
		)
		err := rows.Scan(
			&snap.ScanID, &snap.ScannedAt, &snap.Identifier, &snap.Symbol, &origin, &composite,
			&rec, &archetype, &snap.Spiking, &layers, &snap.FDV, &snap.LiquidityUSD,
		)
		if err != nil {
			return nil, fmt.Errorf("scan token score row: %w", err)
		}

		snap.Origin = domain.Origin(origin)
		snap.Recommendation = domain.Recommendation(rec)
		snap.Archetype = domain.Archetype(archetype)
		snap.Composite = int(composite)
		snap.ScannedAt = snap.ScannedAt.UTC()
		snap.LayerScores = make([]int, len(layers))
		for i, v := range layers {
			snap.LayerScores[i] = int(v)
		}
		out = append(out, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token score rows: %w", err)
	}
	return out, nil
}
