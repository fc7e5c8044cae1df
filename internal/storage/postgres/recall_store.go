package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// recallLockKey serializes recall merges across processes.
const recallLockKey int64 = 0x7261646172 // "radar"

// RecallStore is a PostgreSQL implementation of storage.RecallStore.
// Recency is tracked by the seq column; the newest batch gets the highest
// values.
type RecallStore struct {
	pool  *Pool
	limit int
}

// NewRecallStore creates a new PostgreSQL recall store.
func NewRecallStore(pool *Pool) *RecallStore {
	return &RecallStore{pool: pool, limit: storage.RecallCap}
}

var _ storage.RecallStore = (*RecallStore)(nil)

// Load returns stored entries, most recent first.
func (s *RecallStore) Load(ctx context.Context) ([]domain.RecallEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT identifier, name, symbol, origin, composite, recommendation, archetype,
		       spiking, fdv, liquidity_usd, price_usd, first_seen_at, last_seen_at
		FROM recall_entries
		ORDER BY seq DESC
		LIMIT $1
	`, s.limit)
	if err != nil {
		return nil, fmt.Errorf("query recall entries: %w", err)
	}
	defer rows.Close()

	return scanRecallEntries(rows)
}

// Merge upserts entries and trims the table in one transaction held under
// an advisory lock.
func (s *RecallStore) Merge(ctx context.Context, entries []domain.RecallEntry) (int, error) {
	batch := storage.NormalizeBatch(entries)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, recallLockKey); err != nil {
		return 0, fmt.Errorf("acquire recall lock: %w", err)
	}

	if len(batch) > 0 {
		upsert := &pgx.Batch{}
		// Oldest first so batch[0] ends with the highest seq.
		for i := len(batch) - 1; i >= 0; i-- {
			e := batch[i]
			upsert.Queue(`
				INSERT INTO recall_entries (
					identifier_key, identifier, name, symbol, origin, composite,
					recommendation, archetype, spiking, fdv, liquidity_usd, price_usd,
					first_seen_at, last_seen_at, seq
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, nextval('recall_entries_seq'))
				ON CONFLICT (identifier_key) DO UPDATE
				SET identifier = EXCLUDED.identifier,
				    name = EXCLUDED.name,
				    symbol = EXCLUDED.symbol,
				    origin = EXCLUDED.origin,
				    composite = EXCLUDED.composite,
				    recommendation = EXCLUDED.recommendation,
				    archetype = EXCLUDED.archetype,
				    spiking = EXCLUDED.spiking,
				    fdv = EXCLUDED.fdv,
				    liquidity_usd = EXCLUDED.liquidity_usd,
				    price_usd = EXCLUDED.price_usd,
				    first_seen_at = LEAST(recall_entries.first_seen_at, EXCLUDED.first_seen_at),
				    last_seen_at = EXCLUDED.last_seen_at,
				    seq = EXCLUDED.seq
			`,
				e.Key(), e.Identifier, e.Name, e.Symbol, string(e.Origin), e.Composite,
				string(e.Recommendation), string(e.Archetype), e.Spiking,
				e.FDV, e.LiquidityUSD, e.PriceUSD,
				seenOrNow(e.FirstSeenAt), seenOrNow(e.LastSeenAt),
			)
		}
		if err := tx.SendBatch(ctx, upsert).Close(); err != nil {
			return 0, fmt.Errorf("upsert recall entries: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM recall_entries
		WHERE identifier_key NOT IN (
			SELECT identifier_key FROM recall_entries ORDER BY seq DESC LIMIT $1
		)
	`, s.limit)
	if err != nil {
		return 0, fmt.Errorf("trim recall entries: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM recall_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count recall entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return count, nil
}

func seenOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func scanRecallEntries(rows pgx.Rows) ([]domain.RecallEntry, error) {
	var out []domain.RecallEntry
	for rows.Next() {
		var (
			e                      domain.RecallEntry
			origin, rec, archetype string
		)
		err := rows.Scan(
			&e.Identifier, &e.Name, &e.Symbol, &origin, &e.Composite, &rec, &archetype,
			&e.Spiking, &e.FDV, &e.LiquidityUSD, &e.PriceUSD, &e.FirstSeenAt, &e.LastSeenAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan recall entry: %w", err)
		}
		e.Origin = domain.Origin(origin)
		e.Recommendation = domain.Recommendation(rec)
		e.Archetype = domain.Archetype(archetype)
		e.FirstSeenAt = e.FirstSeenAt.UTC()
		e.LastSeenAt = e.LastSeenAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recall entries: %w", err)
	}
	return out, nil
}
