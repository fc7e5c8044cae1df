// Package pipeline runs one discovery scan end to end.
// It coordinates: cosmic → discovery → enrichment → scoring → filter → cache → recall
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"token-radar/internal/cache"
	"token-radar/internal/domain"
	"token-radar/internal/observability"
	"token-radar/internal/scoring"
	"token-radar/internal/storage"
)

// ScanCacheKey is the cache key shared by every scan request.
const ScanCacheKey = "scan"

// ErrNotConfigured is returned when a required stage is missing.
var ErrNotConfigured = errors.New("pipeline: scanner missing a required stage")

// Default scan limits.
const (
	DefaultResultCap     = 20
	DefaultFallbackCount = 5
)

// CosmicSource computes the per-scan cosmic snapshot.
type CosmicSource interface {
	Snapshot(ctx context.Context, now time.Time) domain.CosmicSnapshot
}

// Discoverer returns the candidates for one scan.
type Discoverer interface {
	Discover(ctx context.Context) []domain.Candidate
}

// Enricher attaches market data to candidates, preserving order.
type Enricher interface {
	Enrich(ctx context.Context, candidates []domain.Candidate) []domain.EnrichedCandidate
}

// Scorer scores enriched candidates.
type Scorer interface {
	ScoreAll(cs []domain.EnrichedCandidate, cosmic domain.CosmicSnapshot, now time.Time) []domain.ScoredToken
}

// FallbackSource fabricates labeled placeholder tokens when a scan
// produces nothing.
type FallbackSource interface {
	Candidates(n int, now time.Time) []domain.Candidate
	Fabricate(now time.Time) *domain.Market
}

// Scanner runs scans and serves recall lookups.
type Scanner struct {
	cosmic     CosmicSource
	discoverer Discoverer
	enricher   Enricher
	scorer     Scorer
	fallback   FallbackSource

	cache     *cache.Cache
	recall    storage.RecallStore
	snapshots storage.ScoreSnapshotStore

	filter        Filter
	resultCap     int
	fallbackCount int

	logger *zap.Logger
	now    func() time.Time
}

// Options for creating Scanner.
type Options struct {
	// Required stages
	Cosmic     CosmicSource
	Discoverer Discoverer
	Enricher   Enricher

	// Optional stages
	Scorer   Scorer         // defaults to scoring.NewEngine()
	Fallback FallbackSource // nil disables the empty-result fallback

	// Stores
	Cache     *cache.Cache               // defaults to an in-memory cache
	Recall    storage.RecallStore        // nil disables recall
	Snapshots storage.ScoreSnapshotStore // nil disables snapshots

	Filter        Filter
	ResultCap     int // default 20
	FallbackCount int // default 5

	Logger *zap.Logger
	Clock  func() time.Time
}

// New creates a new Scanner.
func New(opts Options) *Scanner {
	s := &Scanner{
		cosmic:        opts.Cosmic,
		discoverer:    opts.Discoverer,
		enricher:      opts.Enricher,
		scorer:        opts.Scorer,
		fallback:      opts.Fallback,
		cache:         opts.Cache,
		recall:        opts.Recall,
		snapshots:     opts.Snapshots,
		filter:        opts.Filter,
		resultCap:     opts.ResultCap,
		fallbackCount: opts.FallbackCount,
		logger:        opts.Logger,
		now:           opts.Clock,
	}
	if s.scorer == nil {
		s.scorer = scoring.NewEngine()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.cache == nil {
		s.cache = cache.New(nil, cache.DefaultTTL, s.logger)
	}
	if s.resultCap <= 0 {
		s.resultCap = DefaultResultCap
	}
	if s.fallbackCount <= 0 {
		s.fallbackCount = DefaultFallbackCount
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// RunScan returns the current scan result. Within the cache TTL every
// caller receives the same result; on a miss exactly one scan runs.
func (s *Scanner) RunScan(ctx context.Context) (*domain.ScanResult, error) {
	payload, hit, err := s.cache.GetOrLoad(ctx, ScanCacheKey, s.load)
	if err != nil {
		return nil, fmt.Errorf("run scan: %w", err)
	}

	var result domain.ScanResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode cached scan: %w", err)
	}
	s.logger.Debug("scan served",
		zap.String("scan_id", result.ScanID),
		zap.Bool("cache_hit", hit),
		zap.Int("tokens", len(result.Tokens)))
	return &result, nil
}

func (s *Scanner) load(ctx context.Context) ([]byte, error) {
	result, err := s.Scan(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode scan: %w", err)
	}
	return payload, nil
}

// Scan runs the full pipeline once, bypassing the cache.
// Phases:
//  1. Cosmic snapshot
//  2. Discover and enrich candidates
//  3. Score, filter, sort, truncate (or fall back to synthetic tokens)
//  4. Merge into recall and append score snapshots
//
// Upstream failures degrade the result instead of failing the scan. A
// panic inside a phase is returned as an error.
func (s *Scanner) Scan(ctx context.Context) (result *domain.ScanResult, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scan panicked", zap.Any("panic", r))
			result, err = nil, fmt.Errorf("scan panicked: %v", r)
		}
		status, n := "success", 0
		if err != nil {
			status = "error"
		} else {
			n = len(result.Tokens)
		}
		observability.RecordScan(status, time.Since(start).Seconds(), n)
	}()

	if s.cosmic == nil || s.discoverer == nil || s.enricher == nil {
		return nil, ErrNotConfigured
	}

	now := s.now().UTC()

	// Phase 1: Cosmic snapshot
	cosmic := s.cosmic.Snapshot(ctx, now)

	// Phase 2: Discovery and enrichment
	candidates := s.discoverer.Discover(ctx)
	enriched := s.enricher.Enrich(ctx, candidates)

	// Phase 3: Scoring and selection
	scored := s.scorer.ScoreAll(enriched, cosmic, now)
	tokens := s.filter.Apply(scored, now)
	if len(tokens) == 0 {
		tokens = s.fallbackTokens(cosmic, now)
		s.logger.Info("scan produced no tokens, using fallback",
			zap.Int("candidates", len(candidates)),
			zap.Int("fallback", len(tokens)))
	}
	SortTokens(tokens)
	if len(tokens) > s.resultCap {
		tokens = tokens[:s.resultCap]
	}

	result = &domain.ScanResult{
		ScanID:      uuid.NewString(),
		GeneratedAt: now,
		Tokens:      tokens,
		Cosmic:      cosmic,
	}

	// Phase 4: Persistence
	s.remember(ctx, result)
	s.snapshot(ctx, result)

	s.logger.Info("scan completed",
		zap.String("scan_id", result.ScanID),
		zap.Int("candidates", len(candidates)),
		zap.Int("scored", len(scored)),
		zap.Int("tokens", len(tokens)),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// fallbackTokens scores fabricated tokens. They skip the filter.
func (s *Scanner) fallbackTokens(cosmic domain.CosmicSnapshot, now time.Time) []domain.ScoredToken {
	if s.fallback == nil {
		return []domain.ScoredToken{}
	}
	candidates := s.fallback.Candidates(s.fallbackCount, now)
	enriched := make([]domain.EnrichedCandidate, len(candidates))
	for i, c := range candidates {
		enriched[i] = domain.EnrichedCandidate{Candidate: c, Market: s.fallback.Fabricate(now)}
	}
	return s.scorer.ScoreAll(enriched, cosmic, now)
}

// remember merges the non-synthetic tokens into recall. Failures are
// logged and never fail the scan.
func (s *Scanner) remember(ctx context.Context, result *domain.ScanResult) {
	if s.recall == nil {
		return
	}

	entries := make([]domain.RecallEntry, 0, len(result.Tokens))
	for _, t := range result.Tokens {
		if t.Origin.IsSynthetic() {
			continue
		}
		entries = append(entries, domain.NewRecallEntry(t, result.GeneratedAt))
	}
	if len(entries) == 0 {
		return
	}

	size, err := s.recall.Merge(ctx, entries)
	if err != nil {
		observability.RecordStorageError("recall", "merge")
		s.logger.Warn("recall merge failed",
			zap.String("scan_id", result.ScanID),
			zap.Int("entries", len(entries)),
			zap.Error(err))
		return
	}
	observability.SetRecallSize(size)
}

func (s *Scanner) snapshot(ctx context.Context, result *domain.ScanResult) {
	if s.snapshots == nil || len(result.Tokens) == 0 {
		return
	}
	if err := s.snapshots.InsertBulk(ctx, result.ScanID, result.GeneratedAt, result.Tokens); err != nil {
		observability.RecordStorageError("snapshots", "insert")
		s.logger.Warn("score snapshot insert failed",
			zap.String("scan_id", result.ScanID),
			zap.Error(err))
	}
}

// Recall returns up to limit recall entries, most recent first. limit is
// clamped to [1, storage.RecallCap]; a non-positive limit means all.
// An unreadable store yields an empty page.
func (s *Scanner) Recall(ctx context.Context, limit int) (domain.RecallPage, error) {
	page := domain.RecallPage{Tokens: []domain.RecallEntry{}}
	if s.recall == nil {
		return page, nil
	}

	limit = ClampRecallLimit(limit)
	entries, err := s.recall.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return page, fmt.Errorf("load recall: %w", ctx.Err())
		}
		observability.RecordStorageError("recall", "load")
		s.logger.Warn("recall load failed", zap.Error(err))
		return page, nil
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}
	page.Tokens = append(page.Tokens, entries...)
	page.Count = len(page.Tokens)
	return page, nil
}

// ClampRecallLimit maps a requested limit onto [1, storage.RecallCap].
func ClampRecallLimit(limit int) int {
	if limit <= 0 || limit > storage.RecallCap {
		return storage.RecallCap
	}
	return limit
}
