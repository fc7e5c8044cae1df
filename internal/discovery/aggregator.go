// Package discovery merges candidate sources into one deduplicated list.
package discovery

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"token-radar/internal/domain"
	"token-radar/internal/observability"
)

// Buffer is the stream-side source of candidates, newest first.
type Buffer interface {
	Snapshot(n int) []domain.Candidate
}

// Poller fetches one page of recent listings.
type Poller interface {
	Poll(ctx context.Context) ([]domain.Candidate, error)
}

// Config holds aggregation limits.
type Config struct {
	MaxCandidates int // upper bound on Discover output (default 40)
	PollThreshold int // poll when the stream yields fewer than this (default 10)
	MinCandidates int // top up with synthetic entries below this (default 5)
}

// DefaultConfig returns the default aggregation limits.
func DefaultConfig() Config {
	return Config{
		MaxCandidates: 40,
		PollThreshold: 10,
		MinCandidates: 5,
	}
}

// Aggregator combines the stream buffer, a fallback poll and synthetic
// candidates.
type Aggregator struct {
	buffer    Buffer
	poller    Poller
	synthetic *Synthetic
	config    Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewAggregator creates an Aggregator. buffer, poller and synthetic may
// each be nil; a nil synthetic disables the fallback.
func NewAggregator(buffer Buffer, poller Poller, synthetic *Synthetic, config Config, logger *zap.Logger) *Aggregator {
	def := DefaultConfig()
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = def.MaxCandidates
	}
	if config.PollThreshold <= 0 {
		config.PollThreshold = def.PollThreshold
	}
	if config.MinCandidates <= 0 {
		config.MinCandidates = def.MinCandidates
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		buffer:    buffer,
		poller:    poller,
		synthetic: synthetic,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// Discover returns up to MaxCandidates distinct candidates, newest first,
// with synthetic entries last. It never fails; unavailable sources are
// skipped.
func (a *Aggregator) Discover(ctx context.Context) []domain.Candidate {
	var merged []domain.Candidate
	if a.buffer != nil {
		merged = append(merged, a.buffer.Snapshot(a.config.MaxCandidates)...)
	}
	streamCount := len(merged)

	if streamCount < a.config.PollThreshold && a.poller != nil {
		polled, err := a.poller.Poll(ctx)
		if err != nil {
			a.logger.Warn("listing poll failed", zap.Error(err))
		}
		merged = append(merged, polled...)
	}

	merged = Dedup(merged)

	if len(merged) < a.config.MinCandidates && a.synthetic != nil {
		missing := a.config.MinCandidates - len(merged)
		merged = append(merged, a.synthetic.Candidates(missing, a.now())...)
	}

	SortNewestFirst(merged)
	if len(merged) > a.config.MaxCandidates {
		merged = merged[:a.config.MaxCandidates]
	}

	counts := make(map[domain.Origin]int)
	for _, c := range merged {
		counts[c.Origin]++
	}
	for origin, n := range counts {
		observability.RecordCandidates(origin.String(), n)
	}

	a.logger.Debug("discovery complete",
		zap.Int("stream", streamCount),
		zap.Int("total", len(merged)),
		zap.Int("synthetic", counts[domain.OriginSynthetic]),
	)

	return merged
}

// Dedup drops candidates without an identifier and collapses entries that
// share a normalized key. The more complete entry wins; ties keep the
// earlier one. Output preserves first-occurrence order.
func Dedup(candidates []domain.Candidate) []domain.Candidate {
	index := make(map[string]int, len(candidates))
	out := make([]domain.Candidate, 0, len(candidates))

	for _, c := range candidates {
		if !c.HasIdentifier() {
			continue
		}
		key := c.Key()
		if i, ok := index[key]; ok {
			if c.Completeness() > out[i].Completeness() {
				out[i] = c
			}
			continue
		}
		index[key] = len(out)
		out = append(out, c)
	}
	return out
}

// SortNewestFirst orders by DiscoveredAt descending, synthetic entries last.
// The sort is stable.
func SortNewestFirst(candidates []domain.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := candidates[i].Origin.IsSynthetic(), candidates[j].Origin.IsSynthetic()
		if si != sj {
			return sj
		}
		return candidates[i].DiscoveredAt.After(candidates[j].DiscoveredAt)
	})
}
