// Package enrich attaches market data to discovered candidates.
package enrich

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"token-radar/internal/dexscreener"
	"token-radar/internal/domain"
	"token-radar/internal/observability"
)

// PairSource returns every trading pair for a token.
type PairSource interface {
	TokenPairs(ctx context.Context, address string) ([]dexscreener.Pair, error)
}

// Fabricator produces market data for synthetic candidates.
type Fabricator interface {
	Fabricate(now time.Time) *domain.Market
}

// Config bounds one enrichment call.
type Config struct {
	Limit       int // max candidates queried per call (default 20)
	Concurrency int // max in-flight queries (default 8)
}

// DefaultConfig returns the default enrichment bounds.
func DefaultConfig() Config {
	return Config{Limit: 20, Concurrency: 8}
}

// Stage enriches candidates concurrently.
type Stage struct {
	pairs      PairSource
	fabricator Fabricator
	config     Config
	logger     *zap.Logger
	now        func() time.Time
}

// NewStage creates a Stage. A nil fabricator leaves synthetic candidates
// without market data.
func NewStage(pairs PairSource, fabricator Fabricator, config Config, logger *zap.Logger) *Stage {
	def := DefaultConfig()
	if config.Limit <= 0 {
		config.Limit = def.Limit
	}
	if config.Concurrency <= 0 {
		config.Concurrency = def.Concurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stage{
		pairs:      pairs,
		fabricator: fabricator,
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
}

// Enrich returns one EnrichedCandidate per input, in input order. Up to
// Limit real candidates are queried; the rest, and every failed or empty
// lookup, carry a nil Market. Synthetic candidates are never queried.
func (s *Stage) Enrich(ctx context.Context, candidates []domain.Candidate) []domain.EnrichedCandidate {
	out := make([]domain.EnrichedCandidate, len(candidates))
	now := s.now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)

	queried := 0
	for i, c := range candidates {
		out[i] = domain.EnrichedCandidate{Candidate: c}

		switch {
		case c.Origin.IsSynthetic():
			if s.fabricator != nil {
				out[i].Market = s.fabricator.Fabricate(now)
			}
			observability.RecordEnrichment("synthetic")
			continue
		case !c.HasIdentifier():
			observability.RecordEnrichment("skipped")
			continue
		case queried >= s.config.Limit || s.pairs == nil:
			observability.RecordEnrichment("skipped")
			continue
		}
		queried++

		g.Go(func() error {
			s.enrichOne(gctx, &out[i])
			return nil
		})
	}

	// Workers never return errors.
	_ = g.Wait()
	return out
}

// enrichOne writes into its own slot only.
func (s *Stage) enrichOne(ctx context.Context, ec *domain.EnrichedCandidate) {
	pairs, err := s.pairs.TokenPairs(ctx, strings.TrimSpace(ec.Identifier))
	if err != nil {
		s.logger.Debug("enrichment failed",
			zap.String("identifier", ec.Identifier),
			zap.Error(err),
		)
		observability.RecordEnrichment("failed")
		return
	}

	best, ok := dexscreener.BestPair(pairs)
	if !ok {
		observability.RecordEnrichment("empty")
		return
	}

	market := best.ToMarket()
	ec.Market = &market
	if strings.TrimSpace(ec.Name) == "" {
		ec.Name = best.BaseToken.Name
	}
	if strings.TrimSpace(ec.Symbol) == "" {
		ec.Symbol = best.BaseToken.Symbol
	}
	observability.RecordEnrichment("enriched")
}
