package pipeline

import (
	"sort"
	"time"

	"token-radar/internal/domain"
)

// Default filter thresholds.
const (
	DefaultMaxFDV       = 5_000_000.0
	DefaultMinLiquidity = 1_000.0
	DefaultMaxAge       = 72 * time.Hour
)

// Filter drops tokens outside the configured bounds. Each bound is
// checked only when the token's field is known; a zero bound is off.
type Filter struct {
	MaxFDV       float64
	MinLiquidity float64
	MaxAge       time.Duration
}

// DefaultFilter returns the default bounds.
func DefaultFilter() Filter {
	return Filter{
		MaxFDV:       DefaultMaxFDV,
		MinLiquidity: DefaultMinLiquidity,
		MaxAge:       DefaultMaxAge,
	}
}

// Allows reports whether t passes every applicable bound.
func (f Filter) Allows(t domain.ScoredToken, now time.Time) bool {
	m := t.MarketOrEmpty()
	if f.MaxFDV > 0 && m.FDV != nil && *m.FDV > f.MaxFDV {
		return false
	}
	if f.MinLiquidity > 0 && m.LiquidityUSD != nil && *m.LiquidityUSD < f.MinLiquidity {
		return false
	}
	if f.MaxAge > 0 {
		if created, ok := createdAt(t.Candidate, m); ok && now.Sub(created) > f.MaxAge {
			return false
		}
	}
	return true
}

// Apply returns the tokens that pass, in input order.
func (f Filter) Apply(tokens []domain.ScoredToken, now time.Time) []domain.ScoredToken {
	out := make([]domain.ScoredToken, 0, len(tokens))
	for _, t := range tokens {
		if f.Allows(t, now) {
			out = append(out, t)
		}
	}
	return out
}

// createdAt prefers the pair creation time over the discovery time.
func createdAt(c domain.Candidate, m domain.Market) (time.Time, bool) {
	if m.PairCreatedAt != nil {
		return *m.PairCreatedAt, true
	}
	if !c.DiscoveredAt.IsZero() {
		return c.DiscoveredAt, true
	}
	return time.Time{}, false
}

// SortTokens orders by composite descending, then liquidity descending
// (unknown last), then normalized identifier ascending.
func SortTokens(tokens []domain.ScoredToken) {
	sort.SliceStable(tokens, func(i, j int) bool {
		a, b := tokens[i], tokens[j]
		if a.Composite != b.Composite {
			return a.Composite > b.Composite
		}
		la, lb := liquidity(a), liquidity(b)
		if la != lb {
			return la > lb
		}
		return a.Key() < b.Key()
	})
}

func liquidity(t domain.ScoredToken) float64 {
	if t.Market == nil || t.Market.LiquidityUSD == nil {
		return -1
	}
	return *t.Market.LiquidityUSD
}
