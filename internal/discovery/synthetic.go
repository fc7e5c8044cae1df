package discovery

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"token-radar/internal/domain"
	"token-radar/internal/mintid"
)

// SyntheticSuffix marks fabricated candidate names.
const SyntheticSuffix = " (synthetic)"

var syntheticNames = []struct{ name, symbol string }{
	{"Nebula Drift", "NDRIFT"},
	{"Lunar Pup", "LPUP"},
	{"Solar Flare", "FLARE"},
	{"Comet Cat", "CCAT"},
	{"Orbit Frog", "ORBF"},
	{"Quasar Ape", "QAPE"},
	{"Meteor Duck", "MDUCK"},
	{"Pulsar Pepe", "PPEPE"},
}

// Synthetic produces clearly labeled placeholder candidates and metrics.
// Identifiers are deterministic for a seed; fabricated market data is
// drawn from a seeded generator.
type Synthetic struct {
	seed string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthetic creates a synthetic source. randSeed drives fabricated metrics.
func NewSynthetic(seed string, randSeed uint64) *Synthetic {
	return &Synthetic{
		seed: seed,
		rng:  rand.New(rand.NewPCG(randSeed, randSeed^0x9e3779b97f4a7c15)),
	}
}

// Candidates returns n synthetic candidates discovered a minute apart
// ending at now. The i-th candidate is identical across calls apart from
// its timestamp.
func (s *Synthetic) Candidates(n int, now time.Time) []domain.Candidate {
	out := make([]domain.Candidate, 0, n)
	for i := 0; i < n; i++ {
		base := syntheticNames[i%len(syntheticNames)]
		name := base.name
		if round := i / len(syntheticNames); round > 0 {
			name = fmt.Sprintf("%s %d", base.name, round+1)
		}
		out = append(out, domain.Candidate{
			Identifier:   mintid.Synthetic(s.seed, i),
			Name:         name + SyntheticSuffix,
			Symbol:       base.symbol,
			DiscoveredAt: now.Add(-time.Duration(i) * time.Minute).UTC(),
			Origin:       domain.OriginSynthetic,
		})
	}
	return out
}

// Fabricate returns randomized market data for a synthetic candidate.
func (s *Synthetic) Fabricate(now time.Time) *domain.Market {
	s.mu.Lock()
	defer s.mu.Unlock()

	between := func(lo, hi float64) float64 {
		return lo + s.rng.Float64()*(hi-lo)
	}

	fdv := between(5_000, 400_000)
	liq := between(2_000, 120_000)
	vol := between(1_000, 600_000)
	price := fdv / 1_000_000_000
	m5 := between(-15, 20)
	h1 := between(-30, 60)
	h6 := between(-40, 120)
	h24 := between(-60, 300)
	tx5 := s.rng.IntN(60)
	tx1h := tx5*8 + s.rng.IntN(100)
	created := now.Add(-time.Duration(between(10, 48*60)) * time.Minute).UTC()

	return &domain.Market{
		FDV:          &fdv,
		LiquidityUSD: &liq,
		Volume24hUSD: &vol,
		PriceUSD:     &price,
		PriceChange: domain.PriceChange{
			M5:  &m5,
			H1:  &h1,
			H6:  &h6,
			H24: &h24,
		},
		Txns:          domain.TxCount{M5: &tx5, H1: &tx1h},
		PairCreatedAt: &created,
		DexID:         "synthetic",
	}
}
