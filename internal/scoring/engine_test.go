package scoring

import (
	"math"
	"testing"
	"time"

	"token-radar/internal/domain"
)

var now = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

func f64(v float64) *float64 { return &v }
func intp(v int) *int         { return &v }

var quietFull = domain.CosmicSnapshot{
	MoonPhase: domain.MoonFull,
	KpIndex:   2,
	KpLevel:   domain.KpQuiet,
}

func layerScore(t *testing.T, tok domain.ScoredToken, name string) int {
	t.Helper()
	l, ok := tok.Layer(name)
	if !ok {
		t.Fatalf("layer %q missing", name)
	}
	return l.Score
}

func TestEngine_SpikingScenario(t *testing.T) {
	created := now.Add(-20 * time.Minute)
	c := domain.EnrichedCandidate{
		Candidate: domain.Candidate{Identifier: "MintA", Origin: domain.OriginStream},
		Market: &domain.Market{
			FDV:           f64(12000),
			LiquidityUSD:  f64(65000),
			Volume24hUSD:  f64(300000),
			PriceChange:   domain.PriceChange{M5: f64(9)},
			Txns:          domain.TxCount{M5: intp(20)},
			PairCreatedAt: &created,
		},
	}

	tok := NewEngine().Score(c, quietFull, now)

	if got := layerScore(t, tok, LayerMarketCap); got < 90 {
		t.Errorf("Market Cap = %d, want >= 90", got)
	}
	if got := layerScore(t, tok, LayerLiquidity); got < 85 {
		t.Errorf("Liquidity = %d, want >= 85", got)
	}
	if got := layerScore(t, tok, LayerVolume); got != 85 {
		t.Errorf("Volume = %d, want 85", got)
	}
	if got := layerScore(t, tok, LayerAge); got != 95 {
		t.Errorf("Age = %d, want 95", got)
	}
	// 50 + 2.5*9
	if got := layerScore(t, tok, LayerMomentum); got != 73 {
		t.Errorf("Momentum = %d, want 73", got)
	}
	if got := layerScore(t, tok, LayerActivity); got != 85 {
		t.Errorf("Activity = %d, want 85", got)
	}
	if !tok.Spiking {
		t.Error("expected spiking")
	}
	if tok.Composite < 0 || tok.Composite > 100 {
		t.Errorf("Composite out of range: %d", tok.Composite)
	}
}

func TestEngine_NilMarket(t *testing.T) {
	c := domain.EnrichedCandidate{Candidate: domain.Candidate{Identifier: "MintB"}}

	tok := NewEngine().Score(c, quietFull, now)

	if len(tok.Layers) != 10 {
		t.Fatalf("layers = %d, want 10", len(tok.Layers))
	}
	for _, name := range []string{
		LayerMarketCap, LayerLiquidity, LayerVolume, LayerAge, LayerMomentum,
		LayerTrend, LayerActivity, LayerTurnover, LayerRisk,
	} {
		if got := layerScore(t, tok, name); got != Neutral {
			t.Errorf("%s = %d, want %d", name, got, Neutral)
		}
	}
	// Full moon +12, quiet +5.
	if got := layerScore(t, tok, LayerCosmic); got != 67 {
		t.Errorf("Cosmic = %d, want 67", got)
	}
	// 0.96*50 + 0.04*67 = 50.68
	if tok.Composite != 51 {
		t.Errorf("Composite = %d, want 51", tok.Composite)
	}
	if tok.Recommendation != domain.RecommendationWatch {
		t.Errorf("Recommendation = %s, want WATCH", tok.Recommendation)
	}
	if tok.Archetype != domain.ArchetypeSlowBurner {
		t.Errorf("Archetype = %s, want Slow Burner", tok.Archetype)
	}
	if tok.Spiking {
		t.Error("nil market must not spike")
	}
}

func TestEngine_AgeFallsBackToDiscovery(t *testing.T) {
	c := domain.EnrichedCandidate{Candidate: domain.Candidate{
		Identifier:   "MintC",
		DiscoveredAt: now.Add(-3 * time.Hour),
	}}
	tok := NewEngine().Score(c, quietFull, now)
	if got := layerScore(t, tok, LayerAge); got != 70 {
		t.Errorf("Age = %d, want 70", got)
	}
}

func TestEngine_LayerOrder(t *testing.T) {
	tok := NewEngine().Score(domain.EnrichedCandidate{}, domain.CosmicSnapshot{}, now)
	want := []string{
		LayerMarketCap, LayerLiquidity, LayerVolume, LayerAge, LayerMomentum,
		LayerTrend, LayerActivity, LayerTurnover, LayerRisk, LayerCosmic,
	}
	for i, name := range want {
		if tok.Layers[i].Name != name {
			t.Errorf("Layers[%d] = %s, want %s", i, tok.Layers[i].Name, name)
		}
	}
}

func TestEngine_Bounds(t *testing.T) {
	extremes := []float64{-1e9, -100, -20, 0, 0.5, 1, 1e3, 1e6, 1e12, math.Inf(1)}
	counts := []int{0, 1, 15, 1_000_000}
	cosmics := []domain.CosmicSnapshot{
		{MoonPhase: domain.MoonNew, KpLevel: domain.KpQuiet},
		{MoonPhase: domain.MoonWaningCrescent, KpLevel: domain.KpStorm},
	}

	e := NewEngine()
	for _, v := range extremes {
		for _, n := range counts {
			for _, cs := range cosmics {
				created := now.Add(time.Duration(v) * time.Second)
				c := domain.EnrichedCandidate{Market: &domain.Market{
					FDV:           f64(v),
					LiquidityUSD:  f64(v),
					Volume24hUSD:  f64(v),
					PriceChange:   domain.PriceChange{M5: f64(v), H1: f64(v), H6: f64(v), H24: f64(v)},
					Txns:          domain.TxCount{M5: intp(n), H1: intp(n)},
					PairCreatedAt: &created,
				}}
				tok := e.Score(c, cs, now)
				if tok.Composite < 0 || tok.Composite > 100 {
					t.Fatalf("Composite %d out of range for v=%v n=%d", tok.Composite, v, n)
				}
				for _, l := range tok.Layers {
					if l.Score < 0 || l.Score > 100 {
						t.Fatalf("%s = %d out of range for v=%v", l.Name, l.Score, v)
					}
				}
			}
		}
	}
}

func TestEngine_RiskPenalties(t *testing.T) {
	c := domain.EnrichedCandidate{Market: &domain.Market{
		LiquidityUSD: f64(500), // liquidity score 10
		PriceChange:  domain.PriceChange{M5: f64(-25), H1: f64(-35), H24: f64(-60)},
	}}
	tok := NewEngine().Score(c, quietFull, now)
	if got := layerScore(t, tok, LayerRisk); got != 100 {
		t.Errorf("Risk = %d, want 100 (clamped)", got)
	}

	c.Market.LiquidityUSD = f64(150_000) // liquidity score 95
	c.Market.PriceChange = domain.PriceChange{M5: f64(-25)}
	tok = NewEngine().Score(c, quietFull, now)
	if got := layerScore(t, tok, LayerRisk); got != 20 {
		t.Errorf("Risk = %d, want 20", got)
	}
}

func TestEngine_Deterministic(t *testing.T) {
	c := domain.EnrichedCandidate{Market: &domain.Market{FDV: f64(80_000), LiquidityUSD: f64(30_000)}}
	a := NewEngine().Score(c, quietFull, now)
	b := NewEngine().Score(c, quietFull, now)
	if a.Composite != b.Composite || a.Recommendation != b.Recommendation || a.Archetype != b.Archetype {
		t.Error("scoring is not deterministic")
	}
}

func TestWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, w := range Weights {
		sum += w
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("weights sum = %v", sum)
	}
}

func TestComposite_AllMax(t *testing.T) {
	layers := make([]domain.LayerScore, 10)
	for i := range layers {
		layers[i].Score = 100
	}
	layers[idxRisk].Score = 0
	if got := Composite(layers); got != 100 {
		t.Errorf("Composite = %d, want 100", got)
	}
}
