// Package scoring turns enriched candidates into ten-factor scores,
// a composite, a recommendation and an archetype.
package scoring

import (
	"math"
	"time"

	"token-radar/internal/domain"
)

// Weights of each layer in the composite, in layer order. They sum to 1.
var Weights = [10]float64{0.14, 0.14, 0.12, 0.08, 0.14, 0.06, 0.10, 0.08, 0.10, 0.04}

// Layer positions within ScoredToken.Layers.
const (
	idxMarketCap = iota
	idxLiquidity
	idxVolume
	idxAge
	idxMomentum
	idxTrend
	idxActivity
	idxTurnover
	idxRisk
	idxCosmic
)

const (
	spikeMinChange5m  = 5.0
	spikeMinTx5m      = 15
	spikeMinLiquidity = 70
)

// Engine scores candidates. It holds no state and reads no clock.
type Engine struct{}

// NewEngine creates a scoring engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Score computes the full breakdown for one candidate at time now.
// A nil market yields neutral scores for every market-derived factor.
func (e *Engine) Score(c domain.EnrichedCandidate, cosmic domain.CosmicSnapshot, now time.Time) domain.ScoredToken {
	m := c.MarketOrEmpty()

	layers := make([]domain.LayerScore, 10)
	layers[idxMarketCap] = scoreMarketCap(m)
	layers[idxLiquidity] = scoreLiquidity(m)
	layers[idxVolume] = scoreVolume(m)
	layers[idxAge] = scoreAge(c, m, now)
	layers[idxMomentum] = scoreMomentum(m)
	layers[idxTrend] = scoreTrend(m)
	layers[idxActivity] = scoreActivity(m)
	layers[idxTurnover] = scoreTurnover(m)
	layers[idxRisk] = scoreRisk(m, layers[idxLiquidity])
	layers[idxCosmic] = scoreCosmic(cosmic)

	composite := Composite(layers)
	f := factors{
		composite: composite,
		momentum:  layers[idxMomentum].Score,
		liquidity: layers[idxLiquidity].Score,
		flow:      layers[idxTurnover].Score,
		sentiment: 0.7*float64(layers[idxMomentum].Score) + 0.3*float64(layers[idxCosmic].Score),
	}

	return domain.ScoredToken{
		EnrichedCandidate: c,
		Layers:            layers,
		Composite:         composite,
		Recommendation:    recommend(f),
		Archetype:         classify(f),
		Spiking:           isSpiking(m, layers[idxLiquidity].Score),
	}
}

// ScoreAll scores every candidate with the same snapshot and time.
func (e *Engine) ScoreAll(cs []domain.EnrichedCandidate, cosmic domain.CosmicSnapshot, now time.Time) []domain.ScoredToken {
	out := make([]domain.ScoredToken, 0, len(cs))
	for _, c := range cs {
		out = append(out, e.Score(c, cosmic, now))
	}
	return out
}

// Composite returns the weighted sum of layers in [0,100]. Risk counts
// inverted. Layers must be in scoring order.
func Composite(layers []domain.LayerScore) int {
	var sum float64
	for i, l := range layers {
		if i >= len(Weights) {
			break
		}
		v := float64(l.Score)
		if i == idxRisk {
			v = 100 - v
		}
		sum += Weights[i] * v
	}
	return clamp(int(math.Round(sum)))
}

func isSpiking(m domain.Market, liquidityScore int) bool {
	if m.PriceChange.M5 == nil || m.Txns.M5 == nil {
		return false
	}
	return *m.PriceChange.M5 >= spikeMinChange5m &&
		*m.Txns.M5 >= spikeMinTx5m &&
		liquidityScore >= spikeMinLiquidity
}
