package domain

import "time"

// ScoreSnapshot is one token's score as recorded by one scan.
type ScoreSnapshot struct {
	ScanID         string         `json:"scanId"`
	ScannedAt      time.Time      `json:"scannedAt"`
	Identifier     string         `json:"identifier"`
	Symbol         string         `json:"symbol"`
	Origin         Origin         `json:"originSource"`
	Composite      int            `json:"compositeScore"`
	Recommendation Recommendation `json:"recommendation"`
	Archetype      Archetype      `json:"archetype"`
	Spiking        bool           `json:"spiking"`
	LayerScores    []int          `json:"layerScores"` // in layer order
	FDV            *float64       `json:"fullyDilutedValue,omitempty"`
	LiquidityUSD   *float64       `json:"liquidityUsd,omitempty"`
}

// NewScoreSnapshot projects a scored token for the given scan.
func NewScoreSnapshot(scanID string, scannedAt time.Time, t ScoredToken) ScoreSnapshot {
	m := t.MarketOrEmpty()
	layers := make([]int, len(t.Layers))
	for i, l := range t.Layers {
		layers[i] = l.Score
	}
	return ScoreSnapshot{
		ScanID:         scanID,
		ScannedAt:      scannedAt,
		Identifier:     t.Identifier,
		Symbol:         t.Symbol,
		Origin:         t.Origin,
		Composite:      t.Composite,
		Recommendation: t.Recommendation,
		Archetype:      t.Archetype,
		Spiking:        t.Spiking,
		LayerScores:    layers,
		FDV:            m.FDV,
		LiquidityUSD:   m.LiquidityUSD,
	}
}
