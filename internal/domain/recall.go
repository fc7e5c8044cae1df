package domain

import "time"

// RecallEntry is the persisted subset of a ScoredToken.
// Entries are keyed by the normalized identifier.
type RecallEntry struct {
	Identifier     string         `json:"identifier"`
	Name           string         `json:"name"`
	Symbol         string         `json:"symbol"`
	Origin         Origin         `json:"originSource"`
	Composite      int            `json:"compositeScore"`
	Recommendation Recommendation `json:"recommendation"`
	Archetype      Archetype      `json:"archetype"`
	Spiking        bool           `json:"spiking"`
	FDV            *float64       `json:"fullyDilutedValue,omitempty"`
	LiquidityUSD   *float64       `json:"liquidityUsd,omitempty"`
	PriceUSD       *float64       `json:"priceUsd,omitempty"`
	FirstSeenAt    time.Time      `json:"firstSeenAt"`
	LastSeenAt     time.Time      `json:"lastSeenAt"`
}

// Key returns the normalized identifier.
func (e RecallEntry) Key() string {
	return NormalizeKey(e.Identifier)
}

// NewRecallEntry projects a scored token seen at the given time.
func NewRecallEntry(t ScoredToken, seenAt time.Time) RecallEntry {
	m := t.MarketOrEmpty()
	return RecallEntry{
		Identifier:     t.Identifier,
		Name:           t.Name,
		Symbol:         t.Symbol,
		Origin:         t.Origin,
		Composite:      t.Composite,
		Recommendation: t.Recommendation,
		Archetype:      t.Archetype,
		Spiking:        t.Spiking,
		FDV:            m.FDV,
		LiquidityUSD:   m.LiquidityUSD,
		PriceUSD:       m.PriceUSD,
		FirstSeenAt:    seenAt,
		LastSeenAt:     seenAt,
	}
}
