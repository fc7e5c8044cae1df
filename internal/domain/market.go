package domain

import "time"

// PriceChange holds percentage price deltas per horizon. Nil means unknown.
type PriceChange struct {
	M5  *float64 `json:"m5,omitempty"`
	H1  *float64 `json:"h1,omitempty"`
	H6  *float64 `json:"h6,omitempty"`
	H24 *float64 `json:"h24,omitempty"`
}

// TxCount holds transaction counts (buys + sells) per horizon. Nil means unknown.
type TxCount struct {
	M5 *int `json:"m5,omitempty"`
	H1 *int `json:"h1,omitempty"`
}

// Market holds enrichment data from the market-data provider.
// Every field is optional; scoring treats nil as insufficient data.
type Market struct {
	FDV           *float64    `json:"fullyDilutedValue,omitempty"`
	LiquidityUSD  *float64    `json:"liquidityUsd,omitempty"`
	Volume24hUSD  *float64    `json:"volume24hUsd,omitempty"`
	PriceUSD      *float64    `json:"priceUsd,omitempty"`
	PriceChange   PriceChange `json:"priceChange"`
	Txns          TxCount     `json:"txCount"`
	PairCreatedAt *time.Time  `json:"pairCreatedAt,omitempty"`

	PairAddress string `json:"pairAddress,omitempty"`
	DexID       string `json:"dexId,omitempty"`
	URL         string `json:"url,omitempty"`
}

// EnrichedCandidate is a candidate plus whatever market data could be found.
// Market is nil when the candidate was not enriched.
type EnrichedCandidate struct {
	Candidate
	Market *Market `json:"market,omitempty"`
}

// MarketOrEmpty returns the market data or an empty value with all fields nil.
func (e EnrichedCandidate) MarketOrEmpty() Market {
	if e.Market == nil {
		return Market{}
	}
	return *e.Market
}
