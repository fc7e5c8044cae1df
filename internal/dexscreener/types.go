package dexscreener

import (
	"strconv"
	"time"

	"token-radar/internal/domain"
)

// TokenPairsResponse is the body of GET /latest/dex/tokens/{address}.
type TokenPairsResponse struct {
	SchemaVersion string `json:"schemaVersion"`
	Pairs         []Pair `json:"pairs"`
}

// Pair is one trading pair as reported by DexScreener.
type Pair struct {
	ChainID       string               `json:"chainId"`
	DexID         string               `json:"dexId"`
	URL           string               `json:"url"`
	PairAddress   string               `json:"pairAddress"`
	BaseToken     Token                `json:"baseToken"`
	QuoteToken    Token                `json:"quoteToken"`
	PriceUSD      string               `json:"priceUsd"`
	Txns          map[string]TxnCounts `json:"txns"`
	Volume        map[string]float64   `json:"volume"`
	PriceChange   map[string]float64   `json:"priceChange"`
	Liquidity     *Liquidity           `json:"liquidity"`
	FDV           *float64             `json:"fdv"`
	MarketCap     *float64             `json:"marketCap"`
	PairCreatedAt *int64               `json:"pairCreatedAt"` // unix ms
}

// Token identifies one side of a pair.
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// TxnCounts holds buys and sells for one horizon.
type TxnCounts struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

// Liquidity is the pooled value of a pair.
type Liquidity struct {
	USD   *float64 `json:"usd"`
	Base  float64  `json:"base"`
	Quote float64  `json:"quote"`
}

// LiquidityUSD returns the pair's USD liquidity or -1 when unknown.
func (p Pair) LiquidityUSD() float64 {
	if p.Liquidity == nil || p.Liquidity.USD == nil {
		return -1
	}
	return *p.Liquidity.USD
}

// BestPair returns the pair with the highest reported USD liquidity.
// Ties keep the earlier pair. ok is false when pairs is empty.
func BestPair(pairs []Pair) (best Pair, ok bool) {
	if len(pairs) == 0 {
		return Pair{}, false
	}
	best = pairs[0]
	for _, p := range pairs[1:] {
		if p.LiquidityUSD() > best.LiquidityUSD() {
			best = p
		}
	}
	return best, true
}

// ToMarket converts a pair into domain market data. Missing values stay nil.
func (p Pair) ToMarket() domain.Market {
	m := domain.Market{
		PairAddress: p.PairAddress,
		DexID:       p.DexID,
		URL:         p.URL,
	}

	switch {
	case p.FDV != nil:
		m.FDV = floatPtr(*p.FDV)
	case p.MarketCap != nil:
		m.FDV = floatPtr(*p.MarketCap)
	}

	if p.Liquidity != nil && p.Liquidity.USD != nil {
		m.LiquidityUSD = floatPtr(*p.Liquidity.USD)
	}
	if v, ok := p.Volume["h24"]; ok {
		m.Volume24hUSD = floatPtr(v)
	}
	if p.PriceUSD != "" {
		if price, err := strconv.ParseFloat(p.PriceUSD, 64); err == nil {
			m.PriceUSD = floatPtr(price)
		}
	}

	m.PriceChange = domain.PriceChange{
		M5:  lookup(p.PriceChange, "m5"),
		H1:  lookup(p.PriceChange, "h1"),
		H6:  lookup(p.PriceChange, "h6"),
		H24: lookup(p.PriceChange, "h24"),
	}

	if tx, ok := p.Txns["m5"]; ok {
		m.Txns.M5 = intPtr(tx.Buys + tx.Sells)
	}
	if tx, ok := p.Txns["h1"]; ok {
		m.Txns.H1 = intPtr(tx.Buys + tx.Sells)
	}

	if p.PairCreatedAt != nil && *p.PairCreatedAt > 0 {
		created := time.UnixMilli(*p.PairCreatedAt).UTC()
		m.PairCreatedAt = &created
	}

	return m
}

func lookup(m map[string]float64, key string) *float64 {
	v, ok := m[key]
	if !ok {
		return nil
	}
	return floatPtr(v)
}

func floatPtr(v float64) *float64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}
