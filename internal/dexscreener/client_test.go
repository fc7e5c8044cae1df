package dexscreener

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-radar/internal/fetch"
)

const pairsFixture = `{
  "schemaVersion": "1.0.0",
  "pairs": [
    {
      "chainId": "solana",
      "dexId": "raydium",
      "pairAddress": "PairLow",
      "baseToken": {"address": "MintA", "name": "Alpha", "symbol": "ALP"},
      "priceUsd": "0.00042",
      "liquidity": {"usd": 1200.5},
      "fdv": 9000
    },
    {
      "chainId": "solana",
      "dexId": "pumpswap",
      "url": "https://dexscreener.com/solana/pairhigh",
      "pairAddress": "PairHigh",
      "baseToken": {"address": "MintA", "name": "Alpha", "symbol": "ALP"},
      "priceUsd": "0.00045",
      "txns": {"m5": {"buys": 12, "sells": 8}, "h1": {"buys": 90, "sells": 40}},
      "volume": {"h24": 300000, "h1": 20000},
      "priceChange": {"m5": 9, "h1": 22.5, "h24": -3},
      "liquidity": {"usd": 65000, "base": 1, "quote": 2},
      "marketCap": 12000,
      "pairCreatedAt": 1704067200000
    }
  ]
}`

func TestClient_TokenPairs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/tokens/MintA", r.URL.Path)
		w.Write([]byte(pairsFixture))
	}))
	defer server.Close()

	client := NewClient(fetch.NewClient(), server.URL+"/")
	pairs, err := client.TokenPairs(context.Background(), "MintA")
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	best, ok := BestPair(pairs)
	require.True(t, ok)
	assert.Equal(t, "PairHigh", best.PairAddress)
}

func TestClient_BestMarket_NoPairs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"schemaVersion":"1.0.0","pairs":null}`))
	}))
	defer server.Close()

	client := NewClient(fetch.NewClient(), server.URL)
	_, ok, err := client.BestMarket(context.Background(), "Unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_TokenPairs_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>Cloudflare</html>"))
	}))
	defer server.Close()

	client := NewClient(fetch.NewClient(fetch.WithMaxAttempts(1)), server.URL)
	_, err := client.TokenPairs(context.Background(), "MintA")
	require.ErrorIs(t, err, fetch.ErrNoData)
}

func TestPair_ToMarket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pairsFixture))
	}))
	defer server.Close()

	client := NewClient(fetch.NewClient(), server.URL)
	best, ok, err := client.BestMarket(context.Background(), "MintA")
	require.NoError(t, err)
	require.True(t, ok)

	m := best.ToMarket()
	require.NotNil(t, m.FDV)
	assert.Equal(t, 12000.0, *m.FDV, "fdv falls back to market cap")
	require.NotNil(t, m.LiquidityUSD)
	assert.Equal(t, 65000.0, *m.LiquidityUSD)
	require.NotNil(t, m.Volume24hUSD)
	assert.Equal(t, 300000.0, *m.Volume24hUSD)
	require.NotNil(t, m.PriceUSD)
	assert.InDelta(t, 0.00045, *m.PriceUSD, 1e-12)
	require.NotNil(t, m.PriceChange.M5)
	assert.Equal(t, 9.0, *m.PriceChange.M5)
	assert.Nil(t, m.PriceChange.H6)
	require.NotNil(t, m.Txns.M5)
	assert.Equal(t, 20, *m.Txns.M5)
	require.NotNil(t, m.Txns.H1)
	assert.Equal(t, 130, *m.Txns.H1)
	require.NotNil(t, m.PairCreatedAt)
	assert.True(t, m.PairCreatedAt.Equal(time.UnixMilli(1704067200000)))
	assert.True(t, strings.HasSuffix(m.URL, "pairhigh"))
}

func TestPair_ToMarket_Empty(t *testing.T) {
	m := Pair{}.ToMarket()
	assert.Nil(t, m.FDV)
	assert.Nil(t, m.LiquidityUSD)
	assert.Nil(t, m.Volume24hUSD)
	assert.Nil(t, m.PriceUSD)
	assert.Nil(t, m.Txns.M5)
	assert.Nil(t, m.PairCreatedAt)
}

func TestBestPair_MissingLiquidity(t *testing.T) {
	liq := 10.0
	pairs := []Pair{
		{PairAddress: "NoLiq"},
		{PairAddress: "SomeLiq", Liquidity: &Liquidity{USD: &liq}},
	}
	best, ok := BestPair(pairs)
	require.True(t, ok)
	assert.Equal(t, "SomeLiq", best.PairAddress)

	_, ok = BestPair(nil)
	assert.False(t, ok)
}
