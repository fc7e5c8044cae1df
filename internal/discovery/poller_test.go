package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	body string
	err  error
}

func (f stubFetcher) Fetch(ctx context.Context, rawURL string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.body), nil
}

func TestListingPoller_DexScreenerProfiles(t *testing.T) {
	body := `[
		{"chainId":"solana","tokenAddress":"MintOne","url":"https://dexscreener.com/solana/mintone"},
		{"chainId":"ethereum","tokenAddress":"0xabc"},
		{"chainId":"solana","tokenAddress":""}
	]`
	p := NewListingPoller(stubFetcher{body: body}, "", "")
	p.now = func() time.Time { return base }

	got, err := p.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "MintOne", got[0].Identifier)
	assert.True(t, got[0].DiscoveredAt.Equal(base), "missing timestamp uses poll time")
	assert.Equal(t, "https://dexscreener.com/solana/mintone", got[0].URI)
}

func TestListingPoller_PumpStyleEnvelope(t *testing.T) {
	body := `{"coins":[
		{"mint":"MintA","name":"Alpha","symbol":"ALP","created_timestamp":1760522400000},
		{"mint":"MintB","name":"Beta","symbol":"BET","createdAt":"2026-10-15T09:00:00Z"},
		{"mint":"MintC","created_timestamp":"1760522400"}
	]}`
	p := NewListingPoller(stubFetcher{body: body}, "http://listing", "solana")

	got, err := p.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Alpha", got[0].Name)
	assert.True(t, got[0].DiscoveredAt.Equal(time.UnixMilli(1760522400000)))
	assert.True(t, got[1].DiscoveredAt.Equal(time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)))
	assert.True(t, got[2].DiscoveredAt.Equal(time.Unix(1760522400, 0)))
}

func TestListingPoller_Errors(t *testing.T) {
	_, err := NewListingPoller(stubFetcher{err: errors.New("down")}, "", "").Poll(context.Background())
	assert.Error(t, err)

	_, err = NewListingPoller(stubFetcher{body: `{"unexpected":1}`}, "", "").Poll(context.Background())
	assert.Error(t, err)

	_, err = NewListingPoller(stubFetcher{body: `"string"`}, "", "").Poll(context.Background())
	assert.Error(t, err)
}
