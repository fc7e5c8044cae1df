// Package dexscreener is a typed client for the DexScreener public API.
package dexscreener

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// DefaultBaseURL is the public DexScreener API root.
const DefaultBaseURL = "https://api.dexscreener.com"

// Fetcher is the subset of the resilient fetcher used by the client.
type Fetcher interface {
	FetchInto(ctx context.Context, rawURL string, v any) error
}

// Client queries DexScreener through a Fetcher.
type Client struct {
	fetcher Fetcher
	baseURL string
}

// NewClient creates a DexScreener client. An empty baseURL uses DefaultBaseURL.
func NewClient(fetcher Fetcher, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// TokenPairs returns all pairs that trade the given token address.
// Errors wrap fetch.ErrNoData.
func (c *Client) TokenPairs(ctx context.Context, address string) ([]Pair, error) {
	endpoint := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, url.PathEscape(address))

	var resp TokenPairsResponse
	if err := c.fetcher.FetchInto(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("token pairs %s: %w", address, err)
	}
	return resp.Pairs, nil
}

// BestMarket returns market data for the most liquid pair of address.
// ok is false when the token has no pairs.
func (c *Client) BestMarket(ctx context.Context, address string) (m Pair, ok bool, err error) {
	pairs, err := c.TokenPairs(ctx, address)
	if err != nil {
		return Pair{}, false, err
	}
	best, ok := BestPair(pairs)
	return best, ok, nil
}
