package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"token-radar/internal/domain"
	"token-radar/internal/observability"
)

// DefaultListingURL is the DexScreener latest token profiles endpoint.
const DefaultListingURL = "https://api.dexscreener.com/token-profiles/latest/v1"

// Fetcher is the subset of the resilient fetcher used by ListingPoller.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (json.RawMessage, error)
}

// ListingPoller reads a recent-listings endpoint. It accepts a bare array
// or an object wrapping one, and several field spellings per item.
type ListingPoller struct {
	fetcher Fetcher
	url     string
	chain   string
	now     func() time.Time
}

// NewListingPoller creates a poller for url restricted to chain.
// Items without a chain id are kept.
func NewListingPoller(fetcher Fetcher, url, chain string) *ListingPoller {
	if url == "" {
		url = DefaultListingURL
	}
	if chain == "" {
		chain = "solana"
	}
	return &ListingPoller{
		fetcher: fetcher,
		url:     url,
		chain:   chain,
		now:     time.Now,
	}
}

// Poll fetches and converts one listing page. Errors wrap fetch.ErrNoData
// when the upstream is unavailable.
func (p *ListingPoller) Poll(ctx context.Context) ([]domain.Candidate, error) {
	body, err := p.fetcher.Fetch(ctx, p.url)
	if err != nil {
		observability.RecordPoll("error")
		return nil, fmt.Errorf("poll listings: %w", err)
	}

	items, err := listingItems(body)
	if err != nil {
		observability.RecordPoll("malformed")
		return nil, fmt.Errorf("poll listings: %w", err)
	}

	polledAt := p.now().UTC()
	out := make([]domain.Candidate, 0, len(items))
	for _, item := range items {
		if item.ChainID != "" && !strings.EqualFold(item.ChainID, p.chain) {
			continue
		}
		c := item.candidate(polledAt)
		if !c.HasIdentifier() {
			continue
		}
		out = append(out, c)
	}

	observability.RecordPoll("success")
	return out, nil
}

type listingItem struct {
	Mint             string          `json:"mint"`
	TokenAddress     string          `json:"tokenAddress"`
	Address          string          `json:"address"`
	ChainID          string          `json:"chainId"`
	Name             string          `json:"name"`
	Symbol           string          `json:"symbol"`
	Description      string          `json:"description"`
	URI              string          `json:"uri"`
	URL              string          `json:"url"`
	CreatedTimestamp json.RawMessage `json:"created_timestamp"`
	CreatedAt        json.RawMessage `json:"createdAt"`
}

func (i listingItem) candidate(polledAt time.Time) domain.Candidate {
	id := firstNonEmpty(i.Mint, i.TokenAddress, i.Address)

	discovered, ok := parseTimestamp(i.CreatedTimestamp)
	if !ok {
		discovered, ok = parseTimestamp(i.CreatedAt)
	}
	if !ok {
		discovered = polledAt
	}

	return domain.Candidate{
		Identifier:   id,
		Name:         strings.TrimSpace(i.Name),
		Symbol:       strings.TrimSpace(i.Symbol),
		DiscoveredAt: discovered,
		Origin:       domain.OriginPoll,
		URI:          firstNonEmpty(i.URI, i.URL),
	}
}

// listingItems unwraps the list from the known envelope shapes.
func listingItems(body []byte) ([]listingItem, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty listing body")
	}

	if trimmed[0] == '[' {
		var items []listingItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode listing array: %w", err)
		}
		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decode listing envelope: %w", err)
	}
	for _, key := range []string{"coins", "data", "tokens", "items", "results"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var items []listingItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode listing %q: %w", key, err)
		}
		return items, nil
	}
	return nil, fmt.Errorf("listing envelope has no item list")
}

// parseTimestamp accepts unix seconds, unix milliseconds (number or string)
// and RFC 3339 strings.
func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return fromUnix(int64(n))
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fromUnix(v)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func fromUnix(v int64) (time.Time, bool) {
	switch {
	case v <= 0:
		return time.Time{}, false
	case v > 1_000_000_000_000:
		return time.UnixMilli(v).UTC(), true
	default:
		return time.Unix(v, 0).UTC(), true
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
