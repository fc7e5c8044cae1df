// Package cosmic computes the lunar phase and reads the planetary K-index.
package cosmic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"token-radar/internal/domain"
	"token-radar/internal/observability"
)

// DefaultKpURL is the NOAA SWPC planetary K-index feed.
const DefaultKpURL = "https://services.swpc.noaa.gov/products/noaa-planetary-k-index.json"

// FallbackKp is used whenever the upstream value is unavailable.
const FallbackKp = 2.0

var errNoKpRows = errors.New("kp feed has no usable rows")

// Fetcher is the subset of the resilient fetcher used by the provider.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (json.RawMessage, error)
}

// Provider builds cosmic snapshots.
type Provider struct {
	fetcher Fetcher
	kpURL   string
	logger  *zap.Logger
}

// NewProvider creates a Provider. A nil fetcher always uses the Kp fallback.
func NewProvider(fetcher Fetcher, kpURL string, logger *zap.Logger) *Provider {
	if kpURL == "" {
		kpURL = DefaultKpURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		fetcher: fetcher,
		kpURL:   kpURL,
		logger:  logger,
	}
}

// Snapshot returns the moon phase for now and the latest Kp reading.
// It never fails: an unreachable Kp feed yields FallbackKp.
func (p *Provider) Snapshot(ctx context.Context, now time.Time) domain.CosmicSnapshot {
	phase, illumination := MoonPhase(now)

	kp, err := p.latestKp(ctx)
	fallback := false
	if err != nil {
		p.logger.Warn("kp unavailable, using fallback",
			zap.Float64("fallback", FallbackKp),
			zap.Error(err),
		)
		observability.RecordKpFallback()
		kp = FallbackKp
		fallback = true
	}

	return domain.CosmicSnapshot{
		MoonPhase:    phase,
		Illumination: illumination,
		KpIndex:      kp,
		KpLevel:      LevelForKp(kp),
		KpFallback:   fallback,
	}
}

func (p *Provider) latestKp(ctx context.Context) (float64, error) {
	if p.fetcher == nil {
		return 0, errors.New("no kp fetcher configured")
	}
	body, err := p.fetcher.Fetch(ctx, p.kpURL)
	if err != nil {
		return 0, err
	}
	return ParseKp(body)
}

// ParseKp extracts the most recent K-index from a NOAA feed body.
// Rows may be arrays (first row is a header) or objects; the last
// parseable row wins. The result is clamped to [0,9].
func ParseKp(body []byte) (float64, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return 0, fmt.Errorf("decode kp feed: %w", err)
	}

	for i := len(rows) - 1; i >= 0; i-- {
		kp, ok := kpFromRow(rows[i])
		if ok {
			return clampKp(kp), nil
		}
	}
	return 0, errNoKpRows
}

func kpFromRow(row json.RawMessage) (float64, bool) {
	trimmed := strings.TrimSpace(string(row))
	if trimmed == "" {
		return 0, false
	}

	switch trimmed[0] {
	case '[':
		var cols []any
		if err := json.Unmarshal(row, &cols); err != nil || len(cols) < 2 {
			return 0, false
		}
		return toFloat(cols[1])
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(row, &obj); err != nil {
			return 0, false
		}
		for _, key := range []string{"Kp", "kp", "kp_index", "estimated_kp"} {
			if v, ok := obj[key]; ok {
				return toFloat(v)
			}
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func clampKp(kp float64) float64 {
	if kp < 0 {
		return 0
	}
	if kp > 9 {
		return 9
	}
	return kp
}
