package scoring

import (
	"fmt"
	"math"
	"time"

	"token-radar/internal/domain"
)

// Layer names, in scoring order.
const (
	LayerMarketCap = "Market Cap"
	LayerLiquidity = "Liquidity"
	LayerVolume    = "Volume"
	LayerAge       = "Age"
	LayerMomentum  = "Momentum"
	LayerTrend     = "Trend"
	LayerActivity  = "Activity"
	LayerTurnover  = "Turnover"
	LayerRisk      = "Risk"
	LayerCosmic    = "Cosmic"
)

// Neutral is the score of a factor without enough data.
const Neutral = 50

const notAvailable = "n/a"

// band maps a threshold to a score. Bands are evaluated in order.
type band struct {
	limit float64
	score int
}

var (
	// FDV bands are upper bounds: smaller caps score higher.
	marketCapBands = []band{{15_000, 95}, {50_000, 85}, {150_000, 70}, {500_000, 50}}
	marketCapFloor = 25

	liquidityBands = []band{{100_000, 95}, {50_000, 85}, {20_000, 70}, {5_000, 50}, {1_000, 30}}
	liquidityFloor = 10

	volumeBands = []band{{500_000, 95}, {100_000, 85}, {25_000, 70}, {5_000, 50}, {1_000, 30}}
	volumeFloor = 10

	activityBands = []band{{50, 95}, {20, 85}, {10, 70}, {5, 55}, {1, 40}}
	activityFloor = 20

	turnoverBands = []band{{3, 90}, {1, 75}, {0.5, 60}, {0.1, 40}}
	turnoverFloor = 20
)

type ageBand struct {
	under time.Duration
	score int
}

// Very fresh pairs score below the 5-30 minute sweet spot.
var (
	ageBands = []ageBand{
		{5 * time.Minute, 80},
		{30 * time.Minute, 95},
		{2 * time.Hour, 85},
		{6 * time.Hour, 70},
		{24 * time.Hour, 50},
		{72 * time.Hour, 35},
	}
	ageFloor = 20
)

const (
	momentumGain = 2.5
	trendGain    = 1.0

	drawdown5mThreshold  = -20.0
	drawdown5mPenalty    = 15
	drawdown1hThreshold  = -30.0
	drawdown1hPenalty    = 15
	drawdown24hThreshold = -50.0
	drawdown24hPenalty   = 20
)

var moonBonus = map[domain.MoonPhase]int{
	domain.MoonNew:            15,
	domain.MoonWaxingCrescent: 10,
	domain.MoonFirstQuarter:   5,
	domain.MoonWaxingGibbous:  8,
	domain.MoonFull:           12,
	domain.MoonWaningGibbous:  -5,
	domain.MoonLastQuarter:    -8,
	domain.MoonWaningCrescent: -10,
}

var kpBonus = map[domain.KpLevel]int{
	domain.KpQuiet:    5,
	domain.KpModerate: 0,
	domain.KpActive:   -5,
	domain.KpStorm:    -12,
}

func atLeast(v float64, bands []band, floor int) int {
	for _, b := range bands {
		if v >= b.limit {
			return b.score
		}
	}
	return floor
}

func atMost(v float64, bands []band, floor int) int {
	for _, b := range bands {
		if v <= b.limit {
			return b.score
		}
	}
	return floor
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampRound(v float64) int {
	switch {
	case math.IsNaN(v):
		return Neutral
	case math.IsInf(v, 1):
		return 100
	case math.IsInf(v, -1):
		return 0
	}
	return clamp(int(math.Round(v)))
}

func scoreMarketCap(m domain.Market) domain.LayerScore {
	if m.FDV == nil || *m.FDV <= 0 {
		return neutral(LayerMarketCap)
	}
	return domain.LayerScore{
		Name:    LayerMarketCap,
		Score:   atMost(*m.FDV, marketCapBands, marketCapFloor),
		Display: formatUSD(*m.FDV),
	}
}

func scoreLiquidity(m domain.Market) domain.LayerScore {
	if m.LiquidityUSD == nil {
		return neutral(LayerLiquidity)
	}
	return domain.LayerScore{
		Name:    LayerLiquidity,
		Score:   atLeast(*m.LiquidityUSD, liquidityBands, liquidityFloor),
		Display: formatUSD(*m.LiquidityUSD),
	}
}

func scoreVolume(m domain.Market) domain.LayerScore {
	if m.Volume24hUSD == nil {
		return neutral(LayerVolume)
	}
	return domain.LayerScore{
		Name:    LayerVolume,
		Score:   atLeast(*m.Volume24hUSD, volumeBands, volumeFloor),
		Display: formatUSD(*m.Volume24hUSD),
	}
}

func scoreAge(c domain.EnrichedCandidate, m domain.Market, now time.Time) domain.LayerScore {
	var created time.Time
	switch {
	case m.PairCreatedAt != nil && !m.PairCreatedAt.IsZero():
		created = *m.PairCreatedAt
	case !c.DiscoveredAt.IsZero():
		created = c.DiscoveredAt
	default:
		return neutral(LayerAge)
	}

	age := now.Sub(created)
	if age < 0 {
		age = 0
	}
	score := ageFloor
	for _, b := range ageBands {
		if age < b.under {
			score = b.score
			break
		}
	}
	return domain.LayerScore{Name: LayerAge, Score: score, Display: formatAge(age)}
}

// blend weighs two optional values; a single available value is used alone.
func blend(a, b *float64, wa, wb float64) (float64, bool) {
	switch {
	case a != nil && b != nil:
		return wa**a + wb**b, true
	case a != nil:
		return *a, true
	case b != nil:
		return *b, true
	default:
		return 0, false
	}
}

func scoreMomentum(m domain.Market) domain.LayerScore {
	v, ok := blend(m.PriceChange.M5, m.PriceChange.H1, 0.6, 0.4)
	if !ok {
		return neutral(LayerMomentum)
	}
	return domain.LayerScore{
		Name:    LayerMomentum,
		Score:   clampRound(Neutral + momentumGain*v),
		Display: formatPct(v),
	}
}

func scoreTrend(m domain.Market) domain.LayerScore {
	v, ok := blend(m.PriceChange.H6, m.PriceChange.H24, 0.5, 0.5)
	if !ok {
		return neutral(LayerTrend)
	}
	return domain.LayerScore{
		Name:    LayerTrend,
		Score:   clampRound(Neutral + trendGain*v),
		Display: formatPct(v),
	}
}

func scoreActivity(m domain.Market) domain.LayerScore {
	var tx float64
	switch {
	case m.Txns.M5 != nil:
		tx = float64(*m.Txns.M5)
	case m.Txns.H1 != nil:
		tx = float64(*m.Txns.H1) / 12
	default:
		return neutral(LayerActivity)
	}
	return domain.LayerScore{
		Name:    LayerActivity,
		Score:   atLeast(tx, activityBands, activityFloor),
		Display: fmt.Sprintf("%.0f tx/5m", tx),
	}
}

func scoreTurnover(m domain.Market) domain.LayerScore {
	if m.Volume24hUSD == nil || m.LiquidityUSD == nil || *m.LiquidityUSD <= 0 {
		return neutral(LayerTurnover)
	}
	ratio := *m.Volume24hUSD / *m.LiquidityUSD
	return domain.LayerScore{
		Name:    LayerTurnover,
		Score:   atLeast(ratio, turnoverBands, turnoverFloor),
		Display: fmt.Sprintf("%.2fx", ratio),
	}
}

// scoreRisk is higher for riskier tokens.
func scoreRisk(m domain.Market, liquidity domain.LayerScore) domain.LayerScore {
	risk := 100 - liquidity.Score
	flags := 0
	pc := m.PriceChange
	if pc.M5 != nil && *pc.M5 <= drawdown5mThreshold {
		risk += drawdown5mPenalty
		flags++
	}
	if pc.H1 != nil && *pc.H1 <= drawdown1hThreshold {
		risk += drawdown1hPenalty
		flags++
	}
	if pc.H24 != nil && *pc.H24 <= drawdown24hThreshold {
		risk += drawdown24hPenalty
		flags++
	}

	display := "no drawdown"
	if flags > 0 {
		display = fmt.Sprintf("%d drawdown flag(s)", flags)
	}
	return domain.LayerScore{Name: LayerRisk, Score: clamp(risk), Display: display}
}

func scoreCosmic(cosmic domain.CosmicSnapshot) domain.LayerScore {
	score := Neutral + moonBonus[cosmic.MoonPhase] + kpBonus[cosmic.KpLevel]
	display := fmt.Sprintf("%s, Kp %.1f", cosmic.MoonPhase, cosmic.KpIndex)
	if cosmic.MoonPhase == "" {
		display = notAvailable
	}
	return domain.LayerScore{Name: LayerCosmic, Score: clamp(score), Display: display}
}

func neutral(name string) domain.LayerScore {
	return domain.LayerScore{Name: name, Score: Neutral, Display: notAvailable}
}

func formatUSD(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("$%.2fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.1fK", v/1_000)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

func formatPct(v float64) string {
	return fmt.Sprintf("%+.1f%%", v)
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%.1fh", d.Hours())
	default:
		return fmt.Sprintf("%.1fd", d.Hours()/24)
	}
}
