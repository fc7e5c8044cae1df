package domain

// MoonPhase is one of the eight named lunar phases.
type MoonPhase string

const (
	MoonNew            MoonPhase = "New Moon"
	MoonWaxingCrescent MoonPhase = "Waxing Crescent"
	MoonFirstQuarter   MoonPhase = "First Quarter"
	MoonWaxingGibbous  MoonPhase = "Waxing Gibbous"
	MoonFull           MoonPhase = "Full Moon"
	MoonWaningGibbous  MoonPhase = "Waning Gibbous"
	MoonLastQuarter    MoonPhase = "Last Quarter"
	MoonWaningCrescent MoonPhase = "Waning Crescent"
)

// KpLevel buckets the planetary K-index.
type KpLevel string

const (
	KpQuiet    KpLevel = "Quiet"
	KpModerate KpLevel = "Moderate"
	KpActive   KpLevel = "Active"
	KpStorm    KpLevel = "Storm"
)

// CosmicSnapshot is computed fresh for every scan.
type CosmicSnapshot struct {
	MoonPhase    MoonPhase `json:"moonPhase"`
	Illumination int       `json:"illumination"` // percent, 0-100
	KpIndex      float64   `json:"kpIndex"`      // 0-9
	KpLevel      KpLevel   `json:"kpLevel"`
	KpFallback   bool      `json:"kpFallback"` // true when the static fallback was used
}
