package cosmic

import (
	"math"
	"time"

	"token-radar/internal/domain"
)

const (
	// synodicMonth is the mean length of a lunation in days.
	synodicMonth = 29.530588853
)

// referenceNewMoon is a known new moon (2000-01-06 18:14 UTC).
var referenceNewMoon = time.Date(2000, time.January, 6, 18, 14, 0, 0, time.UTC)

// phaseOrder maps an eighth of the lunation to its name, starting at new moon.
var phaseOrder = [8]domain.MoonPhase{
	domain.MoonNew,
	domain.MoonWaxingCrescent,
	domain.MoonFirstQuarter,
	domain.MoonWaxingGibbous,
	domain.MoonFull,
	domain.MoonWaningGibbous,
	domain.MoonLastQuarter,
	domain.MoonWaningCrescent,
}

// MoonAge returns the days elapsed since the last new moon, in [0, synodicMonth).
func MoonAge(t time.Time) float64 {
	days := t.UTC().Sub(referenceNewMoon).Hours() / 24
	age := math.Mod(days, synodicMonth)
	if age < 0 {
		age += synodicMonth
	}
	return age
}

// MoonPhase returns the named phase and illumination percent for t.
// It is a pure function of t.
func MoonPhase(t time.Time) (domain.MoonPhase, int) {
	fraction := MoonAge(t) / synodicMonth

	idx := int(math.Floor(fraction*8+0.5)) % 8
	illumination := (1 - math.Cos(2*math.Pi*fraction)) / 2 * 100

	return phaseOrder[idx], int(math.Round(illumination))
}

// LevelForKp buckets a K-index value.
func LevelForKp(kp float64) domain.KpLevel {
	switch {
	case kp < 3:
		return domain.KpQuiet
	case kp < 4:
		return domain.KpModerate
	case kp < 5:
		return domain.KpActive
	default:
		return domain.KpStorm
	}
}
