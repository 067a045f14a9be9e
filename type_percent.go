package coinjournal

import (
	"fmt"
	"math"
)

// Percent is a percentage value (5% is Percent(5)). It is the only
// floating-point type in the package: ratios leave decimal arithmetic here,
// at the formatting boundary.
type Percent float64

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := float64(p - q)
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}

func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", float64(p))
	if res == "+0.00%" {
		return "-"
	}
	return res
}

// Ratio returns the percent as a plain fraction (Percent(50).Ratio() == 0.5).
func (p Percent) Ratio() float64 { return float64(p) / 100 }

// sane maps NaN and infinities to zero. Every ratio the engine emits is
// guarded at the source, but the persistence layer treats non-finite
// numbers as corruption, so outputs pass through this before returning.
func sane(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// meanPercent averages a slice of percents, 0 for an empty slice.
func meanPercent(ps []Percent) Percent {
	if len(ps) == 0 {
		return 0
	}
	var sum float64
	for _, p := range ps {
		sum += float64(p)
	}
	return Percent(sum / float64(len(ps)))
}
