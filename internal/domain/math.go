package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	// ValuePrecision is the number of decimals kept for loaded series values.
	ValuePrecision = 1
	// CompositePrecision is the number of decimals of composite series values.
	CompositePrecision = 2
)

var hundred = decimal.NewFromInt(100)

// RoundValue converts a raw series value to the one-decimal form the dashboard shows.
func RoundValue(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(ValuePrecision)
}

// FormatComposite renders a composite value with two fixed decimals.
func FormatComposite(d decimal.Decimal) string {
	return d.StringFixed(CompositePrecision)
}

// Contribution returns (value / 100) * impact, the share one indicator adds to a
// composite measure point.
func Contribution(value decimal.Decimal, impact float64) decimal.Decimal {
	if math.IsNaN(impact) || math.IsInf(impact, 0) {
		return decimal.Zero
	}
	return value.Div(hundred).Mul(decimal.NewFromFloat(impact))
}

// InSliderRange reports whether v is a finite value on the 0-100 slider scale.
func InSliderRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 100
}
