// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/rent-finance/pkg/constants"
	"github.com/shopspring/decimal"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Halves round away from zero.
func Round(val float64) float64 {
	return RoundTo(val, constants.DecimalPlaces)
}

// RoundTo rounds a value to the given number of decimal places.
func RoundTo(val float64, places int32) float64 {
	if !IsFinite(val) {
		return val
	}
	return decimal.NewFromFloat(val).Round(places).InexactFloat64()
}

// FloorCurrency floors a value to whole currency units after removing
// sub-cent binary noise, so 89999.99999999999 floors to 90000.
func FloorCurrency(val float64) float64 {
	return math.Floor(Round(val))
}

// CeilCurrency is the ceiling counterpart of FloorCurrency.
func CeilCurrency(val float64) float64 {
	return math.Ceil(Round(val))
}

// IsFinite reports whether val is neither NaN nor an infinity.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// FiniteOrZero replaces NaN and infinities with 0.
func FiniteOrZero(val float64) float64 {
	if IsFinite(val) {
		return val
	}
	return 0
}

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.CurrencyTolerance
}

// IsPositive checks if a value is positive (greater than tolerance)
func IsPositive(val float64) bool {
	return val > constants.CurrencyTolerance
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// Clamp bounds value to [min, max]. NaN clamps to min.
func Clamp(value, min, max float64) float64 {
	if math.IsNaN(value) || value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * constants.PercentageMultiplier
}

// ApplyPercentage applies a percentage to a value
func ApplyPercentage(value, percentage float64) float64 {
	return value * (percentage / constants.PercentageMultiplier)
}
