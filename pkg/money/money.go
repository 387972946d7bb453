// Package money provides the fixed-precision decimal helpers shared by the
// ledger, allocator and debt engine. All monetary arithmetic in the core
// goes through these helpers so every component rounds the same way.
package money

import (
	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits carried by every monetary amount.
// ARS (and every other currency this core supports) is tracked at two
// fractional digits.
const Scale = 2

// Zero is the additive identity at the configured scale.
var Zero = decimal.Zero

// Round2 rounds d to Scale fractional digits using half-away-from-zero,
// matching how the allocator is required to round at each FIFO step.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Parse parses a decimal string, rounding to Scale. Used only at input
// boundaries (HTTP payloads, persisted string columns); internal arithmetic
// always works with decimal.Decimal directly.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return Round2(d), nil
}

// FromFloat converts a float64 (e.g. a JSON number) to a rounded decimal.
func FromFloat(f float64) decimal.Decimal {
	return Round2(decimal.NewFromFloat(f))
}

// IsPositive reports whether d is strictly greater than zero.
func IsPositive(d decimal.Decimal) bool {
	return d.IsPositive()
}

// Max returns the larger of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// MaxZero clamps d to a floor of zero (used for "balance = max(0, charge-paid)").
func MaxZero(d decimal.Decimal) decimal.Decimal {
	return Max(d, Zero)
}

// NormalizeRate accepts a rate given either as a fraction (<=1) or as a
// percentage (0-100) and always returns a fraction in [0,1], per the
// CommissionCalculator contract in spec §4.9.
func NormalizeRate(value decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	if value.LessThanOrEqual(one) {
		return value
	}
	return value.Div(decimal.NewFromInt(100))
}
