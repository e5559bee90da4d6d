// Package money provides the decimal arithmetic and directed-rounding
// primitives the tax engine builds on. Every tax-bearing value in this
// repository is a decimal.Decimal; float64 never appears on a money path.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Mode selects a directed rounding rule for RoundToStep.
type Mode int

const (
	// FloorStep rounds down to the nearest multiple of step.
	FloorStep Mode = iota
	// NearestStep rounds to the nearest multiple of step, half up.
	NearestStep
	// CeilStep rounds up to the nearest multiple of step.
	CeilStep
)

func (m Mode) String() string {
	switch m {
	case FloorStep:
		return "floor"
	case NearestStep:
		return "nearest"
	case CeilStep:
		return "ceil"
	default:
		return "unknown"
	}
}

// Zero is the decimal zero value, re-exported for callers that don't want
// to import shopspring/decimal directly.
var Zero = decimal.Zero

// FromInt builds a decimal from an integer CHF amount.
func FromInt(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// FromString parses a decimal literal, e.g. a YAML scalar like "0.0775".
func FromString(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("money: invalid decimal %q: %w", s, err)
	}
	return d, nil
}

// RoundToStep rounds amount to the nearest multiple of step (step > 0)
// using the given directed mode. It backs both the ESTV 0.05 final-tax
// rounding and the 100-unit taxable-income step-ceiling.
func RoundToStep(amount decimal.Decimal, step decimal.Decimal, mode Mode) decimal.Decimal {
	if step.IsZero() {
		return amount
	}
	quotient := amount.Div(step)
	var rounded decimal.Decimal
	switch mode {
	case FloorStep:
		rounded = quotient.Floor()
	case CeilStep:
		rounded = quotient.Ceil()
	case NearestStep:
		rounded = quotient.Round(0)
	default:
		rounded = quotient.Round(0)
	}
	return rounded.Mul(step)
}

// CeilToInt rounds amount up to the next multiple of the integer step,
// e.g. CeilToInt(income, 100) implements the federal taxable-income
// step-ceiling.
func CeilToInt(amount decimal.Decimal, step int64) decimal.Decimal {
	return RoundToStep(amount, decimal.NewFromInt(step), CeilStep)
}

// ESTVRound rounds a final tax amount down to the nearest `increment`
// (e.g. 0.05 for the federal rule), the directed floor rounding the
// Swiss tax authorities apply to a computed tax amount.
func ESTVRound(amount decimal.Decimal, increment decimal.Decimal) decimal.Decimal {
	if increment.IsZero() {
		return amount
	}
	return RoundToStep(amount, increment, FloorStep)
}

// ClampNonNegative returns zero if amount is negative, else amount
// unchanged. Used wherever negative income or deductions that overshoot
// income must be clamped to zero rather than going negative.
func ClampNonNegative(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// SafeDiv divides a by b, returning (result, true) or (zero, false) when
// b is zero, since decimal.Decimal panics on division by zero; callers
// (ROI, avg_rate) decide what a zero denominator means for them.
func SafeDiv(a, b decimal.Decimal) (decimal.Decimal, bool) {
	if b.IsZero() {
		return decimal.Zero, false
	}
	return a.Div(b), true
}
