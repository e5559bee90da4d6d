package calculation

import (
	"github.com/shopspring/decimal"
	"github.com/taxglide/taxglide/internal/domain"
	"github.com/taxglide/taxglide/internal/money"
)

// CantonalEvaluator evaluates a canton's progressive-portion bracket
// table with an optional high-income flat override.
type CantonalEvaluator struct {
	canton domain.Canton
}

// NewCantonalEvaluator builds an evaluator over a canton's brackets.
func NewCantonalEvaluator(canton domain.Canton) CantonalEvaluator {
	return CantonalEvaluator{canton: canton}
}

func (c CantonalEvaluator) roundToIncrement() decimal.Decimal {
	inc := c.canton.Rounding.TaxRoundTo
	if inc.IsZero() {
		return decimal.NewFromInt(1)
	}
	return inc
}

// taxableIncome applies the canton's taxable_step rule, but only if its
// rounding scope calls for it: cantonal evaluation does not step-ceil
// unless the canton's rounding policy says so.
func (c CantonalEvaluator) taxableIncome(income decimal.Decimal) decimal.Decimal {
	step := c.canton.Rounding.TaxableStep
	scope := c.canton.Rounding.Scope
	if step <= 0 || (scope != domain.ScopeTaxableOnly && scope != domain.ScopeBoth) {
		return income
	}
	return money.CeilToInt(income, step)
}

// SimpleTax implements cantonal_simple_tax(income, canton).
func (c CantonalEvaluator) SimpleTax(income decimal.Decimal) decimal.Decimal {
	income = money.ClampNonNegative(income)
	taxable := c.taxableIncome(income)

	if ov := c.canton.Override; ov != nil && taxable.GreaterThanOrEqual(ov.Threshold) {
		rate, _ := money.SafeDiv(ov.FlatPercent, decimal.NewFromInt(100))
		return money.ESTVRound(taxable.Mul(rate), c.roundToIncrement())
	}

	total := decimal.Zero
	for _, b := range c.canton.Brackets {
		upper := b.Upper()
		overlap := clamp(taxable, b.Lower, upper).Sub(b.Lower)
		if overlap.IsPositive() {
			rate, _ := money.SafeDiv(b.RatePercent, decimal.NewFromInt(100))
			total = total.Add(overlap.Mul(rate))
		}
	}
	return money.ESTVRound(total, c.roundToIncrement())
}

// BracketWindow returns the [lower, upper) window and fractional rate of
// the bracket covering income, for compare_brackets. When the override
// is active there is no discrete bracket, so a synthetic window from the
// threshold upward is reported.
func (c CantonalEvaluator) BracketWindow(income decimal.Decimal) domain.BracketWindow {
	income = money.ClampNonNegative(income)
	taxable := c.taxableIncome(income)

	if ov := c.canton.Override; ov != nil && taxable.GreaterThanOrEqual(ov.Threshold) {
		rate, _ := money.SafeDiv(ov.FlatPercent, decimal.NewFromInt(100))
		return domain.BracketWindow{From: ov.Threshold, RatePerUnit: rate}
	}
	for _, b := range c.canton.Brackets {
		upper := b.Upper()
		if taxable.GreaterThanOrEqual(b.Lower) && taxable.LessThan(upper) {
			rate, _ := money.SafeDiv(b.RatePercent, decimal.NewFromInt(100))
			u := upper
			return domain.BracketWindow{From: b.Lower, To: &u, RatePerUnit: rate}
		}
	}
	if len(c.canton.Brackets) > 0 {
		last := c.canton.Brackets[len(c.canton.Brackets)-1]
		rate, _ := money.SafeDiv(last.RatePercent, decimal.NewFromInt(100))
		return domain.BracketWindow{From: last.Lower, RatePerUnit: rate}
	}
	return domain.BracketWindow{}
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
