package calculation

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/taxglide/taxglide/internal/domain"
	"github.com/taxglide/taxglide/internal/money"
)

// FederalEvaluator evaluates the federal marginal-bracket table. It
// holds a read-only borrow of the table it was built from; it never
// mutates it.
type FederalEvaluator struct {
	table domain.FederalTable
}

// NewFederalEvaluator builds an evaluator over a sorted, gap-free
// FederalTable. The table is assumed valid (checked at load time by
// internal/config); the evaluator does not re-validate it.
func NewFederalEvaluator(table domain.FederalTable) FederalEvaluator {
	return FederalEvaluator{table: table}
}

// segmentFor locates the segment covering i via binary search over the
// sorted, gap-free segment list.
func (f FederalEvaluator) segmentFor(i decimal.Decimal) (domain.FederalSegment, bool) {
	segs := f.table.Segments
	if len(segs) == 0 {
		return domain.FederalSegment{}, false
	}
	idx := sort.Search(len(segs), func(n int) bool {
		return i.LessThan(segs[n].From) || i.Equal(segs[n].From)
	})
	// idx is the first segment whose From is >= i. The covering segment is
	// either idx (if From == i) or idx-1.
	if idx < len(segs) && segs[idx].From.Equal(i) {
		return segs[idx], true
	}
	cand := idx - 1
	if cand < 0 {
		return domain.FederalSegment{}, false
	}
	if segs[cand].Contains(i) {
		return segs[cand], true
	}
	return domain.FederalSegment{}, false
}

// Tax implements federal_tax(income, filing_status)'s single-evaluator
// half. Negative income is clamped to zero.
func (f FederalEvaluator) Tax(income decimal.Decimal) decimal.Decimal {
	income = money.ClampNonNegative(income)
	step := f.table.Rounding.StepSize
	if step <= 0 {
		step = 100
	}
	mode := money.CeilStep
	if f.table.Rounding.StepMode == "floor" {
		mode = money.FloorStep
	}
	i := money.RoundToStep(income, decimal.NewFromInt(step), mode)

	seg, ok := f.segmentFor(i)
	if !ok {
		return decimal.Zero
	}
	if i.LessThan(seg.From) {
		return decimal.Zero
	}

	units, _ := money.SafeDiv(i.Sub(seg.AtIncome), decimal.NewFromInt(step))
	raw := seg.BaseTaxAt.Add(units.Mul(seg.Per100))

	roundTo := f.table.Rounding.TaxRound
	if roundTo.IsZero() {
		roundTo = decimal.NewFromFloat(0.05)
	}
	return money.ESTVRound(raw, roundTo)
}

// SegmentWindow returns the [from, to) window and per100 rate of the
// segment covering ceil_to(income, step), used by scan rows and
// compare_brackets.
func (f FederalEvaluator) SegmentWindow(income decimal.Decimal) domain.BracketWindow {
	income = money.ClampNonNegative(income)
	step := f.table.Rounding.StepSize
	if step <= 0 {
		step = 100
	}
	mode := money.CeilStep
	if f.table.Rounding.StepMode == "floor" {
		mode = money.FloorStep
	}
	i := money.RoundToStep(income, decimal.NewFromInt(step), mode)
	seg, ok := f.segmentFor(i)
	if !ok {
		return domain.BracketWindow{From: decimal.Zero, RatePerUnit: decimal.Zero}
	}
	return domain.BracketWindow{From: seg.From, To: seg.To, RatePerUnit: seg.Per100}
}

// StepSize exposes the configured federal taxable-income step (default
// 100), used by the 100-nudge calculation in the sweet-spot selector.
func (f FederalEvaluator) StepSize() int64 {
	if f.table.Rounding.StepSize <= 0 {
		return 100
	}
	return f.table.Rounding.StepSize
}
