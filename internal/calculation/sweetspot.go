package calculation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/taxglide/taxglide/internal/domain"
	"github.com/taxglide/taxglide/internal/money"
)

// SelectSweetSpot implements select_sweet_spot(rows, plateau,
// baseline_breakdown, incomes, multipliers_applied) -> SweetSpot. The
// chosen deduction is the plateau's right endpoint (max_d), the
// conservative choice under income uncertainty. An empty plateau (the
// best ROI among d > 0 is negative) collapses to d* = 0 instead: a
// deduction is never worth suggesting if even its best point loses money.
func (k Kernel) SelectSweetSpot(
	rows []domain.ScanRow,
	plateau domain.PlateauReport,
	baseline domain.TaxBreakdown,
	incomeSG, incomeFed decimal.Decimal,
) domain.SweetSpot {
	if rMax, _, found := maxROI(rows); !found || rMax.IsNegative() {
		return emptySweetSpot(baseline, incomeSG, incomeFed)
	}

	dStar := plateau.MaxD
	row := findRow(rows, dStar)
	if row == nil {
		return emptySweetSpot(baseline, incomeSG, incomeFed)
	}

	taxSaved := baseline.Total.Sub(row.TotalTax)
	taxSavedPercent := decimal.Zero
	if pct, ok := money.SafeDiv(taxSaved.Mul(decimal.NewFromInt(100)), baseline.Total); ok {
		taxSavedPercent = pct
	}

	bracketChanged := k.federalBracketChanged(incomeFed, dStar)

	marginal := row.ROIPercent
	if row.LocalMarginalPercent != nil {
		marginal = *row.LocalMarginalPercent
	}

	explanation := sweetSpotExplanation(dStar, taxSaved, bracketChanged)

	return domain.SweetSpot{
		Deduction:        dStar,
		NewIncome:        row.NewIncome,
		NewIncomeSG:      row.NewIncomeSG,
		NewIncomeFed:     row.NewIncomeFed,
		TotalTaxAtSpot:   row.TotalTax,
		FederalTaxAtSpot: row.Federal,
		SgTaxAtSpot:      row.SgAfterMultipliers,
		Baseline: domain.BaselineInfo{
			TotalTax:   baseline.Total,
			FederalTax: baseline.Federal,
			SgTax:      baseline.SgAfterMultipliers,
		},
		TaxSavedAbsolute: taxSaved,
		TaxSavedPercent:  taxSavedPercent,
		Explanation:      explanation,
		IncomeDetails: domain.IncomeDetails{
			OriginalSG:        incomeSG,
			OriginalFed:       incomeFed,
			AfterDeductionSG:  row.NewIncomeSG,
			AfterDeductionFed: row.NewIncomeFed,
		},
		Multipliers: domain.MultiplierInfo{
			Applied:      baseline.PicksApplied,
			TotalRate:    totalMultiplierRate(baseline, row),
			FeuerWarning: strings.Join(baseline.Warnings, "; "),
		},
		OptimizationSummary: domain.OptimizationSummary{
			ROIPercent:            row.ROIPercent,
			PlateauWidthCHF:       plateau.MaxD - plateau.MinD,
			FederalBracketChanged: bracketChanged,
			MarginalRatePercent:   marginal,
		},
	}
}

func totalMultiplierRate(baseline domain.TaxBreakdown, row *domain.ScanRow) decimal.Decimal {
	if row.SgSimple.IsZero() {
		return decimal.Zero
	}
	rate, _ := money.SafeDiv(row.SgAfterMultipliers, row.SgSimple)
	return rate
}

func findRow(rows []domain.ScanRow, d int64) *domain.ScanRow {
	for i := range rows {
		if rows[i].Deduction == d {
			return &rows[i]
		}
	}
	return nil
}

func emptySweetSpot(baseline domain.TaxBreakdown, incomeSG, incomeFed decimal.Decimal) domain.SweetSpot {
	return domain.SweetSpot{
		Deduction:      0,
		NewIncome:      decimal.Max(incomeSG, incomeFed),
		NewIncomeSG:    incomeSG,
		NewIncomeFed:   incomeFed,
		TotalTaxAtSpot: baseline.Total,
		Baseline: domain.BaselineInfo{
			TotalTax:   baseline.Total,
			FederalTax: baseline.Federal,
			SgTax:      baseline.SgAfterMultipliers,
		},
		TaxSavedAbsolute: decimal.Zero,
		TaxSavedPercent:  decimal.Zero,
		Explanation:      "no beneficial deduction was found within the requested ceiling; a zero deduction is the conservative choice",
		IncomeDetails: domain.IncomeDetails{
			OriginalSG:        incomeSG,
			OriginalFed:       incomeFed,
			AfterDeductionSG:  incomeSG,
			AfterDeductionFed: incomeFed,
		},
		Multipliers: domain.MultiplierInfo{
			Applied:      baseline.PicksApplied,
			FeuerWarning: strings.Join(baseline.Warnings, "; "),
		},
	}
}

func sweetSpotExplanation(d int64, saved decimal.Decimal, bracketChanged bool) string {
	if d == 0 {
		return "no beneficial deduction was found within the requested ceiling; a zero deduction is the conservative choice"
	}
	msg := fmt.Sprintf(
		"a deduction of %d CHF sits at the right edge of the near-maximum ROI plateau, saving %s CHF while staying conservative under income uncertainty",
		d, saved.StringFixed(2))
	if bracketChanged {
		msg += "; this deduction crosses a federal bracket boundary"
	}
	return msg
}

// federalBracketChanged reports whether the federal segment covering
// ceil_to(income_fed, 100) differs from the one covering
// ceil_to(income_fed - d, 100).
func (k Kernel) federalBracketChanged(incomeFed decimal.Decimal, d int64) bool {
	before := k.Federal.SegmentWindow(incomeFed)
	after := k.Federal.SegmentWindow(money.ClampNonNegative(incomeFed.Sub(decimal.NewFromInt(d))))
	return !before.From.Equal(after.From)
}

// Federal100Nudge is the "100-nudge" suggestion: the additional deduction
// (whole CHF, at most one federal step, 100 by default) that brings
// new_fed down to the next-lower multiple of the federal step, so the
// step-ceiled taxable income drops by one step, plus the federal-tax
// saving that nudge produces. The target is that step multiple; federal
// segment boundaries are not searched for. A new_fed already on a step
// multiple gets a full-step nudge. Returns nil when new_fed is zero or
// when the nudge saves no federal tax.
func (k Kernel) Federal100Nudge(incomeFed decimal.Decimal, d int64) *domain.FederalNudge {
	step := k.Federal.StepSize()
	newFed := money.ClampNonNegative(incomeFed.Sub(decimal.NewFromInt(d)))
	stepped := money.CeilToInt(newFed, step)

	// The boundary this stepped income rounds up to; the segment lookup
	// already operates on stepped income, so find how far newFed is above
	// the previous multiple of `step` strictly below `stepped`.
	lowerBoundary := stepped.Sub(decimal.NewFromInt(step))
	if lowerBoundary.IsNegative() {
		lowerBoundary = decimal.Zero
	}
	distance := newFed.Sub(lowerBoundary)
	if distance.LessThanOrEqual(decimal.Zero) || distance.GreaterThan(decimal.NewFromInt(step)) {
		return nil
	}
	nudgeAmount := distance.Ceil()
	if nudgeAmount.IsZero() || nudgeAmount.GreaterThan(decimal.NewFromInt(step)) {
		return nil
	}

	before := k.Federal.Tax(newFed)
	after := k.Federal.Tax(newFed.Sub(nudgeAmount))
	saving := before.Sub(after)
	if saving.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	return &domain.FederalNudge{
		NudgeCHF:               nudgeAmount.IntPart(),
		EstimatedFederalSaving: saving,
	}
}
