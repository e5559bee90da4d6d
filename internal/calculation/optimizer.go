package calculation

import (
	"github.com/shopspring/decimal"
	"github.com/taxglide/taxglide/internal/domain"
)

// OptimizeParams bundles the optimiser orchestrator's inputs.
type OptimizeParams struct {
	IncomeSG     decimal.Decimal
	IncomeFed    decimal.Decimal
	FilingStatus domain.FilingStatus
	Picks        PickSet
	MaxDeduction int64
	Step         int64
	ToleranceBp  *decimal.Decimal // nil selects the auto schedule
}

// Optimize implements optimise(incomes, ..., max_deduction, step,
// tolerance_bp) -> OptimisationReport. It scans once, then either honours
// a caller-pinned tolerance or runs the adaptive retry ladder, and
// finally selects the conservative sweet spot and any 100-CHF bracket
// nudge.
func (k Kernel) Optimize(p OptimizeParams) (domain.OptimisationReport, error) {
	if p.MaxDeduction <= 0 {
		return domain.OptimisationReport{}, domain.NewError(domain.ErrInvalidInput, "max_deduction must be positive, got %d", p.MaxDeduction)
	}
	if p.Step <= 0 {
		return domain.OptimisationReport{}, domain.NewError(domain.ErrInvalidInput, "step must be positive, got %d", p.Step)
	}

	baseline := k.Evaluate(p.IncomeSG, p.IncomeFed, p.FilingStatus, p.Picks)

	rows := k.Scan(ScanParams{
		IncomeSG:             p.IncomeSG,
		IncomeFed:            p.IncomeFed,
		FilingStatus:         p.FilingStatus,
		Picks:                p.Picks,
		MaxDeduction:         p.MaxDeduction,
		Step:                 p.Step,
		IncludeLocalMarginal: true,
	})

	var plateau domain.PlateauReport
	var retryInfo *domain.AdaptiveRetryInfo
	var toleranceInfo domain.ToleranceInfo

	if p.ToleranceBp != nil {
		plateau = DetectPlateau(rows, *p.ToleranceBp)
		toleranceInfo = domain.ToleranceInfo{
			ToleranceUsedBp:  *p.ToleranceBp,
			TolerancePercent: p.ToleranceBp.Div(decimal.NewFromInt(100)),
			ToleranceSource:  "user",
			Explanation:      "using the caller-supplied plateau tolerance",
		}
	} else {
		var info *domain.AdaptiveRetryInfo
		plateau, info = AdaptiveRetry(rows, p.MaxDeduction, p.IncomeSG)
		retryInfo = info
		toleranceInfo = domain.ToleranceInfo{
			ToleranceUsedBp:  info.ChosenToleranceBp,
			TolerancePercent: info.ChosenToleranceBp.Div(decimal.NewFromInt(100)),
			ToleranceSource:  "auto",
			Explanation:      "selected by the income-class tolerance schedule via adaptive retry (" + info.SelectionReason + ")",
		}
	}

	sweetSpot := k.SelectSweetSpot(rows, plateau, baseline, p.IncomeSG, p.IncomeFed)
	nudge := k.Federal100Nudge(p.IncomeFed, sweetSpot.Deduction)

	return domain.OptimisationReport{
		BaseTotal:          baseline.Total,
		BestRate:           bestRateOf(rows),
		PlateauNearMaxROI:  plateau,
		SweetSpot:          sweetSpot,
		Federal100Nudge:    nudge,
		AdaptiveRetryUsed:  retryInfo,
		MultipliersApplied: baseline.PicksApplied,
		ToleranceInfo:      toleranceInfo,
	}, nil
}

// bestRateOf finds the row of maximum ROI among d > 0, preferring the
// rightmost row on ties. It returns nil when no row has d > 0.
func bestRateOf(rows []domain.ScanRow) *domain.BestRate {
	_, idx, found := maxROI(rows)
	if !found {
		return nil
	}
	r := rows[idx]
	return &domain.BestRate{
		Deduction:          r.Deduction,
		NewIncome:          r.NewIncome,
		Saved:              r.Saved,
		SavingsRatePercent: r.ROIPercent,
	}
}
