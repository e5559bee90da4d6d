package calculation

import (
	"github.com/shopspring/decimal"
	"github.com/taxglide/taxglide/internal/domain"
	"github.com/taxglide/taxglide/internal/money"
)

// ScanParams bundles the scan producer's inputs.
type ScanParams struct {
	IncomeSG             decimal.Decimal
	IncomeFed            decimal.Decimal
	FilingStatus         domain.FilingStatus
	Picks                PickSet
	MaxDeduction         int64
	Step                 int64
	IncludeLocalMarginal bool
}

// Scan implements scan(incomes, ..., max_deduction, step,
// include_marginal) -> [ScanRow]. Rows are produced for
// d in {0, step, 2*step, ..., max_deduction} in strictly increasing order.
func (k Kernel) Scan(p ScanParams) []domain.ScanRow {
	if p.Step <= 0 {
		return nil
	}
	n := int(p.MaxDeduction/p.Step) + 1
	if n < 1 {
		n = 1
	}
	rows := make([]domain.ScanRow, 0, n)

	base := k.Evaluate(p.IncomeSG, p.IncomeFed, p.FilingStatus, p.Picks)

	totalAt := func(d int64) domain.TaxBreakdown {
		dd := decimal.NewFromInt(d)
		newSG := money.ClampNonNegative(p.IncomeSG.Sub(dd))
		newFed := money.ClampNonNegative(p.IncomeFed.Sub(dd))
		return k.Evaluate(newSG, newFed, p.FilingStatus, p.Picks)
	}

	for d := int64(0); d <= p.MaxDeduction; d += p.Step {
		bd := totalAt(d)
		saved := base.Total.Sub(bd.Total)
		var roi decimal.Decimal
		if d > 0 {
			roi, _ = money.SafeDiv(saved.Mul(decimal.NewFromInt(100)), decimal.NewFromInt(d))
		}

		row := domain.ScanRow{
			Deduction:               d,
			NewIncome:               decimal.Max(bd.IncomeSG, bd.IncomeFed),
			NewIncomeSG:             bd.IncomeSG,
			NewIncomeFed:            bd.IncomeFed,
			TotalTax:                bd.Total,
			Federal:                 bd.Federal,
			SgSimple:                bd.SgSimple,
			SgAfterMultipliers:      bd.SgAfterMultipliers,
			Saved:                   saved,
			ROIPercent:              roi,
			FederalSegmentAtThisRow: k.Federal.SegmentWindow(bd.IncomeFed),
		}

		if p.IncludeLocalMarginal {
			row.LocalMarginalPercent = k.localMarginal(p, d, bd.Total)
		}

		rows = append(rows, row)
	}
	return rows
}

// localMarginal computes the per-row local marginal rate: forward
// difference at every row except the last, backward difference at
// d = max_deduction so the final row still reflects a real rate change.
func (k Kernel) localMarginal(p ScanParams, d int64, totalAtD decimal.Decimal) *decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	var delta decimal.Decimal

	if d < p.MaxDeduction {
		next := totalAtDeduction(k, p, d+100)
		delta, _ = money.SafeDiv(totalAtD.Sub(next), hundred)
	} else {
		prevD := d - 100
		if prevD < 0 {
			prevD = 0
		}
		prev := totalAtDeduction(k, p, prevD)
		denom := decimal.NewFromInt(d - prevD)
		if denom.IsZero() {
			zero := decimal.Zero
			return &zero
		}
		delta, _ = money.SafeDiv(prev.Sub(totalAtD), denom)
	}
	pct := delta.Mul(hundred)
	return &pct
}

func totalAtDeduction(k Kernel, p ScanParams, d int64) decimal.Decimal {
	dd := decimal.NewFromInt(d)
	newSG := money.ClampNonNegative(p.IncomeSG.Sub(dd))
	newFed := money.ClampNonNegative(p.IncomeFed.Sub(dd))
	return k.Evaluate(newSG, newFed, p.FilingStatus, p.Picks).Total
}
