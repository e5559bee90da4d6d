package calculation

import (
	"github.com/shopspring/decimal"
	"github.com/taxglide/taxglide/internal/domain"
	"github.com/taxglide/taxglide/internal/money"
)

// Kernel composes the federal evaluator, cantonal evaluator, filing-status
// adapter, and multiplier engine into a single callable: income(s) ->
// TaxBreakdown.
type Kernel struct {
	Federal  FederalEvaluator
	Cantonal CantonalEvaluator
	Muni     domain.Municipality
}

// NewKernel builds a Kernel bound to one federal table, one canton, and
// one of its municipalities.
func NewKernel(federal FederalEvaluator, cantonal CantonalEvaluator, muni domain.Municipality) Kernel {
	return Kernel{Federal: federal, Cantonal: cantonal, Muni: muni}
}

// Evaluate implements evaluate(income_sg, income_fed, ..., filing_status)
// -> TaxBreakdown.
func (k Kernel) Evaluate(incomeSG, incomeFed decimal.Decimal, status domain.FilingStatus, picks PickSet) domain.TaxBreakdown {
	federal := TaxUnderStatus(incomeFed, status, k.Federal.Tax)
	sgSimple := TaxUnderStatus(incomeSG, status, k.Cantonal.SimpleTax)
	sgAfter, applied, warnings := ApplyMultipliers(sgSimple, k.Muni, picks)
	total := federal.Add(sgAfter)

	denom := decimal.Max(incomeSG, incomeFed)
	avgRate, ok := money.SafeDiv(total, denom)
	if !ok {
		avgRate = decimal.Zero
	}

	marginalFedPer100 := k.Federal.SegmentWindow(incomeFed).RatePerUnit
	marginalFedFraction, _ := money.SafeDiv(marginalFedPer100, decimal.NewFromInt(100))

	hundred := decimal.NewFromInt(100)
	nextFed := TaxUnderStatus(incomeFed.Add(hundred), status, k.Federal.Tax)
	nextSgSimple := TaxUnderStatus(incomeSG.Add(hundred), status, k.Cantonal.SimpleTax)
	nextSgAfter, _, _ := ApplyMultipliers(nextSgSimple, k.Muni, picks)
	nextTotal := nextFed.Add(nextSgAfter)
	marginalTotal, _ := money.SafeDiv(nextTotal.Sub(total), hundred)

	return domain.TaxBreakdown{
		Federal:               federal,
		SgSimple:              sgSimple,
		SgAfterMultipliers:    sgAfter,
		Total:                 total,
		AvgRate:               avgRate,
		MarginalTotal:         marginalTotal,
		MarginalFederalPer100: marginalFedFraction,
		PicksApplied:          applied,
		Warnings:              warnings,
		IncomeSG:              incomeSG,
		IncomeFed:             incomeFed,
		FilingStatus:          status,
	}
}
