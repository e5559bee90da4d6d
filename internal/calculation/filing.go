package calculation

import (
	"github.com/shopspring/decimal"
	"github.com/taxglide/taxglide/internal/domain"
	"github.com/taxglide/taxglide/internal/money"
)

// RateEvaluator is the shared shape of the federal and cantonal simple
// evaluators: income -> tax. Both FederalEvaluator.Tax and
// CantonalEvaluator.SimpleTax satisfy it, so the filing-status adapter
// wraps either as two concrete functions rather than an interface.
type RateEvaluator func(income decimal.Decimal) decimal.Decimal

// TaxUnderStatus implements tax_under_status(income, filing_status,
// evaluator). For "single" it's a passthrough. For "married_joint" it
// applies the income-splitting rule: the effective rate at half the
// income, scaled back up to the full income.
func TaxUnderStatus(income decimal.Decimal, status domain.FilingStatus, eval RateEvaluator) decimal.Decimal {
	if income.IsZero() {
		return decimal.Zero
	}
	if status != domain.MarriedJoint {
		return eval(income)
	}
	half := income.Div(decimal.NewFromInt(2))
	taxAtHalf := eval(half)
	rate, ok := money.SafeDiv(taxAtHalf, half)
	if !ok {
		return decimal.Zero
	}
	return rate.Mul(income)
}
