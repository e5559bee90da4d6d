package calculation

import (
	"github.com/shopspring/decimal"
	"github.com/taxglide/taxglide/internal/domain"
	"github.com/taxglide/taxglide/internal/money"
)

// CompareBrackets implements compare_brackets(income_sg, income_fed,
// deduction) -> CompareBracketsResult: which federal segment and cantonal
// bracket an income sits in before and after a deduction is applied.
func (k Kernel) CompareBrackets(incomeSG, incomeFed decimal.Decimal, deduction int64) domain.CompareBracketsResult {
	dd := decimal.NewFromInt(deduction)
	afterSG := money.ClampNonNegative(incomeSG.Sub(dd))
	afterFed := money.ClampNonNegative(incomeFed.Sub(dd))

	fedBefore := k.Federal.SegmentWindow(incomeFed)
	fedAfter := k.Federal.SegmentWindow(afterFed)

	sgBefore := k.Cantonal.BracketWindow(incomeSG)
	sgAfter := k.Cantonal.BracketWindow(afterSG)

	return domain.CompareBracketsResult{
		Federal: domain.BracketComparison{
			Before:  fedBefore,
			After:   fedAfter,
			Changed: !fedBefore.From.Equal(fedAfter.From),
		},
		Cantonal: domain.BracketComparison{
			Before:  sgBefore,
			After:   sgAfter,
			Changed: !sgBefore.From.Equal(sgAfter.From),
		},
	}
}
