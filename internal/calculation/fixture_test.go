package calculation

import (
	"github.com/shopspring/decimal"
	"github.com/taxglide/taxglide/internal/domain"
)

// d is a terse decimal constructor for test literals.
func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func di(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// testFederalTable is a small, hand-built three-segment table: exempt up
// to 20000, 1% up to 50000, 2% beyond.
func testFederalTable() domain.FederalTable {
	to1 := di(20000)
	to2 := di(50000)
	return domain.FederalTable{
		Rounding: domain.FederalStepRounding{StepSize: 100, StepMode: "ceil", TaxRound: d("0.05")},
		Segments: []domain.FederalSegment{
			{From: di(0), To: &to1, AtIncome: di(0), BaseTaxAt: di(0), Per100: di(0)},
			{From: di(20000), To: &to2, AtIncome: di(20000), BaseTaxAt: di(0), Per100: d("1.00")},
			{From: di(50000), To: nil, AtIncome: di(50000), BaseTaxAt: d("300.00"), Per100: d("2.00")},
		},
	}
}

// testCanton is a small three-bracket canton with a flat override from
// 100000 upward.
func testCanton() domain.Canton {
	return domain.Canton{
		Name:         "Test",
		Abbreviation: "TS",
		Rounding:     domain.RoundingPolicy{TaxableStep: 100, TaxRoundTo: di(1), Scope: domain.ScopeBoth},
		Override:     &domain.CantonalOverride{Threshold: di(100000), FlatPercent: d("8.0")},
		Brackets: []domain.CantonalBracket{
			{Lower: di(0), Width: di(30000), RatePercent: d("3.00")},
			{Lower: di(30000), Width: di(70000), RatePercent: d("6.00")},
			{Lower: di(100000), Width: di(900000), RatePercent: d("6.00")},
		},
		Municipalities: map[string]domain.Municipality{
			"TOWN": testMunicipality(),
		},
	}
}

func testMunicipality() domain.Municipality {
	return domain.Municipality{
		Name: "Town",
		Multipliers: []domain.Multiplier{
			{Code: "KANTON", Name: "Canton", Rate: d("1.00"), DefaultSelected: true, Optional: false},
			{Code: "GEMEINDE", Name: "Municipality", Rate: d("1.20"), DefaultSelected: true, Optional: false},
			{Code: "FEUER", Name: "Fire service", Rate: d("0.05"), DefaultSelected: false, Optional: true},
		},
	}
}

func testKernel() Kernel {
	return NewKernel(NewFederalEvaluator(testFederalTable()), NewCantonalEvaluator(testCanton()), testMunicipality())
}
