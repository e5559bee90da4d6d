package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxglide/taxglide/internal/domain"
)

func testConfiguration() domain.Configuration {
	return domain.Configuration{
		SchemaVersion: "1.0",
		Years: map[int]domain.YearConfig{
			2025: {
				Year: 2025,
				Federal: domain.FederalByFilingStatus{
					Single:       testFederalTable(),
					MarriedJoint: testFederalTable(),
				},
				Cantons: map[string]domain.Canton{
					"TS": testCanton(),
				},
				Defaults: domain.Defaults{Canton: "TS", Municipality: "TOWN"},
			},
		},
	}
}

func TestEngine_Calc_ResolvesDefaultsAndEvaluates(t *testing.T) {
	e := NewEngine(testConfiguration(), nil, "1.2.3")
	bd, err := e.Calc(CalcParams{
		Year:         2025,
		IncomeSG:     di(50000),
		IncomeFed:    di(50000),
		FilingStatus: domain.Single,
	})
	require.NoError(t, err)
	assert.True(t, bd.Total.Equal(d("4920.00")))
}

func TestEngine_Calc_UnknownYearIsConfigurationMissing(t *testing.T) {
	e := NewEngine(testConfiguration(), nil, "1.2.3")
	_, err := e.Calc(CalcParams{Year: 1999, IncomeSG: di(1000), IncomeFed: di(1000)})
	require.Error(t, err)
	assert.Equal(t, domain.ErrConfigurationMissing, domain.KindOf(err))
}

func TestEngine_Calc_UnknownCantonIsInvalidInput(t *testing.T) {
	e := NewEngine(testConfiguration(), nil, "1.2.3")
	_, err := e.Calc(CalcParams{Year: 2025, Canton: "ZZ", IncomeSG: di(1000), IncomeFed: di(1000)})
	require.Error(t, err)
	assert.Equal(t, domain.ErrInvalidInput, domain.KindOf(err))
}

func TestEngine_Calc_NegativeIncomeIsInvalidInput(t *testing.T) {
	e := NewEngine(testConfiguration(), nil, "1.2.3")
	_, err := e.Calc(CalcParams{Year: 2025, IncomeSG: d("-1"), IncomeFed: di(1000)})
	require.Error(t, err)
	assert.Equal(t, domain.ErrInvalidInput, domain.KindOf(err))
}

func TestEngine_Calc_UnknownMultiplierCodeIsInvalidInput(t *testing.T) {
	e := NewEngine(testConfiguration(), nil, "1.2.3")
	_, err := e.Calc(CalcParams{
		Year:      2025,
		IncomeSG:  di(1000),
		IncomeFed: di(1000),
		Picks:     PickSet{Picks: []string{"NOPE"}},
	})
	require.Error(t, err)
	assert.Equal(t, domain.ErrInvalidInput, domain.KindOf(err))
}

func TestEngine_Validate_PassesOnWellFormedYear(t *testing.T) {
	e := NewEngine(testConfiguration(), nil, "1.2.3")
	report := e.Validate(2025)
	assert.True(t, report.OK, "issues: %v", report.Issues)
}

func TestEngine_Validate_FlagsMissingYear(t *testing.T) {
	e := NewEngine(testConfiguration(), nil, "1.2.3")
	report := e.Validate(1999)
	assert.False(t, report.OK)
	assert.NotEmpty(t, report.Issues)
}

func TestEngine_Version_ReportsSupportedYears(t *testing.T) {
	e := NewEngine(testConfiguration(), nil, "1.2.3")
	v := e.Version()
	assert.Equal(t, "1.2.3", v.Version)
	assert.Equal(t, "1.0", v.SchemaVersion)
	assert.Equal(t, []int{2025}, v.SupportedYears)
}

func TestEngine_Scan_And_Optimise_And_CompareBrackets(t *testing.T) {
	e := NewEngine(testConfiguration(), nil, "1.2.3")

	rows, err := e.Scan(ScanRequest{
		Year: 2025, IncomeSG: di(50000), IncomeFed: di(50000),
		FilingStatus: domain.Single, MaxDeduction: 500, Step: 100,
	})
	require.NoError(t, err)
	assert.Len(t, rows, 6)

	report, err := e.Optimise(OptimiseRequest{
		Year: 2025, IncomeSG: di(50000), IncomeFed: di(50000),
		FilingStatus: domain.Single, MaxDeduction: 500, Step: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(500), report.SweetSpot.Deduction)

	cmp, err := e.CompareBrackets(CompareBracketsRequest{
		Year: 2025, IncomeSG: di(50000), IncomeFed: di(50000), Deduction: 500,
	})
	require.NoError(t, err)
	assert.True(t, cmp.Federal.Changed)
}
