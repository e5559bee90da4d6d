package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxglide/taxglide/internal/domain"
)

func testOptimizeParams() OptimizeParams {
	return OptimizeParams{
		IncomeSG:     di(50000),
		IncomeFed:    di(50000),
		FilingStatus: domain.Single,
		MaxDeduction: 500,
		Step:         100,
	}
}

func TestKernel_Optimize_AutoScheduleAssemblesFullReport(t *testing.T) {
	k := testKernel()
	report, err := k.Optimize(testOptimizeParams())
	require.NoError(t, err)

	assert.True(t, report.BaseTotal.Equal(d("4920.00")))
	require.NotNil(t, report.BestRate)
	assert.Equal(t, int64(500), report.BestRate.Deduction)
	assert.True(t, report.BestRate.SavingsRatePercent.Equal(d("14.20")))
	assert.Equal(t, int64(500), report.SweetSpot.Deduction)
	require.NotNil(t, report.Federal100Nudge)
	assert.Equal(t, int64(100), report.Federal100Nudge.NudgeCHF)
	require.NotNil(t, report.AdaptiveRetryUsed)
	assert.Equal(t, "auto", report.ToleranceInfo.ToleranceSource)
	assert.ElementsMatch(t, []string{"KANTON", "GEMEINDE"}, report.MultipliersApplied)
}

func TestKernel_Optimize_UserToleranceSkipsAdaptiveRetry(t *testing.T) {
	k := testKernel()
	p := testOptimizeParams()
	tol := d("50")
	p.ToleranceBp = &tol

	report, err := k.Optimize(p)
	require.NoError(t, err)
	assert.Nil(t, report.AdaptiveRetryUsed)
	assert.Equal(t, "user", report.ToleranceInfo.ToleranceSource)
	assert.True(t, report.ToleranceInfo.ToleranceUsedBp.Equal(d("50")))
}

func TestKernel_Optimize_RejectsNonPositiveMaxDeduction(t *testing.T) {
	k := testKernel()
	p := testOptimizeParams()
	p.MaxDeduction = 0
	_, err := k.Optimize(p)
	require.Error(t, err)
	assert.Equal(t, domain.ErrInvalidInput, domain.KindOf(err))
}

func TestKernel_Optimize_RejectsNonPositiveStep(t *testing.T) {
	k := testKernel()
	p := testOptimizeParams()
	p.Step = 0
	_, err := k.Optimize(p)
	require.Error(t, err)
	assert.Equal(t, domain.ErrInvalidInput, domain.KindOf(err))
}
