package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxglide/taxglide/internal/domain"
)

func testScanParams() ScanParams {
	return ScanParams{
		IncomeSG:             di(50000),
		IncomeFed:            di(50000),
		FilingStatus:         domain.Single,
		MaxDeduction:         500,
		Step:                 100,
		IncludeLocalMarginal: true,
	}
}

func TestScan_ProducesOneRowPerStep(t *testing.T) {
	k := testKernel()
	rows := k.Scan(testScanParams())
	require.Len(t, rows, 6) // d = 0, 100, ..., 500
	for i, r := range rows {
		assert.Equal(t, int64(i*100), r.Deduction)
	}
}

func TestScan_FirstRowIsBaselineWithZeroSavingsAndROI(t *testing.T) {
	k := testKernel()
	rows := k.Scan(testScanParams())
	assert.True(t, rows[0].Saved.IsZero())
	assert.True(t, rows[0].ROIPercent.IsZero())
	assert.True(t, rows[0].TotalTax.Equal(d("4920.00")))
}

func TestScan_ROIIsFlatInsideALinearRegion(t *testing.T) {
	k := testKernel()
	rows := k.Scan(testScanParams())
	for _, r := range rows[1:] {
		assert.True(t, r.ROIPercent.Equal(d("14.20")), "deduction %d: got roi %s", r.Deduction, r.ROIPercent)
	}
}

func TestScan_LocalMarginalMatchesFlatRegionROI(t *testing.T) {
	k := testKernel()
	rows := k.Scan(testScanParams())
	for _, r := range rows {
		require.NotNil(t, r.LocalMarginalPercent, "deduction %d", r.Deduction)
		assert.True(t, r.LocalMarginalPercent.Equal(d("14.20")), "deduction %d: got %s", r.Deduction, r.LocalMarginalPercent)
	}
}

func TestScan_SavedIsMonotonicNonDecreasingInDeduction(t *testing.T) {
	k := testKernel()
	rows := k.Scan(testScanParams())
	for i := 1; i < len(rows); i++ {
		assert.False(t, rows[i].Saved.LessThan(rows[i-1].Saved))
	}
}

func TestScan_ZeroStepProducesNoRows(t *testing.T) {
	k := testKernel()
	p := testScanParams()
	p.Step = 0
	assert.Empty(t, k.Scan(p))
}

func TestScan_OmitsLocalMarginalWhenNotRequested(t *testing.T) {
	k := testKernel()
	p := testScanParams()
	p.IncludeLocalMarginal = false
	rows := k.Scan(p)
	for _, r := range rows {
		assert.Nil(t, r.LocalMarginalPercent)
	}
}
