package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taxglide/taxglide/internal/domain"
)

func TestKernel_Evaluate_ComposesFederalAndCantonal(t *testing.T) {
	k := testKernel()
	bd := k.Evaluate(di(50000), di(50000), domain.Single, PickSet{})

	assert.True(t, bd.Federal.Equal(d("300.00")), "federal: got %s", bd.Federal)
	assert.True(t, bd.SgSimple.Equal(d("2100")), "sg_simple: got %s", bd.SgSimple)
	assert.True(t, bd.SgAfterMultipliers.Equal(d("4620.00")), "sg_after_multipliers: got %s", bd.SgAfterMultipliers)
	assert.True(t, bd.Total.Equal(d("4920.00")), "total: got %s", bd.Total)
	assert.ElementsMatch(t, []string{"KANTON", "GEMEINDE"}, bd.PicksApplied)
	assert.Len(t, bd.Warnings, 1)
}

func TestKernel_Evaluate_AvgRate(t *testing.T) {
	k := testKernel()
	bd := k.Evaluate(di(50000), di(50000), domain.Single, PickSet{})
	assert.True(t, bd.AvgRate.Equal(d("0.0984")), "avg_rate: got %s", bd.AvgRate)
}

func TestKernel_Evaluate_MarginalFederalPer100(t *testing.T) {
	k := testKernel()
	bd := k.Evaluate(di(50000), di(50000), domain.Single, PickSet{})
	assert.True(t, bd.MarginalFederalPer100.Equal(d("0.02")), "got %s", bd.MarginalFederalPer100)
}

func TestKernel_Evaluate_MarginalTotal(t *testing.T) {
	k := testKernel()
	bd := k.Evaluate(di(50000), di(50000), domain.Single, PickSet{})
	assert.True(t, bd.MarginalTotal.Equal(d("0.152")), "got %s", bd.MarginalTotal)
}

func TestKernel_Evaluate_ZeroIncomeIsZeroTax(t *testing.T) {
	k := testKernel()
	bd := k.Evaluate(d("0"), d("0"), domain.Single, PickSet{})
	assert.True(t, bd.Total.IsZero())
}
