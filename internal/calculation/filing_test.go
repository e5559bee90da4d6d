package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taxglide/taxglide/internal/domain"
)

func TestTaxUnderStatus_ZeroIncomeIsZero(t *testing.T) {
	f := NewFederalEvaluator(testFederalTable())
	assert.True(t, TaxUnderStatus(d("0"), domain.Single, f.Tax).Equal(d("0")))
	assert.True(t, TaxUnderStatus(d("0"), domain.MarriedJoint, f.Tax).Equal(d("0")))
}

func TestTaxUnderStatus_SingleIsPassthrough(t *testing.T) {
	f := NewFederalEvaluator(testFederalTable())
	got := TaxUnderStatus(di(50000), domain.Single, f.Tax)
	assert.True(t, got.Equal(f.Tax(di(50000))))
}

func TestTaxUnderStatus_MarriedJointSplittingNeverExceedsSingle(t *testing.T) {
	f := NewFederalEvaluator(testFederalTable())
	for income := int64(0); income <= 200000; income += 1000 {
		married := TaxUnderStatus(di(income), domain.MarriedJoint, f.Tax)
		single := TaxUnderStatus(di(income), domain.Single, f.Tax)
		assert.False(t, married.GreaterThan(single), "married exceeded single at income %d: %s > %s", income, married, single)
	}
}

func TestTaxUnderStatus_MarriedJointExample(t *testing.T) {
	f := NewFederalEvaluator(testFederalTable())
	got := TaxUnderStatus(di(50000), domain.MarriedJoint, f.Tax)
	assert.True(t, got.Equal(d("100.00")), "got %s", got)
}
