package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFederalEvaluator_Tax_ExemptSegment(t *testing.T) {
	f := NewFederalEvaluator(testFederalTable())
	require.True(t, f.Tax(di(15000)).Equal(d("0")))
}

func TestFederalEvaluator_Tax_SecondSegment(t *testing.T) {
	f := NewFederalEvaluator(testFederalTable())
	assert.True(t, f.Tax(di(25000)).Equal(d("50.00")), "got %s", f.Tax(di(25000)))
}

func TestFederalEvaluator_Tax_StepCeilsBeforeLookup(t *testing.T) {
	f := NewFederalEvaluator(testFederalTable())
	got := f.Tax(di(60050))
	assert.True(t, got.Equal(d("502.00")), "got %s", got)
}

func TestFederalEvaluator_Tax_NegativeIncomeClampsToZero(t *testing.T) {
	f := NewFederalEvaluator(testFederalTable())
	assert.True(t, f.Tax(d("-500")).Equal(d("0")))
}

func TestFederalEvaluator_Tax_MonotonicNonDecreasing(t *testing.T) {
	f := NewFederalEvaluator(testFederalTable())
	prev := f.Tax(di(0))
	for income := int64(100); income <= 200000; income += 100 {
		cur := f.Tax(di(income))
		assert.False(t, cur.LessThan(prev), "tax decreased at income %d: %s -> %s", income, prev, cur)
		prev = cur
	}
}

func TestFederalEvaluator_SegmentWindow(t *testing.T) {
	f := NewFederalEvaluator(testFederalTable())
	w := f.SegmentWindow(di(25000))
	assert.True(t, w.From.Equal(di(20000)))
	require.NotNil(t, w.To)
	assert.True(t, w.To.Equal(di(50000)))
	assert.True(t, w.RatePerUnit.Equal(d("1.00")))
}

func TestFederalEvaluator_SegmentWindow_FinalSegmentUnbounded(t *testing.T) {
	f := NewFederalEvaluator(testFederalTable())
	w := f.SegmentWindow(di(90000))
	assert.True(t, w.From.Equal(di(50000)))
	assert.Nil(t, w.To)
}

func TestFederalEvaluator_StepSize_DefaultsTo100(t *testing.T) {
	f := NewFederalEvaluator(testFederalTable())
	assert.Equal(t, int64(100), f.StepSize())
}
