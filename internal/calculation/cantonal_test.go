package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCantonalEvaluator_SimpleTax_TwoBrackets(t *testing.T) {
	c := NewCantonalEvaluator(testCanton())
	got := c.SimpleTax(di(50000))
	assert.True(t, got.Equal(d("2100")), "got %s", got)
}

func TestCantonalEvaluator_SimpleTax_OverrideAboveThreshold(t *testing.T) {
	c := NewCantonalEvaluator(testCanton())
	got := c.SimpleTax(di(150000))
	assert.True(t, got.Equal(d("12000")), "got %s", got)
}

func TestCantonalEvaluator_SimpleTax_StepCeilsTaxableIncome(t *testing.T) {
	c := NewCantonalEvaluator(testCanton())
	got := c.SimpleTax(di(50050))
	assert.True(t, got.Equal(d("2106")), "got %s", got)
}

func TestCantonalEvaluator_SimpleTax_NegativeClampsToZero(t *testing.T) {
	c := NewCantonalEvaluator(testCanton())
	assert.True(t, c.SimpleTax(d("-10")).Equal(d("0")))
}

func TestCantonalEvaluator_SimpleTax_MonotonicNonDecreasing(t *testing.T) {
	c := NewCantonalEvaluator(testCanton())
	prev := c.SimpleTax(di(0))
	for income := int64(100); income <= 300000; income += 100 {
		cur := c.SimpleTax(di(income))
		assert.False(t, cur.LessThan(prev), "tax decreased at income %d", income)
		prev = cur
	}
}

func TestCantonalEvaluator_BracketWindow_MiddleBracket(t *testing.T) {
	c := NewCantonalEvaluator(testCanton())
	w := c.BracketWindow(di(50000))
	assert.True(t, w.From.Equal(di(30000)))
	require.NotNil(t, w.To)
	assert.True(t, w.To.Equal(di(100000)))
	assert.True(t, w.RatePerUnit.Equal(d("0.06")))
}

func TestCantonalEvaluator_BracketWindow_Override(t *testing.T) {
	c := NewCantonalEvaluator(testCanton())
	w := c.BracketWindow(di(150000))
	assert.True(t, w.From.Equal(di(100000)))
	assert.True(t, w.RatePerUnit.Equal(d("0.08")))
}
