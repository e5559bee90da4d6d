package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundToStep_CeilStep(t *testing.T) {
	got := CeilToInt(decimal.NewFromInt(32001), 100)
	assert.True(t, got.Equal(decimal.NewFromInt(32100)), "got %s", got)
}

func TestRoundToStep_CeilStep_ExactMultiple(t *testing.T) {
	got := CeilToInt(decimal.NewFromInt(32000), 100)
	assert.True(t, got.Equal(decimal.NewFromInt(32000)), "got %s", got)
}

func TestESTVRound_FloorsDownToIncrement(t *testing.T) {
	amount := decimal.NewFromFloat(123.479)
	got := ESTVRound(amount, decimal.NewFromFloat(0.05))
	assert.True(t, got.Equal(decimal.NewFromFloat(123.45)), "got %s", got)
}

func TestESTVRound_AlreadyAligned(t *testing.T) {
	amount := decimal.NewFromFloat(100.05)
	got := ESTVRound(amount, decimal.NewFromFloat(0.05))
	assert.True(t, got.Equal(amount), "got %s", got)
}

func TestClampNonNegative(t *testing.T) {
	assert.True(t, ClampNonNegative(decimal.NewFromInt(-5)).IsZero())
	assert.True(t, ClampNonNegative(decimal.NewFromInt(5)).Equal(decimal.NewFromInt(5)))
}

func TestSafeDiv_ByZero(t *testing.T) {
	_, ok := SafeDiv(decimal.NewFromInt(10), decimal.Zero)
	assert.False(t, ok)
}

func TestSafeDiv_Normal(t *testing.T) {
	result, ok := SafeDiv(decimal.NewFromInt(10), decimal.NewFromInt(4))
	assert.True(t, ok)
	assert.True(t, result.Equal(decimal.NewFromFloat(2.5)))
}
