package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyMultipliers_DefaultsOnly(t *testing.T) {
	after, applied, warnings := ApplyMultipliers(d("1000"), testMunicipality(), PickSet{})
	assert.True(t, after.Equal(d("2200")), "got %s", after)
	assert.ElementsMatch(t, []string{"KANTON", "GEMEINDE"}, applied)
	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "FEUER")
}

func TestApplyMultipliers_SkipWinsOverDefault(t *testing.T) {
	after, applied, _ := ApplyMultipliers(d("1000"), testMunicipality(), PickSet{Skips: []string{"KANTON"}})
	assert.True(t, after.Equal(d("1200")), "got %s", after)
	assert.ElementsMatch(t, []string{"GEMEINDE"}, applied)
}

func TestApplyMultipliers_PickTurnsOnOptional(t *testing.T) {
	after, applied, warnings := ApplyMultipliers(d("1000"), testMunicipality(), PickSet{Picks: []string{"FEUER"}})
	assert.True(t, after.Equal(d("2250")), "got %s", after)
	assert.ElementsMatch(t, []string{"KANTON", "GEMEINDE", "FEUER"}, applied)
	assert.Empty(t, warnings)
}

func TestApplyMultipliers_NothingOnIsZeroNotBaseTax(t *testing.T) {
	after, applied, warnings := ApplyMultipliers(d("1000"), testMunicipality(), PickSet{Skips: []string{"KANTON", "GEMEINDE"}})
	assert.True(t, after.Equal(d("0")))
	assert.Empty(t, applied)
	assert.Len(t, warnings, 2)
}

func TestApplyMultipliers_SkipAndPickSameCode_SkipWins(t *testing.T) {
	after, applied, _ := ApplyMultipliers(d("1000"), testMunicipality(), PickSet{Picks: []string{"FEUER"}, Skips: []string{"FEUER"}})
	assert.True(t, after.Equal(d("2200")))
	assert.NotContains(t, applied, "FEUER")
}
