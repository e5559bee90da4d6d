package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxglide/taxglide/internal/domain"
)

const validDoc = `
schema_version: "1.0"
years:
  2025:
    year: 2025
    defaults:
      canton: TS
      municipality: TOWN
    federal:
      single:
        rounding: {step_size: 100, step_mode: ceil, tax_round_to: 0.05}
        segments:
          - {from: 0, to: 20000, at_income: 0, base_tax_at: 0, per100: 0}
          - {from: 20000, at_income: 20000, base_tax_at: 0, per100: 1.00}
      married_joint:
        rounding: {step_size: 100, step_mode: ceil, tax_round_to: 0.05}
        segments:
          - {from: 0, to: 20000, at_income: 0, base_tax_at: 0, per100: 0}
          - {from: 20000, at_income: 20000, base_tax_at: 0, per100: 1.00}
    cantons:
      TS:
        name: Test
        abbreviation: TS
        rounding: {taxable_step: 100, tax_round_to: 1, scope: both}
        brackets:
          - {lower: 0, width: 30000, rate_percent: 3.0}
          - {lower: 30000, width: 70000, rate_percent: 6.0}
        municipalities:
          TOWN:
            name: Town
            multipliers:
              - {code: KANTON, name: Canton, rate: 1.0, default_selected: true, optional: false}
`

func TestLoadFromBytes_AcceptsWellFormedDocument(t *testing.T) {
	cfg, err := NewLoader().LoadFromBytes([]byte(validDoc))
	require.NoError(t, err)
	assert.Equal(t, "1.0", cfg.SchemaVersion)
	assert.Contains(t, cfg.Years, 2025)
}

func TestLoadFromBytes_RejectsUnknownTopLevelKey(t *testing.T) {
	doc := validDoc + "\nextra_key: true\n"
	_, err := NewLoader().LoadFromBytes([]byte(doc))
	require.Error(t, err)
	assert.Equal(t, domain.ErrSchemaMismatch, domain.KindOf(err))
}

func TestLoadFromBytes_RejectsMissingSchemaVersion(t *testing.T) {
	doc := `
years:
  2025:
    year: 2025
`
	_, err := NewLoader().LoadFromBytes([]byte(doc))
	require.Error(t, err)
	assert.Equal(t, domain.ErrConfigurationInvalid, domain.KindOf(err))
}

func TestLoadFromBytes_RejectsGapInFederalSegments(t *testing.T) {
	doc := `
schema_version: "1.0"
years:
  2025:
    year: 2025
    defaults: {canton: TS, municipality: TOWN}
    federal:
      single:
        rounding: {step_size: 100, step_mode: ceil, tax_round_to: 0.05}
        segments:
          - {from: 0, to: 20000, at_income: 0, base_tax_at: 0, per100: 0}
          - {from: 20001, at_income: 20001, base_tax_at: 0, per100: 1.00}
      married_joint:
        rounding: {step_size: 100, step_mode: ceil, tax_round_to: 0.05}
        segments:
          - {from: 0, at_income: 0, base_tax_at: 0, per100: 0}
    cantons:
      TS:
        name: Test
        abbreviation: TS
        rounding: {taxable_step: 100, tax_round_to: 1, scope: both}
        brackets:
          - {lower: 0, width: 100000, rate_percent: 3.0}
        municipalities:
          TOWN:
            name: Town
            multipliers:
              - {code: KANTON, name: Canton, rate: 1.0, default_selected: true, optional: false}
`
	_, err := NewLoader().LoadFromBytes([]byte(doc))
	require.Error(t, err)
	assert.Equal(t, domain.ErrConfigurationInvalid, domain.KindOf(err))
}

func TestLoadFromBytes_RejectsUnknownDefaultCanton(t *testing.T) {
	doc := `
schema_version: "1.0"
years:
  2025:
    year: 2025
    defaults: {canton: ZZ, municipality: TOWN}
    federal:
      single:
        rounding: {step_size: 100, step_mode: ceil, tax_round_to: 0.05}
        segments:
          - {from: 0, at_income: 0, base_tax_at: 0, per100: 0}
      married_joint:
        rounding: {step_size: 100, step_mode: ceil, tax_round_to: 0.05}
        segments:
          - {from: 0, at_income: 0, base_tax_at: 0, per100: 0}
    cantons:
      TS:
        name: Test
        abbreviation: TS
        rounding: {taxable_step: 100, tax_round_to: 1, scope: both}
        brackets:
          - {lower: 0, width: 100000, rate_percent: 3.0}
        municipalities:
          TOWN:
            name: Town
            multipliers:
              - {code: KANTON, name: Canton, rate: 1.0, default_selected: true, optional: false}
`
	_, err := NewLoader().LoadFromBytes([]byte(doc))
	require.Error(t, err)
	assert.Equal(t, domain.ErrConfigurationInvalid, domain.KindOf(err))
}

func TestLoadFromFile_MissingFileIsConfigurationMissing(t *testing.T) {
	_, err := NewLoader().LoadFromFile("/nonexistent/taxglide.yaml")
	require.Error(t, err)
	assert.Equal(t, domain.ErrConfigurationMissing, domain.KindOf(err))
}
