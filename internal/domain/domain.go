// Package domain holds the typed records TaxGlide evaluates against:
// federal bracket tables, cantonal brackets, multipliers, and the
// configuration document that ties a tax year to one canton and its
// municipalities.
package domain

import (
	"github.com/shopspring/decimal"
)

// FilingStatus is "single" or "married_joint".
type FilingStatus string

const (
	Single       FilingStatus = "single"
	MarriedJoint FilingStatus = "married_joint"
)

// FederalSegment is a half-open marginal-rate bracket. To is nil for
// the final, unbounded segment.
type FederalSegment struct {
	From      decimal.Decimal  `yaml:"from"`
	To        *decimal.Decimal `yaml:"to,omitempty"`
	AtIncome  decimal.Decimal  `yaml:"at_income"`
	BaseTaxAt decimal.Decimal  `yaml:"base_tax_at"`
	Per100    decimal.Decimal  `yaml:"per100"`
}

// Contains reports whether income falls in [From, To).
func (s FederalSegment) Contains(income decimal.Decimal) bool {
	if income.LessThan(s.From) {
		return false
	}
	if s.To == nil {
		return true
	}
	return income.LessThan(*s.To)
}

// FederalStepRounding describes the 100-unit step-ceiling rule.
type FederalStepRounding struct {
	StepSize int64           `yaml:"step_size"`
	StepMode string          `yaml:"step_mode"`  // "ceil" or "floor"
	TaxRound decimal.Decimal `yaml:"tax_round_to"`
}

// FederalTable is the ordered, gap-free cover of segments for one filing status.
type FederalTable struct {
	Rounding FederalStepRounding `yaml:"rounding"`
	Segments []FederalSegment    `yaml:"segments"`
}

// FederalByFilingStatus keys a FederalTable by filing status.
type FederalByFilingStatus struct {
	Single       FederalTable `yaml:"single"`
	MarriedJoint FederalTable `yaml:"married_joint"`
}

func (f FederalByFilingStatus) For(status FilingStatus) FederalTable {
	if status == MarriedJoint {
		return f.MarriedJoint
	}
	return f.Single
}

// CantonalBracket covers [Lower, Lower+Width).
type CantonalBracket struct {
	Lower       decimal.Decimal `yaml:"lower"`
	Width       decimal.Decimal `yaml:"width"`
	RatePercent decimal.Decimal `yaml:"rate_percent"`
}

func (b CantonalBracket) Upper() decimal.Decimal {
	return b.Lower.Add(b.Width)
}

// CantonalOverride is the high-income flat-rate escape hatch.
type CantonalOverride struct {
	Threshold   decimal.Decimal `yaml:"threshold"`
	FlatPercent decimal.Decimal `yaml:"flat_percent"`
}

// RoundingScope controls which stages of cantonal evaluation round.
type RoundingScope string

const (
	ScopeAsOfficial  RoundingScope = "as_official"
	ScopeTaxableOnly RoundingScope = "taxable_only"
	ScopeBoth        RoundingScope = "both"
)

// RoundingPolicy is {taxable_step, tax_round_to, scope}.
type RoundingPolicy struct {
	TaxableStep int64           `yaml:"taxable_step"`
	TaxRoundTo  decimal.Decimal `yaml:"tax_round_to"`
	Scope       RoundingScope   `yaml:"scope"`
}

// Multiplier is {code, name, rate, default_selected, optional}.
type Multiplier struct {
	Code            string          `yaml:"code"`
	Name            string          `yaml:"name"`
	Rate            decimal.Decimal `yaml:"rate"`
	DefaultSelected bool            `yaml:"default_selected"`
	Optional        bool            `yaml:"optional"`
}

// Municipality is a name plus its ordered multipliers.
type Municipality struct {
	Name        string       `yaml:"name"`
	Multipliers []Multiplier `yaml:"multipliers"`
}

// ByCode looks up a multiplier by its unique code.
func (m Municipality) ByCode(code string) (Multiplier, bool) {
	for _, mult := range m.Multipliers {
		if mult.Code == code {
			return mult, true
		}
	}
	return Multiplier{}, false
}

// Canton is name + brackets + optional override + rounding policy +
// municipalities.
type Canton struct {
	Name           string                  `yaml:"name"`
	Abbreviation   string                  `yaml:"abbreviation"`
	Brackets       []CantonalBracket       `yaml:"brackets"`
	Override       *CantonalOverride       `yaml:"override,omitempty"`
	Rounding       RoundingPolicy          `yaml:"rounding"`
	Municipalities map[string]Municipality `yaml:"municipalities"`
}

// YearConfig is the year-keyed aggregate: federal tables plus every
// configured canton.
type YearConfig struct {
	Year     int                   `yaml:"year"`
	Federal  FederalByFilingStatus `yaml:"federal"`
	Cantons  map[string]Canton     `yaml:"cantons"`
	Defaults Defaults              `yaml:"defaults"`
}

// Defaults names the default canton/municipality keys.
type Defaults struct {
	Canton       string `yaml:"canton"`
	Municipality string `yaml:"municipality"`
}

// Configuration is the full, multi-year document loaded once per
// process. It is loaded once per run and is immutable thereafter.
type Configuration struct {
	SchemaVersion string             `yaml:"schema_version"`
	Years         map[int]YearConfig `yaml:"years"`
}
