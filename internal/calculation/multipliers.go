package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/taxglide/taxglide/internal/domain"
)

// PickSet is the {picks, skips} pair passed to ApplyMultipliers.
type PickSet struct {
	Picks []string
	Skips []string
}

func toSet(codes []string) map[string]bool {
	s := make(map[string]bool, len(codes))
	for _, c := range codes {
		s[c] = true
	}
	return s
}

// ApplyMultipliers implements apply_multipliers(base_tax, municipality,
// picks, skips). A multiplier is "on" iff (default_selected OR in picks)
// AND NOT in skips, skip always wins.
// Combination is additive: after_tax = base_tax * sum(rate of "on"
// multipliers); if nothing is on, after_tax is zero, not base_tax.
func ApplyMultipliers(baseTax decimal.Decimal, muni domain.Municipality, picks PickSet) (decimal.Decimal, []string, []string) {
	pickSet := toSet(picks.Picks)
	skipSet := toSet(picks.Skips)

	var applied []string
	var warnings []string
	sumRate := decimal.Zero

	for _, m := range muni.Multipliers {
		on := (m.DefaultSelected || pickSet[m.Code]) && !skipSet[m.Code]
		if on {
			applied = append(applied, m.Code)
			sumRate = sumRate.Add(m.Rate)
			continue
		}
		if isFireService(m) {
			estimate := baseTax.Mul(m.Rate)
			warnings = append(warnings, fmt.Sprintf(
				"fire-service multiplier %s (%s) not applied; would add approximately %s CHF",
				m.Code, m.Name, estimate.StringFixed(2)))
		}
	}

	if len(applied) == 0 {
		warnings = append(warnings, "no multipliers selected for this municipality; sg_after_multipliers is 0")
		return decimal.Zero, applied, warnings
	}

	return baseTax.Mul(sumRate), applied, warnings
}

// isFireService reports whether a multiplier is the optional fire-service
// ("FEUER"-coded) entry; leaving it off produces a non-fatal warning
// rather than silently changing the tax result.
func isFireService(m domain.Multiplier) bool {
	return m.Optional && (m.Code == "FEUER" || m.Code == "FEUERWEHR")
}
