package calculation

import (
	"github.com/shopspring/decimal"
	"github.com/taxglide/taxglide/internal/domain"
	"github.com/taxglide/taxglide/internal/money"
)

// ToleranceSchedule returns the candidate plateau tolerances (in basis
// points) to try, in order, chosen by income class.
func ToleranceSchedule(incomeSG decimal.Decimal) []decimal.Decimal {
	bp := func(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
	switch {
	case incomeSG.LessThan(decimal.NewFromInt(30000)):
		return []decimal.Decimal{bp(5), bp(10), bp(20), bp(50), bp(100)}
	case incomeSG.LessThan(decimal.NewFromInt(80000)):
		return []decimal.Decimal{bp(10), bp(20), bp(30), bp(75), bp(150)}
	case incomeSG.LessThan(decimal.NewFromInt(150000)):
		return []decimal.Decimal{bp(15), bp(30), bp(50), bp(100), bp(200)}
	default:
		return []decimal.Decimal{bp(20), bp(40), bp(75), bp(150), bp(200)}
	}
}

type retryCandidate struct {
	toleranceBp decimal.Decimal
	plateau     domain.PlateauReport
	utilisation decimal.Decimal
	roiAtSpot   decimal.Decimal
}

// AdaptiveRetry runs when the caller hasn't pinned a single tolerance: it
// tries the income-appropriate schedule and keeps the candidate with the
// best lexicographic score of (min(utilisation, 0.5), roi_at_spot). Ties
// fall back to whichever candidate the schedule tried first, so a
// smaller tolerance wins over an equally-scoring larger one.
func AdaptiveRetry(rows []domain.ScanRow, maxDeduction int64, incomeSG decimal.Decimal) (domain.PlateauReport, *domain.AdaptiveRetryInfo) {
	schedule := ToleranceSchedule(incomeSG)
	candidates := make([]retryCandidate, 0, len(schedule))
	for _, bp := range schedule {
		candidates = append(candidates, buildCandidate(rows, maxDeduction, bp))
	}

	best := 0
	for i := 1; i < len(candidates); i++ {
		if candidateScoreBetter(candidates[i], candidates[best]) {
			best = i
		}
	}

	reason := "first_choice"
	if best != 0 {
		roiUp := candidates[best].roiAtSpot.GreaterThan(candidates[0].roiAtSpot)
		utilUp := candidates[best].utilisation.GreaterThan(candidates[0].utilisation)
		switch {
		case roiUp && utilUp:
			reason = "balanced_improvement"
		case roiUp:
			reason = "roi_improvement"
		default:
			reason = "utilisation_improvement"
		}
	}

	info := &domain.AdaptiveRetryInfo{
		OriginalToleranceBp:    schedule[0],
		ChosenToleranceBp:      candidates[best].toleranceBp,
		ROIImprovement:         candidates[best].roiAtSpot.Sub(candidates[0].roiAtSpot),
		UtilizationImprovement: candidates[best].utilisation.Sub(candidates[0].utilisation),
		SelectionReason:        reason,
	}
	return candidates[best].plateau, info
}

func buildCandidate(rows []domain.ScanRow, maxDeduction int64, toleranceBp decimal.Decimal) retryCandidate {
	plateau := DetectPlateau(rows, toleranceBp)
	utilisation := decimal.Zero
	if maxDeduction > 0 {
		utilisation, _ = money.SafeDiv(decimal.NewFromInt(plateau.MaxD), decimal.NewFromInt(maxDeduction))
	}
	roiAtSpot := decimal.Zero
	if row := findRow(rows, plateau.MaxD); row != nil {
		roiAtSpot = row.ROIPercent
	}
	return retryCandidate{toleranceBp: toleranceBp, plateau: plateau, utilisation: utilisation, roiAtSpot: roiAtSpot}
}

// candidateScoreBetter compares two candidates by the lexicographic score
// (min(utilisation, 0.5), roi_at_spot) and reports whether a scores
// strictly higher than b. On a tie it returns false, so b (the earlier,
// smaller-tolerance candidate when called in schedule order) is kept.
func candidateScoreBetter(a, b retryCandidate) bool {
	capped := decimal.NewFromFloat(0.5)
	au := decimal.Min(a.utilisation, capped)
	bu := decimal.Min(b.utilisation, capped)
	if !au.Equal(bu) {
		return au.GreaterThan(bu)
	}
	return a.roiAtSpot.GreaterThan(b.roiAtSpot)
}
