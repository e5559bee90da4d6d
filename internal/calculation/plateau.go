package calculation

import (
	"github.com/shopspring/decimal"
	"github.com/taxglide/taxglide/internal/domain"
)

// DetectPlateau implements detect_plateau(rows, tolerance_bp) ->
// PlateauReport. tolerance_bp is in basis points (1 bp = 0.01 percentage
// point of ROI).
//
// The peak is the row with the highest d among those at r_max (rows[i]
// for i >= 1, i.e. d > 0). The plateau is the contiguous run of rows
// around that peak whose ROI is >= r_max - tolerance_bp/100.
func DetectPlateau(rows []domain.ScanRow, toleranceBp decimal.Decimal) domain.PlateauReport {
	if len(rows) == 0 {
		return domain.PlateauReport{ToleranceBp: toleranceBp}
	}

	rMax, peakIdx, found := maxROI(rows)
	if !found {
		d := rows[0].Deduction
		return domain.PlateauReport{
			MinD: d, MaxD: d,
			ROIMinPercent: decimal.Zero, ROIMaxPercent: decimal.Zero,
			ToleranceBp: toleranceBp,
		}
	}

	threshold := rMax.Sub(toleranceBp.Div(decimal.NewFromInt(100)))

	if rows[peakIdx].ROIPercent.LessThan(threshold) {
		d := rows[peakIdx].Deduction
		return domain.PlateauReport{
			MinD: d, MaxD: d,
			ROIMinPercent: rows[peakIdx].ROIPercent, ROIMaxPercent: rows[peakIdx].ROIPercent,
			ToleranceBp: toleranceBp,
		}
	}

	maxIdx := peakIdx
	for i := peakIdx + 1; i < len(rows); i++ {
		if rows[i].ROIPercent.LessThan(threshold) {
			break
		}
		maxIdx = i
	}

	minIdx := peakIdx
	for i := peakIdx - 1; i >= 0; i-- {
		if rows[i].Deduction == 0 {
			break
		}
		if rows[i].ROIPercent.LessThan(threshold) {
			break
		}
		minIdx = i
	}

	roiMin := rows[minIdx].ROIPercent
	roiMax := rows[maxIdx].ROIPercent
	if roiMin.GreaterThan(roiMax) {
		roiMin, roiMax = roiMax, roiMin
	}

	return domain.PlateauReport{
		MinD:          rows[minIdx].Deduction,
		MaxD:          rows[maxIdx].Deduction,
		ROIMinPercent: roiMin,
		ROIMaxPercent: roiMax,
		ToleranceBp:   toleranceBp,
	}
}

// maxROI returns the maximum ROI among rows with d > 0, and the index of
// the rightmost (highest-d) row achieving it. found is false when no row
// has d > 0 (a degenerate single-row scan).
func maxROI(rows []domain.ScanRow) (decimal.Decimal, int, bool) {
	var max decimal.Decimal
	idx := -1
	for i, r := range rows {
		if r.Deduction == 0 {
			continue
		}
		if idx == -1 || r.ROIPercent.GreaterThan(max) {
			max = r.ROIPercent
			idx = i
		} else if r.ROIPercent.Equal(max) {
			idx = i // prefer the rightmost row at the same max ROI
		}
	}
	if idx == -1 {
		return decimal.Zero, 0, false
	}
	return max, idx, true
}
