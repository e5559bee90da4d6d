// Package output renders core engine results (domain.TaxBreakdown,
// domain.OptimisationReport, []domain.ScanRow, etc.) into the formats the
// CLI and server expose to callers: structured JSON, a flat CSV table for
// scan rows, and a human-readable console table.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/taxglide/taxglide/internal/domain"
)

// JSON marshals any core result with indentation, matching the CLI's
// --json mode for every command.
func JSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// Currency renders a decimal as a fixed two-decimal CHF amount.
func Currency(v decimal.Decimal) string {
	return v.StringFixed(2)
}

// Percent renders a decimal already expressed in the 0-100 scale.
func Percent(v decimal.Decimal) string {
	return v.StringFixed(2) + "%"
}

// TaxBreakdownTable renders a calc() result as an aligned console table.
func TaxBreakdownTable(bd domain.TaxBreakdown) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%-24s %14s\n", "Federal tax", Currency(bd.Federal))
	fmt.Fprintf(&buf, "%-24s %14s\n", "Cantonal tax (simple)", Currency(bd.SgSimple))
	fmt.Fprintf(&buf, "%-24s %14s\n", "Cantonal tax (w/ mult.)", Currency(bd.SgAfterMultipliers))
	fmt.Fprintf(&buf, "%-24s %14s\n", "Total tax", Currency(bd.Total))
	fmt.Fprintf(&buf, "%-24s %14s\n", "Average rate", Percent(bd.AvgRate.Mul(decimal.NewFromInt(100))))
	fmt.Fprintf(&buf, "%-24s %14s\n", "Marginal (federal)", Percent(bd.MarginalFederalPer100.Mul(decimal.NewFromInt(100))))
	fmt.Fprintf(&buf, "%-24s %14s\n", "Marginal (total)", Percent(bd.MarginalTotal.Mul(decimal.NewFromInt(100))))
	if len(bd.PicksApplied) > 0 {
		fmt.Fprintf(&buf, "%-24s %14v\n", "Multipliers applied", bd.PicksApplied)
	}
	for _, w := range bd.Warnings {
		fmt.Fprintf(&buf, "warning: %s\n", w)
	}
	return buf.String()
}

// ScanRowsCSV renders a scan() result as a CSV table, one row per
// deduction step, suitable for spreadsheet import.
func ScanRowsCSV(rows []domain.ScanRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"deduction", "new_income_sg", "new_income_fed", "total_tax", "saved", "roi_percent", "local_marginal_percent"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range rows {
		marginal := ""
		if r.LocalMarginalPercent != nil {
			marginal = r.LocalMarginalPercent.StringFixed(2)
		}
		row := []string{
			intToString(r.Deduction),
			r.NewIncomeSG.StringFixed(2),
			r.NewIncomeFed.StringFixed(2),
			r.TotalTax.StringFixed(2),
			r.Saved.StringFixed(2),
			r.ROIPercent.StringFixed(2),
			marginal,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// OptimisationSummaryTable renders the sweet spot and best-rate facts of
// an optimise() result, the CLI's default (non-JSON) view.
func OptimisationSummaryTable(r domain.OptimisationReport) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Baseline total:     %s\n", Currency(r.BaseTotal))
	fmt.Fprintf(&buf, "Sweet spot:         %d CHF deduction\n", r.SweetSpot.Deduction)
	fmt.Fprintf(&buf, "  new income (SG):  %s\n", Currency(r.SweetSpot.NewIncomeSG))
	fmt.Fprintf(&buf, "  tax saved:        %s (%s)\n", Currency(r.SweetSpot.TaxSavedAbsolute), Percent(r.SweetSpot.TaxSavedPercent))
	fmt.Fprintf(&buf, "  federal bracket changed: %v\n", r.SweetSpot.OptimizationSummary.FederalBracketChanged)
	if r.BestRate != nil {
		fmt.Fprintf(&buf, "Best ROI:           %d CHF deduction, %s savings rate\n", r.BestRate.Deduction, Percent(r.BestRate.SavingsRatePercent))
	}
	fmt.Fprintf(&buf, "Plateau:            [%d, %d] CHF\n", r.PlateauNearMaxROI.MinD, r.PlateauNearMaxROI.MaxD)
	fmt.Fprintf(&buf, "Tolerance:          %s bp (%s)\n", r.ToleranceInfo.ToleranceUsedBp.String(), r.ToleranceInfo.ToleranceSource)
	if r.Federal100Nudge != nil {
		fmt.Fprintf(&buf, "100-nudge:          +%d CHF saves %s\n", r.Federal100Nudge.NudgeCHF, Currency(r.Federal100Nudge.EstimatedFederalSaving))
	}
	if r.SweetSpot.Multipliers.FeuerWarning != "" {
		fmt.Fprintf(&buf, "warning: %s\n", r.SweetSpot.Multipliers.FeuerWarning)
	}
	return buf.String()
}

// ValidationReportTable renders a validate() result.
func ValidationReportTable(r domain.ValidationReport) string {
	var buf bytes.Buffer
	if r.OK {
		fmt.Fprintln(&buf, "configuration OK")
		return buf.String()
	}
	fmt.Fprintln(&buf, "configuration INVALID:")
	for _, issue := range r.Issues {
		fmt.Fprintf(&buf, "  - %s\n", issue)
	}
	return buf.String()
}

func intToString(v int64) string {
	return fmt.Sprintf("%d", v)
}
