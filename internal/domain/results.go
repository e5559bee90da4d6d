package domain

import (
	"github.com/shopspring/decimal"
)

// TaxBreakdown is the tax kernel's output.
type TaxBreakdown struct {
	Federal               decimal.Decimal `json:"federal"`
	SgSimple              decimal.Decimal `json:"sg_simple"`
	SgAfterMultipliers    decimal.Decimal `json:"sg_after_multipliers"`
	Total                 decimal.Decimal `json:"total"`
	AvgRate               decimal.Decimal `json:"avg_rate"`
	MarginalTotal         decimal.Decimal `json:"marginal_total"`
	MarginalFederalPer100 decimal.Decimal `json:"marginal_federal_per100"`
	PicksApplied          []string        `json:"picks_applied"`
	Warnings              []string        `json:"warnings,omitempty"`
	IncomeSG              decimal.Decimal `json:"income_sg"`
	IncomeFed             decimal.Decimal `json:"income_fed"`
	FilingStatus          FilingStatus    `json:"filing_status"`
}

// BracketWindow is the [From, To) window of whichever bracket/segment
// currently covers an income, plus its marginal rate. For federal rows
// RatePerUnit is per100 (CHF per 100 CHF of income); for cantonal rows it
// is rate_percent/100 (a fraction). Used on scan rows and by
// compare_brackets.
type BracketWindow struct {
	From        decimal.Decimal  `json:"from"`
	To          *decimal.Decimal `json:"to,omitempty"`
	RatePerUnit decimal.Decimal  `json:"rate_per_unit"`
}

// ScanRow is one deduction's worth of results from the scan producer.
type ScanRow struct {
	Deduction               int64            `json:"deduction"`
	NewIncome               decimal.Decimal  `json:"new_income"`
	NewIncomeSG             decimal.Decimal  `json:"new_income_sg"`
	NewIncomeFed            decimal.Decimal  `json:"new_income_fed"`
	TotalTax                decimal.Decimal  `json:"total_tax"`
	Federal                 decimal.Decimal  `json:"federal"`
	SgSimple                decimal.Decimal  `json:"sg_simple"`
	SgAfterMultipliers      decimal.Decimal  `json:"sg_after_multipliers"`
	Saved                   decimal.Decimal  `json:"saved"`
	ROIPercent              decimal.Decimal  `json:"roi_percent"`
	FederalSegmentAtThisRow BracketWindow    `json:"federal_segment_at_this_row"`
	LocalMarginalPercent    *decimal.Decimal `json:"local_marginal_percent,omitempty"`
}

// PlateauReport is the contiguous near-max-ROI deduction range.
type PlateauReport struct {
	MinD          int64           `json:"min_d"`
	MaxD          int64           `json:"max_d"`
	ROIMinPercent decimal.Decimal `json:"roi_min_percent"`
	ROIMaxPercent decimal.Decimal `json:"roi_max_percent"`
	ToleranceBp   decimal.Decimal `json:"tolerance_bp"`
}

// FederalNudge is the "100-nudge" suggestion.
type FederalNudge struct {
	NudgeCHF               int64           `json:"nudge_chf"`
	EstimatedFederalSaving decimal.Decimal `json:"estimated_federal_saving"`
}

// IncomeDetails is the before/after income breakdown attached to a
// sweet spot.
type IncomeDetails struct {
	OriginalSG        decimal.Decimal `json:"original_sg"`
	OriginalFed       decimal.Decimal `json:"original_fed"`
	AfterDeductionSG  decimal.Decimal `json:"after_deduction_sg"`
	AfterDeductionFed decimal.Decimal `json:"after_deduction_fed"`
}

// MultiplierInfo records which multiplier codes ended up applied, plus
// any fire-service warning.
type MultiplierInfo struct {
	Applied      []string        `json:"applied"`
	TotalRate    decimal.Decimal `json:"total_rate"`
	FeuerWarning string          `json:"feuer_warning,omitempty"`
}

// OptimizationSummary is the compact explanation block on a sweet spot.
type OptimizationSummary struct {
	ROIPercent            decimal.Decimal `json:"roi_percent"`
	PlateauWidthCHF       int64           `json:"plateau_width_chf"`
	FederalBracketChanged bool            `json:"federal_bracket_changed"`
	MarginalRatePercent   decimal.Decimal `json:"marginal_rate_percent"`
	Notes                 []string        `json:"notes,omitempty"`
}

// BaselineInfo is the d=0 tax components a sweet spot is measured against.
type BaselineInfo struct {
	TotalTax   decimal.Decimal `json:"total_tax"`
	FederalTax decimal.Decimal `json:"federal_tax"`
	SgTax      decimal.Decimal `json:"sg_tax"`
}

// SweetSpot is the chosen, conservative plateau endpoint.
type SweetSpot struct {
	Deduction           int64               `json:"deduction"`
	NewIncome           decimal.Decimal     `json:"new_income"`
	NewIncomeSG         decimal.Decimal     `json:"new_income_sg"`
	NewIncomeFed        decimal.Decimal     `json:"new_income_fed"`
	TotalTaxAtSpot      decimal.Decimal     `json:"total_tax_at_spot"`
	FederalTaxAtSpot    decimal.Decimal     `json:"federal_tax_at_spot"`
	SgTaxAtSpot         decimal.Decimal     `json:"sg_tax_at_spot"`
	Baseline            BaselineInfo        `json:"baseline"`
	TaxSavedAbsolute    decimal.Decimal     `json:"tax_saved_absolute"`
	TaxSavedPercent     decimal.Decimal     `json:"tax_saved_percent"`
	Explanation         string              `json:"explanation"`
	IncomeDetails       IncomeDetails       `json:"income_details"`
	Multipliers         MultiplierInfo      `json:"multipliers"`
	OptimizationSummary OptimizationSummary `json:"optimization_summary"`
}

// BestRate is the row of maximum ROI.
type BestRate struct {
	Deduction          int64           `json:"deduction"`
	NewIncome          decimal.Decimal `json:"new_income"`
	Saved              decimal.Decimal `json:"saved"`
	SavingsRatePercent decimal.Decimal `json:"savings_rate_percent"`
}

// AdaptiveRetryInfo records which tolerance won and by how much.
type AdaptiveRetryInfo struct {
	OriginalToleranceBp    decimal.Decimal `json:"original_tolerance_bp"`
	ChosenToleranceBp      decimal.Decimal `json:"chosen_tolerance_bp"`
	ROIImprovement         decimal.Decimal `json:"roi_improvement"`
	UtilizationImprovement decimal.Decimal `json:"utilization_improvement"`
	SelectionReason        string          `json:"selection_reason"`
}

// ToleranceInfo explains which tolerance schedule entry was used.
type ToleranceInfo struct {
	ToleranceUsedBp  decimal.Decimal `json:"tolerance_used_bp"`
	TolerancePercent decimal.Decimal `json:"tolerance_percent"`
	ToleranceSource  string          `json:"tolerance_source"`  // "user" or "auto"
	Explanation      string          `json:"explanation"`
}

// OptimisationReport is the final assembled optimiser output.
type OptimisationReport struct {
	BaseTotal          decimal.Decimal    `json:"base_total"`
	BestRate           *BestRate          `json:"best_rate,omitempty"`
	PlateauNearMaxROI  PlateauReport      `json:"plateau_near_max_roi"`
	SweetSpot          SweetSpot          `json:"sweet_spot"`
	Federal100Nudge    *FederalNudge      `json:"federal_100_nudge,omitempty"`
	AdaptiveRetryUsed  *AdaptiveRetryInfo `json:"adaptive_retry_used,omitempty"`
	MultipliersApplied []string           `json:"multipliers_applied"`
	ToleranceInfo      ToleranceInfo      `json:"tolerance_info"`
}

// BracketComparison is one side (federal or cantonal) of compare_brackets.
type BracketComparison struct {
	Before  BracketWindow `json:"before"`
	After   BracketWindow `json:"after"`
	Changed bool          `json:"changed"`
}

// CompareBracketsResult is the compare_brackets output.
type CompareBracketsResult struct {
	Federal  BracketComparison `json:"federal"`
	Cantonal BracketComparison `json:"cantonal"`
}

// ValidationReport is the validate(year) output.
type ValidationReport struct {
	OK     bool     `json:"ok"`
	Issues []string `json:"issues,omitempty"`
}

// VersionInfo is the version() output.
type VersionInfo struct {
	Version        string `json:"version"`
	SchemaVersion  string `json:"schema_version"`
	SupportedYears []int  `json:"supported_years"`
}
