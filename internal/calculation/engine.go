package calculation

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/taxglide/taxglide/internal/domain"
)

// Engine is the top-level entry point: it owns an immutable Configuration
// and exposes the six core operations (calc, optimise, scan,
// compare_brackets, validate, version) over it. The CLI and TUI build one
// Engine per process; the server rebuilds its Engine when its cache entry
// expires or the configuration file is reloaded.
type Engine struct {
	cfg     domain.Configuration
	log     Logger
	version string
}

// NewEngine builds an Engine over a loaded, already-validated-at-load-time
// Configuration. A nil logger is replaced with NopLogger.
func NewEngine(cfg domain.Configuration, log Logger, version string) *Engine {
	if log == nil {
		log = NopLogger{}
	}
	if version == "" {
		version = "dev"
	}
	return &Engine{cfg: cfg, log: log, version: version}
}

// resolve looks up the year/canton/municipality triple, applying the
// year's defaults when cantonCode/muniCode are empty, and builds a Kernel
// bound to that resolved federal table, canton, and municipality.
func (e *Engine) resolve(year int, cantonCode, muniCode string) (Kernel, error) {
	yc, ok := e.cfg.Years[year]
	if !ok {
		return Kernel{}, domain.NewError(domain.ErrConfigurationMissing, "no configuration for year %d", year)
	}
	if cantonCode == "" {
		cantonCode = yc.Defaults.Canton
	}
	canton, ok := yc.Cantons[cantonCode]
	if !ok {
		return Kernel{}, domain.NewError(domain.ErrInvalidInput, "unknown canton %q for year %d", cantonCode, year)
	}
	if muniCode == "" {
		muniCode = yc.Defaults.Municipality
	}
	muni, ok := canton.Municipalities[muniCode]
	if !ok {
		return Kernel{}, domain.NewError(domain.ErrInvalidInput, "unknown municipality %q in canton %q", muniCode, cantonCode)
	}
	fed := NewFederalEvaluator(yc.Federal.Single)
	return NewKernel(fed, NewCantonalEvaluator(canton), muni), nil
}

func validateIncome(name string, v decimal.Decimal) error {
	if v.IsNegative() {
		return domain.NewError(domain.ErrInvalidInput, "%s must not be negative, got %s", name, v.String())
	}
	return nil
}

func validatePicks(muni domain.Municipality, picks PickSet) error {
	for _, code := range append(append([]string{}, picks.Picks...), picks.Skips...) {
		if _, ok := muni.ByCode(code); !ok {
			return domain.NewError(domain.ErrInvalidInput, "unknown multiplier code %q for this municipality", code)
		}
	}
	return nil
}

// CalcParams is calc()'s input.
type CalcParams struct {
	Year         int
	Canton       string
	Municipality string
	IncomeSG     decimal.Decimal
	IncomeFed    decimal.Decimal
	FilingStatus domain.FilingStatus
	Picks        PickSet
}

// Calc implements calc().
func (e *Engine) Calc(p CalcParams) (domain.TaxBreakdown, error) {
	k, err := e.resolve(p.Year, p.Canton, p.Municipality)
	if err != nil {
		return domain.TaxBreakdown{}, err
	}
	if err := validateIncome("income_sg", p.IncomeSG); err != nil {
		return domain.TaxBreakdown{}, err
	}
	if err := validateIncome("income_fed", p.IncomeFed); err != nil {
		return domain.TaxBreakdown{}, err
	}
	if err := validatePicks(k.Muni, p.Picks); err != nil {
		return domain.TaxBreakdown{}, err
	}
	return k.Evaluate(p.IncomeSG, p.IncomeFed, p.FilingStatus, p.Picks), nil
}

// ScanRequest is scan()'s input.
type ScanRequest struct {
	Year                 int
	Canton               string
	Municipality         string
	IncomeSG             decimal.Decimal
	IncomeFed            decimal.Decimal
	FilingStatus         domain.FilingStatus
	Picks                PickSet
	MaxDeduction         int64
	Step                 int64
	IncludeLocalMarginal bool
}

// Scan implements scan().
func (e *Engine) Scan(p ScanRequest) ([]domain.ScanRow, error) {
	k, err := e.resolve(p.Year, p.Canton, p.Municipality)
	if err != nil {
		return nil, err
	}
	if err := validateIncome("income_sg", p.IncomeSG); err != nil {
		return nil, err
	}
	if err := validateIncome("income_fed", p.IncomeFed); err != nil {
		return nil, err
	}
	if p.MaxDeduction < 0 {
		return nil, domain.NewError(domain.ErrInvalidInput, "max_deduction must not be negative, got %d", p.MaxDeduction)
	}
	if p.Step <= 0 {
		return nil, domain.NewError(domain.ErrInvalidInput, "step must be positive, got %d", p.Step)
	}
	if err := validatePicks(k.Muni, p.Picks); err != nil {
		return nil, err
	}
	return k.Scan(ScanParams{
		IncomeSG:             p.IncomeSG,
		IncomeFed:            p.IncomeFed,
		FilingStatus:         p.FilingStatus,
		Picks:                p.Picks,
		MaxDeduction:         p.MaxDeduction,
		Step:                 p.Step,
		IncludeLocalMarginal: p.IncludeLocalMarginal,
	}), nil
}

// OptimiseRequest is optimise()'s input.
type OptimiseRequest struct {
	Year         int
	Canton       string
	Municipality string
	IncomeSG     decimal.Decimal
	IncomeFed    decimal.Decimal
	FilingStatus domain.FilingStatus
	Picks        PickSet
	MaxDeduction int64
	Step         int64
	ToleranceBp  *decimal.Decimal
}

// Optimise implements optimise().
func (e *Engine) Optimise(p OptimiseRequest) (domain.OptimisationReport, error) {
	k, err := e.resolve(p.Year, p.Canton, p.Municipality)
	if err != nil {
		return domain.OptimisationReport{}, err
	}
	if err := validateIncome("income_sg", p.IncomeSG); err != nil {
		return domain.OptimisationReport{}, err
	}
	if err := validateIncome("income_fed", p.IncomeFed); err != nil {
		return domain.OptimisationReport{}, err
	}
	if err := validatePicks(k.Muni, p.Picks); err != nil {
		return domain.OptimisationReport{}, err
	}
	if p.ToleranceBp != nil && p.ToleranceBp.IsNegative() {
		return domain.OptimisationReport{}, domain.NewError(domain.ErrInvalidInput, "tolerance_bp must not be negative")
	}
	e.log.Debugf("optimise: year=%d canton=%s municipality=%s max_deduction=%d step=%d", p.Year, p.Canton, p.Municipality, p.MaxDeduction, p.Step)
	report, err := k.Optimize(OptimizeParams{
		IncomeSG:     p.IncomeSG,
		IncomeFed:    p.IncomeFed,
		FilingStatus: p.FilingStatus,
		Picks:        p.Picks,
		MaxDeduction: p.MaxDeduction,
		Step:         p.Step,
		ToleranceBp:  p.ToleranceBp,
	})
	if err != nil {
		return domain.OptimisationReport{}, err
	}
	return report, nil
}

// CompareBracketsRequest is compare_brackets()'s input.
type CompareBracketsRequest struct {
	Year         int
	Canton       string
	Municipality string
	IncomeSG     decimal.Decimal
	IncomeFed    decimal.Decimal
	Deduction    int64
}

// CompareBrackets implements compare_brackets().
func (e *Engine) CompareBrackets(p CompareBracketsRequest) (domain.CompareBracketsResult, error) {
	k, err := e.resolve(p.Year, p.Canton, p.Municipality)
	if err != nil {
		return domain.CompareBracketsResult{}, err
	}
	if err := validateIncome("income_sg", p.IncomeSG); err != nil {
		return domain.CompareBracketsResult{}, err
	}
	if err := validateIncome("income_fed", p.IncomeFed); err != nil {
		return domain.CompareBracketsResult{}, err
	}
	if p.Deduction < 0 {
		return domain.CompareBracketsResult{}, domain.NewError(domain.ErrInvalidInput, "deduction must not be negative, got %d", p.Deduction)
	}
	return k.CompareBrackets(p.IncomeSG, p.IncomeFed, p.Deduction), nil
}

// Validate implements validate(year): a structural,
// non-fatal health check over an already-loaded year's configuration
// (internal/config performs the fatal schema checks at load time; this
// re-checks the domain invariants scan/optimise rely on).
func (e *Engine) Validate(year int) domain.ValidationReport {
	yc, ok := e.cfg.Years[year]
	if !ok {
		return domain.ValidationReport{OK: false, Issues: []string{"no configuration for this year"}}
	}

	var issues []string
	issues = append(issues, validateFederalTable("single", yc.Federal.Single)...)
	issues = append(issues, validateFederalTable("married_joint", yc.Federal.MarriedJoint)...)

	if _, ok := yc.Cantons[yc.Defaults.Canton]; !ok {
		issues = append(issues, "default canton \""+yc.Defaults.Canton+"\" is not configured")
	} else if canton := yc.Cantons[yc.Defaults.Canton]; true {
		if _, ok := canton.Municipalities[yc.Defaults.Municipality]; !ok {
			issues = append(issues, "default municipality \""+yc.Defaults.Municipality+"\" is not configured in canton \""+yc.Defaults.Canton+"\"")
		}
	}

	for code, canton := range yc.Cantons {
		issues = append(issues, validateCanton(code, canton)...)
	}

	return domain.ValidationReport{OK: len(issues) == 0, Issues: issues}
}

func validateFederalTable(label string, table domain.FederalTable) []string {
	var issues []string
	segs := table.Segments
	if len(segs) == 0 {
		return []string{label + ": federal table has no segments"}
	}
	for i, s := range segs {
		if i > 0 {
			prev := segs[i-1]
			if prev.To == nil {
				issues = append(issues, label+": segment before the final one must have a bounded \"to\"")
				continue
			}
			if !prev.To.Equal(s.From) {
				issues = append(issues, label+": gap or overlap between federal segments at "+prev.To.String())
			}
		}
		if s.To != nil && !s.To.GreaterThan(s.From) {
			issues = append(issues, label+": segment \"to\" must be greater than \"from\"")
		}
	}
	if segs[len(segs)-1].To != nil {
		issues = append(issues, label+": final federal segment must be unbounded")
	}
	return issues
}

func validateCanton(code string, canton domain.Canton) []string {
	var issues []string
	brackets := append([]domain.CantonalBracket{}, canton.Brackets...)
	sort.Slice(brackets, func(i, j int) bool { return brackets[i].Lower.LessThan(brackets[j].Lower) })
	for i := 1; i < len(brackets); i++ {
		if !brackets[i-1].Upper().Equal(brackets[i].Lower) {
			issues = append(issues, code+": gap or overlap between cantonal brackets at "+brackets[i-1].Upper().String())
		}
	}
	if canton.Override != nil {
		if len(brackets) > 0 && canton.Override.Threshold.LessThan(brackets[len(brackets)-1].Lower) {
			issues = append(issues, code+": override threshold is below the top bracket's lower bound")
		}
	}
	if len(canton.Municipalities) == 0 {
		issues = append(issues, code+": canton has no municipalities configured")
	}
	return issues
}

// Version implements version().
func (e *Engine) Version() domain.VersionInfo {
	years := make([]int, 0, len(e.cfg.Years))
	for y := range e.cfg.Years {
		years = append(years, y)
	}
	sort.Ints(years)
	return domain.VersionInfo{
		Version:        e.version,
		SchemaVersion:  e.cfg.SchemaVersion,
		SupportedYears: years,
	}
}
