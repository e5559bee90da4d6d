package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/taxglide/taxglide/internal/calculation"
	"github.com/taxglide/taxglide/internal/config"
	"github.com/taxglide/taxglide/internal/domain"
	"github.com/taxglide/taxglide/internal/obslog"
	"github.com/taxglide/taxglide/internal/output"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// exit codes
const (
	exitOK                   = 0
	exitInvalidInput         = 2
	exitCalculationError     = 3
	exitConfigurationMissing = 4
	exitValidationFailed     = 5
	exitInternalError        = 8
	exitSchemaMismatch       = 9
)

func exitCodeFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.ErrInvalidInput:
		return exitInvalidInput
	case domain.ErrCalculationError:
		return exitCalculationError
	case domain.ErrConfigurationMissing:
		return exitConfigurationMissing
	case domain.ErrConfigurationInvalid:
		return exitValidationFailed
	case domain.ErrSchemaMismatch:
		return exitSchemaMismatch
	default:
		return exitInternalError
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "taxglide: "+err.Error())
	os.Exit(exitCodeFor(domain.KindOf(err)))
}

var configPath string

var rootCmd = &cobra.Command{
	Use:   "taxglide",
	Short: "Swiss personal income tax calculator and deduction optimiser",
	Long:  "TaxGlide computes Swiss federal, cantonal, and municipal income tax and finds the deduction amount with the best return on investment.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "taxglide.yaml", "path to the year configuration file")
	rootCmd.AddCommand(calcCmd(), optimiseCmd(), scanCmd(), compareBracketsCmd(), validateCmd(), versionCmd())
}

func loadEngine() *calculation.Engine {
	cfg, err := config.NewLoader().LoadFromFile(configPath)
	if err != nil {
		fail(err)
	}
	return calculation.NewEngine(*cfg, calculation.ZapLogger{S: obslog.MustNew(false, false).Sugar()}, version)
}

// incomeFlags holds the --income / --income-sg / --income-fed XOR group
// shared by calc, optimise, scan, and compare-brackets.
type incomeFlags struct {
	income    string
	incomeSG  string
	incomeFed string
}

func (f *incomeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.income, "income", "", "income applied to both SG and federal bases")
	cmd.Flags().StringVar(&f.incomeSG, "income-sg", "", "cantonal/municipal taxable income")
	cmd.Flags().StringVar(&f.incomeFed, "income-fed", "", "federal taxable income")
}

func (f *incomeFlags) resolve() (sg, fed decimal.Decimal, err error) {
	hasIncome := f.income != ""
	hasPair := f.incomeSG != "" || f.incomeFed != ""
	if hasIncome == hasPair {
		return decimal.Zero, decimal.Zero, domain.NewError(domain.ErrInvalidInput, "exactly one of --income or (--income-sg and --income-fed) must be given")
	}
	if hasIncome {
		v, err := decimal.NewFromString(f.income)
		if err != nil {
			return decimal.Zero, decimal.Zero, domain.WrapError(domain.ErrInvalidInput, err, "invalid --income %q", f.income)
		}
		return v, v, nil
	}
	if f.incomeSG == "" || f.incomeFed == "" {
		return decimal.Zero, decimal.Zero, domain.NewError(domain.ErrInvalidInput, "both --income-sg and --income-fed must be given together")
	}
	sgV, err := decimal.NewFromString(f.incomeSG)
	if err != nil {
		return decimal.Zero, decimal.Zero, domain.WrapError(domain.ErrInvalidInput, err, "invalid --income-sg %q", f.incomeSG)
	}
	fedV, err := decimal.NewFromString(f.incomeFed)
	if err != nil {
		return decimal.Zero, decimal.Zero, domain.WrapError(domain.ErrInvalidInput, err, "invalid --income-fed %q", f.incomeFed)
	}
	return sgV, fedV, nil
}

func filingStatusFlag(s string) (domain.FilingStatus, error) {
	switch s {
	case "", "single":
		return domain.Single, nil
	case "married_joint":
		return domain.MarriedJoint, nil
	default:
		return "", domain.NewError(domain.ErrInvalidInput, "unknown --filing-status %q", s)
	}
}

func calcCmd() *cobra.Command {
	var inc incomeFlags
	var year int
	var canton, municipality, filingStatus string
	var picks, skips []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute a full tax breakdown for one income",
		Run: func(cmd *cobra.Command, args []string) {
			sg, fed, err := inc.resolve()
			if err != nil {
				fail(err)
			}
			fs, err := filingStatusFlag(filingStatus)
			if err != nil {
				fail(err)
			}
			e := loadEngine()
			bd, err := e.Calc(calculation.CalcParams{
				Year: year, Canton: canton, Municipality: municipality,
				IncomeSG: sg, IncomeFed: fed, FilingStatus: fs,
				Picks: calculation.PickSet{Picks: picks, Skips: skips},
			})
			if err != nil {
				fail(err)
			}
			if jsonOut {
				data, _ := output.JSON(bd)
				fmt.Println(string(data))
				return
			}
			fmt.Print(output.TaxBreakdownTable(bd))
		},
	}
	inc.register(cmd)
	cmd.Flags().IntVar(&year, "year", 0, "tax year")
	cmd.Flags().StringVar(&canton, "canton", "", "canton code (default from configuration)")
	cmd.Flags().StringVar(&municipality, "municipality", "", "municipality code (default from configuration)")
	cmd.Flags().StringVar(&filingStatus, "filing-status", "single", "single|married_joint")
	cmd.Flags().StringArrayVar(&picks, "pick", nil, "multiplier code to turn on (repeatable)")
	cmd.Flags().StringArrayVar(&skips, "skip", nil, "multiplier code to turn off (repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit structured JSON instead of a table")
	return cmd
}

func optimiseCmd() *cobra.Command {
	var inc incomeFlags
	var year int
	var canton, municipality, filingStatus string
	var picks, skips []string
	var maxDeduction, step int64
	var toleranceBp float64
	var toleranceSet bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:     "optimise",
		Aliases: []string{"optimize"},
		Short:   "Find the deduction with the best tax-savings return on investment",
		Run: func(cmd *cobra.Command, args []string) {
			sg, fed, err := inc.resolve()
			if err != nil {
				fail(err)
			}
			fs, err := filingStatusFlag(filingStatus)
			if err != nil {
				fail(err)
			}
			var tol *decimal.Decimal
			if toleranceSet {
				t := decimal.NewFromFloat(toleranceBp)
				tol = &t
			}
			e := loadEngine()
			report, err := e.Optimise(calculation.OptimiseRequest{
				Year: year, Canton: canton, Municipality: municipality,
				IncomeSG: sg, IncomeFed: fed, FilingStatus: fs,
				Picks:        calculation.PickSet{Picks: picks, Skips: skips},
				MaxDeduction: maxDeduction, Step: step, ToleranceBp: tol,
			})
			if err != nil {
				fail(err)
			}
			if jsonOut {
				data, _ := output.JSON(report)
				fmt.Println(string(data))
				return
			}
			fmt.Print(output.OptimisationSummaryTable(report))
		},
	}
	inc.register(cmd)
	cmd.Flags().IntVar(&year, "year", 0, "tax year")
	cmd.Flags().StringVar(&canton, "canton", "", "canton code (default from configuration)")
	cmd.Flags().StringVar(&municipality, "municipality", "", "municipality code (default from configuration)")
	cmd.Flags().StringVar(&filingStatus, "filing-status", "single", "single|married_joint")
	cmd.Flags().StringArrayVar(&picks, "pick", nil, "multiplier code to turn on (repeatable)")
	cmd.Flags().StringArrayVar(&skips, "skip", nil, "multiplier code to turn off (repeatable)")
	cmd.Flags().Int64Var(&maxDeduction, "max-deduction", 0, "maximum deduction to scan up to")
	cmd.Flags().Int64Var(&step, "step", 100, "deduction step size")
	cmd.Flags().Float64Var(&toleranceBp, "tolerance-bp", 0, "fixed ROI tolerance in basis points (disables adaptive retry)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit structured JSON instead of a summary")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		toleranceSet = cmd.Flags().Changed("tolerance-bp")
	}
	return cmd
}

func scanCmd() *cobra.Command {
	var inc incomeFlags
	var year int
	var canton, municipality, filingStatus string
	var picks, skips []string
	var maxDeduction, dStep int64
	var includeLocalMarginal bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a range of deductions and report tax/ROI at each step",
		Run: func(cmd *cobra.Command, args []string) {
			sg, fed, err := inc.resolve()
			if err != nil {
				fail(err)
			}
			fs, err := filingStatusFlag(filingStatus)
			if err != nil {
				fail(err)
			}
			e := loadEngine()
			rows, err := e.Scan(calculation.ScanRequest{
				Year: year, Canton: canton, Municipality: municipality,
				IncomeSG: sg, IncomeFed: fed, FilingStatus: fs,
				Picks:                calculation.PickSet{Picks: picks, Skips: skips},
				MaxDeduction:         maxDeduction,
				Step:                 dStep,
				IncludeLocalMarginal: includeLocalMarginal,
			})
			if err != nil {
				fail(err)
			}
			if jsonOut {
				data, _ := output.JSON(rows)
				fmt.Println(string(data))
				return
			}
			data, err := output.ScanRowsCSV(rows)
			if err != nil {
				fail(domain.WrapError(domain.ErrCalculationError, err, "failed to render CSV"))
			}
			fmt.Print(string(data))
		},
	}
	inc.register(cmd)
	cmd.Flags().IntVar(&year, "year", 0, "tax year")
	cmd.Flags().StringVar(&canton, "canton", "", "canton code (default from configuration)")
	cmd.Flags().StringVar(&municipality, "municipality", "", "municipality code (default from configuration)")
	cmd.Flags().StringVar(&filingStatus, "filing-status", "single", "single|married_joint")
	cmd.Flags().StringArrayVar(&picks, "pick", nil, "multiplier code to turn on (repeatable)")
	cmd.Flags().StringArrayVar(&skips, "skip", nil, "multiplier code to turn off (repeatable)")
	cmd.Flags().Int64Var(&maxDeduction, "max-deduction", 0, "maximum deduction to scan up to")
	cmd.Flags().Int64Var(&dStep, "d-step", 100, "deduction step size")
	cmd.Flags().BoolVar(&includeLocalMarginal, "include-local-marginal", true, "include per-row local marginal rate")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit structured JSON instead of CSV")
	return cmd
}

func compareBracketsCmd() *cobra.Command {
	var inc incomeFlags
	var year int
	var canton, municipality string
	var deduction int64

	cmd := &cobra.Command{
		Use:   "compare-brackets",
		Short: "Show which federal/cantonal brackets a deduction crosses",
		Run: func(cmd *cobra.Command, args []string) {
			sg, fed, err := inc.resolve()
			if err != nil {
				fail(err)
			}
			e := loadEngine()
			result, err := e.CompareBrackets(calculation.CompareBracketsRequest{
				Year: year, Canton: canton, Municipality: municipality,
				IncomeSG: sg, IncomeFed: fed, Deduction: deduction,
			})
			if err != nil {
				fail(err)
			}
			data, _ := output.JSON(result)
			fmt.Println(string(data))
		},
	}
	inc.register(cmd)
	cmd.Flags().IntVar(&year, "year", 0, "tax year")
	cmd.Flags().StringVar(&canton, "canton", "", "canton code (default from configuration)")
	cmd.Flags().StringVar(&municipality, "municipality", "", "municipality code (default from configuration)")
	cmd.Flags().Int64Var(&deduction, "deduction", 0, "deduction amount to evaluate")
	return cmd
}

func validateCmd() *cobra.Command {
	var year int
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Structurally validate the loaded configuration for a year",
		Run: func(cmd *cobra.Command, args []string) {
			e := loadEngine()
			report := e.Validate(year)
			if jsonOut {
				data, _ := output.JSON(report)
				fmt.Println(string(data))
			} else {
				fmt.Print(output.ValidationReportTable(report))
			}
			if !report.OK {
				os.Exit(exitValidationFailed)
			}
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "tax year")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit structured JSON instead of a table")
	return cmd
}

func versionCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			var v domain.VersionInfo
			if _, err := os.Stat(configPath); err == nil {
				e := loadEngine()
				v = e.Version()
			} else {
				v = domain.VersionInfo{Version: version}
			}
			if jsonOut {
				data, _ := output.JSON(v)
				fmt.Println(string(data))
				return
			}
			fmt.Printf("taxglide %s (commit %s, built %s)\n", version, commit, date)
			if v.SchemaVersion != "" {
				fmt.Printf("schema %s, supported years %v\n", v.SchemaVersion, v.SupportedYears)
			}
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit structured JSON instead of text")
	return cmd
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fail(err)
	}
}
