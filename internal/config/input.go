// Package config loads and validates the YAML tax-year configuration
// document TaxGlide evaluates against, and optionally watches it for
// changes while a long-running process (the server) is up.
package config

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/fsnotify/fsnotify"
	"github.com/taxglide/taxglide/internal/domain"
	"gopkg.in/yaml.v3"
)

// Loader reads and validates a Configuration document from disk.
type Loader struct{}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFromFile reads a YAML configuration file, rejects unknown top-level
// keys, and validates the result before returning it.
func (l *Loader) LoadFromFile(filename string) (*domain.Configuration, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfigurationMissing, err, "failed to read configuration file %s", filename)
	}
	return l.LoadFromBytes(data)
}

// LoadFromBytes parses and validates a Configuration document already in
// memory, used by both LoadFromFile and the hot-reload watcher.
func (l *Loader) LoadFromBytes(data []byte) (*domain.Configuration, error) {
	if err := rejectUnknownKeys(data); err != nil {
		return nil, err
	}

	var cfg domain.Configuration
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, domain.WrapError(domain.ErrSchemaMismatch, err, "failed to parse configuration YAML")
	}

	if err := l.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// rejectUnknownKeys is a defence-in-depth pass: yaml.v3's KnownFields
// catches most typos, but this re-decodes into a generic map and reports
// any top-level key outside the schema so a misspelled top-level section
// fails loudly instead of silently vanishing. Canton and municipality
// codes are map keys and are not checked here.
func rejectUnknownKeys(data []byte) error {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return domain.WrapError(domain.ErrSchemaMismatch, err, "failed to parse configuration YAML")
	}
	allowed := map[string]bool{"schema_version": true, "years": true}
	for key := range raw {
		if !allowed[key] {
			return domain.NewError(domain.ErrSchemaMismatch, "unknown top-level configuration key %q", key)
		}
	}
	return nil
}

// Validate runs the load-time structural checks that make a
// configuration document usable: a malformed segment table, a gap
// between brackets, or a default that points nowhere is a
// ConfigurationInvalid error, not a warning.
func (l *Loader) Validate(cfg *domain.Configuration) error {
	if cfg.SchemaVersion == "" {
		return domain.NewError(domain.ErrConfigurationInvalid, "schema_version is required")
	}
	if len(cfg.Years) == 0 {
		return domain.NewError(domain.ErrConfigurationInvalid, "configuration must contain at least one year")
	}

	years := make([]int, 0, len(cfg.Years))
	for y := range cfg.Years {
		years = append(years, y)
	}
	sort.Ints(years)

	for _, year := range years {
		yc := cfg.Years[year]
		if yc.Year != 0 && yc.Year != year {
			return domain.NewError(domain.ErrConfigurationInvalid, "year key %d does not match embedded year %d", year, yc.Year)
		}
		if err := validateFederalByStatus(year, yc.Federal); err != nil {
			return err
		}
		if len(yc.Cantons) == 0 {
			return domain.NewError(domain.ErrConfigurationInvalid, "year %d: at least one canton is required", year)
		}
		if _, ok := yc.Cantons[yc.Defaults.Canton]; !ok {
			return domain.NewError(domain.ErrConfigurationInvalid, "year %d: default canton %q is not configured", year, yc.Defaults.Canton)
		}
		defaultCanton := yc.Cantons[yc.Defaults.Canton]
		if _, ok := defaultCanton.Municipalities[yc.Defaults.Municipality]; !ok {
			return domain.NewError(domain.ErrConfigurationInvalid, "year %d: default municipality %q is not configured in canton %q", year, yc.Defaults.Municipality, yc.Defaults.Canton)
		}
		for code, canton := range yc.Cantons {
			if err := validateCantonConfig(year, code, canton); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateFederalByStatus(year int, f domain.FederalByFilingStatus) error {
	if err := validateFederalTableConfig(year, "single", f.Single); err != nil {
		return err
	}
	if err := validateFederalTableConfig(year, "married_joint", f.MarriedJoint); err != nil {
		return err
	}
	return nil
}

func validateFederalTableConfig(year int, label string, table domain.FederalTable) error {
	if len(table.Segments) == 0 {
		return domain.NewError(domain.ErrConfigurationInvalid, "year %d: federal.%s has no segments", year, label)
	}
	for i, seg := range table.Segments {
		if seg.Per100.IsNegative() {
			return domain.NewError(domain.ErrConfigurationInvalid, "year %d: federal.%s segment %d has a negative per100 rate", year, label, i)
		}
		if i == 0 && !seg.From.IsZero() {
			return domain.NewError(domain.ErrConfigurationInvalid, "year %d: federal.%s first segment must start at 0", year, label)
		}
		if i > 0 {
			prev := table.Segments[i-1]
			if prev.To == nil {
				return domain.NewError(domain.ErrConfigurationInvalid, "year %d: federal.%s segment %d is not the last but has no \"to\"", year, label, i-1)
			}
			if !prev.To.Equal(seg.From) {
				return domain.NewError(domain.ErrConfigurationInvalid, "year %d: federal.%s has a gap or overlap at %s", year, label, prev.To.String())
			}
		}
	}
	if last := table.Segments[len(table.Segments)-1]; last.To != nil {
		return domain.NewError(domain.ErrConfigurationInvalid, "year %d: federal.%s final segment must be unbounded", year, label)
	}
	return nil
}

func validateCantonConfig(year int, code string, canton domain.Canton) error {
	if len(canton.Brackets) == 0 {
		return domain.NewError(domain.ErrConfigurationInvalid, "year %d: canton %q has no brackets", year, code)
	}
	brackets := append([]domain.CantonalBracket{}, canton.Brackets...)
	sort.Slice(brackets, func(i, j int) bool { return brackets[i].Lower.LessThan(brackets[j].Lower) })
	if !brackets[0].Lower.IsZero() {
		return domain.NewError(domain.ErrConfigurationInvalid, "year %d: canton %q's first bracket must start at 0", year, code)
	}
	if brackets[0].RatePercent.IsNegative() {
		return domain.NewError(domain.ErrConfigurationInvalid, "year %d: canton %q bracket %d has a negative rate", year, code, 0)
	}
	for i := 1; i < len(brackets); i++ {
		if !brackets[i-1].Upper().Equal(brackets[i].Lower) {
			return domain.NewError(domain.ErrConfigurationInvalid, "year %d: canton %q has a gap or overlap at %s", year, code, brackets[i-1].Upper().String())
		}
		if brackets[i].RatePercent.IsNegative() {
			return domain.NewError(domain.ErrConfigurationInvalid, "year %d: canton %q bracket %d has a negative rate", year, code, i)
		}
	}
	if canton.Override != nil && canton.Override.FlatPercent.IsNegative() {
		return domain.NewError(domain.ErrConfigurationInvalid, "year %d: canton %q's override flat_percent is negative", year, code)
	}
	if canton.Rounding.TaxRoundTo.IsZero() {
		// Rounding increment unset: default is applied by the evaluators
		// themselves (ESTV's 1 CHF cantonal rounding), so this is not fatal.
	}
	if len(canton.Municipalities) == 0 {
		return domain.NewError(domain.ErrConfigurationInvalid, "year %d: canton %q has no municipalities", year, code)
	}
	for name, muni := range canton.Municipalities {
		seen := map[string]bool{}
		for _, m := range muni.Multipliers {
			if seen[m.Code] {
				return domain.NewError(domain.ErrConfigurationInvalid, "year %d: canton %q municipality %q has a duplicate multiplier code %q", year, code, name, m.Code)
			}
			seen[m.Code] = true
			if m.Rate.IsNegative() {
				return domain.NewError(domain.ErrConfigurationInvalid, "year %d: canton %q municipality %q multiplier %q has a negative rate", year, code, name, m.Code)
			}
		}
	}
	return nil
}

// Watcher reloads a configuration from disk whenever it changes on disk,
// for the long-running server process. It never mutates the
// Configuration a caller is currently holding; every reload produces a
// brand new value that callers swap in atomically.
type Watcher struct {
	loader *Loader
	path   string
	fsw    *fsnotify.Watcher
	onLoad func(*domain.Configuration, error)
}

// NewWatcher starts watching path and invokes onLoad with the freshly
// reloaded configuration (or the error that prevented the reload) on
// every write or create event for the file; other events are ignored.
func NewWatcher(path string, onLoad func(*domain.Configuration, error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: failed to start file watcher: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("config: failed to watch %s: %w", path, err)
	}
	w := &Watcher{loader: NewLoader(), path: path, fsw: fsw, onLoad: onLoad}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := w.loader.LoadFromFile(w.path)
			w.onLoad(cfg, err)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
