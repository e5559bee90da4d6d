// Package tui implements an interactive deduction-scan and sweet-spot
// explorer over calculation.Engine, the terminal counterpart to
// "taxglide scan" / "taxglide optimise".
package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/taxglide/taxglide/internal/calculation"
	"github.com/taxglide/taxglide/internal/config"
	"github.com/taxglide/taxglide/internal/domain"
)

type stage int

const (
	stageForm stage = iota
	stageResults
)

type field int

const (
	fieldYear field = iota
	fieldIncome
	fieldMaxDeduction
	fieldStep
	fieldCount
)

// Model is the bubbletea root model for the scan explorer.
type Model struct {
	configPath string
	engine     *calculation.Engine
	loadErr    error

	stage  stage
	focus  field
	inputs [fieldCount]textinput.Model

	rows      []domain.ScanRow
	report    domain.OptimisationReport
	cursor    int
	runErr    error
	width     int
	height    int
}

type configLoadedMsg struct {
	engine *calculation.Engine
	err    error
}

// NewModel builds the initial model for configPath; loading happens
// asynchronously via Init/Update like the rest of this program's commands.
func NewModel(configPath string) Model {
	m := Model{configPath: configPath, stage: stageForm}

	defaults := []string{"2025", "85000", "10000", "100"}
	for i := range m.inputs {
		ti := textinput.New()
		ti.CharLimit = 10
		ti.Width = 14
		ti.SetValue(defaults[i])
		m.inputs[i] = ti
	}
	m.inputs[fieldYear].Focus()
	return m
}

func (m Model) Init() tea.Cmd {
	return func() tea.Msg {
		cfg, err := config.NewLoader().LoadFromFile(m.configPath)
		if err != nil {
			return configLoadedMsg{err: err}
		}
		return configLoadedMsg{engine: calculation.NewEngine(*cfg, nil, "dev")}
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	sweetRowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	cursorStyle   = lipgloss.NewStyle().Background(lipgloss.Color("238"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case configLoadedMsg:
		m.engine, m.loadErr = msg.engine, msg.err
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.stage {
		case stageForm:
			return m.updateForm(msg)
		case stageResults:
			return m.updateResults(msg)
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c", "esc"))):
		return m, tea.Quit
	case key.Matches(msg, key.NewBinding(key.WithKeys("tab", "down"))):
		m.inputs[m.focus].Blur()
		m.focus = (m.focus + 1) % fieldCount
		m.inputs[m.focus].Focus()
		return m, nil
	case key.Matches(msg, key.NewBinding(key.WithKeys("shift+tab", "up"))):
		m.inputs[m.focus].Blur()
		m.focus = (m.focus - 1 + fieldCount) % fieldCount
		m.inputs[m.focus].Focus()
		return m, nil
	case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
		return m.runScan()
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c", "q"))):
		return m, tea.Quit
	case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
		m.stage = stageForm
		return m, nil
	case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	}
	return m, nil
}

func (m Model) runScan() (tea.Model, tea.Cmd) {
	if m.engine == nil {
		m.runErr = fmt.Errorf("configuration not loaded yet")
		return m, nil
	}
	year, err := strconv.Atoi(m.inputs[fieldYear].Value())
	if err != nil {
		m.runErr = fmt.Errorf("invalid year: %w", err)
		return m, nil
	}
	income, err := decimal.NewFromString(m.inputs[fieldIncome].Value())
	if err != nil {
		m.runErr = fmt.Errorf("invalid income: %w", err)
		return m, nil
	}
	maxDeduction, err := strconv.ParseInt(m.inputs[fieldMaxDeduction].Value(), 10, 64)
	if err != nil {
		m.runErr = fmt.Errorf("invalid max deduction: %w", err)
		return m, nil
	}
	step, err := strconv.ParseInt(m.inputs[fieldStep].Value(), 10, 64)
	if err != nil {
		m.runErr = fmt.Errorf("invalid step: %w", err)
		return m, nil
	}

	rows, err := m.engine.Scan(calculation.ScanRequest{
		Year: year, IncomeSG: income, IncomeFed: income,
		FilingStatus: domain.Single, MaxDeduction: maxDeduction, Step: step,
		IncludeLocalMarginal: true,
	})
	if err != nil {
		m.runErr = err
		return m, nil
	}
	report, err := m.engine.Optimise(calculation.OptimiseRequest{
		Year: year, IncomeSG: income, IncomeFed: income,
		FilingStatus: domain.Single, MaxDeduction: maxDeduction, Step: step,
	})
	if err != nil {
		m.runErr = err
		return m, nil
	}

	m.rows, m.report, m.runErr = rows, report, nil
	m.stage = stageResults
	m.cursor = 0
	for i, r := range rows {
		if r.Deduction == report.SweetSpot.Deduction {
			m.cursor = i
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.loadErr != nil {
		return errorStyle.Render("failed to load configuration: "+m.loadErr.Error()) + "\n"
	}
	switch m.stage {
	case stageResults:
		return m.viewResults()
	default:
		return m.viewForm()
	}
}

func (m Model) viewForm() string {
	labels := []string{"Year", "Income", "Max deduction", "Step"}
	var b string
	b += titleStyle.Render("TaxGlide — deduction scan explorer") + "\n\n"
	for i, ti := range m.inputs {
		b += fmt.Sprintf("%s%-16s %s\n", focusMarker(m.focus == field(i)), labelStyle.Render(labels[i]), ti.View())
	}
	if m.runErr != nil {
		b += "\n" + errorStyle.Render(m.runErr.Error()) + "\n"
	}
	b += "\n" + helpStyle.Render("tab/shift+tab move · enter run scan · esc quit") + "\n"
	return b
}

func focusMarker(on bool) string {
	if on {
		return "> "
	}
	return "  "
}

func (m Model) viewResults() string {
	var b string
	b += titleStyle.Render(fmt.Sprintf("Scan results — sweet spot %d CHF", m.report.SweetSpot.Deduction)) + "\n\n"
	b += fmt.Sprintf("%8s %12s %12s %10s %10s\n", "deduct", "total_tax", "saved", "roi%", "marginal%")
	for i, r := range m.rows {
		line := fmt.Sprintf("%8d %12s %12s %10s %10s",
			r.Deduction, r.TotalTax.StringFixed(2), r.Saved.StringFixed(2), r.ROIPercent.StringFixed(2), marginalString(r))
		switch {
		case r.Deduction == m.report.SweetSpot.Deduction:
			line = sweetRowStyle.Render(line + "  <- sweet spot")
		case i == m.cursor:
			line = cursorStyle.Render(line)
		}
		b += line + "\n"
	}
	b += "\n" + helpStyle.Render("up/down move · esc back to form · q quit") + "\n"
	return b
}

func marginalString(r domain.ScanRow) string {
	if r.LocalMarginalPercent == nil {
		return "-"
	}
	return r.LocalMarginalPercent.StringFixed(2)
}
