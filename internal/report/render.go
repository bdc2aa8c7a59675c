// Package report renders simulation results as tables, JSON or NDJSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/rshade/mealcarbon/internal/emissions"
	"github.com/rshade/mealcarbon/internal/simulation"
)

// Format is an output format.
type Format string

// Output formats.
const (
	FormatTable  Format = "table"
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
)

// SupportedFormats lists the formats in help-text order.
func SupportedFormats() []Format {
	return []Format{FormatTable, FormatJSON, FormatNDJSON}
}

// ParseFormat parses a format name. Empty means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatNDJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: table, json, ndjson)", ErrInvalidFormat, s)
	}
}

// Options controls rendering.
type Options struct {
	Format    Format
	Unit      Unit
	Precision int
	// Equivalencies adds miles-driven and smartphone comparisons.
	Equivalencies bool
	// PerTrial includes every trial's totals.
	PerTrial bool
	// Styled enables colors; set it only for terminals.
	Styled bool
}

// DefaultOptions returns table output in kg with equivalencies.
func DefaultOptions() Options {
	return Options{
		Format:        FormatTable,
		Unit:          UnitKg,
		Precision:     DefaultPrecision,
		Equivalencies: true,
	}
}

// Render writes res to w.
func Render(w io.Writer, res *simulation.Result, opts Options) error {
	if res == nil {
		return nil
	}
	format, err := ParseFormat(string(opts.Format))
	if err != nil {
		return err
	}
	view, err := BuildView(res, opts)
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		return RenderJSON(w, view)
	case FormatNDJSON:
		return RenderNDJSON(w, view)
	default:
		return RenderTable(w, view, opts)
	}
}

// RenderJSON writes view as one indented JSON document.
func RenderJSON(w io.Writer, view *View) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(view); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// ndjsonLine is one line of NDJSON output. Record is "stage", "trial" or
// "failure".
type ndjsonLine struct {
	Record  string            `json:"record"`
	RunID   string            `json:"run_id"`
	Meal    string            `json:"meal,omitempty"`
	Pathway emissions.Pathway `json:"pathway"`
	Stage   string            `json:"stage,omitempty"`
	Unit    Unit              `json:"unit,omitempty"`
	Trial   *int              `json:"trial,omitempty"`
	Total   *float64          `json:"total,omitempty"`
	Error   string            `json:"error,omitempty"`
	*simulation.Stats
}

// RenderNDJSON writes one JSON line per stage and total of every pathway,
// then one per trial outcome when records are present, then one per failure.
func RenderNDJSON(w io.Writer, view *View) error {
	enc := json.NewEncoder(w)
	write := func(line ndjsonLine) error {
		line.RunID = view.RunID
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("writing NDJSON line: %w", err)
		}
		return nil
	}

	for _, m := range view.Meals {
		for _, p := range m.Pathways {
			for _, s := range append(slices.Clone(p.Stages), p.Total) {
				line := ndjsonLine{Record: "stage", Meal: m.Meal, Pathway: p.Pathway, Stage: s.Name, Unit: view.Unit}
				// No successful samples: the line carries no statistics.
				if s.N > 0 {
					stats := s.Stats
					line.Stats = &stats
				}
				if err := write(line); err != nil {
					return err
				}
			}
		}
	}
	for _, t := range view.Records {
		for _, o := range t.Outcomes {
			if o.Failed() {
				continue
			}
			idx := t.Index
			total, err := view.Unit.FromKg(o.Emissions.Total())
			if err != nil {
				return err
			}
			if err := write(ndjsonLine{
				Record: "trial", Meal: o.Meal, Pathway: o.Pathway, Unit: view.Unit, Trial: &idx, Total: &total,
			}); err != nil {
				return err
			}
		}
	}
	for _, f := range view.Failures {
		idx := f.Trial
		if err := write(ndjsonLine{
			Record: "failure", Meal: f.Meal, Pathway: f.Pathway, Trial: &idx, Error: f.Error,
		}); err != nil {
			return err
		}
	}
	return nil
}

// RenderTable writes a human-readable report with one table per meal.
func RenderTable(w io.Writer, view *View, opts Options) error {
	st := newStyles(opts.Styled)
	prec := opts.Precision
	var b strings.Builder

	b.WriteString(st.title.Render("Meal-kit vs. grocery emissions"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Run %s | %s trials | seed %d | loss rates: %s | unit: %s\n",
		view.RunID, FormatNumber(int64(view.Trials)), view.Seed, view.LossRates, view.Unit.Label())

	point := view.Trials == 1
	for _, m := range view.Meals {
		b.WriteString("\n")
		b.WriteString(st.section.Render(m.Meal))
		b.WriteString("\n")
		b.WriteString(mealTable(m, point, prec, st).String())
		b.WriteString("\n")

		for _, p := range m.Pathways {
			label := pathwayLabel(p.Pathway)
			if p.Failed > 0 {
				fmt.Fprintf(&b, "%s: %s of %s trials failed and are excluded\n",
					label, FormatNumber(int64(p.Failed)), FormatNumber(int64(view.Trials)))
			}
			if p.Equivalency != nil {
				fmt.Fprintf(&b, "%s: %s\n", label, p.Equivalency.DisplayText)
			}
		}
		if c := m.Comparison; c != nil {
			b.WriteString(comparisonLine(*c, view.Unit, prec))
			b.WriteString("\n")
		}
	}

	if n := len(view.Failures); n > 0 {
		b.WriteString("\n")
		b.WriteString(st.warning.Render(fmt.Sprintf("%s outcome(s) skipped after errors", FormatNumber(int64(n)))))
		b.WriteString("\n")
	}

	if len(view.Records) > 0 {
		b.WriteString("\n")
		b.WriteString(st.section.Render("Per-trial totals"))
		b.WriteString("\n")
		t, err := trialTable(view, prec, st)
		if err != nil {
			return err
		}
		b.WriteString(t.String())
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// mealTable lays the two pathways side by side, stage i of each on row i.
func mealTable(m MealView, point bool, prec int, st styles) *table.Table {
	headers := []string{}
	for _, p := range m.Pathways {
		label := pathwayLabel(p.Pathway)
		if point {
			headers = append(headers, label+" stage", "Value")
		} else {
			headers = append(headers, label+" stage", "Mean", "90% interval")
		}
	}

	cells := func(s StageView) []string {
		if s.N == 0 {
			if point {
				return []string{s.Name, "n/a"}
			}
			return []string{s.Name, "n/a", ""}
		}
		if point {
			return []string{s.Name, FormatFloat(s.Mean, prec)}
		}
		return []string{s.Name, FormatFloat(s.Mean, prec), FormatInterval(s.P5, s.P95, prec)}
	}

	var rows [][]string
	for i := range emissions.NumStages {
		var row []string
		for _, p := range m.Pathways {
			row = append(row, cells(p.Stages[i])...)
		}
		rows = append(rows, row)
	}
	var total []string
	for _, p := range m.Pathways {
		total = append(total, cells(p.Total)...)
	}
	rows = append(rows, total)
	last := len(rows) - 1

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return st.header
			case row == last:
				return st.total
			default:
				return st.cell
			}
		})
}

func trialTable(view *View, prec int, st styles) (*table.Table, error) {
	var rows [][]string
	for _, t := range view.Records {
		for _, o := range t.Outcomes {
			value := "failed"
			if !o.Failed() {
				v, err := view.Unit.FromKg(o.Emissions.Total())
				if err != nil {
					return nil, err
				}
				value = FormatFloat(v, prec)
			}
			rows = append(rows, []string{
				FormatNumber(int64(t.Index)), o.Meal, pathwayLabel(o.Pathway), value,
			})
		}
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.border).
		Headers("Trial", "Meal", "Pathway", "Total").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.header
			}
			return st.cell
		}), nil
}

func comparisonLine(c Comparison, unit Unit, prec int) string {
	diff := c.Difference
	direction := "less"
	if diff > 0 {
		direction = "more"
	} else {
		diff = -diff
	}
	pct := c.ReductionPercent
	if pct < 0 {
		pct = -pct
	}
	return fmt.Sprintf("Meal kit emits %s %s than grocery (%s%%)",
		FormatAmount(diff, unit, prec), direction, FormatFloat(pct, 1))
}

func pathwayLabel(p emissions.Pathway) string {
	if p == emissions.PathwayMealKit {
		return "Meal kit"
	}
	return "Grocery"
}

type styles struct {
	title, section, warning lipgloss.Style
	header, cell, total     lipgloss.Style
	border                  lipgloss.Style
}

func newStyles(styled bool) styles {
	cell := lipgloss.NewStyle().Padding(0, 1)
	s := styles{
		title:   lipgloss.NewStyle(),
		section: lipgloss.NewStyle(),
		warning: lipgloss.NewStyle(),
		header:  cell,
		cell:    cell,
		total:   cell,
		border:  lipgloss.NewStyle(),
	}
	if !styled {
		return s
	}
	s.title = s.title.Bold(true)
	s.section = s.section.Bold(true).Foreground(lipgloss.Color("33"))
	s.warning = s.warning.Foreground(lipgloss.Color("208"))
	s.header = cell.Bold(true).Foreground(lipgloss.Color("252"))
	s.total = cell.Bold(true)
	s.border = s.border.Foreground(lipgloss.Color("240"))
	return s
}
