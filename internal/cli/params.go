package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/rshade/mealcarbon/internal/config"
	"github.com/rshade/mealcarbon/internal/report"
	"github.com/rshade/mealcarbon/internal/sampler"
)

// paramRow is one parameter in listings.
type paramRow struct {
	Name         string  `json:"name"`
	Unit         string  `json:"unit"`
	Distribution string  `json:"distribution"`
	Mean         float64 `json:"mean"`
	Overridden   bool    `json:"overridden,omitempty"`
}

// NewParamsCmd creates the params command, which lists the parameter table
// after configured overrides.
func NewParamsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "params",
		Short: "List the uncertain parameters and their distributions",
		Example: `  mealcarbon params
  mealcarbon params --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := report.ParseFormat(output)
			if err != nil {
				return err
			}
			cfg := config.GetGlobalConfig()
			s, err := cfg.Sampler()
			if err != nil {
				return fmt.Errorf("invalid parameter overrides: %w", err)
			}
			rows := paramRows(s, cfg.Simulation.Overrides)
			return renderParams(cmd.OutOrStdout(), rows, format)
		},
	}

	cmd.Flags().StringVar(&output, "output", "table", "output format: table, json, or ndjson")
	return cmd
}

func paramRows(s *sampler.Sampler, overrides map[string]sampler.DistSpec) []paramRow {
	specs := s.Specs()
	rows := make([]paramRow, 0, len(specs))
	for _, spec := range specs {
		_, overridden := overrides[spec.Name]
		rows = append(rows, paramRow{
			Name:         spec.Name,
			Unit:         spec.Unit,
			Distribution: spec.Distribution.String(),
			Mean:         spec.Distribution.Mean(),
			Overridden:   overridden,
		})
	}
	return rows
}

func renderParams(w io.Writer, rows []paramRow, format report.Format) error {
	switch format {
	case report.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case report.FormatNDJSON:
		enc := json.NewEncoder(w)
		for _, r := range rows {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("writing NDJSON line: %w", err)
			}
		}
		return nil
	}

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		name := r.Name
		if r.Overridden {
			name += " *"
		}
		cells = append(cells, []string{name, r.Unit, r.Distribution, formatDraw(r.Mean, report.DefaultPrecision)})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Parameter", "Unit", "Distribution", "Mean").
		Rows(cells...).
		StyleFunc(func(_, _ int) lipgloss.Style { return lipgloss.NewStyle().Padding(0, 1) })
	_, err := fmt.Fprintln(w, t.String())
	return err
}
