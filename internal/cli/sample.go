package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/rshade/mealcarbon/internal/config"
	"github.com/rshade/mealcarbon/internal/report"
	"github.com/rshade/mealcarbon/internal/sampler"
)

// maxSampleCount bounds the draws printed by the sample command.
const maxSampleCount = 1000

// sampleDraw is one printed parameter snapshot.
type sampleDraw struct {
	Seed   uint64          `json:"seed"`
	Draw   int             `json:"draw"`
	Values []sampler.Value `json:"values"`
}

// NewSampleCmd creates the sample command, which prints parameter draws.
// Draw i uses the same random stream as simulation trial i for the seed.
func NewSampleCmd() *cobra.Command {
	var (
		seed   uint64
		count  int
		output string
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print parameter draws",
		Long: `Prints raw draws of every uncertain parameter. Draw i uses the random stream of
simulation trial i, so "sample --seed S" shows exactly the parameters that
"simulate --seed S" evaluates.`,
		Example: `  # First three draws for seed 42
  mealcarbon sample --count 3

  # As JSON
  mealcarbon sample --seed 7 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			if !cmd.Flags().Changed("seed") {
				seed = cfg.Simulation.Seed
			}
			if count < 1 || count > maxSampleCount {
				return fmt.Errorf("count must be between 1 and %d, got %d", maxSampleCount, count)
			}
			format, err := report.ParseFormat(output)
			if err != nil {
				return err
			}
			s, err := cfg.Sampler()
			if err != nil {
				return fmt.Errorf("invalid parameter overrides: %w", err)
			}
			draws, err := drawSamples(s, seed, count)
			if err != nil {
				return err
			}
			return renderSamples(cmd.OutOrStdout(), draws, format, config.GetOutputPrecision())
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "base random seed (default: configured seed)")
	cmd.Flags().IntVar(&count, "count", 1, "number of draws")
	cmd.Flags().StringVar(&output, "output", "table", "output format: table, json, or ndjson")

	return cmd
}

func drawSamples(s *sampler.Sampler, seed uint64, count int) ([]sampleDraw, error) {
	draws := make([]sampleDraw, 0, count)
	for i := range count {
		_, values, err := s.SampleValues(sampler.Stream(seed, uint64(i)))
		if err != nil {
			return nil, fmt.Errorf("draw %d: %w", i, err)
		}
		draws = append(draws, sampleDraw{Seed: seed, Draw: i, Values: values})
	}
	return draws, nil
}

func renderSamples(w io.Writer, draws []sampleDraw, format report.Format, precision int) error {
	switch format {
	case report.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(draws)
	case report.FormatNDJSON:
		enc := json.NewEncoder(w)
		for _, d := range draws {
			if err := enc.Encode(d); err != nil {
				return fmt.Errorf("writing NDJSON line: %w", err)
			}
		}
		return nil
	}

	if len(draws) == 0 {
		return errors.New("no draws")
	}
	headers := []string{"Parameter", "Unit"}
	for _, d := range draws {
		headers = append(headers, "#"+strconv.Itoa(d.Draw))
	}
	rows := make([][]string, len(draws[0].Values))
	for i, v := range draws[0].Values {
		rows[i] = []string{v.Name, v.Unit}
	}
	for _, d := range draws {
		for i, v := range d.Values {
			rows[i] = append(rows[i], formatDraw(v.Value, precision))
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(_, _ int) lipgloss.Style { return lipgloss.NewStyle().Padding(0, 1) })
	_, err := fmt.Fprintf(w, "Seed %d\n%s\n", draws[0].Seed, t.String())
	return err
}

// formatDraw keeps significant digits for the tiny per-gram factors.
func formatDraw(v float64, precision int) string {
	if v != 0 && v < 0.001 && v > -0.001 {
		return strconv.FormatFloat(v, 'e', 3, 64)
	}
	return report.FormatFloat(v, precision)
}
