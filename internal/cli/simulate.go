package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/mealcarbon/internal/config"
	"github.com/rshade/mealcarbon/internal/dataset"
	"github.com/rshade/mealcarbon/internal/logging"
	"github.com/rshade/mealcarbon/internal/report"
	"github.com/rshade/mealcarbon/internal/simulation"
)

// simulateParams holds the flags of the simulate command. Zero values mean
// "use configuration" unless the flag was set explicitly.
type simulateParams struct {
	datasetPath     string
	meals           []string
	trials          int
	seed            uint64
	workers         int
	batchSize       int
	output          string
	unit            string
	precision       int
	lossRates       string
	onError         string
	perTrial        bool
	noProgress      bool
	noEquivalencies bool
}

// NewSimulateCmd creates the simulate command, which runs the Monte Carlo
// comparison and renders a report.
func NewSimulateCmd() *cobra.Command {
	var params simulateParams

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the meal-kit vs. grocery emissions simulation",
		Long: `Runs a seeded Monte Carlo simulation of the meal-kit and grocery pathways for
each meal in the dataset and reports per-stage emissions in kg CO2e.

With --trials 1 the report is a point estimate of a single draw. Otherwise each
stage is summarized by its mean and 90% interval over all trials. Results are
identical for a given seed regardless of --workers and --batch-size.`,
		Example: simulateExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeSimulate(cmd, params)
		},
	}

	f := cmd.Flags()
	f.StringVar(&params.datasetPath, "dataset", "", "dataset YAML file (default: configured path or the built-in dataset)")
	f.StringSliceVar(&params.meals, "meal", nil, "meal to simulate; repeatable (default: all meals)")
	f.IntVar(&params.trials, "trials", 0, "number of Monte Carlo trials")
	f.Uint64Var(&params.seed, "seed", 0, "base random seed")
	f.IntVar(&params.workers, "workers", 0, "concurrent batches (1 runs sequentially)")
	f.IntVar(&params.batchSize, "batch-size", 0, "trials per batch")
	f.StringVar(&params.output, "output", "", "output format: table, json, or ndjson")
	f.StringVar(&params.unit, "unit", "", "display unit: kg, g, or lb")
	f.IntVar(&params.precision, "precision", 0, "decimal places in table output")
	f.StringVar(&params.lossRates, "loss-rates", "", "loss-rate source: sampled or table")
	f.StringVar(&params.onError, "on-error", "", "failure policy: abort or skip")
	f.BoolVar(&params.perTrial, "per-trial", false, "include every trial's totals")
	f.BoolVar(&params.noProgress, "no-progress", false, "disable the progress bar")
	f.BoolVar(&params.noEquivalencies, "no-equivalencies", false, "omit miles-driven and smartphone comparisons")

	return cmd
}

const simulateExample = `  # Default run: built-in meals, configured trials and seed
  mealcarbon simulate

  # Point estimate of one meal
  mealcarbon simulate --trials 1 --meal Salmon

  # 10,000 trials on 8 workers, skipping failed outcomes
  mealcarbon simulate --trials 10000 --workers 8 --on-error skip

  # Use the static loss-rate table instead of sampled rates
  mealcarbon simulate --loss-rates table

  # Stream per-trial totals as NDJSON
  mealcarbon simulate --output ndjson --per-trial --no-progress`

// applySimulateFlags returns a copy of cfg with every explicitly set flag
// applied.
func applySimulateFlags(cmd *cobra.Command, cfg *config.Config, p simulateParams) *config.Config {
	c := *cfg
	f := cmd.Flags()
	if f.Changed("dataset") {
		c.Dataset.Path = p.datasetPath
	}
	if f.Changed("trials") {
		c.Simulation.Trials = p.trials
	}
	if f.Changed("seed") {
		c.Simulation.Seed = p.seed
	}
	if f.Changed("workers") {
		c.Simulation.Workers = p.workers
	}
	if f.Changed("batch-size") {
		c.Simulation.BatchSize = p.batchSize
	}
	if f.Changed("loss-rates") {
		c.Simulation.LossRates = p.lossRates
	}
	if f.Changed("on-error") {
		c.Simulation.OnError = p.onError
	}
	if f.Changed("output") {
		c.Output.DefaultFormat = p.output
	}
	if f.Changed("unit") {
		c.Output.Unit = p.unit
	}
	if f.Changed("precision") {
		c.Output.Precision = p.precision
	}
	if p.noEquivalencies {
		c.Output.Equivalencies = false
	}
	return &c
}

// executeSimulate loads the dataset, runs the simulation and renders the
// report to the command's output.
func executeSimulate(cmd *cobra.Command, params simulateParams) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)
	start := time.Now()

	cfg := applySimulateFlags(cmd, config.GetGlobalConfig(), params)

	opts, err := cfg.SimulationOptions()
	if err != nil {
		return fmt.Errorf("invalid simulation settings: %w", err)
	}
	opts.KeepRecords = params.perTrial

	renderOpts, err := cfg.ReportOptions()
	if err != nil {
		return fmt.Errorf("invalid output settings: %w", err)
	}
	renderOpts.PerTrial = params.perTrial
	renderOpts.Styled = renderOpts.Format == report.FormatTable && isWriterTerminal(cmd.OutOrStdout())

	s, err := cfg.Sampler()
	if err != nil {
		return fmt.Errorf("invalid parameter overrides: %w", err)
	}

	ds, err := dataset.LoadOrDefault(cfg.Dataset.Path)
	if err != nil {
		return err
	}
	if err := ds.Validate(); err != nil {
		if opts.OnError == simulation.OnErrorAbort {
			return fmt.Errorf("dataset %s: %w", ds.Source, err)
		}
		log.Warn().Ctx(ctx).Err(err).Str("dataset", ds.Source).
			Msg("dataset is incomplete; affected outcomes will be skipped")
	}
	meals, err := ds.Select(params.meals)
	if err != nil {
		return err
	}
	tables, err := ds.Tables()
	if err != nil {
		return err
	}

	var bar *progressReporter
	if !params.noProgress && opts.Trials > 1 && isWriterTerminal(cmd.ErrOrStderr()) {
		bar = newProgressReporter(cmd.ErrOrStderr(), opts.Trials)
		opts.OnProgress = bar.update
	}

	runner, err := simulation.NewRunner(tables, s, opts)
	if err != nil {
		return err
	}
	log.Debug().Ctx(ctx).
		Str("operation", "simulate").
		Str("dataset", ds.Source).
		Int("meals", len(meals)).
		Int("trials", opts.Trials).
		Uint64("seed", opts.Seed).
		Msg("starting simulation")

	res, runErr := runner.Run(ctx, meals)
	if bar != nil {
		bar.finish(runErr == nil)
	}
	if runErr != nil {
		return runErr
	}

	if err := renderResult(cmd.OutOrStdout(), res, renderOpts); err != nil {
		return err
	}

	log.Info().Ctx(ctx).
		Str("operation", "simulate").
		Str("run_id", res.RunID).
		Int("failures", len(res.Failures)).
		Dur("duration_ms", time.Since(start)).
		Msg("simulation complete")
	return nil
}

func renderResult(w io.Writer, res *simulation.Result, opts report.Options) error {
	if err := report.Render(w, res, opts); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}
