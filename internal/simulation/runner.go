// Package simulation runs the Monte Carlo comparison of the meal-kit and
// grocery pathways. Each trial draws one parameter snapshot from its own
// seeded stream and evaluates every meal on both pathways.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rshade/mealcarbon/internal/batch"
	"github.com/rshade/mealcarbon/internal/emissions"
	"github.com/rshade/mealcarbon/internal/logging"
	"github.com/rshade/mealcarbon/internal/sampler"
)

// ErrNoMeals is returned when Run is called without meals.
var ErrNoMeals = errors.New("no meals to simulate")

// Runner evaluates trials over a fixed set of tables.
type Runner struct {
	tables    emissions.Tables
	sampler   *sampler.Sampler
	opts      Options
	processor *batch.Processor

	// tableRates replaces sampled loss rates when opts.LossRates is table.
	tableRates emissions.CategoryRates
}

// NewRunner validates opts and returns a Runner. A nil sampler uses the
// default parameter table.
func NewRunner(tables emissions.Tables, s *sampler.Sampler, opts Options) (*Runner, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if tables.Factors == nil {
		return nil, errors.New("emission factor table is required")
	}
	if s == nil {
		var err error
		if s, err = sampler.New(); err != nil {
			return nil, fmt.Errorf("building default sampler: %w", err)
		}
	}

	proc, err := batch.NewProcessor(opts.BatchSize)
	if err != nil {
		return nil, err
	}
	proc.WithProgressCallback(opts.OnProgress)

	r := &Runner{tables: tables, sampler: s, opts: opts, processor: proc}
	if opts.LossRates == LossRatesTable {
		if tables.LossRates == nil {
			return nil, errors.New("loss-rate source \"table\" requires a loss-rate table")
		}
		if r.tableRates, err = tables.LossRates.Rates(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Options returns the validated options.
func (r *Runner) Options() Options {
	return r.opts
}

// Run evaluates every meal on both pathways for each trial. Results do not
// depend on Workers or BatchSize.
func (r *Runner) Run(ctx context.Context, meals []emissions.Meal) (*Result, error) {
	if len(meals) == 0 {
		return nil, ErrNoMeals
	}
	if err := checkMealNames(meals); err != nil {
		return nil, err
	}

	runID := ulid.Make().String()
	log := logging.FromContext(ctx).With().
		Str("component", "simulation").
		Str("run_id", runID).
		Logger()
	start := time.Now()

	log.Info().Ctx(ctx).
		Int("trials", r.opts.Trials).
		Uint64("seed", r.opts.Seed).
		Int("workers", r.opts.Workers).
		Int("meals", len(meals)).
		Str("loss_rates", string(r.opts.LossRates)).
		Msg("simulation started")

	trials := make([]Trial, r.opts.Trials)
	err := r.processor.Run(ctx, r.opts.Trials, r.opts.Workers, func(ctx context.Context, span batch.Span) error {
		for i := span.Start; i < span.End; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := r.runTrial(i, meals)
			if err != nil {
				return err
			}
			trials[i] = t
		}
		log.Debug().Ctx(ctx).
			Int("batch", span.Index).
			Int("first_trial", span.Start).
			Int("trials", span.Len()).
			Msg("batch complete")
		return nil
	})
	if err != nil {
		log.Error().Ctx(ctx).Err(err).Msg("simulation failed")
		return nil, err
	}

	res := &Result{
		RunID:     runID,
		Seed:      r.opts.Seed,
		Trials:    r.opts.Trials,
		LossRates: r.opts.LossRates,
		Meals:     mealNames(meals),
		Failures:  collectFailures(trials),
	}
	if r.opts.Trials > 1 {
		res.Summaries = Summarize(meals, trials)
	}
	if r.opts.KeepRecords || r.opts.Trials == 1 {
		res.Records = trials
	}
	res.Duration = time.Since(start)

	for _, f := range res.Failures {
		log.Debug().Ctx(ctx).
			Int("trial", f.Trial).
			Str("meal", f.Meal).
			Stringer("pathway", f.Pathway).
			Str("error", f.Error).
			Msg("outcome skipped")
	}
	log.Info().Ctx(ctx).
		Int("failures", len(res.Failures)).
		Dur("duration", res.Duration).
		Msg("simulation complete")

	return res, nil
}

// runTrial draws the parameters of trial i and evaluates every meal.
func (r *Runner) runTrial(i int, meals []emissions.Meal) (Trial, error) {
	params, err := r.sampler.Sample(sampler.Stream(r.opts.Seed, uint64(i)))
	if err != nil {
		return Trial{}, fmt.Errorf("trial %d: sampling parameters: %w", i, err)
	}
	if r.opts.LossRates == LossRatesTable {
		params = params.WithRates(r.tableRates)
	}

	t := Trial{
		Index:    i,
		Params:   params,
		Outcomes: make([]Outcome, 0, len(meals)*len(emissions.Pathways())),
	}
	for _, meal := range meals {
		for _, p := range emissions.Pathways() {
			stages, err := emissions.Evaluate(p, emissions.Input{
				Meal:        meal.Name,
				Ingredients: meal.Ingredients(p),
				Params:      params,
				Tables:      r.tables,
			})
			if err != nil {
				err = fmt.Errorf("trial %d meal %q %s: %w", i, meal.Name, p, err)
				if r.opts.OnError == OnErrorAbort {
					return Trial{}, err
				}
				t.Outcomes = append(t.Outcomes, Outcome{Meal: meal.Name, Pathway: p, Error: err.Error(), err: err})
				continue
			}
			t.Outcomes = append(t.Outcomes, Outcome{Meal: meal.Name, Pathway: p, Emissions: &stages})
		}
	}
	return t, nil
}

// Summarize aggregates successful outcomes per meal and pathway in meal
// order, meal-kit before grocery.
func Summarize(meals []emissions.Meal, trials []Trial) []Summary {
	pathways := emissions.Pathways()
	type key struct {
		meal string
		p    emissions.Pathway
	}
	type series struct {
		stages [emissions.NumStages][]float64
		totals []float64
		failed int
	}
	acc := make(map[key]*series, len(meals)*len(pathways))
	for _, m := range meals {
		for _, p := range pathways {
			acc[key{m.Name, p}] = &series{}
		}
	}

	for _, t := range trials {
		for _, o := range t.Outcomes {
			s, ok := acc[key{o.Meal, o.Pathway}]
			if !ok {
				continue
			}
			if o.Failed() {
				s.failed++
				continue
			}
			for j, v := range o.Emissions.Values() {
				s.stages[j] = append(s.stages[j], v)
			}
			s.totals = append(s.totals, o.Emissions.Total())
		}
	}

	out := make([]Summary, 0, len(acc))
	for _, m := range meals {
		for _, p := range pathways {
			s := acc[key{m.Name, p}]
			sum := Summary{Meal: m.Name, Pathway: p, Total: Describe(s.totals), Failed: s.failed}
			for j, name := range emissions.StageNames(p) {
				sum.Stages[j] = StageStats{Name: name, Stats: Describe(s.stages[j])}
			}
			out = append(out, sum)
		}
	}
	return out
}

func collectFailures(trials []Trial) []Failure {
	var out []Failure
	for _, t := range trials {
		for _, o := range t.Outcomes {
			if o.Failed() {
				out = append(out, Failure{Trial: t.Index, Meal: o.Meal, Pathway: o.Pathway, Error: o.Error})
			}
		}
	}
	return out
}

func checkMealNames(meals []emissions.Meal) error {
	seen := make(map[string]bool, len(meals))
	for i, m := range meals {
		if m.Name == "" {
			return &emissions.IncompleteDataError{Row: i, Field: "name"}
		}
		if seen[m.Name] {
			return fmt.Errorf("duplicate meal %q", m.Name)
		}
		seen[m.Name] = true
	}
	return nil
}

func mealNames(meals []emissions.Meal) []string {
	names := make([]string, len(meals))
	for i, m := range meals {
		names[i] = m.Name
	}
	return names
}
