package simulation

import (
	"fmt"
	"strings"

	"github.com/rshade/mealcarbon/internal/batch"
)

// ErrorPolicy selects what happens when a meal fails in a trial.
type ErrorPolicy string

// Error policies.
const (
	// OnErrorAbort stops the run at the first failure.
	OnErrorAbort ErrorPolicy = "abort"
	// OnErrorSkip records the failure and excludes it from summaries.
	OnErrorSkip ErrorPolicy = "skip"
)

// ParseErrorPolicy parses "abort" or "skip". Empty means abort.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch ErrorPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", OnErrorAbort:
		return OnErrorAbort, nil
	case OnErrorSkip:
		return OnErrorSkip, nil
	default:
		return "", fmt.Errorf("invalid error policy %q (valid: abort, skip)", s)
	}
}

// LossRateSource selects where per-trial loss rates come from.
type LossRateSource string

// Loss-rate sources.
const (
	// LossRatesSampled uses the sampler's per-category draws.
	LossRatesSampled LossRateSource = "sampled"
	// LossRatesTable uses the static loss-rate table.
	LossRatesTable LossRateSource = "table"
)

// ParseLossRateSource parses "sampled" or "table". Empty means sampled.
func ParseLossRateSource(s string) (LossRateSource, error) {
	switch LossRateSource(strings.ToLower(strings.TrimSpace(s))) {
	case "", LossRatesSampled:
		return LossRatesSampled, nil
	case LossRatesTable:
		return LossRatesTable, nil
	default:
		return "", fmt.Errorf("invalid loss-rate source %q (valid: sampled, table)", s)
	}
}

// Default option values.
const (
	DefaultTrials  = 1000
	DefaultSeed    = 42
	DefaultWorkers = 4
)

// Options configures a Runner.
type Options struct {
	// Trials is the number of Monte Carlo draws; must be at least 1.
	Trials int
	// Seed is the base seed. Trial t draws from the stream (Seed, t).
	Seed uint64
	// Workers bounds concurrent batches. Values below 2 run sequentially.
	Workers int
	// BatchSize is the number of trials per batch; 0 uses batch.DefaultBatchSize.
	BatchSize int
	OnError   ErrorPolicy
	LossRates LossRateSource
	// KeepRecords retains every Trial in the Result.
	KeepRecords bool
	// OnProgress is called after each completed batch.
	OnProgress batch.ProgressCallback
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Trials:    DefaultTrials,
		Seed:      DefaultSeed,
		Workers:   DefaultWorkers,
		BatchSize: batch.DefaultBatchSize,
		OnError:   OnErrorAbort,
		LossRates: LossRatesSampled,
	}
}

// Validate checks o and fills empty policy fields with their defaults.
func (o *Options) Validate() error {
	if o.Trials < 1 {
		return fmt.Errorf("trials must be at least 1, got %d", o.Trials)
	}
	if o.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", o.Workers)
	}
	if o.BatchSize == 0 {
		o.BatchSize = batch.DefaultBatchSize
	}
	if o.BatchSize < batch.MinBatchSize || o.BatchSize > batch.MaxBatchSize {
		return fmt.Errorf("%w: got %d", batch.ErrInvalidBatchSize, o.BatchSize)
	}
	var err error
	if o.OnError, err = ParseErrorPolicy(string(o.OnError)); err != nil {
		return err
	}
	if o.LossRates, err = ParseLossRateSource(string(o.LossRates)); err != nil {
		return err
	}
	return nil
}
