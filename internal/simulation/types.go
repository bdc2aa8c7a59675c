package simulation

import (
	"time"

	"github.com/rshade/mealcarbon/internal/emissions"
)

// Outcome is one meal evaluated on one pathway in one trial.
type Outcome struct {
	Meal      string                    `json:"meal"`
	Pathway   emissions.Pathway         `json:"pathway"`
	Emissions *emissions.StageEmissions `json:"emissions,omitempty"`
	Error     string                    `json:"error,omitempty"`

	err error
}

// Err returns the failure of a skipped outcome, or nil.
func (o Outcome) Err() error { return o.err }

// Failed reports whether the outcome was skipped after an error.
func (o Outcome) Failed() bool { return o.Emissions == nil }

// Trial is the record of one Monte Carlo draw.
type Trial struct {
	Index    int                  `json:"trial"`
	Params   emissions.Parameters `json:"params"`
	Outcomes []Outcome            `json:"outcomes"`
}

// StageStats are the statistics of one named stage.
type StageStats struct {
	Name string `json:"name"`
	Stats
}

// Summary aggregates one meal on one pathway across successful trials.
type Summary struct {
	Meal    string                          `json:"meal"`
	Pathway emissions.Pathway               `json:"pathway"`
	Stages  [emissions.NumStages]StageStats `json:"stages"`
	Total   Stats                           `json:"total"`
	Failed  int                             `json:"failed"`
}

// Failure identifies a skipped outcome.
type Failure struct {
	Trial   int               `json:"trial"`
	Meal    string            `json:"meal"`
	Pathway emissions.Pathway `json:"pathway"`
	Error   string            `json:"error"`
}

// Result is the output of a run.
type Result struct {
	RunID     string         `json:"run_id"`
	Seed      uint64         `json:"seed"`
	Trials    int            `json:"trials"`
	LossRates LossRateSource `json:"loss_rates"`
	Meals     []string       `json:"meals"`
	Records   []Trial        `json:"records,omitempty"`
	Summaries []Summary      `json:"summaries,omitempty"`
	Failures  []Failure      `json:"failures,omitempty"`
	Duration  time.Duration  `json:"duration_ns"`
}

// PointEstimate reports whether the run drew a single trial, in which case
// Summaries is empty and Records[0] holds the estimate.
func (r *Result) PointEstimate() bool {
	return r.Trials == 1
}

// Summary returns the summary of meal on pathway p.
func (r *Result) Summary(meal string, p emissions.Pathway) (Summary, bool) {
	for _, s := range r.Summaries {
		if s.Meal == meal && s.Pathway == p {
			return s, true
		}
	}
	return Summary{}, false
}
