package emissions

import (
	"fmt"
	"math"
	"strings"
)

// Table names used in MissingFactorError.
const (
	TableEmissionFactors = "emission_factors"
	TableLossRates       = "loss_rates"
)

// percentScale converts loss percentages to fractions.
const percentScale = 100.0

// FactorTable maps item names to kg CO2e per gram. It is read-only after
// construction and safe for concurrent use.
type FactorTable struct {
	factors map[string]float64
}

// NewFactorTable copies entries into a FactorTable. Names are trimmed; blank
// names, names that collide after trimming, and negative or non-finite
// factors are rejected.
func NewFactorTable(entries map[string]float64) (*FactorTable, error) {
	factors := make(map[string]float64, len(entries))
	for name, v := range entries {
		key := strings.TrimSpace(name)
		if key == "" {
			return nil, fmt.Errorf("%w: empty item name", ErrInvalidFactor)
		}
		if _, dup := factors[key]; dup {
			return nil, fmt.Errorf("%w: duplicate entry for %q", ErrInvalidFactor, key)
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %q must be a finite value >= 0, got %v", ErrInvalidFactor, key, v)
		}
		factors[key] = v
	}
	return &FactorTable{factors: factors}, nil
}

// Lookup returns the factor for item or a *MissingFactorError.
func (t *FactorTable) Lookup(item string) (float64, error) {
	if t != nil {
		if v, ok := t.factors[item]; ok {
			return v, nil
		}
	}
	return 0, &MissingFactorError{Table: TableEmissionFactors, Item: item}
}

// Len returns the number of entries.
func (t *FactorTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.factors)
}

// LossRate holds the retail-loss and home-waste percentages of a category.
type LossRate struct {
	RetailPercent float64 `json:"retail_percent" yaml:"retail"`
	HomePercent   float64 `json:"home_percent"   yaml:"home"`
}

// LossRateTable maps categories to static loss percentages.
type LossRateTable struct {
	rates map[Category]LossRate
}

// NewLossRateTable copies entries into a LossRateTable. Each percentage must
// lie in [0,100).
func NewLossRateTable(entries map[Category]LossRate) (*LossRateTable, error) {
	rates := make(map[Category]LossRate, len(entries))
	for c, r := range entries {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: loss rate for invalid category %d", ErrIncompleteData, int(c))
		}
		if err := checkPercent(c.Key()+".retail", r.RetailPercent); err != nil {
			return nil, err
		}
		if err := checkPercent(c.Key()+".home", r.HomePercent); err != nil {
			return nil, err
		}
		rates[c] = r
	}
	return &LossRateTable{rates: rates}, nil
}

func checkPercent(name string, pct float64) error {
	if pct < 0 || pct >= percentScale || math.IsNaN(pct) {
		return &InvalidDistributionError{
			Name:   "loss_rate." + name,
			Reason: fmt.Sprintf("percentage %v outside [0,100)", pct),
		}
	}
	return nil
}

// Rate returns the loss fraction (percent / 100) of c.
func (t *LossRateTable) Rate(c Category, retail bool) (float64, error) {
	if t != nil {
		if r, ok := t.rates[c]; ok {
			if retail {
				return r.RetailPercent / percentScale, nil
			}
			return r.HomePercent / percentScale, nil
		}
	}
	return 0, &MissingFactorError{Table: TableLossRates, Item: c.String()}
}

// Rates returns the table as fractions for every category. Categories absent
// from the table yield a *MissingFactorError.
func (t *LossRateTable) Rates() (CategoryRates, error) {
	var out CategoryRates
	for _, c := range Categories() {
		retail, err := t.Rate(c, true)
		if err != nil {
			return out, err
		}
		home, err := t.Rate(c, false)
		if err != nil {
			return out, err
		}
		out[c] = RatePair{Retail: retail, Home: home}
	}
	return out, nil
}

// Tables is the read-only context shared by every model evaluation in a run.
type Tables struct {
	Factors   *FactorTable
	LossRates *LossRateTable
}
