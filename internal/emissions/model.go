package emissions

import (
	"fmt"
	"math"
	"strings"
)

// Pathway identifies how a meal reaches the customer.
type Pathway int

const (
	// PathwayMealKit is home delivery of a pre-portioned meal kit.
	PathwayMealKit Pathway = iota
	// PathwayGrocery is a customer trip to a grocery store.
	PathwayGrocery
)

// Pathways returns both pathways in evaluation order.
func Pathways() []Pathway {
	return []Pathway{PathwayMealKit, PathwayGrocery}
}

// String returns the pathway identifier.
func (p Pathway) String() string {
	switch p {
	case PathwayMealKit:
		return "meal_kit"
	case PathwayGrocery:
		return "grocery"
	default:
		return fmt.Sprintf("Pathway(%d)", int(p))
	}
}

// ParsePathway parses "meal_kit" or "grocery". Dashes are accepted in place
// of underscores.
func ParsePathway(s string) (Pathway, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "meal_kit", "mealkit":
		return PathwayMealKit, nil
	case "grocery":
		return PathwayGrocery, nil
	default:
		return 0, fmt.Errorf("unknown pathway %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Pathway) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pathway) UnmarshalText(text []byte) error {
	parsed, err := ParsePathway(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Stage names. Production, packaging and last-mile are shared by both
// pathways; the middle two stages differ.
const (
	StageProduction      = "production"
	StagePackaging       = "packaging"
	StageProcessing      = "processing"
	StageDelivery        = "delivery"
	StageTransportation  = "transportation"
	StageRetailOperation = "retail_operation"
	StageLastMile        = "last_mile"
)

// NumStages is the number of lifecycle stages of every pathway.
const NumStages = 5

// StageNames returns the ordered stage names of pathway p.
func StageNames(p Pathway) [NumStages]string {
	if p == PathwayGrocery {
		return [NumStages]string{
			StageProduction, StagePackaging, StageTransportation, StageRetailOperation, StageLastMile,
		}
	}
	return [NumStages]string{
		StageProduction, StagePackaging, StageProcessing, StageDelivery, StageLastMile,
	}
}

// Stage is one named stage value in kg CO2e.
type Stage struct {
	Name   string  `json:"name"`
	KgCO2e float64 `json:"kg_co2e"`
}

// StageEmissions is the ordered five-stage breakdown of one meal on one pathway.
type StageEmissions struct {
	Pathway Pathway          `json:"pathway"`
	Stages  [NumStages]Stage `json:"stages"`
}

// Total returns the sum of the five stages, added in stage order.
func (s StageEmissions) Total() float64 {
	var total float64
	for _, st := range s.Stages {
		total += st.KgCO2e
	}
	return total
}

// Get returns the value of the named stage.
func (s StageEmissions) Get(name string) (float64, bool) {
	for _, st := range s.Stages {
		if st.Name == name {
			return st.KgCO2e, true
		}
	}
	return 0, false
}

// Values returns the stage values in order.
func (s StageEmissions) Values() [NumStages]float64 {
	var out [NumStages]float64
	for i, st := range s.Stages {
		out[i] = st.KgCO2e
	}
	return out
}

func newStageEmissions(p Pathway, values [NumStages]float64) StageEmissions {
	names := StageNames(p)
	out := StageEmissions{Pathway: p}
	for i := range out.Stages {
		out.Stages[i] = Stage{Name: names[i], KgCO2e: values[i]}
	}
	return out
}

// Model evaluates one meal on one pathway. Implementations are pure: calling
// any method repeatedly returns the same result and has no side effects.
type Model interface {
	// Pathway returns the pathway the model evaluates.
	Pathway() Pathway

	// Stages returns the five stage values.
	Stages() (StageEmissions, error)

	// Total returns the sum of the five stage values.
	Total() (float64, error)
}

// Input bundles what a model needs to evaluate one meal.
type Input struct {
	// Meal names the meal in error messages.
	Meal string

	// Ingredients are the records of the meal on the evaluated pathway.
	Ingredients []IngredientRecord

	// Params is the trial's parameter snapshot.
	Params Parameters

	// Tables holds the read-only factor and loss-rate lookups.
	Tables Tables
}

// New returns the model for pathway p.
func New(p Pathway, in Input) (Model, error) {
	switch p {
	case PathwayMealKit:
		return NewMealKit(in), nil
	case PathwayGrocery:
		return NewGrocery(in), nil
	default:
		return nil, fmt.Errorf("unknown pathway %d", int(p))
	}
}

// Evaluate builds the model for p and returns its stages.
func Evaluate(p Pathway, in Input) (StageEmissions, error) {
	m, err := New(p, in)
	if err != nil {
		return StageEmissions{}, err
	}
	return m.Stages()
}

// validateIngredients checks every record of in.
func validateIngredients(in Input) error {
	for i, r := range in.Ingredients {
		if err := r.Validate(in.Meal, i); err != nil {
			return err
		}
	}
	return nil
}

// lossAdjusted returns mass / (1 - rate), the production-equivalent mass of
// an ingredient after loss or waste. rate must lie in [0,1).
func lossAdjusted(mass, rate float64, c Category, context string) (float64, error) {
	if rate < 0 || rate >= 1 || math.IsNaN(rate) {
		return 0, &InvalidDistributionError{
			Name:   "loss_rate." + c.Key() + "." + context,
			Reason: fmt.Sprintf("rate %v outside [0,1)", rate),
		}
	}
	return mass / (1 - rate), nil
}

// packagingEmissions returns Σ_k Q_B[k] · factor(k) over kinds with mass.
func packagingEmissions(records []IngredientRecord, factors *FactorTable) (float64, error) {
	var byKind PackagingMasses
	for _, r := range records {
		for k, grams := range r.Packaging {
			byKind[k] += grams
		}
	}

	var total float64
	for k, grams := range byKind {
		if grams == 0 {
			continue
		}
		f, err := factors.Lookup(PackagingKind(k).String())
		if err != nil {
			return 0, err
		}
		total += grams * f
	}
	return total, nil
}

// checkStage rejects NaN and infinite stage values.
func checkStage(stage string, v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &InvalidDistributionError{
			Name:   stage,
			Reason: fmt.Sprintf("stage evaluated to %v", v),
		}
	}
	return v, nil
}

// positiveCount rejects per-kit and per-trip divisors below one.
func positiveCount(name string, n int) error {
	if n < 1 {
		return &InvalidDistributionError{Name: name, Reason: fmt.Sprintf("count %d must be >= 1", n)}
	}
	return nil
}

// collectStages evaluates fns in order and wraps the first failure with the
// stage name.
func collectStages(p Pathway, fns [NumStages]func() (float64, error)) (StageEmissions, error) {
	names := StageNames(p)
	var values [NumStages]float64
	for i, fn := range fns {
		v, err := fn()
		if err != nil {
			return StageEmissions{}, fmt.Errorf("%s %s stage: %w", p, names[i], err)
		}
		values[i] = v
	}
	return newStageEmissions(p, values), nil
}
