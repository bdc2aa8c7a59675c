package emissions

import "fmt"

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors matched with errors.Is. The typed errors below unwrap to
// them and carry the offending key.
var (
	// ErrMissingFactor indicates an item without an emission factor.
	ErrMissingFactor = constError("missing emission factor")

	// ErrInvalidDistribution indicates bad distribution bounds or a rate
	// that would divide by zero or a negative denominator.
	ErrInvalidDistribution = constError("invalid distribution")

	// ErrIncompleteData indicates an ingredient record missing a required field.
	ErrIncompleteData = constError("incomplete ingredient data")

	// ErrInvalidFactor indicates a blank, duplicate, negative or non-finite
	// emission factor entry.
	ErrInvalidFactor = constError("invalid emission factor")
)

// MissingFactorError reports an item that could not be resolved in a table.
type MissingFactorError struct {
	// Table names the lookup that failed, "emission_factors" or "loss_rates".
	Table string
	// Item is the unresolved key.
	Item string
}

func (e *MissingFactorError) Error() string {
	table := e.Table
	if table == "" {
		table = "emission_factors"
	}
	return fmt.Sprintf("%s: no entry for %q in %s", ErrMissingFactor, e.Item, table)
}

// Unwrap returns ErrMissingFactor.
func (e *MissingFactorError) Unwrap() error { return ErrMissingFactor }

// InvalidDistributionError reports a parameter whose distribution or drawn
// value cannot be used.
type InvalidDistributionError struct {
	// Name is the parameter or rate name.
	Name string
	// Reason describes the violated constraint.
	Reason string
}

func (e *InvalidDistributionError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidDistribution, e.Name, e.Reason)
}

// Unwrap returns ErrInvalidDistribution.
func (e *InvalidDistributionError) Unwrap() error { return ErrInvalidDistribution }

// IncompleteDataError reports an ingredient record with a missing or unusable field.
type IncompleteDataError struct {
	Meal  string
	Row   int
	Field string
}

func (e *IncompleteDataError) Error() string {
	if e.Meal == "" {
		return fmt.Sprintf("%s: row %d: field %q", ErrIncompleteData, e.Row, e.Field)
	}
	return fmt.Sprintf("%s: meal %q row %d: field %q", ErrIncompleteData, e.Meal, e.Row, e.Field)
}

// Unwrap returns ErrIncompleteData.
func (e *IncompleteDataError) Unwrap() error { return ErrIncompleteData }
