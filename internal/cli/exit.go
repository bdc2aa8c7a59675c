package cli

import (
	"errors"

	"github.com/rshade/mealcarbon/internal/dataset"
	"github.com/rshade/mealcarbon/internal/emissions"
)

// Process exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	// ExitDataError means the inputs, not the invocation, are at fault: a
	// missing or invalid factor, incomplete data, an invalid distribution or
	// an unsupported dataset schema.
	ExitDataError = 2
)

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, emissions.ErrMissingFactor),
		errors.Is(err, emissions.ErrInvalidFactor),
		errors.Is(err, emissions.ErrIncompleteData),
		errors.Is(err, emissions.ErrInvalidDistribution),
		errors.Is(err, dataset.ErrUnsupportedSchema):
		return ExitDataError
	default:
		return ExitError
	}
}
