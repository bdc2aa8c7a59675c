package report

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors matched with errors.Is.
var (
	// ErrInvalidUnit indicates an unrecognized display unit.
	ErrInvalidUnit = constError("invalid emissions unit")

	// ErrInvalidFormat indicates an unrecognized output format.
	ErrInvalidFormat = constError("invalid output format")

	// ErrNegativeValue indicates a negative emissions value.
	ErrNegativeValue = constError("negative emissions value")

	// ErrCalculationOverflow indicates a value that is infinite or NaN.
	ErrCalculationOverflow = constError("calculation overflow")
)
