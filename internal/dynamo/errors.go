package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for the contact-dynamics core.
var (
	// ErrInvalidArgument indicates a structural mismatch between a model
	// collection and its paired data collection.
	ErrInvalidArgument = errors.New("dynamo: invalid argument")

	// ErrConfiguration indicates missing or malformed controller settings.
	ErrConfiguration = errors.New("dynamo: invalid configuration")

	// ErrNumericalDegeneracy indicates a singular or inconsistent
	// constrained-dynamics system.
	ErrNumericalDegeneracy = errors.New("dynamo: constrained dynamics system is degenerate")

	// ErrDimensionMismatch indicates mismatched state/control dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")

	// ErrNotInitialized indicates use of a controller before Initialize.
	ErrNotInitialized = errors.New("dynamo: not initialized")
)

// ContactError wraps an error with the contact it was raised for.
type ContactError struct {
	Op      string
	Name    string
	Index   int
	Wrapped error
}

func (e *ContactError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Wrapped)
	}
	return fmt.Sprintf("%s: contact %q (index %d): %v", e.Op, e.Name, e.Index, e.Wrapped)
}

func (e *ContactError) Unwrap() error {
	return e.Wrapped
}

// DimError reports a vector or matrix whose size does not match what a
// model expects.
func DimError(what string, got, want int) error {
	return fmt.Errorf("%w: %s has size %d, expected %d", ErrDimensionMismatch, what, got, want)
}
