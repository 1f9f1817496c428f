package admm

import (
	"errors"
	"fmt"
)

// Error kinds shared by the solver packages.
var (
	// ErrConfiguration reports an invalid option value.
	ErrConfiguration = errors.New("admm: invalid configuration")

	// ErrShapeMismatch reports inconsistent array shapes between inputs.
	ErrShapeMismatch = errors.New("admm: shape mismatch")

	// ErrNumericalFailure reports non-finite values produced during a solve.
	ErrNumericalFailure = errors.New("admm: numerical failure")
)

// NumericalError describes the iteration at which a solve failed.
type NumericalError struct {
	// Iteration is the number of iterations completed before the failure.
	Iteration int
	// Rho is the penalty parameter in effect.
	Rho float64
	// Err is the underlying cause.
	Err error
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("%v at iteration %d (rho=%g): %v", ErrNumericalFailure, e.Iteration, e.Rho, e.Err)
}

// Unwrap exposes both ErrNumericalFailure and the underlying cause to
// errors.Is and errors.As.
func (e *NumericalError) Unwrap() []error {
	return []error{ErrNumericalFailure, e.Err}
}
