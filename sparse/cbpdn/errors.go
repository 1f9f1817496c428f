package cbpdn

import "github.com/cwbudde/algo-sparse/sparse/admm"

// Error kinds, shared with package admm so errors.Is works across both.
var (
	ErrConfiguration    = admm.ErrConfiguration
	ErrShapeMismatch    = admm.ErrShapeMismatch
	ErrNumericalFailure = admm.ErrNumericalFailure
)

// NumericalError describes the iteration at which a solve failed.
type NumericalError = admm.NumericalError
