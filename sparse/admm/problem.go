package admm

import "time"

// Residuals carries the raw quantities an engine needs to evaluate the
// stopping rule after one iteration. All norms are Euclidean.
type Residuals struct {
	// Primal is ‖x − y‖ for the unrelaxed x.
	Primal float64
	// Dual is ‖y − y_prev‖; the engine multiplies it by ρ.
	Dual float64

	NormX float64
	NormY float64
	// NormU is ‖u‖ of the scaled dual; the engine multiplies it by ρ.
	NormU float64

	// PrimalLen and DualLen are the element counts of the constraint and
	// the x variable; they scale the absolute tolerance.
	PrimalLen int
	DualLen   int
}

// Objective is the problem's functional value at the current iterate.
type Objective struct {
	ObjFun     float64
	DFid       float64
	RegL1      float64
	RegL21     float64
	XSlvRelRes float64
}

// Problem supplies the problem specific parts of an ADMM iteration. The
// engine calls the methods in the order of the interface declaration.
type Problem interface {
	// UpdateX solves the x-subproblem for penalty rho. gen changes exactly
	// when rho changes and may be used to key cached factorizations. A
	// non-finite x must be reported as an error.
	UpdateX(rho float64, gen uint64) error

	// Relax forms the relaxed iterate αx + (1 − α)y_prev.
	Relax(alpha float64)

	// UpdateY applies the proximal step to relaxed x + u.
	UpdateY(rho float64) error

	// UpdateU performs u ← u + relaxed x − y.
	UpdateU()

	// Residuals reports the quantities for the stopping rule.
	Residuals() Residuals

	// ScaleDual multiplies u by factor after a change of ρ.
	ScaleDual(factor float64)

	// Objective evaluates the functional at the current iterate.
	Objective() (Objective, error)
}

// Observer receives engine events. Implementations must not retain the
// engine or block for long.
type Observer interface {
	Iteration(rec IterationStats)
	Finished(state State, iterations int, elapsed time.Duration)
}
