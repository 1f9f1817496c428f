package admm

// State is the engine's position in its life cycle.
type State int

const (
	// StateInitialized is the state before the first iteration.
	StateInitialized State = iota
	// StateIterating is the state while iterations remain.
	StateIterating
	// StateConverged means both residuals met their tolerances.
	StateConverged
	// StateMaxIterReached means the iteration cap was hit first.
	StateMaxIterReached
	// StateTimeLimit means the configured wall-clock budget ran out first.
	StateTimeLimit
	// StateFailed means a non-finite value aborted the solve.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInitialized:
		return "INITIALIZED"
	case StateIterating:
		return "ITERATING"
	case StateConverged:
		return "CONVERGED"
	case StateMaxIterReached:
		return "MAX-ITER-REACHED"
	case StateTimeLimit:
		return "TIME-LIMIT-REACHED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further iterations will run.
func (s State) Terminal() bool {
	return s >= StateConverged
}
