package admm

import (
	"sync"
	"time"
)

// IterationStats is the diagnostic record of one completed iteration.
type IterationStats struct {
	Iter int

	// ObjFun is DFid plus the weighted regularization terms.
	ObjFun float64
	DFid   float64
	RegL1  float64
	RegL21 float64

	PrimalRsdl float64
	DualRsdl   float64
	EpsPrimal  float64
	EpsDual    float64

	// Rho is the penalty used during this iteration, before adaptation.
	Rho float64

	// XSlvRelRes is the relative residual of the x-update linear solve, or
	// zero when the check is disabled.
	XSlvRelRes float64

	// Time is the wall-clock time since the solve started.
	Time time.Duration
}

// Tracker is an append-only log of iteration records. It is safe for
// concurrent readers while one goroutine appends.
type Tracker struct {
	mu      sync.RWMutex
	records []IterationStats
}

// NewTracker returns an empty tracker with room for capacity records.
func NewTracker(capacity int) *Tracker {
	if capacity < 0 {
		capacity = 0
	}

	return &Tracker{records: make([]IterationStats, 0, capacity)}
}

// Append adds rec at the end of the log.
func (t *Tracker) Append(rec IterationStats) {
	t.mu.Lock()
	t.records = append(t.records, rec)
	t.mu.Unlock()
}

// Len returns the number of records.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.records)
}

// Records returns a copy of all records in iteration order.
func (t *Tracker) Records() []IterationStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]IterationStats, len(t.records))
	copy(out, t.records)

	return out
}

// Last returns the most recent record.
func (t *Tracker) Last() (IterationStats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.records) == 0 {
		return IterationStats{}, false
	}

	return t.records[len(t.records)-1], true
}

// ObjFun returns the objective value series.
func (t *Tracker) ObjFun() []float64 {
	return t.series(func(r IterationStats) float64 { return r.ObjFun })
}

// PrimalRsdl returns the primal residual series.
func (t *Tracker) PrimalRsdl() []float64 {
	return t.series(func(r IterationStats) float64 { return r.PrimalRsdl })
}

// DualRsdl returns the dual residual series.
func (t *Tracker) DualRsdl() []float64 {
	return t.series(func(r IterationStats) float64 { return r.DualRsdl })
}

// Rho returns the penalty parameter series.
func (t *Tracker) Rho() []float64 {
	return t.series(func(r IterationStats) float64 { return r.Rho })
}

// Time returns the elapsed time series.
func (t *Tracker) Time() []time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]time.Duration, len(t.records))
	for i, r := range t.records {
		out[i] = r.Time
	}

	return out
}

func (t *Tracker) series(field func(IterationStats) float64) []float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]float64, len(t.records))
	for i, r := range t.records {
		out[i] = field(r)
	}

	return out
}
