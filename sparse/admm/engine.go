package admm

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cwbudde/algo-sparse/internal/numeric"
)

// EngineOption configures optional engine collaborators.
type EngineOption func(*Engine)

// WithLogger sets the logger. A nil logger selects slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver registers an observer for iteration and finish events.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithTracker makes the engine append to an existing tracker.
func WithTracker(t *Tracker) EngineOption {
	return func(e *Engine) {
		if t != nil {
			e.tracker = t
		}
	}
}

// Engine drives a [Problem] through ADMM iterations. It is not safe for
// concurrent use.
type Engine struct {
	p    Problem
	opts Options

	rho        float64
	gen        uint64
	rsdlTarget float64

	iter  int
	state State
	err   error

	started time.Time
	elapsed time.Duration

	last    IterationStats
	tracker *Tracker

	logger   *slog.Logger
	observer Observer
}

// NewEngine validates opts and returns an engine in [StateInitialized] with
// initial penalty rho, clamped into [RhoMin, RhoMax].
func NewEngine(p Problem, opts Options, rho float64, engineOpts ...EngineOption) (*Engine, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil problem", ErrConfiguration)
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if !(rho > 0) || math.IsInf(rho, 1) {
		return nil, fmt.Errorf("%w: initial rho must be finite and > 0, got %g", ErrConfiguration, rho)
	}

	e := &Engine{
		p:          p,
		opts:       opts,
		rho:        numeric.Clamp(rho, opts.RhoMin, opts.RhoMax),
		rsdlTarget: opts.AutoRho.RsdlTarget,
		state:      StateInitialized,
		logger:     slog.Default(),
	}
	if e.rsdlTarget == 0 {
		e.rsdlTarget = 1
	}

	for _, o := range engineOpts {
		o(e)
	}

	if e.tracker == nil {
		e.tracker = NewTracker(min(opts.MaxIter, 1024))
	}

	return e, nil
}

// State returns the current state.
func (e *Engine) State() State { return e.state }

// Iterations returns the number of completed iterations.
func (e *Engine) Iterations() int { return e.iter }

// Rho returns the current penalty parameter.
func (e *Engine) Rho() float64 { return e.rho }

// Generation returns the penalty generation; it increments on every ρ change.
func (e *Engine) Generation() uint64 { return e.gen }

// Err returns the error that moved the engine to [StateFailed].
func (e *Engine) Err() error { return e.err }

// Tracker returns the iteration log.
func (e *Engine) Tracker() *Tracker { return e.tracker }

// Last returns the record of the most recent iteration. It is available
// even when verbosity is [VerbosityQuiet].
func (e *Engine) Last() (IterationStats, bool) {
	return e.last, e.iter > 0
}

// Elapsed returns the wall-clock time since the first iteration started,
// frozen at termination.
func (e *Engine) Elapsed() time.Duration {
	if e.state == StateIterating {
		return time.Since(e.started)
	}

	return e.elapsed
}

// Run iterates until a terminal state is reached or ctx is done. On
// cancellation the state is left unchanged and ctx.Err() is returned; a
// later Run continues from the same iterate.
func (e *Engine) Run(ctx context.Context) (State, error) {
	for !e.state.Terminal() {
		if err := e.Step(ctx); err != nil {
			return e.state, err
		}
	}

	return e.state, e.err
}

// Step performs one iteration. It is a no-op in a terminal state and
// returns the failure error, if any.
func (e *Engine) Step(ctx context.Context) error {
	if e.state.Terminal() {
		return e.err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if e.state == StateInitialized {
		e.state = StateIterating
		e.started = time.Now()
	}

	if err := e.p.UpdateX(e.rho, e.gen); err != nil {
		return e.fail(&NumericalError{Iteration: e.iter, Rho: e.rho, Err: err})
	}

	e.p.Relax(e.opts.RelaxParam)

	if err := e.p.UpdateY(e.rho); err != nil {
		return e.fail(fmt.Errorf("admm: y-update at iteration %d: %w", e.iter, err))
	}

	e.p.UpdateU()

	r, s, epri, edua := e.tolerances(e.p.Residuals())
	if !numeric.IsFinite(r) || !numeric.IsFinite(s) {
		return e.fail(&NumericalError{
			Iteration: e.iter,
			Rho:       e.rho,
			Err:       fmt.Errorf("non-finite residual (primal=%g, dual=%g)", r, s),
		})
	}

	obj, err := e.p.Objective()
	if err != nil {
		return e.fail(fmt.Errorf("admm: objective at iteration %d: %w", e.iter, err))
	}

	e.iter++
	rec := IterationStats{
		Iter:       e.iter,
		ObjFun:     obj.ObjFun,
		DFid:       obj.DFid,
		RegL1:      obj.RegL1,
		RegL21:     obj.RegL21,
		PrimalRsdl: r,
		DualRsdl:   s,
		EpsPrimal:  epri,
		EpsDual:    edua,
		Rho:        e.rho,
		XSlvRelRes: obj.XSlvRelRes,
		Time:       time.Since(e.started),
	}
	e.record(rec)

	switch {
	case r <= epri && s <= edua:
		e.finish(StateConverged)
	case e.iter >= e.opts.MaxIter:
		e.finish(StateMaxIterReached)
	case e.opts.Timeout > 0 && time.Since(e.started) >= e.opts.Timeout:
		e.finish(StateTimeLimit)
	default:
		e.adaptRho(r, s)
	}

	return nil
}

func (e *Engine) record(rec IterationStats) {
	e.last = rec

	if e.opts.Verbosity >= VerbosityStats {
		e.tracker.Append(rec)
	}

	if e.opts.Verbosity >= VerbosityTrace {
		e.logger.Info("admm iteration",
			"iter", rec.Iter,
			"obj", rec.ObjFun,
			"dfid", rec.DFid,
			"reg_l1", rec.RegL1,
			"reg_l21", rec.RegL21,
			"primal", rec.PrimalRsdl,
			"dual", rec.DualRsdl,
			"rho", rec.Rho,
		)
	}

	if e.observer != nil {
		e.observer.Iteration(rec)
	}
}

func (e *Engine) fail(err error) error {
	e.err = err
	e.finish(StateFailed)

	return err
}

func (e *Engine) finish(state State) {
	e.state = state
	e.elapsed = time.Since(e.started)

	e.logger.Debug("admm finished",
		"state", state.String(),
		"iterations", e.iter,
		"rho", e.rho,
		"elapsed", e.elapsed,
	)

	if state == StateFailed {
		e.logger.Warn("admm failed", "iterations", e.iter, "err", e.err)
	}

	if e.observer != nil {
		e.observer.Finished(state, e.iter, e.elapsed)
	}
}
