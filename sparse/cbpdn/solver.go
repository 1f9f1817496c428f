package cbpdn

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-sparse/internal/numeric"
	"github.com/cwbudde/algo-sparse/internal/parallel"
	"github.com/cwbudde/algo-sparse/sparse/admm"
	"github.com/cwbudde/algo-sparse/sparse/fftn"
	"github.com/cwbudde/algo-sparse/sparse/linsolve"
	"github.com/cwbudde/algo-sparse/sparse/prox"
)

// Timer labels recorded by a [Solver].
const (
	PhaseSetup       = "setup"
	PhaseSolve       = "solve"
	PhaseReconstruct = "reconstruct"
)

// Result summarizes a finished (or interrupted) solve.
type Result struct {
	// Coef is the sparse coefficient map Y.
	Coef       *CoefMap
	State      admm.State
	Iterations int
	Converged  bool
	Rho        float64
}

// Solver minimizes
//
//	½‖Σ_m d_m * x_m − s‖² + λ Σ_m w1_m ‖x_m‖₁ + μ Σ_m w21_m ‖x_m‖₂,₁
//
// over the coefficient maps x of a batch of multi-channel signals s. The
// ℓ2,1 groups run along the axis chosen by [Options.Grouping].
//
// A Solver is not safe for concurrent use.
type Solver struct {
	opts   Options
	lambda float64
	mu     float64

	dict *Dictionary
	sig  *Signal

	grid     []int
	bins     int
	layout   prox.Layout
	dictChan int
	stacks   int
	workers  int

	tf  *fftn.Transform
	lin *linsolve.Solver
	// sf holds the padded signal spectra [batch][channel][bin].
	sf []complex128
	// dhs holds Dᴴŝ per stack [stack][filter][bin].
	dhs []complex128

	x, y, yprev, u, ax []float64
	xf                 []complex128
	work               []complex128
	rbuf               []float64

	mask       *prox.Mask
	xSlvRelRes float64

	engine *admm.Engine
	timer  *admm.Timer
	logger *slog.Logger
}

// New validates the inputs, transforms the dictionary and the signal and
// returns a solver in state INITIALIZED.
//
// Configuration problems are reported wrapped in ErrConfiguration and
// incompatible shapes in ErrShapeMismatch. Non-finite input values are not
// rejected here; they make the first iteration fail.
func New(dict *Dictionary, sig *Signal, lambda, mu float64, opts ...Option) (*Solver, error) {
	timer := admm.NewTimer()
	timer.Start(PhaseSetup)
	defer timer.Stop(PhaseSetup)

	if dict == nil || sig == nil {
		return nil, fmt.Errorf("%w: nil dictionary or signal", ErrConfiguration)
	}

	if !numeric.IsFinite(lambda) || lambda < 0 || !numeric.IsFinite(mu) || mu < 0 {
		return nil, fmt.Errorf("%w: lambda=%g mu=%g, want finite >= 0", ErrConfiguration, lambda, mu)
	}

	cfg := config{opts: DefaultOptions()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.opts.Validate(); err != nil {
		return nil, err
	}

	if err := checkCompatible(dict, sig, cfg.opts); err != nil {
		return nil, err
	}

	s := &Solver{
		opts:     cfg.opts,
		lambda:   lambda,
		mu:       mu,
		dict:     dict,
		sig:      sig,
		dictChan: dict.channels,
		workers:  parallel.Workers(cfg.opts.Workers),
		timer:    timer,
		logger:   cfg.logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	coefChan := sig.channels
	if dict.channels > 1 {
		coefChan = 1
	}

	s.grid = transformGrid(sig.shape, dict.shape, cfg.opts.Boundary)
	s.bins = numeric.Product(s.grid)
	s.layout = prox.Layout{Batch: sig.batch, Channels: coefChan, Filters: dict.filters, Bins: s.bins}
	s.stacks = sig.batch * coefChan

	if err := s.transformInputs(); err != nil {
		return nil, err
	}

	n := s.layout.Len()
	s.x = make([]float64, n)
	s.y = make([]float64, n)
	s.yprev = make([]float64, n)
	s.u = make([]float64, n)
	s.ax = make([]float64, n)
	s.xf = make([]complex128, n)
	s.work = make([]complex128, n)
	s.rbuf = make([]float64, n)

	if err := s.warmStart(cfg.y0, cfg.u0); err != nil {
		return nil, err
	}

	if cfg.opts.NoBoundaryCross {
		m, err := prox.BoundaryMask(s.grid, dict.shape)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrShapeMismatch, err)
		}

		s.mask = &m
		if err := m.Apply(s.y); err != nil {
			return nil, err
		}
	}

	engineOpts := cfg.opts.Options
	if engineOpts.AutoRho.RsdlTarget == 0 {
		engineOpts.AutoRho.RsdlTarget = residualTarget(lambda, engineOpts.StdResiduals)
	}

	rho := engineOpts.Rho
	if rho == 0 {
		rho = 50*lambda + 1
	}

	engine, err := admm.NewEngine(s, engineOpts, rho,
		admm.WithLogger(s.logger),
		admm.WithObserver(cfg.observer),
	)
	if err != nil {
		return nil, err
	}

	s.engine = engine

	s.logger.Debug("cbpdn setup",
		"filters", dict.filters,
		"dict_channels", dict.channels,
		"batch", sig.batch,
		"channels", sig.channels,
		"grid", s.grid,
		"rho", engine.Rho(),
	)

	return s, nil
}

func checkCompatible(dict *Dictionary, sig *Signal, opts Options) error {
	if len(dict.shape) != len(sig.shape) {
		return fmt.Errorf("%w: dictionary has %d spatial axes, signal %d", ErrShapeMismatch, len(dict.shape), len(sig.shape))
	}

	for a := range sig.shape {
		if dict.shape[a] > sig.shape[a] {
			return fmt.Errorf("%w: filter shape %v exceeds signal shape %v", ErrShapeMismatch, dict.shape, sig.shape)
		}
	}

	if dict.channels != 1 && dict.channels != sig.channels {
		return fmt.Errorf("%w: dictionary has %d channels, signal %d", ErrShapeMismatch, dict.channels, sig.channels)
	}

	if len(opts.L1Weight) != 0 && len(opts.L1Weight) != dict.filters {
		return fmt.Errorf("%w: %d l1 weights for %d filters", ErrShapeMismatch, len(opts.L1Weight), dict.filters)
	}

	if len(opts.L21Weight) != 0 && len(opts.L21Weight) != dict.filters {
		return fmt.Errorf("%w: %d l21 weights for %d filters", ErrShapeMismatch, len(opts.L21Weight), dict.filters)
	}

	return nil
}

func transformGrid(signal, filter []int, mode BoundaryMode) []int {
	grid := slices.Clone(signal)
	if mode == BoundaryPad {
		for a := range grid {
			grid[a] = numeric.NextPowerOf2(signal[a] + filter[a] - 1)
		}
	}

	return grid
}

// residualTarget is the automatic primal/dual residual ratio target.
func residualTarget(lambda float64, std bool) float64 {
	if std || lambda <= 0 {
		return 1
	}

	return 1 + math.Pow(18.3, math.Log10(lambda)+1)
}

// transformInputs builds the dictionary and signal spectra on the grid and
// the constant right-hand side term Dᴴŝ.
func (s *Solver) transformInputs() error {
	tf, err := fftn.New(s.grid)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrShapeMismatch, err)
	}

	s.tf = tf

	padded := make([]float64, s.bins)

	spectra := func(planes int, plane func(i int) []float64, shape []int) ([]complex128, error) {
		out := make([]complex128, planes*s.bins)
		for i := range planes {
			if err := fftn.Pad(padded, s.grid, plane(i), shape); err != nil {
				return nil, err
			}

			if err := tf.ForwardReal(out[i*s.bins:(i+1)*s.bins], padded); err != nil {
				return nil, err
			}
		}

		return out, nil
	}

	d := s.dict

	df, err := spectra(d.filters*d.channels, func(i int) []float64 {
		return d.Filter(i/d.channels, i%d.channels)
	}, d.shape)
	if err != nil {
		return err
	}

	sig := s.sig

	s.sf, err = spectra(sig.batch*sig.channels, func(i int) []float64 {
		return sig.Plane(i/sig.channels, i%sig.channels)
	}, sig.shape)
	if err != nil {
		return err
	}

	ld, err := linsolve.NewDictionary(df, d.filters, d.channels, s.bins, s.workers)
	if err != nil {
		return err
	}

	s.lin = linsolve.New(ld)
	s.dhs = make([]complex128, s.layout.Len())

	for st := range s.stacks {
		if err := ld.Adjoint(s.stack(s.dhs, st), s.signalStack(s.sf, st)); err != nil {
			return err
		}
	}

	return nil
}

// stack returns the [filter][bin] block of stack st of a coefficient array.
func (s *Solver) stack(a []complex128, st int) []complex128 {
	n := s.layout.Filters * s.bins
	return a[st*n : (st+1)*n]
}

// signalStack returns the [channel][bin] block of a signal array that
// stack st is fitted to.
func (s *Solver) signalStack(a []complex128, st int) []complex128 {
	n := s.dictChan * s.bins
	return a[st*n : (st+1)*n]
}

func (s *Solver) warmStart(y0, u0 *CoefMap) error {
	l := s.layout
	for _, w := range []struct {
		name string
		src  *CoefMap
		dst  []float64
	}{{"Y0", y0, s.y}, {"U0", u0, s.u}} {
		if w.src == nil {
			continue
		}

		if !w.src.sameLayout(l.Batch, l.Channels, l.Filters, s.grid) {
			return fmt.Errorf("%w: warm start %s is %dx%dx%dx%v, want %dx%dx%dx%v", ErrShapeMismatch, w.name,
				w.src.batch, w.src.channels, w.src.filters, w.src.shape, l.Batch, l.Channels, l.Filters, s.grid)
		}

		copy(w.dst, w.src.data)
	}

	return nil
}

// Step performs one iteration.
func (s *Solver) Step(ctx context.Context) error {
	s.timer.Start(PhaseSolve)
	defer s.timer.Stop(PhaseSolve)

	return s.engine.Step(ctx)
}

// Solve iterates until convergence, the iteration cap, the timeout, a
// numerical failure or cancellation of ctx. The result is non-nil in every
// case and carries the last valid coefficient map; the error is the failure
// or ctx.Err(). A cancelled solve can be resumed by calling Solve again.
func (s *Solver) Solve(ctx context.Context) (*Result, error) {
	s.timer.Start(PhaseSolve)
	state, err := s.engine.Run(ctx)
	s.timer.Stop(PhaseSolve)

	return &Result{
		Coef:       s.Coef(),
		State:      state,
		Iterations: s.engine.Iterations(),
		Converged:  state == admm.StateConverged,
		Rho:        s.engine.Rho(),
	}, err
}

// Coef returns a copy of the sparse coefficient map Y.
func (s *Solver) Coef() *CoefMap {
	return s.coefMap(s.y)
}

// XIterate returns a copy of the X iterate.
func (s *Solver) XIterate() *CoefMap {
	return s.coefMap(s.x)
}

func (s *Solver) coefMap(data []float64) *CoefMap {
	l := s.layout

	return &CoefMap{
		batch:    l.Batch,
		channels: l.Channels,
		filters:  l.Filters,
		shape:    slices.Clone(s.grid),
		data:     slices.Clone(data),
	}
}

// Grid returns the spatial shape of the transform grid.
func (s *Solver) Grid() []int { return slices.Clone(s.grid) }

// State returns the engine state.
func (s *Solver) State() admm.State { return s.engine.State() }

// Rho returns the current penalty parameter.
func (s *Solver) Rho() float64 { return s.engine.Rho() }

// Iterations returns the number of completed iterations.
func (s *Solver) Iterations() int { return s.engine.Iterations() }

// Err returns the error that failed the solve, if any.
func (s *Solver) Err() error { return s.engine.Err() }

// Statistics returns a copy of the iteration records.
func (s *Solver) Statistics() []admm.IterationStats { return s.engine.Tracker().Records() }

// Tracker returns the iteration log.
func (s *Solver) Tracker() *admm.Tracker { return s.engine.Tracker() }

// Elapsed returns the accumulated time of a phase: PhaseSetup, PhaseSolve
// or PhaseReconstruct.
func (s *Solver) Elapsed(label string) time.Duration { return s.timer.Elapsed(label) }

// Reconstruct synthesizes Σ_m d_m * x_m for every signal and channel,
// cropped to the signal extent. A nil x reconstructs from the current
// coefficient map.
func (s *Solver) Reconstruct(x *CoefMap) (*Signal, error) {
	s.timer.Start(PhaseReconstruct)
	defer s.timer.Stop(PhaseReconstruct)

	l := s.layout
	if x == nil {
		x = s.Coef()
	}

	if !x.sameLayout(l.Batch, l.Channels, l.Filters, s.grid) {
		return nil, fmt.Errorf("%w: coefficient map %dx%dx%dx%v, want %dx%dx%dx%v", ErrShapeMismatch,
			x.batch, x.channels, x.filters, x.shape, l.Batch, l.Channels, l.Filters, s.grid)
	}

	xf := make([]complex128, l.Len())
	if err := s.tf.ForwardBatch(xf, x.data); err != nil {
		return nil, err
	}

	sig := s.sig
	planes := sig.batch * sig.channels
	rf := make([]complex128, planes*s.bins)

	ld := s.lin.Dictionary()
	for st := range s.stacks {
		if err := ld.Apply(s.signalStack(rf, st), s.stack(xf, st)); err != nil {
			return nil, err
		}
	}

	full := make([]float64, len(rf))
	if err := s.tf.InverseRealBatch(full, rf); err != nil {
		return nil, err
	}

	n := numeric.Product(sig.shape)
	out := make([]float64, planes*n)

	for p := range planes {
		if err := fftn.Crop(out[p*n:(p+1)*n], sig.shape, full[p*s.bins:(p+1)*s.bins], s.grid); err != nil {
			return nil, err
		}
	}

	return &Signal{batch: sig.batch, channels: sig.channels, shape: slices.Clone(sig.shape), data: out}, nil
}

// compile-time check
var _ admm.Problem = (*Solver)(nil)

// UpdateX solves (DᴴD + ρI) X̂ = Dᴴŝ + ρ F(Y − U) per bin and transforms back.
func (s *Solver) UpdateX(rho float64, gen uint64) error {
	if err := s.lin.Prepare(rho, gen); err != nil {
		return err
	}

	floats.SubTo(s.rbuf, s.y, s.u)

	if err := s.tf.ForwardBatch(s.work, s.rbuf); err != nil {
		return err
	}

	r := complex(rho, 0)
	for i, v := range s.work {
		s.work[i] = s.dhs[i] + r*v
	}

	s.xSlvRelRes = 0

	for st := range s.stacks {
		rhs := s.stack(s.work, st)
		sol := s.stack(s.xf, st)

		if err := s.lin.Solve(sol, rhs); err != nil {
			return err
		}

		if s.opts.LinSolveCheck {
			rel, err := s.lin.RelativeResidual(sol, rhs)
			if err != nil {
				return err
			}

			s.xSlvRelRes = math.Max(s.xSlvRelRes, rel)
		}
	}

	if err := s.tf.InverseRealBatch(s.x, s.xf); err != nil {
		return err
	}

	if i := numeric.FirstNonFinite(s.x); i >= 0 {
		return fmt.Errorf("%w: x[%d] = %g", linsolve.ErrNonFinite, i, s.x[i])
	}

	return nil
}

// Relax forms αX + (1 − α)Y and saves the previous Y.
func (s *Solver) Relax(alpha float64) {
	copy(s.yprev, s.y)

	if alpha == 1 {
		copy(s.ax, s.x)
		return
	}

	floats.ScaleTo(s.ax, alpha, s.x)
	floats.AddScaled(s.ax, 1-alpha, s.y)
}

// UpdateY applies the sparse-group proximal operator to relaxed X + U and
// the optional projections.
func (s *Solver) UpdateY(rho float64) error {
	floats.AddTo(s.y, s.ax, s.u)

	p := prox.Penalty{
		L1:        s.lambda / rho,
		L21:       s.mu / rho,
		L1Weight:  nilIfEmpty(s.opts.L1Weight),
		L21Weight: nilIfEmpty(s.opts.L21Weight),
		Epsilon:   s.opts.Epsilon,
	}

	if err := prox.SparseGroup(s.y, s.y, s.layout, s.opts.Grouping.axis(), p, s.workers); err != nil {
		return err
	}

	if s.opts.NonNegCoef {
		prox.NonNegative(s.y)
	}

	if s.mask != nil {
		return s.mask.Apply(s.y)
	}

	return nil
}

// UpdateU performs U ← U + relaxed X − Y.
func (s *Solver) UpdateU() {
	floats.Add(s.u, s.ax)
	floats.Sub(s.u, s.y)
}

// Residuals reports ‖X − Y‖, ‖Y − Yprev‖ and the iterate norms.
func (s *Solver) Residuals() admm.Residuals {
	return admm.Residuals{
		Primal:    floats.Distance(s.x, s.y, 2),
		Dual:      floats.Distance(s.y, s.yprev, 2),
		NormX:     floats.Norm(s.x, 2),
		NormY:     floats.Norm(s.y, 2),
		NormU:     floats.Norm(s.u, 2),
		PrimalLen: len(s.x),
		DualLen:   len(s.x),
	}
}

// ScaleDual rescales U after a change of ρ.
func (s *Solver) ScaleDual(factor float64) {
	floats.Scale(factor, s.u)
}

func nilIfEmpty(w []float64) []float64 {
	if len(w) == 0 {
		return nil
	}

	return w
}
