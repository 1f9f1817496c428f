package cbpdn

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-sparse/internal/numeric"
	"github.com/cwbudde/algo-sparse/sparse/admm"
	"github.com/cwbudde/algo-sparse/sparse/prox"
)

// Grouping selects the axis the joint (ℓ2,1) penalty couples.
type Grouping int

const (
	// GroupNone applies no joint penalty; μ is ignored.
	GroupNone Grouping = iota
	// GroupChannel couples the coefficient channels of each filter.
	GroupChannel
	// GroupBatch couples the signals of a batch for each filter.
	GroupBatch
)

var groupingNames = map[Grouping]string{
	GroupNone:    "none",
	GroupChannel: "channel",
	GroupBatch:   "batch",
}

// String returns the grouping name.
func (g Grouping) String() string {
	if s, ok := groupingNames[g]; ok {
		return s
	}

	return fmt.Sprintf("grouping(%d)", int(g))
}

// MarshalText implements encoding.TextMarshaler.
func (g Grouping) MarshalText() ([]byte, error) {
	if _, ok := groupingNames[g]; !ok {
		return nil, fmt.Errorf("%w: unknown grouping %d", ErrConfiguration, int(g))
	}

	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grouping) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for k, v := range groupingNames {
		if v == name {
			*g = k
			return nil
		}
	}

	return fmt.Errorf("%w: unknown grouping %q", ErrConfiguration, text)
}

func (g Grouping) axis() prox.Axis {
	switch g {
	case GroupChannel:
		return prox.AxisChannel
	case GroupBatch:
		return prox.AxisBatch
	default:
		return prox.AxisNone
	}
}

// BoundaryMode selects how signal edges are treated by the convolution.
type BoundaryMode int

const (
	// BoundaryCircular solves on the signal grid with periodic convolution.
	BoundaryCircular BoundaryMode = iota
	// BoundaryPad zero-pads every axis to a power of two no smaller than
	// N + Nd − 1, so that convolution does not wrap; reconstructions are
	// cropped back to the signal extent.
	BoundaryPad
)

// String returns the mode name.
func (b BoundaryMode) String() string {
	switch b {
	case BoundaryCircular:
		return "circular"
	case BoundaryPad:
		return "pad"
	default:
		return fmt.Sprintf("boundary(%d)", int(b))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (b BoundaryMode) MarshalText() ([]byte, error) {
	if b != BoundaryCircular && b != BoundaryPad {
		return nil, fmt.Errorf("%w: unknown boundary mode %d", ErrConfiguration, int(b))
	}

	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *BoundaryMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "circular", "periodic":
		*b = BoundaryCircular
	case "pad", "zero":
		*b = BoundaryPad
	default:
		return fmt.Errorf("%w: unknown boundary mode %q", ErrConfiguration, text)
	}

	return nil
}

// Options configures a [Solver]. Start from [DefaultOptions].
type Options struct {
	admm.Options `yaml:",inline"`

	Grouping Grouping     `yaml:"grouping"`
	Boundary BoundaryMode `yaml:"boundary"`

	// NonNegCoef projects the coefficients onto the non-negative orthant.
	NonNegCoef bool `yaml:"non_neg_coef"`
	// NoBoundaryCross zeroes coefficients whose filter support would wrap
	// around the grid edge.
	NoBoundaryCross bool `yaml:"no_boundary_cross"`

	// L1Weight and L21Weight scale λ and μ per filter. Empty means 1.
	L1Weight  []float64 `yaml:"l1_weight"`
	L21Weight []float64 `yaml:"l21_weight"`

	// AuxVarObj evaluates the objective at the sparse iterate Y instead of X.
	AuxVarObj bool `yaml:"aux_var_obj"`
	// LinSolveCheck records the relative residual of every x-update solve.
	LinSolveCheck bool `yaml:"lin_solve_check"`

	// Workers bounds the goroutines of the per-bin and per-group maps.
	// Zero or negative selects GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// DefaultOptions returns the solver defaults.
func DefaultOptions() Options {
	return Options{
		Options:  admm.DefaultOptions(),
		Grouping: GroupChannel,
		Boundary: BoundaryCircular,
	}
}

// Validate reports the first invalid field, wrapped in ErrConfiguration.
func (o Options) Validate() error {
	if err := o.Options.Validate(); err != nil {
		return err
	}

	if _, ok := groupingNames[o.Grouping]; !ok {
		return fmt.Errorf("%w: unknown grouping %d", ErrConfiguration, int(o.Grouping))
	}

	if o.Boundary != BoundaryCircular && o.Boundary != BoundaryPad {
		return fmt.Errorf("%w: unknown boundary mode %d", ErrConfiguration, int(o.Boundary))
	}

	for name, w := range map[string][]float64{"l1": o.L1Weight, "l21": o.L21Weight} {
		for i, v := range w {
			if !numeric.IsFinite(v) || v < 0 {
				return fmt.Errorf("%w: %s weight %d is %g, want finite >= 0", ErrConfiguration, name, i, v)
			}
		}
	}

	return nil
}

// LoadOptions decodes YAML over [DefaultOptions]. Unknown keys are rejected
// and the result is validated.
func LoadOptions(r io.Reader) (Options, error) {
	opts := DefaultOptions()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return Options{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}

	return opts, nil
}

type config struct {
	opts     Options
	logger   *slog.Logger
	observer admm.Observer
	y0, u0   *CoefMap
}

// Option configures [New].
type Option func(*config) error

// WithOptions replaces the whole option set.
func WithOptions(o Options) Option {
	return func(cfg *config) error {
		cfg.opts = o
		return nil
	}
}

// WithMaxIter sets the iteration cap (default 1000).
func WithMaxIter(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("%w: max iterations must be >= 1: %d", ErrConfiguration, n)
		}

		cfg.opts.MaxIter = n

		return nil
	}
}

// WithTolerances sets the relative and absolute stopping tolerances.
func WithTolerances(rel, abs float64) Option {
	return func(cfg *config) error {
		cfg.opts.RelStopTol = rel
		cfg.opts.AbsStopTol = abs

		return nil
	}
}

// WithRho sets the initial penalty parameter. Zero selects 50λ + 1.
func WithRho(rho float64) Option {
	return func(cfg *config) error {
		cfg.opts.Rho = rho
		return nil
	}
}

// WithAutoRho replaces the adaptive penalty settings.
func WithAutoRho(a admm.AutoRhoOptions) Option {
	return func(cfg *config) error {
		cfg.opts.AutoRho = a
		return nil
	}
}

// WithGrouping selects the joint penalty axis (default GroupChannel).
func WithGrouping(g Grouping) Option {
	return func(cfg *config) error {
		cfg.opts.Grouping = g
		return nil
	}
}

// WithBoundary selects the boundary handling (default BoundaryCircular).
func WithBoundary(b BoundaryMode) Option {
	return func(cfg *config) error {
		cfg.opts.Boundary = b
		return nil
	}
}

// WithVerbosity sets how much iteration diagnostics are kept.
func WithVerbosity(v admm.Verbosity) Option {
	return func(cfg *config) error {
		cfg.opts.Verbosity = v
		return nil
	}
}

// WithTimeout bounds the wall-clock duration of Solve. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) error {
		cfg.opts.Timeout = d
		return nil
	}
}

// WithWorkers bounds the worker goroutines. Zero selects GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(cfg *config) error {
		cfg.opts.Workers = n
		return nil
	}
}

// WithLogger sets the logger used for iteration traces. Nil selects
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) error {
		cfg.logger = l
		return nil
	}
}

// WithObserver registers an observer of engine events.
func WithObserver(o admm.Observer) Option {
	return func(cfg *config) error {
		cfg.observer = o
		return nil
	}
}

// WithWarmStart initializes the sparse iterate Y and the scaled dual U.
// Either may be nil. Shapes are checked by [New].
func WithWarmStart(y0, u0 *CoefMap) Option {
	return func(cfg *config) error {
		cfg.y0 = y0
		cfg.u0 = u0

		return nil
	}
}
