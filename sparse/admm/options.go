package admm

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Verbosity selects how much per-iteration diagnostics an engine keeps.
type Verbosity int

const (
	// VerbosityQuiet retains no iteration records.
	VerbosityQuiet Verbosity = iota
	// VerbosityStats retains one record per iteration.
	VerbosityStats
	// VerbosityTrace retains records and logs every iteration.
	VerbosityTrace
)

// String returns the lower-case verbosity name.
func (v Verbosity) String() string {
	switch v {
	case VerbosityQuiet:
		return "quiet"
	case VerbosityStats:
		return "stats"
	case VerbosityTrace:
		return "trace"
	default:
		return fmt.Sprintf("verbosity(%d)", int(v))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Verbosity) MarshalText() ([]byte, error) {
	if v < VerbosityQuiet || v > VerbosityTrace {
		return nil, fmt.Errorf("%w: unknown verbosity %d", ErrConfiguration, int(v))
	}

	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Verbosity) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "quiet", "off", "none":
		*v = VerbosityQuiet
	case "stats", "":
		*v = VerbosityStats
	case "trace", "verbose":
		*v = VerbosityTrace
	default:
		return fmt.Errorf("%w: unknown verbosity %q", ErrConfiguration, text)
	}

	return nil
}

// AutoRhoOptions configures residual balancing of the penalty parameter.
type AutoRhoOptions struct {
	// Enabled turns adaptation on.
	Enabled bool `yaml:"enabled"`
	// Period is the number of iterations between adaptation attempts.
	Period int `yaml:"period"`
	// Scaling is the multiplier τ, or its cap when AutoScaling is set.
	Scaling float64 `yaml:"scaling"`
	// RsdlRatio is the residual imbalance μ that triggers a change.
	RsdlRatio float64 `yaml:"rsdl_ratio"`
	// RsdlTarget is the desired primal/dual ratio ξ. Zero selects 1.
	RsdlTarget float64 `yaml:"rsdl_target"`
	// AutoScaling derives the multiplier from the residual ratio.
	AutoScaling bool `yaml:"auto_scaling"`
}

// Options configures an [Engine]. The zero value is not valid; start from
// [DefaultOptions].
type Options struct {
	MaxIter    int     `yaml:"max_iter"`
	RelStopTol float64 `yaml:"rel_stop_tol"`
	AbsStopTol float64 `yaml:"abs_stop_tol"`

	// Rho is the initial penalty. Zero lets the caller pick a default.
	Rho    float64 `yaml:"rho"`
	RhoMin float64 `yaml:"rho_min"`
	RhoMax float64 `yaml:"rho_max"`

	AutoRho AutoRhoOptions `yaml:"auto_rho"`

	// RelaxParam is the over-relaxation factor α in (0, 2).
	RelaxParam float64 `yaml:"relax_param"`

	// StdResiduals selects unnormalized residuals and tolerances.
	StdResiduals bool `yaml:"std_residuals"`

	// Epsilon guards residual normalization against division by zero.
	Epsilon float64 `yaml:"epsilon"`

	Verbosity Verbosity `yaml:"verbosity"`

	// Timeout bounds the wall-clock duration of a solve. Zero disables it.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		MaxIter:    1000,
		RelStopTol: 1e-3,
		AbsStopTol: 0,
		RhoMin:     1e-10,
		RhoMax:     1e10,
		AutoRho: AutoRhoOptions{
			Enabled:     true,
			Period:      10,
			Scaling:     1000,
			RsdlRatio:   1.2,
			AutoScaling: true,
		},
		RelaxParam: 1,
		Epsilon:    1e-12,
		Verbosity:  VerbosityStats,
	}
}

// Validate reports the first invalid field, wrapped in ErrConfiguration.
func (o Options) Validate() error {
	switch {
	case o.MaxIter <= 0:
		return fmt.Errorf("%w: max iterations must be > 0, got %d", ErrConfiguration, o.MaxIter)
	case !nonNegative(o.RelStopTol) || !nonNegative(o.AbsStopTol):
		return fmt.Errorf("%w: stopping tolerances must be finite and >= 0, got rel=%g abs=%g",
			ErrConfiguration, o.RelStopTol, o.AbsStopTol)
	case o.RelStopTol == 0 && o.AbsStopTol == 0:
		return fmt.Errorf("%w: at least one stopping tolerance must be > 0", ErrConfiguration)
	case !nonNegative(o.Rho):
		return fmt.Errorf("%w: rho must be finite and >= 0, got %g", ErrConfiguration, o.Rho)
	case !positive(o.RhoMin) || !positive(o.RhoMax) || o.RhoMin > o.RhoMax:
		return fmt.Errorf("%w: rho limits must satisfy 0 < min <= max, got [%g, %g]",
			ErrConfiguration, o.RhoMin, o.RhoMax)
	case !(o.RelaxParam > 0 && o.RelaxParam < 2):
		return fmt.Errorf("%w: relaxation parameter must be in (0, 2), got %g", ErrConfiguration, o.RelaxParam)
	case !positive(o.Epsilon):
		return fmt.Errorf("%w: epsilon must be > 0, got %g", ErrConfiguration, o.Epsilon)
	case o.Verbosity < VerbosityQuiet || o.Verbosity > VerbosityTrace:
		return fmt.Errorf("%w: unknown verbosity %d", ErrConfiguration, int(o.Verbosity))
	case o.Timeout < 0:
		return fmt.Errorf("%w: timeout must be >= 0, got %v", ErrConfiguration, o.Timeout)
	}

	if !o.AutoRho.Enabled {
		return nil
	}

	a := o.AutoRho
	switch {
	case a.Period <= 0:
		return fmt.Errorf("%w: auto rho period must be > 0, got %d", ErrConfiguration, a.Period)
	case !positive(a.Scaling) || a.Scaling < 1:
		return fmt.Errorf("%w: auto rho scaling must be >= 1, got %g", ErrConfiguration, a.Scaling)
	case !positive(a.RsdlRatio) || a.RsdlRatio < 1:
		return fmt.Errorf("%w: auto rho residual ratio must be >= 1, got %g", ErrConfiguration, a.RsdlRatio)
	case !nonNegative(a.RsdlTarget):
		return fmt.Errorf("%w: auto rho residual target must be >= 0, got %g", ErrConfiguration, a.RsdlTarget)
	}

	return nil
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
