package admm

import (
	"math"

	"github.com/cwbudde/algo-sparse/internal/numeric"
)

// tolerances applies the stopping rule normalization to res and returns the
// residuals and thresholds that enter the convergence test.
func (e *Engine) tolerances(res Residuals) (r, s, epri, edua float64) {
	abs := e.opts.AbsStopTol
	rel := e.opts.RelStopTol
	rootP := math.Sqrt(float64(res.PrimalLen))
	rootD := math.Sqrt(float64(res.DualLen))

	nP := math.Max(res.NormX, res.NormY)
	nD := e.rho * res.NormU
	r = res.Primal
	s = e.rho * res.Dual

	if e.opts.StdResiduals {
		return r, s, rootP*abs + rel*nP, rootD*abs + rel*nD
	}

	nP = math.Max(nP, e.opts.Epsilon)
	nD = math.Max(nD, e.opts.Epsilon)

	return r / nP, s / nD, rootP*abs/nP + rel, rootD*abs/nD + rel
}

// adaptRho balances the residuals r and s by rescaling ρ every Period
// iterations, never after the first one. It returns true when ρ changed.
func (e *Engine) adaptRho(r, s float64) bool {
	ar := e.opts.AutoRho
	if !ar.Enabled || e.iter <= 1 || e.iter%ar.Period != 0 {
		return false
	}

	xi := e.rsdlTarget
	mu := ar.RsdlRatio
	tau := ar.Scaling

	if ar.AutoScaling {
		var ratio float64
		if r > s*xi {
			ratio = r / math.Max(s*xi, e.opts.Epsilon)
		} else {
			ratio = s * xi / math.Max(r, e.opts.Epsilon)
		}

		tau = math.Min(math.Sqrt(ratio), ar.Scaling)
	}

	var factor float64

	switch {
	case r > xi*mu*s:
		factor = tau
	case s > (mu/xi)*r:
		factor = 1 / tau
	default:
		return false
	}

	next := numeric.Clamp(e.rho*factor, e.opts.RhoMin, e.opts.RhoMax)
	if next == e.rho || !numeric.IsFinite(next) {
		return false
	}

	e.p.ScaleDual(e.rho / next)
	e.rho = next
	e.gen++

	return true
}
