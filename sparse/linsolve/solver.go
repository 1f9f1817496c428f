package linsolve

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-sparse/internal/numeric"
	"github.com/cwbudde/algo-sparse/internal/parallel"
	"github.com/cwbudde/algo-sparse/internal/scratch"
)

var residualScratch = scratch.NewPool[complex128]()

// Solver solves (DᴴD + ρI) x = r at every bin of a [Dictionary].
type Solver struct {
	dict *Dictionary

	rho   float64
	gen   uint64
	valid bool

	// energy[n] = ‖D̂(n)‖² for single-channel dictionaries, independent of ρ.
	energy []float64
	// gain[n] = 1/(ρ + energy[n]).
	gain []float64

	// chol[n] factors the real 2C×2C embedding of ρI + D̂(n)D̂(n)ᴴ.
	chol []mat.Cholesky
}

// New creates a solver for dict. Nothing is factored until [Solver.Prepare].
func New(dict *Dictionary) *Solver {
	s := &Solver{dict: dict}

	if dict.channels == 1 {
		s.energy = filterEnergy(dict)
		s.gain = make([]float64, dict.bins)
	} else {
		s.chol = make([]mat.Cholesky, dict.bins)
	}

	return s
}

// filterEnergy returns Σ_m |D̂[m][0][n]|² per bin.
func filterEnergy(d *Dictionary) []float64 {
	energy := make([]float64, d.bins)
	re := make([]float64, d.bins)
	im := make([]float64, d.bins)
	pow := make([]float64, d.bins)

	for m := range d.filters {
		plane := d.df[m*d.bins : (m+1)*d.bins]
		for n, v := range plane {
			re[n] = real(v)
			im[n] = imag(v)
		}

		vecmath.Power(pow, re, im)
		floats.Add(energy, pow)
	}

	return energy
}

// Dictionary returns the dictionary the solver was built for.
func (s *Solver) Dictionary() *Dictionary { return s.dict }

// Generation returns the generation of the current cache, and whether the
// cache is valid.
func (s *Solver) Generation() (uint64, bool) { return s.gen, s.valid }

// Rho returns the penalty the cache was built for.
func (s *Solver) Rho() float64 { return s.rho }

// Prepare builds the per-bin cache for rho. It is a no-op when the cache is
// already valid for gen. On error the cache is left invalid.
func (s *Solver) Prepare(rho float64, gen uint64) error {
	if s.valid && s.gen == gen {
		return nil
	}

	if !(rho > 0) || math.IsInf(rho, 0) {
		return fmt.Errorf("%w: rho = %v", ErrNonFinite, rho)
	}

	s.valid = false

	var err error
	if s.dict.channels == 1 {
		err = s.prepareShared(rho)
	} else {
		err = s.prepareCoupled(rho)
	}

	if err != nil {
		return err
	}

	s.rho = rho
	s.gen = gen
	s.valid = true

	return nil
}

func (s *Solver) prepareShared(rho float64) error {
	return parallel.For(s.dict.bins, s.dict.workers, func(lo, hi int) error {
		for n := lo; n < hi; n++ {
			g := 1 / (rho + s.energy[n])
			if !numeric.IsFinite(g) {
				return fmt.Errorf("%w: bin %d", ErrNonFinite, n)
			}

			s.gain[n] = g
		}

		return nil
	})
}

func (s *Solver) prepareCoupled(rho float64) error {
	d := s.dict
	c := d.channels
	dim := 2 * c

	return parallel.For(d.bins, d.workers, func(lo, hi int) error {
		data := make([]float64, dim*dim)

		for n := lo; n < hi; n++ {
			for c1 := range c {
				for c2 := range c {
					var g complex128
					if c1 == c2 {
						g = complex(rho, 0)
					}

					for m := range d.filters {
						g += d.At(m, c1, n) * conj(d.At(m, c2, n))
					}

					if !numeric.IsFinite(real(g)) || !numeric.IsFinite(imag(g)) {
						return fmt.Errorf("%w: bin %d", ErrNonFinite, n)
					}

					data[c1*dim+c2] = real(g)
					data[c1*dim+c+c2] = -imag(g)
					data[(c+c1)*dim+c2] = imag(g)
					data[(c+c1)*dim+c+c2] = real(g)
				}
			}

			if ok := s.chol[n].Factorize(mat.NewSymDense(dim, data)); !ok {
				return fmt.Errorf("%w: bin %d", ErrFactorization, n)
			}
		}

		return nil
	})
}

// Solve writes the solution of (DᴴD + ρI) x = r into x for the ρ passed to the
// last successful Prepare. x and r are laid out [filter][bin] and must not
// alias.
func (s *Solver) Solve(x, r []complex128) error {
	d := s.dict
	if len(x) != d.filters*d.bins || len(r) != d.filters*d.bins {
		return fmt.Errorf("%w: solve x %d r %d", ErrShape, len(x), len(r))
	}

	if !s.valid {
		return ErrNotPrepared
	}

	if d.channels == 1 {
		return s.solveShared(x, r)
	}

	return s.solveCoupled(x, r)
}

func (s *Solver) solveShared(x, r []complex128) error {
	d := s.dict
	invRho := 1 / s.rho

	return parallel.For(d.bins, d.workers, func(lo, hi int) error {
		for n := lo; n < hi; n++ {
			// beta = aᴴr with a = conj(D̂).
			var beta complex128
			for m := range d.filters {
				beta += d.df[m*d.bins+n] * r[m*d.bins+n]
			}

			beta *= complex(s.gain[n], 0)

			for m := range d.filters {
				i := m*d.bins + n
				x[i] = (r[i] - conj(d.df[i])*beta) * complex(invRho, 0)
			}
		}

		return nil
	})
}

func (s *Solver) solveCoupled(x, r []complex128) error {
	d := s.dict
	c := d.channels
	invRho := 1 / s.rho

	return parallel.For(d.bins, d.workers, func(lo, hi int) error {
		b := mat.NewVecDense(2*c, nil)
		w := mat.NewVecDense(2*c, nil)

		for n := lo; n < hi; n++ {
			// t = D̂ r, split into real and imaginary halves.
			for ch := range c {
				var t complex128
				for m := range d.filters {
					t += d.At(m, ch, n) * r[m*d.bins+n]
				}

				b.SetVec(ch, real(t))
				b.SetVec(c+ch, imag(t))
			}

			err := s.chol[n].SolveVecTo(w, b)
			if err != nil && !errors.As(err, new(mat.Condition)) {
				return fmt.Errorf("%w: bin %d: %v", ErrFactorization, n, err)
			}

			for m := range d.filters {
				var dhw complex128
				for ch := range c {
					dhw += conj(d.At(m, ch, n)) * complex(w.AtVec(ch), w.AtVec(c+ch))
				}

				i := m*d.bins + n
				x[i] = (r[i] - dhw) * complex(invRho, 0)
			}
		}

		return nil
	})
}

// RelativeResidual returns ‖(DᴴD + ρI) x − r‖ / ‖r‖ for the prepared ρ. It is
// used to check the accuracy of [Solver.Solve].
func (s *Solver) RelativeResidual(x, r []complex128) (float64, error) {
	d := s.dict
	if len(x) != d.filters*d.bins || len(r) != d.filters*d.bins {
		return 0, fmt.Errorf("%w: residual x %d r %d", ErrShape, len(x), len(r))
	}

	if !s.valid {
		return 0, ErrNotPrepared
	}

	dxb := residualScratch.Get(d.channels * d.bins)
	defer residualScratch.Put(dxb)

	dx := *dxb
	if err := d.Apply(dx, x); err != nil {
		return 0, err
	}

	axb := residualScratch.Get(d.filters * d.bins)
	defer residualScratch.Put(axb)

	ax := *axb
	if err := d.Adjoint(ax, dx); err != nil {
		return 0, err
	}

	var num, den float64
	for i := range ax {
		diff := ax[i] + complex(s.rho, 0)*x[i] - r[i]
		num += real(diff)*real(diff) + imag(diff)*imag(diff)
		den += real(r[i])*real(r[i]) + imag(r[i])*imag(r[i])
	}

	if den == 0 {
		return math.Sqrt(num), nil
	}

	return math.Sqrt(num / den), nil
}
