package linsolve

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-sparse/internal/parallel"
)

// Errors returned by the linear solve kernel.
var (
	ErrShape         = errors.New("linsolve: shape mismatch")
	ErrNonFinite     = errors.New("linsolve: non-finite value in per-bin system")
	ErrFactorization = errors.New("linsolve: per-bin system is not positive definite")
	ErrNotPrepared   = errors.New("linsolve: solve before prepare")
)

// Dictionary is the frequency-domain form of a convolutional dictionary,
// laid out [filter][channel][bin].
type Dictionary struct {
	filters  int
	channels int
	bins     int
	df       []complex128
	workers  int
}

// NewDictionary wraps spectra laid out [filter][channel][bin]. The slice is
// retained, not copied.
func NewDictionary(df []complex128, filters, channels, bins, workers int) (*Dictionary, error) {
	if filters <= 0 || channels <= 0 || bins <= 0 {
		return nil, fmt.Errorf("%w: filters=%d channels=%d bins=%d", ErrShape, filters, channels, bins)
	}

	if len(df) != filters*channels*bins {
		return nil, fmt.Errorf("%w: %d spectra values for %dx%dx%d", ErrShape, len(df), filters, channels, bins)
	}

	return &Dictionary{
		filters:  filters,
		channels: channels,
		bins:     bins,
		df:       df,
		workers:  workers,
	}, nil
}

// Filters returns M.
func (d *Dictionary) Filters() int { return d.filters }

// Channels returns the number of dictionary channel planes.
func (d *Dictionary) Channels() int { return d.channels }

// Bins returns the number of frequency bins per plane.
func (d *Dictionary) Bins() int { return d.bins }

// At returns D̂ for filter m, channel c at bin n.
func (d *Dictionary) At(m, c, n int) complex128 {
	return d.df[(m*d.channels+c)*d.bins+n]
}

// Apply computes dst = D x per bin: dst[c][n] = Σ_m D̂[m][c][n]·x[m][n].
// dst has channels*bins entries, x has filters*bins.
func (d *Dictionary) Apply(dst, x []complex128) error {
	if len(dst) != d.channels*d.bins || len(x) != d.filters*d.bins {
		return fmt.Errorf("%w: apply dst %d x %d", ErrShape, len(dst), len(x))
	}

	return parallel.For(d.bins, d.workers, func(lo, hi int) error {
		for c := range d.channels {
			out := dst[c*d.bins : (c+1)*d.bins]
			for n := lo; n < hi; n++ {
				out[n] = 0
			}

			for m := range d.filters {
				dm := d.df[(m*d.channels+c)*d.bins:]
				xm := x[m*d.bins:]
				for n := lo; n < hi; n++ {
					out[n] += dm[n] * xm[n]
				}
			}
		}

		return nil
	})
}

// Adjoint computes dst = Dᴴ s per bin: dst[m][n] = Σ_c conj(D̂[m][c][n])·s[c][n].
// dst has filters*bins entries, s has channels*bins.
func (d *Dictionary) Adjoint(dst, s []complex128) error {
	if len(dst) != d.filters*d.bins || len(s) != d.channels*d.bins {
		return fmt.Errorf("%w: adjoint dst %d s %d", ErrShape, len(dst), len(s))
	}

	return parallel.For(d.bins, d.workers, func(lo, hi int) error {
		for m := range d.filters {
			out := dst[m*d.bins : (m+1)*d.bins]
			for n := lo; n < hi; n++ {
				out[n] = 0
			}

			for c := range d.channels {
				dm := d.df[(m*d.channels+c)*d.bins:]
				sc := s[c*d.bins:]
				for n := lo; n < hi; n++ {
					out[n] += conj(dm[n]) * sc[n]
				}
			}
		}

		return nil
	})
}

func conj(v complex128) complex128 {
	return complex(real(v), -imag(v))
}
