package fftn

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-sparse/internal/numeric"
)

// Errors returned by transform construction and execution.
var (
	ErrInvalidShape   = errors.New("fftn: invalid shape")
	ErrLengthMismatch = errors.New("fftn: buffer length mismatch")
)

// Transform computes forward and inverse DFTs over every axis of a fixed
// row-major shape.
type Transform struct {
	shape   []int
	strides []int
	n       int

	// plans[axis] is nil for axes of extent 1.
	plans []*algofft.Plan[complex128]

	scratch []complex128
	// line holds one gathered axis line.
	line []complex128
}

// New creates a transform for the given spatial shape.
func New(shape []int) (*Transform, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("%w: no axes", ErrInvalidShape)
	}

	for axis, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("%w: axis %d has extent %d", ErrInvalidShape, axis, d)
		}
	}

	t := &Transform{
		shape:   append([]int(nil), shape...),
		strides: Strides(shape),
		n:       numeric.Product(shape),
		plans:   make([]*algofft.Plan[complex128], len(shape)),
	}

	// Axes of equal extent share a plan; the transform runs axes sequentially.
	byLen := make(map[int]*algofft.Plan[complex128])

	for axis, d := range shape {
		if d == 1 {
			continue
		}

		plan, ok := byLen[d]
		if !ok {
			var err error

			plan, err = algofft.NewPlan64(d)
			if err != nil {
				return nil, fmt.Errorf("fftn: failed to create plan for axis %d (length %d): %w", axis, d, err)
			}

			byLen[d] = plan
		}

		t.plans[axis] = plan
		t.line = make([]complex128, max(len(t.line), d))
	}

	return t, nil
}

// Shape returns a copy of the transform shape.
func (t *Transform) Shape() []int {
	return append([]int(nil), t.shape...)
}

// Len returns the number of samples (and frequency bins) of one array.
func (t *Transform) Len() int {
	return t.n
}

// Forward computes the unnormalized forward transform of src into dst.
// dst and src may be the same slice.
func (t *Transform) Forward(dst, src []complex128) error {
	return t.apply(dst, src, false)
}

// Inverse computes the normalized inverse transform of src into dst.
// dst and src may be the same slice.
func (t *Transform) Inverse(dst, src []complex128) error {
	return t.apply(dst, src, true)
}

// ForwardReal transforms real samples into a complex spectrum.
func (t *Transform) ForwardReal(dst []complex128, src []float64) error {
	if len(dst) != t.n || len(src) != t.n {
		return fmt.Errorf("%w: want %d, got dst %d src %d", ErrLengthMismatch, t.n, len(dst), len(src))
	}

	for i, v := range src {
		dst[i] = complex(v, 0)
	}

	return t.apply(dst, dst, false)
}

// InverseReal transforms a spectrum back and keeps the real part. The
// spectrum is left untouched.
func (t *Transform) InverseReal(dst []float64, src []complex128) error {
	if len(dst) != t.n || len(src) != t.n {
		return fmt.Errorf("%w: want %d, got dst %d src %d", ErrLengthMismatch, t.n, len(dst), len(src))
	}

	if cap(t.scratch) < t.n {
		t.scratch = make([]complex128, t.n)
	}

	buf := t.scratch[:t.n]

	err := t.apply(buf, src, true)
	if err != nil {
		return err
	}

	for i, v := range buf {
		dst[i] = real(v)
	}

	return nil
}

// ForwardBatch transforms len(src)/Len() consecutive real arrays.
func (t *Transform) ForwardBatch(dst []complex128, src []float64) error {
	if len(dst) != len(src) || len(src)%t.n != 0 {
		return fmt.Errorf("%w: batch of %d samples for arrays of %d", ErrLengthMismatch, len(src), t.n)
	}

	for off := 0; off < len(src); off += t.n {
		err := t.ForwardReal(dst[off:off+t.n], src[off:off+t.n])
		if err != nil {
			return err
		}
	}

	return nil
}

// InverseRealBatch inverts len(src)/Len() consecutive spectra.
func (t *Transform) InverseRealBatch(dst []float64, src []complex128) error {
	if len(dst) != len(src) || len(src)%t.n != 0 {
		return fmt.Errorf("%w: batch of %d bins for arrays of %d", ErrLengthMismatch, len(src), t.n)
	}

	for off := 0; off < len(src); off += t.n {
		err := t.InverseReal(dst[off:off+t.n], src[off:off+t.n])
		if err != nil {
			return err
		}
	}

	return nil
}

func (t *Transform) apply(dst, src []complex128, inverse bool) error {
	if len(dst) != t.n || len(src) != t.n {
		return fmt.Errorf("%w: want %d, got dst %d src %d", ErrLengthMismatch, t.n, len(dst), len(src))
	}

	if &dst[0] != &src[0] {
		copy(dst, src)
	}

	for axis, d := range t.shape {
		plan := t.plans[axis]
		if plan == nil {
			continue
		}

		stride := t.strides[axis]
		block := d * stride
		line := t.line[:d]

		for outer := 0; outer < t.n; outer += block {
			for inner := range stride {
				base := outer + inner
				for k := range line {
					line[k] = dst[base+k*stride]
				}

				var err error
				if inverse {
					err = plan.Inverse(line, line)
				} else {
					err = plan.Forward(line, line)
				}

				if err != nil {
					return fmt.Errorf("fftn: axis %d: %w", axis, err)
				}

				for k, v := range line {
					dst[base+k*stride] = v
				}
			}
		}
	}

	return nil
}
