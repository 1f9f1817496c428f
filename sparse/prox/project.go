package prox

import (
	"fmt"

	"github.com/cwbudde/algo-sparse/sparse/fftn"
)

// NonNegative replaces negative values of x by zero.
func NonNegative(x []float64) {
	for i, v := range x {
		if v < 0 {
			x[i] = 0
		}
	}
}

// Mask zeroes a fixed set of positions in every plane of an array.
type Mask struct {
	bins int
	zero []int
}

// BoundaryMask returns the mask of coefficient positions on a grid whose
// filter support (filter shape, anchored at the position) would wrap across
// the end of some axis: along axis a those are the last filter[a]-1 indices.
func BoundaryMask(grid, filter []int) (Mask, error) {
	if len(grid) != len(filter) || len(grid) == 0 {
		return Mask{}, fmt.Errorf("%w: grid %v filter %v", ErrInvalidLayout, grid, filter)
	}

	for axis := range grid {
		if filter[axis] <= 0 || filter[axis] > grid[axis] {
			return Mask{}, fmt.Errorf("%w: filter %v does not fit grid %v", ErrInvalidLayout, filter, grid)
		}
	}

	strides := fftn.Strides(grid)
	bins := strides[0] * grid[0]

	var zero []int
	for i := range bins {
		rem := i
		for axis := range grid {
			c := rem / strides[axis]
			rem %= strides[axis]

			if c > grid[axis]-filter[axis] {
				zero = append(zero, i)
				break
			}
		}
	}

	return Mask{bins: bins, zero: zero}, nil
}

// Len returns the number of masked positions per plane.
func (m Mask) Len() int {
	return len(m.zero)
}

// Apply zeroes the masked positions of every plane of x.
func (m Mask) Apply(x []float64) error {
	if m.bins == 0 {
		return nil
	}

	if len(x)%m.bins != 0 {
		return fmt.Errorf("%w: %d values for planes of %d", ErrLengthMismatch, len(x), m.bins)
	}

	for off := 0; off < len(x); off += m.bins {
		for _, i := range m.zero {
			x[off+i] = 0
		}
	}

	return nil
}
