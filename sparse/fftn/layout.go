package fftn

import "fmt"

// Strides returns row-major strides for shape.
func Strides(shape []int) []int {
	strides := make([]int, len(shape))

	s := 1
	for axis := len(shape) - 1; axis >= 0; axis-- {
		strides[axis] = s
		s *= shape[axis]
	}

	return strides
}

// Pad writes src (shape srcShape) into the front corner of dst (shape
// dstShape) and zeroes the rest of dst.
func Pad(dst []float64, dstShape []int, src []float64, srcShape []int) error {
	err := checkRegion(dst, dstShape, src, srcShape)
	if err != nil {
		return err
	}

	for i := range dst {
		dst[i] = 0
	}

	copyRegion(dst, dstShape, src, srcShape, true)

	return nil
}

// Crop copies the front corner of src (shape srcShape) into dst (shape
// dstShape).
func Crop(dst []float64, dstShape []int, src []float64, srcShape []int) error {
	err := checkRegion(src, srcShape, dst, dstShape)
	if err != nil {
		return err
	}

	copyRegion(src, srcShape, dst, dstShape, false)

	return nil
}

func checkRegion(big []float64, bigShape []int, small []float64, smallShape []int) error {
	if len(bigShape) != len(smallShape) || len(bigShape) == 0 {
		return fmt.Errorf("%w: rank %d vs %d", ErrInvalidShape, len(bigShape), len(smallShape))
	}

	nBig, nSmall := 1, 1
	for axis := range bigShape {
		if smallShape[axis] <= 0 || smallShape[axis] > bigShape[axis] {
			return fmt.Errorf("%w: axis %d extent %d does not fit in %d",
				ErrInvalidShape, axis, smallShape[axis], bigShape[axis])
		}

		nBig *= bigShape[axis]
		nSmall *= smallShape[axis]
	}

	if len(big) != nBig || len(small) != nSmall {
		return fmt.Errorf("%w: buffers %d/%d for shapes %v/%v",
			ErrLengthMismatch, len(big), len(small), bigShape, smallShape)
	}

	return nil
}

// copyRegion moves rows of the last axis between small and the front corner
// of big.
func copyRegion(big []float64, bigShape []int, small []float64, smallShape []int, toBig bool) {
	last := len(smallShape) - 1
	rowLen := smallShape[last]
	rows := len(small) / rowLen
	bigStrides := Strides(bigShape)

	for r := range rows {
		off := 0
		rem := r

		for axis := last - 1; axis >= 0; axis-- {
			c := rem % smallShape[axis]
			rem /= smallShape[axis]
			off += c * bigStrides[axis]
		}

		s := small[r*rowLen : (r+1)*rowLen]
		b := big[off : off+rowLen]

		if toBig {
			copy(b, s)
		} else {
			copy(s, b)
		}
	}
}
