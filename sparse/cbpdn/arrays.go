package cbpdn

import (
	"fmt"
	"slices"

	"github.com/cwbudde/algo-sparse/internal/numeric"
)

// Dictionary is a bank of M filters with 1 or C channel planes each, laid
// out [filter][channel][spatial...] in row-major order. A 1-channel
// dictionary is applied to every signal channel.
type Dictionary struct {
	filters  int
	channels int
	shape    []int
	data     []float64
}

// NewDictionary copies data into a dictionary of the given filter count,
// channel count and spatial shape (two or more axes).
func NewDictionary(data []float64, filters, channels int, shape []int) (*Dictionary, error) {
	if filters <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: dictionary with %d filters and %d channels", ErrShapeMismatch, filters, channels)
	}

	if err := checkSpatial(shape); err != nil {
		return nil, err
	}

	want := filters * channels * numeric.Product(shape)
	if len(data) != want {
		return nil, fmt.Errorf("%w: dictionary data has %d values, want %d", ErrShapeMismatch, len(data), want)
	}

	return &Dictionary{
		filters:  filters,
		channels: channels,
		shape:    slices.Clone(shape),
		data:     slices.Clone(data),
	}, nil
}

// Filters returns M.
func (d *Dictionary) Filters() int { return d.filters }

// Channels returns the number of channel planes per filter.
func (d *Dictionary) Channels() int { return d.channels }

// Shape returns a copy of the spatial filter shape.
func (d *Dictionary) Shape() []int { return slices.Clone(d.shape) }

// Filter returns the read-only plane of filter m, channel c.
func (d *Dictionary) Filter(m, c int) []float64 {
	n := numeric.Product(d.shape)
	off := (m*d.channels + c) * n

	return d.data[off : off+n : off+n]
}

// Signal is a batch of K multi-channel signals laid out
// [batch][channel][spatial...].
type Signal struct {
	batch    int
	channels int
	shape    []int
	data     []float64
}

// NewSignal copies data into a signal with explicit batch, channel and
// spatial axes.
func NewSignal(data []float64, batch, channels int, shape []int) (*Signal, error) {
	if batch <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: signal with batch %d and %d channels", ErrShapeMismatch, batch, channels)
	}

	if err := checkSpatial(shape); err != nil {
		return nil, err
	}

	want := batch * channels * numeric.Product(shape)
	if len(data) != want {
		return nil, fmt.Errorf("%w: signal data has %d values, want %d", ErrShapeMismatch, len(data), want)
	}

	return &Signal{
		batch:    batch,
		channels: channels,
		shape:    slices.Clone(shape),
		data:     slices.Clone(data),
	}, nil
}

// Batch returns K.
func (s *Signal) Batch() int { return s.batch }

// Channels returns C.
func (s *Signal) Channels() int { return s.channels }

// Shape returns a copy of the spatial shape.
func (s *Signal) Shape() []int { return slices.Clone(s.shape) }

// Data returns a copy of the samples.
func (s *Signal) Data() []float64 { return slices.Clone(s.data) }

// Plane returns the read-only samples of signal k, channel c.
func (s *Signal) Plane(k, c int) []float64 {
	n := numeric.Product(s.shape)
	off := (k*s.channels + c) * n

	return s.data[off : off+n : off+n]
}

// CoefMap holds one coefficient plane per (signal, coefficient channel,
// filter), laid out [batch][channel][filter][spatial...] on the transform
// grid.
type CoefMap struct {
	batch    int
	channels int
	filters  int
	shape    []int
	data     []float64
}

// NewCoefMap copies data into a coefficient map. It is mainly used to pass
// warm start values.
func NewCoefMap(data []float64, batch, channels, filters int, shape []int) (*CoefMap, error) {
	if batch <= 0 || channels <= 0 || filters <= 0 {
		return nil, fmt.Errorf("%w: coefficient map %dx%dx%d", ErrShapeMismatch, batch, channels, filters)
	}

	if err := checkSpatial(shape); err != nil {
		return nil, err
	}

	want := batch * channels * filters * numeric.Product(shape)
	if len(data) != want {
		return nil, fmt.Errorf("%w: coefficient data has %d values, want %d", ErrShapeMismatch, len(data), want)
	}

	return &CoefMap{
		batch:    batch,
		channels: channels,
		filters:  filters,
		shape:    slices.Clone(shape),
		data:     slices.Clone(data),
	}, nil
}

// Batch returns K.
func (x *CoefMap) Batch() int { return x.batch }

// Channels returns the number of coefficient channels.
func (x *CoefMap) Channels() int { return x.channels }

// Filters returns M.
func (x *CoefMap) Filters() int { return x.filters }

// Shape returns a copy of the spatial grid shape.
func (x *CoefMap) Shape() []int { return slices.Clone(x.shape) }

// Data returns a copy of the coefficients.
func (x *CoefMap) Data() []float64 { return slices.Clone(x.data) }

// Plane returns the read-only plane of signal k, channel c, filter m.
func (x *CoefMap) Plane(k, c, m int) []float64 {
	n := numeric.Product(x.shape)
	off := ((k*x.channels+c)*x.filters + m) * n

	return x.data[off : off+n : off+n]
}

// NonZero returns the number of non-zero coefficients.
func (x *CoefMap) NonZero() int {
	var nz int
	for _, v := range x.data {
		if v != 0 {
			nz++
		}
	}

	return nz
}

func (x *CoefMap) sameLayout(batch, channels, filters int, shape []int) bool {
	return x.batch == batch && x.channels == channels && x.filters == filters && slices.Equal(x.shape, shape)
}

func checkSpatial(shape []int) error {
	if len(shape) < 2 {
		return fmt.Errorf("%w: spatial shape %v needs at least two axes", ErrShapeMismatch, shape)
	}

	for _, n := range shape {
		if n <= 0 {
			return fmt.Errorf("%w: spatial shape %v has a non-positive extent", ErrShapeMismatch, shape)
		}
	}

	return nil
}
