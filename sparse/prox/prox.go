package prox

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-sparse/internal/parallel"
)

// Errors returned by the proximal operators.
var (
	ErrLengthMismatch = errors.New("prox: buffer length mismatch")
	ErrInvalidLayout  = errors.New("prox: invalid layout")
)

// Axis selects the index a shrinkage group spans.
type Axis int

const (
	// AxisNone disables group shrinkage.
	AxisNone Axis = iota
	// AxisChannel groups values across channels.
	AxisChannel
	// AxisBatch groups values across the signals of a batch.
	AxisBatch
)

// Layout describes a coefficient array [batch][channel][filter][bin].
type Layout struct {
	Batch    int
	Channels int
	Filters  int
	Bins     int
}

// Len returns the number of values of the array.
func (l Layout) Len() int {
	return l.Batch * l.Channels * l.Filters * l.Bins
}

// Filter returns the filter index of the value at flat index i.
func (l Layout) Filter(i int) int {
	return (i / l.Bins) % l.Filters
}

func (l Layout) validate() error {
	if l.Batch <= 0 || l.Channels <= 0 || l.Filters <= 0 || l.Bins <= 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidLayout, l)
	}

	return nil
}

// Groups views the array as [outer][size][inner] with groups running along
// the middle index.
type Groups struct {
	Outer int
	Size  int
	Inner int
}

// Groups returns the group view for axis.
func (l Layout) Groups(axis Axis) Groups {
	switch axis {
	case AxisChannel:
		return Groups{Outer: l.Batch, Size: l.Channels, Inner: l.Filters * l.Bins}
	case AxisBatch:
		return Groups{Outer: 1, Size: l.Batch, Inner: l.Channels * l.Filters * l.Bins}
	default:
		return Groups{Outer: l.Len(), Size: 1, Inner: 1}
	}
}

// Count returns the number of groups.
func (g Groups) Count() int {
	return g.Outer * g.Inner
}

// Base returns the flat index of the first value of group k; the values of
// the group follow at stride Inner.
func (g Groups) Base(k int) int {
	o, i := k/g.Inner, k%g.Inner
	return o*g.Size*g.Inner + i
}

// Penalty holds thresholds already divided by ρ.
type Penalty struct {
	// L1 is the elementwise threshold λ/ρ.
	L1 float64
	// L21 is the group threshold μ/ρ.
	L21 float64
	// L1Weight and L21Weight optionally scale the thresholds per filter.
	L1Weight  []float64
	L21Weight []float64
	// Epsilon is the group norm below which a group is treated as zero.
	Epsilon float64
}

func (p Penalty) weight(w []float64, m int) float64 {
	if w == nil {
		return 1
	}

	return w[m]
}

// SoftThreshold writes sign(src)·max(0, |src| − t) into dst.
func SoftThreshold(dst, src []float64, t float64) error {
	if len(dst) != len(src) {
		return fmt.Errorf("%w: dst %d src %d", ErrLengthMismatch, len(dst), len(src))
	}

	scale := make([]float64, len(src))
	shrinkFactors(scale, src, t)
	vecmath.MulBlock(dst, src, scale)

	return nil
}

// shrinkFactors stores max(0, 1 − t/|v|) per value; zero for v == 0.
func shrinkFactors(scale, src []float64, t float64) {
	for i, v := range src {
		a := math.Abs(v)
		if a <= t {
			scale[i] = 0
			continue
		}

		scale[i] = 1 - t/a
	}
}

// GroupShrink applies v·max(0, 1 − t/‖v‖) to every group of src, writing dst.
// Groups whose norm does not exceed eps become the zero vector. thresh maps a
// group's first flat index to its threshold.
func GroupShrink(dst, src []float64, g Groups, thresh func(base int) float64, eps float64, workers int) error {
	if len(dst) != len(src) || len(src) != g.Outer*g.Size*g.Inner {
		return fmt.Errorf("%w: dst %d src %d groups %+v", ErrLengthMismatch, len(dst), len(src), g)
	}

	return parallel.For(g.Count(), workers, func(lo, hi int) error {
		for k := lo; k < hi; k++ {
			base := g.Base(k)

			var sq float64
			for j := range g.Size {
				v := src[base+j*g.Inner]
				sq += v * v
			}

			norm := math.Sqrt(sq)
			t := thresh(base)

			scale := 0.0
			if norm > eps && norm > t {
				scale = 1 - t/norm
			}

			for j := range g.Size {
				i := base + j*g.Inner
				dst[i] = src[i] * scale
			}
		}

		return nil
	})
}

// SparseGroup evaluates the proximal operator of the sparse-group penalty:
// elementwise soft thresholding by p.L1 followed by group shrinkage by p.L21
// along axis. With axis == AxisNone or p.L21 == 0 it reduces to independent
// soft thresholding. dst and src may alias.
func SparseGroup(dst, src []float64, l Layout, axis Axis, p Penalty, workers int) error {
	err := l.validate()
	if err != nil {
		return err
	}

	if len(dst) != l.Len() || len(src) != l.Len() {
		return fmt.Errorf("%w: dst %d src %d layout %d", ErrLengthMismatch, len(dst), len(src), l.Len())
	}

	if p.L1Weight != nil && len(p.L1Weight) != l.Filters {
		return fmt.Errorf("%w: %d l1 weights for %d filters", ErrLengthMismatch, len(p.L1Weight), l.Filters)
	}

	if p.L21Weight != nil && len(p.L21Weight) != l.Filters {
		return fmt.Errorf("%w: %d l21 weights for %d filters", ErrLengthMismatch, len(p.L21Weight), l.Filters)
	}

	// Elementwise step, chunked along whole filter planes.
	planes := l.Len() / l.Bins

	err = parallel.For(planes, workers, func(lo, hi int) error {
		scale := make([]float64, l.Bins)

		for plane := lo; plane < hi; plane++ {
			off := plane * l.Bins
			t := p.L1 * p.weight(p.L1Weight, plane%l.Filters)

			s := src[off : off+l.Bins]
			shrinkFactors(scale, s, t)
			vecmath.MulBlock(dst[off:off+l.Bins], s, scale)
		}

		return nil
	})
	if err != nil {
		return err
	}

	if axis == AxisNone || p.L21 <= 0 {
		return nil
	}

	thresh := func(base int) float64 {
		return p.L21 * p.weight(p.L21Weight, l.Filter(base))
	}

	return GroupShrink(dst, dst, l.Groups(axis), thresh, p.Epsilon, workers)
}
