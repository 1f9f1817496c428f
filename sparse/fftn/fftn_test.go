package fftn

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/cwbudde/algo-sparse/internal/testutil"
)

func naiveDFT2(x []complex128, rows, cols int) []complex128 {
	out := make([]complex128, rows*cols)
	for k1 := range rows {
		for k2 := range cols {
			var sum complex128
			for n1 := range rows {
				for n2 := range cols {
					phase := -2 * math.Pi * (float64(k1*n1)/float64(rows) + float64(k2*n2)/float64(cols))
					sum += x[n1*cols+n2] * cmplx.Exp(complex(0, phase))
				}
			}
			out[k1*cols+k2] = sum
		}
	}
	return out
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name  string
		shape []int
	}{
		{name: "empty", shape: nil},
		{name: "zero extent", shape: []int{4, 0}},
		{name: "negative extent", shape: []int{-2, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.shape)
			if !errors.Is(err, ErrInvalidShape) {
				t.Fatalf("expected ErrInvalidShape, got %v", err)
			}
		})
	}
}

func TestForwardMatchesNaiveDFT(t *testing.T) {
	const rows, cols = 4, 8

	tr, err := New([]int{rows, cols})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	re := testutil.DeterministicNoise(1, 1, rows*cols)
	im := testutil.DeterministicNoise(2, 1, rows*cols)
	x := make([]complex128, rows*cols)
	for i := range x {
		x[i] = complex(re[i], im[i])
	}

	got := make([]complex128, len(x))
	if err := tr.Forward(got, x); err != nil {
		t.Fatalf("Forward: %v", err)
	}

	testutil.RequireComplexNearlyEqual(t, got, naiveDFT2(x, rows, cols), 1e-9)
}

func TestRoundTrip(t *testing.T) {
	shapes := [][]int{{16}, {8, 16}, {4, 4, 8}, {1, 8}, {8, 1, 4}}

	for _, shape := range shapes {
		tr, err := New(shape)
		if err != nil {
			t.Fatalf("New(%v): %v", shape, err)
		}

		src := testutil.DeterministicNoise(int64(tr.Len()), 2, tr.Len())
		spec := make([]complex128, tr.Len())
		if err := tr.ForwardReal(spec, src); err != nil {
			t.Fatalf("ForwardReal(%v): %v", shape, err)
		}

		back := make([]float64, tr.Len())
		if err := tr.InverseReal(back, spec); err != nil {
			t.Fatalf("InverseReal(%v): %v", shape, err)
		}

		testutil.RequireSliceNearlyEqual(t, back, src, 1e-12)
	}
}

func TestInPlaceRoundTrip(t *testing.T) {
	tr, err := New([]int{8, 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	noise := testutil.DeterministicNoise(5, 1, tr.Len())
	orig := make([]complex128, tr.Len())
	for i, v := range noise {
		orig[i] = complex(v, -v/2)
	}

	data := append([]complex128(nil), orig...)
	if err := tr.Forward(data, data); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if err := tr.Inverse(data, data); err != nil {
		t.Fatalf("Inverse: %v", err)
	}

	testutil.RequireComplexNearlyEqual(t, data, orig, 1e-12)
}

func TestImpulseSpectrumIsFlat(t *testing.T) {
	tr, err := New([]int{4, 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	spec := make([]complex128, tr.Len())
	if err := tr.ForwardReal(spec, testutil.Impulse(tr.Len(), 0)); err != nil {
		t.Fatalf("ForwardReal: %v", err)
	}

	for i, v := range spec {
		if cmplx.Abs(v-1) > 1e-12 {
			t.Fatalf("bin %d = %v, want 1", i, v)
		}
	}
}

func TestParseval(t *testing.T) {
	tr, err := New([]int{8, 16})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	x := testutil.DeterministicNoise(9, 1, tr.Len())
	spec := make([]complex128, tr.Len())
	if err := tr.ForwardReal(spec, x); err != nil {
		t.Fatalf("ForwardReal: %v", err)
	}

	var timeEnergy, freqEnergy float64
	for i := range x {
		timeEnergy += x[i] * x[i]
		freqEnergy += real(spec[i])*real(spec[i]) + imag(spec[i])*imag(spec[i])
	}

	if math.Abs(timeEnergy-freqEnergy/float64(tr.Len())) > 1e-9 {
		t.Fatalf("energy %v vs %v", timeEnergy, freqEnergy/float64(tr.Len()))
	}
}

func TestBatchRoundTrip(t *testing.T) {
	tr, err := New([]int{4, 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	src := testutil.DeterministicNoise(11, 1, 3*tr.Len())
	spec := make([]complex128, len(src))
	if err := tr.ForwardBatch(spec, src); err != nil {
		t.Fatalf("ForwardBatch: %v", err)
	}

	back := make([]float64, len(src))
	if err := tr.InverseRealBatch(back, spec); err != nil {
		t.Fatalf("InverseRealBatch: %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, back, src, 1e-12)

	if err := tr.ForwardBatch(spec[:5], src[:5]); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestLengthMismatch(t *testing.T) {
	tr, err := New([]int{4, 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = tr.Forward(make([]complex128, 15), make([]complex128, 16))
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}
