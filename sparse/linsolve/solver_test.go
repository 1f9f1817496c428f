package linsolve

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-sparse/internal/testutil"
)

func randomSpectra(seed int64, n int) []complex128 {
	re := testutil.DeterministicNoise(seed, 1, n)
	im := testutil.DeterministicNoise(seed+1000, 1, n)
	out := make([]complex128, n)
	for i := range out {
		out[i] = complex(re[i], im[i])
	}
	return out
}

// denseSolve solves (DᴴD + ρI) x = r at a single bin through the real
// 2M×2M embedding, independent of the low-rank code paths.
func denseSolve(t *testing.T, d *Dictionary, rho float64, r []complex128, n int) []complex128 {
	t.Helper()

	m := d.filters
	a := mat.NewDense(2*m, 2*m, nil)
	for i := range m {
		for j := range m {
			var g complex128
			if i == j {
				g = complex(rho, 0)
			}
			for c := range d.channels {
				g += cmplx.Conj(d.At(i, c, n)) * d.At(j, c, n)
			}
			a.Set(i, j, real(g))
			a.Set(i, m+j, -imag(g))
			a.Set(m+i, j, imag(g))
			a.Set(m+i, m+j, real(g))
		}
	}

	b := mat.NewVecDense(2*m, nil)
	for i := range m {
		b.SetVec(i, real(r[i*d.bins+n]))
		b.SetVec(m+i, imag(r[i*d.bins+n]))
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		t.Fatalf("dense solve: %v", err)
	}

	out := make([]complex128, m)
	for i := range m {
		out[i] = complex(x.AtVec(i), x.AtVec(m+i))
	}
	return out
}

func TestSolveMatchesDenseSolve(t *testing.T) {
	tests := []struct {
		name     string
		filters  int
		channels int
		bins     int
		rho      float64
	}{
		{name: "shared dictionary", filters: 5, channels: 1, bins: 16, rho: 0.5},
		{name: "shared dictionary small rho", filters: 3, channels: 1, bins: 8, rho: 1e-3},
		{name: "coupled dictionary", filters: 4, channels: 3, bins: 16, rho: 2},
		{name: "coupled dictionary wide", filters: 6, channels: 2, bins: 8, rho: 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			df := randomSpectra(1, tt.filters*tt.channels*tt.bins)
			dict, err := NewDictionary(df, tt.filters, tt.channels, tt.bins, 2)
			if err != nil {
				t.Fatalf("NewDictionary: %v", err)
			}

			s := New(dict)
			if err := s.Prepare(tt.rho, 1); err != nil {
				t.Fatalf("Prepare: %v", err)
			}

			r := randomSpectra(7, tt.filters*tt.bins)
			x := make([]complex128, len(r))
			if err := s.Solve(x, r); err != nil {
				t.Fatalf("Solve: %v", err)
			}

			for n := range tt.bins {
				want := denseSolve(t, dict, tt.rho, r, n)
				for m := range tt.filters {
					got := x[m*tt.bins+n]
					if cmplx.Abs(got-want[m]) > 1e-8*(1+cmplx.Abs(want[m])) {
						t.Fatalf("bin %d filter %d: got %v, want %v", n, m, got, want[m])
					}
				}
			}

			res, err := s.RelativeResidual(x, r)
			if err != nil {
				t.Fatalf("RelativeResidual: %v", err)
			}
			if res > 1e-10 {
				t.Fatalf("relative residual %v too large", res)
			}
		})
	}
}

func TestPrepareGeneration(t *testing.T) {
	dict, err := NewDictionary(randomSpectra(3, 2*8), 2, 1, 8, 1)
	if err != nil {
		t.Fatalf("NewDictionary: %v", err)
	}

	s := New(dict)
	if _, ok := s.Generation(); ok {
		t.Fatal("fresh solver must not report a valid cache")
	}

	if err := s.Prepare(1, 1); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	// Same generation: cache kept even though rho differs.
	if err := s.Prepare(5, 1); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if s.Rho() != 1 {
		t.Fatalf("cache rebuilt within a generation: rho = %v", s.Rho())
	}

	if err := s.Prepare(5, 2); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if gen, ok := s.Generation(); !ok || gen != 2 || s.Rho() != 5 {
		t.Fatalf("generation = %d valid = %v rho = %v", gen, ok, s.Rho())
	}
}

func TestSolveBeforePrepare(t *testing.T) {
	dict, err := NewDictionary(randomSpectra(3, 8), 1, 1, 8, 1)
	if err != nil {
		t.Fatalf("NewDictionary: %v", err)
	}

	err = New(dict).Solve(make([]complex128, 8), make([]complex128, 8))
	if !errors.Is(err, ErrNotPrepared) {
		t.Fatalf("expected ErrNotPrepared, got %v", err)
	}
}

func TestPrepareNonFinite(t *testing.T) {
	for _, channels := range []int{1, 3} {
		df := randomSpectra(4, 2*channels*8)
		df[3] = complex(math.NaN(), 0)

		dict, err := NewDictionary(df, 2, channels, 8, 1)
		if err != nil {
			t.Fatalf("NewDictionary: %v", err)
		}

		s := New(dict)
		err = s.Prepare(1, 1)
		if !errors.Is(err, ErrNonFinite) {
			t.Fatalf("channels=%d: expected ErrNonFinite, got %v", channels, err)
		}
		if _, ok := s.Generation(); ok {
			t.Fatalf("channels=%d: failed prepare must leave the cache invalid", channels)
		}
	}
}

func TestPrepareRejectsBadRho(t *testing.T) {
	dict, err := NewDictionary(randomSpectra(3, 8), 1, 1, 8, 1)
	if err != nil {
		t.Fatalf("NewDictionary: %v", err)
	}

	for _, rho := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if err := New(dict).Prepare(rho, 1); !errors.Is(err, ErrNonFinite) {
			t.Fatalf("rho=%v: expected ErrNonFinite, got %v", rho, err)
		}
	}
}

func TestNewDictionaryShape(t *testing.T) {
	_, err := NewDictionary(make([]complex128, 10), 2, 1, 4, 1)
	if !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape, got %v", err)
	}

	_, err = NewDictionary(nil, 0, 1, 4, 1)
	if !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape for zero filters, got %v", err)
	}
}

func TestApplyAdjointAreAdjoint(t *testing.T) {
	const filters, channels, bins = 3, 2, 8

	dict, err := NewDictionary(randomSpectra(5, filters*channels*bins), filters, channels, bins, 1)
	if err != nil {
		t.Fatalf("NewDictionary: %v", err)
	}

	x := randomSpectra(6, filters*bins)
	s := randomSpectra(8, channels*bins)

	dx := make([]complex128, channels*bins)
	if err := dict.Apply(dx, x); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	dhs := make([]complex128, filters*bins)
	if err := dict.Adjoint(dhs, s); err != nil {
		t.Fatalf("Adjoint: %v", err)
	}

	// <Dx, s> == <x, Dᴴs>
	var lhs, rhs complex128
	for i := range dx {
		lhs += cmplx.Conj(s[i]) * dx[i]
	}
	for i := range x {
		rhs += cmplx.Conj(dhs[i]) * x[i]
	}

	if cmplx.Abs(lhs-rhs) > 1e-10 {
		t.Fatalf("<Dx,s> = %v, <x,Dᴴs> = %v", lhs, rhs)
	}
}
