package numeric

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		lo       float64
		hi       float64
		expected float64
	}{
		{name: "inside", value: 0.5, lo: 0, hi: 1, expected: 0.5},
		{name: "below", value: -1, lo: 0, hi: 1, expected: 0},
		{name: "above", value: 2, lo: 0, hi: 1, expected: 1},
		{name: "swapped", value: 2, lo: 1, hi: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.value, tt.lo, tt.hi)
			if got != tt.expected {
				t.Fatalf("Clamp() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNearlyEqual(t *testing.T) {
	if !NearlyEqual(1.0, 1.0+1e-13, 1e-12) {
		t.Fatal("expected values to be nearly equal")
	}
	if NearlyEqual(1.0, 1.1, 1e-3) {
		t.Fatal("expected values to differ")
	}
}

func TestFirstNonFinite(t *testing.T) {
	if got := FirstNonFinite([]float64{1, 2, 3}); got != -1 {
		t.Fatalf("FirstNonFinite(finite) = %d, want -1", got)
	}
	if got := FirstNonFinite([]float64{1, math.Inf(1), math.NaN()}); got != 1 {
		t.Fatalf("FirstNonFinite() = %d, want 1", got)
	}
	if got := FirstNonFiniteComplex([]complex128{1, complex(0, math.NaN())}); got != 1 {
		t.Fatalf("FirstNonFiniteComplex() = %d, want 1", got)
	}
}

func TestNextPowerOf2(t *testing.T) {
	tests := map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 16: 16, 17: 32, 100: 128}
	for in, want := range tests {
		if got := NextPowerOf2(in); got != want {
			t.Errorf("NextPowerOf2(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestProduct(t *testing.T) {
	if got := Product(nil); got != 1 {
		t.Fatalf("Product(nil) = %d, want 1", got)
	}
	if got := Product([]int{2, 3, 4}); got != 24 {
		t.Fatalf("Product() = %d, want 24", got)
	}
}
