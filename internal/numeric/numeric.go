// Package numeric holds small scalar and slice helpers shared by the solver
// packages.
package numeric

import "math"

const defaultEpsilon = 1e-12

// Clamp limits value to the inclusive range [lo, hi].
func Clamp(value, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}

	if value < lo {
		return lo
	}

	if value > hi {
		return hi
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps, using a relative
// comparison for large magnitudes.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// IsFinite reports whether v is neither NaN nor ±Inf.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FirstNonFinite returns the index of the first NaN or Inf in x, or -1.
func FirstNonFinite(x []float64) int {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return i
		}
	}

	return -1
}

// FirstNonFiniteComplex returns the index of the first element of x with a
// NaN or Inf component, or -1.
func FirstNonFiniteComplex(x []complex128) int {
	for i, v := range x {
		if !IsFinite(real(v)) || !IsFinite(imag(v)) {
			return i
		}
	}

	return -1
}

// NextPowerOf2 returns the smallest power of two >= n (1 for n <= 1).
func NextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}

// Product returns the product of dims (1 for an empty slice).
func Product(dims []int) int {
	p := 1
	for _, d := range dims {
		p *= d
	}

	return p
}
