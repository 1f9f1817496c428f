package testutil

import (
	"math/rand"
)

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// SparseImage returns a rows*cols plane with count unit-amplitude spikes of
// random sign at seeded random positions.
func SparseImage(seed int64, rows, cols, count int) []float64 {
	out := make([]float64, rows*cols)
	rng := rand.New(rand.NewSource(seed))
	for range count {
		v := 1.0
		if rng.Intn(2) == 0 {
			v = -1
		}
		out[rng.Intn(rows*cols)] = v
	}
	return out
}

// CircularConvolve2D convolves a rows*cols plane with a kh*kw kernel using
// periodic boundaries. It is a direct O(N*K) reference for FFT-based code.
func CircularConvolve2D(plane []float64, rows, cols int, kernel []float64, kh, kw int) []float64 {
	out := make([]float64, rows*cols)
	for r := range rows {
		for c := range cols {
			v := plane[r*cols+c]
			if v == 0 {
				continue
			}
			for i := range kh {
				for j := range kw {
					rr := (r + i) % rows
					cc := (c + j) % cols
					out[rr*cols+cc] += v * kernel[i*kw+j]
				}
			}
		}
	}
	return out
}
