package main

import "math"

func deltaFilter(k int) []float64 {
	f := make([]float64, k*k)
	f[0] = 1
	return f
}

func boxFilter(k int) []float64 {
	f := make([]float64, k*k)
	for i := range f {
		f[i] = 1
	}
	return f
}

func gaussFilter(k int) []float64 {
	f := make([]float64, k*k)
	c := float64(k-1) / 2
	sigma := math.Max(float64(k)/4, 0.5)
	for r := range k {
		for col := range k {
			dr, dc := float64(r)-c, float64(col)-c
			f[r*k+col] = math.Exp(-(dr*dr + dc*dc) / (2 * sigma * sigma))
		}
	}
	return f
}

func gradientFilter(vertical bool) func(k int) []float64 {
	return func(k int) []float64 {
		f := make([]float64, k*k)
		if k < 2 {
			f[0] = 1
			return f
		}
		if vertical {
			f[0], f[k] = 1, -1
		} else {
			f[0], f[1] = 1, -1
		}
		return f
	}
}

func laplaceFilter(k int) []float64 {
	f := make([]float64, k*k)
	if k < 3 {
		f[0] = 1
		return f
	}
	f[1], f[k], f[k+1], f[k+2], f[2*k+1] = 1, 1, -4, 1, 1
	return f
}

// colourImage returns a size×size RGB image laid out [channel][row][col]:
// smooth gradients, a disc and a few hard edges, shifted per channel.
func colourImage(size int) []float64 {
	n := size * size
	img := make([]float64, 3*n)
	c := float64(size-1) / 2
	radius := float64(size) / 4

	for ch := range 3 {
		shift := float64(ch) * float64(size) / 8
		for r := range size {
			for col := range size {
				x, y := float64(col), float64(r)
				v := 0.3 * (x + shift) / float64(size)
				if math.Hypot(x-c-shift/2, y-c) < radius {
					v += 0.5
				}
				if col > size*(ch+2)/6 && r < size/3 {
					v -= 0.25
				}
				img[ch*n+r*size+col] = v
			}
		}
	}
	return img
}
