package cbpdn

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-sparse/internal/testutil"
)

const (
	testRows = 16
	testCols = 16
	testKH   = 4
	testKW   = 4
)

// testFilters returns m single-channel 4×4 filters: a delta followed by
// unit-norm noise filters.
func testFilters(m int) []float64 {
	n := testKH * testKW
	out := make([]float64, m*n)
	out[0] = 1

	for f := 1; f < m; f++ {
		plane := testutil.DeterministicNoise(int64(100+f), 1, n)

		var sq float64
		for _, v := range plane {
			sq += v * v
		}

		for i, v := range plane {
			out[f*n+i] = v / math.Sqrt(sq)
		}
	}

	return out
}

func testDictionary(t *testing.T, m int) *Dictionary {
	t.Helper()

	d, err := NewDictionary(testFilters(m), m, 1, []int{testKH, testKW})
	if err != nil {
		t.Fatalf("NewDictionary: %v", err)
	}

	return d
}

// synthColorImage builds a 3-channel image as a sparse combination of the
// test filters plus a little noise. Every channel shares the same support.
func synthColorImage(t *testing.T, m int) *Signal {
	t.Helper()

	filters := testFilters(m)
	n := testRows * testCols
	data := make([]float64, 3*n)

	for f := range m {
		support := testutil.SparseImage(int64(7+f), testRows, testCols, 3)
		kernel := filters[f*testKH*testKW : (f+1)*testKH*testKW]

		for c := range 3 {
			gain := 1 + 0.25*float64(c)
			plane := make([]float64, n)

			for i, v := range support {
				plane[i] = gain * v
			}

			conv := testutil.CircularConvolve2D(plane, testRows, testCols, kernel, testKH, testKW)
			for i, v := range conv {
				data[c*n+i] += v
			}
		}
	}

	noise := testutil.DeterministicNoise(42, 0.01, len(data))
	for i := range data {
		data[i] += noise[i]
	}

	sig, err := NewSignal(data, 1, 3, []int{testRows, testCols})
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}

	return sig
}

func noiseSignal(t *testing.T, seed int64, channels int) *Signal {
	t.Helper()

	data := testutil.DeterministicNoise(seed, 1, channels*testRows*testCols)

	sig, err := NewSignal(data, 1, channels, []int{testRows, testCols})
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}

	return sig
}

// fixedIterations runs exactly n iterations with a constant ρ.
func fixedIterations(n int, rho float64) []Option {
	opts := DefaultOptions()
	opts.MaxIter = n
	opts.RelStopTol = 1e-300
	opts.Rho = rho
	opts.AutoRho.Enabled = false

	return []Option{WithOptions(opts)}
}
