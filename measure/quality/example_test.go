package quality_test

import (
	"fmt"

	"github.com/cwbudde/algo-sparse/measure/quality"
)

func ExamplePSNR() {
	ref := []float64{0, 0.5, 1, 0.5}
	approx := []float64{0, 0.5, 0.9, 0.5}

	psnr, _ := quality.PSNR(ref, approx, 1)
	fmt.Printf("psnr=%.1f dB\n", psnr)

	// Output:
	// psnr=26.0 dB
}
