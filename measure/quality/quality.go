// Package quality measures how closely an approximation matches a
// reference signal or image.
//
// All functions treat their inputs as flat sample arrays, so multi-channel
// images compare channel planes together.
package quality

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Errors returned by the quality metrics.
var (
	ErrEmptyInput     = errors.New("quality: empty input")
	ErrLengthMismatch = errors.New("quality: length mismatch")
)

// Report holds the comparison metrics of one approximation.
//
//nolint:revive
type Report struct {
	Length    int
	MSE       float64
	RMSE      float64
	MaxAbsErr float64
	SNR_dB    float64
	PSNR_dB   float64
	Peak      float64 // peak value used for PSNR
}

// MSE returns the mean squared error between ref and x.
func MSE(ref, x []float64) (float64, error) {
	if err := check(ref, x); err != nil {
		return 0, err
	}

	return mse(ref, x), nil
}

// SNR returns 10·log10(‖ref‖² / ‖ref − x‖²) in dB. An exact match yields +Inf.
func SNR(ref, x []float64) (float64, error) {
	if err := check(ref, x); err != nil {
		return 0, err
	}

	d := floats.Distance(ref, x, 2)
	return powerRatioTodB(floats.Dot(ref, ref), d*d), nil
}

// PSNR returns 10·log10(peak² / MSE) in dB. A peak <= 0 selects the value
// range of ref, max(ref) − min(ref). An exact match yields +Inf.
func PSNR(ref, x []float64, peak float64) (float64, error) {
	if err := check(ref, x); err != nil {
		return 0, err
	}

	if peak <= 0 {
		peak = floats.Max(ref) - floats.Min(ref)
	}

	return powerRatioTodB(peak*peak, mse(ref, x)), nil
}

// Compare computes every metric at once. peak follows [PSNR].
func Compare(ref, x []float64, peak float64) (Report, error) {
	if err := check(ref, x); err != nil {
		return Report{}, err
	}

	if peak <= 0 {
		peak = floats.Max(ref) - floats.Min(ref)
	}

	m := mse(ref, x)
	d := floats.Distance(ref, x, 2)

	return Report{
		Length:    len(ref),
		MSE:       m,
		RMSE:      math.Sqrt(m),
		MaxAbsErr: floats.Distance(ref, x, math.Inf(1)),
		SNR_dB:    powerRatioTodB(floats.Dot(ref, ref), d*d),
		PSNR_dB:   powerRatioTodB(peak*peak, m),
		Peak:      peak,
	}, nil
}

func check(ref, x []float64) error {
	if len(ref) == 0 {
		return ErrEmptyInput
	}

	if len(ref) != len(x) {
		return fmt.Errorf("%w: ref %d x %d", ErrLengthMismatch, len(ref), len(x))
	}

	return nil
}

func mse(ref, x []float64) float64 {
	d := floats.Distance(ref, x, 2)
	return d * d / float64(len(ref))
}

// powerRatioTodB converts signal/noise powers to decibels: +Inf for zero
// noise, -Inf for zero signal.
func powerRatioTodB(signal, noise float64) float64 {
	if noise == 0 {
		return math.Inf(1)
	}

	if signal == 0 {
		return math.Inf(-1)
	}

	return 10 * math.Log10(signal/noise)
}
