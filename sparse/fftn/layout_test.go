package fftn

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-sparse/internal/testutil"
)

func TestStrides(t *testing.T) {
	got := Strides([]int{2, 3, 4})
	want := []int{12, 4, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Strides = %v, want %v", got, want)
		}
	}
}

func TestPadCrop(t *testing.T) {
	small := []float64{
		1, 2, 3,
		4, 5, 6,
	}
	big := make([]float64, 4*4)
	for i := range big {
		big[i] = 99
	}

	if err := Pad(big, []int{4, 4}, small, []int{2, 3}); err != nil {
		t.Fatalf("Pad: %v", err)
	}

	want := []float64{
		1, 2, 3, 0,
		4, 5, 6, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
	}
	testutil.RequireSliceNearlyEqual(t, big, want, 0)

	back := make([]float64, 6)
	if err := Crop(back, []int{2, 3}, big, []int{4, 4}); err != nil {
		t.Fatalf("Crop: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, back, small, 0)
}

func TestPadErrors(t *testing.T) {
	err := Pad(make([]float64, 4), []int{2, 2}, make([]float64, 6), []int{2, 3})
	if !errors.Is(err, ErrInvalidShape) {
		t.Fatalf("expected ErrInvalidShape, got %v", err)
	}

	err = Pad(make([]float64, 4), []int{2, 2}, make([]float64, 2), []int{2})
	if !errors.Is(err, ErrInvalidShape) {
		t.Fatalf("expected ErrInvalidShape for rank mismatch, got %v", err)
	}

	err = Pad(make([]float64, 3), []int{2, 2}, make([]float64, 1), []int{1, 1})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}
