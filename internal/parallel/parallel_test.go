package parallel

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestForCoversRangeOnce(t *testing.T) {
	for _, n := range []int{1, 7, MinChunk, 10*MinChunk + 3} {
		for _, workers := range []int{0, 1, 3, 16} {
			hits := make([]int32, n)

			err := For(n, workers, func(lo, hi int) error {
				for i := lo; i < hi; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("n=%d workers=%d: unexpected error: %v", n, workers, err)
			}

			for i, h := range hits {
				if h != 1 {
					t.Fatalf("n=%d workers=%d: index %d visited %d times", n, workers, i, h)
				}
			}
		}
	}
}

func TestForEmpty(t *testing.T) {
	called := false
	err := For(0, 4, func(lo, hi int) error {
		called = true
		return nil
	})
	if err != nil || called {
		t.Fatalf("For(0) called=%v err=%v", called, err)
	}
}

func TestForPropagatesError(t *testing.T) {
	sentinel := errors.New("boom")

	err := For(8*MinChunk, 4, func(lo, hi int) error {
		if lo == 0 {
			return sentinel
		}
		return nil
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
}

func TestWorkers(t *testing.T) {
	if Workers(3) != 3 {
		t.Fatal("explicit worker count must be kept")
	}
	if Workers(0) < 1 {
		t.Fatal("default worker count must be positive")
	}
}
