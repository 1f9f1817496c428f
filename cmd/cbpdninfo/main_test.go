package main

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/cwbudde/algo-sparse/sparse/cbpdn"
)

func TestFilterKindsAreUnitNorm(t *testing.T) {
	for _, k := range registry {
		f := normalize(k.gen(5))
		if len(f) != 25 {
			t.Fatalf("%s: %d taps, want 25", k.name, len(f))
		}

		var sq float64
		for _, v := range f {
			sq += v * v
		}

		if math.Abs(sq-1) > 1e-12 {
			t.Fatalf("%s: squared norm %g after normalize", k.name, sq)
		}
	}
}

func TestResolveKinds(t *testing.T) {
	if got := resolveKinds(nil); len(got) != len(registry) {
		t.Fatalf("default kinds=%d, want %d", len(got), len(registry))
	}

	got := resolveKinds([]string{"Gauss", "nope", " delta "})
	if len(got) != 2 || got[0].name != "gauss" || got[1].name != "delta" {
		t.Fatalf("resolveKinds=%v", got)
	}
}

func TestRun(t *testing.T) {
	opts := cbpdn.DefaultOptions()
	opts.MaxIter = 10

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := run(context.Background(), registry[:3], 12, 3, 0.05, 0.05, 5, opts, logger, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
}
