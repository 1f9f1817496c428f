// Package parallel provides a data-parallel map over an index range.
//
// Work is split into contiguous, disjoint chunks so callers can write to
// their own slice ranges without locking.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MinChunk is the smallest chunk worth handing to a separate goroutine.
// Ranges shorter than this run inline on the calling goroutine.
const MinChunk = 256

// Workers resolves a requested worker count: values <= 0 select GOMAXPROCS.
func Workers(requested int) int {
	if requested > 0 {
		return requested
	}

	return runtime.GOMAXPROCS(0)
}

// For runs fn over [0, n) split into at most workers contiguous chunks
// [lo, hi). It returns the first error reported by any chunk.
func For(n, workers int, fn func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}

	workers = Workers(workers)

	chunks := (n + MinChunk - 1) / MinChunk
	if workers > chunks {
		workers = chunks
	}

	if workers <= 1 {
		return fn(0, n)
	}

	size := (n + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)

	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)

		g.Go(func() error {
			return fn(lo, hi)
		})
	}

	return g.Wait()
}
