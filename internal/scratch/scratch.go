// Package scratch pools temporary slices used inside solver iterations.
package scratch

import "sync"

// Elem is the element type of a pooled slice.
type Elem interface {
	~float64 | ~complex128
}

// Pool provides sync.Pool-based slice reuse to reduce GC pressure in
// iteration loops.
type Pool[T Elem] struct {
	pool sync.Pool
}

// NewPool returns a Pool ready for use.
func NewPool[T Elem]() *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return new([]T)
			},
		},
	}
}

// Get returns a zeroed slice of length n. Callers must return it via Put
// when done.
func (p *Pool[T]) Get(n int) *[]T {
	b := p.pool.Get().(*[]T)
	if cap(*b) < n {
		*b = make([]T, n)
	} else {
		*b = (*b)[:n]
		clear(*b)
	}

	return b
}

// Put returns a slice to the pool. The caller must not use it afterwards.
func (p *Pool[T]) Put(b *[]T) {
	if b == nil {
		return
	}

	p.pool.Put(b)
}
