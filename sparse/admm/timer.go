package admm

import (
	"sort"
	"sync"
	"time"
)

// Timer accumulates wall-clock time under named labels. A label may be
// started and stopped repeatedly; Elapsed includes the running lap.
type Timer struct {
	mu      sync.Mutex
	total   map[string]time.Duration
	running map[string]time.Time
	now     func() time.Time
}

// NewTimer returns a timer with no labels.
func NewTimer() *Timer {
	return &Timer{
		total:   make(map[string]time.Duration),
		running: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Start begins a lap for label. Starting a running label has no effect.
func (t *Timer) Start(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.running[label]; ok {
		return
	}

	t.running[label] = t.now()
}

// Stop ends the running lap for label and returns its duration. Stopping a
// label that is not running returns zero.
func (t *Timer) Stop(label string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	start, ok := t.running[label]
	if !ok {
		return 0
	}

	lap := t.now().Sub(start)
	delete(t.running, label)
	t.total[label] += lap

	return lap
}

// Elapsed returns the accumulated time for label.
func (t *Timer) Elapsed(label string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	d := t.total[label]
	if start, ok := t.running[label]; ok {
		d += t.now().Sub(start)
	}

	return d
}

// Labels returns every label seen so far, sorted.
func (t *Timer) Labels() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[string]struct{}, len(t.total)+len(t.running))
	for l := range t.total {
		seen[l] = struct{}{}
	}

	for l := range t.running {
		seen[l] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}

	sort.Strings(out)

	return out
}
