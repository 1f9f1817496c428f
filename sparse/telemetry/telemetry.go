// Package telemetry exports solver progress as Prometheus metrics.
//
// A [Collector] implements admm.Observer, so it can be passed to
// cbpdn.WithObserver or admm.WithObserver. One collector may observe any
// number of sequential or concurrent solves; the gauges then show the most
// recent iteration of any of them.
package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cwbudde/algo-sparse/sparse/admm"
)

// Errors returned by collector construction.
var (
	ErrInvalidConfig      = errors.New("telemetry: invalid configuration")
	ErrRegistrationFailed = errors.New("telemetry: metric registration failed")
)

const subsystem = "admm"

// Collector records engine events.
type Collector struct {
	iterations prometheus.Counter
	primal     prometheus.Gauge
	dual       prometheus.Gauge
	rho        prometheus.Gauge
	objective  prometheus.Gauge
	finished   *prometheus.CounterVec
	duration   prometheus.Histogram
	perSolve   prometheus.Histogram
}

// NewCollector creates the metrics under namespace and registers them with
// reg. A nil reg selects prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer, namespace string) (*Collector, error) {
	if namespace == "" {
		return nil, fmt.Errorf("%w: empty namespace", ErrInvalidConfig)
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "iterations_total",
			Help:      "Total number of completed ADMM iterations.",
		}),
		primal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "primal_residual",
			Help:      "Primal residual of the most recent iteration.",
		}),
		dual: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dual_residual",
			Help:      "Dual residual of the most recent iteration.",
		}),
		rho: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rho",
			Help:      "Penalty parameter of the most recent iteration.",
		}),
		objective: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "objective",
			Help:      "Objective value of the most recent iteration.",
		}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "solves_total",
			Help:      "Finished solves by terminal state.",
		}, []string{"state"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "solve_duration_seconds",
			Help:      "Wall-clock duration of finished solves.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		perSolve: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "solve_iterations",
			Help:      "Iterations per finished solve.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}

	for _, m := range []prometheus.Collector{
		c.iterations, c.primal, c.dual, c.rho, c.objective, c.finished, c.duration, c.perSolve,
	} {
		if err := reg.Register(m); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
		}
	}

	return c, nil
}

// Iteration implements admm.Observer.
func (c *Collector) Iteration(rec admm.IterationStats) {
	c.iterations.Inc()
	c.primal.Set(rec.PrimalRsdl)
	c.dual.Set(rec.DualRsdl)
	c.rho.Set(rec.Rho)
	c.objective.Set(rec.ObjFun)
}

// Finished implements admm.Observer.
func (c *Collector) Finished(state admm.State, iterations int, elapsed time.Duration) {
	c.finished.WithLabelValues(state.String()).Inc()
	c.duration.Observe(elapsed.Seconds())
	c.perSolve.Observe(float64(iterations))
}

var _ admm.Observer = (*Collector)(nil)
