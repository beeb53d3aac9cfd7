// Public domain.

// Package iodmetrics records batch outcomes as Prometheus metrics and sets up
// OpenTelemetry tracing for the angiod command.
package iodmetrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/soniakeys/angiod/internal/iodrun"
)

// Collector bundles the batch metrics.  It implements iodrun.Recorder.
type Collector struct {
	gatherer prometheus.Gatherer

	Cases      *prometheus.CounterVec   // outcome
	Methods    *prometheus.CounterVec   // method, outcome
	Flags      *prometheus.CounterVec   // flag
	Iterations *prometheus.HistogramVec // method
	Clamped    prometheus.Counter
}

// NewCollector registers the batch metrics with reg, the global registry
// when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	cases, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "angiod_cases_total",
		Help: "Cases processed, labeled by outcome (solved or skipped).",
	}, []string{"outcome"}), "angiod_cases_total")
	if err != nil {
		return nil, err
	}
	methods, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "angiod_method_results_total",
		Help: "IOD method invocations, labeled by method and outcome.",
	}, []string{"method", "outcome"}), "angiod_method_results_total")
	if err != nil {
		return nil, err
	}
	flags, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "angiod_consistency_flags_total",
		Help: "Consistency flags raised, labeled by flag.",
	}, []string{"flag"}), "angiod_consistency_flags_total")
	if err != nil {
		return nil, err
	}
	iters, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "angiod_method_iterations",
		Help:    "Iterations used by converged methods.",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
	}, []string{"method"}), "angiod_method_iterations")
	if err != nil {
		return nil, err
	}
	clamped, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "angiod_range_clamped_total",
		Help: "Range guesses replaced by the default range.",
	}), "angiod_range_clamped_total")
	if err != nil {
		return nil, err
	}
	return &Collector{
		gatherer:   gatherer,
		Cases:      cases,
		Methods:    methods,
		Flags:      flags,
		Iterations: iters,
		Clamped:    clamped,
	}, nil
}

// Record counts the outcome of one case.
func (c *Collector) Record(rep *iodrun.CaseReport) {
	if rep.Skipped() {
		c.Cases.WithLabelValues("skipped").Inc()
		return
	}
	c.Cases.WithLabelValues("solved").Inc()
	if rep.Range.Clamped {
		c.Clamped.Inc()
	}
	for i := range rep.Results {
		r := &rep.Results[i]
		m := r.Method.String()
		if r.Status.Converged {
			c.Methods.WithLabelValues(m, "converged").Inc()
			c.Iterations.WithLabelValues(m).Observe(float64(r.Status.Iterations))
			continue
		}
		c.Methods.WithLabelValues(m, "failed").Inc()
	}
	if rep.Consistency.PropagationMismatch {
		c.Flags.WithLabelValues("propagation_mismatch").Inc()
	}
	if rep.Consistency.MethodDisagreement {
		c.Flags.WithLabelValues("method_disagreement").Inc()
	}
}

// WriteTextfile writes the current metrics in the text exposition format,
// for pickup by a node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}
