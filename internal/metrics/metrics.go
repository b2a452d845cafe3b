package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters, gauges and histograms for the stage
// planner. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	requestsTotal    prometheus.Counter
	errorsTotal      prometheus.Counter
	allocationsTotal *prometheus.CounterVec
	escalationsTotal *prometheus.CounterVec
	failuresTotal    *prometheus.CounterVec
	allocationPasses prometheus.Histogram
	lastStageCount   *prometheus.GaugeVec
}

// New creates and registers the planner metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stageplan_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stageplan_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		allocationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stageplan_allocations_total",
			Help: "Allocation runs that converged, by policy",
		}, []string{"policy"}),
		escalationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stageplan_escalations_total",
			Help: "Stage escalations performed while allocating, by policy",
		}, []string{"policy"}),
		failuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stageplan_allocation_failures_total",
			Help: "Allocation runs stopped by a stage or pass ceiling, by policy",
		}, []string{"policy"}),
		allocationPasses: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stageplan_allocation_passes",
			Help:    "Placement passes needed per converged allocation",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		lastStageCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stageplan_last_stage_count",
			Help: "Stage count of the most recent converged allocation, by policy",
		}, []string{"policy"}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.allocationsTotal,
		m.escalationsTotal,
		m.failuresTotal,
		m.allocationPasses,
		m.lastStageCount,
	)
	return m
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	if m == nil {
		return
	}
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

// ObserveAllocation records a converged run.
func (m *Metrics) ObserveAllocation(policy string, stages, passes, escalations int) {
	if m == nil {
		return
	}
	m.allocationsTotal.WithLabelValues(policy).Inc()
	m.escalationsTotal.WithLabelValues(policy).Add(float64(escalations))
	m.allocationPasses.Observe(float64(passes))
	m.lastStageCount.WithLabelValues(policy).Set(float64(stages))
}

// IncAllocationFailures counts a run that hit a ceiling.
func (m *Metrics) IncAllocationFailures(policy string) {
	if m == nil {
		return
	}
	m.failuresTotal.WithLabelValues(policy).Inc()
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
