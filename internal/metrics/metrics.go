// Package metrics exports panel activity as Prometheus metrics, fed from the
// orchestrator's progress events.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

const namespace = "finpanel"

// Metrics holds the panel collectors and the registry they belong to.
type Metrics struct {
	registry *prometheus.Registry

	workerOutcomes  *prometheus.CounterVec
	workerDuration  *prometheus.HistogramVec
	subjectOutcomes *prometheus.CounterVec
	inFlight        prometheus.Gauge

	mu      sync.Mutex
	started map[string]int
}

// New creates the collectors on a fresh registry. The Go runtime and process
// collectors are registered alongside.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		started:  make(map[string]int),
		workerOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_outcomes_total",
			Help:      "Finished worker invocations by stage, worker and status.",
		}, []string{"stage", "worker", "status"}),
		workerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "worker_duration_seconds",
			Help:      "Wall-clock duration of worker invocations.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"stage", "worker"}),
		subjectOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subject_outcomes_total",
			Help:      "Finished subjects by status.",
		}, []string{"status"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subjects_in_flight",
			Help:      "Subjects currently being consulted on.",
		}),
	}
	m.registry.MustRegister(
		m.workerOutcomes,
		m.workerDuration,
		m.subjectOutcomes,
		m.inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe records a progress event. It is safe for concurrent use and is
// meant to be passed to orchestrator.Fanout.
func (m *Metrics) Observe(ev orchestrator.ProgressEvent) {
	if ev.Worker == "" {
		m.observePhase(ev)
		return
	}
	switch ev.Status {
	case orchestrator.ProgressComplete, orchestrator.ProgressFailed:
		stage := string(ev.Stage)
		m.workerOutcomes.WithLabelValues(stage, string(ev.Worker), string(ev.Status)).Inc()
		m.workerDuration.WithLabelValues(stage, string(ev.Worker)).Observe(ev.Elapsed.Seconds())
	}
}

// observePhase tracks subjects in flight. Subjects skipped before fetching
// reach Done without ever being counted as started.
func (m *Metrics) observePhase(ev orchestrator.ProgressEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch ev.Phase {
	case orchestrator.PhaseFetching:
		m.started[ev.Subject]++
		m.inFlight.Inc()
	case orchestrator.PhaseDone:
		if m.started[ev.Subject] > 0 {
			m.started[ev.Subject]--
			if m.started[ev.Subject] == 0 {
				delete(m.started, ev.Subject)
			}
			m.inFlight.Dec()
		}
		m.subjectOutcomes.WithLabelValues(string(ev.Status)).Inc()
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
