// Package telemetry exposes Prometheus metrics for the scoring pipeline.
// Each Metrics value owns its own registry, so tests and embedded uses do
// not collide on the global default registry.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nao1215/phishscan/internal/model"
)

const namespace = "phishscan"

// Metrics holds all phishscan Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Signal metrics
	SignalOutcomes *prometheus.CounterVec
	SignalDuration *prometheus.HistogramVec

	// Aggregate metrics
	Results    *prometheus.CounterVec
	FinalScore prometheus.Histogram

	// Reputation snapshot metrics
	SnapshotEntries   prometheus.Gauge
	SnapshotRefreshes *prometheus.CounterVec

	// HTTP API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates a Metrics with a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{registry: reg}
	factory := promauto.With(reg)
	initSignalMetrics(factory, m)
	initAggregateMetrics(factory, m)
	initSnapshotMetrics(factory, m)
	initHTTPMetrics(factory, m)
	return m
}

func initSignalMetrics(f promauto.Factory, m *Metrics) {
	m.SignalOutcomes = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signal_outcomes_total",
		Help:      "Signal invocations by signal and outcome status",
	}, []string{"signal", "status"})

	m.SignalDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "signal_duration_seconds",
		Help:      "Time spent in each signal",
		Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	}, []string{"signal"})
}

func initAggregateMetrics(f promauto.Factory, m *Metrics) {
	m.Results = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "results_total",
		Help:      "Scoring requests by terminal state",
	}, []string{"state"})

	m.FinalScore = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "final_score",
		Help:      "Distribution of final scores (0 = dangerous, 100 = safe)",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})
}

func initSnapshotMetrics(f promauto.Factory, m *Metrics) {
	m.SnapshotEntries = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "reputation_snapshot_entries",
		Help:      "Number of entries in the active blacklist snapshot",
	})

	m.SnapshotRefreshes = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reputation_snapshot_refreshes_total",
		Help:      "Blacklist snapshot refresh attempts by result",
	}, []string{"result"})
}

func initHTTPMetrics(f promauto.Factory, m *Metrics) {
	m.HTTPRequests = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP API requests by route and status code",
	}, []string{"route", "code"})

	m.HTTPDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP API request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordSignal records one signal outcome. A nil receiver is a no-op.
func (m *Metrics) RecordSignal(r model.SignalResult) {
	if m == nil {
		return
	}
	m.SignalOutcomes.WithLabelValues(string(r.Signal), r.Status.String()).Inc()
	m.SignalDuration.WithLabelValues(string(r.Signal)).Observe(r.Duration.Seconds())
}

// RecordResult records a completed aggregate result.
func (m *Metrics) RecordResult(res *model.AggregateResult) {
	if m == nil || res == nil {
		return
	}
	m.Results.WithLabelValues(res.State.String()).Inc()
	m.FinalScore.Observe(res.FinalScore)
}

// RecordFailure records a request that ended in the failed state.
func (m *Metrics) RecordFailure() {
	if m == nil {
		return
	}
	m.Results.WithLabelValues(model.StateFailed.String()).Inc()
}

// RecordSnapshotRefresh records a snapshot refresh attempt.
func (m *Metrics) RecordSnapshotRefresh(entries int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SnapshotRefreshes.WithLabelValues("failure").Inc()
		return
	}
	m.SnapshotRefreshes.WithLabelValues("success").Inc()
	m.SnapshotEntries.Set(float64(entries))
}

// RecordHTTPRequest records one API request.
func (m *Metrics) RecordHTTPRequest(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}
