// Package metrics exposes Prometheus counters for the stats pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline metrics. A nil *Metrics is valid and records
// nothing, so callers never need to guard.
type Metrics struct {
	registry *prometheus.Registry

	Results       *prometheus.CounterVec
	StrategyWins  *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
}

// New creates Metrics backed by their own registry, so several instances
// can coexist (tests, multiple servers in one process).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Results: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vidstats_results_total",
			Help: "Stats lookups by outcome (ok or an error code)",
		}, []string{"outcome"}),
		StrategyWins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vidstats_strategy_wins_total",
			Help: "Successful extractions by winning strategy",
		}, []string{"strategy"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vidstats_fetch_duration_seconds",
			Help:    "Time spent fetching the video page",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30, 60},
		}, []string{"engine"}),
	}
}

// RecordResult counts one finished lookup.
func (m *Metrics) RecordResult(outcome string) {
	if m == nil {
		return
	}
	m.Results.WithLabelValues(outcome).Inc()
}

// RecordStrategy counts a win for the named strategy.
func (m *Metrics) RecordStrategy(strategy string) {
	if m == nil {
		return
	}
	m.StrategyWins.WithLabelValues(strategy).Inc()
}

// ObserveFetch records how long a fetch took.
func (m *Metrics) ObserveFetch(engine string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(engine).Observe(d.Seconds())
}

// Handler returns the Prometheus HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
