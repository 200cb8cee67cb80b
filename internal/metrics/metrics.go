package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for analysis runs
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics holds the collectors for analysis runs. Each instance owns its
// registry so tests and parallel servers do not collide.
type Metrics struct {
	registry *prometheus.Registry

	analyses      *prometheus.CounterVec
	duration      prometheus.Histogram
	rowsAnalyzed  prometheus.Histogram
	insights      *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	skippedModels *prometheus.CounterVec
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insightdash",
			Name:      "analyses_total",
			Help:      "Analysis runs by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "insightdash",
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of the analysis pipeline.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		rowsAnalyzed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "insightdash",
			Name:      "analysis_rows",
			Help:      "Rows remaining after cleaning.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 7),
		}),
		insights: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insightdash",
			Name:      "insights_total",
			Help:      "Insights produced by generator.",
		}, []string{"generator"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insightdash",
			Name:      "insight_fallbacks_total",
			Help:      "Times the rule-based generator replaced the LLM, by reason.",
		}, []string{"reason"}),
		skippedModels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insightdash",
			Name:      "skipped_analyses_total",
			Help:      "Analyses skipped because their preconditions were not met.",
		}, []string{"analysis"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.analyses, m.duration, m.rowsAnalyzed, m.insights, m.fallbacks, m.skippedModels,
	)
	return m
}

// ObserveAnalysis records one pipeline run
func (m *Metrics) ObserveAnalysis(outcome string, elapsed time.Duration, rows int) {
	m.analyses.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
	if outcome == OutcomeOK {
		m.rowsAnalyzed.Observe(float64(rows))
	}
}

// ObserveSkipped counts an analysis that did not run
func (m *Metrics) ObserveSkipped(analysis string) {
	m.skippedModels.WithLabelValues(analysis).Inc()
}

// ObserveInsights counts insights returned by a generator
func (m *Metrics) ObserveInsights(generator string, n int) {
	m.insights.WithLabelValues(generator).Add(float64(n))
}

// ObserveFallback counts a switch to the rule-based generator
func (m *Metrics) ObserveFallback(reason string) {
	m.fallbacks.WithLabelValues(reason).Inc()
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
