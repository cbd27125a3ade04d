// Package metrics provides Prometheus metrics for the InterVueX backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "intervuex"

// Metrics holds the collectors on a private registry. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	evaluations        *prometheus.CounterVec
	testCases          *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	questionFallbacks  prometheus.Counter
	pollerFailures     prometheus.Counter
	confidence         prometheus.Gauge

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates Metrics on a fresh registry that also carries the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	auto := promauto.With(reg)

	return &Metrics{
		registry: reg,
		evaluations: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "evaluations_total",
			Help:      "Code evaluations by language and mode (run or submit)",
		}, []string{"language", "mode"}),
		testCases: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "test_cases_total",
			Help:      "Evaluated test cases by language and verdict",
		}, []string{"language", "verdict"}),
		evaluationDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "evaluation_duration_seconds",
			Help:      "Wall-clock duration of a whole evaluation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"language"}),
		questionFallbacks: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "questions",
			Name:      "fallbacks_total",
			Help:      "Question generations answered from the default bank",
		}),
		pollerFailures: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "poll_failures_total",
			Help:      "Failed confidence poll ticks",
		}),
		confidence: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "confidence",
			Help:      "Last polled candidate confidence value",
		}),
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern, method and status code",
		}, []string{"endpoint", "method", "status_code"}),
		httpRequestDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern and method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "method"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordEvaluation counts one evaluation and its per-case verdicts.
func (m *Metrics) RecordEvaluation(language, mode string, passed, total int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(language, mode).Inc()
	m.testCases.WithLabelValues(language, "passed").Add(float64(passed))
	m.testCases.WithLabelValues(language, "failed").Add(float64(total - passed))
	m.evaluationDuration.WithLabelValues(language).Observe(elapsed.Seconds())
}

// RecordQuestionFallback counts a generation served from the default bank.
func (m *Metrics) RecordQuestionFallback() {
	if m == nil {
		return
	}
	m.questionFallbacks.Inc()
}

// RecordPollFailure counts a failed poll tick.
func (m *Metrics) RecordPollFailure() {
	if m == nil {
		return
	}
	m.pollerFailures.Inc()
}

// SetConfidence records the latest polled confidence value.
func (m *Metrics) SetConfidence(v float64) {
	if m == nil {
		return
	}
	m.confidence.Set(v)
}

// RecordHTTPRequest counts one request and observes its latency.
func (m *Metrics) RecordHTTPRequest(endpoint, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method).Observe(elapsed.Seconds())
}
