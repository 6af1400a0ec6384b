// Package metrics publishes Prometheus metrics for API traffic and the query cache.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "medbook"

// Recorder implements api.Recorder and query.Recorder on a dedicated registry.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	gatherer prometheus.Gatherer
	handler  http.Handler

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec

	lookups       *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec
	invalidations *prometheus.CounterVec
	invalidated   *prometheus.CounterVec
}

// NewRecorder constructs a Recorder. When reg is nil a dedicated registry is created.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	reg.MustRegister(collectors.NewGoCollector())

	apiRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Requests sent to the booking API.",
	}, []string{"route", "method", "status_code"})

	apiLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for booking API requests.",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route", "method"})

	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "query",
		Name:      "lookups_total",
		Help:      "Query cache lookups by outcome.",
	}, []string{"tag", "result"})

	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "query",
		Name:      "fetches_total",
		Help:      "Query fetches that reached the fetcher.",
	}, []string{"tag", "outcome"})

	fetchLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "query",
		Name:      "fetch_duration_seconds",
		Help:      "Latency distribution for query fetches.",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"tag"})

	invalidations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "query",
		Name:      "invalidations_total",
		Help:      "Invalidation calls by key prefix tag.",
	}, []string{"tag"})

	invalidated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "query",
		Name:      "invalidated_entries_total",
		Help:      "Cache entries marked stale by invalidation.",
	}, []string{"tag"})

	reg.MustRegister(apiRequests, apiLatency, lookups, fetches, fetchLatency, invalidations, invalidated)

	return &Recorder{
		gatherer:      reg,
		handler:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		apiRequests:   apiRequests,
		apiLatency:    apiLatency,
		lookups:       lookups,
		fetches:       fetches,
		fetchLatency:  fetchLatency,
		invalidations: invalidations,
		invalidated:   invalidated,
	}
}

// Handler exposes the Prometheus HTTP handler for the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics unavailable", http.StatusServiceUnavailable)
		})
	}
	return r.handler
}

// Gatherer returns the underlying Prometheus gatherer
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.gatherer
}

// ObserveRequest records one API exchange. Status 0 means the request never got a response.
func (r *Recorder) ObserveRequest(route, method string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	routeLabel := normalizeLabel(route)
	methodLabel := normalizeLabel(method)
	statusLabel := strconv.Itoa(status)
	if status <= 0 {
		statusLabel = "network_error"
	}
	r.apiRequests.WithLabelValues(routeLabel, methodLabel, statusLabel).Inc()
	r.apiLatency.WithLabelValues(routeLabel, methodLabel).Observe(duration.Seconds())
}

// ObserveLookup records a cache read
func (r *Recorder) ObserveLookup(tag, outcome string) {
	if r == nil {
		return
	}
	r.lookups.WithLabelValues(normalizeLabel(tag), normalizeLabel(outcome)).Inc()
}

// ObserveFetch records a completed fetch
func (r *Recorder) ObserveFetch(tag, outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	tagLabel := normalizeLabel(tag)
	r.fetches.WithLabelValues(tagLabel, normalizeLabel(outcome)).Inc()
	r.fetchLatency.WithLabelValues(tagLabel).Observe(duration.Seconds())
}

// ObserveInvalidation records one invalidated prefix and how many entries it matched
func (r *Recorder) ObserveInvalidation(tag string, matched int) {
	if r == nil {
		return
	}
	tagLabel := normalizeLabel(tag)
	r.invalidations.WithLabelValues(tagLabel).Inc()
	if matched > 0 {
		r.invalidated.WithLabelValues(tagLabel).Add(float64(matched))
	}
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
