// Package metrics defines the Prometheus collectors for cache lookups,
// generations and HTTP requests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup results.
const (
	ResultHit    = "hit"
	ResultMiss   = "miss"
	ResultBypass = "bypass"
)

// Generation outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeInvalid  = "invalid"
	OutcomeDisabled = "disabled"
)

// Metrics holds the collectors registered on one registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	cacheLookups       *prometheus.CounterVec
	generations        *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	httpRequests       *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. A nil reg gets a
// fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cadetprep_cache_lookups_total",
				Help: "Response cache lookups by topic and result.",
			},
			[]string{"topic", "result"},
		),
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cadetprep_generations_total",
				Help: "Content generations by topic and outcome.",
			},
			[]string{"topic", "outcome"},
		),
		generationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cadetprep_generation_duration_seconds",
				Help:    "Time spent producing content for a topic, cache hits included.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"topic"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cadetprep_http_requests_total",
				Help: "HTTP requests by route template and status code.",
			},
			[]string{"route", "code"},
		),
	}
	reg.MustRegister(m.cacheLookups, m.generations, m.generationDuration, m.httpRequests)
	return m
}

// CacheLookup counts one lookup.
func (m *Metrics) CacheLookup(topic, result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(topic, result).Inc()
}

// Generation counts one generation and observes its duration.
func (m *Metrics) Generation(topic, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(topic, outcome).Inc()
	m.generationDuration.WithLabelValues(topic).Observe(d.Seconds())
}

// HTTPRequest counts one served request.
func (m *Metrics) HTTPRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
