// Package metrics provides Prometheus metrics for the gateway.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Default histogram buckets for request and query latency.
var defaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

// Gateway decision outcomes, used as the "outcome" label.
const (
	OutcomePreflight        = "preflight"
	OutcomeRedirect         = "redirect"
	OutcomeMethodNotAllowed = "method_not_allowed"
	OutcomeOriginForbidden  = "origin_forbidden"
	OutcomeTokenMissing     = "token_missing"
)

// Metrics holds all Prometheus metric collectors for the gateway.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	GatewayDecisions *prometheus.CounterVec

	StoreDuration *prometheus.HistogramVec
	StoreErrors   *prometheus.CounterVec
}

// New creates a Metrics instance with a custom registry and all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coi_gateway_http_requests_total",
			Help: "Total inbound HTTP requests.",
		}, []string{"method", "status_code", "path_prefix"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coi_gateway_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method", "status_code", "path_prefix"}),

		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coi_gateway_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		}),

		GatewayDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coi_gateway_decisions_total",
			Help: "Gateway request outcomes by decision.",
		}, []string{"outcome"}),

		StoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coi_gateway_store_query_duration_seconds",
			Help:    "Submission store query latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"operation"}),

		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coi_gateway_store_errors_total",
			Help: "Submission store failures by operation.",
		}, []string{"operation"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.GatewayDecisions,
		m.StoreDuration,
		m.StoreErrors,
	)

	return m
}

// knownMethods lists the allowed HTTP method label values (bounded cardinality).
var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// NormalizeMethod returns a bounded HTTP method label for Prometheus metrics.
// Non-standard methods are mapped to "other" to prevent cardinality explosion.
func NormalizeMethod(method string) string {
	if knownMethods[method] {
		return method
	}
	return "other"
}

// knownPrefixes lists the allowed path label values (bounded cardinality).
var knownPrefixes = []string{"/submit-calculation", "/healthz", "/gateway/status", "/metrics"}

// NormalizePath returns a bounded path label for Prometheus metrics.
// The gateway root only matches exactly.
func NormalizePath(path string) string {
	if path == "/" || path == "" {
		return "/"
	}
	for _, prefix := range knownPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") || strings.HasPrefix(path, prefix+"?") {
			return prefix
		}
	}
	return "other"
}
