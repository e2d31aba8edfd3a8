// Package metrics exposes Prometheus collectors for the API.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	PolicyDecisions    *prometheus.CounterVec
	CodeAllocations    *prometheus.CounterVec
	ProgressRecomputes *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	ChatRateLimited    prometheus.Counter
}

// New registers every collector on a private registry so tests can build as
// many instances as they need.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		PolicyDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intranet_policy_decisions_total",
			Help: "Authorization decisions by resource kind, capability and outcome",
		}, []string{"kind", "capability", "outcome"}),
		CodeAllocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intranet_code_allocations_total",
			Help: "Project code allocations by result",
		}, []string{"result"}),
		ProgressRecomputes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intranet_progress_recomputes_total",
			Help: "Project progress recomputations by trigger",
		}, []string{"trigger"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intranet_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "intranet_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ChatRateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "intranet_chat_rate_limited_total",
			Help: "Chat messages rejected by the per-actor rate limit",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDecision matches policy.Observer. Lookup failures are counted
// separately from denials.
func (m *Metrics) ObserveDecision(kind, capability string, allowed bool, err error) {
	outcome := "deny"
	switch {
	case err != nil:
		outcome = "error"
	case allowed:
		outcome = "allow"
	}
	m.PolicyDecisions.WithLabelValues(kind, capability, outcome).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}
