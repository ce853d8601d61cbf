// Package metrics exposes Prometheus collectors for sessions, route guards
// and backend calls.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/civicspot/internal/guard"
	"github.com/civicspot/internal/session"
)

const namespace = "civicspot"

// Metrics holds the collectors registered on one registry
type Metrics struct {
	registry *prometheus.Registry

	sessionEvents  *prometheus.CounterVec
	guardDecisions *prometheus.CounterVec
	apiRequests    *prometheus.CounterVec
	apiDuration    *prometheus.HistogramVec
	authenticated  prometheus.Gauge
}

// New registers the collectors on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		sessionEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session transitions by event",
		}, []string{"event"}),
		guardDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Route guard decisions by outcome",
		}, []string{"outcome"}),
		apiRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Backend requests by method and status code (0 for transport failures)",
		}, []string{"method", "status"}),
		apiDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Backend request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		authenticated: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_authenticated",
			Help:      "1 while the session holds an identity",
		}),
	}
}

// SessionObserver returns a hook for session.WithObserver
func (m *Metrics) SessionObserver() session.Observer {
	return func(event string, st session.State) {
		m.sessionEvents.WithLabelValues(event).Inc()
		if st.Authenticated() {
			m.authenticated.Set(1)
		} else {
			m.authenticated.Set(0)
		}
	}
}

// GuardObserver returns a hook for guard.WithObserver
func (m *Metrics) GuardObserver() func(guard.Decision) {
	return func(d guard.Decision) {
		m.guardDecisions.WithLabelValues(string(d.Outcome)).Inc()
	}
}

// RequestObserver returns a hook for apiclient.WithObserver
func (m *Metrics) RequestObserver() func(method string, status int, elapsed time.Duration) {
	return func(method string, status int, elapsed time.Duration) {
		m.apiRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
		m.apiDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
