package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	IntrospectionRequests *prometheus.CounterVec
	IntrospectionDuration *prometheus.HistogramVec
	Authentications       *prometheus.CounterVec
}

// NewMetrics creates the collectors on a dedicated registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		IntrospectionRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keycloak_introspection_requests_total",
				Help: "Total number of token introspection calls by outcome",
			},
			[]string{"outcome"},
		),
		IntrospectionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keycloak_introspection_duration_seconds",
				Help:    "Token introspection round trip duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		Authentications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_authentications_total",
				Help: "Total number of bearer authentications by result",
			},
			[]string{"result"},
		),
	}
}

// ObserveIntrospection records one introspection call
func (m *Metrics) ObserveIntrospection(outcome string, duration time.Duration) {
	m.IntrospectionRequests.WithLabelValues(outcome).Inc()
	m.IntrospectionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveAuthentication records the result of one authenticated request
func (m *Metrics) ObserveAuthentication(result string) {
	m.Authentications.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
