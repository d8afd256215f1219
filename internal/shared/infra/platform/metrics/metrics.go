package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// QueryMetrics agrupa los contadores de la capa de acceso a datos.
// Un *QueryMetrics nil es válido y no registra nada.
type QueryMetrics struct {
	registry      *prometheus.Registry
	cacheRequests *prometheus.CounterVec
	coalesced     *prometheus.CounterVec
	networkCalls  *prometheus.CounterVec
	queryErrors   *prometheus.CounterVec
	invalidations prometheus.Counter
}

func NewQueryMetrics() *QueryMetrics {
	registry := prometheus.NewRegistry()

	m := &QueryMetrics{
		registry: registry,
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockratings_cache_requests_total",
			Help: "Cache lookups by query kind and result",
		}, []string{"kind", "result"}),
		coalesced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockratings_coalesced_requests_total",
			Help: "Requests served by joining an in-flight query",
		}, []string{"kind"}),
		networkCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockratings_network_calls_total",
			Help: "GraphQL operations sent to the backend",
		}, []string{"kind"}),
		queryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockratings_query_errors_total",
			Help: "Failed operations by kind and error category",
		}, []string{"kind", "category"}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockratings_cache_invalidations_total",
			Help: "Full cache clears",
		}),
	}

	registry.MustRegister(m.cacheRequests, m.coalesced, m.networkCalls, m.queryErrors, m.invalidations)
	return m
}

func (m *QueryMetrics) CacheHit(kind string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(kind, "hit").Inc()
}

func (m *QueryMetrics) CacheMiss(kind string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(kind, "miss").Inc()
}

func (m *QueryMetrics) Coalesced(kind string) {
	if m == nil {
		return
	}
	m.coalesced.WithLabelValues(kind).Inc()
}

func (m *QueryMetrics) NetworkCall(kind string) {
	if m == nil {
		return
	}
	m.networkCalls.WithLabelValues(kind).Inc()
}

func (m *QueryMetrics) QueryError(kind, category string) {
	if m == nil {
		return
	}
	m.queryErrors.WithLabelValues(kind, category).Inc()
}

func (m *QueryMetrics) Invalidation() {
	if m == nil {
		return
	}
	m.invalidations.Inc()
}

// Registry expone el registro para tests y para el endpoint /metrics.
func (m *QueryMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *QueryMetrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
