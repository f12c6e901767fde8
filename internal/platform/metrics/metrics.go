package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the hub's outbound calls: the Identity, Subscription and
// Jembi clients, and the catalog cache in front of the Subscription Service.
type Metrics struct {
	RemoteRequests *prometheus.CounterVec
	RemoteLatency  *prometheus.HistogramVec
	CatalogCache   *prometheus.CounterVec
}

// New creates and registers the client metrics.
func New() *Metrics {
	return &Metrics{
		RemoteRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_remote_requests_total",
			Help: "Outbound requests by service and result category",
		}, []string{"service", "category"}),
		RemoteLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hub_remote_request_duration_seconds",
			Help:    "Duration of outbound requests by service",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"service"}),
		CatalogCache: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_catalog_cache_lookups_total",
			Help: "Catalog cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
	}
}

// ObserveRemote records one outbound request. category is "ok" on success.
func (m *Metrics) ObserveRemote(service, category string, d time.Duration) {
	if m != nil {
		m.RemoteRequests.WithLabelValues(service, category).Inc()
		m.RemoteLatency.WithLabelValues(service).Observe(d.Seconds())
	}
}

// IncrementCatalogCache records a cache lookup result.
func (m *Metrics) IncrementCatalogCache(result string) {
	if m != nil {
		m.CatalogCache.WithLabelValues(result).Inc()
	}
}
