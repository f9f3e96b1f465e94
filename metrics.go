package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "pkpass"

type Metrics struct {
	registry      *prometheus.Registry
	passLoads     *prometheus.CounterVec
	imageRequests *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
}

// NewMetrics registers the service metrics on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		passLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pass_loads_total",
			Help:      "Uploaded passes by load result.",
		}, []string{"result"}),
		imageRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "image_requests_total",
			Help:      "Image requests by result.",
		}, []string{"result"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "document_cache_lookups_total",
			Help:      "Parsed document cache lookups by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
