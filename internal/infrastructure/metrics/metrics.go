// Package metrics exposes Prometheus collectors for the HTTP surface, the
// Shopify adapter and the push and order workflows.
//
// All recording methods are safe on a nil *Metrics so components can run
// without instrumentation in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	shopifyRequests *prometheus.CounterVec
	shopifyDuration *prometheus.HistogramVec
	breakerState    *prometheus.GaugeVec
	pushes          *prometheus.CounterVec
	orderFetches    *prometheus.CounterVec
}

// New registers every collector on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		shopifyRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shopify",
			Name:      "requests_total",
			Help:      "Calls made to the Shopify Admin API, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		shopifyDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "shopify",
			Name:      "request_duration_seconds",
			Help:      "Shopify Admin API latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		breakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "shopify",
			Name:      "circuit_breaker_state",
			Help:      "Per-shop circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}, []string{"shop"}),
		pushes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_pushes_total",
			Help:      "Product push attempts, by resulting status.",
		}, []string{"status"}),
		orderFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_fetches_total",
			Help:      "Order listings served, by the API that produced them.",
		}, []string{"method", "outcome"}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTP(route, method, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, code).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveShopify(operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.shopifyRequests.WithLabelValues(operation, outcome(err)).Inc()
	m.shopifyDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) SetBreakerState(shop string, state float64) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(shop).Set(state)
}

func (m *Metrics) IncPush(status string) {
	if m == nil {
		return
	}
	m.pushes.WithLabelValues(status).Inc()
}

func (m *Metrics) IncOrderFetch(method string, err error) {
	if m == nil {
		return
	}
	m.orderFetches.WithLabelValues(method, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
