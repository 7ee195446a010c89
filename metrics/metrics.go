// Package metrics exports Prometheus metrics for JSON-RPC dispatch and the
// HTTP endpoint serving it.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mnehpets/rpcschema/endpoint"
	"github.com/mnehpets/rpcschema/jsonrpc"
)

var LatencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// RPCMetrics records dispatched calls. It implements jsonrpc.Observer.
type RPCMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRPCMetrics creates JSON-RPC metrics
func NewRPCMetrics() *RPCMetrics {
	return &RPCMetrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpcschema_requests_total",
				Help: "Total number of dispatched JSON-RPC requests and notifications",
			},
			[]string{"method", "code", "kind"}, // kind: request, notification
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rpcschema_request_duration_seconds",
				Help:    "JSON-RPC dispatch duration in seconds, validation included",
				Buckets: LatencyBuckets,
			},
			[]string{"method"},
		),
	}
}

// Register registers the metrics with the given registry
func (m *RPCMetrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(m.RequestsTotal, m.RequestDuration)
}

// Observe implements jsonrpc.Observer. Methods that were not found are
// recorded as "unknown" to keep label cardinality bounded by the registry.
func (m *RPCMetrics) Observe(method string, code int, notification bool, elapsed time.Duration) {
	if code == jsonrpc.CodeMethodNotFound {
		method = "unknown"
	}
	kind := "request"
	if notification {
		kind = "notification"
	}
	m.RequestsTotal.WithLabelValues(method, strconv.Itoa(code), kind).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// HTTPMetrics records requests reaching the HTTP endpoint.
type HTTPMetrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsInFlight prometheus.Gauge
}

// NewHTTPMetrics creates HTTP metrics
func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpcschema_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"status_class"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rpcschema_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
	}
}

// Register registers the metrics with the given registry
func (h *HTTPMetrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(h.RequestsTotal, h.RequestsInFlight)
}

// Processor returns an endpoint.Processor counting requests by status class.
func (h *HTTPMetrics) Processor() endpoint.Processor {
	return endpoint.ProcessorFunc(func(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) error {
		h.RequestsInFlight.Inc()
		defer h.RequestsInFlight.Dec()

		sw := &endpoint.StatusWriter{ResponseWriter: w}
		err := next(sw, r)
		h.RequestsTotal.WithLabelValues(StatusClass(sw.StatusFor(err))).Inc()
		return err
	})
}

// StatusClass converts an HTTP status code to its class (2xx, 3xx, 4xx, 5xx)
func StatusClass(statusCode int) string {
	switch {
	case statusCode == 0:
		return "2xx"
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	default:
		return "other"
	}
}

// Handler serves the metrics gathered by reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		Registry:          reg,
		EnableOpenMetrics: true,
	})
}
