package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	PaymentsInitiated prometheus.Counter
	PaymentsResolved  *prometheus.CounterVec
	CallbackErrors    prometheus.Counter
	GatewayRequests   *prometheus.CounterVec
	AggregationTime   prometheus.Histogram
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		PaymentsInitiated: factory.NewCounter(prometheus.CounterOpts{
			Name: "powerpay_payments_initiated_total",
			Help: "STK push prompts accepted by the gateway.",
		}),
		PaymentsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "powerpay_payments_resolved_total",
			Help: "Webhook resolutions by terminal status.",
		}, []string{"status"}),
		CallbackErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "powerpay_payment_callback_errors_total",
			Help: "Webhook callbacks that were malformed or conflicting.",
		}),
		GatewayRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "powerpay_gateway_requests_total",
			Help: "Outbound requests to the AppliaPay backend by endpoint.",
		}, []string{"endpoint"}),
		AggregationTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "powerpay_aggregation_duration_seconds",
			Help:    "Wall time of a full episode aggregation pass.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler exposes the registry for GET /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
