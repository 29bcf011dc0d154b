// Package metrics exposes prometheus instrumentation for the billing
// client's request traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RouteMetrics counts dispatched requests and rate-limit retries. It
// implements the route package's Observer interface.
type RouteMetrics struct {
	requests *prometheus.CounterVec
	retries  prometheus.Counter
}

// NewRouteMetrics registers the collectors with the registerer.
func NewRouteMetrics(reg prometheus.Registerer) *RouteMetrics {
	factory := promauto.With(reg)
	return &RouteMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billpay",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Requests dispatched to the payment API, by method and status code.",
		}, []string{"method", "status"}),
		retries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "billpay",
			Subsystem: "api",
			Name:      "rate_limit_retries_total",
			Help:      "Requests re-dispatched after a 429 with a Retry-After header.",
		}),
	}
}

func (m *RouteMetrics) ObserveDispatch(method string, status int) {
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (m *RouteMetrics) ObserveRetry(method string, wait time.Duration) {
	m.retries.Inc()
}
