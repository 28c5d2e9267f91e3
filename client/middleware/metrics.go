package middleware

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/adamwoolhether/relay/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records Prometheus metrics for every request passing through its
// middleware. It is safe for concurrent use.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
}

// NewMetrics registers the request metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_requests_total",
				Help: "Total number of requests dispatched",
			},
			[]string{"method", "status_code", "code"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_request_duration_seconds",
				Help:    "Duration of requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code"},
		),
		requestsInFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "relay_requests_in_flight",
				Help: "Number of requests currently in flight",
			},
			[]string{"method"},
		),
	}
}

// Middleware meters the rest of the chain.
func (m *Metrics) Middleware() client.Middleware {
	mw := func(handler client.Handler) client.Handler {
		h := func(ctx context.Context, call *client.Call) error {
			method := call.Config.Method

			inFlight := m.requestsInFlight.WithLabelValues(method)
			inFlight.Inc()
			defer inFlight.Dec()

			start := time.Now()
			err := handler(ctx, call)

			status := "none"
			if call.Response != nil {
				status = strconv.Itoa(call.Response.Status)
			}

			var code string
			if err != nil {
				code = "unknown"
				if e, ok := errors.AsType[*client.Error](err); ok {
					code = string(e.Code)
				}
			}

			m.requestsTotal.WithLabelValues(method, status, code).Inc()
			m.requestDuration.WithLabelValues(method, status).Observe(time.Since(start).Seconds())

			return err
		}

		return h
	}

	return mw
}
