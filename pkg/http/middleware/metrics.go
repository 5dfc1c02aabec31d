package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpMetricsOnce  sync.Once
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
)

func initHTTPMetrics() {
	httpMetricsOnce.Do(func() {
		requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "socialpulse_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"})
		requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "socialpulse_http_request_duration_seconds",
			Help:    "HTTP request duration by route and method",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route", "method"})
		requestsInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "socialpulse_http_in_flight_requests",
			Help: "Current in-flight HTTP requests",
		}, []string{"route", "method"})
	})
}

// Metrics records per-route request counts, latency and in-flight
// gauges. Uses the echo route template to keep label cardinality low.
func Metrics() echo.MiddlewareFunc {
	initHTTPMetrics()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}
			method := c.Request().Method

			requestsInFlight.WithLabelValues(route, method).Inc()
			start := time.Now()
			err := next(c)
			requestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			requestsInFlight.WithLabelValues(route, method).Dec()

			requestsTotal.WithLabelValues(route, method, strconv.Itoa(c.Response().Status)).Inc()
			return err
		}
	}
}
