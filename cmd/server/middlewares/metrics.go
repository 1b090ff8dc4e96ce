package middlewares

import (
	"strconv"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsOptions configures AttachMetrics
type MetricsOptions struct {
	// RouteMetrics enables per-route request duration and count collection
	RouteMetrics bool
	// Collectors are registered alongside the HTTP collectors
	Collectors []prometheus.Collector
}

// normalizeRoutePath returns the route template to keep label cardinality
// bounded. Unmatched routes (404s) fall back to the raw path.
func normalizeRoutePath(c *fiber.Ctx) string {
	if route := c.Route(); route != nil {
		return route.Path
	}
	return c.Path()
}

// normalizeStatus buckets 2xx, 4xx and 5xx; other codes are kept verbatim
func normalizeStatus(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return strconv.Itoa(status)
}

// StreamCollectors exposes the post activity hub as gauges and counters.
// stats is typically (*blog.Hub).Stats.
func StreamCollectors(stats func() (int, uint64)) []prometheus.Collector {
	return []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "blog_stream_subscribers",
			Help: "Number of connected post activity stream subscribers",
		}, func() float64 {
			n, _ := stats()
			return float64(n)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "blog_stream_dropped_events_total",
			Help: "Post events dropped because a subscriber outbox was full",
		}, func() float64 {
			_, d := stats()
			return float64(d)
		}),
	}
}

// AttachMetrics gives the supplied Fiber app its own Prometheus registry
// and wires a /metrics endpoint plus, optionally, request-timing middleware.
func AttachMetrics(app *fiber.App, opts MetricsOptions) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(opts.Collectors...)

	if opts.RouteMetrics {
		reqDuration := prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		)
		reqTotal := prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		)
		reg.MustRegister(reqDuration, reqTotal)

		app.Use(func(c *fiber.Ctx) error {
			start := time.Now()
			err := c.Next()
			dur := time.Since(start).Seconds()

			method := c.Method()
			path := normalizeRoutePath(c)
			status := normalizeStatus(c.Response().StatusCode())

			reqDuration.WithLabelValues(method, path, status).Observe(dur)
			reqTotal.WithLabelValues(method, path, status).Inc()
			return err
		})
	}

	app.Get("/metrics", adaptor.HTTPHandler(
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)

	return reg
}
