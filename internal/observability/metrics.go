package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by API and worker flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	emailsSubmittedTotal prometheus.Counter
	emailsFailedTotal    *prometheus.CounterVec
	providerBatchesTotal *prometheus.CounterVec
	emailSendDuration    prometheus.Histogram
	dispatchInflight     prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bulkmail",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "bulkmail",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		emailsSubmittedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "bulkmail",
				Name:      "emails_submitted_total",
				Help:      "Total number of dispatches that reached submitted state.",
			},
		),
		emailsFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bulkmail",
				Name:      "emails_failed_total",
				Help:      "Total number of dispatches that ended in failed state.",
			},
			[]string{"reason"},
		),
		providerBatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bulkmail",
				Name:      "provider_batches_total",
				Help:      "Total number of transport batches grouped by result.",
			},
			[]string{"result"},
		),
		emailSendDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "bulkmail",
				Name:      "email_send_duration_seconds",
				Help:      "End-to-end provider send duration per dispatch in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
			},
		),
		dispatchInflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "bulkmail",
				Name:      "dispatch_inflight",
				Help:      "Current number of in-flight dispatch runs.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.emailsSubmittedTotal,
		m.emailsFailedTotal,
		m.providerBatchesTotal,
		m.emailSendDuration,
		m.dispatchInflight,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncEmailSubmitted() {
	if m == nil {
		return
	}
	m.emailsSubmittedTotal.Inc()
}

func (m *Metrics) IncEmailFailed(reason string) {
	if m == nil {
		return
	}
	reasonLabel := strings.TrimSpace(strings.ToLower(reason))
	if reasonLabel == "" {
		reasonLabel = "unknown"
	}
	m.emailsFailedTotal.WithLabelValues(reasonLabel).Inc()
}

func (m *Metrics) AddProviderBatches(result string, count int) {
	if m == nil || count <= 0 {
		return
	}
	resultLabel := strings.TrimSpace(strings.ToLower(result))
	if resultLabel == "" {
		resultLabel = "unknown"
	}
	m.providerBatchesTotal.WithLabelValues(resultLabel).Add(float64(count))
}

func (m *Metrics) ObserveSendDuration(duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.emailSendDuration.Observe(seconds)
}

func (m *Metrics) IncDispatchInFlight() {
	if m == nil {
		return
	}
	m.dispatchInflight.Inc()
}

func (m *Metrics) DecDispatchInFlight() {
	if m == nil {
		return
	}
	m.dispatchInflight.Dec()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}
