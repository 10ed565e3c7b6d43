package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// MetricsHandler handles the Prometheus metrics endpoint
type MetricsHandler struct {
}

var (
	// HTTP request duration histogram
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sitenotice_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	// Total requests counter
	totalRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitenotice_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	// Render decisions, labeled by outcome
	renderDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitenotice_render_decisions_total",
		Help: "Total notice render decisions, by whether the notice was displayed",
	}, []string{"displayed"})

	// Notice configuration updates
	noticeUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitenotice_config_updates_total",
		Help: "Total notice configuration updates, by result",
	}, []string{"result"})

	// Whether a notice is currently active anywhere
	noticeActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sitenotice_notice_active",
		Help: "1 when a non-empty, unexpired notice is configured, else 0",
	})

	// Failed authentication attempts counter
	authFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitenotice_auth_failures_total",
		Help: "Total number of failed authentication attempts",
	}, []string{"reason"})
)

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// Handler returns the Prometheus metrics handler for Fiber
func (h *MetricsHandler) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		mfs, err := prometheus.DefaultGatherer.Gather()
		if err != nil {
			return c.Status(500).SendString("Failed to gather metrics")
		}

		var sb strings.Builder
		for _, mf := range mfs {
			if _, err := expfmt.MetricFamilyToText(&sb, mf); err != nil {
				return c.Status(500).SendString("Failed to format metrics")
			}
		}

		c.Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		return c.SendString(sb.String())
	}
}

// MetricsMiddleware records HTTP metrics for each request
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		path := c.Route().Path
		if path == "" {
			path = "__unmatched__"
		}

		statusLabel := statusText(status)
		httpDuration.WithLabelValues(c.Method(), path, statusLabel).Observe(time.Since(start).Seconds())
		totalRequests.WithLabelValues(c.Method(), path, statusLabel).Inc()

		return err
	}
}

func statusText(status int) string {
	switch {
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// RecordRenderDecision counts one ShouldDisplay evaluation on the render path.
func RecordRenderDecision(displayed bool) {
	if displayed {
		renderDecisions.WithLabelValues("true").Inc()
	} else {
		renderDecisions.WithLabelValues("false").Inc()
	}
}

// RecordNoticeUpdate counts one admin update attempt by result
// (ok, unauthorized, invalid, error).
func RecordNoticeUpdate(result string) {
	noticeUpdates.WithLabelValues(result).Inc()
}

// SetNoticeActive publishes whether a notice is currently displayable.
func SetNoticeActive(active bool) {
	if active {
		noticeActive.Set(1)
	} else {
		noticeActive.Set(0)
	}
}

// RecordAuthFailure counts one failed authentication attempt.
func RecordAuthFailure(reason string) {
	authFailures.WithLabelValues(reason).Inc()
}
