// Package telemetry provides observability with Prometheus metrics and structured logging.
package telemetry

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the processor host.
type Metrics struct {
	// Execution metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Outcome metrics
	Rejections    *prometheus.CounterVec
	Modifications *prometheus.CounterVec
	Annotations   *prometheus.CounterVec

	// HTTP server metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prochost_requests_total",
				Help: "Total number of processor executions",
			},
			[]string{"processor", "direction", "status"},
		),

		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prochost_request_duration_seconds",
				Help:    "Processor execution duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"processor", "direction"},
		),

		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "prochost_requests_in_flight",
				Help: "Number of executions currently being processed",
			},
		),

		Rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prochost_rejections_total",
				Help: "Total requests a processor rejected",
			},
			[]string{"processor"},
		),

		Modifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prochost_modifications_total",
				Help: "Total results carrying a content modification",
			},
			[]string{"processor"},
		),

		Annotations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prochost_annotations_total",
				Help: "Total results carrying tags or a processor result document",
			},
			[]string{"processor"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prochost_http_requests_total",
				Help: "Total HTTP requests served",
			},
			[]string{"method", "path", "status"},
		),

		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prochost_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
	}
}

// ObserveRequest records one processor execution.
func (m *Metrics) ObserveRequest(processorID, direction string, status int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(processorID, direction, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(processorID, direction).Observe(duration.Seconds())
}

// ObserveOutcome records the shape of a processor's outcome.
func (m *Metrics) ObserveOutcome(processorID string, rejected, modified, annotated bool) {
	if rejected {
		m.Rejections.WithLabelValues(processorID).Inc()
	}
	if modified {
		m.Modifications.WithLabelValues(processorID).Inc()
	}
	if annotated {
		m.Annotations.WithLabelValues(processorID).Inc()
	}
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler returns an HTTP handler for Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// NewLogger builds the process-wide slog logger. Format is "json" or
// "text"; level is one of debug, info, warn, error.
func NewLogger(format, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if strings.ToLower(format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
