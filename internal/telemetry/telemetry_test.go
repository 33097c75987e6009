package telemetry

import (
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRequest(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.ObserveRequest("ns:proc", "input", 200, 50*time.Millisecond)
	m.ObserveRequest("ns:proc", "input", 200, 10*time.Millisecond)
	m.ObserveRequest("ns:proc", "response", 400, time.Millisecond)

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("ns:proc", "input", "200")); got != 2 {
		t.Errorf("requests_total{input,200} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("ns:proc", "response", "400")); got != 1 {
		t.Errorf("requests_total{response,400} = %v, want 1", got)
	}
}

func TestObserveOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.ObserveOutcome("ns:proc", true, false, false)
	m.ObserveOutcome("ns:proc", false, true, true)
	m.ObserveOutcome("ns:proc", false, false, false)

	if got := testutil.ToFloat64(m.Rejections.WithLabelValues("ns:proc")); got != 1 {
		t.Errorf("rejections_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Modifications.WithLabelValues("ns:proc")); got != 1 {
		t.Errorf("modifications_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Annotations.WithLabelValues("ns:proc")); got != 1 {
		t.Errorf("annotations_total = %v, want 1", got)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.RecordHTTPRequest("GET", "/api/v1/info", 200, time.Millisecond)

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/v1/info", "200")); got != 1 {
		t.Errorf("http_requests_total = %v, want 1", got)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		level   string
		enabled slog.Level
		muted   slog.Level
	}{
		{name: "json info", format: "json", level: "info", enabled: slog.LevelInfo, muted: slog.LevelDebug},
		{name: "text debug", format: "text", level: "debug", enabled: slog.LevelDebug, muted: slog.LevelDebug},
		{name: "error only", format: "json", level: "error", enabled: slog.LevelError, muted: slog.LevelWarn},
		{name: "unknown level defaults to info", format: "json", level: "bogus", enabled: slog.LevelInfo, muted: slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.format, tt.level)
			if !logger.Enabled(nil, tt.enabled) {
				t.Errorf("level %v should be enabled", tt.enabled)
			}
			if tt.muted != tt.enabled && logger.Enabled(nil, tt.muted) {
				t.Errorf("level %v should be muted", tt.muted)
			}
		})
	}
}
