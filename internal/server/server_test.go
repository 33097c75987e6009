package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"prochost/internal/config"
	"prochost/internal/telemetry"
	"prochost/pkg/content"
	"prochost/pkg/params"
	"prochost/pkg/processor"
	"prochost/pkg/result"
	"prochost/pkg/signature"
)

func newTestServer(t *testing.T, metrics *telemetry.Metrics) *Server {
	t.Helper()
	p, err := processor.New(processor.Config{
		Name:      "echo",
		Version:   "1.0",
		Namespace: "testing",
		Signature: signature.InputOnly,
		Input: func(context.Context, *processor.Prompt, content.Metadata, params.Parameters, *http.Request) (result.Outcome, error) {
			return &result.Result{}, nil
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("building processor: %v", err)
	}

	cfg := config.Default()
	routes := processor.NewRoutes(cfg.Server.RootPath, p)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, routes, metrics, logger)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)
	handler := srv.Handler()

	for path, wantStatus := range map[string]string{
		"/healthz": "ok",
		"/readyz":  "ready",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
		var body map[string]string
		json.Unmarshal(rec.Body.Bytes(), &body)
		if body["status"] != wantStatus {
			t.Errorf("%s body = %v", path, body)
		}
	}
}

func TestRequestIDAssigned(t *testing.T) {
	srv := newTestServer(t, nil)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("no request id assigned")
	}
}

func TestRequestIDPreserved(t *testing.T) {
	srv := newTestServer(t, nil)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "client-id-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "client-id-1" {
		t.Errorf("X-Request-ID = %q, want client-id-1", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		metrics := telemetry.NewMetrics(prometheus.NewRegistry())
		srv := newTestServer(t, metrics)
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		srv := newTestServer(t, nil)
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestProcessorMounted(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/signature/testing/echo", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
}

func TestBodyLimit(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.config.Server.MaxRequestSize = 16

	body := strings.NewReader(strings.Repeat("x", 1024))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/signature/testing/echo", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code == http.StatusOK {
		t.Error("oversized body accepted")
	}
}
