package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"coi-gateway/internal/config"
	"coi-gateway/internal/metrics"
)

func newTestRouter(t *testing.T, cfg *config.Config) *echo.Echo {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gwSvc := newTestGatewayService(t, cfg.Gateway)

	gateway := NewGatewayHandler(gwSvc, logger)
	submission := newTestSubmissionHandler(newTestStore(t))
	health := NewHealthHandler(gwSvc, "test")

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(logger)
	RegisterRoutes(e, gateway, submission, health, metrics.New(), cfg)
	return e
}

func TestRegisterRoutes_Wiring(t *testing.T) {
	cfg := &config.Config{
		Gateway: config.GatewayConfig{AllowedOrigin: "https://example.org", Token: "test-token"},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	e := newTestRouter(t, cfg)

	tests := []struct {
		name       string
		method     string
		path       string
		origin     string
		body       string
		wantStatus int
	}{
		{"GET /healthz", http.MethodGet, "/healthz", "", "", http.StatusOK},
		{"GET /gateway/status", http.MethodGet, "/gateway/status", "", "", http.StatusOK},
		{"OPTIONS /", http.MethodOptions, "/", "", "", http.StatusNoContent},
		{"GET / allowed", http.MethodGet, "/", "https://example.org", "", http.StatusFound},
		{"GET / forbidden", http.MethodGet, "/", "https://evil.example.org", "", http.StatusForbidden},
		{"POST /", http.MethodPost, "/", "https://example.org", "", http.StatusMethodNotAllowed},
		{"HEAD /", http.MethodHead, "/", "https://example.org", "", http.StatusMethodNotAllowed},
		{"custom verb /", "XYZZY", "/", "https://example.org", "", http.StatusMethodNotAllowed},
		{"POST /submit-calculation", http.MethodPost, "/submit-calculation", "", `{"state":"TX"}`, http.StatusOK},
		{"POST /submit-calculation bad json", http.MethodPost, "/submit-calculation", "", `nope`, http.StatusBadRequest},
		{"GET /submit-calculation", http.MethodGet, "/submit-calculation", "", "", http.StatusMethodNotAllowed},
		{"GET /metrics", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"GET /unknown returns 404", http.MethodGet, "/unknown", "", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRegisterRoutes_MetricsDisabled(t *testing.T) {
	cfg := &config.Config{Metrics: config.MetricsConfig{Enabled: false, Path: "/metrics"}}
	e := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRegisterRoutes_GatewayErrorShape(t *testing.T) {
	e := newTestRouter(t, &config.Config{})

	for _, method := range []string{http.MethodPost, http.MethodPut, "XYZZY"} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/", http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
			}
			if got := decodeError(t, rec); got != "Method not allowed" {
				t.Errorf("error = %q, want %q", got, "Method not allowed")
			}
		})
	}
}
