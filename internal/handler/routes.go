package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"coi-gateway/internal/config"
	"coi-gateway/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
// The gateway and submission routes accept every method so that their own
// method gates produce the JSON 405 bodies.
func RegisterRoutes(e *echo.Echo, gateway *GatewayHandler, submission *SubmissionHandler, health *HealthHandler, m *metrics.Metrics, cfg *config.Config) {
	e.GET("/healthz", health.Healthz)
	e.GET("/gateway/status", health.Status)

	e.Any("/", gateway.Handle)
	e.Any("/submit-calculation", submission.Handle)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}
