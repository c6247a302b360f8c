package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"coi-gateway/internal/service"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	gateway *service.GatewayService
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(gw *service.GatewayService, v Version) *HealthHandler {
	return &HealthHandler{gateway: gw, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status returns gateway status information. It reports whether a token is
// configured, never the token itself.
func (h *HealthHandler) Status(c echo.Context) error {
	originCheck := "disabled"
	if h.gateway.OriginCheckEnabled() {
		originCheck = "enabled"
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":           "ok",
		"version":          string(h.version),
		"base_endpoint":    h.gateway.BaseEndpoint(),
		"collection_id":    h.gateway.CollectionID(),
		"origin_check":     originCheck,
		"token_configured": strconv.FormatBool(h.gateway.TokenConfigured()),
	})
}
