// Package handler exposes the gateway, submission and health endpoints over Echo.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"coi-gateway/internal/model"
	"coi-gateway/internal/service"
)

// GatewayHandler serves the redirect gateway route.
type GatewayHandler struct {
	service *service.GatewayService
	logger  *slog.Logger
}

// NewGatewayHandler creates a GatewayHandler.
func NewGatewayHandler(svc *service.GatewayService, logger *slog.Logger) *GatewayHandler {
	return &GatewayHandler{
		service: svc,
		logger:  logger.With("component", "gateway_handler"),
	}
}

// Handle answers CORS preflights and redirects permitted browsers to Origami.
func (h *GatewayHandler) Handle(c echo.Context) error {
	req := c.Request()

	resp, err := h.service.Handle(&model.GatewayRequest{
		Method: req.Method,
		Header: req.Header,
	})
	if err != nil {
		return h.mapError(c, err)
	}

	for key, vals := range resp.Header {
		for _, v := range vals {
			c.Response().Header().Add(key, v)
		}
	}
	return c.NoContent(resp.StatusCode)
}

func (h *GatewayHandler) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrMethodNotAllowed):
		return c.JSON(http.StatusMethodNotAllowed, map[string]string{
			"error": "Method not allowed",
		})

	case errors.Is(err, service.ErrOriginNotAllowed):
		return c.JSON(http.StatusForbidden, map[string]string{
			"error": "Forbidden: origin not allowed",
		})

	case errors.Is(err, service.ErrTokenNotConfigured):
		h.logger.Error("gateway misconfigured", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}

	h.logger.Error("gateway error", "err", service.RedactToken(err.Error()))
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": "internal error",
	})
}
