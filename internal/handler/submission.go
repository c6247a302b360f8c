package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"coi-gateway/internal/service"
)

// SubmissionHandler serves the calculator submission endpoint.
type SubmissionHandler struct {
	service *service.SubmissionService
	logger  *slog.Logger
}

// NewSubmissionHandler creates a SubmissionHandler.
func NewSubmissionHandler(svc *service.SubmissionService, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: svc,
		logger:  logger.With("component", "submission_handler"),
	}
}

type submissionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// Handle stores a POSTed calculator payload and returns its id.
func (h *SubmissionHandler) Handle(c echo.Context) error {
	req := c.Request()
	if req.Method != http.MethodPost {
		return c.JSON(http.StatusMethodNotAllowed, map[string]string{
			"error": "Method not allowed",
		})
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		// Oversized bodies surface as the body-limit middleware's 413.
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid JSON",
		})
	}

	id, err := h.service.Submit(req.Context(), body)
	if err != nil {
		return h.mapError(c, err)
	}

	c.Response().Header().Set("Access-Control-Allow-Origin", "*")
	return c.JSON(http.StatusOK, submissionResponse{
		Success: true,
		Message: "Submission saved successfully",
		ID:      id,
	})
}

func (h *SubmissionHandler) mapError(c echo.Context, err error) error {
	if errors.Is(err, service.ErrInvalidPayload) {
		h.logger.Debug("rejected submission", "err", err)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid JSON",
		})
	}

	h.logger.Error("database error", "err", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": "Failed to save submission",
	})
}
