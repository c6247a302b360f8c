package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorHandler renders errors that escape route handlers (router 404/405,
// body limit, rate limit, panics caught by Recover) as {"error": "..."}
// bodies, the same shape the route handlers use.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	logger = logger.With("component", "error_handler")

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := "internal error"

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = http.StatusText(code)
			if s, ok := he.Message.(string); ok && code < http.StatusInternalServerError {
				msg = s
			}
		}
		if code == http.StatusMethodNotAllowed {
			msg = "Method not allowed"
		}
		if code >= http.StatusInternalServerError {
			logger.Error("unhandled error", "err", err, "path", c.Request().URL.Path)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, map[string]string{"error": msg})
		}
		if werr != nil {
			logger.Error("writing error response", "err", werr)
		}
	}
}
