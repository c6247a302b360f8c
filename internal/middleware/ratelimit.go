package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimit returns a per-client-IP rate limiter allowing rps requests per
// second. Rejected requests surface as 429 through the error handler.
func RateLimit(rps float64) echo.MiddlewareFunc {
	store := echomw.NewRateLimiterMemoryStore(rate.Limit(rps))
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(_ echo.Context, _ string, _ error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}
