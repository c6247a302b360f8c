package middleware

import (
	"github.com/labstack/echo/v4"
)

// securityHeaders are set on every response. Referrer-Policy keeps the
// gateway's own URL out of the Referer that Origami receives.
var securityHeaders = map[string]string{
	"X-Content-Type-Options": "nosniff",
	"X-Frame-Options":        "DENY",
	"Referrer-Policy":        "no-referrer",
}

// SecurityHeaders returns an Echo middleware that adds security headers to
// responses. Handlers may override any of them.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for k, v := range securityHeaders {
				h.Set(k, v)
			}
			return next(c)
		}
	}
}
