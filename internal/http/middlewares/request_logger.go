package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	pkgLog "easyplan-sync.com/easyplan-sync/pkg/log"
)

// RequestLogger tags the request context with the X-Request-ID set by
// echo's RequestID middleware and logs one line per request.
func RequestLogger(l pkgLog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := pkgLog.WithRequestID(req.Context(), id)
			c.SetRequest(req.WithContext(ctx))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			l.Infof(ctx, "%s %s -> %d (%s)", req.Method, req.URL.Path, c.Response().Status, time.Since(start).Round(time.Microsecond))
			return nil
		}
	}
}
