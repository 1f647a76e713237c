package observe

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Middleware returns an echo middleware that records request duration to
// [Metrics.HTTPRequestDuration] and logs request completion with method,
// route, status, and duration.
//
// The route pattern (c.Path) is used as the path attribute rather than the
// raw URL, keeping metric cardinality bounded.
func Middleware(m *Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// Resolve the response status before recording it.
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			duration := time.Since(start)

			m.HTTPRequestDuration.Record(req.Context(), duration.Seconds(),
				metric.WithAttributes(
					attribute.String("method", req.Method),
					attribute.String("path", c.Path()),
					attribute.Int("status", status),
				),
			)

			slog.LogAttrs(req.Context(), slog.LevelInfo, "request completed",
				slog.String("method", req.Method),
				slog.String("path", c.Path()),
				slog.Int("status", status),
				slog.Duration("duration", duration),
			)
			return err
		}
	}
}
