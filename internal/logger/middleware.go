package logger

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger returns echo middleware that logs each request with method,
// path, status, duration_ms and response size.
func RequestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo write the error response so the status below is final
				c.Error(err)
			}
			res := c.Response()
			log.Info("request",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.Int("status", res.Status),
				slog.Int("duration_ms", int(time.Since(start).Milliseconds())),
				slog.Int64("size", res.Size),
			)
			return nil
		}
	}
}
