package metrics

import (
	"github.com/labstack/echo/v4"
)

// RequestMiddleware returns echo middleware that records request count and
// error count (status >= 400) in the given Metrics.
func RequestMiddleware(m *Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			m.IncRequests()
			status := c.Response().Status
			if err != nil {
				status = 500
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			if status >= 400 {
				m.IncErrors()
			}
			return err
		}
	}
}
