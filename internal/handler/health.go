package handler // package handler contains the HTTP handlers of the API

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Pinger is anything whose liveness can be probed, such as *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health returns a health-check endpoint used by load balancers and
// monitoring systems.  It answers "ok" with 200 when every dependency
// responds to a ping within two seconds and "unavailable" with 503
// otherwise.  With no dependencies it always answers "ok".
func Health(deps ...Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		for _, d := range deps {
			if d == nil {
				continue
			}
			if err := d.PingContext(ctx); err != nil {
				return c.String(http.StatusServiceUnavailable, "unavailable")
			}
		}
		return c.String(http.StatusOK, "ok")
	}
}
