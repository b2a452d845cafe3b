package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/stage-planner/internal/handler"    // handlers implementing each endpoint
	"github.com/iliyamo/stage-planner/internal/metrics"    // Prometheus exposition
	"github.com/iliyamo/stage-planner/internal/middleware" // JWT authentication and role enforcement
	"github.com/iliyamo/stage-planner/internal/model"      // role names
)

// RegisterRoutes registers routes that do not require authentication: the
// health check, which pings deps, and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, m *metrics.Metrics, deps ...handler.Pinger) {
	// Used by load balancers and monitoring systems to verify the service is up.
	e.GET("/healthz", handler.Health(deps...))
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// RegisterAuth registers all authentication-related routes.  Unauthenticated
// operations live under /v1/auth, while /v1/me requires an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Accepts a refresh_token body, a bearer token, or both.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RolePlanner, model.RoleViewer))
	auth.GET("/me", a.Me)
}

// RegisterPlanning registers the lineup and plan endpoints under /v1.  Every
// route requires a valid access token; creating lineups and plans requires
// the PLANNER role.  limit guards plan creation and cache fronts the stored
// plan reads; both may be nil.
func RegisterPlanning(e *echo.Echo, p *handler.PlanHandler, jwtSecret string, limit, cache echo.MiddlewareFunc) {
	g := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RolePlanner, model.RoleViewer),
	)
	plannerOnly := middleware.RequireRole(model.RolePlanner)

	var limited, cached []echo.MiddlewareFunc
	if limit != nil {
		limited = append(limited, limit)
	}
	if cache != nil {
		cached = append(cached, cache)
	}

	// ---- Lineups ----
	// Reads are open to every signed-in user; writes check the owner.
	g.POST("/lineups", p.CreateLineup, plannerOnly)
	g.GET("/lineups", p.ListLineups, plannerOnly)
	g.GET("/lineups/:id", p.GetLineup)
	g.DELETE("/lineups/:id", p.DeleteLineup, plannerOnly)

	// ---- Plans ----
	g.POST("/lineups/:id/plans", p.CreatePlan, append([]echo.MiddlewareFunc{plannerOnly}, limited...)...)
	g.GET("/lineups/:id/plans", p.ListPlans)
	g.GET("/plans/:id", p.GetPlan, cached...)
	g.GET("/plans/:id/report", p.PlanReport, cached...)
	g.GET("/plans/:id/timetable", p.PlanTimetable)

	// ---- Stateless ----
	g.POST("/allocate", p.Allocate)
	g.POST("/minimum", p.Minimum)
}
