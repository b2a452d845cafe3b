package handler

import (
	"context"  // request-scoped timeouts
	"log/slog" // error logging
	"net/http" // HTTP status codes
	"strconv"  // path parameter parsing
	"strings"  // content type checks
	"time"     // timeout durations

	"github.com/labstack/echo/v4" // echo provides the web context and JSON helpers

	"github.com/iliyamo/stage-planner/internal/lineup"     // lineup parsing and entries
	"github.com/iliyamo/stage-planner/internal/middleware" // caller identity
	"github.com/iliyamo/stage-planner/internal/service"    // planner service
)

// PlanHandler serves lineups, plans and the stateless allocation endpoints.
type PlanHandler struct {
	Planner *service.Planner
	Log     *slog.Logger
}

// NewPlanHandler constructs a PlanHandler and panics when the planner is nil.
func NewPlanHandler(p *service.Planner, log *slog.Logger) *PlanHandler {
	if p == nil {
		panic("nil planner passed to NewPlanHandler")
	}
	return &PlanHandler{Planner: p, Log: log}
}

// showReq is one show of a request body.
type showReq struct {
	Title    string `json:"title"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Priority *int   `json:"priority"`
}

func toEntries(shows []showReq) lineup.Entries {
	out := make(lineup.Entries, len(shows))
	for i, s := range shows {
		out[i] = lineup.Entry{ID: i + 1, Title: s.Title, Start: s.Start, End: s.End, Priority: s.Priority}
	}
	return out
}

type lineupReq struct {
	Name     string    `json:"name"`
	Turnover *int      `json:"turnover"`
	Shows    []showReq `json:"shows"`
}

// bindLineup reads a lineup from the request body.  JSON is the default;
// application/yaml bodies use the YAML lineup format and text/plain bodies
// the one-show-per-line text format, named by the "name" query parameter.
func bindLineup(c echo.Context) (name string, turnover *int, entries lineup.Entries, err error) {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	switch {
	case strings.HasPrefix(ct, "application/yaml"), strings.HasPrefix(ct, "application/x-yaml"), strings.HasPrefix(ct, "text/yaml"):
		l, err := lineup.ParseYAML(c.Request().Body)
		if err != nil {
			return "", nil, nil, err
		}
		return l.Name, l.Turnover, l.Shows, nil
	case strings.HasPrefix(ct, echo.MIMETextPlain):
		entries, err := lineup.ParseText(c.Request().Body)
		if err != nil {
			return "", nil, nil, err
		}
		var turnover *int
		if raw := c.QueryParam("turnover"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return "", nil, nil, errBadRequest("turnover must be an integer")
			}
			turnover = &n
		}
		return c.QueryParam("name"), turnover, entries, nil
	}
	var req lineupReq
	if err := c.Bind(&req); err != nil {
		return "", nil, nil, errBadRequest("invalid body")
	}
	return req.Name, req.Turnover, toEntries(req.Shows), nil
}

// CreateLineup handles POST /v1/lineups.
func (h *PlanHandler) CreateLineup(c echo.Context) error {
	uid, ok := middleware.UserID(c) // caller set by JWTAuth
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	name, turnover, entries, err := bindLineup(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	l, err := h.Planner.CreateLineup(ctx, uid, name, turnover, entries)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, l)
}

// GetLineup handles GET /v1/lineups/:id.
func (h *PlanHandler) GetLineup(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64) // parse lineup ID from path
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lineup id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	l, err := h.Planner.GetLineup(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, l)
}

// ListLineups handles GET /v1/lineups: the caller's own lineups.
func (h *PlanHandler) ListLineups(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Planner.ListLineups(ctx, uid)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// DeleteLineup handles DELETE /v1/lineups/:id.  Plans of the lineup are
// removed with it.
func (h *PlanHandler) DeleteLineup(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lineup id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Planner.DeleteLineup(ctx, id, uid); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
