package handler

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stage-planner/internal/allocator"
	"github.com/iliyamo/stage-planner/internal/middleware"
	"github.com/iliyamo/stage-planner/internal/report"
	"github.com/iliyamo/stage-planner/internal/service"
)

type planReq struct {
	Policy    string  `json:"policy"`
	Turnover  *int    `json:"turnover"`
	Seed      *uint64 `json:"seed"`
	MaxStages int     `json:"max_stages"`
}

func (r planReq) run() service.RunRequest {
	return service.RunRequest{Policy: r.Policy, Turnover: r.Turnover, Seed: r.Seed, MaxStages: r.MaxStages}
}

type allocateReq struct {
	planReq
	Shows []showReq `json:"shows"`
}

type minimumReq struct {
	Turnover *int      `json:"turnover"`
	Shows    []showReq `json:"shows"`
}

// runResp is the body of POST /v1/allocate.
type runResp struct {
	*allocator.Result
	Seed       *uint64     `json:"seed,omitempty"`
	Sampled    int         `json:"sampled"`
	Priorities map[int]int `json:"priorities,omitempty"`
}

// CreatePlan handles POST /v1/lineups/:id/plans.  An empty body runs the
// configured default policy.
func (h *PlanHandler) CreatePlan(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	lineupID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || lineupID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lineup id"})
	}
	var req planReq
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	plan, _, err := h.Planner.CreatePlan(ctx, lineupID, uid, req.run())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	c.Response().Header().Set(echo.HeaderLocation, "/v1/plans/"+plan.ID)
	return c.JSON(http.StatusCreated, plan)
}

// ListPlans handles GET /v1/lineups/:id/plans: plan headers without
// assignments, newest first.
func (h *PlanHandler) ListPlans(c echo.Context) error {
	lineupID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || lineupID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lineup id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Planner.ListPlans(ctx, lineupID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetPlan handles GET /v1/plans/:id.
func (h *PlanHandler) GetPlan(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	plan, err := h.Planner.GetPlan(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, plan)
}

// PlanReport handles GET /v1/plans/:id/report: one line per show, in show
// order, followed by nothing else.  ?summary=1 appends the run summary.
func (h *PlanHandler) PlanReport(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	plan, err := h.Planner.GetPlan(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	res, err := service.PlanResult(plan)
	if err != nil {
		return writeError(c, h.Log, err)
	}

	var buf bytes.Buffer
	if err := report.WriteReport(&buf, res.Assignments, service.PlanPriorities(plan)); err != nil {
		return writeError(c, h.Log, err)
	}
	if truthy(c.QueryParam("summary")) {
		if err := report.WriteSummary(&buf, res); err != nil {
			return writeError(c, h.Log, err)
		}
	}
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, buf.Bytes())
}

// PlanTimetable handles GET /v1/plans/:id/timetable.
func (h *PlanHandler) PlanTimetable(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	plan, err := h.Planner.GetPlan(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	res, err := service.PlanResult(plan)
	if err != nil {
		return writeError(c, h.Log, err)
	}

	var buf bytes.Buffer
	opts := report.GridOptions{Title: "stages (" + res.Policy.String() + ")"}
	if err := report.RenderGrid(&buf, res.Grid.Rows(), opts); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, buf.Bytes())
}

// Allocate handles POST /v1/allocate: the shows in the body are allocated
// and the result returned without storing anything.  ?format=text returns
// the report lines and summary instead of JSON.
func (h *PlanHandler) Allocate(c echo.Context) error {
	var req allocateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	run, err := h.Planner.Execute(toEntries(req.Shows), req.run(), nil)
	if err != nil {
		return writeError(c, h.Log, err)
	}

	if c.QueryParam("format") == "text" {
		var buf bytes.Buffer
		if err := report.WriteReport(&buf, run.Result.Assignments, run.Priorities); err != nil {
			return writeError(c, h.Log, err)
		}
		if err := report.WriteSummary(&buf, run.Result); err != nil {
			return writeError(c, h.Log, err)
		}
		return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, buf.Bytes())
	}

	resp := runResp{Result: run.Result, Seed: run.Seed, Sampled: run.Sampled}
	if len(run.Priorities) > 0 {
		resp.Priorities = run.Priorities
	}
	return c.JSON(http.StatusOK, resp)
}

// Minimum handles POST /v1/minimum.
func (h *PlanHandler) Minimum(c echo.Context) error {
	var req minimumReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	turnover := h.Planner.Config().DefaultTurnover
	if req.Turnover != nil {
		turnover = *req.Turnover
	}
	n, err := h.Planner.Minimum(toEntries(req.Shows), turnover)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"min_stages": n})
}

func truthy(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
