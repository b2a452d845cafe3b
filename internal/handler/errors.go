package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stage-planner/internal/allocator"
	"github.com/iliyamo/stage-planner/internal/lineup"
	"github.com/iliyamo/stage-planner/internal/repository"
	"github.com/iliyamo/stage-planner/internal/service"
)

// writeError maps service, repository and allocator errors onto a status
// code and an {"error": ...} body.  Errors that identify a show or a line
// carry it in the body as well.
func writeError(c echo.Context, log *slog.Logger, err error) error {
	var (
		ivErr    *allocator.IntervalError
		allocErr *allocator.AllocationError
		lineErr  *lineup.LineError
	)
	switch {
	case errors.As(err, &allocErr):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":  err.Error(),
			"stages": allocErr.Stages,
			"passes": allocErr.Passes,
			"show":   allocErr.Show.ID,
		})
	case errors.Is(err, allocator.ErrAllocationFailed):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.As(err, &ivErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "show": ivErr.Show.ID})
	case errors.As(err, &lineErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "line": lineErr.Line})
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, lineup.ErrEmpty):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	}
	if log != nil {
		log.Error("request failed",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Request().URL.Path),
			slog.Any("error", err))
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// errBadRequest builds a 400 error for malformed requests.
func errBadRequest(msg string) error {
	return fmt.Errorf("%w: %s", service.ErrInvalidInput, msg)
}
