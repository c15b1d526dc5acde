package http

import (
	"errors"
	"net/http"

	"microloan-backend/internal/adapter/middleware"
	"microloan-backend/internal/domain/errs"
	"microloan-backend/internal/domain/loan"
	"microloan-backend/internal/usecase/penalty"

	"github.com/labstack/echo/v4"
)

type PenaltyHandler struct {
	o     *penalty.Orchestrator
	clock loan.Clock
}

func NewPenaltyHandler(o *penalty.Orchestrator, clock loan.Clock) *PenaltyHandler {
	return &PenaltyHandler{o: o, clock: clock}
}

type resolveReq struct {
	ResolutionType string `json:"resolution_type" validate:"required,oneof=recovered written_off"`
	Notes          string `json:"notes" validate:"max=2000"`
}

func (h *PenaltyHandler) Penalty(c echo.Context) error {
	s, err := h.o.PenaltySummary(c.Request().Context(), c.Param("loan_id"), h.clock.Now())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *PenaltyHandler) Resolve(c echo.Context) error {
	var req resolveReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	a, _ := middleware.ActorFrom(c)
	l, err := h.o.ResolveDefault(c.Request().Context(), c.Param("loan_id"), a.UserID,
		loan.ResolutionType(req.ResolutionType), req.Notes)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *PenaltyHandler) ListDefaults(c echo.Context) error {
	rs, err := h.o.ListDefaults(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rs)
}

func (h *PenaltyHandler) Statistics(c echo.Context) error {
	s, err := h.o.DefaultStatistics(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// Sweep triggers one orchestrator pass. Loans that failed are listed in the
// body; the rest of the pass still counts.
func (h *PenaltyHandler) Sweep(c echo.Context) error {
	res, err := h.o.Sweep(c.Request().Context())
	if err != nil && !errors.Is(err, errs.ErrPartialSweep) {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
