package rest

import (
	"context"
	"net/http"
	"time"

	"maternityCare/domain"
	"maternityCare/internal/middleware"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type PlanService interface {
	GetDailyPlan(ctx context.Context, userID string) (domain.DailyPlan, error)
	Replan(ctx context.Context, userID string) (domain.DailyPlan, error)
	GetFrequency(ctx context.Context, userID string) (int, error)
	ShowLess(ctx context.Context, userID string) (domain.FrequencyOutcome, error)
}

type PlanHandler struct {
	planService PlanService
	timeout     time.Duration
}

func NewPlanHandler(planService PlanService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
		timeout:     60 * time.Second,
	}
}

// GET /api/v1/plans/today
func (h *PlanHandler) Today(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	plan, err := h.planService.GetDailyPlan(ctx, middleware.CallerID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(plan))
}

func (h *PlanHandler) Replan(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	plan, err := h.planService.Replan(ctx, middleware.CallerID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(plan))
}

func (h *PlanHandler) Frequency(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	freq, err := h.planService.GetFrequency(ctx, middleware.CallerID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]int{"frequency_cap": freq}))
}

// ShowLess lowers the caller's daily cap by one. Today's cached plan is left
// alone; the new cap applies from the next plan.
func (h *PlanHandler) ShowLess(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	outcome, err := h.planService.ShowLess(ctx, middleware.CallerID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(outcome))
}
