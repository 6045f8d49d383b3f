package rest

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"maternityCare/domain"
	"maternityCare/internal/middleware"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type AlertService interface {
	ListOpen(ctx context.Context, limit int) ([]domain.AlertRecord, error)
	Resolve(ctx context.Context, alertID, reviewer string) (domain.AlertRecord, error)
	SnapshotHistory(ctx context.Context, userID string, limit int) ([]domain.SignalSnapshot, error)
}

type AlertAdminHandler struct {
	alertService AlertService
	timeout      time.Duration
}

func NewAlertAdminHandler(alertService AlertService) *AlertAdminHandler {
	return &AlertAdminHandler{
		alertService: alertService,
		timeout:      10 * time.Second,
	}
}

// GET /api/v1/admin/alerts?limit=50
func (h *AlertAdminHandler) ListOpen(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			return domain.NewValidationError("BAD_REQUEST", "limit must be between 1 and 500")
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	alerts, err := h.alertService.ListOpen(ctx, limit)
	if err != nil {
		return err
	}
	if alerts == nil {
		alerts = []domain.AlertRecord{}
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(alerts))
}

// PUT /api/v1/admin/alerts/:id/resolve
func (h *AlertAdminHandler) Resolve(c echo.Context) error {
	alertID := strings.TrimSpace(c.Param("id"))
	if alertID == "" {
		return domain.NewValidationError(domain.CodeMissingField, "alert id is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	alert, err := h.alertService.Resolve(ctx, alertID, middleware.CallerID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(alert))
}

// GET /api/v1/admin/alerts/users/:user_id/snapshots?limit=20
func (h *AlertAdminHandler) SnapshotHistory(c echo.Context) error {
	userID := strings.TrimSpace(c.Param("user_id"))
	if userID == "" {
		return domain.NewValidationError(domain.CodeMissingField, "user id is required")
	}

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			return domain.NewValidationError("BAD_REQUEST", "limit must be between 1 and 100")
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	snapshots, err := h.alertService.SnapshotHistory(ctx, userID, limit)
	if err != nil {
		return err
	}
	if snapshots == nil {
		snapshots = []domain.SignalSnapshot{}
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(snapshots))
}
