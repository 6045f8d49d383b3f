package rest

import (
	"context"
	"net/http"
	"time"

	"maternityCare/domain"

	"github.com/labstack/echo/v4"
)

type PreferenceService interface {
	InferPreferences(ctx context.Context, userID string) (domain.InferenceResult, error)
}

type PreferenceHandler struct {
	preferenceService PreferenceService
	timeout           time.Duration
}

func NewPreferenceHandler(preferenceService PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{
		preferenceService: preferenceService,
		timeout:           15 * time.Second,
	}
}

type InferPreferencesRequest struct {
	UserID string `json:"userId"`
}

// InferPreferences handles POST /infer-preferences. userId is optional and
// defaults to the caller.
func (h *PreferenceHandler) InferPreferences(c echo.Context) error {
	var req InferPreferencesRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return err
		}
	}

	userID, err := subjectFor(c, req.UserID, true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.preferenceService.InferPreferences(ctx, userID)
	if err != nil {
		return err
	}
	if result.Inferred == nil {
		result.Inferred = []domain.PreferenceWeight{}
	}

	return c.JSON(http.StatusOK, result)
}
