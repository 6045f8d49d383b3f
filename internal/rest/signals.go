package rest

import (
	"context"
	"net/http"
	"time"

	"maternityCare/domain"

	"github.com/labstack/echo/v4"
)

type SignalService interface {
	BuildSignals(ctx context.Context, userID string) (domain.SignalSnapshot, error)
}

type SignalHandler struct {
	signalService SignalService
	timeout       time.Duration
}

// The timeout covers the whole oracle chain, so it is sized for every
// provider timing out in turn.
func NewSignalHandler(signalService SignalService, timeout time.Duration) *SignalHandler {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &SignalHandler{
		signalService: signalService,
		timeout:       timeout,
	}
}

type BuildSignalsRequest struct {
	UserID string `json:"userId"`
}

type SignalView struct {
	Tags      []string        `json:"tags"`
	Scores    domain.Scores   `json:"scores"`
	Priority  domain.Priority `json:"priority"`
	RiskLevel int             `json:"risk_level"`
	CreatedAt time.Time       `json:"created_at"`
}

func (h *SignalHandler) BuildSignals(c echo.Context) error {
	var req BuildSignalsRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	userID, err := subjectFor(c, req.UserID, true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	snapshot, err := h.signalService.BuildSignals(ctx, userID)
	if err != nil {
		return err
	}

	tags := []string(snapshot.Tags)
	if tags == nil {
		tags = []string{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"signal": SignalView{
			Tags:      tags,
			Scores:    snapshot.Scores(),
			Priority:  snapshot.Priority,
			RiskLevel: snapshot.RiskLevel,
			CreatedAt: snapshot.CreatedAt,
		},
	})
}
