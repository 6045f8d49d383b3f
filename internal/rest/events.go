package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"maternityCare/domain"

	"github.com/labstack/echo/v4"
)

type EventService interface {
	Ingest(ctx context.Context, userID string, kind domain.EventKind, payload json.RawMessage) (domain.BehavioralEvent, error)
}

type EventHandler struct {
	eventService EventService
	timeout      time.Duration
}

func NewEventHandler(eventService EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		timeout:      5 * time.Second,
	}
}

type IngestEventRequest struct {
	UserID  string          `json:"userId"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

type IngestEventResponse struct {
	EventID   string    `json:"eventId"`
	CreatedAt time.Time `json:"createdAt"`
}

// IngestEvent handles POST /ingest-event. Callers can only append events for
// themselves.
func (h *EventHandler) IngestEvent(c echo.Context) error {
	var req IngestEventRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	userID, err := subjectFor(c, req.UserID, false)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	event, err := h.eventService.Ingest(ctx, userID, domain.EventKind(req.Kind), req.Payload)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, IngestEventResponse{
		EventID:   event.ID,
		CreatedAt: event.CreatedAt,
	})
}
