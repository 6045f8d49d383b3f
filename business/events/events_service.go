package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"maternityCare/domain"
	"maternityCare/pkg/logger"
	"maternityCare/pkg/metrics"

	"github.com/google/uuid"
)

// EventRepository contract interface
type EventRepository interface {
	AppendWithinLimit(ctx context.Context, event domain.BehavioralEvent, limit int, window time.Duration) error
}

type Config struct {
	RateLimit       int
	RateWindow      time.Duration
	MaxPayloadBytes int
}

type eventService struct {
	repo EventRepository
	cfg  Config
	now  func() time.Time
}

func NewEventService(repo EventRepository, cfg Config) *eventService {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 100
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}
	if cfg.MaxPayloadBytes <= 0 {
		cfg.MaxPayloadBytes = 5120
	}

	return &eventService{
		repo: repo,
		cfg:  cfg,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source; used by tests and the worker.
func (s *eventService) WithClock(now func() time.Time) *eventService {
	s.now = now
	return s
}

// Ingest validates and appends one behavioral event. Validation failures
// and rate limiting never touch the log.
func (s *eventService) Ingest(ctx context.Context, userID string, kind domain.EventKind, payload json.RawMessage) (domain.BehavioralEvent, error) {
	if err := ctx.Err(); err != nil {
		return domain.BehavioralEvent{}, fmt.Errorf("context error: %w", err)
	}

	if strings.TrimSpace(userID) == "" {
		metrics.EventsRejected.WithLabelValues(domain.CodeMissingField).Inc()
		return domain.BehavioralEvent{}, domain.NewValidationError(domain.CodeMissingField, "userId is required")
	}

	if !kind.Valid() {
		metrics.EventsRejected.WithLabelValues(domain.CodeInvalidKind).Inc()
		return domain.BehavioralEvent{}, domain.NewValidationError(domain.CodeInvalidKind, fmt.Sprintf("unknown event kind %q", kind))
	}

	body, err := normalizePayload(payload)
	if err != nil {
		metrics.EventsRejected.WithLabelValues(domain.CodeInvalidPayload).Inc()
		return domain.BehavioralEvent{}, domain.NewValidationError(domain.CodeInvalidPayload, err.Error())
	}

	if len(body) > s.cfg.MaxPayloadBytes {
		metrics.EventsRejected.WithLabelValues(domain.CodePayloadTooLarge).Inc()
		return domain.BehavioralEvent{}, domain.NewValidationError(
			domain.CodePayloadTooLarge,
			fmt.Sprintf("payload is %d bytes, limit is %d", len(body), s.cfg.MaxPayloadBytes),
		)
	}

	event := domain.BehavioralEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Payload:   body,
		CreatedAt: s.now(),
	}

	if err := s.repo.AppendWithinLimit(ctx, event, s.cfg.RateLimit, s.cfg.RateWindow); err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			metrics.EventsRejected.WithLabelValues("RATE_LIMITED").Inc()
			logger.Warn("event rate limit reached", "user_id", userID, "kind", kind)
			return domain.BehavioralEvent{}, err
		}
		logger.Error("Failed to append behavioral event", "user_id", userID, "kind", kind, "error", err)
		return domain.BehavioralEvent{}, err
	}

	metrics.EventsAccepted.WithLabelValues(string(kind)).Inc()
	return event, nil
}

// normalizePayload compacts the payload so the size limit applies to the
// serialized form that is stored. A missing payload becomes {}; anything
// other than a JSON object is rejected.
func normalizePayload(payload json.RawMessage) ([]byte, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []byte("{}"), nil
	}
	if trimmed[0] != '{' {
		return nil, errors.New("payload must be a JSON object")
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, errors.New("payload is not valid JSON")
	}
	return buf.Bytes(), nil
}
