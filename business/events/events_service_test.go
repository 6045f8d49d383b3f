package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"maternityCare/business/events"
	"maternityCare/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLog struct {
	mu     sync.Mutex
	events []domain.BehavioralEvent
	err    error
}

func (m *memoryLog) AppendWithinLimit(ctx context.Context, event domain.BehavioralEvent, limit int, window time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	count := 0
	for _, e := range m.events {
		if e.UserID == event.UserID && e.CreatedAt.After(event.CreatedAt.Add(-window)) {
			count++
		}
	}
	if count >= limit {
		return domain.ErrRateLimited
	}
	m.events = append(m.events, event)
	return nil
}

func (m *memoryLog) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newService(log *memoryLog) interface {
	Ingest(ctx context.Context, userID string, kind domain.EventKind, payload json.RawMessage) (domain.BehavioralEvent, error)
} {
	return events.NewEventService(log, events.Config{RateLimit: 100, RateWindow: time.Minute, MaxPayloadBytes: 5120}).
		WithClock(func() time.Time { return fixedNow })
}

func TestIngest_Accepts(t *testing.T) {
	log := &memoryLog{}
	svc := newService(log)

	ev, err := svc.Ingest(context.Background(), "u1", domain.EventMoodCheckin, json.RawMessage(`{ "mood": 3 }`))
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, fixedNow, ev.CreatedAt)
	assert.JSONEq(t, `{"mood":3}`, string(ev.Payload))
	assert.Equal(t, 1, log.len())
}

func TestIngest_MissingPayloadStoredAsEmptyObject(t *testing.T) {
	log := &memoryLog{}
	ev, err := newService(log).Ingest(context.Background(), "u1", domain.EventAppOpen, nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(ev.Payload))
}

func TestIngest_RejectsNonObjectPayload(t *testing.T) {
	cases := map[string]string{
		"array":     `[1,2,3]`,
		"number":    `42`,
		"string":    `"hello"`,
		"boolean":   `true`,
		"malformed": `{"mood":`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			log := &memoryLog{}
			_, err := newService(log).Ingest(context.Background(), "u1", domain.EventMoodCheckin, json.RawMessage(payload))

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, domain.CodeInvalidPayload, verr.Code)
			assert.Equal(t, 0, log.len())
		})
	}
}

func TestIngest_InvalidKind(t *testing.T) {
	log := &memoryLog{}
	_, err := newService(log).Ingest(context.Background(), "u1", domain.EventKind("teleport"), nil)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.CodeInvalidKind, verr.Code)
	assert.Equal(t, 0, log.len())
}

func TestIngest_PayloadSizeBoundary(t *testing.T) {
	// {"n":"..."} carries 8 bytes of framing around the string.
	exact := `{"n":"` + strings.Repeat("a", 5120-8) + `"}`
	over := `{"n":"` + strings.Repeat("a", 5120-7) + `"}`
	require.Len(t, exact, 5120)

	log := &memoryLog{}
	svc := newService(log)

	_, err := svc.Ingest(context.Background(), "u1", domain.EventSleepLog, json.RawMessage(exact))
	require.NoError(t, err)

	_, err = svc.Ingest(context.Background(), "u1", domain.EventSleepLog, json.RawMessage(over))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.CodePayloadTooLarge, verr.Code)
	assert.Equal(t, 1, log.len())
}

func TestIngest_RateLimitAt101(t *testing.T) {
	log := &memoryLog{}
	svc := newService(log)

	for i := 0; i < 100; i++ {
		_, err := svc.Ingest(context.Background(), "u1", domain.EventAppOpen, nil)
		require.NoError(t, err)
	}

	_, err := svc.Ingest(context.Background(), "u1", domain.EventAppOpen, nil)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 100, log.len())

	_, err = svc.Ingest(context.Background(), "u2", domain.EventAppOpen, nil)
	assert.NoError(t, err)
}

func TestIngest_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	_, err := newService(&memoryLog{err: boom}).Ingest(context.Background(), "u1", domain.EventAppOpen, nil)
	assert.ErrorIs(t, err, boom)
}

func TestIngest_MissingUser(t *testing.T) {
	_, err := newService(&memoryLog{}).Ingest(context.Background(), " ", domain.EventAppOpen, nil)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.CodeMissingField, verr.Code)
}
