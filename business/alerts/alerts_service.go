package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"maternityCare/domain"
	"maternityCare/pkg/logger"
	"maternityCare/pkg/metrics"

	"github.com/google/uuid"
)

// Threshold is the minimum risk level that raises an alert.
const Threshold = 8

type AlertRepository interface {
	CreateIfNoneOpen(ctx context.Context, alert *domain.AlertRecord) (bool, error)
	FindOpenByType(ctx context.Context, userID, alertType string) (*domain.AlertRecord, error)
	ListOpen(ctx context.Context, limit int) ([]domain.AlertRecord, error)
	Resolve(ctx context.Context, alertID, reviewer string, at time.Time) (domain.AlertRecord, error)
}

// Notifier tells the care team a new alert is waiting for review.
type Notifier interface {
	NotifyCareTeam(ctx context.Context, alert domain.AlertRecord) error
}

// SnapshotHistory lists a user's signal snapshots, newest first.
type SnapshotHistory interface {
	History(ctx context.Context, userID string, limit int) ([]domain.SignalSnapshot, error)
}

type alertService struct {
	repo     AlertRepository
	notifier Notifier
	history  SnapshotHistory
	now      func() time.Time
}

func NewAlertService(repo AlertRepository, notifier Notifier) *alertService {
	return &alertService{
		repo:     repo,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *alertService) WithClock(now func() time.Time) *alertService {
	s.now = now
	return s
}

func (s *alertService) WithHistory(history SnapshotHistory) *alertService {
	s.history = history
	return s
}

// AlertType returns the critical tag that names the alert, or "" when the
// snapshot does not qualify for escalation.
func AlertType(snapshot domain.SignalSnapshot) string {
	if snapshot.RiskLevel < Threshold {
		return ""
	}
	for _, tag := range domain.CriticalTags {
		if snapshot.HasTag(tag) {
			return tag
		}
	}
	return ""
}

// Escalate raises an alert for a qualifying snapshot. It returns nil when the
// snapshot does not qualify, and the already-open alert when one of the same
// type is still pending review.
func (s *alertService) Escalate(ctx context.Context, snapshot domain.SignalSnapshot) (*domain.AlertRecord, error) {
	alertType := AlertType(snapshot)
	if alertType == "" {
		return nil, nil
	}

	alert := domain.AlertRecord{
		ID:            uuid.NewString(),
		UserID:        snapshot.UserID,
		SnapshotID:    snapshot.ID,
		AlertType:     alertType,
		Severity:      snapshot.RiskLevel,
		TriggerReason: triggerReason(snapshot),
		CreatedAt:     s.now(),
	}

	created, err := s.repo.CreateIfNoneOpen(ctx, &alert)
	if err != nil {
		return nil, fmt.Errorf("escalate snapshot %s: %w", snapshot.ID, err)
	}

	if !created {
		existing, err := s.repo.FindOpenByType(ctx, snapshot.UserID, alertType)
		if err != nil {
			return nil, fmt.Errorf("escalate snapshot %s: %w", snapshot.ID, err)
		}
		logger.Info("alert already pending review", "user_id", snapshot.UserID, "alert_type", alertType)
		return existing, nil
	}

	metrics.AlertsCreated.WithLabelValues(alertType).Inc()
	logger.Warn("alert raised", "user_id", snapshot.UserID, "alert_id", alert.ID, "alert_type", alertType, "severity", alert.Severity)

	if s.notifier != nil {
		if err := s.notifier.NotifyCareTeam(ctx, alert); err != nil {
			logger.Error("Failed to notify care team", "alert_id", alert.ID, "error", err)
		}
	}

	return &alert, nil
}

func (s *alertService) ListOpen(ctx context.Context, limit int) ([]domain.AlertRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	return s.repo.ListOpen(ctx, limit)
}

func (s *alertService) Resolve(ctx context.Context, alertID, reviewer string) (domain.AlertRecord, error) {
	if strings.TrimSpace(alertID) == "" {
		return domain.AlertRecord{}, domain.NewValidationError(domain.CodeMissingField, "alert id is required")
	}
	if strings.TrimSpace(reviewer) == "" {
		return domain.AlertRecord{}, domain.NewValidationError(domain.CodeMissingField, "reviewer is required")
	}

	alert, err := s.repo.Resolve(ctx, alertID, reviewer, s.now())
	if err != nil {
		return alert, err
	}

	logger.Info("alert resolved", "alert_id", alertID, "resolved_by", reviewer)
	return alert, nil
}

// SnapshotHistory gives a reviewer the user's recent snapshots so an alert
// can be read against the trend that led to it.
func (s *alertService) SnapshotHistory(ctx context.Context, userID string, limit int) ([]domain.SignalSnapshot, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.NewValidationError(domain.CodeMissingField, "user id is required")
	}
	if s.history == nil {
		return []domain.SignalSnapshot{}, nil
	}

	snapshots, err := s.history.History(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("snapshot history for %s: %w", userID, err)
	}
	return snapshots, nil
}

func triggerReason(snapshot domain.SignalSnapshot) string {
	return fmt.Sprintf("risk_level=%d tags=%s", snapshot.RiskLevel, strings.Join(snapshot.Tags, ","))
}
