package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"maternityCare/business/events"
	"maternityCare/domain"
	"maternityCare/pkg/logger"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	serializationFailure = "40001"
	maxTxAttempts        = 3
)

type EventRepository struct {
	DB *gorm.DB
}

var _ events.EventRepository = (*EventRepository)(nil)

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

// AppendWithinLimit counts the caller's events inside the window and inserts
// the new one in the same transaction. On Postgres the transaction runs
// serializable, so two concurrent appends cannot both observe limit-1.
func (r *EventRepository) AppendWithinLimit(ctx context.Context, event domain.BehavioralEvent, limit int, window time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	// The window is anchored on the event's own timestamp and has no upper
	// bound, so rows written by instances with a clock running ahead still count.
	windowStart := event.CreatedAt.Add(-window)

	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&domain.BehavioralEvent{}).
				Where("user_id = ? AND created_at > ?", event.UserID, windowStart).
				Count(&count).Error; err != nil {
				return fmt.Errorf("failed to count recent events: %w", err)
			}

			if count >= int64(limit) {
				return domain.ErrRateLimited
			}

			if err := tx.Create(&event).Error; err != nil {
				return fmt.Errorf("failed to save behavioral event: %w", err)
			}
			return nil
		}, txOptions(r.DB))

		if !isSerializationFailure(err) {
			return err
		}
		logger.Debug("retrying event append after serialization failure", "user_id", event.UserID, "attempt", attempt)
	}

	return err
}

func (r *EventRepository) ListRecent(ctx context.Context, userID string, since time.Time, limit int) ([]domain.BehavioralEvent, error) {
	if limit <= 0 {
		limit = 200
	}

	var out []domain.BehavioralEvent
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query behavioral events: %w", err)
	}

	return out, nil
}

// ActiveUsers lists users with at least one event since the given time.
func (r *EventRepository) ActiveUsers(ctx context.Context, since time.Time) ([]string, error) {
	var users []string
	if err := r.DB.WithContext(ctx).
		Model(&domain.BehavioralEvent{}).
		Where("created_at >= ?", since).
		Distinct("user_id").
		Order("user_id").
		Pluck("user_id", &users).Error; err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}

	return users, nil
}

func txOptions(db *gorm.DB) *sql.TxOptions {
	if db.Dialector.Name() == "postgres" {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == serializationFailure
}
