package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"maternityCare/business/alerts"
	"maternityCare/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AlertRepository struct {
	DB *gorm.DB
}

var _ alerts.AlertRepository = (*AlertRepository)(nil)

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{DB: db}
}

// CreateIfNoneOpen inserts the alert unless the user already has an
// unresolved alert of the same type. The partial unique index on
// (user_id, alert_type) WHERE resolved = false makes this race free.
func (r *AlertRepository) CreateIfNoneOpen(ctx context.Context, alert *domain.AlertRecord) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "alert_type"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "resolved = false"},
			}},
			DoNothing: true,
		}).
		Create(alert)
	if res.Error != nil {
		return false, fmt.Errorf("failed to save alert: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

func (r *AlertRepository) FindOpenByType(ctx context.Context, userID, alertType string) (*domain.AlertRecord, error) {
	var alert domain.AlertRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND alert_type = ? AND resolved = ?", userID, alertType, false).
		First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query open alert: %w", err)
	}

	return &alert, nil
}

// ListOpen returns unresolved alerts, most severe first.
func (r *AlertRepository) ListOpen(ctx context.Context, limit int) ([]domain.AlertRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var out []domain.AlertRecord
	if err := r.DB.WithContext(ctx).
		Where("resolved = ?", false).
		Order("severity DESC").
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query open alerts: %w", err)
	}

	return out, nil
}

// Resolve flips an alert to resolved exactly once. The conditional update
// means a second reviewer gets ErrAlertAlreadyResolved instead of
// overwriting the first resolution.
func (r *AlertRepository) Resolve(ctx context.Context, alertID, reviewer string, at time.Time) (domain.AlertRecord, error) {
	res := r.DB.WithContext(ctx).
		Model(&domain.AlertRecord{}).
		Where("id = ? AND resolved = ?", alertID, false).
		Updates(map[string]interface{}{
			"resolved":    true,
			"resolved_by": reviewer,
			"resolved_at": at,
		})
	if res.Error != nil {
		return domain.AlertRecord{}, fmt.Errorf("failed to resolve alert: %w", res.Error)
	}

	var alert domain.AlertRecord
	err := r.DB.WithContext(ctx).Where("id = ?", alertID).First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.AlertRecord{}, domain.ErrAlertNotFound
	}
	if err != nil {
		return domain.AlertRecord{}, fmt.Errorf("failed to load alert: %w", err)
	}

	if res.RowsAffected == 0 {
		return alert, domain.ErrAlertAlreadyResolved
	}

	return alert, nil
}
