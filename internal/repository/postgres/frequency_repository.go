package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"maternityCare/business/plan"
	"maternityCare/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FrequencyRepository struct {
	DB *gorm.DB
}

var _ plan.FrequencyRepository = (*FrequencyRepository)(nil)

func NewFrequencyRepository(db *gorm.DB) *FrequencyRepository {
	return &FrequencyRepository{DB: db}
}

func (r *FrequencyRepository) Get(ctx context.Context, userID string) (domain.NotificationSettings, bool, error) {
	var s domain.NotificationSettings
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotificationSettings{}, false, nil
	}
	if err != nil {
		return domain.NotificationSettings{}, false, fmt.Errorf("failed to query notification settings: %w", err)
	}

	return s, true, nil
}

// EnsureDefault creates the settings row with the default cap if missing.
func (r *FrequencyRepository) EnsureDefault(ctx context.Context, userID string, defaultCap int, now time.Time) error {
	row := domain.NotificationSettings{UserID: userID, FrequencyCap: defaultCap, UpdatedAt: now}
	if err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create notification settings: %w", err)
	}
	return nil
}

// DecrementFloor lowers the cap by one unless it is already zero. The
// guard lives in the UPDATE so concurrent calls never go below zero.
func (r *FrequencyRepository) DecrementFloor(ctx context.Context, userID string, now time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&domain.NotificationSettings{}).
		Where("user_id = ? AND frequency_cap > 0", userID).
		Updates(map[string]interface{}{
			"frequency_cap": gorm.Expr("frequency_cap - 1"),
			"updated_at":    now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to decrement frequency cap: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}
