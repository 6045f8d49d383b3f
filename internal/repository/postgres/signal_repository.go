package postgres

import (
	"context"
	"errors"
	"fmt"

	"maternityCare/business/signals"
	"maternityCare/domain"

	"gorm.io/gorm"
)

type SignalRepository struct {
	DB *gorm.DB
}

var _ signals.SnapshotRepository = (*SignalRepository)(nil)

func NewSignalRepository(db *gorm.DB) *SignalRepository {
	return &SignalRepository{DB: db}
}

// Create appends a snapshot. Snapshots are never updated.
func (r *SignalRepository) Create(ctx context.Context, snapshot *domain.SignalSnapshot) error {
	if err := r.DB.WithContext(ctx).Create(snapshot).Error; err != nil {
		return fmt.Errorf("failed to save signal snapshot: %w", err)
	}
	return nil
}

func (r *SignalRepository) Latest(ctx context.Context, userID string) (domain.SignalSnapshot, error) {
	var snapshot domain.SignalSnapshot
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.SignalSnapshot{}, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return domain.SignalSnapshot{}, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	return snapshot, nil
}

func (r *SignalRepository) History(ctx context.Context, userID string, limit int) ([]domain.SignalSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	var out []domain.SignalSnapshot
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query snapshot history: %w", err)
	}

	return out, nil
}
