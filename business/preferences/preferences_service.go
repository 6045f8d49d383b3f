package preferences

import (
	"context"
	"fmt"
	"time"

	"maternityCare/domain"
	"maternityCare/pkg/logger"
	"maternityCare/pkg/metrics"

	"gorm.io/datatypes"
)

type PreferenceRepository interface {
	ListTagInteractions(ctx context.Context, userID string, since time.Time, limit int) ([]domain.TagInteraction, error)
	ExplicitTagIDs(ctx context.Context, userID string) (map[string]struct{}, error)
	UpsertInferred(ctx context.Context, weights []domain.PreferenceWeight) (int64, error)
	TopWeights(ctx context.Context, userID string, limit int) ([]domain.PreferenceWeight, error)
}

type Config struct {
	LookbackDays    int
	MaxInteractions int
}

type preferenceService struct {
	repo PreferenceRepository
	cfg  Config
	now  func() time.Time
}

func NewPreferenceService(repo PreferenceRepository, cfg Config) *preferenceService {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 30
	}
	if cfg.MaxInteractions <= 0 {
		cfg.MaxInteractions = 50
	}

	return &preferenceService{
		repo: repo,
		cfg:  cfg,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *preferenceService) WithClock(now func() time.Time) *preferenceService {
	s.now = now
	return s
}

// InferPreferences turns recent interactions into implicit tag weights and
// upserts them. Explicit preferences are never touched.
func (s *preferenceService) InferPreferences(ctx context.Context, userID string) (domain.InferenceResult, error) {
	result := domain.InferenceResult{Inferred: []domain.PreferenceWeight{}}
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("context error: %w", err)
	}

	now := s.now()
	since := now.AddDate(0, 0, -s.cfg.LookbackDays)

	rows, err := s.repo.ListTagInteractions(ctx, userID, since, s.cfg.MaxInteractions)
	if err != nil {
		logger.Error("Failed to load tag interactions", "user_id", userID, "stage", "infer_preferences", "error", err)
		return result, err
	}
	if len(rows) == 0 {
		return result, nil
	}

	explicit, err := s.repo.ExplicitTagIDs(ctx, userID)
	if err != nil {
		logger.Error("Failed to load explicit preferences", "user_id", userID, "stage", "infer_preferences", "error", err)
		return result, err
	}

	selected := selectTop(aggregate(rows), explicit)
	if len(selected) == 0 {
		return result, nil
	}

	weights := make([]domain.PreferenceWeight, 0, len(selected))
	for _, t := range selected {
		weights = append(weights, domain.PreferenceWeight{
			UserID:         userID,
			TagID:          t.TagID,
			PreferenceType: t.Category,
			Weight:         t.Weight,
			Explicit:       false,
			Source:         domain.PreferenceSourceAIInferred,
			Metadata: datatypes.JSONMap{
				"tag_name":          t.TagName,
				"interaction_count": t.Count,
				"total_engagement":  round6(t.TotalEngagement),
				"avg_engagement":    t.AvgEngagement,
				"frequency_factor":  t.FrequencyFactor,
			},
			UpdatedAt: now,
		})
	}

	updated, err := s.repo.UpsertInferred(ctx, weights)
	if err != nil {
		logger.Error("Failed to upsert preference weights", "user_id", userID, "stage", "infer_preferences", "error", err)
		return result, err
	}

	metrics.PreferencesUpserted.Add(float64(updated))
	logger.Info("preferences inferred", "user_id", userID, "tags", len(weights), "updated", updated)

	result.Inferred = weights
	result.UpdatedCount = updated
	return result, nil
}

func (s *preferenceService) TopWeights(ctx context.Context, userID string, limit int) ([]domain.PreferenceWeight, error) {
	return s.repo.TopWeights(ctx, userID, limit)
}
