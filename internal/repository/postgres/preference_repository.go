package postgres

import (
	"context"
	"fmt"
	"time"

	"maternityCare/business/preferences"
	"maternityCare/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PreferenceRepository struct {
	DB *gorm.DB
}

var _ preferences.PreferenceRepository = (*PreferenceRepository)(nil)

func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{DB: db}
}

// ListTagInteractions projects the user's most recent interactions onto
// their content tags. The interaction limit applies before the join, so a
// heavily tagged item does not push older interactions out of the window.
func (r *PreferenceRepository) ListTagInteractions(ctx context.Context, userID string, since time.Time, limit int) ([]domain.TagInteraction, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []domain.TagInteraction
	err := r.DB.WithContext(ctx).Raw(`
		SELECT i.id AS interaction_id,
		       i.content_id AS content_id,
		       i.engagement_score AS engagement_score,
		       r.tag_id AS tag_id,
		       r.relevance_score AS relevance_score,
		       t.name AS tag_name,
		       t.category AS category
		FROM (
			SELECT id, content_id, engagement_score, created_at
			FROM user_interactions
			WHERE user_id = ? AND created_at >= ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		) i
		JOIN content_tag_relations r ON r.content_id = i.content_id
		JOIN content_tags t ON t.id = r.tag_id
		ORDER BY i.created_at DESC, i.id DESC, r.tag_id ASC`,
		userID, since, limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query tag interactions: %w", err)
	}

	return rows, nil
}

func (r *PreferenceRepository) ExplicitTagIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	var ids []string
	if err := r.DB.WithContext(ctx).
		Model(&domain.PreferenceWeight{}).
		Where("user_id = ? AND (explicit = ? OR source = ?)", userID, true, domain.PreferenceSourceExplicit).
		Pluck("tag_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to query explicit preferences: %w", err)
	}

	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

// UpsertInferred writes inferred weights keyed by (user, tag, type). The
// conflict guard leaves explicit rows untouched even if one appeared after
// the caller filtered them out.
func (r *PreferenceRepository) UpsertInferred(ctx context.Context, weights []domain.PreferenceWeight) (int64, error) {
	if len(weights) == 0 {
		return 0, nil
	}

	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "tag_id"}, {Name: "preference_type"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"weight",
				"explicit",
				"source",
				"metadata",
				"updated_at",
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "preference_weights.explicit = ? AND preference_weights.source <> ?", Vars: []interface{}{false, domain.PreferenceSourceExplicit}},
			}},
		}).
		Create(&weights)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to upsert preference weights: %w", res.Error)
	}

	return res.RowsAffected, nil
}

// TopWeights returns the user's strongest preferences of any source.
func (r *PreferenceRepository) TopWeights(ctx context.Context, userID string, limit int) ([]domain.PreferenceWeight, error) {
	if limit <= 0 {
		limit = 10
	}

	var out []domain.PreferenceWeight
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("weight DESC").
		Order("tag_id ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query preference weights: %w", err)
	}

	return out, nil
}
