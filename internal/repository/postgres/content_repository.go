package postgres

import (
	"context"
	"errors"
	"fmt"

	"maternityCare/business/plan"
	"maternityCare/domain"

	"gorm.io/gorm"
)

// ContentRepository reads the content catalog and the stored chat and
// profile data this service consumes but never writes.
type ContentRepository struct {
	DB *gorm.DB
}

var _ plan.ContentCatalog = (*ContentRepository)(nil)

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{DB: db}
}

// FindByTags returns published items related to any of the tags, strongest
// relevance first.
func (r *ContentRepository) FindByTags(ctx context.Context, tagIDs []string, limit int) ([]domain.ContentItem, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	var items []domain.ContentItem
	if err := r.DB.WithContext(ctx).
		Model(&domain.ContentItem{}).
		Select("contents.id, contents.title, contents.content_type, contents.url, contents.published").
		Joins("JOIN content_tag_relations ON content_tag_relations.content_id = contents.id").
		Where("contents.published = ? AND content_tag_relations.tag_id IN ?", true, tagIDs).
		Group("contents.id, contents.title, contents.content_type, contents.url, contents.published").
		Order("MAX(content_tag_relations.relevance_score) DESC").
		Order("contents.id ASC").
		Limit(limit).
		Scan(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to query content by tags: %w", err)
	}

	return items, nil
}

func (r *ContentRepository) ListPublished(ctx context.Context, limit int) ([]domain.ContentItem, error) {
	if limit <= 0 {
		limit = 5
	}

	var items []domain.ContentItem
	if err := r.DB.WithContext(ctx).
		Where("published = ?", true).
		Order("id ASC").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to query published content: %w", err)
	}

	return items, nil
}

type ChatRepository struct {
	DB *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{DB: db}
}

// RecentTurns returns up to limit chat turns in chronological order.
func (r *ChatRepository) RecentTurns(ctx context.Context, userID string, limit int) ([]domain.ChatTurn, error) {
	if limit <= 0 {
		limit = 30
	}

	var turns []domain.ChatTurn
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&turns).Error; err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

type ProfileRepository struct {
	DB *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	var p domain.Profile
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("failed to query profile: %w", err)
	}

	return p, nil
}
