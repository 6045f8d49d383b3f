package domain

import "time"

// InteractionRecord is written by the content feed; this service only reads it.
type InteractionRecord struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          string    `gorm:"column:user_id;not null;index" json:"user_id"`
	ContentID       string    `gorm:"column:content_id;not null" json:"content_id"`
	ContentType     string    `gorm:"column:content_type" json:"content_type"`
	InteractionType string    `gorm:"column:interaction_type" json:"interaction_type"`
	EngagementScore float64   `gorm:"column:engagement_score" json:"engagement_score"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
}

func (InteractionRecord) TableName() string {
	return "user_interactions"
}

type ContentTag struct {
	ID       string `gorm:"column:id;primaryKey" json:"id"`
	Name     string `gorm:"column:name;not null" json:"name"`
	Category string `gorm:"column:category;not null" json:"category"`
}

func (ContentTag) TableName() string {
	return "content_tags"
}

type ContentTagRelation struct {
	ContentID      string  `gorm:"column:content_id;primaryKey" json:"content_id"`
	TagID          string  `gorm:"column:tag_id;primaryKey" json:"tag_id"`
	RelevanceScore float64 `gorm:"column:relevance_score" json:"relevance_score"`
}

func (ContentTagRelation) TableName() string {
	return "content_tag_relations"
}

// ContentItem is a catalog entry addressable by id.
type ContentItem struct {
	ID          string `gorm:"column:id;primaryKey" json:"id"`
	Title       string `gorm:"column:title;not null" json:"title"`
	ContentType string `gorm:"column:content_type" json:"content_type"`
	URL         string `gorm:"column:url" json:"url"`
	Published   bool   `gorm:"column:published;default:true" json:"published"`
}

func (ContentItem) TableName() string {
	return "contents"
}

// ChatTurn is one stored chat message, read-only here.
type ChatTurn struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;not null;index" json:"user_id"`
	Role      string    `gorm:"column:role;not null" json:"role"`
	Content   string    `gorm:"column:content;type:text" json:"content"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (ChatTurn) TableName() string {
	return "chat_messages"
}
