package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	PreferenceSourceExplicit   = "explicit"
	PreferenceSourceAIInferred = "ai_inferred"
)

// PreferenceWeight is unique per (user, tag, preference_type). Inferred rows
// never replace explicit ones.
type PreferenceWeight struct {
	ID             uint              `gorm:"primaryKey" json:"-"`
	UserID         string            `gorm:"column:user_id;not null;uniqueIndex:idx_pref_user_tag_type,priority:1" json:"user_id"`
	TagID          string            `gorm:"column:tag_id;not null;uniqueIndex:idx_pref_user_tag_type,priority:2" json:"tag_id"`
	PreferenceType string            `gorm:"column:preference_type;not null;uniqueIndex:idx_pref_user_tag_type,priority:3" json:"preference_type"`
	Weight         float64           `gorm:"column:weight;not null" json:"weight"`
	Explicit       bool              `gorm:"column:explicit;not null;default:false" json:"explicit"`
	Source         string            `gorm:"column:source;not null" json:"source"`
	Metadata       datatypes.JSONMap `gorm:"column:metadata;type:jsonb" json:"metadata"`
	UpdatedAt      time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

func (PreferenceWeight) TableName() string {
	return "preference_weights"
}

// TagInteraction is one interaction projected onto one tag.
type TagInteraction struct {
	InteractionID   uint
	ContentID       string
	TagID           string
	TagName         string
	Category        string
	EngagementScore float64
	RelevanceScore  float64
}

type InferenceResult struct {
	Inferred     []PreferenceWeight `json:"inferred"`
	UpdatedCount int64              `json:"updated_count"`
}
