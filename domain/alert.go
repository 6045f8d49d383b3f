package domain

import "time"

// AlertRecord is created unresolved and resolved exactly once by a reviewer.
// At most one unresolved alert exists per (user, alert type).
type AlertRecord struct {
	ID            string     `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	UserID        string     `gorm:"column:user_id;not null;index;uniqueIndex:idx_alerts_open_type,priority:1,where:resolved = false" json:"user_id"`
	SnapshotID    string     `gorm:"column:snapshot_id" json:"snapshot_id"`
	AlertType     string     `gorm:"column:alert_type;not null;uniqueIndex:idx_alerts_open_type,priority:2,where:resolved = false" json:"alert_type"`
	Severity      int        `gorm:"column:severity;not null" json:"severity"`
	TriggerReason string     `gorm:"column:trigger_reason" json:"trigger_reason"`
	Resolved      bool       `gorm:"column:resolved;not null;default:false" json:"resolved"`
	ResolvedBy    string     `gorm:"column:resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt    *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at;not null" json:"created_at"`
}

func (AlertRecord) TableName() string {
	return "alerts"
}
