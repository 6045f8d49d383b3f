package domain

import "time"

type PlanItemType string

const (
	PlanCheckIn PlanItemType = "check-in"
	PlanContent PlanItemType = "content"
	PlanHabit   PlanItemType = "habit"
	PlanAlert   PlanItemType = "alert"
	PlanClosure PlanItemType = "closure"
)

type Tone string

const (
	ToneWarm       Tone = "warm"
	ToneMotivating Tone = "motivating"
	ToneUrgent     Tone = "urgent"
)

func (t Tone) Valid() bool {
	return t == ToneWarm || t == ToneMotivating || t == ToneUrgent
}

type Rationale struct {
	Priority Priority `json:"priority"`
	Tags     []string `json:"tags"`
	Scores   Scores   `json:"scores"`
	Reasons  []string `json:"reasons"`
}

type MessagePlanItem struct {
	ScheduledAt time.Time    `json:"scheduled_at"`
	Type        PlanItemType `json:"type"`
	MessageText string       `json:"message_text"`
	CTA         string       `json:"cta,omitempty"`
	ContentID   string       `json:"content_id,omitempty"`
	Provider    string       `json:"provider"`
	Rationale   Rationale    `json:"rationale"`
}

type DailyPlan struct {
	UserID        string            `json:"user_id"`
	Day           string            `json:"day"`
	GeneratedAt   time.Time         `json:"generated_at"`
	FrequencyCap  int               `json:"frequency_cap"`
	SnapshotID    string            `json:"snapshot_id,omitempty"`
	SnapshotStale bool              `json:"snapshot_stale"`
	Items         []MessagePlanItem `json:"items"`
}

// NotificationSettings holds the user-adjustable daily frequency cap.
type NotificationSettings struct {
	UserID       string    `gorm:"column:user_id;primaryKey" json:"user_id"`
	FrequencyCap int       `gorm:"column:frequency_cap;not null" json:"frequency_cap"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (NotificationSettings) TableName() string {
	return "notification_settings"
}

type FrequencyOutcome struct {
	FrequencyCap int  `json:"frequency_cap"`
	Changed      bool `json:"changed"`
}

// Copy is the composer output.
type Copy struct {
	Text     string `json:"text"`
	CTA      string `json:"cta,omitempty"`
	Provider string `json:"provider"`
	Fallback bool   `json:"fallback"`
}
