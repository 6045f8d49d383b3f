package domain

import (
	"time"

	"gorm.io/datatypes"
)

type EventKind string

const (
	EventAppOpen             EventKind = "app_open"
	EventChatMessage         EventKind = "chat_message"
	EventMoodCheckin         EventKind = "mood_checkin"
	EventSleepLog            EventKind = "sleep_log"
	EventFeedingLog          EventKind = "feeding_log"
	EventContentView         EventKind = "content_view"
	EventContentLike         EventKind = "content_like"
	EventContentSkip         EventKind = "content_skip"
	EventNotificationOpen    EventKind = "notification_open"
	EventNotificationDismiss EventKind = "notification_dismiss"
	EventPlanFeedback        EventKind = "plan_feedback"
	EventOnboardingComplete  EventKind = "onboarding_complete"
)

var eventKinds = map[EventKind]struct{}{
	EventAppOpen:             {},
	EventChatMessage:         {},
	EventMoodCheckin:         {},
	EventSleepLog:            {},
	EventFeedingLog:          {},
	EventContentView:         {},
	EventContentLike:         {},
	EventContentSkip:         {},
	EventNotificationOpen:    {},
	EventNotificationDismiss: {},
	EventPlanFeedback:        {},
	EventOnboardingComplete:  {},
}

func (k EventKind) Valid() bool {
	_, ok := eventKinds[k]
	return ok
}

// BehavioralEvent is append-only: rows are inserted once and never updated.
type BehavioralEvent struct {
	ID        string         `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	UserID    string         `gorm:"column:user_id;not null;index:idx_events_user_created,priority:1" json:"user_id"`
	Kind      EventKind      `gorm:"column:kind;not null" json:"kind"`
	Payload   datatypes.JSON `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;index:idx_events_user_created,priority:2" json:"created_at"`
}

func (BehavioralEvent) TableName() string {
	return "behavioral_events"
}
