package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Tag taxonomy shared by the signal prompt and response validation.
const (
	TagPartnerAbsent     = "partner_absent"
	TagLonely            = "tag_lonely"
	TagSingleParent      = "single_parent"
	TagSupportLow        = "support_low"
	TagStressHigh        = "stress_high"
	TagSleepPoor         = "sleep_poor"
	TagOverwhelmed       = "overwhelmed"
	TagIntrusiveThoughts = "intrusive_thoughts"
	TagHarmThoughts      = "harm_thoughts"
	TagIsolation         = "isolation"
)

type TaxonomyTag struct {
	Code        string
	Description string
	Critical    bool
}

var Taxonomy = []TaxonomyTag{
	{Code: TagPartnerAbsent, Description: "absent or unavailable partner / main support figure"},
	{Code: TagLonely, Description: "expresses loneliness"},
	{Code: TagSingleParent, Description: "parenting alone"},
	{Code: TagSupportLow, Description: "little practical or emotional support"},
	{Code: TagStressHigh, Description: "high stress"},
	{Code: TagSleepPoor, Description: "poor or fragmented sleep"},
	{Code: TagOverwhelmed, Description: "feels overwhelmed"},
	{Code: TagIntrusiveThoughts, Description: "intrusive or frightening thoughts", Critical: true},
	{Code: TagHarmThoughts, Description: "thoughts of self-harm", Critical: true},
	{Code: TagIsolation, Description: "socially isolated"},
}

// CriticalTags in alert precedence order.
var CriticalTags = []string{TagHarmThoughts, TagIntrusiveThoughts}

func IsTaxonomyTag(code string) bool {
	for _, t := range Taxonomy {
		if t.Code == code {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityAlert     Priority = "alert"
	PriorityStress    Priority = "stress"
	PrioritySupport   Priority = "support"
	PriorityBelonging Priority = "belonging"
	PriorityHabit     Priority = "habit"
)

type RiskBand string

const (
	RiskLow      RiskBand = "low"
	RiskMedium   RiskBand = "medium"
	RiskHigh     RiskBand = "high"
	RiskCritical RiskBand = "critical"
)

type Scores struct {
	Stress  int `json:"stress"`
	Sleep   int `json:"sleep"`
	Support int `json:"support"`
	Mood    int `json:"mood"`
}

// SignalSnapshot is immutable once written; the newest created_at wins.
type SignalSnapshot struct {
	ID        string                      `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	UserID    string                      `gorm:"column:user_id;not null;index:idx_signals_user_created,priority:1" json:"user_id"`
	Tags      datatypes.JSONSlice[string] `gorm:"column:tags;type:jsonb" json:"tags"`
	Stress    int                         `gorm:"column:stress_score" json:"-"`
	Sleep     int                         `gorm:"column:sleep_score" json:"-"`
	Support   int                         `gorm:"column:support_score" json:"-"`
	Mood      int                         `gorm:"column:mood_score" json:"-"`
	Priority  Priority                    `gorm:"column:priority;not null" json:"priority"`
	RiskLevel int                         `gorm:"column:risk_level;not null" json:"risk_level"`
	Provider  string                      `gorm:"column:provider;not null" json:"provider"`
	CreatedAt time.Time                   `gorm:"column:created_at;not null;index:idx_signals_user_created,priority:2" json:"created_at"`
}

func (SignalSnapshot) TableName() string {
	return "signal_snapshots"
}

func (s SignalSnapshot) Scores() Scores {
	return Scores{Stress: s.Stress, Sleep: s.Sleep, Support: s.Support, Mood: s.Mood}
}

func (s SignalSnapshot) HasTag(code string) bool {
	for _, t := range s.Tags {
		if t == code {
			return true
		}
	}
	return false
}

// BandFor maps a 0-10 risk level onto its routing band.
func BandFor(level int) RiskBand {
	switch {
	case level >= 8:
		return RiskCritical
	case level >= 5:
		return RiskHigh
	case level >= 2:
		return RiskMedium
	default:
		return RiskLow
	}
}
