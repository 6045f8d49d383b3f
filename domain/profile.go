package domain

import "time"

const (
	StagePlanning   = "planning"
	StagePregnant   = "pregnant"
	StagePostpartum = "postpartum"
)

type Profile struct {
	UserID        string     `gorm:"column:user_id;primaryKey" json:"user_id"`
	DisplayName   string     `gorm:"column:display_name" json:"display_name"`
	Stage         string     `gorm:"column:stage" json:"stage"`
	DueDate       *time.Time `gorm:"column:due_date" json:"due_date,omitempty"`
	BabyBirthDate *time.Time `gorm:"column:baby_birth_date" json:"baby_birth_date,omitempty"`
	SingleParent  bool       `gorm:"column:single_parent;default:false" json:"single_parent"`
	CreatedAt     time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// PregnancyWeek returns the gestational week at now, or 0 when unknown.
func (p Profile) PregnancyWeek(now time.Time) int {
	if p.Stage != StagePregnant || p.DueDate == nil {
		return 0
	}
	daysLeft := int(p.DueDate.Sub(now).Hours() / 24)
	week := 40 - daysLeft/7
	if week < 1 {
		return 1
	}
	if week > 42 {
		return 42
	}
	return week
}

// BabyAgeWeeks returns the baby's age in whole weeks, or -1 when unknown.
func (p Profile) BabyAgeWeeks(now time.Time) int {
	if p.BabyBirthDate == nil || now.Before(*p.BabyBirthDate) {
		return -1
	}
	return int(now.Sub(*p.BabyBirthDate).Hours() / 24 / 7)
}
