package plan

import (
	"fmt"
	"sort"
	"time"

	"maternityCare/domain"
)

type slot struct {
	Type    domain.PlanItemType
	At      time.Time
	Content *domain.ContentItem
	Reasons []string
}

// importance decides which items survive the frequency cap.
var importance = map[domain.PlanItemType]int{
	domain.PlanAlert:   0,
	domain.PlanCheckIn: 1,
	domain.PlanContent: 2,
	domain.PlanHabit:   3,
	domain.PlanClosure: 4,
}

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// selectSlots lays out the day for a priority and risk band.
func selectSlots(day time.Time, priority domain.Priority, band domain.RiskBand, content *domain.ContentItem) []slot {
	var slots []slot

	if priority == domain.PriorityAlert {
		slots = append(slots, slot{
			Type:    domain.PlanAlert,
			At:      at(day, 8, 0),
			Reasons: []string{"critical signal: reach out before anything else"},
		})
	}

	slots = append(slots, slot{
		Type:    domain.PlanCheckIn,
		At:      at(day, 8, 30),
		Reasons: []string{"daily morning check-in"},
	})

	if band == domain.RiskHigh || band == domain.RiskCritical {
		slots = append(slots, slot{
			Type:    domain.PlanCheckIn,
			At:      at(day, 14, 0),
			Reasons: []string{fmt.Sprintf("extra mid-day check-in for %s risk", band)},
		})
	}

	if content != nil {
		slots = append(slots, slot{
			Type:    domain.PlanContent,
			At:      at(day, 12, 0),
			Content: content,
			Reasons: []string{fmt.Sprintf("content matched to preferences: %s", content.Title)},
		})
	}

	slots = append(slots,
		slot{Type: domain.PlanHabit, At: at(day, 17, 0), Reasons: []string{habitReason(priority)}},
		slot{Type: domain.PlanClosure, At: at(day, 20, 30), Reasons: []string{"end of day closure"}},
	)

	return slots
}

// capSlots keeps the most important slots up to the cap and returns them in
// time order.
func capSlots(slots []slot, frequencyCap int) []slot {
	ranked := make([]slot, len(slots))
	copy(ranked, slots)
	sort.SliceStable(ranked, func(i, j int) bool {
		if importance[ranked[i].Type] != importance[ranked[j].Type] {
			return importance[ranked[i].Type] < importance[ranked[j].Type]
		}
		return ranked[i].At.Before(ranked[j].At)
	})

	if frequencyCap < 0 {
		frequencyCap = 0
	}
	if len(ranked) > frequencyCap {
		ranked = ranked[:frequencyCap]
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].At.Before(ranked[j].At)
	})
	return ranked
}

func habitReason(p domain.Priority) string {
	switch p {
	case domain.PriorityStress:
		return "stress-reducing habit"
	case domain.PrioritySupport:
		return "habit that builds a support network"
	case domain.PriorityBelonging:
		return "habit that connects with other parents"
	default:
		return "small daily wellbeing habit"
	}
}

func toneFor(p domain.Priority, t domain.PlanItemType) domain.Tone {
	switch {
	case t == domain.PlanAlert:
		return domain.ToneUrgent
	case p == domain.PriorityHabit && t == domain.PlanHabit:
		return domain.ToneMotivating
	default:
		return domain.ToneWarm
	}
}
