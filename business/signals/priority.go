package signals

import "maternityCare/domain"

const (
	stressThreshold  = 70
	supportThreshold = 40
)

// DerivePriority picks the single focus for a snapshot. The order matters:
// a critical tag always wins, then stress, support and belonging.
func DerivePriority(tags []string, scores domain.Scores) domain.Priority {
	has := func(code string) bool {
		for _, t := range tags {
			if t == code {
				return true
			}
		}
		return false
	}

	for _, critical := range domain.CriticalTags {
		if has(critical) {
			return domain.PriorityAlert
		}
	}
	if scores.Stress > stressThreshold {
		return domain.PriorityStress
	}
	if scores.Support < supportThreshold || has(domain.TagLonely) {
		return domain.PrioritySupport
	}
	// loneliness already routed to support above
	if has(domain.TagSingleParent) {
		return domain.PriorityBelonging
	}
	return domain.PriorityHabit
}

// normalizeTags drops duplicates and returns the tags in taxonomy order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		seen[t] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for _, t := range domain.Taxonomy {
		if _, ok := seen[t.Code]; ok {
			out = append(out, t.Code)
		}
	}
	return out
}
