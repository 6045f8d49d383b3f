package preferences

import (
	"math"
	"sort"

	"maternityCare/domain"
)

const (
	perCategoryLimit = 10
	weightFloor      = 0.1
	weightScale      = 5.0
)

type tagStats struct {
	TagID           string
	TagName         string
	Category        string
	Count           int
	TotalEngagement float64
}

type scoredTag struct {
	tagStats
	AvgEngagement   float64
	FrequencyFactor float64
	Weight          float64
}

// Weight is min(1, avg * log2(count+1) / 5), rounded to 6 decimals so
// repeated runs store identical values.
func Weight(count int, avgEngagement float64) float64 {
	if count <= 0 || avgEngagement <= 0 {
		return 0
	}
	w := avgEngagement * math.Log2(float64(count+1)) / weightScale
	return round6(math.Min(1, w))
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// aggregate folds tag interactions in input order. Rows arrive sorted by the
// repository, so floating point accumulation order is stable.
func aggregate(rows []domain.TagInteraction) []tagStats {
	index := make(map[string]int)
	var out []tagStats

	for _, r := range rows {
		i, ok := index[r.TagID]
		if !ok {
			i = len(out)
			index[r.TagID] = i
			out = append(out, tagStats{TagID: r.TagID, TagName: r.TagName, Category: r.Category})
		}
		out[i].Count++
		out[i].TotalEngagement += clamp01(r.EngagementScore) * clamp01(r.RelevanceScore)
	}

	return out
}

// selectTop scores every tag, keeps the ten strongest per category and then
// drops anything at or below the floor.
func selectTop(stats []tagStats, excluded map[string]struct{}) []scoredTag {
	byCategory := make(map[string][]scoredTag)
	var categories []string

	for _, s := range stats {
		if _, skip := excluded[s.TagID]; skip {
			continue
		}
		avg := s.TotalEngagement / float64(s.Count)
		scored := scoredTag{
			tagStats:        s,
			AvgEngagement:   round6(avg),
			FrequencyFactor: round6(math.Log2(float64(s.Count + 1))),
			Weight:          Weight(s.Count, avg),
		}
		if _, ok := byCategory[s.Category]; !ok {
			categories = append(categories, s.Category)
		}
		byCategory[s.Category] = append(byCategory[s.Category], scored)
	}
	sort.Strings(categories)

	var out []scoredTag
	for _, c := range categories {
		tags := byCategory[c]
		sort.SliceStable(tags, func(i, j int) bool {
			if tags[i].Weight != tags[j].Weight {
				return tags[i].Weight > tags[j].Weight
			}
			return tags[i].TagID < tags[j].TagID
		})
		if len(tags) > perCategoryLimit {
			tags = tags[:perCategoryLimit]
		}
		for _, t := range tags {
			if t.Weight > weightFloor {
				out = append(out, t)
			}
		}
	}

	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
