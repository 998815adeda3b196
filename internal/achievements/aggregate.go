package achievements

import (
	"math"
)

// TotalExperience sums the experience of unlocked achievements.
func TotalExperience(list []UserAchievement) int {
	total := 0
	for _, a := range list {
		if a.IsUnlocked {
			total += a.ExperienceValue
		}
	}
	return total
}

// GroupByCategory partitions list by category. Groups appear in order of
// first occurrence and keep fetch order inside.
func GroupByCategory(list []UserAchievement) []CategoryGroup {
	var groups []CategoryGroup
	index := map[string]int{}
	for _, a := range list {
		i, ok := index[a.Category]
		if !ok {
			i = len(groups)
			index[a.Category] = i
			groups = append(groups, CategoryGroup{Category: a.Category})
		}
		groups[i].Achievements = append(groups[i].Achievements, a)
	}
	return groups
}

// CompletionPercentage is the rounded share of unlocked achievements, 0 for
// an empty list.
func CompletionPercentage(list []UserAchievement) int {
	if len(list) == 0 {
		return 0
	}
	unlocked := 0
	for _, a := range list {
		if a.IsUnlocked {
			unlocked++
		}
	}
	return int(math.Round(float64(unlocked) / float64(len(list)) * 100))
}
