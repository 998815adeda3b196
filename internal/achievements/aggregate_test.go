package achievements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ua(id, exp int, category string, unlocked bool) UserAchievement {
	return UserAchievement{
		Achievement: Achievement{ID: id, ExperienceValue: exp, Category: category},
		IsUnlocked:  unlocked,
	}
}

func TestAggregates(t *testing.T) {
	list := []UserAchievement{
		ua(1, 10, "fuerza", true),
		ua(2, 20, "cardio", false),
		ua(3, 5, "fuerza", true),
	}

	assert.Equal(t, 15, TotalExperience(list))
	assert.Equal(t, 67, CompletionPercentage(list))
}

func TestAggregates_Empty(t *testing.T) {
	assert.Equal(t, 0, TotalExperience(nil))
	assert.Equal(t, 0, CompletionPercentage(nil))
	assert.Empty(t, GroupByCategory(nil))
}

func TestCompletionPercentage_Rounding(t *testing.T) {
	cases := map[string]struct {
		unlocked, total int
		want            int
	}{
		"none":        {0, 4, 0},
		"all":         {4, 4, 100},
		"one third":   {1, 3, 33},
		"half":        {1, 2, 50},
		"one eighth":  {1, 8, 13},
		"five eighth": {5, 8, 63},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			list := make([]UserAchievement, tc.total)
			for i := 0; i < tc.unlocked; i++ {
				list[i].IsUnlocked = true
			}
			assert.Equal(t, tc.want, CompletionPercentage(list))
		})
	}
}

func TestGroupByCategory_StableOrder(t *testing.T) {
	list := []UserAchievement{
		ua(1, 0, "fuerza", true),
		ua(2, 0, "cardio", false),
		ua(3, 0, "fuerza", false),
		ua(4, 0, "constancia", true),
		ua(5, 0, "cardio", true),
	}

	groups := GroupByCategory(list)
	require.Len(t, groups, 3)

	assert.Equal(t, "fuerza", groups[0].Category)
	assert.Equal(t, "cardio", groups[1].Category)
	assert.Equal(t, "constancia", groups[2].Category)

	ids := func(g CategoryGroup) []int {
		var out []int
		for _, a := range g.Achievements {
			out = append(out, a.ID)
		}
		return out
	}
	assert.Equal(t, []int{1, 3}, ids(groups[0]))
	assert.Equal(t, []int{2, 5}, ids(groups[1]))
	assert.Equal(t, []int{4}, ids(groups[2]))
}
