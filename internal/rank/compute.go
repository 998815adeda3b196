package rank

import (
	"math"
	"time"

	"github.com/2beens/gymclient/internal/apiclient"
)

// UserRank is the rank record as the backend computes it. Compute builds the
// same record locally.
type UserRank struct {
	RankID                int            `json:"rankId"`
	RankName              string         `json:"rankName"`
	Color                 string         `json:"color"`
	Icon                  string         `json:"icon"`
	AssignedDate          apiclient.Date `json:"assignedDate"`
	DistinctDaysThisWeek  int            `json:"distinctDaysTrainedThisWeek"`
	DaysToNextRank        int            `json:"daysToNextRank"`
	ProgressPercentToNext float64        `json:"progressPercentToNextRank"`
	CurrentWeekNumber     int            `json:"currentWeekNumber"`
}

// Compute derives the rank for weeklyCount distinct training days from bands,
// which must be sorted by MinDays. It does no I/O.
func Compute(bands []Band, weeklyCount int, now time.Time) UserRank {
	if len(bands) == 0 {
		return UserRank{}
	}
	if weeklyCount < 0 {
		weeklyCount = 0
	}

	idx := bandIndex(bands, weeklyCount)
	band := bands[idx]
	_, week := now.ISOWeek()

	rank := UserRank{
		RankID:                band.ID,
		RankName:              band.Name,
		Color:                 band.Color,
		Icon:                  band.Icon,
		AssignedDate:          apiclient.NewDate(now),
		DistinctDaysThisWeek:  weeklyCount,
		ProgressPercentToNext: progress(band, weeklyCount, idx == len(bands)-1),
		CurrentWeekNumber:     week,
	}
	if idx < len(bands)-1 {
		rank.DaysToNextRank = max(0, bands[idx+1].MinDays-weeklyCount)
	}
	return rank
}

// bandIndex returns the band holding count, the top band when count is past
// every range, the bottom band when it is below every range.
func bandIndex(bands []Band, count int) int {
	top := len(bands) - 1
	if count >= bands[top].MinDays {
		return top
	}
	for i, b := range bands {
		if count >= b.MinDays && count <= b.MaxDays {
			return i
		}
	}
	// gap between bands: the highest band already reached
	idx := 0
	for i, b := range bands {
		if count >= b.MinDays {
			idx = i
		}
	}
	return idx
}

func progress(band Band, count int, isTop bool) float64 {
	if isTop || count >= band.MaxDays {
		return 100
	}
	span := band.MaxDays - band.MinDays
	if span <= 0 {
		return 100
	}
	pct := float64(count-band.MinDays) / float64(span) * 100
	return math.Min(100, math.Max(0, pct))
}
