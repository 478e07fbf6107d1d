package gamification

import (
	"time"

	"study-progress-system/utils"
)

// StreakResult is a consecutive-day count. Capped is set when the walk stopped
// at its lookback limit instead of at a day without activity.
type StreakResult struct {
	Days   int  `json:"days"`
	Capped bool `json:"capped"`
}

// ConsecutiveDays walks back from today one day at a time while the day is in
// active (keyed by utils.DayKey), visiting at most limit days.
func ConsecutiveDays(active map[string]bool, today time.Time, limit int) StreakResult {
	var res StreakResult
	day := utils.StartOfDay(today)
	for res.Days < limit {
		if !active[utils.DayKey(day)] {
			return res
		}
		res.Days++
		day = day.AddDate(0, 0, -1)
	}
	res.Capped = limit > 0
	return res
}
