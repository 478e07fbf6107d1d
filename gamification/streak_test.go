package gamification

import (
	"testing"
	"time"

	"study-progress-system/utils"

	"github.com/stretchr/testify/assert"
)

func activeDays(today time.Time, offsets ...int) map[string]bool {
	m := map[string]bool{}
	for _, o := range offsets {
		m[utils.DayKey(today.AddDate(0, 0, -o))] = true
	}
	return m
}

func TestConsecutiveDays(t *testing.T) {
	today := time.Date(2026, 10, 14, 16, 30, 0, 0, time.UTC)
	cases := []struct {
		Desc   string
		Active map[string]bool
		Limit  int
		Want   StreakResult
	}{
		{"three days then a gap", activeDays(today, 0, 1, 2, 4), 365, StreakResult{Days: 3}},
		{"no history", map[string]bool{}, 365, StreakResult{}},
		{"gap today breaks everything", activeDays(today, 1, 2, 3), 365, StreakResult{}},
		{"single day", activeDays(today, 0), 365, StreakResult{Days: 1}},
		{"hits the cap", activeDays(today, 0, 1, 2, 3, 4, 5), 4, StreakResult{Days: 4, Capped: true}},
		{"zero limit", activeDays(today, 0), 0, StreakResult{}},
	}
	for _, tc := range cases {
		t.Run(tc.Desc, func(t *testing.T) {
			assert.Equal(t, tc.Want, ConsecutiveDays(tc.Active, today, tc.Limit))
		})
	}
}
