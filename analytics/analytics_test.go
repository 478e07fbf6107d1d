package analytics

import (
	"testing"
	"time"

	"study-progress-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday
var today = time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)

func session(subject string, daysAgo, minutes, focus int) models.StudySession {
	d := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo)
	return models.StudySession{Subject: subject, Date: d, Duration: minutes, FocusRating: focus}
}

func task(p models.TaskPriority, status models.TaskStatus, completedDaysAgo int) models.Task {
	t := models.Task{Priority: p, Status: status, DueDate: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)}
	if status == models.StatusCompleted {
		at := today.AddDate(0, 0, -completedDaysAgo)
		t.CompletedAt = &at
	}
	return t
}

func TestEmptyHistory(t *testing.T) {
	assert.Empty(t, SubjectBreakdown(nil))
	assert.Empty(t, PriorityCompletion(nil))

	pattern := WeekdayPattern(nil)
	require.Len(t, pattern, 7)
	for i, wd := range pattern {
		assert.Equal(t, i, wd.Weekday)
		assert.Zero(t, wd.Sessions)
		assert.Zero(t, wd.AvgDuration)
		assert.Zero(t, wd.AvgFocus)
	}
	assert.Equal(t, "Monday", pattern[0].Day)
	assert.Equal(t, "Sunday", pattern[6].Day)

	stats := Summarize(nil, nil, today)
	assert.Equal(t, UserStats{}, stats)
}

func TestSubjectBreakdown(t *testing.T) {
	got := SubjectBreakdown([]models.StudySession{
		session("Math", 0, 60, 8),
		session("Physics", 1, 30, 5),
		session("Math", 2, 30, 7),
		session("Biology", 0, 30, 6),
	})
	require.Len(t, got, 3)
	assert.Equal(t, SubjectStat{Subject: "Math", TotalMinutes: 90, Hours: 1.5, Sessions: 2, AvgFocus: 7.5}, got[0])
	// ties break alphabetically
	assert.Equal(t, "Biology", got[1].Subject)
	assert.Equal(t, "Physics", got[2].Subject)
}

func TestPriorityCompletion(t *testing.T) {
	got := PriorityCompletion([]models.Task{
		task(models.PriorityUrgent, models.StatusCompleted, 0),
		task(models.PriorityLow, models.StatusPending, 0),
		task(models.PriorityLow, models.StatusCompleted, 1),
		task(models.PriorityLow, models.StatusInProgress, 0),
	})
	require.Len(t, got, 2)
	assert.Equal(t, PriorityStat{Priority: models.PriorityLow, Total: 3, Completed: 1, CompletionRate: 33.3}, got[0])
	assert.Equal(t, PriorityStat{Priority: models.PriorityUrgent, Total: 1, Completed: 1, CompletionRate: 100}, got[1])
}

func TestDailySeries(t *testing.T) {
	got := DailySeries([]models.StudySession{
		session("Math", 0, 30, 5),
		session("Math", 0, 60, 5),
		session("Math", 2, 45, 5),
		session("Math", 9, 45, 5),
	}, today, 3)
	assert.Equal(t, []DayPoint{
		{Date: "2026-10-12", Minutes: 45, Hours: 0.8},
		{Date: "2026-10-13", Minutes: 0, Hours: 0},
		{Date: "2026-10-14", Minutes: 90, Hours: 1.5},
	}, got)
	assert.Empty(t, DailySeries(nil, today, 0))
}

func TestWeekdayPattern(t *testing.T) {
	got := WeekdayPattern([]models.StudySession{
		session("Math", 0, 30, 5), // Wednesday
		session("Math", 7, 45, 8), // Wednesday a week earlier
		session("Math", 2, 60, 9), // Monday
	})
	assert.Equal(t, WeekdayStat{Weekday: 2, Day: "Wednesday", AvgDuration: 37.5, AvgFocus: 6.5, Sessions: 2}, got[2])
	assert.Equal(t, WeekdayStat{Weekday: 0, Day: "Monday", AvgDuration: 60, AvgFocus: 9, Sessions: 1}, got[0])
	assert.Zero(t, got[6].Sessions)
}

func TestMonthlySeries(t *testing.T) {
	aug := time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC)
	tasks := []models.Task{
		task(models.PriorityHigh, models.StatusCompleted, 0),
		{Status: models.StatusCompleted, CompletedAt: &aug},
		task(models.PriorityHigh, models.StatusPending, 0),
	}
	sessions := []models.StudySession{
		session("Math", 0, 90, 5),
		{Date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), Duration: 120},
		{Date: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), Duration: 600},
	}

	got := MonthlySeries(tasks, sessions, today, 12)
	require.Len(t, got, 12)
	assert.Equal(t, "2025-11", got[0].Month)
	assert.Equal(t, "2026-10", got[11].Month)
	assert.Equal(t, "October 2026", got[11].MonthName)
	assert.Equal(t, 1, got[11].TasksCompleted)
	assert.Equal(t, 1.5, got[11].StudyHours)
	assert.Equal(t, MonthPoint{Month: "2026-09", MonthName: "September 2026", StudyHours: 2}, got[10])
	assert.Equal(t, 1, got[9].TasksCompleted)
}

func TestMonthlySeriesAcrossShortMonths(t *testing.T) {
	endOfMarch := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	got := MonthlySeries(nil, nil, endOfMarch, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"2026-01", "2026-02", "2026-03"}, []string{got[0].Month, got[1].Month, got[2].Month})
}

func TestFocusTrend(t *testing.T) {
	got := FocusTrend([]models.StudySession{session("A", 0, 10, 9), session("A", 1, 10, 4)})
	assert.Equal(t, []FocusPoint{{Date: "2026-10-13", Focus: 4}, {Date: "2026-10-14", Focus: 9}}, got)
}

func TestSummarize(t *testing.T) {
	overdue := models.Task{Status: models.StatusPending, DueDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)}
	lateButDone := task(models.PriorityLow, models.StatusCompleted, 0)
	lateButDone.DueDate = overdue.DueDate

	got := Summarize(
		[]models.Task{overdue, lateButDone, task(models.PriorityLow, models.StatusInProgress, 0)},
		[]models.StudySession{session("A", 0, 50, 6), session("B", 1, 40, 9)},
		today,
	)
	assert.Equal(t, UserStats{
		TotalTasks: 3, CompletedTasks: 1, PendingTasks: 1, InProgressTasks: 1, OverdueTasks: 1,
		CompletionRate: 33.3, TotalStudyMinutes: 90, StudyHours: 1.5, Sessions: 2, AvgFocus: 7.5,
	}, got)
}

func TestWeekly(t *testing.T) {
	got := Weekly(
		[]models.Task{task(models.PriorityLow, models.StatusCompleted, 1), task(models.PriorityLow, models.StatusCompleted, 5)},
		[]models.StudySession{session("A", 0, 120, 5), session("A", 2, 60, 5), session("A", 3, 600, 5)},
		2,
		today,
	)
	assert.Equal(t, WeeklyProgress{
		WeekStart: "2026-10-12", StudiedHours: 3, GoalHours: 14, ProgressPercentage: 21.4, TasksCompleted: 1,
	}, got)

	capped := Weekly(nil, []models.StudySession{session("A", 0, 600, 5)}, 0.5, today)
	assert.Equal(t, 100.0, capped.ProgressPercentage)
}

func TestTodaySummary(t *testing.T) {
	dueToday := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	tasks := []models.Task{
		{Status: models.StatusCompleted, DueDate: dueToday},
		{Status: models.StatusPending, DueDate: dueToday.Add(20 * time.Hour)},
		{Status: models.StatusCompleted, DueDate: dueToday.AddDate(0, 0, 1)},
	}
	sessions := []models.StudySession{session("A", 0, 45, 5), session("B", 0, 45, 5), session("A", 1, 60, 5)}

	assert.Equal(t, DashboardSummary{
		TodaysTasks: 2, CompletedToday: 1, StudyHoursToday: 1.5, CompletionRateToday: 50,
	}, TodaySummary(tasks, sessions, today))
	assert.Equal(t, DashboardSummary{}, TodaySummary(nil, nil, today))
}

func TestRecommendations(t *testing.T) {
	due := func(p models.TaskPriority, y int, m time.Month, d int) models.Task {
		return models.Task{Priority: p, Status: models.StatusPending, DueDate: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
	}
	const (
		pomodoro  = "Try the Pomodoro technique (25min work, 5min break) to improve focus"
		quieter   = "Consider studying in a quieter environment or using noise-canceling headphones"
		extend    = "Great focus! Consider extending study sessions to 45-60 minutes"
		moreTime  = "Aim to increase your daily study time gradually by 15-30 minutes"
		burnout   = "Take more breaks to avoid burnout - quality over quantity"
		alternate = "Try alternating between different subjects to keep your mind engaged"
		overdue   = "Address overdue tasks immediately to get back on track"
		upcoming  = "Prioritize tasks due within the next 3 days"
	)

	tests := []struct {
		Desc     string
		Sessions []models.StudySession
		Tasks    []models.Task
		Want     []string
	}{
		{
			Desc: "no history",
			Want: generalRecommendations,
		},
		{
			Desc:     "low focus on one subject",
			Sessions: []models.StudySession{session("Math", 0, 30, 4), session("Math", 1, 30, 4)},
			Want:     []string{pomodoro, quieter, moreTime, alternate},
		},
		{
			Desc:     "high focus",
			Sessions: []models.StudySession{session("Math", 0, 100, 9), session("Art", 1, 100, 9)},
			Want:     []string{extend},
		},
		{
			Desc:     "long hours",
			Sessions: []models.StudySession{session("Math", 0, 300, 7), session("Art", 1, 300, 7)},
			Want:     []string{burnout},
		},
		{
			Desc:     "balanced history falls back to general advice",
			Sessions: []models.StudySession{session("Math", 0, 60, 7), session("Art", 1, 60, 7)},
			Want:     generalRecommendations,
		},
		{
			Desc: "pending task deadlines",
			Tasks: []models.Task{
				due(models.PriorityHigh, 2026, 10, 20),
				due(models.PriorityLow, 2026, 10, 1),
				due(models.PriorityMedium, 2026, 10, 16),
			},
			Want: []string{"Focus on 1 high-priority tasks first", overdue, upcoming},
		},
		{
			Desc:     "at most five",
			Sessions: []models.StudySession{session("Math", 0, 30, 3)},
			Tasks:    []models.Task{due(models.PriorityUrgent, 2026, 10, 1)},
			Want:     []string{pomodoro, quieter, moreTime, alternate, "Focus on 1 high-priority tasks first"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.Desc, func(t *testing.T) {
			assert.Equal(t, tc.Want, Recommendations(tc.Sessions, tc.Tasks, today))
		})
	}
}

func TestRecommendationsFallbackIsACopy(t *testing.T) {
	got := Recommendations(nil, nil, today)
	got[0] = "changed"
	assert.NotEqual(t, "changed", Recommendations(nil, nil, today)[0])
}
