// Package analytics groups a user's task and study-session history into the
// read-only summaries shown on dashboards. Inputs are rows already loaded by the
// caller; nothing here touches the database.
package analytics

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"study-progress-system/gamification"
	"study-progress-system/models"
	"study-progress-system/utils"
)

type SubjectStat struct {
	Subject      string  `json:"subject"`
	TotalMinutes int     `json:"total_minutes"`
	Hours        float64 `json:"hours"`
	Sessions     int     `json:"sessions"`
	AvgFocus     float64 `json:"avg_focus"`
}

// SubjectBreakdown sums sessions per subject, largest total first
func SubjectBreakdown(sessions []models.StudySession) []SubjectStat {
	bySubject := map[string]*SubjectStat{}
	focus := map[string]int{}
	for _, s := range sessions {
		st, ok := bySubject[s.Subject]
		if !ok {
			st = &SubjectStat{Subject: s.Subject}
			bySubject[s.Subject] = st
		}
		st.TotalMinutes += s.Duration
		st.Sessions++
		focus[s.Subject] += s.FocusRating
	}

	out := make([]SubjectStat, 0, len(bySubject))
	for subject, st := range bySubject {
		st.Hours = gamification.StudyHours(st.TotalMinutes)
		st.AvgFocus = gamification.Round1(float64(focus[subject]) / float64(st.Sessions))
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalMinutes != out[j].TotalMinutes {
			return out[i].TotalMinutes > out[j].TotalMinutes
		}
		return out[i].Subject < out[j].Subject
	})
	return out
}

type PriorityStat struct {
	Priority       models.TaskPriority `json:"priority"`
	Total          int                 `json:"total"`
	Completed      int                 `json:"completed"`
	CompletionRate float64             `json:"completion_rate"`
}

// PriorityCompletion counts tasks per priority, skipping priorities with no tasks
func PriorityCompletion(tasks []models.Task) []PriorityStat {
	totals := map[models.TaskPriority]int{}
	done := map[models.TaskPriority]int{}
	for _, t := range tasks {
		totals[t.Priority]++
		if t.Status == models.StatusCompleted {
			done[t.Priority]++
		}
	}

	var out []PriorityStat
	for _, p := range models.Priorities {
		if totals[p] == 0 {
			continue
		}
		out = append(out, PriorityStat{
			Priority:       p,
			Total:          totals[p],
			Completed:      done[p],
			CompletionRate: percent(done[p], totals[p]),
		})
	}
	return out
}

type DayPoint struct {
	Date    string  `json:"date"`
	Minutes int     `json:"minutes"`
	Hours   float64 `json:"hours"`
}

// DailySeries returns one point per day for the last days days, oldest first
func DailySeries(sessions []models.StudySession, today time.Time, days int) []DayPoint {
	if days < 1 {
		return []DayPoint{}
	}
	minutes := map[string]int{}
	for _, s := range sessions {
		minutes[utils.DayKey(s.Date)] += s.Duration
	}

	out := make([]DayPoint, days)
	start := utils.StartOfDay(today).AddDate(0, 0, -(days - 1))
	for i := range out {
		key := utils.DayKey(start.AddDate(0, 0, i))
		out[i] = DayPoint{Date: key, Minutes: minutes[key], Hours: gamification.StudyHours(minutes[key])}
	}
	return out
}

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

type WeekdayStat struct {
	Weekday     int     `json:"weekday"` // Monday=0
	Day         string  `json:"day"`
	AvgDuration float64 `json:"avg_duration"`
	AvgFocus    float64 `json:"avg_focus"`
	Sessions    int     `json:"session_count"`
}

// WeekdayPattern averages sessions per weekday; always seven entries
func WeekdayPattern(sessions []models.StudySession) []WeekdayStat {
	var minutes, focus, count [7]int
	for _, s := range sessions {
		wd := utils.WeekdayIndex(s.Date)
		minutes[wd] += s.Duration
		focus[wd] += s.FocusRating
		count[wd]++
	}

	out := make([]WeekdayStat, 7)
	for i := range out {
		out[i] = WeekdayStat{Weekday: i, Day: weekdayNames[i], Sessions: count[i]}
		if count[i] > 0 {
			out[i].AvgDuration = gamification.Round1(float64(minutes[i]) / float64(count[i]))
			out[i].AvgFocus = gamification.Round1(float64(focus[i]) / float64(count[i]))
		}
	}
	return out
}

type MonthPoint struct {
	Month          string  `json:"month"`      // 2006-01
	MonthName      string  `json:"month_name"` // January 2006
	TasksCompleted int     `json:"tasks_completed"`
	StudyHours     float64 `json:"study_hours"`
}

// MonthlySeries covers the trailing months calendar months ending with today's, oldest first
func MonthlySeries(tasks []models.Task, sessions []models.StudySession, today time.Time, months int) []MonthPoint {
	if months < 1 {
		return []MonthPoint{}
	}
	const monthKey = "2006-01"
	completed := map[string]int{}
	for _, t := range tasks {
		if t.Status == models.StatusCompleted && t.CompletedAt != nil {
			completed[t.CompletedAt.UTC().Format(monthKey)]++
		}
	}
	minutes := map[string]int{}
	for _, s := range sessions {
		minutes[s.Date.UTC().Format(monthKey)] += s.Duration
	}

	out := make([]MonthPoint, months)
	first := utils.StartOfMonth(today).AddDate(0, -(months - 1), 0)
	for i := range out {
		m := first.AddDate(0, i, 0)
		key := m.Format(monthKey)
		out[i] = MonthPoint{
			Month:          key,
			MonthName:      m.Format("January 2006"),
			TasksCompleted: completed[key],
			StudyHours:     gamification.StudyHours(minutes[key]),
		}
	}
	return out
}

type FocusPoint struct {
	Date  string `json:"date"`
	Focus int    `json:"focus"`
}

// FocusTrend lists focus ratings of sessions given newest first, returned oldest first
func FocusTrend(newestFirst []models.StudySession) []FocusPoint {
	out := make([]FocusPoint, len(newestFirst))
	for i, s := range newestFirst {
		out[len(out)-1-i] = FocusPoint{Date: utils.DayKey(s.Date), Focus: s.FocusRating}
	}
	return out
}

type UserStats struct {
	TotalTasks        int     `json:"total_tasks"`
	CompletedTasks    int     `json:"completed_tasks"`
	PendingTasks      int     `json:"pending_tasks"`
	InProgressTasks   int     `json:"in_progress_tasks"`
	OverdueTasks      int     `json:"overdue_tasks"`
	CompletionRate    float64 `json:"completion_rate"`
	TotalStudyMinutes int     `json:"total_study_minutes"`
	StudyHours        float64 `json:"study_hours"`
	Sessions          int     `json:"sessions"`
	AvgFocus          float64 `json:"avg_focus"`
}

func Summarize(tasks []models.Task, sessions []models.StudySession, today time.Time) UserStats {
	var st UserStats
	day := utils.StartOfDay(today)
	for i := range tasks {
		t := &tasks[i]
		st.TotalTasks++
		switch t.Status {
		case models.StatusCompleted:
			st.CompletedTasks++
		case models.StatusInProgress:
			st.InProgressTasks++
		default:
			st.PendingTasks++
		}
		if t.IsOverdue(day) {
			st.OverdueTasks++
		}
	}
	st.CompletionRate = percent(st.CompletedTasks, st.TotalTasks)

	focus := 0
	for _, s := range sessions {
		st.TotalStudyMinutes += s.Duration
		focus += s.FocusRating
	}
	st.Sessions = len(sessions)
	st.StudyHours = gamification.StudyHours(st.TotalStudyMinutes)
	if st.Sessions > 0 {
		st.AvgFocus = gamification.Round1(float64(focus) / float64(st.Sessions))
	}
	return st
}

type WeeklyProgress struct {
	WeekStart          string  `json:"week_start"`
	StudiedHours       float64 `json:"studied_hours"`
	GoalHours          float64 `json:"goal_hours"`
	ProgressPercentage float64 `json:"progress_percentage"`
	TasksCompleted     int     `json:"tasks_completed"`
}

// Weekly measures the week starting Monday against a daily study goal
func Weekly(tasks []models.Task, sessions []models.StudySession, dailyGoalHours float64, today time.Time) WeeklyProgress {
	weekStart := utils.StartOfWeek(today)
	wp := WeeklyProgress{WeekStart: utils.DayKey(weekStart), GoalHours: dailyGoalHours * 7}

	minutes := 0
	for _, s := range sessions {
		if !s.Date.Before(weekStart) {
			minutes += s.Duration
		}
	}
	for _, t := range tasks {
		if t.Status == models.StatusCompleted && t.CompletedAt != nil && !t.CompletedAt.Before(weekStart) {
			wp.TasksCompleted++
		}
	}

	hours := float64(minutes) / 60
	wp.StudiedHours = gamification.Round1(hours)
	if wp.GoalHours > 0 {
		wp.ProgressPercentage = gamification.Round1(min(100, hours/wp.GoalHours*100))
	}
	return wp
}

type DashboardSummary struct {
	TodaysTasks         int     `json:"todays_tasks"`
	CompletedToday      int     `json:"completed_today"`
	StudyHoursToday     float64 `json:"study_hours_today"`
	CompletionRateToday float64 `json:"completion_rate_today"`
}

// TodaySummary covers tasks due today and sessions dated today
func TodaySummary(tasks []models.Task, sessions []models.StudySession, today time.Time) DashboardSummary {
	var ds DashboardSummary
	key := utils.DayKey(today)
	for _, t := range tasks {
		if utils.DayKey(t.DueDate) != key {
			continue
		}
		ds.TodaysTasks++
		if t.Status == models.StatusCompleted {
			ds.CompletedToday++
		}
	}
	minutes := 0
	for _, s := range sessions {
		if utils.DayKey(s.Date) == key {
			minutes += s.Duration
		}
	}
	ds.StudyHoursToday = gamification.StudyHours(minutes)
	ds.CompletionRateToday = percent(ds.CompletedToday, ds.TodaysTasks)
	return ds
}

const (
	MaxRecommendations    = 5
	lowFocusBelow         = 6.0
	highFocusAbove        = 8.0
	lightStudyMinutes     = 120
	heavyStudyMinutes     = 480
	upcomingDueWithinDays = 3
)

var generalRecommendations = []string{
	"Set specific, measurable goals for each study session",
	"Use active recall techniques like flashcards or practice tests",
	"Take a 10-15 minute break every hour to maintain concentration",
	"Review material within 24 hours of first learning it",
	"Create a consistent study schedule and stick to it",
}

// Recommendations derives study tips from recent sessions and the nearest
// pending tasks. Falls back to general advice when no rule fires.
func Recommendations(recent []models.StudySession, pending []models.Task, today time.Time) []string {
	var out []string

	if len(recent) > 0 {
		focus, minutes := 0, 0
		subjects := map[string]bool{}
		for _, s := range recent {
			focus += s.FocusRating
			minutes += s.Duration
			subjects[s.Subject] = true
		}
		avgFocus := float64(focus) / float64(len(recent))
		switch {
		case avgFocus < lowFocusBelow:
			out = append(out,
				"Try the Pomodoro technique (25min work, 5min break) to improve focus",
				"Consider studying in a quieter environment or using noise-canceling headphones")
		case avgFocus > highFocusAbove:
			out = append(out, "Great focus! Consider extending study sessions to 45-60 minutes")
		}
		switch {
		case minutes < lightStudyMinutes:
			out = append(out, "Aim to increase your daily study time gradually by 15-30 minutes")
		case minutes > heavyStudyMinutes:
			out = append(out, "Take more breaks to avoid burnout - quality over quantity")
		}
		if len(subjects) == 1 {
			out = append(out, "Try alternating between different subjects to keep your mind engaged")
		}
	}

	if len(pending) > 0 {
		day := utils.StartOfDay(today)
		urgent, overdue, upcoming := 0, 0, 0
		for i := range pending {
			t := &pending[i]
			if t.Priority == models.PriorityHigh || t.Priority == models.PriorityUrgent {
				urgent++
			}
			if t.IsOverdue(day) {
				overdue++
			}
			if t.DaysUntilDue(day) <= upcomingDueWithinDays {
				upcoming++
			}
		}
		if urgent > 0 {
			out = append(out, fmt.Sprintf("Focus on %d high-priority tasks first", urgent))
		}
		if overdue > 0 {
			out = append(out, "Address overdue tasks immediately to get back on track")
		}
		if upcoming > 0 {
			out = append(out, "Prioritize tasks due within the next 3 days")
		}
	}

	if len(out) == 0 {
		return slices.Clone(generalRecommendations)
	}
	if len(out) > MaxRecommendations {
		out = out[:MaxRecommendations]
	}
	return out
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return gamification.Round1(float64(part) / float64(whole) * 100)
}
