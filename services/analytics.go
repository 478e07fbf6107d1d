package services

import (
	"fmt"
	"time"

	"study-progress-system/analytics"
	"study-progress-system/gamification"
	"study-progress-system/models"
	"study-progress-system/utils"

	"gorm.io/gorm"
)

const (
	DefaultAnalyticsDays = 30
	MaxSeriesDays        = 365
	DefaultSeriesMonths  = 12

	recommendationSessions = 10
	recommendationTasks    = 5
)

// AnalyticsService loads history and hands it to the analytics package. Read only.
type AnalyticsService struct {
	DB      *gorm.DB
	Streaks *StreakService
	Users   *UserService
}

func NewAnalyticsService(db *gorm.DB, streaks *StreakService, users *UserService) *AnalyticsService {
	return &AnalyticsService{DB: db, Streaks: streaks, Users: users}
}

// completedSessions loads finished sessions on or after since (zero since means all)
func (s *AnalyticsService) completedSessions(userID string, since time.Time) ([]models.StudySession, error) {
	q := s.DB.Where("user_id = ? AND end_time IS NOT NULL", userID)
	if !since.IsZero() {
		q = q.Where("date >= ?", since)
	}
	var sessions []models.StudySession
	if err := q.Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("load sessions for %s: %w", userID, err)
	}
	return sessions, nil
}

func (s *AnalyticsService) tasks(userID string) ([]models.Task, error) {
	var tasks []models.Task
	if err := s.DB.Where("user_id = ?", userID).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("load tasks for %s: %w", userID, err)
	}
	return tasks, nil
}

func (s *AnalyticsService) SubjectBreakdown(userID string, since time.Time) ([]analytics.SubjectStat, error) {
	sessions, err := s.completedSessions(userID, utils.StartOfDay(since))
	if err != nil {
		return nil, err
	}
	return analytics.SubjectBreakdown(sessions), nil
}

func (s *AnalyticsService) PriorityCompletion(userID string) ([]analytics.PriorityStat, error) {
	tasks, err := s.tasks(userID)
	if err != nil {
		return nil, err
	}
	out := analytics.PriorityCompletion(tasks)
	if out == nil {
		out = []analytics.PriorityStat{}
	}
	return out, nil
}

func (s *AnalyticsService) DailySeries(userID string, days int, today time.Time) ([]analytics.DayPoint, error) {
	days = clampDays(days, 7)
	since := utils.StartOfDay(today).AddDate(0, 0, -(days - 1))
	sessions, err := s.completedSessions(userID, since)
	if err != nil {
		return nil, err
	}
	return analytics.DailySeries(sessions, today, days), nil
}

func (s *AnalyticsService) WeekdayPattern(userID string) ([]analytics.WeekdayStat, error) {
	sessions, err := s.completedSessions(userID, time.Time{})
	if err != nil {
		return nil, err
	}
	return analytics.WeekdayPattern(sessions), nil
}

func (s *AnalyticsService) MonthlySeries(userID string, months int, today time.Time) ([]analytics.MonthPoint, error) {
	if months <= 0 || months > 36 {
		months = DefaultSeriesMonths
	}
	since := utils.StartOfMonth(today).AddDate(0, -(months - 1), 0)
	sessions, err := s.completedSessions(userID, since)
	if err != nil {
		return nil, err
	}
	var tasks []models.Task
	if err := s.DB.Where("user_id = ? AND status = ? AND completed_at >= ?", userID, models.StatusCompleted, since).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("load completed tasks for %s: %w", userID, err)
	}
	return analytics.MonthlySeries(tasks, sessions, today, months), nil
}

func (s *AnalyticsService) FocusTrend(userID string, n int) ([]analytics.FocusPoint, error) {
	n = clampDays(n, 7)
	var sessions []models.StudySession
	if err := s.DB.Where("user_id = ? AND end_time IS NOT NULL", userID).
		Order("date DESC").Order("start_time DESC").
		Limit(n).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return analytics.FocusTrend(sessions), nil
}

func (s *AnalyticsService) UserStats(userID string, today time.Time) (*analytics.UserStats, error) {
	tasks, err := s.tasks(userID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.completedSessions(userID, time.Time{})
	if err != nil {
		return nil, err
	}
	st := analytics.Summarize(tasks, sessions, today)
	return &st, nil
}

// DashboardSummary reports today's due tasks and study time
func (s *AnalyticsService) DashboardSummary(userID string, today time.Time) (*analytics.DashboardSummary, error) {
	day := utils.StartOfDay(today)
	next := day.AddDate(0, 0, 1)
	var tasks []models.Task
	if err := s.DB.Where("user_id = ? AND due_date >= ? AND due_date < ?", userID, day, next).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("load tasks due today for %s: %w", userID, err)
	}
	var sessions []models.StudySession
	if err := s.DB.Where("user_id = ? AND end_time IS NOT NULL AND date >= ? AND date < ?", userID, day, next).
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("load sessions today for %s: %w", userID, err)
	}
	sum := analytics.TodaySummary(tasks, sessions, today)
	return &sum, nil
}

// Recommendations looks at the latest finished sessions and the pending tasks due soonest
func (s *AnalyticsService) Recommendations(userID string, today time.Time) ([]string, error) {
	var recent []models.StudySession
	if err := s.DB.Where("user_id = ? AND end_time IS NOT NULL", userID).
		Order("start_time DESC").
		Limit(recommendationSessions).
		Find(&recent).Error; err != nil {
		return nil, fmt.Errorf("load recent sessions for %s: %w", userID, err)
	}
	var pending []models.Task
	if err := s.DB.Where("user_id = ? AND status = ?", userID, models.StatusPending).
		Order("due_date ASC").
		Limit(recommendationTasks).
		Find(&pending).Error; err != nil {
		return nil, fmt.Errorf("load pending tasks for %s: %w", userID, err)
	}
	return analytics.Recommendations(recent, pending, today), nil
}

type Goals struct {
	StudyStreak gamification.StreakResult `json:"study_streak"`
	TaskStreak  gamification.StreakResult `json:"task_streak"`
	Week        analytics.WeeklyProgress  `json:"week"`
}

func (s *AnalyticsService) Goals(userID string, today time.Time) (*Goals, error) {
	user, err := s.Users.EnsureUser(userID)
	if err != nil {
		return nil, err
	}
	study, err := s.Streaks.StudyStreak(s.DB, userID, today)
	if err != nil {
		return nil, err
	}
	task, err := s.Streaks.TaskStreak(s.DB, userID, today)
	if err != nil {
		return nil, err
	}

	weekStart := utils.StartOfWeek(today)
	sessions, err := s.completedSessions(userID, weekStart)
	if err != nil {
		return nil, err
	}
	var done []models.Task
	if err := s.DB.Where("user_id = ? AND status = ? AND completed_at >= ?", userID, models.StatusCompleted, weekStart).
		Find(&done).Error; err != nil {
		return nil, err
	}

	return &Goals{
		StudyStreak: study,
		TaskStreak:  task,
		Week:        analytics.Weekly(done, sessions, user.StudyGoalHours, today),
	}, nil
}

func clampDays(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	if n > MaxSeriesDays {
		return MaxSeriesDays
	}
	return n
}
