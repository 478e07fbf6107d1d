package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"study-progress-system/gamification"
	"study-progress-system/models"
	"study-progress-system/utils"

	"gorm.io/gorm"
)

const DefaultStreakLookbackDays = 365

type StreakService struct {
	DB *gorm.DB
	// MaxLookbackDays bounds how far back a streak walk may go
	MaxLookbackDays int
}

func NewStreakService(db *gorm.DB, maxLookbackDays int) *StreakService {
	if maxLookbackDays <= 0 {
		maxLookbackDays = DefaultStreakLookbackDays
	}
	return &StreakService{DB: db, MaxLookbackDays: maxLookbackDays}
}

// StudyStreak counts consecutive days ending today with a completed study session
func (s *StreakService) StudyStreak(db *gorm.DB, userID string, today time.Time) (gamification.StreakResult, error) {
	limit, bounded, err := s.lookback(db, userID, today)
	if err != nil {
		return gamification.StreakResult{}, err
	}
	since := utils.StartOfDay(today).AddDate(0, 0, -(limit - 1))

	var dates []time.Time
	if err := db.Model(&models.StudySession{}).
		Where("user_id = ? AND end_time IS NOT NULL AND date >= ?", userID, since).
		Pluck("date", &dates).Error; err != nil {
		return gamification.StreakResult{}, fmt.Errorf("load session days for %s: %w", userID, err)
	}
	return s.walk(dates, today, limit, bounded), nil
}

// TaskStreak counts consecutive days ending today on which a task was completed
func (s *StreakService) TaskStreak(db *gorm.DB, userID string, today time.Time) (gamification.StreakResult, error) {
	limit, bounded, err := s.lookback(db, userID, today)
	if err != nil {
		return gamification.StreakResult{}, err
	}
	since := utils.StartOfDay(today).AddDate(0, 0, -(limit - 1))

	var completed []time.Time
	if err := db.Model(&models.Task{}).
		Where("user_id = ? AND status = ? AND completed_at >= ?", userID, models.StatusCompleted, since).
		Pluck("completed_at", &completed).Error; err != nil {
		return gamification.StreakResult{}, fmt.Errorf("load completion days for %s: %w", userID, err)
	}
	return s.walk(completed, today, limit, bounded), nil
}

func (s *StreakService) walk(times []time.Time, today time.Time, limit int, boundedByAccount bool) gamification.StreakResult {
	active := make(map[string]bool, len(times))
	for _, t := range times {
		active[utils.DayKey(t)] = true
	}
	res := gamification.ConsecutiveDays(active, today, limit)
	if res.Capped && boundedByAccount {
		// nothing older than the account can exist
		res.Capped = false
	}
	return res
}

// lookback is the number of days a walk may visit. bounded reports that the
// user's first recorded day, not MaxLookbackDays, set the limit.
func (s *StreakService) lookback(db *gorm.DB, userID string, today time.Time) (limit int, bounded bool, err error) {
	limit = s.MaxLookbackDays
	first, ok, err := firstSeen(db, userID)
	if err != nil || !ok {
		return limit, false, err
	}
	if age := utils.DaysBetween(first, today) + 1; age >= 1 && age < limit {
		return age, true, nil
	}
	return limit, false, nil
}

// firstSeen is the earliest of account creation, first finished session and
// first task completion. Imported history may predate the account row.
func firstSeen(db *gorm.DB, userID string) (time.Time, bool, error) {
	var candidates []time.Time

	var user models.User
	err := db.Select("id", "created_at").Where("id = ?", userID).First(&user).Error
	switch {
	case err == nil:
		candidates = append(candidates, user.CreatedAt)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return time.Time{}, false, fmt.Errorf("load user %s: %w", userID, err)
	}

	var sessionDays []time.Time
	if err := db.Model(&models.StudySession{}).
		Where("user_id = ? AND end_time IS NOT NULL", userID).
		Order("date ASC").Limit(1).
		Pluck("date", &sessionDays).Error; err != nil {
		return time.Time{}, false, fmt.Errorf("load first session of %s: %w", userID, err)
	}
	candidates = append(candidates, sessionDays...)

	var completions []time.Time
	if err := db.Model(&models.Task{}).
		Where("user_id = ? AND status = ? AND completed_at IS NOT NULL", userID, models.StatusCompleted).
		Order("completed_at ASC").Limit(1).
		Pluck("completed_at", &completions).Error; err != nil {
		return time.Time{}, false, fmt.Errorf("load first completion of %s: %w", userID, err)
	}
	candidates = append(candidates, completions...)

	if len(candidates) == 0 {
		return time.Time{}, false, nil
	}
	first := candidates[0]
	for _, c := range candidates[1:] {
		if c.Before(first) {
			first = c
		}
	}
	return first, true, nil
}

// RefreshStreak stores the current study streak on the aggregate (not saved)
func (s *StreakService) RefreshStreak(tx *gorm.DB, agg *models.UserPoints, today time.Time) error {
	res, err := s.StudyStreak(tx, agg.UserID, today)
	if err != nil {
		return err
	}
	agg.StreakDays = res.Days
	return nil
}

// RefreshAll recomputes streak_days for every aggregate so broken streaks reset.
// Each row is rewritten under its points lock. Returns how many rows changed.
func (s *StreakService) RefreshAll(today time.Time) (int, error) {
	var batch []models.UserPoints
	changed := 0
	res := s.DB.Select("id", "user_id").FindInBatches(&batch, 200, func(_ *gorm.DB, _ int) error {
		for _, row := range batch {
			updated, err := s.refreshOne(row.UserID, today)
			if err != nil {
				return err
			}
			if updated {
				changed++
			}
		}
		return nil
	})
	if res.Error != nil {
		return changed, fmt.Errorf("refresh streaks: %w", res.Error)
	}
	slog.Info("streaks refreshed", "changed", changed)
	return changed, nil
}

func (s *StreakService) refreshOne(userID string, today time.Time) (bool, error) {
	updated := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		agg, err := lockUserPoints(tx, userID)
		if err != nil {
			return err
		}
		before := agg.StreakDays
		if err := s.RefreshStreak(tx, agg, today); err != nil {
			return err
		}
		if agg.StreakDays == before {
			return nil
		}
		updated = true
		return tx.Model(&models.UserPoints{}).
			Where("id = ?", agg.ID).
			Update("streak_days", agg.StreakDays).Error
	})
	return updated, err
}
