package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"study-progress-system/gamification"
	"study-progress-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompletionResult is what a scoring event reports back to the caller
type CompletionResult struct {
	PointsAwarded int                  `json:"points_awarded"`
	TotalPoints   int                  `json:"total_points"`
	LevelBefore   int                  `json:"level_before"`
	LevelAfter    int                  `json:"level_after"`
	LeveledUp     bool                 `json:"leveled_up"`
	Unlocked      []models.Achievement `json:"unlocked_achievements"`
}

func newCompletionResult(points, levelBefore int, agg *models.UserPoints, unlocked []models.Achievement) *CompletionResult {
	if unlocked == nil {
		unlocked = []models.Achievement{}
	}
	return &CompletionResult{
		PointsAwarded: points,
		TotalPoints:   agg.TotalPoints,
		LevelBefore:   levelBefore,
		LevelAfter:    agg.Level,
		LeveledUp:     agg.Level > levelBefore,
		Unlocked:      unlocked,
	}
}

// ProgressView is the read model of a user's aggregate
type ProgressView struct {
	models.UserPoints
	RankTitle          string  `json:"rank_title"`
	PointsToNextLevel  int     `json:"points_to_next_level"`
	ProgressPercentage float64 `json:"progress_percentage"`
	StudyHours         float64 `json:"study_hours"`
}

func NewProgressView(agg *models.UserPoints) *ProgressView {
	return &ProgressView{
		UserPoints:         *agg,
		RankTitle:          gamification.RankTitle(agg.Level),
		PointsToNextLevel:  gamification.PointsToNextLevel(agg),
		ProgressPercentage: gamification.ProgressPercentage(agg),
		StudyHours:         gamification.StudyHours(agg.StudyMinutes),
	}
}

type ProgressionService struct {
	DB           *gorm.DB
	Achievements *AchievementService
	Leaderboard  *LeaderboardService
}

func NewProgressionService(db *gorm.DB, achievements *AchievementService, leaderboard *LeaderboardService) *ProgressionService {
	return &ProgressionService{DB: db, Achievements: achievements, Leaderboard: leaderboard}
}

// EnsureUserPoints returns the user's aggregate, creating a zero-valued one on first access
func (s *ProgressionService) EnsureUserPoints(db *gorm.DB, userID string) (*models.UserPoints, error) {
	var agg models.UserPoints
	err := db.Where("user_id = ?", userID).First(&agg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := createUserPoints(db, userID); err != nil {
			return nil, err
		}
		err = db.Where("user_id = ?", userID).First(&agg).Error
	}
	if err != nil {
		return nil, fmt.Errorf("load points for %s: %w", userID, err)
	}
	return &agg, nil
}

// LockUserPoints creates the aggregate if needed and reads it with a row lock held
// until tx ends. Every aggregate mutation goes through this.
func (s *ProgressionService) LockUserPoints(tx *gorm.DB, userID string) (*models.UserPoints, error) {
	return lockUserPoints(tx, userID)
}

func lockUserPoints(tx *gorm.DB, userID string) (*models.UserPoints, error) {
	if err := createUserPoints(tx, userID); err != nil {
		return nil, err
	}
	var agg models.UserPoints
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&agg).Error; err != nil {
		return nil, fmt.Errorf("lock points for %s: %w", userID, err)
	}
	return &agg, nil
}

func createUserPoints(db *gorm.DB, userID string) error {
	seed := models.UserPoints{UserID: userID, Level: 1}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return fmt.Errorf("create points for %s: %w", userID, err)
	}
	return nil
}

func (s *ProgressionService) GetProgress(userID string) (*ProgressView, error) {
	agg, err := s.EnsureUserPoints(s.DB, userID)
	if err != nil {
		return nil, err
	}
	return NewProgressView(agg), nil
}

// GrantPoints adds (or with a negative value, removes) points outside the task and
// session flows, then evaluates achievements
func (s *ProgressionService) GrantPoints(ctx context.Context, userID string, points int, reason string) (*CompletionResult, error) {
	var result *CompletionResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		agg, err := s.LockUserPoints(tx, userID)
		if err != nil {
			return err
		}
		levelBefore := agg.Level
		gamification.ApplyBonus(agg, points)

		unlocked, err := s.Achievements.Evaluate(tx, agg, TriggerEvent{})
		if err != nil {
			return err
		}
		if err := tx.Save(agg).Error; err != nil {
			return err
		}
		result = newCompletionResult(points, levelBefore, agg, unlocked)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("points granted", "user_id", userID, "points", points, "reason", reason,
		"total", result.TotalPoints, "level", result.LevelAfter)
	s.Leaderboard.Sync(ctx, userID, result.TotalPoints)
	return result, nil
}

func now() time.Time {
	return time.Now().UTC()
}
