package services

import (
	"context"
	"errors"
	"log/slog"

	"study-progress-system/cache"
	"study-progress-system/gamification"
	"study-progress-system/models"

	"gorm.io/gorm"
)

const DefaultLeaderboardSize = 10

// LeaderboardCache is the fast path for rankings; the database answers when it is
// absent or failing
type LeaderboardCache interface {
	SetScore(ctx context.Context, userID string, points int) error
	Top(ctx context.Context, n int) ([]cache.Score, error)
	Rank(ctx context.Context, userID string) (int64, error)
	Replace(ctx context.Context, scores []cache.Score) error
}

type LeaderboardEntry struct {
	Rank        int64  `json:"rank"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	TotalPoints int    `json:"total_points"`
	Level       int    `json:"level"`
	RankTitle   string `json:"rank_title"`
}

type LeaderboardService struct {
	DB    *gorm.DB
	Cache LeaderboardCache
}

func NewLeaderboardService(db *gorm.DB, c LeaderboardCache) *LeaderboardService {
	return &LeaderboardService{DB: db, Cache: c}
}

// Sync pushes a user's new total to the cache; failures are only logged
func (s *LeaderboardService) Sync(ctx context.Context, userID string, totalPoints int) {
	if s == nil || s.Cache == nil {
		return
	}
	if err := s.Cache.SetScore(ctx, userID, totalPoints); err != nil {
		slog.Warn("leaderboard cache update failed", "user_id", userID, "error", err)
	}
}

// Top returns the best limit users by total points
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = DefaultLeaderboardSize
	}

	var rows []models.UserPoints
	if s.Cache != nil {
		scores, err := s.Cache.Top(ctx, limit)
		if err == nil && len(scores) > 0 {
			ids := make([]string, len(scores))
			for i, sc := range scores {
				ids[i] = sc.UserID
			}
			if err := s.DB.Where("user_id IN ?", ids).Find(&rows).Error; err != nil {
				return nil, err
			}
			return s.entries(sortLike(rows, ids))
		}
		if err != nil {
			slog.Warn("leaderboard cache read failed, using database", "error", err)
		}
	}

	if err := s.DB.Order("total_points DESC").Order("user_id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return s.entries(rows)
}

// RankOf is 1 + the number of users with strictly more points
func (s *LeaderboardService) RankOf(ctx context.Context, userID string) (int64, error) {
	if s.Cache != nil {
		rank, err := s.Cache.Rank(ctx, userID)
		if err == nil {
			return rank, nil
		}
		if !errors.Is(err, cache.ErrNotRanked) {
			slog.Warn("leaderboard cache rank failed, using database", "user_id", userID, "error", err)
		}
	}

	var agg models.UserPoints
	err := s.DB.Where("user_id = ?", userID).First(&agg).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	var above int64
	if err := s.DB.Model(&models.UserPoints{}).Where("total_points > ?", agg.TotalPoints).Count(&above).Error; err != nil {
		return 0, err
	}
	return above + 1, nil
}

// Rebuild reloads the cache from the database
func (s *LeaderboardService) Rebuild(ctx context.Context) error {
	if s.Cache == nil {
		return nil
	}
	var rows []models.UserPoints
	if err := s.DB.Select("user_id", "total_points").Find(&rows).Error; err != nil {
		return err
	}
	scores := make([]cache.Score, len(rows))
	for i, r := range rows {
		scores[i] = cache.Score{UserID: r.UserID, Points: r.TotalPoints}
	}
	if err := s.Cache.Replace(ctx, scores); err != nil {
		return err
	}
	slog.Info("leaderboard rebuilt", "users", len(scores))
	return nil
}

func (s *LeaderboardService) entries(rows []models.UserPoints) ([]LeaderboardEntry, error) {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.UserID
	}
	var users []models.User
	if len(ids) > 0 {
		if err := s.DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
			return nil, err
		}
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}

	out := make([]LeaderboardEntry, len(rows))
	for i, r := range rows {
		out[i] = LeaderboardEntry{
			UserID:      r.UserID,
			Username:    names[r.UserID],
			TotalPoints: r.TotalPoints,
			Level:       r.Level,
			RankTitle:   gamification.RankTitle(r.Level),
		}
		// equal totals share a rank
		switch {
		case i == 0:
			out[i].Rank = 1
		case r.TotalPoints == rows[i-1].TotalPoints:
			out[i].Rank = out[i-1].Rank
		default:
			out[i].Rank = int64(i + 1)
		}
	}
	return out, nil
}

func sortLike(rows []models.UserPoints, ids []string) []models.UserPoints {
	byID := make(map[string]models.UserPoints, len(rows))
	for _, r := range rows {
		byID[r.UserID] = r
	}
	out := make([]models.UserPoints, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out
}
