package services

import (
	"path/filepath"
	"testing"
	"time"

	"study-progress-system/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	DB           *gorm.DB
	Users        *UserService
	Achievements *AchievementService
	Leaderboard  *LeaderboardService
	Progression  *ProgressionService
	Streaks      *StreakService
	Tasks        *TaskService
	Sessions     *SessionService
	Analytics    *AnalyticsService
}

// newTestDB opens a file database. Transactions begin IMMEDIATE so concurrent
// writers queue on busy_timeout instead of failing on lock upgrade.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")+"?_pragma=busy_timeout(5000)&_txlock=immediate"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// newTestEnv wires every service over a fresh database without the default achievements
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	env := &testEnv{DB: db}
	env.Users = NewUserService(db)
	env.Achievements = NewAchievementService(db, nil)
	env.Leaderboard = NewLeaderboardService(db, nil)
	env.Progression = NewProgressionService(db, env.Achievements, env.Leaderboard)
	env.Streaks = NewStreakService(db, 30)
	env.Tasks = NewTaskService(db, env.Progression)
	env.Sessions = NewSessionService(db, env.Progression, env.Streaks)
	env.Analytics = NewAnalyticsService(db, env.Streaks, env.Users)
	return env
}

func (e *testEnv) addAchievement(t *testing.T, name string, ct models.CriteriaType, value float64, reward int) models.Achievement {
	t.Helper()
	a := models.Achievement{
		Code: name, Name: name, Description: name, CriteriaType: ct,
		CriteriaValue: value, PointsReward: reward, Rarity: models.RarityCommon, IsActive: true,
	}
	require.NoError(t, e.DB.Create(&a).Error)
	return a
}

func (e *testEnv) setPoints(t *testing.T, userID string, total, level int) {
	t.Helper()
	agg, err := e.Progression.EnsureUserPoints(e.DB, userID)
	require.NoError(t, err)
	require.NoError(t, e.DB.Model(agg).Updates(map[string]any{"total_points": total, "level": level}).Error)
}

func (e *testEnv) points(t *testing.T, userID string) *models.UserPoints {
	t.Helper()
	agg, err := e.Progression.EnsureUserPoints(e.DB, userID)
	require.NoError(t, err)
	return agg
}

func (e *testEnv) newTask(t *testing.T, userID string, priority models.TaskPriority, difficulty int, due time.Time) *models.Task {
	t.Helper()
	task, err := e.Tasks.Create(userID, CreateTaskInput{
		Title: "Essay", Subject: "History", Priority: priority, Difficulty: difficulty,
		DueDate: due.Format("2006-01-02"),
	})
	require.NoError(t, err)
	return task
}

// midday keeps completions clear of the early-bird window
func midday(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}
