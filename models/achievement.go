package models

import (
	"time"

	"gorm.io/gorm"
)

type CriteriaType string

const (
	CriteriaTasksCompleted   CriteriaType = "tasks_completed"
	CriteriaStudyHours       CriteriaType = "study_hours"
	CriteriaStreakDays       CriteriaType = "streak_days"
	CriteriaPomodoroSessions CriteriaType = "pomodoro_sessions"
	CriteriaEarlyCompletion  CriteriaType = "early_completion"
	CriteriaLateStudy        CriteriaType = "late_study"
	CriteriaPerfectWeek      CriteriaType = "perfect_week"
	CriteriaLevelReached     CriteriaType = "level_reached"
)

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

var rarityColors = map[Rarity]string{
	RarityCommon:    "secondary",
	RarityRare:      "primary",
	RarityEpic:      "warning",
	RarityLegendary: "danger",
}

// Color is the UI badge color for the rarity
func (r Rarity) Color() string {
	if c, ok := rarityColors[r]; ok {
		return c
	}
	return "secondary"
}

// Achievement: static unlock rule (seeded on boot, editable by admins)
type Achievement struct {
	ID            string       `gorm:"primaryKey;type:uuid" json:"id"`
	Code          string       `gorm:"uniqueIndex;not null" json:"code"` // slug of Name, e.g. "first-steps"
	Name          string       `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description   string       `gorm:"type:text;not null" json:"description"`
	Icon          string       `gorm:"type:text" json:"icon"` // emoji or R2 URL
	PointsReward  int          `gorm:"not null" json:"points_reward"`
	CriteriaType  CriteriaType `gorm:"type:varchar(50);not null" json:"criteria_type"`
	CriteriaValue float64      `gorm:"not null" json:"criteria_value"`
	Rarity        Rarity       `gorm:"type:varchar(16);default:'common'" json:"rarity"`
	IsActive      bool         `gorm:"not null;index" json:"is_active"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (a *Achievement) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}

// UserAchievement: unlock record, at most one per (user, achievement)
type UserAchievement struct {
	ID            string      `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string      `gorm:"uniqueIndex:idx_user_achievement;not null" json:"user_id"`
	AchievementID string      `gorm:"uniqueIndex:idx_user_achievement;not null" json:"achievement_id"`
	Achievement   Achievement `gorm:"foreignKey:AchievementID" json:"achievement"`
	UnlockedAt    time.Time   `gorm:"not null" json:"unlocked_at"`
}

func (ua *UserAchievement) BeforeCreate(tx *gorm.DB) error {
	assignID(&ua.ID)
	return nil
}

// DefaultAchievements are seeded on boot; Code is derived from Name at seed time
var DefaultAchievements = []Achievement{
	{Name: "First Steps", Description: "Complete your first task", Icon: "🎯", CriteriaType: CriteriaTasksCompleted, CriteriaValue: 1, PointsReward: 50, Rarity: RarityCommon},
	{Name: "Getting Started", Description: "Complete 10 tasks", Icon: "📚", CriteriaType: CriteriaTasksCompleted, CriteriaValue: 10, PointsReward: 100, Rarity: RarityCommon},
	{Name: "Task Master", Description: "Complete 50 tasks", Icon: "🏆", CriteriaType: CriteriaTasksCompleted, CriteriaValue: 50, PointsReward: 250, Rarity: RarityRare},
	{Name: "Study Warrior", Description: "Study for 100 hours total", Icon: "⚔️", CriteriaType: CriteriaStudyHours, CriteriaValue: 100, PointsReward: 500, Rarity: RarityEpic},
	{Name: "Consistency King", Description: "Maintain a 7-day study streak", Icon: "👑", CriteriaType: CriteriaStreakDays, CriteriaValue: 7, PointsReward: 200, Rarity: RarityRare},
	{Name: "Pomodoro Pro", Description: "Complete 100 Pomodoro sessions", Icon: "🍅", CriteriaType: CriteriaPomodoroSessions, CriteriaValue: 100, PointsReward: 300, Rarity: RarityEpic},
	{Name: "Early Bird", Description: "Complete a task before 8 AM", Icon: "🐦", CriteriaType: CriteriaEarlyCompletion, CriteriaValue: 1, PointsReward: 75, Rarity: RarityCommon},
	{Name: "Night Owl", Description: "Study after 10 PM", Icon: "🦉", CriteriaType: CriteriaLateStudy, CriteriaValue: 1, PointsReward: 75, Rarity: RarityCommon},
	{Name: "Perfect Week", Description: "Complete all tasks for a week", Icon: "💯", CriteriaType: CriteriaPerfectWeek, CriteriaValue: 1, PointsReward: 400, Rarity: RarityEpic},
	{Name: "Study Legend", Description: "Reach Level 25", Icon: "🌟", CriteriaType: CriteriaLevelReached, CriteriaValue: 25, PointsReward: 1000, Rarity: RarityLegendary},
}
