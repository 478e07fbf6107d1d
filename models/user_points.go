package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserPoints is the per-user gamification aggregate (denormalized, one row per user)
type UserPoints struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"`

	TotalPoints int `json:"total_points" gorm:"default:0;index"`
	Level       int `json:"level" gorm:"default:1"`

	// Activity counters
	TasksCompleted       int `json:"tasks_completed" gorm:"default:0"`
	StudyMinutes         int `json:"study_minutes" gorm:"default:0"`
	StreakDays           int `json:"streak_days" gorm:"default:0"`
	AchievementsUnlocked int `json:"achievements_unlocked" gorm:"default:0"`

	LastActivity  *time.Time `json:"last_activity,omitempty"`
	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

func (p *UserPoints) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
