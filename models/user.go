package models

import (
	"gorm.io/gorm"
)

const DefaultStudyGoalHours = 2.0

// User is a local snapshot of the profile service's user.
// ID is the gateway's external user id (X-User-ID). Rows are created lazily on first
// request and refreshed by the profile sync worker.
type User struct {
	ID             string  `gorm:"primaryKey" json:"id"`
	Username       string  `gorm:"index" json:"username"`
	Email          string  `json:"email,omitempty"`
	StudyGoalHours float64 `gorm:"default:2" json:"study_goal_hours"` // daily goal

	Timestamps
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.StudyGoalHours == 0 {
		u.StudyGoalHours = DefaultStudyGoalHours
	}
	return nil
}
