package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

type SessionType string

const (
	SessionRegular   SessionType = "regular"
	SessionPomodoro  SessionType = "pomodoro"
	SessionIntensive SessionType = "intensive"
	SessionReview    SessionType = "review"
)

const PomodoroMinutes = 25

type StudySession struct {
	ID          string      `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string      `gorm:"index;not null" json:"user_id"`
	TaskID      *string     `gorm:"index" json:"task_id,omitempty"`
	Subject     string      `gorm:"type:varchar(100);not null;index" json:"subject"`
	Duration    int         `gorm:"not null" json:"duration"` // minutes
	FocusRating int         `gorm:"default:5" json:"focus_rating"`
	SessionType SessionType `gorm:"type:varchar(50);default:'regular'" json:"session_type"`
	Notes       string      `gorm:"type:text" json:"notes,omitempty"`

	PomodoroCycles int `gorm:"default:0" json:"pomodoro_cycles"`
	BreaksTaken    int `gorm:"default:0" json:"breaks_taken"`

	// Date is the UTC calendar day the session counts toward
	Date      time.Time  `gorm:"not null;index" json:"date"`
	StartTime time.Time  `gorm:"not null" json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"` // nil while a session is still running

	PointsEarned int `gorm:"default:0" json:"points_earned"`

	Timestamps
}

func (s *StudySession) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

func (s *StudySession) Completed() bool {
	return s.EndTime != nil
}

func (s *StudySession) DurationHours() float64 {
	return math.Round(float64(s.Duration)/60*100) / 100
}
