package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Priorities in display order
var Priorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

type TaskCategory string

const (
	CategoryAssignment TaskCategory = "assignment"
	CategoryProject    TaskCategory = "project"
	CategoryExam       TaskCategory = "exam"
	CategoryReading    TaskCategory = "reading"
	CategoryOther      TaskCategory = "other"
)

type Task struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string `gorm:"index;not null" json:"user_id"`
	Title       string `gorm:"type:varchar(200);not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Subject     string `gorm:"type:varchar(100);not null;index" json:"subject"`

	Category       TaskCategory `gorm:"type:varchar(50);default:'assignment'" json:"category"`
	Priority       TaskPriority `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	Status         TaskStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Difficulty     int          `gorm:"default:3" json:"difficulty"` // 1-5
	EstimatedHours float64      `gorm:"default:1" json:"estimated_hours"`

	DueDate     time.Time  `gorm:"not null" json:"due_date"`
	CompletedAt *time.Time `gorm:"index" json:"completed_at,omitempty"`

	PointsAwarded int `gorm:"default:0" json:"points_awarded"`

	Timestamps
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	return nil
}

// IsOverdue reports a task past its due day that is still open
func (t *Task) IsOverdue(today time.Time) bool {
	return t.DueDate.Before(today) && t.Status != StatusCompleted
}

// DaysUntilDue counts whole days from today to the due date (negative when overdue)
func (t *Task) DaysUntilDue(today time.Time) int {
	return int(t.DueDate.Sub(today).Hours() / 24)
}
