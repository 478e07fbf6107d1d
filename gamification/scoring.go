// Package gamification holds the side-effect-free rules of the points, level,
// achievement and streak model. Callers own persistence and validation.
package gamification

import "study-progress-system/models"

// Base points per task priority
var basePoints = map[models.TaskPriority]int{
	models.PriorityLow:    10,
	models.PriorityMedium: 20,
	models.PriorityHigh:   30,
	models.PriorityUrgent: 50,
}

const (
	difficultyMultiplier = 5
	minutesPerPoint      = 15
	neutralFocus         = 5
	focusMultiplier      = 2
)

// ScoreTask returns points for a completed task; unknown priorities score as medium
func ScoreTask(priority models.TaskPriority, difficulty int) int {
	base, ok := basePoints[priority]
	if !ok {
		base = basePoints[models.PriorityMedium]
	}
	return base + difficulty*difficultyMultiplier
}

// ScoreSession returns points for a finished study session, never negative
func ScoreSession(durationMinutes, focusRating int) int {
	points := durationMinutes/minutesPerPoint + (focusRating-neutralFocus)*focusMultiplier
	if points < 0 {
		return 0
	}
	return points
}

func ProductivityLevel(focusRating int) string {
	switch {
	case focusRating >= 8:
		return "Excellent"
	case focusRating >= 6:
		return "Good"
	case focusRating >= 4:
		return "Average"
	default:
		return "Poor"
	}
}
