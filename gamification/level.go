package gamification

import (
	"math"
	"time"

	"study-progress-system/models"
)

const PointsPerLevel = 1000

// RankThresholds: minimum level per title, highest first
var RankThresholds = []struct {
	MinLevel int
	Title    string
}{
	{50, "Study Master"},
	{30, "Academic Expert"},
	{20, "Knowledge Seeker"},
	{10, "Dedicated Student"},
	{5, "Rising Scholar"},
}

func RankTitle(level int) string {
	for _, r := range RankThresholds {
		if level >= r.MinLevel {
			return r.Title
		}
	}
	return "Beginner"
}

// LevelFor is the level a point total qualifies for
func LevelFor(totalPoints int) int {
	if totalPoints < 0 {
		return 1
	}
	return totalPoints/PointsPerLevel + 1
}

// RecomputeLevel raises the level when the total qualifies for a higher one.
// It reports whether a level-up happened. Level is never lowered.
func RecomputeLevel(agg *models.UserPoints) bool {
	if agg.Level < 1 {
		agg.Level = 1
	}
	newLevel := LevelFor(agg.TotalPoints)
	if newLevel <= agg.Level {
		return false
	}
	agg.Level = newLevel
	now := time.Now().UTC()
	agg.LastLevelUpAt = &now
	return true
}

func ApplyTaskCompletion(agg *models.UserPoints, points int) bool {
	agg.TotalPoints += points
	agg.TasksCompleted++
	touch(agg)
	return RecomputeLevel(agg)
}

func ApplySessionCompletion(agg *models.UserPoints, points, durationMinutes int) bool {
	agg.TotalPoints += points
	agg.StudyMinutes += durationMinutes
	touch(agg)
	return RecomputeLevel(agg)
}

// ApplyReward credits an achievement unlock
func ApplyReward(agg *models.UserPoints, points int) bool {
	agg.TotalPoints += points
	agg.AchievementsUnlocked++
	return RecomputeLevel(agg)
}

// ApplyBonus credits points that are not tied to a task, session or unlock
func ApplyBonus(agg *models.UserPoints, points int) bool {
	agg.TotalPoints += points
	if agg.TotalPoints < 0 {
		agg.TotalPoints = 0
	}
	touch(agg)
	return RecomputeLevel(agg)
}

// ReverseTaskCompletion undoes the counters of a completion. Level stays put.
func ReverseTaskCompletion(agg *models.UserPoints, points int) {
	agg.TotalPoints -= points
	if agg.TotalPoints < 0 {
		agg.TotalPoints = 0
	}
	if agg.TasksCompleted > 0 {
		agg.TasksCompleted--
	}
	touch(agg)
}

func PointsToNextLevel(agg *models.UserPoints) int {
	return agg.Level*PointsPerLevel - agg.TotalPoints
}

// ProgressPercentage is the share of the current level's band already earned
func ProgressPercentage(agg *models.UserPoints) float64 {
	earned := float64(agg.TotalPoints - (agg.Level-1)*PointsPerLevel)
	pct := earned / PointsPerLevel * 100
	return math.Max(0, math.Min(100, pct))
}

func StudyHours(minutes int) float64 {
	return Round1(float64(minutes) / 60)
}

// Round1 rounds to one decimal place
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func touch(agg *models.UserPoints) {
	now := time.Now().UTC()
	agg.LastActivity = &now
}
