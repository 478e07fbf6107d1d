package gamification

import (
	"math"

	"study-progress-system/models"
)

// Snapshot is what achievement criteria are measured against: the aggregate's
// counters plus facts about the event that triggered the evaluation.
type Snapshot struct {
	TasksCompleted   int
	StudyMinutes     int
	StreakDays       int
	Level            int
	PomodoroSessions int

	EarlyCompletion bool
	LateStudy       bool
	PerfectWeek     bool
}

// SnapshotOf copies the aggregate counters; callers fill in the rest
func SnapshotOf(agg *models.UserPoints) Snapshot {
	return Snapshot{
		TasksCompleted: agg.TasksCompleted,
		StudyMinutes:   agg.StudyMinutes,
		StreakDays:     agg.StreakDays,
		Level:          agg.Level,
	}
}

// Criterion measures one kind of unlock condition
type Criterion struct {
	Type    models.CriteriaType
	Measure func(Snapshot) float64
}

// Met reports whether the measured value reaches the threshold
func (c Criterion) Met(s Snapshot, threshold float64) bool {
	return c.Measure(s) >= threshold
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var criteria = map[models.CriteriaType]Criterion{
	models.CriteriaTasksCompleted: {
		Type:    models.CriteriaTasksCompleted,
		Measure: func(s Snapshot) float64 { return float64(s.TasksCompleted) },
	},
	models.CriteriaStudyHours: {
		Type:    models.CriteriaStudyHours,
		Measure: func(s Snapshot) float64 { return float64(s.StudyMinutes) / 60 },
	},
	models.CriteriaStreakDays: {
		Type:    models.CriteriaStreakDays,
		Measure: func(s Snapshot) float64 { return float64(s.StreakDays) },
	},
	models.CriteriaPomodoroSessions: {
		Type:    models.CriteriaPomodoroSessions,
		Measure: func(s Snapshot) float64 { return float64(s.PomodoroSessions) },
	},
	models.CriteriaEarlyCompletion: {
		Type:    models.CriteriaEarlyCompletion,
		Measure: func(s Snapshot) float64 { return flag(s.EarlyCompletion) },
	},
	models.CriteriaLateStudy: {
		Type:    models.CriteriaLateStudy,
		Measure: func(s Snapshot) float64 { return flag(s.LateStudy) },
	},
	models.CriteriaPerfectWeek: {
		Type:    models.CriteriaPerfectWeek,
		Measure: func(s Snapshot) float64 { return flag(s.PerfectWeek) },
	},
	models.CriteriaLevelReached: {
		Type:    models.CriteriaLevelReached,
		Measure: func(s Snapshot) float64 { return float64(s.Level) },
	},
}

// CriterionFor resolves a criteria type; ok is false for unknown types
func CriterionFor(t models.CriteriaType) (Criterion, bool) {
	c, ok := criteria[t]
	return c, ok
}

// ValidCriteriaType reports whether t has a registered criterion
func ValidCriteriaType(t models.CriteriaType) bool {
	_, ok := criteria[t]
	return ok
}

// Eligible returns active, not yet unlocked achievements whose criterion is met,
// in the order given. Unknown criteria types never unlock.
func Eligible(achievements []models.Achievement, unlocked map[string]bool, s Snapshot) []models.Achievement {
	var out []models.Achievement
	for _, a := range achievements {
		if !a.IsActive || unlocked[a.ID] {
			continue
		}
		c, ok := CriterionFor(a.CriteriaType)
		if !ok {
			continue
		}
		if c.Met(s, a.CriteriaValue) {
			out = append(out, a)
		}
	}
	return out
}

// Progress is how far the snapshot is toward the achievement, in percent
func Progress(a models.Achievement, s Snapshot) float64 {
	c, ok := CriterionFor(a.CriteriaType)
	if !ok {
		return 0
	}
	if a.CriteriaValue <= 0 {
		return 100
	}
	return Round1(math.Min(100, c.Measure(s)/a.CriteriaValue*100))
}
