package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"study-progress-system/gamification"
	"study-progress-system/models"
	"study-progress-system/utils"

	"gorm.io/gorm"
)

// Sessions starting at or after this hour (UTC) count as late study
const lateStudyHour = 22

// Client clocks may run slightly ahead
const maxClockSkew = time.Minute

type SessionService struct {
	DB           *gorm.DB
	Progression  *ProgressionService
	Achievements *AchievementService
	Streaks      *StreakService
	Leaderboard  *LeaderboardService
}

func NewSessionService(db *gorm.DB, progression *ProgressionService, streaks *StreakService) *SessionService {
	return &SessionService{
		DB:           db,
		Progression:  progression,
		Achievements: progression.Achievements,
		Streaks:      streaks,
		Leaderboard:  progression.Leaderboard,
	}
}

type LogSessionInput struct {
	Subject        string             `json:"subject" validate:"required,max=100"`
	Duration       int                `json:"duration" validate:"required,min=1,max=1440"`
	FocusRating    int                `json:"focus_rating" validate:"required,min=1,max=10"`
	SessionType    models.SessionType `json:"session_type" validate:"omitempty,oneof=regular pomodoro intensive review"`
	Notes          string             `json:"notes"`
	TaskID         *string            `json:"task_id" validate:"omitempty,uuid"`
	StartTime      *time.Time         `json:"start_time"` // defaults to now minus duration
	PomodoroCycles int                `json:"pomodoro_cycles" validate:"gte=0"`
	BreaksTaken    int                `json:"breaks_taken" validate:"gte=0"`
}

type StartPomodoroInput struct {
	Subject string  `json:"subject" validate:"required,max=100"`
	TaskID  *string `json:"task_id" validate:"omitempty,uuid"`
}

type CompleteSessionInput struct {
	FocusRating int    `json:"focus_rating" validate:"required,min=1,max=10"`
	Notes       string `json:"notes"`
	BreaksTaken int    `json:"breaks_taken" validate:"gte=0"`
}

type SessionResult struct {
	Session *models.StudySession `json:"session"`
	CompletionResult
}

// Log records a study session that has already ended and scores it
func (s *SessionService) Log(ctx context.Context, userID string, in LogSessionInput) (*SessionResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	current := now()
	start := current.Add(-time.Duration(in.Duration) * time.Minute)
	if in.StartTime != nil {
		start = in.StartTime.UTC()
		if start.After(current.Add(maxClockSkew)) {
			return nil, fmt.Errorf("%w: start_time is in the future", ErrValidation)
		}
	}
	end := start.Add(time.Duration(in.Duration) * time.Minute)

	session := &models.StudySession{
		UserID:         userID,
		TaskID:         in.TaskID,
		Subject:        in.Subject,
		Duration:       in.Duration,
		FocusRating:    in.FocusRating,
		SessionType:    in.SessionType,
		Notes:          in.Notes,
		PomodoroCycles: in.PomodoroCycles,
		BreaksTaken:    in.BreaksTaken,
		Date:           utils.StartOfDay(start),
		StartTime:      start,
		EndTime:        &end,
	}
	if session.SessionType == "" {
		session.SessionType = models.SessionRegular
	}

	var result *SessionResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		agg, err := s.Progression.LockUserPoints(tx, userID)
		if err != nil {
			return err
		}
		if session.TaskID != nil {
			if _, err := findTask(tx, userID, *session.TaskID); err != nil {
				return err
			}
		}
		session.PointsEarned = gamification.ScoreSession(session.Duration, session.FocusRating)
		if err := tx.Create(session).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		res, err := s.score(tx, agg, session, current)
		result = res
		return err
	})
	if err != nil {
		return nil, err
	}
	s.finish(ctx, userID, result)
	return result, nil
}

// StartPomodoro opens a 25 minute pomodoro; it is scored when completed
func (s *SessionService) StartPomodoro(userID string, in StartPomodoroInput) (*models.StudySession, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.TaskID != nil {
		if _, err := findTask(s.DB, userID, *in.TaskID); err != nil {
			return nil, err
		}
	}
	start := now()
	session := &models.StudySession{
		UserID:      userID,
		TaskID:      in.TaskID,
		Subject:     in.Subject,
		Duration:    models.PomodoroMinutes,
		FocusRating: 5,
		SessionType: models.SessionPomodoro,
		Date:        utils.StartOfDay(start),
		StartTime:   start,
	}
	if err := s.DB.Create(session).Error; err != nil {
		return nil, fmt.Errorf("start pomodoro: %w", err)
	}
	return session, nil
}

// Complete finishes an open session and scores it. Scoring happens once; a finished
// session is rejected.
func (s *SessionService) Complete(ctx context.Context, userID, sessionID string, in CompleteSessionInput) (*SessionResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	current := now()
	var result *SessionResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		agg, err := s.Progression.LockUserPoints(tx, userID)
		if err != nil {
			return err
		}
		session, err := findSession(tx, userID, sessionID)
		if err != nil {
			return err
		}
		if session.Completed() {
			return ErrSessionAlreadyCompleted
		}

		session.EndTime = &current
		session.FocusRating = in.FocusRating
		session.BreaksTaken = in.BreaksTaken
		if in.Notes != "" {
			session.Notes = in.Notes
		}
		if session.SessionType == models.SessionPomodoro {
			session.PomodoroCycles++
		}
		session.PointsEarned = gamification.ScoreSession(session.Duration, session.FocusRating)
		if err := tx.Save(session).Error; err != nil {
			return fmt.Errorf("save session %s: %w", sessionID, err)
		}
		res, err := s.score(tx, agg, session, current)
		result = res
		return err
	})
	if err != nil {
		return nil, err
	}
	s.finish(ctx, userID, result)
	return result, nil
}

// score applies a freshly completed session to the locked aggregate
func (s *SessionService) score(tx *gorm.DB, agg *models.UserPoints, session *models.StudySession, today time.Time) (*SessionResult, error) {
	levelBefore := agg.Level
	gamification.ApplySessionCompletion(agg, session.PointsEarned, session.Duration)
	if err := s.Streaks.RefreshStreak(tx, agg, today); err != nil {
		return nil, err
	}
	unlocked, err := s.Achievements.Evaluate(tx, agg, TriggerEvent{
		LateStudy: session.StartTime.UTC().Hour() >= lateStudyHour,
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Save(agg).Error; err != nil {
		return nil, err
	}
	return &SessionResult{
		Session:          session,
		CompletionResult: *newCompletionResult(session.PointsEarned, levelBefore, agg, unlocked),
	}, nil
}

func (s *SessionService) finish(ctx context.Context, userID string, result *SessionResult) {
	slog.Info("study session scored", "user_id", userID, "session_id", result.Session.ID,
		"points", result.PointsAwarded, "total", result.TotalPoints, "level", result.LevelAfter,
		"unlocked", len(result.Unlocked))
	s.Leaderboard.Sync(ctx, userID, result.TotalPoints)
}

// UpdateNotes is the only edit allowed once a session is recorded
func (s *SessionService) UpdateNotes(userID, sessionID, notes string) (*models.StudySession, error) {
	session, err := findSession(s.DB, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Model(session).Update("notes", notes).Error; err != nil {
		return nil, err
	}
	session.Notes = notes
	return session, nil
}

func (s *SessionService) List(userID string, limit int) ([]models.StudySession, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var sessions []models.StudySession
	err := s.DB.Where("user_id = ?", userID).
		Order("start_time DESC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

func findSession(db *gorm.DB, userID, sessionID string) (*models.StudySession, error) {
	var session models.StudySession
	if err := db.Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}
