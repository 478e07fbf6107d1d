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

// Completions before this hour (UTC) count as early
const earlyCompletionHour = 8

type TaskService struct {
	DB           *gorm.DB
	Progression  *ProgressionService
	Achievements *AchievementService
	Leaderboard  *LeaderboardService
}

func NewTaskService(db *gorm.DB, progression *ProgressionService) *TaskService {
	return &TaskService{
		DB:           db,
		Progression:  progression,
		Achievements: progression.Achievements,
		Leaderboard:  progression.Leaderboard,
	}
}

type CreateTaskInput struct {
	Title          string              `json:"title" validate:"required,max=200"`
	Description    string              `json:"description"`
	Subject        string              `json:"subject" validate:"required,max=100"`
	Category       models.TaskCategory `json:"category" validate:"omitempty,oneof=assignment project exam reading other"`
	Priority       models.TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Difficulty     int                 `json:"difficulty" validate:"omitempty,min=1,max=5"`
	EstimatedHours float64             `json:"estimated_hours" validate:"gte=0,lte=1000"`
	DueDate        string              `json:"due_date" validate:"required,datetime=2006-01-02"`
}

type UpdateTaskInput struct {
	Title          *string              `json:"title" validate:"omitempty,min=1,max=200"`
	Description    *string              `json:"description"`
	Subject        *string              `json:"subject" validate:"omitempty,min=1,max=100"`
	Category       *models.TaskCategory `json:"category" validate:"omitempty,oneof=assignment project exam reading other"`
	Difficulty     *int                 `json:"difficulty" validate:"omitempty,min=1,max=5"`
	EstimatedHours *float64             `json:"estimated_hours" validate:"omitempty,gte=0,lte=1000"`
	DueDate        *string              `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

type TaskFilter struct {
	Status  models.TaskStatus
	Subject string
}

func (s *TaskService) Create(userID string, in CreateTaskInput) (*models.Task, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	due, err := time.Parse(utils.DateLayout, in.DueDate)
	if err != nil {
		return nil, fmt.Errorf("%w: due_date: %s", ErrValidation, err.Error())
	}

	task := models.Task{
		UserID:         userID,
		Title:          in.Title,
		Description:    in.Description,
		Subject:        in.Subject,
		Category:       in.Category,
		Priority:       in.Priority,
		Status:         models.StatusPending,
		Difficulty:     in.Difficulty,
		EstimatedHours: in.EstimatedHours,
		DueDate:        due,
	}
	if task.Category == "" {
		task.Category = models.CategoryAssignment
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.Difficulty == 0 {
		task.Difficulty = 3
	}
	if task.EstimatedHours == 0 {
		task.EstimatedHours = 1
	}

	if err := s.DB.Create(&task).Error; err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &task, nil
}

func (s *TaskService) List(userID string, f TaskFilter) ([]models.Task, error) {
	q := s.DB.Where("user_id = ?", userID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Subject != "" {
		q = q.Where("subject = ?", f.Subject)
	}
	var tasks []models.Task
	if err := q.Order("due_date ASC").Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *TaskService) Get(userID, taskID string) (*models.Task, error) {
	return findTask(s.DB, userID, taskID)
}

func findTask(db *gorm.DB, userID, taskID string) (*models.Task, error) {
	var task models.Task
	if err := db.Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// Update edits task metadata. Status and priority have their own operations.
func (s *TaskService) Update(userID, taskID string, in UpdateTaskInput) (*models.Task, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	task, err := findTask(s.DB, userID, taskID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		task.Title = *in.Title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.Subject != nil {
		task.Subject = *in.Subject
	}
	if in.Category != nil {
		task.Category = *in.Category
	}
	if in.Difficulty != nil {
		task.Difficulty = *in.Difficulty
	}
	if in.EstimatedHours != nil {
		task.EstimatedHours = *in.EstimatedHours
	}
	if in.DueDate != nil {
		due, err := time.Parse(utils.DateLayout, *in.DueDate)
		if err != nil {
			return nil, fmt.Errorf("%w: due_date: %s", ErrValidation, err.Error())
		}
		task.DueDate = due
	}

	if err := s.DB.Save(task).Error; err != nil {
		return nil, fmt.Errorf("update task %s: %w", taskID, err)
	}
	return task, nil
}

func (s *TaskService) UpdatePriority(userID, taskID string, priority models.TaskPriority) (*models.Task, error) {
	in := struct {
		Priority models.TaskPriority `validate:"required,oneof=low medium high urgent"`
	}{priority}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	task, err := findTask(s.DB, userID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Model(task).Update("priority", priority).Error; err != nil {
		return nil, err
	}
	task.Priority = priority
	return task, nil
}

// Start moves a pending task to in_progress
func (s *TaskService) Start(userID, taskID string) (*models.Task, error) {
	task, err := findTask(s.DB, userID, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == models.StatusCompleted {
		return nil, ErrTaskAlreadyCompleted
	}
	if err := s.DB.Model(task).Update("status", models.StatusInProgress).Error; err != nil {
		return nil, err
	}
	task.Status = models.StatusInProgress
	return task, nil
}

// Delete removes the task. Points from an earlier completion stay on the aggregate.
func (s *TaskService) Delete(userID, taskID string) error {
	res := s.DB.Where("id = ? AND user_id = ?", taskID, userID).Delete(&models.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Complete scores the task and applies it to the user's aggregate
func (s *TaskService) Complete(ctx context.Context, userID, taskID string, at time.Time) (*CompletionResult, error) {
	at = at.UTC()
	var result *CompletionResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		agg, err := s.Progression.LockUserPoints(tx, userID)
		if err != nil {
			return err
		}
		task, err := findTask(tx, userID, taskID)
		if err != nil {
			return err
		}
		if task.Status == models.StatusCompleted {
			return ErrTaskAlreadyCompleted
		}

		points := gamification.ScoreTask(task.Priority, task.Difficulty)
		task.Status = models.StatusCompleted
		task.CompletedAt = &at
		task.PointsAwarded = points
		if err := tx.Save(task).Error; err != nil {
			return fmt.Errorf("save task %s: %w", taskID, err)
		}

		levelBefore := agg.Level
		gamification.ApplyTaskCompletion(agg, points)

		perfect, err := perfectWeek(tx, userID, at)
		if err != nil {
			return err
		}
		unlocked, err := s.Achievements.Evaluate(tx, agg, TriggerEvent{
			EarlyCompletion: at.Hour() < earlyCompletionHour,
			PerfectWeek:     perfect,
		})
		if err != nil {
			return err
		}
		if err := tx.Save(agg).Error; err != nil {
			return err
		}
		result = newCompletionResult(points, levelBefore, agg, unlocked)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("task completed", "user_id", userID, "task_id", taskID, "points", result.PointsAwarded,
		"total", result.TotalPoints, "level", result.LevelAfter, "unlocked", len(result.Unlocked))
	s.Leaderboard.Sync(ctx, userID, result.TotalPoints)
	return result, nil
}

// Reopen sets a completed task back to pending and takes its points back.
// Level and unlocked achievements are kept.
func (s *TaskService) Reopen(ctx context.Context, userID, taskID string) (*models.Task, error) {
	var task *models.Task
	var total int
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		agg, err := s.Progression.LockUserPoints(tx, userID)
		if err != nil {
			return err
		}
		task, err = findTask(tx, userID, taskID)
		if err != nil {
			return err
		}
		if task.Status != models.StatusCompleted {
			return ErrTaskNotCompleted
		}

		gamification.ReverseTaskCompletion(agg, task.PointsAwarded)
		task.Status = models.StatusPending
		task.CompletedAt = nil
		task.PointsAwarded = 0
		if err := tx.Save(task).Error; err != nil {
			return err
		}
		total = agg.TotalPoints
		return tx.Save(agg).Error
	})
	if err != nil {
		return nil, err
	}

	slog.Info("task reopened", "user_id", userID, "task_id", taskID, "total", total)
	s.Leaderboard.Sync(ctx, userID, total)
	return task, nil
}

type ToggleResult struct {
	Task       *models.Task      `json:"task"`
	Completion *CompletionResult `json:"completion,omitempty"`
}

// Toggle completes an open task or reopens a completed one
func (s *TaskService) Toggle(ctx context.Context, userID, taskID string, at time.Time) (*ToggleResult, error) {
	task, err := findTask(s.DB, userID, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == models.StatusCompleted {
		reopened, err := s.Reopen(ctx, userID, taskID)
		if err != nil {
			return nil, err
		}
		return &ToggleResult{Task: reopened}, nil
	}

	completion, err := s.Complete(ctx, userID, taskID, at)
	if err != nil {
		return nil, err
	}
	task, err = findTask(s.DB, userID, taskID)
	if err != nil {
		return nil, err
	}
	return &ToggleResult{Task: task, Completion: completion}, nil
}

// perfectWeek reports whether every task due in at's week is completed
func perfectWeek(tx *gorm.DB, userID string, at time.Time) (bool, error) {
	start := utils.StartOfWeek(at)
	end := start.AddDate(0, 0, 7)
	var due, open int64
	if err := tx.Model(&models.Task{}).
		Where("user_id = ? AND due_date >= ? AND due_date < ?", userID, start, end).
		Count(&due).Error; err != nil {
		return false, err
	}
	if due == 0 {
		return false, nil
	}
	if err := tx.Model(&models.Task{}).
		Where("user_id = ? AND due_date >= ? AND due_date < ? AND status <> ?", userID, start, end, models.StatusCompleted).
		Count(&open).Error; err != nil {
		return false, err
	}
	return open == 0, nil
}
