package services

import "errors"

var (
	ErrValidation              = errors.New("validation failed")
	ErrTaskNotFound            = errors.New("task not found")
	ErrSessionNotFound         = errors.New("study session not found")
	ErrAchievementNotFound     = errors.New("achievement not found")
	ErrAchievementExists       = errors.New("achievement with this name already exists")
	ErrTaskAlreadyCompleted    = errors.New("task is already completed")
	ErrTaskNotCompleted        = errors.New("task is not completed")
	ErrSessionAlreadyCompleted = errors.New("study session is already completed")
	ErrCriteriaLocked          = errors.New("criteria cannot change once the achievement has been unlocked")
)
