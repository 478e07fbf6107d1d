package services

import (
	"errors"
	"fmt"

	"study-progress-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// EnsureUser returns the local user row, creating it on first sight of the id
func (s *UserService) EnsureUser(userID string) (*models.User, error) {
	var u models.User
	err := s.DB.Where("id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seed := models.User{ID: userID, StudyGoalHours: models.DefaultStudyGoalHours}
		if err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return nil, fmt.Errorf("create user %s: %w", userID, err)
		}
		err = s.DB.Where("id = ?", userID).First(&u).Error
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	return &u, nil
}

type SettingsInput struct {
	StudyGoalHours *float64 `json:"study_goal_hours" validate:"omitempty,gte=0,lte=24"`
	Username       *string  `json:"username" validate:"omitempty,min=1,max=100"`
}

func (s *UserService) UpdateSettings(userID string, in SettingsInput) (*models.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	u, err := s.EnsureUser(userID)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.StudyGoalHours != nil {
		updates["study_goal_hours"] = *in.StudyGoalHours
	}
	if in.Username != nil {
		updates["username"] = *in.Username
	}
	if len(updates) == 0 {
		return u, nil
	}
	if err := s.DB.Model(u).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update settings for %s: %w", userID, err)
	}
	return s.EnsureUser(userID)
}
