package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"time"

	"study-progress-system/gamification"
	"study-progress-system/models"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TriggerEvent carries facts about the action being scored that the aggregate
// alone cannot tell
type TriggerEvent struct {
	EarlyCompletion bool
	LateStudy       bool
	PerfectWeek     bool
}

// IconStore persists uploaded achievement icons and returns their public URL
type IconStore interface {
	UploadIcon(ctx context.Context, fileHeader *multipart.FileHeader, key string) (string, error)
}

type AchievementService struct {
	DB    *gorm.DB
	Icons IconStore
}

func NewAchievementService(db *gorm.DB, icons IconStore) *AchievementService {
	return &AchievementService{DB: db, Icons: icons}
}

// SeedDefaults inserts the built-in achievements that are not present yet
func (s *AchievementService) SeedDefaults() error {
	created := 0
	for _, def := range models.DefaultAchievements {
		a := def
		a.Code = slug.Make(a.Name)
		a.IsActive = true
		res := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&a)
		if res.Error != nil {
			return fmt.Errorf("seed achievement %q: %w", a.Name, res.Error)
		}
		created += int(res.RowsAffected)
	}
	if created > 0 {
		slog.Info("default achievements seeded", "created", created)
	}
	return nil
}

// Evaluate unlocks every achievement the aggregate now qualifies for. Rewards are
// applied to agg, which may qualify it for more, so it repeats until a pass unlocks
// nothing. Caller must hold the aggregate lock in tx and save agg afterwards.
func (s *AchievementService) Evaluate(tx *gorm.DB, agg *models.UserPoints, event TriggerEvent) ([]models.Achievement, error) {
	var active []models.Achievement
	if err := tx.Where("is_active = ?", true).
		Order("criteria_value ASC").Order("name ASC").
		Find(&active).Error; err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}
	if len(active) == 0 {
		return nil, nil
	}

	var unlockedIDs []string
	if err := tx.Model(&models.UserAchievement{}).
		Where("user_id = ?", agg.UserID).
		Pluck("achievement_id", &unlockedIDs).Error; err != nil {
		return nil, fmt.Errorf("load unlocks for %s: %w", agg.UserID, err)
	}
	unlocked := make(map[string]bool, len(unlockedIDs))
	for _, id := range unlockedIDs {
		unlocked[id] = true
	}

	var pomodoros int64
	if err := tx.Model(&models.StudySession{}).
		Where("user_id = ? AND session_type = ? AND end_time IS NOT NULL", agg.UserID, models.SessionPomodoro).
		Count(&pomodoros).Error; err != nil {
		return nil, fmt.Errorf("count pomodoros for %s: %w", agg.UserID, err)
	}

	var newly []models.Achievement
	for {
		snap := gamification.SnapshotOf(agg)
		snap.PomodoroSessions = int(pomodoros)
		snap.EarlyCompletion = event.EarlyCompletion
		snap.LateStudy = event.LateStudy
		snap.PerfectWeek = event.PerfectWeek

		eligible := gamification.Eligible(active, unlocked, snap)
		if len(eligible) == 0 {
			break
		}
		for _, a := range eligible {
			unlocked[a.ID] = true
			ua := models.UserAchievement{UserID: agg.UserID, AchievementID: a.ID, UnlockedAt: now()}
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
				DoNothing: true,
			}).Create(&ua)
			if res.Error != nil {
				return nil, fmt.Errorf("unlock %s for %s: %w", a.Code, agg.UserID, res.Error)
			}
			if res.RowsAffected == 0 {
				continue
			}
			gamification.ApplyReward(agg, a.PointsReward)
			newly = append(newly, a)
			slog.Info("achievement unlocked", "user_id", agg.UserID, "achievement", a.Code,
				"reward", a.PointsReward, "total", agg.TotalPoints)
		}
	}
	return newly, nil
}

// AchievementStatus is an achievement as seen by one user
type AchievementStatus struct {
	models.Achievement
	RarityColor string     `json:"rarity_color"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
	Progress    float64    `json:"progress"`
}

// ListForUser returns every active achievement with the user's unlock state.
// Flag criteria only reach 100 once unlocked.
func (s *AchievementService) ListForUser(userID string, agg *models.UserPoints) ([]AchievementStatus, error) {
	var active []models.Achievement
	if err := s.DB.Where("is_active = ?", true).Order("criteria_type ASC").Order("criteria_value ASC").Find(&active).Error; err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}
	var unlocks []models.UserAchievement
	if err := s.DB.Where("user_id = ?", userID).Find(&unlocks).Error; err != nil {
		return nil, fmt.Errorf("load unlocks for %s: %w", userID, err)
	}
	at := make(map[string]time.Time, len(unlocks))
	for _, u := range unlocks {
		at[u.AchievementID] = u.UnlockedAt
	}

	var pomodoros int64
	if err := s.DB.Model(&models.StudySession{}).
		Where("user_id = ? AND session_type = ? AND end_time IS NOT NULL", userID, models.SessionPomodoro).
		Count(&pomodoros).Error; err != nil {
		return nil, fmt.Errorf("count pomodoros for %s: %w", userID, err)
	}
	snap := gamification.SnapshotOf(agg)
	snap.PomodoroSessions = int(pomodoros)

	out := make([]AchievementStatus, 0, len(active))
	for _, a := range active {
		st := AchievementStatus{Achievement: a, RarityColor: a.Rarity.Color()}
		if t, ok := at[a.ID]; ok {
			st.Unlocked = true
			st.UnlockedAt = &t
			st.Progress = 100
		} else {
			st.Progress = gamification.Progress(a, snap)
		}
		out = append(out, st)
	}
	return out, nil
}

type AchievementInput struct {
	Name          string              `form:"name" json:"name" validate:"required,max=100"`
	Description   string              `form:"description" json:"description" validate:"required"`
	Icon          string              `form:"icon" json:"icon"`
	PointsReward  int                 `form:"points_reward" json:"points_reward" validate:"gte=0"`
	CriteriaType  models.CriteriaType `form:"criteria_type" json:"criteria_type" validate:"required,criteria_type"`
	CriteriaValue float64             `form:"criteria_value" json:"criteria_value" validate:"gt=0"`
	Rarity        models.Rarity       `form:"rarity" json:"rarity" validate:"omitempty,oneof=common rare epic legendary"`
	Inactive      bool                `form:"inactive" json:"inactive"`
}

// Create adds an achievement; a non-nil icon file is uploaded and replaces Icon
func (s *AchievementService) Create(ctx context.Context, in AchievementInput, icon *multipart.FileHeader) (*models.Achievement, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	a := models.Achievement{
		Code:          slug.Make(in.Name),
		Name:          in.Name,
		Description:   in.Description,
		Icon:          in.Icon,
		PointsReward:  in.PointsReward,
		CriteriaType:  in.CriteriaType,
		CriteriaValue: in.CriteriaValue,
		Rarity:        in.Rarity,
		IsActive:      !in.Inactive,
	}
	if a.Rarity == "" {
		a.Rarity = models.RarityCommon
	}

	var count int64
	if err := s.DB.Model(&models.Achievement{}).Where("name = ? OR code = ?", a.Name, a.Code).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAchievementExists
	}

	if icon != nil && s.Icons != nil {
		key := fmt.Sprintf("achievements/%s%s", a.Code, filepath.Ext(icon.Filename))
		url, err := s.Icons.UploadIcon(ctx, icon, key)
		if err != nil {
			return nil, fmt.Errorf("upload icon: %w", err)
		}
		a.Icon = url
	}

	if err := s.DB.Create(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

type AchievementUpdate struct {
	Description   *string              `json:"description"`
	Icon          *string              `json:"icon"`
	PointsReward  *int                 `json:"points_reward" validate:"omitempty,gte=0"`
	CriteriaType  *models.CriteriaType `json:"criteria_type" validate:"omitempty,criteria_type"`
	CriteriaValue *float64             `json:"criteria_value" validate:"omitempty,gt=0"`
	Rarity        *models.Rarity       `json:"rarity" validate:"omitempty,oneof=common rare epic legendary"`
	IsActive      *bool                `json:"is_active"`
}

// Update edits an achievement. Criteria are frozen once anyone has unlocked it.
func (s *AchievementService) Update(id string, in AchievementUpdate) (*models.Achievement, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var a models.Achievement
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&a).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAchievementNotFound
			}
			return err
		}

		criteriaChanged := (in.CriteriaType != nil && *in.CriteriaType != a.CriteriaType) ||
			(in.CriteriaValue != nil && *in.CriteriaValue != a.CriteriaValue)
		if criteriaChanged {
			var unlocks int64
			if err := tx.Model(&models.UserAchievement{}).Where("achievement_id = ?", a.ID).Count(&unlocks).Error; err != nil {
				return err
			}
			if unlocks > 0 {
				return ErrCriteriaLocked
			}
		}

		if in.Description != nil {
			a.Description = *in.Description
		}
		if in.Icon != nil {
			a.Icon = *in.Icon
		}
		if in.PointsReward != nil {
			a.PointsReward = *in.PointsReward
		}
		if in.CriteriaType != nil {
			a.CriteriaType = *in.CriteriaType
		}
		if in.CriteriaValue != nil {
			a.CriteriaValue = *in.CriteriaValue
		}
		if in.Rarity != nil {
			a.Rarity = *in.Rarity
		}
		if in.IsActive != nil {
			a.IsActive = *in.IsActive
		}
		return tx.Save(&a).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}
