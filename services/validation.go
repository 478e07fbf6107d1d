package services

import (
	"fmt"
	"sync"

	"study-progress-system/gamification"
	"study-progress-system/models"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func InitValidator() {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterValidation("criteria_type", func(fl validator.FieldLevel) bool {
			return gamification.ValidCriteriaType(models.CriteriaType(fl.Field().String()))
		})
	})
}

// validateInput runs struct tags and wraps failures in ErrValidation
func validateInput(in any) error {
	InitValidator()
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	return nil
}
