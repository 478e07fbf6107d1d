package models

import "gorm.io/gorm"

// AutoMigrate creates or updates every table owned by this service
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Task{},
		&StudySession{},
		&UserPoints{},
		&Achievement{},
		&UserAchievement{},
	)
}
