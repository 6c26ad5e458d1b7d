package repository

import (
	"psych-booking-engine/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProviderProfileRepository interface {
	FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.ProviderProfile, error)
	// FindAvailable lists providers flagged available. Empty region or
	// category means no constraint on that column.
	FindAvailable(db *gorm.DB, region, category string) ([]entity.ProviderProfile, error)
}
