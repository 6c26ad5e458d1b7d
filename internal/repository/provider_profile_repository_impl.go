package repository

import (
	"errors"

	"psych-booking-engine/internal/domain/entity"
	domainRepo "psych-booking-engine/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type providerProfileRepository struct{}

func NewProviderProfileRepository() domainRepo.ProviderProfileRepository {
	return &providerProfileRepository{}
}

func (r *providerProfileRepository) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.ProviderProfile, error) {
	var profile entity.ProviderProfile
	err := db.Preload("User").Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *providerProfileRepository) FindAvailable(db *gorm.DB, region, category string) ([]entity.ProviderProfile, error) {
	var profiles []entity.ProviderProfile
	query := db.Where("is_available = ?", true)

	if region != "" {
		query = query.Where("LOWER(region) = LOWER(?)", region)
	}
	if category != "" {
		query = query.Where("LOWER(category) = LOWER(?)", category)
	}

	err := query.Preload("User").Order("user_id ASC").Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}
