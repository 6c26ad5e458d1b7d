package repository

import (
	"psych-booking-engine/internal/domain/entity"
	domainRepo "psych-booking-engine/internal/domain/repository"

	"gorm.io/gorm"
)

type pendingMatchRepository struct{}

func NewPendingMatchRepository() domainRepo.PendingMatchRepository {
	return &pendingMatchRepository{}
}

func (r *pendingMatchRepository) Create(db *gorm.DB, match *entity.PendingMatch) error {
	return db.Create(match).Error
}
