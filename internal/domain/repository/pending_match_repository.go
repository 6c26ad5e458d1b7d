package repository

import (
	"psych-booking-engine/internal/domain/entity"

	"gorm.io/gorm"
)

type PendingMatchRepository interface {
	Create(db *gorm.DB, match *entity.PendingMatch) error
}
