package repository

import (
	"psych-booking-engine/internal/domain/entity"

	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(db *gorm.DB, entry *entity.AuditLog) error
	// Find returns newest entries first.
	Find(db *gorm.DB, filter entity.AuditFilter) ([]entity.AuditLog, error)
	FindByID(db *gorm.DB, id int64) (*entity.AuditLog, error)
}
