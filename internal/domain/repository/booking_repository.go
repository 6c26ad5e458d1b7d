package repository

import (
	"time"

	"psych-booking-engine/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingRepository interface {
	// Create returns ErrSlotTaken when the slot key is already held.
	Create(db *gorm.DB, booking *entity.Booking) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Booking, error)
	FindByClientID(db *gorm.DB, clientID uuid.UUID, filter *entity.BookingFilter) ([]entity.Booking, error)
	FindActiveByProviderAndDate(db *gorm.DB, providerID uuid.UUID, date time.Time) ([]entity.Booking, error)
	ExistsActive(db *gorm.DB, providerID uuid.UUID, date time.Time, slotTime string) (bool, error)
	// UpdateStatus, Reschedule and Cancel only apply while the stored status
	// still equals from. They return the affected row count.
	UpdateStatus(db *gorm.DB, id uuid.UUID, from, to entity.BookingStatus) (int64, error)
	Reschedule(db *gorm.DB, booking *entity.Booking, from entity.BookingStatus) (int64, error)
	Cancel(db *gorm.DB, booking *entity.Booking, from entity.BookingStatus) (int64, error)
	// SweepStatus moves every booking in status from whose slot falls in the
	// window implied by to, relative to today and nowClock (HH:MM).
	SweepStatus(db *gorm.DB, from, to entity.BookingStatus, today time.Time, nowClock string) (int64, error)
}
