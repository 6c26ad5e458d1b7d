package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"psych-booking-engine/internal/domain/entity"
	domainRepo "psych-booking-engine/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// activeSlotConstraint is the partial unique index on (provider_id, booking_date, booking_time).
const activeSlotConstraint = "uq_bookings_active_slot"

type bookingRepository struct{}

func NewBookingRepository() domainRepo.BookingRepository {
	return &bookingRepository{}
}

func (r *bookingRepository) Create(db *gorm.DB, booking *entity.Booking) error {
	err := db.Omit(clause.Associations).Create(booking).Error
	if isSlotTakenError(err) {
		return domainRepo.ErrSlotTaken
	}
	return err
}

func (r *bookingRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Booking, error) {
	var booking entity.Booking
	err := db.Preload("Provider.User").Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByClientID(db *gorm.DB, clientID uuid.UUID, filter *entity.BookingFilter) ([]entity.Booking, error) {
	var bookings []entity.Booking
	query := db.Where("client_id = ?", clientID)

	if filter != nil {
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.FromDate != "" {
			query = query.Where("booking_date >= ?", filter.FromDate)
		}
		if filter.ToDate != "" {
			query = query.Where("booking_date <= ?", filter.ToDate)
		}
	}

	err := query.
		Order("booking_date DESC, booking_time DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindActiveByProviderAndDate(db *gorm.DB, providerID uuid.UUID, date time.Time) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := db.
		Where("provider_id = ? AND booking_date = ? AND status IN ?", providerID, date.Format(entity.DateLayout), entity.ActiveBookingStatuses).
		Order("booking_time ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) ExistsActive(db *gorm.DB, providerID uuid.UUID, date time.Time, slotTime string) (bool, error) {
	var count int64
	err := db.Model(&entity.Booking{}).
		Where("provider_id = ? AND booking_date = ? AND booking_time = ? AND status IN ?",
			providerID, date.Format(entity.DateLayout), slotTime, entity.ActiveBookingStatuses).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *bookingRepository) UpdateStatus(db *gorm.DB, id uuid.UUID, from, to entity.BookingStatus) (int64, error) {
	result := db.Model(&entity.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

// Reschedule persists the new slot, status and history of an already mutated booking.
// Returns ErrSlotTaken when the new slot is held by another active booking.
func (r *bookingRepository) Reschedule(db *gorm.DB, booking *entity.Booking, from entity.BookingStatus) (int64, error) {
	result := db.Model(booking).
		Where("status = ?", from).
		Select("booking_date", "booking_time", "status", "reschedule_history", "updated_at").
		Updates(booking)
	if isSlotTakenError(result.Error) {
		return 0, domainRepo.ErrSlotTaken
	}
	return result.RowsAffected, result.Error
}

// Cancel atomically cancels a booking ONLY if its status is still from.
// Returns affected rows: 1 = success, 0 = status moved concurrently (prevents double-cancel race).
func (r *bookingRepository) Cancel(db *gorm.DB, booking *entity.Booking, from entity.BookingStatus) (int64, error) {
	result := db.Model(booking).
		Where("status = ?", from).
		Select("status", "cancelled_at", "cancellation_reason", "updated_at").
		Updates(booking)
	return result.RowsAffected, result.Error
}

func (r *bookingRepository) SweepStatus(db *gorm.DB, from, to entity.BookingStatus, today time.Time, nowClock string) (int64, error) {
	day := today.Format(entity.DateLayout)
	query := db.Model(&entity.Booking{}).Where("status = ?", from)

	switch to {
	case entity.BookingStatusCompleted:
		query = query.Where("(booking_date < ? OR (booking_date = ? AND booking_time < ?))", day, day, nowClock)
	case entity.BookingStatusUpcoming:
		query = query.Where("booking_date > ?", day)
	case entity.BookingStatusPending:
		query = query.Where("booking_date = ? AND booking_time >= ?", day, nowClock)
	default:
		return 0, fmt.Errorf("status %q is not a sweep target", to)
	}

	result := query.Update("status", to)
	return result.RowsAffected, result.Error
}

// isSlotTakenError checks if the error is a PostgreSQL unique violation on the active slot index
func isSlotTakenError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23505 = unique_violation
		return pgErr.Code == "23505" && strings.Contains(strings.ToLower(pgErr.ConstraintName), activeSlotConstraint)
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
