package scheduling

import (
	"time"

	"psych-booking-engine/internal/domain/entity"
)

// SweepTargets are the statuses the derivation rule can produce.
var SweepTargets = []entity.BookingStatus{
	entity.BookingStatusCompleted,
	entity.BookingStatusUpcoming,
	entity.BookingStatusPending,
}

// DeriveStatus applies the time rule to a booking slot. now must already be
// expressed in the booking timezone. Non-active statuses are returned unchanged,
// so completed and cancelled bookings are never resurrected.
func DeriveStatus(current entity.BookingStatus, date time.Time, slotTime entity.ClockTime, now time.Time) entity.BookingStatus {
	if !current.IsActive() {
		return current
	}

	day := entity.DateOf(date)
	today := entity.DateOf(now)

	switch {
	case day.Before(today):
		return entity.BookingStatusCompleted
	case day.Equal(today):
		if entity.ClockOf(now) > slotTime {
			return entity.BookingStatusCompleted
		}
		return entity.BookingStatusPending
	default:
		return entity.BookingStatusUpcoming
	}
}

// DeriveBookingStatus is DeriveStatus over a stored booking.
func DeriveBookingStatus(b *entity.Booking, now time.Time) (entity.BookingStatus, error) {
	if !b.IsActive() {
		return b.Status, nil
	}
	clock, err := b.Clock()
	if err != nil {
		return b.Status, err
	}
	return DeriveStatus(b.Status, b.BookingDate, clock, now), nil
}

// SweepTransitions lists every (active status, target) pair the bulk sweep must apply.
func SweepTransitions() []entity.StatusTransition {
	var out []entity.StatusTransition
	for _, from := range entity.ActiveBookingStatuses {
		for _, to := range SweepTargets {
			if from == to {
				continue
			}
			out = append(out, entity.StatusTransition{From: from, To: to})
		}
	}
	return out
}
