package entity

import (
	"errors"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date format, use YYYY-MM-DD")

// DateOf returns the civil date of t (in t's own location) as UTC midnight.
// Booking and slot dates are always carried in this normalized form.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a normalized date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Slot is a candidate appointment interval. It is computed, never stored.
type Slot struct {
	Date      time.Time
	StartTime ClockTime
	EndTime   ClockTime
}

// Key is the HH:MM start used as the booking_time half of the slot key.
func (s Slot) Key() string {
	return s.StartTime.String()
}

// DayAvailability groups the free slots of one date.
type DayAvailability struct {
	Date  time.Time
	Slots []Slot
}
