package repository

import "errors"

// ErrSlotTaken is returned when a write collides with another active booking
// on the same (provider, date, time) key.
var ErrSlotTaken = errors.New("slot already held by an active booking")
