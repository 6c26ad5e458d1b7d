package usecase

import (
	"errors"
)

// Reason is the machine-readable kind of a booking failure.
type Reason string

const (
	ReasonValidation          Reason = "validation"
	ReasonNotFound            Reason = "not_found"
	ReasonSlotUnavailable     Reason = "slot_unavailable"
	ReasonContentionExhausted Reason = "contention_exhausted"
	ReasonNotActive           Reason = "not_active"
	ReasonNoMatch             Reason = "no_match"
)

// BookingError is a structured engine failure. errors.Is matches on Reason,
// so callers compare against the Err* kind values below.
type BookingError struct {
	Reason  Reason
	Message string
	Err     error
}

func (e *BookingError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *BookingError) Unwrap() error {
	return e.Err
}

func (e *BookingError) Is(target error) bool {
	t, ok := target.(*BookingError)
	if !ok {
		return false
	}
	return t.Reason == e.Reason
}

// Retryable reports whether the caller may try again with fresh availability.
func (e *BookingError) Retryable() bool {
	return e.Reason == ReasonSlotUnavailable || e.Reason == ReasonContentionExhausted
}

var (
	ErrValidation          = &BookingError{Reason: ReasonValidation, Message: "invalid request"}
	ErrNotFound            = &BookingError{Reason: ReasonNotFound, Message: "resource not found"}
	ErrSlotUnavailable     = &BookingError{Reason: ReasonSlotUnavailable, Message: "slot is no longer available"}
	ErrContentionExhausted = &BookingError{Reason: ReasonContentionExhausted, Message: "no slot could be obtained after retries, try again later"}
	ErrNotActive           = &BookingError{Reason: ReasonNotActive, Message: "booking is not active"}
	ErrNoMatch             = &BookingError{Reason: ReasonNoMatch, Message: "no provider matches the request"}

	ErrUnauthenticated = errors.New("user not found in context")
	ErrBookingNotOwned = errors.New("booking does not belong to you")
)

func newError(reason Reason, message string) *BookingError {
	return &BookingError{Reason: reason, Message: message}
}

func wrapError(reason Reason, message string, err error) *BookingError {
	return &BookingError{Reason: reason, Message: message, Err: err}
}

// ReasonOf extracts the failure kind, or "" for infrastructure errors.
func ReasonOf(err error) Reason {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Reason
	}
	return ""
}
