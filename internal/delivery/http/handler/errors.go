package handler

import (
	"errors"
	"net/http"

	"psych-booking-engine/internal/usecase"
	"psych-booking-engine/pkg/response"
)

// writeUsecaseError maps engine failures onto HTTP statuses. Anything without a
// failure reason is an infrastructure error and surfaces as a 500 with fallback.
func writeUsecaseError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrUnauthenticated):
		response.Unauthorized(w, "User not found in context")
		return
	case errors.Is(err, usecase.ErrBookingNotOwned):
		response.Forbidden(w, "Booking does not belong to you")
		return
	}

	var be *usecase.BookingError
	if !errors.As(err, &be) {
		response.InternalServerError(w, fallback)
		return
	}

	status := http.StatusInternalServerError
	switch be.Reason {
	case usecase.ReasonValidation:
		status = http.StatusBadRequest
	case usecase.ReasonNotFound:
		status = http.StatusNotFound
	case usecase.ReasonSlotUnavailable, usecase.ReasonNotActive:
		status = http.StatusConflict
	case usecase.ReasonContentionExhausted:
		w.Header().Set("Retry-After", "1")
		status = http.StatusServiceUnavailable
	case usecase.ReasonNoMatch:
		status = http.StatusNotFound
	}
	response.Failure(w, status, be.Message, string(be.Reason))
}
