package handler

import (
	"encoding/json"
	"net/http"

	"psych-booking-engine/internal/converter"
	"psych-booking-engine/internal/delivery/dto"
	"psych-booking-engine/internal/scheduling"
	"psych-booking-engine/internal/usecase"
	"psych-booking-engine/pkg/response"
	"psych-booking-engine/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type BookingHandler struct {
	reservationUsecase usecase.ReservationUsecase
	lifecycleUsecase   usecase.LifecycleUsecase
	validator          *validator.CustomValidator
}

func NewBookingHandler(
	reservationUsecase usecase.ReservationUsecase,
	lifecycleUsecase usecase.LifecycleUsecase,
	validator *validator.CustomValidator,
) *BookingHandler {
	return &BookingHandler{
		reservationUsecase: reservationUsecase,
		lifecycleUsecase:   lifecycleUsecase,
		validator:          validator,
	}
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBookingRequest
	if !h.decode(w, r, &req) {
		return
	}

	booking, err := h.reservationUsecase.Reserve(r.Context(), &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to create booking")
		return
	}

	response.Success(w, http.StatusCreated, "Booking created successfully", booking)
}

func (h *BookingHandler) CreateAutomaticBooking(w http.ResponseWriter, r *http.Request) {
	var req dto.AutomaticBookingRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.reservationUsecase.AutoBook(r.Context(), &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to create booking")
		return
	}

	response.Success(w, http.StatusCreated, "Booking created successfully", result)
}

func (h *BookingHandler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := dto.BookingListQuery{
		Status:   q.Get("status"),
		FromDate: q.Get("from"),
		ToDate:   q.Get("to"),
	}
	if err := h.validator.Validate(&query); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	bookings, err := h.lifecycleUsecase.GetMyBookings(r.Context(), &query)
	if err != nil {
		writeUsecaseError(w, err, "Failed to get bookings")
		return
	}

	response.Success(w, http.StatusOK, "Bookings retrieved successfully", bookings)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFromPath(w, r)
	if !ok {
		return
	}

	booking, err := h.lifecycleUsecase.GetBooking(r.Context(), bookingID)
	if err != nil {
		writeUsecaseError(w, err, "Failed to get booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking retrieved successfully", booking)
}

func (h *BookingHandler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFromPath(w, r)
	if !ok {
		return
	}

	var req dto.RescheduleBookingRequest
	if !h.decode(w, r, &req) {
		return
	}

	booking, err := h.lifecycleUsecase.Reschedule(r.Context(), bookingID, &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to reschedule booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking rescheduled successfully", booking)
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFromPath(w, r)
	if !ok {
		return
	}

	var req dto.CancelBookingRequest
	if !h.decode(w, r, &req) {
		return
	}

	booking, err := h.lifecycleUsecase.Cancel(r.Context(), bookingID, &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to cancel booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking cancelled successfully", booking)
}

// SweepStatuses runs the status sweep on demand (admin).
func (h *BookingHandler) SweepStatuses(w http.ResponseWriter, r *http.Request) {
	counts, err := h.lifecycleUsecase.SweepStatuses(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to sweep booking statuses")
		return
	}

	response.Success(w, http.StatusOK, "Booking statuses swept successfully", converter.TransitionsToResponse(counts, scheduling.SweepTransitions()))
}

func (h *BookingHandler) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}

	if err := h.validator.Validate(req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return false
	}
	return true
}

func bookingIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking ID", nil)
		return uuid.Nil, false
	}
	return bookingID, true
}
