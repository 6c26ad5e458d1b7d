package handler

import (
	"net/http"
	"strconv"

	"psych-booking-engine/internal/converter"
	"psych-booking-engine/internal/delivery/dto"
	"psych-booking-engine/internal/domain/entity"
	"psych-booking-engine/internal/usecase"
	"psych-booking-engine/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AvailabilityHandler struct {
	availabilityUsecase usecase.AvailabilityUsecase
	horizonDays         int
}

func NewAvailabilityHandler(availabilityUsecase usecase.AvailabilityUsecase, horizonDays int) *AvailabilityHandler {
	return &AvailabilityHandler{
		availabilityUsecase: availabilityUsecase,
		horizonDays:         horizonDays,
	}
}

func (h *AvailabilityHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	providerID, ok := providerIDFromPath(w, r)
	if !ok {
		return
	}

	date, err := entity.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		response.ValidationError(w, map[string]string{"date": "date must be a date in YYYY-MM-DD format"})
		return
	}

	slots, err := h.availabilityUsecase.GetAvailability(r.Context(), providerID, date)
	if err != nil {
		writeUsecaseError(w, err, "Failed to get availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", converter.DayAvailabilityToResponse(&entity.DayAvailability{
		Date:  date,
		Slots: slots,
	}))
}

func (h *AvailabilityHandler) GetWeeklyAvailability(w http.ResponseWriter, r *http.Request) {
	providerID, ok := providerIDFromPath(w, r)
	if !ok {
		return
	}

	days, err := h.availabilityUsecase.GetWeeklyAvailability(r.Context(), providerID)
	if err != nil {
		writeUsecaseError(w, err, "Failed to get weekly availability")
		return
	}

	response.Success(w, http.StatusOK, "Weekly availability retrieved successfully", dto.WeeklyAvailabilityResponse{
		ProviderID: providerID,
		Days:       converter.DaysToResponses(days),
	})
}

func (h *AvailabilityHandler) GetNextAvailable(w http.ResponseWriter, r *http.Request) {
	providerID, ok := providerIDFromPath(w, r)
	if !ok {
		return
	}

	horizon := h.horizonDays
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 90 {
			response.ValidationError(w, map[string]string{"horizon": "horizon must be between 1 and 90 days"})
			return
		}
		horizon = n
	}

	day, err := h.availabilityUsecase.GetNextAvailable(r.Context(), providerID, horizon)
	if err != nil {
		writeUsecaseError(w, err, "Failed to get next available day")
		return
	}

	response.Success(w, http.StatusOK, "Next availability retrieved successfully", dto.NextAvailableResponse{
		ProviderID: providerID,
		Available:  day != nil,
		Day:        converter.DayAvailabilityToResponse(day),
	})
}

func providerIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	providerID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid provider ID", nil)
		return uuid.Nil, false
	}
	return providerID, true
}
