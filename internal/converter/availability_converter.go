package converter

import (
	"psych-booking-engine/internal/delivery/dto"
	"psych-booking-engine/internal/domain/entity"
)

// SlotsToResponses converts slots to SlotResponse DTOs
func SlotsToResponses(slots []entity.Slot) []dto.SlotResponse {
	responses := make([]dto.SlotResponse, len(slots))
	for i, s := range slots {
		responses[i] = dto.SlotResponse{
			Start: s.StartTime.String(),
			End:   s.EndTime.String(),
		}
	}
	return responses
}

// DayAvailabilityToResponse converts one day of free slots to its DTO
func DayAvailabilityToResponse(day *entity.DayAvailability) *dto.DayAvailabilityResponse {
	if day == nil {
		return nil
	}
	return &dto.DayAvailabilityResponse{
		Date:  day.Date.Format(entity.DateLayout),
		Slots: SlotsToResponses(day.Slots),
	}
}

// DaysToResponses converts a week of availability to DTOs
func DaysToResponses(days []entity.DayAvailability) []dto.DayAvailabilityResponse {
	responses := make([]dto.DayAvailabilityResponse, len(days))
	for i := range days {
		responses[i] = *DayAvailabilityToResponse(&days[i])
	}
	return responses
}
