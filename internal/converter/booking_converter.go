package converter

import (
	"psych-booking-engine/internal/delivery/dto"
	"psych-booking-engine/internal/domain/entity"
)

// BookingToResponse converts a Booking entity to BookingResponse DTO
func BookingToResponse(booking *entity.Booking) *dto.BookingResponse {
	if booking == nil {
		return nil
	}

	response := &dto.BookingResponse{
		ID:                 booking.ID,
		ClientID:           booking.ClientID,
		ProviderID:         booking.ProviderID,
		Date:               booking.BookingDate.Format(entity.DateLayout),
		Time:               booking.BookingTime,
		Status:             string(booking.Status),
		BookingMethod:      string(booking.Method),
		RescheduleHistory:  make([]dto.RescheduleEntryResponse, 0, len(booking.RescheduleHistory)),
		CancelledAt:        booking.CancelledAt,
		CancellationReason: booking.CancellationReason,
		CreatedAt:          booking.CreatedAt,
		UpdatedAt:          booking.UpdatedAt,
	}

	// Include provider name if the relation was preloaded
	if booking.Provider.User.FullName != "" {
		response.ProviderName = booking.Provider.User.FullName
	}

	switch intake := booking.Intake.Intake.(type) {
	case entity.ManualIntake:
		p := intake.Patient
		response.PatientDetails = &dto.PatientDetailsResponse{
			FullName: p.FullName,
			Age:      p.Age,
			Gender:   p.Gender,
			Phone:    p.Phone,
			Concern:  p.Concern,
		}
	case entity.AutomaticIntake:
		q := intake.Questionnaire
		response.Questionnaire = &dto.QuestionnaireResponse{
			Region:      q.Region,
			Category:    q.Category,
			Answers:     q.Answers,
			SubmittedAt: q.SubmittedAt,
		}
	}

	for _, entry := range booking.RescheduleHistory {
		response.RescheduleHistory = append(response.RescheduleHistory, dto.RescheduleEntryResponse{
			PreviousDate: entry.PreviousDate,
			PreviousTime: entry.PreviousTime,
			Reason:       entry.Reason,
			Timestamp:    entry.Timestamp,
		})
	}

	return response
}

// BookingsToResponses converts a slice of Booking entities to slice of BookingResponse DTOs
func BookingsToResponses(bookings []entity.Booking) []dto.BookingResponse {
	responses := make([]dto.BookingResponse, len(bookings))
	for i := range bookings {
		resp := BookingToResponse(&bookings[i])
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}

// PatientDetailsFromRequest maps the manual intake payload onto the domain type.
func PatientDetailsFromRequest(req *dto.PatientDetailsRequest) entity.PatientDetails {
	if req == nil {
		return entity.PatientDetails{}
	}
	return entity.PatientDetails{
		FullName: req.FullName,
		Age:      req.Age,
		Gender:   req.Gender,
		Phone:    req.Phone,
		Concern:  req.Concern,
	}
}

// TransitionsToResponse flattens sweep counts, ordered as given in order.
func TransitionsToResponse(counts map[entity.StatusTransition]int64, order []entity.StatusTransition) *dto.SweepResponse {
	response := &dto.SweepResponse{Transitions: make([]dto.TransitionCount, 0, len(counts))}
	for _, t := range order {
		n, ok := counts[t]
		if !ok {
			continue
		}
		response.Transitions = append(response.Transitions, dto.TransitionCount{
			From:  string(t.From),
			To:    string(t.To),
			Count: n,
		})
		response.Total += n
	}
	return response
}
