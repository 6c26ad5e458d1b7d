package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type PatientDetailsRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=255"`
	Age      int    `json:"age" validate:"required,gte=1,lte=120"`
	Gender   string `json:"gender" validate:"omitempty,oneof=male female other"`
	Phone    string `json:"phone" validate:"required,min=8,max=20"`
	Concern  string `json:"concern" validate:"omitempty,max=1000"`
}

type CreateBookingRequest struct {
	ProviderID     string                 `json:"provider_id" validate:"required,uuid"`
	Date           string                 `json:"date" validate:"required,date"`
	Time           string                 `json:"time" validate:"required,clock"`
	PatientDetails *PatientDetailsRequest `json:"patient_details" validate:"required"`
}

type AutomaticBookingRequest struct {
	ProviderID string            `json:"provider_id" validate:"omitempty,uuid"`
	Region     string            `json:"region" validate:"required,max=100"`
	Category   string            `json:"category" validate:"required,max=100"`
	Answers    map[string]string `json:"answers"`
}

type RescheduleBookingRequest struct {
	Date   string `json:"date" validate:"required,date"`
	Time   string `json:"time" validate:"required,clock"`
	Reason string `json:"reason" validate:"required,max=500"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// BookingListQuery is bound from query parameters.
type BookingListQuery struct {
	Status   string `validate:"omitempty,oneof=pending confirmed upcoming completed cancelled rescheduled"`
	FromDate string `validate:"omitempty,date"`
	ToDate   string `validate:"omitempty,date"`
}

// Response DTOs

type PatientDetailsResponse struct {
	FullName string `json:"full_name"`
	Age      int    `json:"age"`
	Gender   string `json:"gender,omitempty"`
	Phone    string `json:"phone"`
	Concern  string `json:"concern,omitempty"`
}

type QuestionnaireResponse struct {
	Region      string            `json:"region"`
	Category    string            `json:"category"`
	Answers     map[string]string `json:"answers,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"`
}

type RescheduleEntryResponse struct {
	PreviousDate string    `json:"previous_date"`
	PreviousTime string    `json:"previous_time"`
	Reason       string    `json:"reason"`
	Timestamp    time.Time `json:"timestamp"`
}

type BookingResponse struct {
	ID                 uuid.UUID                 `json:"id"`
	ClientID           uuid.UUID                 `json:"client_id"`
	ProviderID         uuid.UUID                 `json:"provider_id"`
	ProviderName       string                    `json:"provider_name,omitempty"`
	Date               string                    `json:"date"`
	Time               string                    `json:"time"`
	Status             string                    `json:"status"`
	BookingMethod      string                    `json:"booking_method"`
	PatientDetails     *PatientDetailsResponse   `json:"patient_details,omitempty"`
	Questionnaire      *QuestionnaireResponse    `json:"questionnaire,omitempty"`
	RescheduleHistory  []RescheduleEntryResponse `json:"reschedule_history"`
	CancelledAt        *time.Time                `json:"cancelled_at,omitempty"`
	CancellationReason string                    `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int               `json:"total"`
}

type AutomaticBookingResponse struct {
	Booking *BookingResponse `json:"booking"`
	Match   *MatchResponse   `json:"match,omitempty"`
}

type TransitionCount struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Count int64  `json:"count"`
}

type SweepResponse struct {
	Transitions []TransitionCount `json:"transitions"`
	Total       int64             `json:"total"`
}
