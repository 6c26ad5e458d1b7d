package dto

import "github.com/google/uuid"

// Response DTOs

type SlotResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type DayAvailabilityResponse struct {
	Date  string         `json:"date"`
	Slots []SlotResponse `json:"slots"`
}

type WeeklyAvailabilityResponse struct {
	ProviderID uuid.UUID                 `json:"provider_id"`
	Days       []DayAvailabilityResponse `json:"days"`
}

type NextAvailableResponse struct {
	ProviderID uuid.UUID                `json:"provider_id"`
	Available  bool                     `json:"available"`
	Day        *DayAvailabilityResponse `json:"day,omitempty"`
}
