package dto

import "github.com/google/uuid"

// Request DTOs

type MatchRequest struct {
	Region        string `json:"region" validate:"required,max=100"`
	Category      string `json:"category" validate:"required,max=100"`
	PersistOnMiss bool   `json:"persist_on_miss"`
}

// Response DTOs

type ProviderSummaryResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Region          string    `json:"region"`
	Category        string    `json:"category"`
	Rating          string    `json:"rating"`
	ExperienceYears int       `json:"experience_years"`
}

type MatchResponse struct {
	Matched  bool                     `json:"matched"`
	Tier     string                   `json:"tier"`
	Message  string                   `json:"message"`
	Provider *ProviderSummaryResponse `json:"provider,omitempty"`
}
