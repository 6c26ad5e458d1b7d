package converter

import (
	"psych-booking-engine/internal/delivery/dto"
	"psych-booking-engine/internal/domain/entity"
)

// ProviderToSummary converts a ProviderProfile entity to ProviderSummaryResponse DTO
func ProviderToSummary(profile *entity.ProviderProfile) *dto.ProviderSummaryResponse {
	if profile == nil {
		return nil
	}
	return &dto.ProviderSummaryResponse{
		ID:              profile.UserID,
		Name:            profile.DisplayName(),
		Region:          profile.Region,
		Category:        profile.Category,
		Rating:          profile.Rating.StringFixed(2),
		ExperienceYears: profile.ExperienceYears,
	}
}

// MatchToResponse converts a MatchResult to MatchResponse DTO
func MatchToResponse(result *entity.MatchResult) *dto.MatchResponse {
	if result == nil {
		return nil
	}
	return &dto.MatchResponse{
		Matched:  result.Matched(),
		Tier:     string(result.Tier),
		Message:  result.Message,
		Provider: ProviderToSummary(result.Provider),
	}
}
