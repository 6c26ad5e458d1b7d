package handler

import (
	"encoding/json"
	"net/http"

	"psych-booking-engine/internal/converter"
	"psych-booking-engine/internal/delivery/dto"
	"psych-booking-engine/internal/delivery/http/middleware"
	"psych-booking-engine/internal/usecase"
	"psych-booking-engine/pkg/response"
	"psych-booking-engine/pkg/validator"
)

type MatchHandler struct {
	matchingUsecase usecase.MatchingUsecase
	validator       *validator.CustomValidator
}

func NewMatchHandler(matchingUsecase usecase.MatchingUsecase, validator *validator.CustomValidator) *MatchHandler {
	return &MatchHandler{
		matchingUsecase: matchingUsecase,
		validator:       validator,
	}
}

// MatchProvider answers 200 on a miss too; the body says matched=false.
func (h *MatchHandler) MatchProvider(w http.ResponseWriter, r *http.Request) {
	var req dto.MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.matchingUsecase.MatchProvider(r.Context(), req.Region, req.Category)
	if err != nil {
		writeUsecaseError(w, err, "Failed to match provider")
		return
	}

	if !result.Matched() && req.PersistOnMiss {
		clientID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "User not found in context")
			return
		}
		if err := h.matchingUsecase.RecordPendingMatch(r.Context(), clientID, req.Region, req.Category, result.Message); err != nil {
			response.InternalServerError(w, "Failed to record pending match")
			return
		}
	}

	response.Success(w, http.StatusOK, result.Message, converter.MatchToResponse(result))
}
