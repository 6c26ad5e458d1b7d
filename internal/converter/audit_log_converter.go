package converter

import (
	"psych-booking-engine/internal/delivery/dto"
	"psych-booking-engine/internal/domain/entity"
)

func AuditLogToResponse(entry *entity.AuditLog) *dto.AuditLogResponse {
	if entry == nil {
		return nil
	}

	return &dto.AuditLogResponse{
		ID:        entry.ID,
		ActorID:   entry.ActorID,
		BookingID: entry.BookingID,
		Action:    string(entry.Action),
		Details:   entry.Details,
		CreatedAt: entry.CreatedAt,
	}
}

// AuditLogsToResponse keeps the repository's newest-first order.
func AuditLogsToResponse(entries []entity.AuditLog) *dto.AuditLogListResponse {
	logs := make([]dto.AuditLogResponse, 0, len(entries))
	for i := range entries {
		logs = append(logs, *AuditLogToResponse(&entries[i]))
	}
	return &dto.AuditLogListResponse{Logs: logs, Total: len(logs)}
}
