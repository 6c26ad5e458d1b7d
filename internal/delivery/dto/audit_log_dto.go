package dto

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogQuery is bound from query parameters.
type AuditLogQuery struct {
	Action    string `validate:"omitempty,oneof=booking.create booking.reschedule booking.cancel booking.status_sweep match.pending"`
	BookingID string `validate:"omitempty,uuid"`
	Limit     int    `validate:"gte=0,lte=500"`
}

type AuditLogResponse struct {
	ID        int64                  `json:"id"`
	ActorID   *uuid.UUID             `json:"actor_id,omitempty"`
	BookingID *uuid.UUID             `json:"booking_id,omitempty"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int                `json:"total"`
}
