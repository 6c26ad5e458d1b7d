package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction names a state change in the booking trail.
type AuditAction string

const (
	AuditActionBookingCreate     AuditAction = "booking.create"
	AuditActionBookingReschedule AuditAction = "booking.reschedule"
	AuditActionBookingCancel     AuditAction = "booking.cancel"
	AuditActionBookingSweep      AuditAction = "booking.status_sweep"
	AuditActionMatchPending      AuditAction = "match.pending"
)

// AuditLog is one entry of the booking trail. BookingID is nil for events
// that touch many bookings (sweeps) or none (pending matches).
type AuditLog struct {
	ID        int64                  `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID   *uuid.UUID             `gorm:"type:uuid;index" json:"actor_id,omitempty"`
	BookingID *uuid.UUID             `gorm:"type:uuid;index" json:"booking_id,omitempty"`
	Action    AuditAction            `gorm:"type:varchar(100);not null;index" json:"action"`
	Details   map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"details,omitempty"`
	CreatedAt time.Time              `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditFilter narrows the trail listing. Zero values mean "any".
type AuditFilter struct {
	Action    AuditAction
	BookingID *uuid.UUID
	Limit     int
}
