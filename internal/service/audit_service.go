package service

import (
	"context"

	"psych-booking-engine/internal/domain/entity"
	"psych-booking-engine/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditService appends to the booking trail. Writes are best effort: a
// failure is logged and never fails the booking operation that caused it.
type AuditService interface {
	RecordBooking(ctx context.Context, actorID uuid.UUID, action entity.AuditAction, booking *entity.Booking, details map[string]interface{})
	RecordEvent(ctx context.Context, actorID *uuid.UUID, action entity.AuditAction, details map[string]interface{})
}

type auditService struct {
	db        *gorm.DB
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(db *gorm.DB, log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		db:        db,
		log:       log,
		auditRepo: auditRepo,
	}
}

// RecordBooking stores the booking's slot key and status as they are after
// the change, merged with the caller's details.
func (s *auditService) RecordBooking(ctx context.Context, actorID uuid.UUID, action entity.AuditAction, booking *entity.Booking, details map[string]interface{}) {
	snapshot := map[string]interface{}{
		"provider_id":    booking.ProviderID.String(),
		"date":           booking.BookingDate.Format(entity.DateLayout),
		"time":           booking.BookingTime,
		"status":         string(booking.Status),
		"booking_method": string(booking.Method),
	}
	for k, v := range details {
		snapshot[k] = v
	}

	entry := &entity.AuditLog{
		BookingID: &booking.ID,
		Action:    action,
		Details:   snapshot,
	}
	if actorID != uuid.Nil {
		entry.ActorID = &actorID
	}
	s.write(ctx, entry)
}

func (s *auditService) RecordEvent(ctx context.Context, actorID *uuid.UUID, action entity.AuditAction, details map[string]interface{}) {
	s.write(ctx, &entity.AuditLog{
		ActorID: actorID,
		Action:  action,
		Details: details,
	})
}

func (s *auditService) write(ctx context.Context, entry *entity.AuditLog) {
	if err := s.auditRepo.Create(s.db.WithContext(ctx), entry); err != nil {
		s.log.WithField("action", entry.Action).Warnf("Failed to write audit log: %+v", err)
	}
}
