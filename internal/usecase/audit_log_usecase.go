package usecase

import (
	"context"
	"errors"

	"psych-booking-engine/internal/converter"
	"psych-booking-engine/internal/delivery/dto"
	"psych-booking-engine/internal/domain/entity"
	"psych-booking-engine/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrAuditLogNotFound = errors.New("audit log not found")

const defaultAuditLogLimit = 100

// AuditLogUsecase is the admin read side of the booking trail.
type AuditLogUsecase interface {
	GetAllAuditLogs(ctx context.Context, query *dto.AuditLogQuery) (*dto.AuditLogListResponse, error)
	GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error)
}

type auditLogUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	auditLogRepo repository.AuditLogRepository
}

func NewAuditLogUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	auditLogRepo repository.AuditLogRepository,
) AuditLogUsecase {
	return &auditLogUsecase{
		db:           db,
		log:          log,
		auditLogRepo: auditLogRepo,
	}
}

func (u *auditLogUsecase) GetAllAuditLogs(ctx context.Context, query *dto.AuditLogQuery) (*dto.AuditLogListResponse, error) {
	filter := entity.AuditFilter{Limit: defaultAuditLogLimit}
	if query != nil {
		filter.Action = entity.AuditAction(query.Action)
		if query.Limit > 0 {
			filter.Limit = query.Limit
		}
		if query.BookingID != "" {
			bookingID, err := uuid.Parse(query.BookingID)
			if err != nil {
				return nil, newError(ReasonValidation, "booking_id must be a UUID")
			}
			filter.BookingID = &bookingID
		}
	}

	entries, err := u.auditLogRepo.Find(u.db.WithContext(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to list audit logs: %+v", err)
		return nil, err
	}
	return converter.AuditLogsToResponse(entries), nil
}

func (u *auditLogUsecase) GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error) {
	entry, err := u.auditLogRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find audit log %d: %+v", id, err)
		return nil, err
	}
	if entry == nil {
		return nil, ErrAuditLogNotFound
	}
	return converter.AuditLogToResponse(entry), nil
}
