package usecase

import (
	"context"
	"errors"
	"fmt"

	"psych-booking-engine/internal/converter"
	"psych-booking-engine/internal/delivery/dto"
	"psych-booking-engine/internal/delivery/http/middleware"
	"psych-booking-engine/internal/domain/entity"
	"psych-booking-engine/internal/domain/repository"
	"psych-booking-engine/internal/metrics"
	"psych-booking-engine/internal/scheduling"
	"psych-booking-engine/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type LifecycleUsecase interface {
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*dto.BookingResponse, error)
	GetMyBookings(ctx context.Context, query *dto.BookingListQuery) (*dto.BookingListResponse, error)
	Reschedule(ctx context.Context, bookingID uuid.UUID, req *dto.RescheduleBookingRequest) (*dto.BookingResponse, error)
	Cancel(ctx context.Context, bookingID uuid.UUID, req *dto.CancelBookingRequest) (*dto.BookingResponse, error)
	// RefreshStatus re-derives one booking's status and persists it only when it changed.
	RefreshStatus(ctx context.Context, booking *entity.Booking) (bool, error)
	// SweepStatuses applies the derivation rule to every active booking in bulk.
	SweepStatuses(ctx context.Context) (map[entity.StatusTransition]int64, error)
}

type lifecycleUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	bookingRepo  repository.BookingRepository
	availability AvailabilityUsecase
	cache        *service.AvailabilityCache
	auditService service.AuditService
	metrics      *metrics.BookingMetrics
	clock        scheduling.Clock
}

func NewLifecycleUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	availability AvailabilityUsecase,
	cache *service.AvailabilityCache,
	auditService service.AuditService,
	bookingMetrics *metrics.BookingMetrics,
	clock scheduling.Clock,
) LifecycleUsecase {
	return &lifecycleUsecase{
		db:           db,
		log:          log,
		bookingRepo:  bookingRepo,
		availability: availability,
		cache:        cache,
		auditService: auditService,
		metrics:      bookingMetrics,
		clock:        clock,
	}
}

// GetBooking returns one booking visible to its client, its provider or an admin,
// with the status brought up to date.
func (u *lifecycleUsecase) GetBooking(ctx context.Context, bookingID uuid.UUID) (*dto.BookingResponse, error) {
	booking, err := u.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeView(ctx, booking); err != nil {
		return nil, err
	}

	if _, err := u.RefreshStatus(ctx, booking); err != nil {
		return nil, err
	}
	return converter.BookingToResponse(booking), nil
}

// GetMyBookings returns all bookings for the logged-in client
func (u *lifecycleUsecase) GetMyBookings(ctx context.Context, query *dto.BookingListQuery) (*dto.BookingListResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	filter := &entity.BookingFilter{}
	if query != nil {
		filter.Status = entity.BookingStatus(query.Status)
		filter.FromDate = query.FromDate
		filter.ToDate = query.ToDate
	}

	bookings, err := u.bookingRepo.FindByClientID(u.db.WithContext(ctx), userID, filter)
	if err != nil {
		u.log.Warnf("Failed to find bookings for client %s: %+v", userID, err)
		return nil, err
	}

	for i := range bookings {
		if _, err := u.RefreshStatus(ctx, &bookings[i]); err != nil {
			return nil, err
		}
	}

	return &dto.BookingListResponse{
		Bookings: converter.BookingsToResponses(bookings),
		Total:    len(bookings),
	}, nil
}

func (u *lifecycleUsecase) RefreshStatus(ctx context.Context, booking *entity.Booking) (bool, error) {
	derived, err := scheduling.DeriveBookingStatus(booking, u.clock.Now())
	if err != nil {
		u.log.Warnf("Booking %s has an unreadable slot time %q: %+v", booking.ID, booking.BookingTime, err)
		return false, nil
	}
	if derived == booking.Status {
		return false, nil
	}

	from := booking.Status
	affected, err := u.bookingRepo.UpdateStatus(u.db.WithContext(ctx), booking.ID, from, derived)
	if err != nil {
		u.log.Warnf("Failed to refresh status of booking %s: %+v", booking.ID, err)
		return false, err
	}
	if affected == 0 {
		// Someone else moved it first; show what is stored now.
		current, err := u.bookingRepo.FindByID(u.db.WithContext(ctx), booking.ID)
		if err != nil {
			return false, err
		}
		if current != nil {
			booking.Status = current.Status
		}
		return false, nil
	}

	booking.Status = derived
	u.metrics.ObserveTransition(string(from), string(derived), "lazy", 1)
	return true, nil
}

// Reschedule moves an active booking to another free future slot.
// A failed move leaves the booking unchanged.
func (u *lifecycleUsecase) Reschedule(ctx context.Context, bookingID uuid.UUID, req *dto.RescheduleBookingRequest) (*dto.BookingResponse, error) {
	booking, err := u.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(ctx, booking); err != nil {
		return nil, err
	}

	newDate, err := entity.ParseDate(req.Date)
	if err != nil {
		return nil, wrapError(ReasonValidation, "invalid date", err)
	}
	newTime, err := entity.ParseClock(req.Time)
	if err != nil {
		return nil, wrapError(ReasonValidation, "invalid time", err)
	}

	if _, err := u.RefreshStatus(ctx, booking); err != nil {
		return nil, err
	}
	if !booking.IsActive() {
		return nil, newError(ReasonNotActive, fmt.Sprintf("booking is %s and cannot be rescheduled", booking.Status))
	}

	now := u.clock.Now()
	today := entity.DateOf(now)
	if newDate.Before(today) || (newDate.Equal(today) && newTime <= entity.ClockOf(now)) {
		return nil, newError(ReasonValidation, "new slot must be in the future")
	}
	if newDate.Equal(booking.BookingDate) && newTime.String() == booking.BookingTime {
		return nil, newError(ReasonValidation, "new slot is the same as the current one")
	}

	slots, err := u.availability.GetAvailability(ctx, booking.ProviderID, newDate, WithFreshRead())
	if err != nil {
		return nil, err
	}
	if !containsSlot(slots, newTime) {
		return nil, newError(ReasonSlotUnavailable, fmt.Sprintf("slot %s on %s is not available", newTime, newDate.Format(entity.DateLayout)))
	}

	from := booking.Status
	oldDate, oldTime := booking.BookingDate, booking.BookingTime
	booking.Reschedule(newDate, newTime, req.Reason, now)

	affected, err := u.bookingRepo.Reschedule(u.db.WithContext(ctx), booking, from)
	if err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			u.metrics.ObserveContention("reschedule")
			return nil, wrapError(ReasonSlotUnavailable, fmt.Sprintf("slot %s on %s was just taken", newTime, newDate.Format(entity.DateLayout)), err)
		}
		u.log.Warnf("Failed to reschedule booking %s: %+v", booking.ID, err)
		return nil, err
	}
	if affected == 0 {
		return nil, newError(ReasonNotActive, "booking changed while rescheduling, reload and try again")
	}

	if err := u.cache.Invalidate(ctx, booking.ProviderID, oldDate, booking.BookingDate); err != nil {
		u.log.Warnf("Failed to invalidate availability after reschedule of %s: %+v", booking.ID, err)
	}

	userID, _ := middleware.GetUserIDFromContext(ctx)
	u.auditService.RecordBooking(ctx, userID, entity.AuditActionBookingReschedule, booking, map[string]interface{}{
		"previous_date":   oldDate.Format(entity.DateLayout),
		"previous_time":   oldTime,
		"previous_status": string(from),
		"reason":          req.Reason,
	})

	return converter.BookingToResponse(booking), nil
}

// Cancel ends an active booking. Cancellation is terminal.
func (u *lifecycleUsecase) Cancel(ctx context.Context, bookingID uuid.UUID, req *dto.CancelBookingRequest) (*dto.BookingResponse, error) {
	booking, err := u.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeCancel(ctx, booking); err != nil {
		return nil, err
	}

	if _, err := u.RefreshStatus(ctx, booking); err != nil {
		return nil, err
	}
	if !booking.IsActive() {
		return nil, newError(ReasonNotActive, fmt.Sprintf("booking is %s and cannot be cancelled", booking.Status))
	}

	from := booking.Status
	booking.Cancel(req.Reason, u.clock.Now())

	// Atomic cancel: only succeeds if status is still from
	affected, err := u.bookingRepo.Cancel(u.db.WithContext(ctx), booking, from)
	if err != nil {
		u.log.Warnf("Failed to cancel booking %s: %+v", booking.ID, err)
		return nil, err
	}
	if affected == 0 {
		return nil, newError(ReasonNotActive, "booking changed while cancelling, reload and try again")
	}

	if err := u.cache.Invalidate(ctx, booking.ProviderID, booking.BookingDate); err != nil {
		u.log.Warnf("Failed to invalidate availability after cancel of %s: %+v", booking.ID, err)
	}

	userID, _ := middleware.GetUserIDFromContext(ctx)
	u.auditService.RecordBooking(ctx, userID, entity.AuditActionBookingCancel, booking, map[string]interface{}{
		"previous_status": string(from),
		"reason":          req.Reason,
	})

	return converter.BookingToResponse(booking), nil
}

// SweepStatuses issues one conditional bulk update per (from, to) pair. The
// target windows are disjoint, so the order of updates does not matter and a
// second sweep at the same instant changes nothing.
func (u *lifecycleUsecase) SweepStatuses(ctx context.Context) (map[entity.StatusTransition]int64, error) {
	now := u.clock.Now()
	today := entity.DateOf(now)
	nowClock := entity.ClockOf(now).String()

	counts := make(map[entity.StatusTransition]int64)
	var total int64
	for _, t := range scheduling.SweepTransitions() {
		affected, err := u.bookingRepo.SweepStatus(u.db.WithContext(ctx), t.From, t.To, today, nowClock)
		if err != nil {
			u.log.Warnf("Failed to sweep %s: %+v", t, err)
			return counts, err
		}
		if affected == 0 {
			continue
		}
		counts[t] = affected
		total += affected
		u.metrics.ObserveTransition(string(t.From), string(t.To), "sweep", affected)
	}

	if total > 0 {
		details := map[string]interface{}{"total": total, "at": now.Format("2006-01-02T15:04")}
		for t, n := range counts {
			details[t.String()] = n
		}
		u.auditService.RecordEvent(ctx, nil, entity.AuditActionBookingSweep, details)
	}
	return counts, nil
}

func (u *lifecycleUsecase) loadBooking(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error) {
	booking, err := u.bookingRepo.FindByID(u.db.WithContext(ctx), bookingID)
	if err != nil {
		u.log.Warnf("Failed to find booking %s: %+v", bookingID, err)
		return nil, err
	}
	if booking == nil {
		return nil, newError(ReasonNotFound, "booking not found")
	}
	return booking, nil
}

func authorizeView(ctx context.Context, booking *entity.Booking) error {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	roleID, _ := middleware.GetRoleIDFromContext(ctx)
	if roleID == entity.RoleIDAdmin || userID == booking.ClientID || userID == booking.ProviderID {
		return nil
	}
	return ErrBookingNotOwned
}

func authorizeOwner(ctx context.Context, booking *entity.Booking) error {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	if userID != booking.ClientID {
		return ErrBookingNotOwned
	}
	return nil
}

func authorizeCancel(ctx context.Context, booking *entity.Booking) error {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	if userID != booking.ClientID && userID != booking.ProviderID {
		return ErrBookingNotOwned
	}
	return nil
}
