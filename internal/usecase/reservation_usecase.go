package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"psych-booking-engine/config"
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

type ReservationUsecase interface {
	// Reserve books the requested slot for the logged-in client with manual intake.
	Reserve(ctx context.Context, req *dto.CreateBookingRequest) (*dto.BookingResponse, error)
	// AutoBook matches a provider (unless one is given) and books its next free slot.
	AutoBook(ctx context.Context, req *dto.AutomaticBookingRequest) (*dto.AutomaticBookingResponse, error)
}

type reservationUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	bookingRepo  repository.BookingRepository
	userRepo     repository.UserRepository
	availability AvailabilityUsecase
	matching     MatchingUsecase
	cache        *service.AvailabilityCache
	auditService service.AuditService
	metrics      *metrics.BookingMetrics
	clock        scheduling.Clock
	sleeper      scheduling.Sleeper
	retry        scheduling.RetryPolicy
	horizonDays  int
}

func NewReservationUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	userRepo repository.UserRepository,
	availability AvailabilityUsecase,
	matching MatchingUsecase,
	cache *service.AvailabilityCache,
	auditService service.AuditService,
	bookingMetrics *metrics.BookingMetrics,
	clock scheduling.Clock,
	sleeper scheduling.Sleeper,
	cfg config.BookingConfig,
) ReservationUsecase {
	attempts := cfg.AutoBookAttempts
	if attempts <= 0 {
		attempts = 3
	}
	horizon := cfg.HorizonDays
	if horizon <= 0 {
		horizon = 14
	}
	return &reservationUsecase{
		db:           db,
		log:          log,
		bookingRepo:  bookingRepo,
		userRepo:     userRepo,
		availability: availability,
		matching:     matching,
		cache:        cache,
		auditService: auditService,
		metrics:      bookingMetrics,
		clock:        clock,
		sleeper:      sleeper,
		retry:        scheduling.RetryPolicy{Attempts: attempts, Delay: cfg.RetryDelay},
		horizonDays:  horizon,
	}
}

// Reserve is the manual path.
//
// Flow:
// 1. Validate the client and the requested slot key
// 2. Pre-check the slot against current availability (fast fail only)
// 3. Insert the booking as pending; the active-slot unique index decides races
// 4. Invalidate cached availability and write the audit trail
func (u *reservationUsecase) Reserve(ctx context.Context, req *dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	clientID, err := u.requireClient(ctx)
	if err != nil {
		return nil, err
	}

	providerID, err := uuid.Parse(req.ProviderID)
	if err != nil {
		return nil, newError(ReasonValidation, "provider_id must be a valid id")
	}
	date, err := entity.ParseDate(req.Date)
	if err != nil {
		return nil, wrapError(ReasonValidation, "invalid date", err)
	}
	slotTime, err := entity.ParseClock(req.Time)
	if err != nil {
		return nil, wrapError(ReasonValidation, "invalid time", err)
	}
	if req.PatientDetails == nil {
		return nil, newError(ReasonValidation, "patient details are required for manual bookings")
	}

	if entity.DateOf(date).Before(entity.DateOf(u.clock.Now())) {
		return nil, newError(ReasonValidation, "cannot book a past date")
	}

	intake := entity.ManualIntake{Patient: converter.PatientDetailsFromRequest(req.PatientDetails)}
	booking, err := u.reserve(ctx, clientID, providerID, date, slotTime, intake)
	if err != nil {
		return nil, err
	}
	return converter.BookingToResponse(booking), nil
}

// AutoBook is the automatic path.
//
// Flow:
// 1. Match a provider from region and category, or check that the given provider_id is accepting bookings
// 2. On no match, persist the client's intent and fail with no_match
// 3. Run the bounded allocation loop against the provider's next free day
func (u *reservationUsecase) AutoBook(ctx context.Context, req *dto.AutomaticBookingRequest) (*dto.AutomaticBookingResponse, error) {
	clientID, err := u.requireClient(ctx)
	if err != nil {
		return nil, err
	}

	questionnaire := entity.QuestionnaireData{
		Region:      normalize(req.Region),
		Category:    normalize(req.Category),
		Answers:     req.Answers,
		SubmittedAt: u.clock.Now(),
	}

	var providerID uuid.UUID
	var match *entity.MatchResult
	if req.ProviderID != "" {
		providerID, err = uuid.Parse(req.ProviderID)
		if err != nil {
			return nil, newError(ReasonValidation, "provider_id must be a valid id")
		}
		if _, err := u.matching.ProviderFor(ctx, providerID); err != nil {
			if ReasonOf(err) == ReasonNoMatch {
				u.metrics.ObserveReservation(string(entity.BookingMethodAutomatic), string(ReasonNoMatch))
			}
			return nil, err
		}
	} else {
		match, err = u.matching.MatchProvider(ctx, req.Region, req.Category)
		if err != nil {
			return nil, err
		}
		if !match.Matched() {
			u.metrics.ObserveReservation(string(entity.BookingMethodAutomatic), string(ReasonNoMatch))
			if err := u.matching.RecordPendingMatch(ctx, clientID, req.Region, req.Category, match.Message); err != nil {
				return nil, err
			}
			return nil, newError(ReasonNoMatch, match.Message)
		}
		providerID = match.Provider.UserID
	}

	booking, err := u.allocate(ctx, clientID, providerID, entity.AutomaticIntake{Questionnaire: questionnaire})
	if err != nil {
		return nil, err
	}

	return &dto.AutomaticBookingResponse{
		Booking: converter.BookingToResponse(booking),
		Match:   converter.MatchToResponse(match),
	}, nil
}

// reserve pre-checks one slot key and inserts the booking.
func (u *reservationUsecase) reserve(ctx context.Context, clientID, providerID uuid.UUID, date time.Time, slotTime entity.ClockTime, intake entity.Intake) (*entity.Booking, error) {
	method := string(intake.Method())

	slots, err := u.availability.GetAvailability(ctx, providerID, date, WithFreshRead())
	if err != nil {
		return nil, err
	}
	if !containsSlot(slots, slotTime) {
		u.metrics.ObserveReservation(method, string(ReasonSlotUnavailable))
		return nil, newError(ReasonSlotUnavailable, fmt.Sprintf("slot %s on %s is not available", slotTime, date.Format(entity.DateLayout)))
	}

	booking := entity.NewBooking(clientID, providerID, date, slotTime, intake)
	if err := u.bookingRepo.Create(u.db.WithContext(ctx), booking); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			u.metrics.ObserveContention("reserve")
			u.metrics.ObserveReservation(method, string(ReasonSlotUnavailable))
			return nil, wrapError(ReasonSlotUnavailable, fmt.Sprintf("slot %s on %s was just taken", slotTime, date.Format(entity.DateLayout)), err)
		}
		u.log.Warnf("Failed to create booking: %+v", err)
		return nil, err
	}

	u.afterCreate(ctx, booking)
	return booking, nil
}

// allocate runs the bounded retry loop of the automatic path. Every attempt
// re-reads availability from the database; a slot lost to another writer moves
// on to the next slot of the same day, and an exhausted day waits for the next attempt.
func (u *reservationUsecase) allocate(ctx context.Context, clientID, providerID uuid.UUID, intake entity.Intake) (*entity.Booking, error) {
	method := string(intake.Method())

	for attempt := 1; attempt <= u.retry.Attempts; attempt++ {
		day, err := u.availability.GetNextAvailable(ctx, providerID, u.horizonDays, WithFreshRead())
		if err != nil {
			return nil, err
		}

		if day != nil {
			for _, slot := range day.Slots {
				taken, err := u.bookingRepo.ExistsActive(u.db.WithContext(ctx), providerID, slot.Date, slot.Key())
				if err != nil {
					u.log.Warnf("Failed to recheck slot %s on %s: %+v", slot.Key(), slot.Date.Format(entity.DateLayout), err)
					return nil, err
				}
				if taken {
					u.metrics.ObserveContention("auto_recheck")
					continue
				}

				booking := entity.NewBooking(clientID, providerID, slot.Date, slot.StartTime, intake)
				err = u.bookingRepo.Create(u.db.WithContext(ctx), booking)
				if errors.Is(err, repository.ErrSlotTaken) {
					u.metrics.ObserveContention("auto_insert")
					continue
				}
				if err != nil {
					u.log.Warnf("Failed to create booking: %+v", err)
					return nil, err
				}

				u.metrics.ObserveAutoBookAttempts(attempt)
				u.afterCreate(ctx, booking)
				return booking, nil
			}
		}

		if attempt < u.retry.Attempts {
			u.log.Debugf("Automatic booking for provider %s lost attempt %d, retrying", providerID, attempt)
			if err := u.sleeper.Sleep(ctx, u.retry.Backoff(attempt)); err != nil {
				return nil, err
			}
		}
	}

	u.metrics.ObserveAutoBookAttempts(u.retry.Attempts)
	u.metrics.ObserveReservation(method, string(ReasonContentionExhausted))
	u.log.Infof("Automatic booking for provider %s exhausted %d attempts", providerID, u.retry.Attempts)
	return nil, newError(ReasonContentionExhausted, fmt.Sprintf("no slot could be obtained after %d attempts, try again later", u.retry.Attempts))
}

func (u *reservationUsecase) afterCreate(ctx context.Context, booking *entity.Booking) {
	u.metrics.ObserveReservation(string(booking.Method), "created")

	if err := u.cache.Invalidate(ctx, booking.ProviderID, booking.BookingDate); err != nil {
		u.log.Warnf("Failed to invalidate availability after booking %s: %+v", booking.ID, err)
	}

	u.auditService.RecordBooking(ctx, booking.ClientID, entity.AuditActionBookingCreate, booking, nil)
}

func (u *reservationUsecase) requireClient(ctx context.Context) (uuid.UUID, error) {
	clientID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, ErrUnauthenticated
	}

	user, err := u.userRepo.FindByID(u.db.WithContext(ctx), clientID)
	if err != nil {
		u.log.Warnf("Failed to find client %s: %+v", clientID, err)
		return uuid.Nil, err
	}
	if user == nil || (user.IsActive != nil && !*user.IsActive) {
		return uuid.Nil, newError(ReasonNotFound, "client not found")
	}
	return clientID, nil
}

func containsSlot(slots []entity.Slot, start entity.ClockTime) bool {
	for _, s := range slots {
		if s.StartTime == start {
			return true
		}
	}
	return false
}
