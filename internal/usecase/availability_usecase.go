package usecase

import (
	"context"
	"time"

	"psych-booking-engine/config"
	"psych-booking-engine/internal/domain/entity"
	"psych-booking-engine/internal/domain/repository"
	"psych-booking-engine/internal/scheduling"
	"psych-booking-engine/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type readOptions struct {
	fresh bool
}

// ReadOption tunes a single availability read.
type ReadOption func(*readOptions)

// WithFreshRead bypasses the availability cache and reads held slots from the database.
func WithFreshRead() ReadOption {
	return func(o *readOptions) { o.fresh = true }
}

type AvailabilityUsecase interface {
	GetAvailability(ctx context.Context, providerID uuid.UUID, date time.Time, opts ...ReadOption) ([]entity.Slot, error)
	GetWeeklyAvailability(ctx context.Context, providerID uuid.UUID) ([]entity.DayAvailability, error)
	// GetNextAvailable returns the first day with free slots within horizonDays, or nil.
	GetNextAvailable(ctx context.Context, providerID uuid.UUID, horizonDays int, opts ...ReadOption) (*entity.DayAvailability, error)
}

type availabilityUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	providerRepo repository.ProviderProfileRepository
	bookingRepo  repository.BookingRepository
	cache        *service.AvailabilityCache
	clock        scheduling.Clock
	weekDays     int
}

func NewAvailabilityUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	providerRepo repository.ProviderProfileRepository,
	bookingRepo repository.BookingRepository,
	cache *service.AvailabilityCache,
	clock scheduling.Clock,
	cfg config.BookingConfig,
) AvailabilityUsecase {
	weekDays := cfg.WeekDays
	if weekDays <= 0 {
		weekDays = 7
	}
	return &availabilityUsecase{
		db:           db,
		log:          log,
		providerRepo: providerRepo,
		bookingRepo:  bookingRepo,
		cache:        cache,
		clock:        clock,
		weekDays:     weekDays,
	}
}

// GetAvailability returns the free slots of one provider on one date.
// Past dates and slots already started today are never offered.
func (u *availabilityUsecase) GetAvailability(ctx context.Context, providerID uuid.UUID, date time.Time, opts ...ReadOption) ([]entity.Slot, error) {
	schedule, err := u.loadSchedule(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return u.freeSlots(ctx, providerID, schedule, date, u.clock.Now(), buildReadOptions(opts))
}

// GetWeeklyAvailability returns the free slots of the coming week, starting today.
// Days with nothing free are omitted.
func (u *availabilityUsecase) GetWeeklyAvailability(ctx context.Context, providerID uuid.UUID) ([]entity.DayAvailability, error) {
	schedule, err := u.loadSchedule(ctx, providerID)
	if err != nil {
		return nil, err
	}

	now := u.clock.Now()
	today := entity.DateOf(now)
	days := make([]entity.DayAvailability, 0, u.weekDays)

	for i := 0; i < u.weekDays; i++ {
		date := today.AddDate(0, 0, i)
		slots, err := u.freeSlots(ctx, providerID, schedule, date, now, readOptions{})
		if err != nil {
			return nil, err
		}
		if len(slots) == 0 {
			continue
		}
		days = append(days, entity.DayAvailability{Date: date, Slots: slots})
	}
	return days, nil
}

func (u *availabilityUsecase) GetNextAvailable(ctx context.Context, providerID uuid.UUID, horizonDays int, opts ...ReadOption) (*entity.DayAvailability, error) {
	if horizonDays <= 0 {
		return nil, newError(ReasonValidation, "horizon must be at least one day")
	}

	schedule, err := u.loadSchedule(ctx, providerID)
	if err != nil {
		return nil, err
	}

	o := buildReadOptions(opts)
	now := u.clock.Now()
	today := entity.DateOf(now)

	for i := 0; i < horizonDays; i++ {
		date := today.AddDate(0, 0, i)
		slots, err := u.freeSlots(ctx, providerID, schedule, date, now, o)
		if err != nil {
			return nil, err
		}
		if len(slots) > 0 {
			return &entity.DayAvailability{Date: date, Slots: slots}, nil
		}
	}
	return nil, nil
}

func (u *availabilityUsecase) loadSchedule(ctx context.Context, providerID uuid.UUID) (entity.ProviderSchedule, error) {
	profile, err := u.providerRepo.FindByUserID(u.db.WithContext(ctx), providerID)
	if err != nil {
		u.log.Warnf("Failed to find provider %s: %+v", providerID, err)
		return entity.ProviderSchedule{}, err
	}
	if profile == nil {
		return entity.ProviderSchedule{}, newError(ReasonNotFound, "provider not found")
	}

	schedule, err := profile.Schedule()
	if err != nil {
		u.log.Warnf("Provider %s has an unusable schedule: %+v", providerID, err)
		return entity.ProviderSchedule{}, wrapError(ReasonValidation, "provider schedule is not configured correctly", err)
	}
	return schedule, nil
}

func (u *availabilityUsecase) freeSlots(ctx context.Context, providerID uuid.UUID, schedule entity.ProviderSchedule, date time.Time, now time.Time, o readOptions) ([]entity.Slot, error) {
	day := entity.DateOf(date)
	today := entity.DateOf(now)
	if day.Before(today) {
		return nil, nil
	}

	slots := scheduling.GenerateSlots(schedule, day)
	if day.Equal(today) {
		slots = scheduling.StartingAfter(slots, entity.ClockOf(now))
	}
	if len(slots) == 0 {
		return nil, nil
	}

	taken, err := u.takenKeys(ctx, providerID, day, o)
	if err != nil {
		return nil, err
	}
	return scheduling.SubtractTaken(slots, taken), nil
}

// takenKeys returns the HH:MM keys held by active bookings, through the cache unless a fresh read was asked for.
func (u *availabilityUsecase) takenKeys(ctx context.Context, providerID uuid.UUID, day time.Time, o readOptions) ([]string, error) {
	var version string
	if !o.fresh {
		cached, err := u.cache.Load(ctx, providerID, day)
		if err == nil && cached.Hit {
			return cached.Keys, nil
		}
		version = cached.Version
	}

	bookings, err := u.bookingRepo.FindActiveByProviderAndDate(u.db.WithContext(ctx), providerID, day)
	if err != nil {
		u.log.Warnf("Failed to find active bookings for provider %s on %s: %+v", providerID, day.Format(entity.DateLayout), err)
		return nil, err
	}

	taken := make([]string, 0, len(bookings))
	for _, b := range bookings {
		taken = append(taken, b.BookingTime)
	}

	if !o.fresh && version != "" {
		if _, err := u.cache.Store(ctx, providerID, day, version, taken); err != nil {
			u.log.Debugf("Skipping availability snapshot for provider %s: %+v", providerID, err)
		}
	}
	return taken, nil
}

func buildReadOptions(opts []ReadOption) readOptions {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
