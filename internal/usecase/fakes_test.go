package usecase

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"psych-booking-engine/config"
	"psych-booking-engine/internal/delivery/dto"
	"psych-booking-engine/internal/delivery/http/middleware"
	"psych-booking-engine/internal/domain/entity"
	"psych-booking-engine/internal/domain/repository"
	"psych-booking-engine/internal/scheduling"
	"psych-booking-engine/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 2026-03-02 is a Monday.
var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// testDB is never queried: the fakes below ignore it. Usecases still call WithContext on it.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func testBookingConfig() config.BookingConfig {
	return config.BookingConfig{
		AutoBookAttempts:  3,
		RetryDelay:        250 * time.Millisecond,
		HorizonDays:       14,
		WeekDays:          7,
		RestrictedRegions: []string{"kerala"},
	}
}

func withUser(ctx context.Context, userID uuid.UUID, roleID int) context.Context {
	return middleware.WithIdentity(ctx, middleware.Identity{UserID: userID, RoleID: roleID})
}

// ---- bookings ----

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*entity.Booking
	// beforeCreate runs inside Create before the uniqueness check.
	beforeCreate  func(b *entity.Booking) error
	createCalls   int
	updateCalls   int
	existsChecked int
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*entity.Booking)}
}

func cloneBooking(b *entity.Booking) *entity.Booking {
	c := *b
	c.RescheduleHistory = append([]entity.RescheduleEntry(nil), b.RescheduleHistory...)
	return &c
}

func (r *fakeBookingRepo) heldLocked(providerID uuid.UUID, date time.Time, slotTime string, except uuid.UUID) bool {
	for _, b := range r.bookings {
		if b.ID != except && b.ProviderID == providerID && b.BookingDate.Equal(entity.DateOf(date)) && b.BookingTime == slotTime && b.IsActive() {
			return true
		}
	}
	return false
}

// seed stores a booking as-is, bypassing uniqueness.
func (r *fakeBookingRepo) seed(b *entity.Booking) *entity.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID] = cloneBooking(b)
	return b
}

func (r *fakeBookingRepo) get(id uuid.UUID) *entity.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bookings[id]; ok {
		return cloneBooking(b)
	}
	return nil
}

func (r *fakeBookingRepo) Create(db *gorm.DB, booking *entity.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++

	if err := booking.BeforeCreate(nil); err != nil {
		return err
	}
	if r.beforeCreate != nil {
		if err := r.beforeCreate(booking); err != nil {
			return err
		}
	}
	if r.heldLocked(booking.ProviderID, booking.BookingDate, booking.BookingTime, uuid.Nil) {
		return repository.ErrSlotTaken
	}
	booking.CreatedAt = testNow
	booking.UpdatedAt = testNow
	r.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (r *fakeBookingRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Booking, error) {
	return r.get(id), nil
}

func (r *fakeBookingRepo) FindByClientID(db *gorm.DB, clientID uuid.UUID, filter *entity.BookingFilter) ([]entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []entity.Booking
	for _, b := range r.bookings {
		if b.ClientID != clientID {
			continue
		}
		if filter != nil && filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, *cloneBooking(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BookingDate.Equal(out[j].BookingDate) {
			return out[i].BookingDate.After(out[j].BookingDate)
		}
		return out[i].BookingTime > out[j].BookingTime
	})
	return out, nil
}

func (r *fakeBookingRepo) FindActiveByProviderAndDate(db *gorm.DB, providerID uuid.UUID, date time.Time) ([]entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []entity.Booking
	for _, b := range r.bookings {
		if b.ProviderID == providerID && b.BookingDate.Equal(entity.DateOf(date)) && b.IsActive() {
			out = append(out, *cloneBooking(b))
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ExistsActive(db *gorm.DB, providerID uuid.UUID, date time.Time, slotTime string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.existsChecked++
	return r.heldLocked(providerID, date, slotTime, uuid.Nil), nil
}

func (r *fakeBookingRepo) UpdateStatus(db *gorm.DB, id uuid.UUID, from, to entity.BookingStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++

	b, ok := r.bookings[id]
	if !ok || b.Status != from {
		return 0, nil
	}
	b.Status = to
	return 1, nil
}

func (r *fakeBookingRepo) Reschedule(db *gorm.DB, booking *entity.Booking, from entity.BookingStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.bookings[booking.ID]
	if !ok || stored.Status != from {
		return 0, nil
	}
	if r.heldLocked(booking.ProviderID, booking.BookingDate, booking.BookingTime, booking.ID) {
		return 0, repository.ErrSlotTaken
	}
	r.bookings[booking.ID] = cloneBooking(booking)
	return 1, nil
}

func (r *fakeBookingRepo) Cancel(db *gorm.DB, booking *entity.Booking, from entity.BookingStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.bookings[booking.ID]
	if !ok || stored.Status != from {
		return 0, nil
	}
	r.bookings[booking.ID] = cloneBooking(booking)
	return 1, nil
}

func (r *fakeBookingRepo) SweepStatus(db *gorm.DB, from, to entity.BookingStatus, today time.Time, nowClock string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, b := range r.bookings {
		if b.Status != from {
			continue
		}
		var match bool
		switch to {
		case entity.BookingStatusCompleted:
			match = b.BookingDate.Before(today) || (b.BookingDate.Equal(today) && b.BookingTime < nowClock)
		case entity.BookingStatusUpcoming:
			match = b.BookingDate.After(today)
		case entity.BookingStatusPending:
			match = b.BookingDate.Equal(today) && b.BookingTime >= nowClock
		}
		if match {
			b.Status = to
			n++
		}
	}
	return n, nil
}

// ---- providers ----

type fakeProviderRepo struct {
	profiles []entity.ProviderProfile
	err      error
}

func (r *fakeProviderRepo) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.ProviderProfile, error) {
	for i := range r.profiles {
		if r.profiles[i].UserID == userID {
			p := r.profiles[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (r *fakeProviderRepo) FindAvailable(db *gorm.DB, region, category string) ([]entity.ProviderProfile, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []entity.ProviderProfile
	for _, p := range r.profiles {
		if !p.IsAvailable {
			continue
		}
		if region != "" && !strings.EqualFold(p.Region, region) {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// newProvider works every day 09:00-11:00 in 60 minute sessions: slots 09:00 and 10:00.
func newProvider(region, category, rating string, experience int) entity.ProviderProfile {
	return entity.ProviderProfile{
		UserID:          uuid.New(),
		Region:          region,
		Category:        category,
		Rating:          decimal.RequireFromString(rating),
		ExperienceYears: experience,
		IsAvailable:     true,
		WorkingDays:     []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"},
		WorkStart:       "09:00",
		WorkEnd:         "11:00",
		SessionMinutes:  60,
		BreakMinutes:    0,
		User:            entity.User{FullName: "Dr. " + category},
	}
}

// ---- users ----

type fakeUserRepo struct{}

func (fakeUserRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.User, error) {
	active := true
	return &entity.User{ID: id, RoleID: entity.RoleIDClient, IsActive: &active}, nil
}

// ---- pending matches ----

type fakePendingMatchRepo struct {
	mu      sync.Mutex
	matches []entity.PendingMatch
}

func (r *fakePendingMatchRepo) Create(db *gorm.DB, match *entity.PendingMatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match.ID = int64(len(r.matches) + 1)
	r.matches = append(r.matches, *match)
	return nil
}

// ---- audit ----

type fakeAuditService struct {
	mu       sync.Mutex
	actions  []entity.AuditAction
	bookings []uuid.UUID
}

func (s *fakeAuditService) RecordBooking(ctx context.Context, actorID uuid.UUID, action entity.AuditAction, booking *entity.Booking, details map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
	s.bookings = append(s.bookings, booking.ID)
}

func (s *fakeAuditService) RecordEvent(ctx context.Context, actorID *uuid.UUID, action entity.AuditAction, details map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
}

// ---- sleeper ----

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
	err    error
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return s.err
}

// ---- wiring ----

type engine struct {
	bookings     *fakeBookingRepo
	providers    *fakeProviderRepo
	pending      *fakePendingMatchRepo
	audit        *fakeAuditService
	sleeper      *recordingSleeper
	now          time.Time
	availability AvailabilityUsecase
	matching     MatchingUsecase
	reservation  ReservationUsecase
	lifecycle    LifecycleUsecase
}

func newEngine(t *testing.T, cache *service.AvailabilityCache, providers ...entity.ProviderProfile) *engine {
	t.Helper()
	e := &engine{
		bookings:  newFakeBookingRepo(),
		providers: &fakeProviderRepo{profiles: providers},
		pending:   &fakePendingMatchRepo{},
		audit:     &fakeAuditService{},
		sleeper:   &recordingSleeper{},
		now:       testNow,
	}
	db := testDB(t)
	log := testLogger()
	cfg := testBookingConfig()
	clock := scheduling.ClockFunc(func() time.Time { return e.now })

	e.availability = NewAvailabilityUsecase(db, log, e.providers, e.bookings, cache, clock, cfg)
	e.matching = NewMatchingUsecase(db, log, e.providers, e.pending, e.audit, nil, cfg)
	e.reservation = NewReservationUsecase(db, log, e.bookings, fakeUserRepo{}, e.availability, e.matching, cache, e.audit, nil, clock, e.sleeper, cfg)
	e.lifecycle = NewLifecycleUsecase(db, log, e.bookings, e.availability, cache, e.audit, nil, clock)
	return e
}

func slotKeys(slots []entity.Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Key())
	}
	return out
}

func newReserveRequest(providerID uuid.UUID, date, slot string) *dto.CreateBookingRequest {
	return &dto.CreateBookingRequest{
		ProviderID:     providerID.String(),
		Date:           date,
		Time:           slot,
		PatientDetails: &dto.PatientDetailsRequest{FullName: "Asha Nair", Age: 29, Phone: "+911234567890"},
	}
}
