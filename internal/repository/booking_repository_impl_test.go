package repository

import (
	"database/sql/driver"
	"testing"
	"time"

	"psych-booking-engine/internal/domain/entity"
	domainRepo "psych-booking-engine/internal/domain/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManualBooking() *entity.Booking {
	return entity.NewBooking(uuid.New(), uuid.New(), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 9*60,
		entity.ManualIntake{Patient: entity.PatientDetails{FullName: "Asha"}})
}

func TestBookingRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository()

	mock.ExpectExec(`INSERT INTO "bookings"`).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(db, newManualBooking()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// jsonArray matches a serialized empty jsonb array.
type jsonArray struct{}

func (jsonArray) Match(v driver.Value) bool {
	switch raw := v.(type) {
	case string:
		return raw == "[]"
	case []byte:
		return string(raw) == "[]"
	}
	return false
}

func TestBookingRepository_CreateSendsEmptyRescheduleHistory(t *testing.T) {
	built := newManualBooking()
	literal := &entity.Booking{
		ClientID:    uuid.New(),
		ProviderID:  uuid.New(),
		BookingDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		BookingTime: "10:00",
		Status:      entity.BookingStatusPending,
		Method:      entity.BookingMethodManual,
		Intake:      entity.IntakeColumn{Intake: entity.ManualIntake{Patient: entity.PatientDetails{FullName: "Ravi"}}},
	}

	for name, booking := range map[string]*entity.Booking{"constructor": built, "struct literal": literal} {
		t.Run(name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewBookingRepository()

			// id, client_id, provider_id, booking_date, booking_time, status,
			// booking_method, intake, reschedule_history, cancelled_at,
			// cancellation_reason, created_at, updated_at
			args := make([]driver.Value, 13)
			for i := range args {
				args[i] = sqlmock.AnyArg()
			}
			args[8] = jsonArray{}

			mock.ExpectExec(`INSERT INTO "bookings" .*"reschedule_history"`).
				WithArgs(args...).
				WillReturnResult(sqlmock.NewResult(0, 1))

			require.NoError(t, repo.Create(db, booking))
			assert.NotNil(t, booking.RescheduleHistory)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBookingRepository_CreateMapsActiveSlotViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository()

	mock.ExpectExec(`INSERT INTO "bookings"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_bookings_active_slot"})

	err := repo.Create(db, newManualBooking())
	assert.ErrorIs(t, err, domainRepo.ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_CreateKeepsOtherViolations(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository()

	mock.ExpectExec(`INSERT INTO "bookings"`).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "fk_bookings_provider"})

	err := repo.Create(db, newManualBooking())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domainRepo.ErrSlotTaken)
}

func TestBookingRepository_FindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository()

	mock.ExpectQuery(`SELECT \* FROM "bookings"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	booking, err := repo.FindByID(db, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, booking)
}

func TestBookingRepository_ExistsActive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.ExistsActive(db, uuid.New(), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), "09:00")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_SweepStatusCompleted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository()

	mock.ExpectExec(`UPDATE "bookings" SET "status"=.*booking_date < .*booking_time < `).
		WithArgs("completed", sqlmock.AnyArg(), "pending", "2026-03-02", "2026-03-02", "14:00").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.SweepStatus(db, entity.BookingStatusPending, entity.BookingStatusCompleted,
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), "14:00")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_SweepStatusRejectsTerminalTarget(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewBookingRepository()

	_, err := repo.SweepStatus(db, entity.BookingStatusPending, entity.BookingStatusCancelled, time.Now(), "10:00")
	assert.Error(t, err)
}

func TestBookingRepository_CancelLosesRace(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository()

	booking := newManualBooking()
	booking.Cancel("changed my mind", time.Now())

	mock.ExpectExec(`UPDATE "bookings" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.Cancel(db, booking, entity.BookingStatusPending)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBookingRepository_RescheduleMapsActiveSlotViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository()

	booking := newManualBooking()
	booking.Reschedule(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), 10*60, "clash", time.Now())

	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_bookings_active_slot"})

	_, err := repo.Reschedule(db, booking, entity.BookingStatusPending)
	assert.ErrorIs(t, err, domainRepo.ErrSlotTaken)
}
