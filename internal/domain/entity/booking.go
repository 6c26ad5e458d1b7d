package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending     BookingStatus = "pending"
	BookingStatusConfirmed   BookingStatus = "confirmed"
	BookingStatusUpcoming    BookingStatus = "upcoming"
	BookingStatusCompleted   BookingStatus = "completed"
	BookingStatusCancelled   BookingStatus = "cancelled"
	BookingStatusRescheduled BookingStatus = "rescheduled"
)

// ActiveBookingStatuses hold their slot key. Only these are touched by status derivation.
var ActiveBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusUpcoming,
	BookingStatusRescheduled,
}

// IsActive reports whether a booking in this status still holds its slot.
func (s BookingStatus) IsActive() bool {
	for _, active := range ActiveBookingStatuses {
		if s == active {
			return true
		}
	}
	return false
}

// BookingMethod records how a booking was created. Immutable after creation.
type BookingMethod string

const (
	BookingMethodAutomatic BookingMethod = "automatic"
	BookingMethodManual    BookingMethod = "manual"
)

var ErrInvalidIntake = errors.New("booking intake does not match booking method")

// PatientDetails is supplied by the client on manual bookings.
type PatientDetails struct {
	FullName string `json:"full_name"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	Phone    string `json:"phone"`
	Concern  string `json:"concern"`
}

// QuestionnaireData is the intake questionnaire that drove an automatic booking.
type QuestionnaireData struct {
	Region      string            `json:"region"`
	Category    string            `json:"category"`
	Answers     map[string]string `json:"answers,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"`
}

// Intake is the method-discriminated booking payload: exactly one of
// ManualIntake or AutomaticIntake.
type Intake interface {
	Method() BookingMethod
	isIntake()
}

type ManualIntake struct {
	Patient PatientDetails
}

func (ManualIntake) Method() BookingMethod { return BookingMethodManual }
func (ManualIntake) isIntake()             {}

type AutomaticIntake struct {
	Questionnaire QuestionnaireData
}

func (AutomaticIntake) Method() BookingMethod { return BookingMethodAutomatic }
func (AutomaticIntake) isIntake()             {}

type intakeEnvelope struct {
	Method         BookingMethod      `json:"method"`
	PatientDetails *PatientDetails    `json:"patient_details,omitempty"`
	Questionnaire  *QuestionnaireData `json:"questionnaire,omitempty"`
}

// IntakeColumn stores an Intake as a jsonb envelope.
type IntakeColumn struct {
	Intake
}

// Value returns json value, implement driver.Valuer interface
func (c IntakeColumn) Value() (driver.Value, error) {
	var env intakeEnvelope
	switch v := c.Intake.(type) {
	case ManualIntake:
		env = intakeEnvelope{Method: BookingMethodManual, PatientDetails: &v.Patient}
	case AutomaticIntake:
		env = intakeEnvelope{Method: BookingMethodAutomatic, Questionnaire: &v.Questionnaire}
	default:
		return nil, ErrInvalidIntake
	}
	return json.Marshal(env)
}

// Scan scan value into the intake variant, implements sql.Scanner interface
func (c *IntakeColumn) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal intake value: %v", value)
	}

	var env intakeEnvelope
	if err := json.Unmarshal(bytes, &env); err != nil {
		return err
	}

	switch {
	case env.Method == BookingMethodManual && env.PatientDetails != nil && env.Questionnaire == nil:
		c.Intake = ManualIntake{Patient: *env.PatientDetails}
	case env.Method == BookingMethodAutomatic && env.Questionnaire != nil && env.PatientDetails == nil:
		c.Intake = AutomaticIntake{Questionnaire: *env.Questionnaire}
	default:
		return ErrInvalidIntake
	}
	return nil
}

// RescheduleEntry is one append-only record of a slot change.
type RescheduleEntry struct {
	PreviousDate string    `json:"previous_date"`
	PreviousTime string    `json:"previous_time"`
	Reason       string    `json:"reason"`
	Timestamp    time.Time `json:"timestamp"`
}

// Booking is a reservation of one provider slot by one client.
type Booking struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID           uuid.UUID         `gorm:"type:uuid;not null;index" json:"client_id"`
	ProviderID         uuid.UUID         `gorm:"type:uuid;not null;index" json:"provider_id"`
	BookingDate        time.Time         `gorm:"type:date;not null;index" json:"booking_date"`
	BookingTime        string            `gorm:"type:varchar(5);not null" json:"booking_time"`
	Status             BookingStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	Method             BookingMethod     `gorm:"column:booking_method;type:varchar(20);not null" json:"booking_method"`
	Intake             IntakeColumn      `gorm:"type:jsonb;not null" json:"-"`
	RescheduleHistory  []RescheduleEntry `gorm:"type:jsonb;serializer:json" json:"reschedule_history"`
	CancelledAt        *time.Time        `json:"cancelled_at,omitempty"`
	CancellationReason string            `gorm:"type:text" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Provider ProviderProfile `gorm:"foreignKey:ProviderID;references:UserID" json:"provider,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}

// NewBooking builds a pending booking whose method is derived from the intake variant.
func NewBooking(clientID, providerID uuid.UUID, date time.Time, slotTime ClockTime, intake Intake) *Booking {
	return &Booking{
		ID:          uuid.New(),
		ClientID:    clientID,
		ProviderID:  providerID,
		BookingDate: DateOf(date),
		BookingTime: slotTime.String(),
		Status:      BookingStatusPending,
		Method:      intake.Method(),
		Intake:      IntakeColumn{Intake: intake},

		RescheduleHistory: []RescheduleEntry{},
	}
}

// BeforeCreate rejects rows whose method and intake variant disagree.
func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.Intake.Intake == nil || b.Intake.Method() != b.Method {
		return ErrInvalidIntake
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	// A nil slice serializes to NULL; the column is NOT NULL jsonb.
	if b.RescheduleHistory == nil {
		b.RescheduleHistory = []RescheduleEntry{}
	}
	return nil
}

// IsActive checks if the booking still holds its slot
func (b *Booking) IsActive() bool {
	return b.Status.IsActive()
}

// IsCancelled checks if booking is cancelled
func (b *Booking) IsCancelled() bool {
	return b.Status == BookingStatusCancelled
}

// Clock parses BookingTime.
func (b *Booking) Clock() (ClockTime, error) {
	return ParseClock(b.BookingTime)
}

// PatientDetails returns the manual intake, if this is a manual booking.
func (b *Booking) PatientDetails() (PatientDetails, bool) {
	v, ok := b.Intake.Intake.(ManualIntake)
	return v.Patient, ok
}

// Questionnaire returns the automatic intake, if this is an automatic booking.
func (b *Booking) Questionnaire() (QuestionnaireData, bool) {
	v, ok := b.Intake.Intake.(AutomaticIntake)
	return v.Questionnaire, ok
}

// Reschedule moves the booking to a new slot and records where it came from.
func (b *Booking) Reschedule(date time.Time, slotTime ClockTime, reason string, at time.Time) {
	b.RescheduleHistory = append(b.RescheduleHistory, RescheduleEntry{
		PreviousDate: b.BookingDate.Format(DateLayout),
		PreviousTime: b.BookingTime,
		Reason:       reason,
		Timestamp:    at,
	})
	b.BookingDate = DateOf(date)
	b.BookingTime = slotTime.String()
	b.Status = BookingStatusRescheduled
}

// Cancel changes booking status to cancelled
func (b *Booking) Cancel(reason string, at time.Time) {
	b.Status = BookingStatusCancelled
	b.CancelledAt = &at
	b.CancellationReason = reason
}
