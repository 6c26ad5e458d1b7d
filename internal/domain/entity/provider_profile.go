package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProviderProfile represents psychologist-specific profile data.
// Rows are maintained by the profile service; the booking engine reads them.
type ProviderProfile struct {
	UserID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"user_id"`
	Region          string          `gorm:"type:varchar(100);not null;index" json:"region"`
	Category        string          `gorm:"type:varchar(100);not null;index" json:"category"`
	Rating          decimal.Decimal `gorm:"type:decimal(3,2);not null" json:"rating"`
	ExperienceYears int             `gorm:"not null" json:"experience_years"`
	IsAvailable     bool            `gorm:"not null;index" json:"is_available"`
	WorkingDays     []string        `gorm:"type:jsonb;serializer:json;not null" json:"working_days"`
	WorkStart       string          `gorm:"type:varchar(5);not null" json:"work_start"` // HH:MM
	WorkEnd         string          `gorm:"type:varchar(5);not null" json:"work_end"`   // HH:MM
	SessionMinutes  int             `gorm:"not null" json:"session_minutes"`
	BreakMinutes    int             `gorm:"not null" json:"break_minutes"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ProviderProfile) TableName() string {
	return "provider_profiles"
}

// Schedule projects the stored columns onto a validated ProviderSchedule.
func (p *ProviderProfile) Schedule() (ProviderSchedule, error) {
	start, err := ParseClock(p.WorkStart)
	if err != nil {
		return ProviderSchedule{}, fmt.Errorf("provider %s work start: %w", p.UserID, err)
	}
	end, err := ParseClock(p.WorkEnd)
	if err != nil {
		return ProviderSchedule{}, fmt.Errorf("provider %s work end: %w", p.UserID, err)
	}

	days := make([]time.Weekday, 0, len(p.WorkingDays))
	for _, name := range p.WorkingDays {
		d, err := ParseWeekday(name)
		if err != nil {
			return ProviderSchedule{}, fmt.Errorf("provider %s working days: %w", p.UserID, err)
		}
		days = append(days, d)
	}

	schedule := ProviderSchedule{
		WorkingDays:    days,
		Start:          start,
		End:            end,
		SessionMinutes: p.SessionMinutes,
		BreakMinutes:   p.BreakMinutes,
	}
	if err := schedule.Validate(); err != nil {
		return ProviderSchedule{}, fmt.Errorf("provider %s: %w", p.UserID, err)
	}
	return schedule, nil
}

// DisplayName falls back to the id when the user row was not preloaded.
func (p *ProviderProfile) DisplayName() string {
	if p.User.FullName != "" {
		return p.User.FullName
	}
	return p.UserID.String()
}
