package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidClock    = errors.New("invalid time format, use HH:MM")
	ErrInvalidWeekday  = errors.New("invalid weekday name")
	ErrInvalidSchedule = errors.New("invalid provider schedule")
)

// ClockTime is a wall-clock time of day in minutes since midnight.
type ClockTime int

// ParseClock parses an "HH:MM" string. The postgres time form "HH:MM:SS" is
// accepted; seconds are dropped.
func ParseClock(s string) (ClockTime, error) {
	layout := "15:04"
	if len(s) == len("15:04:05") {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

// ClockOf returns the wall-clock time of t truncated to the minute.
func ClockOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*60 + t.Minute())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Add shifts the clock by the given number of minutes. The result may pass 24:00.
func (c ClockTime) Add(minutes int) ClockTime {
	return c + ClockTime(minutes)
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday maps an English weekday name (any case, full or three-letter) to time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if d, ok := weekdayNames[key]; ok {
		return d, nil
	}
	if len(key) == 3 {
		for full, d := range weekdayNames {
			if strings.HasPrefix(full, key) {
				return d, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, name)
}

// ProviderSchedule is a provider's weekly availability template.
type ProviderSchedule struct {
	WorkingDays    []time.Weekday
	Start          ClockTime
	End            ClockTime
	SessionMinutes int
	BreakMinutes   int
}

// Validate rejects templates that slot generation cannot walk.
func (s ProviderSchedule) Validate() error {
	if len(s.WorkingDays) == 0 {
		return fmt.Errorf("%w: no working days", ErrInvalidSchedule)
	}
	if s.Start >= s.End {
		return fmt.Errorf("%w: working hours start %s is not before end %s", ErrInvalidSchedule, s.Start, s.End)
	}
	if s.SessionMinutes <= 0 {
		return fmt.Errorf("%w: session duration must be positive", ErrInvalidSchedule)
	}
	if s.BreakMinutes < 0 {
		return fmt.Errorf("%w: break must not be negative", ErrInvalidSchedule)
	}
	return nil
}

// WorksOn reports whether the weekday is one of the working days.
func (s ProviderSchedule) WorksOn(day time.Weekday) bool {
	for _, d := range s.WorkingDays {
		if d == day {
			return true
		}
	}
	return false
}

// Step is the cursor advance between consecutive sessions.
func (s ProviderSchedule) Step() int {
	return s.SessionMinutes + s.BreakMinutes
}
