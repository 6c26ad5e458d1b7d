// Package scheduling holds the pure parts of the booking engine: slot
// generation, status derivation and the retry pacing of automatic booking.
// Nothing here touches storage.
package scheduling

import (
	"time"

	"psych-booking-engine/internal/domain/entity"
)

// GenerateSlots expands a weekly schedule into the ordered candidate slots of one date.
// A date outside the working days yields no slots. A session that would end
// after the working window is never emitted.
func GenerateSlots(schedule entity.ProviderSchedule, date time.Time) []entity.Slot {
	day := entity.DateOf(date)
	if !schedule.WorksOn(day.Weekday()) {
		return nil
	}
	// Guards the loop even for a schedule that skipped Validate.
	if schedule.SessionMinutes <= 0 || schedule.Step() <= 0 {
		return nil
	}

	var slots []entity.Slot
	for cursor := schedule.Start; cursor.Add(schedule.SessionMinutes) <= schedule.End; cursor = cursor.Add(schedule.Step()) {
		slots = append(slots, entity.Slot{
			Date:      day,
			StartTime: cursor,
			EndTime:   cursor.Add(schedule.SessionMinutes),
		})
	}
	return slots
}

// SubtractTaken drops the slots whose start key is in taken.
func SubtractTaken(slots []entity.Slot, taken []string) []entity.Slot {
	if len(taken) == 0 {
		return slots
	}
	held := make(map[string]struct{}, len(taken))
	for _, key := range taken {
		held[key] = struct{}{}
	}

	free := make([]entity.Slot, 0, len(slots))
	for _, s := range slots {
		if _, ok := held[s.Key()]; ok {
			continue
		}
		free = append(free, s)
	}
	return free
}

// StartingAfter keeps the slots that start strictly after the given clock time.
func StartingAfter(slots []entity.Slot, after entity.ClockTime) []entity.Slot {
	out := make([]entity.Slot, 0, len(slots))
	for _, s := range slots {
		if s.StartTime > after {
			out = append(out, s)
		}
	}
	return out
}
