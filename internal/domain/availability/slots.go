package availability

import (
	"time"

	"github.com/BruksfildServices01/agenda-engine/internal/calendar"
	"github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
)

// ===============================
// Slot Generation
// ===============================

// GenerateSlots walks the working window in duration steps and keeps every
// [c, c+duration) that ends inside the window and overlaps no break. A
// trailing remainder shorter than duration produces no slot.
func GenerateSlots(wh WorkingWindow, breaks []Interval, durationMinutes int) []Interval {
	if !wh.IsWorking || durationMinutes <= 0 {
		return nil
	}

	var slots []Interval
	for cursor := wh.Start; cursor+durationMinutes <= wh.End; cursor += durationMinutes {
		slot := Interval{Start: cursor, End: cursor + durationMinutes}
		if overlapsAny(slot, breaks) {
			continue
		}
		slots = append(slots, slot)
	}
	return slots
}

func overlapsAny(slot Interval, breaks []Interval) bool {
	for _, b := range breaks {
		if slot.Overlaps(b) {
			return true
		}
	}
	return false
}

// ResolveSlots anchors minute intervals on day in loc.
func ResolveSlots(day calendar.DateKey, loc *time.Location, intervals []Interval) []Slot {
	out := make([]Slot, 0, len(intervals))
	for _, iv := range intervals {
		out = append(out, Slot{
			Start: calendar.InstantAt(day, iv.Start, loc),
			End:   calendar.InstantAt(day, iv.End, loc),
		})
	}
	return out
}

// ===============================
// Conflict Resolution
// ===============================

// FilterAvailable returns, in order, the slots no active booking overlaps.
// Neither input is modified.
func FilterAvailable(slots []Slot, bookings []models.Booking) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if !conflicts(s, bookings) {
			out = append(out, s)
		}
	}
	return out
}

func conflicts(s Slot, bookings []models.Booking) bool {
	for _, b := range bookings {
		if booking.ConflictsWith(b, s.Start, s.End) {
			return true
		}
	}
	return false
}

// Contains reports whether start is the beginning of one of slots.
func Contains(slots []Slot, start time.Time) bool {
	for _, s := range slots {
		if s.Start.Equal(start) {
			return true
		}
	}
	return false
}
