package availability

import (
	"time"

	"github.com/BruksfildServices01/agenda-engine/internal/calendar"
)

// MonthInput carries the bounded reads a month summary is computed from.
type MonthInput struct {
	Year  int
	Month time.Month
	Today calendar.DateKey

	// Bookable lists weekdays that are working and fit at least one slot
	// of the service.
	Bookable    map[calendar.DayOfWeek]bool
	Unavailable map[calendar.DateKey]struct{}
	FullyBooked map[calendar.DateKey]struct{}
}

// BookableWeekdays generates candidate slots once per weekday.
func BookableWeekdays(windows map[calendar.DayOfWeek]WorkingWindow, breaks []Interval, durationMinutes int) map[calendar.DayOfWeek]bool {
	out := make(map[calendar.DayOfWeek]bool, len(windows))
	for day, w := range windows {
		out[day] = len(GenerateSlots(w, breaks, durationMinutes)) > 0
	}
	return out
}

// SummarizeMonth filters the days of the month down to the ones with at
// least one open slot according to the fully-booked cache.
func SummarizeMonth(in MonthInput) []calendar.DateKey {
	todayKey := in.Today.String()
	n := calendar.DaysInMonth(in.Year, in.Month)

	days := make([]calendar.DateKey, 0, n)
	for d := 1; d <= n; d++ {
		key := calendar.NewDateKey(in.Year, in.Month, d)

		if key.String() < todayKey {
			continue
		}
		if _, blocked := in.Unavailable[key]; blocked {
			continue
		}
		if !in.Bookable[key.DayOfWeek()] {
			continue
		}
		if _, full := in.FullyBooked[key]; full {
			continue
		}
		days = append(days, key)
	}
	return days
}

// KeySet indexes dates for membership tests.
func KeySet(keys []calendar.DateKey) map[calendar.DateKey]struct{} {
	set := make(map[calendar.DateKey]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
