package availability

import (
	"fmt"

	"github.com/BruksfildServices01/agenda-engine/internal/calendar"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
)

// BuildWindow parses stored working hours. A non-working day yields a
// closed window without looking at its times.
func BuildWindow(wh models.WorkingHours) (WorkingWindow, error) {
	if !wh.IsWorking {
		return Closed(), nil
	}

	start, err := calendar.MinutesOfDay(wh.StartTime)
	if err != nil {
		return WorkingWindow{}, fmt.Errorf("working hours %s start: %w", wh.DayOfWeek, err)
	}
	end, err := calendar.MinutesOfDay(wh.EndTime)
	if err != nil {
		return WorkingWindow{}, fmt.Errorf("working hours %s end: %w", wh.DayOfWeek, err)
	}

	return WorkingWindow{IsWorking: true, Start: start, End: end}, nil
}

// BuildBreaks parses the organization's break list, skipping empty or
// inverted ranges.
func BuildBreaks(breaks []models.BreakTime) ([]Interval, error) {
	out := make([]Interval, 0, len(breaks))
	for _, b := range breaks {
		start, err := calendar.MinutesOfDay(b.StartTime)
		if err != nil {
			return nil, fmt.Errorf("break start: %w", err)
		}
		end, err := calendar.MinutesOfDay(b.EndTime)
		if err != nil {
			return nil, fmt.Errorf("break end: %w", err)
		}
		if start >= end {
			continue
		}
		out = append(out, Interval{Start: start, End: end})
	}
	return out, nil
}

// WindowsByWeekday builds a window for every day of the week. Days without
// a stored row are closed.
func WindowsByWeekday(hours []models.WorkingHours) (map[calendar.DayOfWeek]WorkingWindow, error) {
	windows := make(map[calendar.DayOfWeek]WorkingWindow, len(calendar.Week))
	for _, d := range calendar.Week {
		windows[d] = Closed()
	}

	for _, wh := range hours {
		day := calendar.DayOfWeek(wh.DayOfWeek)
		if !day.Valid() {
			continue
		}
		w, err := BuildWindow(wh)
		if err != nil {
			return nil, err
		}
		windows[day] = w
	}
	return windows, nil
}
