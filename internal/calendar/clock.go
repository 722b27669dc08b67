package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

const MinutesPerDay = 24 * 60

var (
	ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:mm")
	ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM-DD")
)

// MinutesOfDay parses a strict "HH:mm" wall-clock time into 0..1439.
func MinutesOfDay(hhmm string) (int, error) {
	if len(hhmm) != 5 || hhmm[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, hhmm)
	}

	h, err := strconv.Atoi(hhmm[:2])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, hhmm)
	}
	m, err := strconv.Atoi(hhmm[3:])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, hhmm)
	}

	return h*60 + m, nil
}

// FormatMinutes renders a minute offset back to "HH:mm".
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// InstantAt resolves a nominal wall-clock time of day against loc.
// Wall times that fall into a DST gap or overlap follow time.Date
// normalization; callers must not assume the wall reading round-trips.
func InstantAt(day DateKey, minutesOfDay int, loc *time.Location) time.Time {
	return time.Date(day.Year, day.Month, day.Day, 0, minutesOfDay, 0, 0, loc)
}

// DayBounds returns [start of day, start of next day) in loc. The span is
// not always 24h.
func DayBounds(day DateKey, loc *time.Location) (time.Time, time.Time) {
	return InstantAt(day, 0, loc), InstantAt(day.AddDays(1), 0, loc)
}
