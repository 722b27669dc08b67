// Package calendar keeps calendar dates apart from instants.
//
// A DateKey names a day with no time-of-day and no zone, so two keys are
// equal exactly when they denote the same calendar day. Wall-clock times
// ("HH:mm") are handled as minute offsets and only become instants through
// InstantAt, which always takes the organization's location explicitly.
package calendar

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DayOfWeek is the persisted weekday enum, MONDAY through SUNDAY.
type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
	Sunday    DayOfWeek = "SUNDAY"
)

// Week lists the weekdays in settings order.
var Week = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var fromWeekday = [...]DayOfWeek{
	time.Sunday:    Sunday,
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
}

func DayOfWeekFrom(w time.Weekday) DayOfWeek {
	return fromWeekday[w]
}

func (d DayOfWeek) Valid() bool {
	for _, w := range Week {
		if w == d {
			return true
		}
	}
	return false
}

// DateKey is a timezone independent calendar date.
type DateKey struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDateKey builds a normalized key; out of range values roll over the
// same way time.Date does (e.g. April 31 becomes May 1).
func NewDateKey(year int, month time.Month, day int) DateKey {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return DateKey{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDateKey parses the "YYYY-MM-DD" wire format.
func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return DateKey{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	return DateKey{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// DateKeyOf returns the calendar day the instant falls on in loc.
func DateKeyOf(t time.Time, loc *time.Location) DateKey {
	y, m, d := t.In(loc).Date()
	return DateKey{Year: y, Month: m, Day: d}
}

// Today is the current calendar day in loc.
func Today(loc *time.Location, now time.Time) DateKey {
	return DateKeyOf(now, loc)
}

func (k DateKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, int(k.Month), k.Day)
}

func (k DateKey) IsZero() bool {
	return k == DateKey{}
}

// Before compares the fixed-width string forms, which orders the same way
// as the dates themselves.
func (k DateKey) Before(other DateKey) bool {
	return k.String() < other.String()
}

func (k DateKey) AddDays(n int) DateKey {
	return NewDateKey(k.Year, k.Month, k.Day+n)
}

func (k DateKey) Weekday() time.Weekday {
	return k.utcMidnight().Weekday()
}

func (k DateKey) DayOfWeek() DayOfWeek {
	return DayOfWeekFrom(k.Weekday())
}

// Time returns midnight UTC of the day. Meant for DATE columns only, never
// for comparisons against booking instants.
func (k DateKey) Time() time.Time {
	return k.utcMidnight()
}

func (k DateKey) utcMidnight() time.Time {
	return time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, time.UTC)
}

func (k DateKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *DateKey) UnmarshalText(b []byte) error {
	parsed, err := ParseDateKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// DaysInMonth returns the number of days of month in year.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthRange returns the first and last day of the month.
func MonthRange(year int, month time.Month) (DateKey, DateKey) {
	first := NewDateKey(year, month, 1)
	last := NewDateKey(year, month, DaysInMonth(year, month))
	return first, last
}
