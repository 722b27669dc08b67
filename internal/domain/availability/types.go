// Package availability computes bookable slots from an organization's
// schedule. Everything here is pure: callers load the inputs and persist
// the results.
package availability

import "time"

// Interval is a half-open range [Start, End) of minutes within one day.
type Interval struct {
	Start int
	End   int
}

func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && i.End > o.Start
}

func (i Interval) Minutes() int {
	return i.End - i.Start
}

// WorkingWindow is one weekday's working hours in minutes of day.
type WorkingWindow struct {
	IsWorking bool
	Start     int
	End       int
}

// Closed is the window of a day without working hours.
func Closed() WorkingWindow {
	return WorkingWindow{}
}

// Slot is a candidate interval resolved to absolute instants.
type Slot struct {
	Start time.Time
	End   time.Time
}
