package booking

import "github.com/BruksfildServices01/agenda-engine/internal/httperr"

// ===============================
// Booking Status
// ===============================

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

func ActiveStatusStrings() []string {
	return []string{string(StatusPending), string(StatusConfirmed)}
}

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return st, nil
	}
	return "", httperr.ErrValidation("invalid_status", "unknown status "+s)
}

func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// FreesCapacity reports whether moving into s releases the booked interval.
func (s Status) FreesCapacity() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// ===============================
// Validations
// ===============================

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled, StatusCompleted},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
}

// CanTransition reports whether a booking may move from current to next.
// Terminal statuses never change.
func CanTransition(current, next Status) error {
	for _, allowed := range transitions[current] {
		if allowed == next {
			return nil
		}
	}
	return httperr.ErrValidation(
		"invalid_transition",
		"cannot move booking from "+string(current)+" to "+string(next),
	)
}

func InitialStatus() Status {
	return StatusPending
}
