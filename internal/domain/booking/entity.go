package booking

import (
	"time"

	"github.com/BruksfildServices01/agenda-engine/internal/models"
)

// ===============================
// Domain Actions
// ===============================

// Transition applies next to b after validating the move, stamping the
// cancellation or completion time.
func Transition(b *models.Booking, next Status, now time.Time) error {
	if err := CanTransition(Status(b.Status), next); err != nil {
		return err
	}

	b.Status = string(next)
	switch next {
	case StatusCancelled:
		b.CancelledAt = &now
	case StatusCompleted:
		b.CompletedAt = &now
	}
	return nil
}

// Overlaps is the half-open interval test shared by every conflict check.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// ConflictsWith reports whether b is active and overlaps [start, end).
func ConflictsWith(b models.Booking, start, end time.Time) bool {
	return Status(b.Status).IsActive() && Overlaps(start, end, b.StartTime, b.EndTime)
}
