package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/agenda-engine/internal/calendar"
	engine "github.com/BruksfildServices01/agenda-engine/internal/domain/availability"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/metrics"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
)

// BookingReader is the booking query availability depends on.
type BookingReader interface {
	ListActiveBookings(ctx context.Context, organizationID uuid.UUID, start, end time.Time) ([]models.Booking, error)
}

type SlotsRepository interface {
	Reader
	BookingReader
}

// DaySlots is the open grid of one service on one date. Slot starts are UTC.
type DaySlots struct {
	Date            calendar.DateKey `json:"date"`
	DurationMinutes int              `json:"duration_minutes"`
	Slots           []time.Time      `json:"slots"`
}

// ======================================================
// USE CASE
// ======================================================

type GetSlotsForDay struct {
	repo SlotsRepository
}

func NewGetSlotsForDay(repo SlotsRepository) *GetSlotsForDay {
	return &GetSlotsForDay{repo: repo}
}

func (uc *GetSlotsForDay) Execute(
	ctx context.Context,
	organizationID uuid.UUID,
	serviceID uuid.UUID,
	date string,
) (*DaySlots, error) {

	day, err := calendar.ParseDateKey(date)
	if err != nil {
		return nil, httperr.ErrValidation("invalid_date", "date must be YYYY-MM-DD")
	}

	target, err := ResolveTarget(ctx, uc.repo, organizationID, serviceID)
	if err != nil {
		return nil, err
	}
	metrics.IncSlotQuery("day")

	out := &DaySlots{
		Date:            day,
		DurationMinutes: target.Service.DurationMinutes,
		Slots:           []time.Time{},
	}

	sched, err := LoadDaySchedule(ctx, uc.repo, target, day)
	if err != nil {
		return nil, err
	}
	if len(sched.Candidates) == 0 {
		return out, nil
	}

	free, err := openSlots(ctx, uc.repo, target, sched)
	if err != nil {
		return nil, err
	}
	for _, s := range free {
		out.Slots = append(out.Slots, s.Start.UTC())
	}
	return out, nil
}

// openSlots removes candidates taken by active bookings of the organization.
func openSlots(ctx context.Context, repo BookingReader, t *Target, sched *DaySchedule) ([]engine.Slot, error) {
	start, end := calendar.DayBounds(sched.Date, t.Location)

	bookings, err := repo.ListActiveBookings(ctx, t.Organization.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	return engine.FilterAvailable(sched.Candidates, bookings), nil
}
