package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/agenda-engine/internal/calendar"
	engine "github.com/BruksfildServices01/agenda-engine/internal/domain/availability"
	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/metrics"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
	"github.com/BruksfildServices01/agenda-engine/internal/usecase/availability"
)

// ======================================================
// INPUT
// ======================================================

type CreateBookingInput struct {
	OrganizationID uuid.UUID
	ServiceID      uuid.UUID
	Client         domain.ClientInfo

	// StartTime is an RFC 3339 instant.
	StartTime string
}

// ======================================================
// USE CASE
// ======================================================

type CreateBooking struct {
	repo      domain.Repository
	publisher events.Publisher
	now       func() time.Time
}

func NewCreateBooking(
	repo domain.Repository,
	publisher events.Publisher,
) *CreateBooking {
	return &CreateBooking{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// ======================================================
// EXECUTE
// ======================================================

// Execute validates the request in a fixed order and stops at the first
// failure without writing anything. The overlap check and the insert are
// one atomic step in the store.
func (uc *CreateBooking) Execute(
	ctx context.Context,
	in CreateBookingInput,
) (*models.Booking, error) {

	// --------------------------------------------------
	// 1. Client
	// --------------------------------------------------
	client := in.Client.Normalize()
	if err := client.Validate(); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 2. Organization + service
	// --------------------------------------------------
	target, err := availability.ResolveTarget(ctx, uc.repo, in.OrganizationID, in.ServiceID)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 3. Start instant
	// --------------------------------------------------
	start, err := time.Parse(time.RFC3339, in.StartTime)
	if err != nil {
		return nil, httperr.ErrValidation("invalid_start_time", "start_time must be an RFC 3339 timestamp")
	}
	start = start.UTC()

	if start.Before(uc.now()) {
		return nil, httperr.ErrPastDate("date_in_past")
	}

	// --------------------------------------------------
	// 4. Slot grid
	// --------------------------------------------------
	day := calendar.DateKeyOf(start, target.Location)

	sched, err := availability.LoadDaySchedule(ctx, uc.repo, target, day)
	if err != nil {
		return nil, err
	}
	if !sched.Open() || !engine.Contains(sched.Candidates, start) {
		return nil, httperr.ErrValidation("outside_working_hours", "")
	}

	// --------------------------------------------------
	// 5. Atomic insert
	// --------------------------------------------------
	b := &models.Booking{
		OrganizationID: target.Organization.ID,
		ServiceID:      target.Service.ID,
		ClientName:     client.Name,
		ClientPhone:    client.Phone,
		ClientEmail:    client.Email,
		Notes:          client.Notes,
		StartTime:      start,
		EndTime:        start.Add(time.Duration(target.Service.DurationMinutes) * time.Minute),
		Status:         string(domain.InitialStatus()),
	}

	if err := uc.repo.CreateBookingAtomic(ctx, b); err != nil {
		if httperr.KindOf(err) == httperr.KindConflict {
			metrics.IncBookingConflict()
		}
		return nil, err
	}
	metrics.IncBookingCreated()

	// --------------------------------------------------
	// 6. Side effects
	// --------------------------------------------------
	uc.publisher.Dispatch(events.Event{
		Type:           events.TypeBookingCreated,
		OrganizationID: b.OrganizationID,
		ServiceID:      b.ServiceID,
		BookingID:      b.ID,
		Date:           day.String(),
		Status:         b.Status,
		Actor:          events.ActorClient,
	})

	return b, nil
}
