package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/agenda-engine/internal/calendar"
	engine "github.com/BruksfildServices01/agenda-engine/internal/domain/availability"
	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
	"github.com/BruksfildServices01/agenda-engine/internal/timezone"
)

// Reader is the read side every availability query needs.
type Reader interface {
	domain.OrganizationReader
	domain.ScheduleReader
}

// ======================================================
// Target resolution
// ======================================================

// Target is an organization together with one of its bookable services.
type Target struct {
	Organization *models.Organization
	Service      *models.Service
	Location     *time.Location
}

// ResolveTarget loads the organization and service and rejects services
// that are missing, inactive, foreign to the organization or have an
// unusable duration. Nothing downstream re-checks ownership.
func ResolveTarget(ctx context.Context, repo domain.OrganizationReader, organizationID, serviceID uuid.UUID) (*Target, error) {
	org, err := repo.GetOrganizationByID(ctx, organizationID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, httperr.ErrNotFound("organization_not_found")
	}
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}

	svc, err := repo.GetService(ctx, serviceID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, httperr.ErrNotFound("service_not_found")
	}
	if err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}
	if svc.OrganizationID != org.ID || !svc.Active {
		return nil, httperr.ErrNotFound("service_not_found")
	}

	if svc.DurationMinutes < models.MinServiceDuration || svc.DurationMinutes > models.MaxServiceDuration {
		return nil, httperr.ErrValidation("invalid_duration", "service duration must be between 5 and 480 minutes")
	}

	return &Target{
		Organization: org,
		Service:      svc,
		Location:     timezone.Location(org.Timezone),
	}, nil
}

// ======================================================
// Day schedule
// ======================================================

// DaySchedule is the candidate grid of one service on one date, before
// bookings are taken into account.
type DaySchedule struct {
	Date       calendar.DateKey
	Working    bool
	Blocked    bool
	Candidates []engine.Slot
}

// Open reports whether the day is offered at all.
func (d *DaySchedule) Open() bool {
	return d.Working && !d.Blocked
}

func LoadDaySchedule(ctx context.Context, repo domain.ScheduleReader, t *Target, day calendar.DateKey) (*DaySchedule, error) {
	orgID := t.Organization.ID
	out := &DaySchedule{Date: day}

	blocked, err := repo.IsUnavailable(ctx, orgID, day)
	if err != nil {
		return nil, fmt.Errorf("load unavailable day: %w", err)
	}
	out.Blocked = blocked

	wh, err := repo.GetWorkingHours(ctx, orgID, day.DayOfWeek())
	if errors.Is(err, domain.ErrRecordNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load working hours: %w", err)
	}

	window, err := engine.BuildWindow(*wh)
	if err != nil {
		return nil, err
	}
	out.Working = window.IsWorking
	if !out.Open() {
		return out, nil
	}

	breaks, err := repo.ListBreaks(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load breaks: %w", err)
	}
	intervals, err := engine.BuildBreaks(breaks)
	if err != nil {
		return nil, err
	}

	grid := engine.GenerateSlots(window, intervals, t.Service.DurationMinutes)
	out.Candidates = engine.ResolveSlots(day, t.Location, grid)
	return out, nil
}
