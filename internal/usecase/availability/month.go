package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/agenda-engine/internal/calendar"
	engine "github.com/BruksfildServices01/agenda-engine/internal/domain/availability"
	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/metrics"
)

type MonthRepository interface {
	Reader
	ListFullyBooked(ctx context.Context, organizationID, serviceID uuid.UUID, from, to calendar.DateKey) ([]calendar.DateKey, error)
}

var _ MonthRepository = (domain.Repository)(nil)

// ======================================================
// USE CASE
// ======================================================

// AvailableDays answers the month view from configuration and the
// fully-booked cache only. Bookings are never read here.
type AvailableDays struct {
	repo MonthRepository
	now  func() time.Time
}

func NewAvailableDays(repo MonthRepository) *AvailableDays {
	return &AvailableDays{repo: repo, now: time.Now}
}

func (uc *AvailableDays) Execute(
	ctx context.Context,
	organizationID uuid.UUID,
	serviceID uuid.UUID,
	year int,
	month int,
) ([]calendar.DateKey, error) {

	if month < 1 || month > 12 {
		return nil, httperr.ErrValidation("invalid_month", "month must be between 1 and 12")
	}
	if year < 2000 || year > 9999 {
		return nil, httperr.ErrValidation("invalid_year", "year out of range")
	}

	target, err := ResolveTarget(ctx, uc.repo, organizationID, serviceID)
	if err != nil {
		return nil, err
	}
	metrics.IncSlotQuery("month")

	orgID := target.Organization.ID
	first, last := calendar.MonthRange(year, time.Month(month))

	// --------------------------------------------------
	// Bounded reads
	// --------------------------------------------------
	hours, err := uc.repo.ListWorkingHours(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load working hours: %w", err)
	}
	windows, err := engine.WindowsByWeekday(hours)
	if err != nil {
		return nil, err
	}

	breakRows, err := uc.repo.ListBreaks(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load breaks: %w", err)
	}
	breaks, err := engine.BuildBreaks(breakRows)
	if err != nil {
		return nil, err
	}

	blocked, err := uc.repo.ListUnavailableDays(ctx, orgID, first, last)
	if err != nil {
		return nil, fmt.Errorf("load unavailable days: %w", err)
	}
	blockedKeys := make([]calendar.DateKey, 0, len(blocked))
	for _, u := range blocked {
		blockedKeys = append(blockedKeys, calendar.DateKeyOf(u.Date, time.UTC))
	}

	full, err := uc.repo.ListFullyBooked(ctx, orgID, serviceID, first, last)
	if err != nil {
		return nil, fmt.Errorf("load fully booked days: %w", err)
	}

	// --------------------------------------------------
	// Summary
	// --------------------------------------------------
	return engine.SummarizeMonth(engine.MonthInput{
		Year:        year,
		Month:       time.Month(month),
		Today:       calendar.Today(target.Location, uc.now()),
		Bookable:    engine.BookableWeekdays(windows, breaks, target.Service.DurationMinutes),
		Unavailable: engine.KeySet(blockedKeys),
		FullyBooked: engine.KeySet(full),
	}), nil
}
