package settings

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/agenda-engine/internal/calendar"
	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
	"github.com/BruksfildServices01/agenda-engine/internal/timezone"
)

const maxReasonLength = 255

// ======================================================
// ADD
// ======================================================

type AddUnavailableDay struct {
	repo      Repository
	publisher events.Publisher
	now       func() time.Time
}

func NewAddUnavailableDay(repo Repository, publisher events.Publisher) *AddUnavailableDay {
	return &AddUnavailableDay{repo: repo, publisher: publisher, now: time.Now}
}

// Execute blocks date for the organization. Today may be blocked; earlier
// dates may not.
func (uc *AddUnavailableDay) Execute(
	ctx context.Context,
	organizationID uuid.UUID,
	date string,
	reason string,
) (*models.UnavailableDay, error) {

	day, err := calendar.ParseDateKey(date)
	if err != nil {
		return nil, httperr.ErrValidation("invalid_date", "date must be YYYY-MM-DD")
	}
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return nil, httperr.ErrValidation("invalid_reason", "reason must have at most 255 characters")
	}

	org, err := loadOrganization(ctx, uc.repo, organizationID)
	if err != nil {
		return nil, err
	}

	today := calendar.Today(timezone.Location(org.Timezone), uc.now())
	if day.Before(today) {
		return nil, httperr.ErrPastDate("date_in_past")
	}

	row := &models.UnavailableDay{
		OrganizationID: organizationID,
		Date:           day.Time(),
		Reason:         reason,
	}
	if err := uc.repo.CreateUnavailableDay(ctx, row); err != nil {
		return nil, err
	}

	ev := scheduleChanged(organizationID, ChangeUnavailableAdded, nil)
	ev.Date = day.String()
	uc.publisher.Dispatch(ev)

	return row, nil
}

// ======================================================
// REMOVE
// ======================================================

type RemoveUnavailableDay struct {
	repo      Repository
	publisher events.Publisher
}

func NewRemoveUnavailableDay(repo Repository, publisher events.Publisher) *RemoveUnavailableDay {
	return &RemoveUnavailableDay{repo: repo, publisher: publisher}
}

func (uc *RemoveUnavailableDay) Execute(
	ctx context.Context,
	organizationID uuid.UUID,
	id uuid.UUID,
) error {

	removed, err := uc.repo.DeleteUnavailableDay(ctx, organizationID, id)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return httperr.ErrNotFound("unavailable_day_not_found")
	}
	if err != nil {
		return fmt.Errorf("delete unavailable day: %w", err)
	}

	ev := scheduleChanged(organizationID, ChangeUnavailableRemove, nil)
	ev.Date = calendar.DateKeyOf(removed.Date, time.UTC).String()
	uc.publisher.Dispatch(ev)

	return nil
}
