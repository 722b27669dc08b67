// Package settings holds the staff operations that change an
// organization's schedule. Every mutation publishes a schedule change so
// the fully-booked cache is rebuilt over the horizon.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
)

// Schedule change kinds, recorded as the event's "change" metadata.
const (
	ChangeWorkingHours      = "working_hours_updated"
	ChangeBreaks            = "breaks_replaced"
	ChangeUnavailableAdded  = "unavailable_day_added"
	ChangeUnavailableRemove = "unavailable_day_removed"
)

type Repository interface {
	domain.OrganizationReader
	domain.ScheduleReader
	domain.SettingsStore
}

func loadOrganization(ctx context.Context, repo domain.OrganizationReader, id uuid.UUID) (*models.Organization, error) {
	org, err := repo.GetOrganizationByID(ctx, id)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, httperr.ErrNotFound("organization_not_found")
	}
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	return org, nil
}

func scheduleChanged(organizationID uuid.UUID, change string, extra map[string]any) events.Event {
	meta := map[string]any{"change": change}
	for k, v := range extra {
		meta[k] = v
	}
	return events.Event{
		Type:           events.TypeScheduleChanged,
		OrganizationID: organizationID,
		Actor:          events.ActorStaff,
		Metadata:       meta,
	}
}
