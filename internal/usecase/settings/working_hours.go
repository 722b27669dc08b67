package settings

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/agenda-engine/internal/calendar"
	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
)

const closedTime = "00:00"

type DayConfig struct {
	DayOfWeek string `json:"day_of_week" binding:"required"`
	IsWorking bool   `json:"is_working"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type UpdateWorkingHours struct {
	repo      Repository
	publisher events.Publisher
}

func NewUpdateWorkingHours(repo Repository, publisher events.Publisher) *UpdateWorkingHours {
	return &UpdateWorkingHours{repo: repo, publisher: publisher}
}

// Execute upserts one row per listed weekday. Weekdays left out keep their
// current configuration.
func (uc *UpdateWorkingHours) Execute(
	ctx context.Context,
	organizationID uuid.UUID,
	days []DayConfig,
) ([]models.WorkingHours, error) {

	if len(days) == 0 {
		return nil, httperr.ErrValidation("invalid_request", "at least one day is required")
	}

	rows := make([]models.WorkingHours, 0, len(days))
	seen := make(map[calendar.DayOfWeek]bool, len(days))

	for _, d := range days {
		day := calendar.DayOfWeek(d.DayOfWeek)
		if !day.Valid() {
			return nil, httperr.ErrValidation("invalid_day_of_week", "unknown day "+d.DayOfWeek)
		}
		if seen[day] {
			return nil, httperr.ErrValidation("duplicate_day_of_week", "day listed twice: "+d.DayOfWeek)
		}
		seen[day] = true

		row := models.WorkingHours{
			OrganizationID: organizationID,
			DayOfWeek:      string(day),
			IsWorking:      d.IsWorking,
			StartTime:      d.StartTime,
			EndTime:        d.EndTime,
		}

		if !d.IsWorking {
			if row.StartTime == "" {
				row.StartTime = closedTime
			}
			if row.EndTime == "" {
				row.EndTime = closedTime
			}
			rows = append(rows, row)
			continue
		}

		if err := validRange(d.StartTime, d.EndTime); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if _, err := loadOrganization(ctx, uc.repo, organizationID); err != nil {
		return nil, err
	}

	if err := uc.repo.UpsertWorkingHours(ctx, rows); err != nil {
		return nil, fmt.Errorf("save working hours: %w", err)
	}

	uc.publisher.Dispatch(scheduleChanged(organizationID, ChangeWorkingHours, map[string]any{"days": len(rows)}))

	return uc.repo.ListWorkingHours(ctx, organizationID)
}

// validRange requires two strict "HH:mm" values with start before end.
func validRange(start, end string) error {
	s, err := calendar.MinutesOfDay(start)
	if err != nil {
		return httperr.ErrValidation("invalid_time_format", err.Error())
	}
	e, err := calendar.MinutesOfDay(end)
	if err != nil {
		return httperr.ErrValidation("invalid_time_format", err.Error())
	}
	if s >= e {
		return httperr.ErrValidation("invalid_time_range", "start_time must be before end_time")
	}
	return nil
}
