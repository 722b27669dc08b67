package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/agenda-engine/internal/calendar"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
	"github.com/BruksfildServices01/agenda-engine/internal/timezone"
)

// upcomingWindowDays bounds the unavailable days returned with the config.
const upcomingWindowDays = 366

type ScheduleConfig struct {
	Timezone        string                  `json:"timezone"`
	WorkingHours    []models.WorkingHours   `json:"working_hours"`
	Breaks          []models.BreakTime      `json:"breaks"`
	UnavailableDays []models.UnavailableDay `json:"unavailable_days"`
}

type GetScheduleConfig struct {
	repo Repository
	now  func() time.Time
}

func NewGetScheduleConfig(repo Repository) *GetScheduleConfig {
	return &GetScheduleConfig{repo: repo, now: time.Now}
}

func (uc *GetScheduleConfig) Execute(ctx context.Context, organizationID uuid.UUID) (*ScheduleConfig, error) {
	org, err := loadOrganization(ctx, uc.repo, organizationID)
	if err != nil {
		return nil, err
	}

	hours, err := uc.repo.ListWorkingHours(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list working hours: %w", err)
	}
	breaks, err := uc.repo.ListBreaks(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list breaks: %w", err)
	}

	today := calendar.Today(timezone.Location(org.Timezone), uc.now())
	days, err := uc.repo.ListUnavailableDays(ctx, organizationID, today, today.AddDays(upcomingWindowDays))
	if err != nil {
		return nil, fmt.Errorf("list unavailable days: %w", err)
	}

	out := &ScheduleConfig{
		Timezone:        org.Timezone,
		WorkingHours:    hours,
		Breaks:          breaks,
		UnavailableDays: days,
	}
	if out.WorkingHours == nil {
		out.WorkingHours = []models.WorkingHours{}
	}
	if out.Breaks == nil {
		out.Breaks = []models.BreakTime{}
	}
	if out.UnavailableDays == nil {
		out.UnavailableDays = []models.UnavailableDay{}
	}
	return out, nil
}
