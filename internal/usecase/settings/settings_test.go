package settings

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/infra/repository"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
)

// Already the 17th in UTC, still 23:00 on the 16th in São Paulo.
var fixedNow = time.Date(2026, 10, 17, 2, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Dispatch(ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func setup(t *testing.T) (*repository.MemoryRepository, *recorder, uuid.UUID) {
	t.Helper()

	repo := repository.NewMemoryRepository()
	org := &models.Organization{Name: "Studio", Slug: "studio", Timezone: "America/Sao_Paulo"}
	repo.AddOrganization(org)
	return repo, &recorder{}, org.ID
}

func TestUpdateWorkingHours(t *testing.T) {
	repo, pub, orgID := setup(t)
	uc := NewUpdateWorkingHours(repo, pub)
	ctx := context.Background()

	hours, err := uc.Execute(ctx, orgID, []DayConfig{
		{DayOfWeek: "MONDAY", IsWorking: true, StartTime: "09:00", EndTime: "17:00"},
		{DayOfWeek: "SUNDAY", IsWorking: false},
	})
	require.NoError(t, err)
	require.Len(t, hours, 2)
	assert.Equal(t, "00:00", hours[1].StartTime)

	first := hours[0].ID
	hours, err = uc.Execute(ctx, orgID, []DayConfig{
		{DayOfWeek: "MONDAY", IsWorking: true, StartTime: "10:00", EndTime: "18:00"},
	})
	require.NoError(t, err)
	require.Len(t, hours, 2)
	assert.Equal(t, first, hours[0].ID)
	assert.Equal(t, "10:00", hours[0].StartTime)

	require.Len(t, pub.events, 2)
	assert.Equal(t, events.TypeScheduleChanged, pub.events[0].Type)
	assert.Equal(t, ChangeWorkingHours, pub.events[0].Metadata["change"])
	assert.Equal(t, events.ActorStaff, pub.events[0].Actor)
}

func TestUpdateWorkingHours_Validation(t *testing.T) {
	repo, pub, orgID := setup(t)
	uc := NewUpdateWorkingHours(repo, pub)

	tests := []struct {
		name string
		days []DayConfig
		code string
	}{
		{"empty", nil, "invalid_request"},
		{"bad day", []DayConfig{{DayOfWeek: "FUNDAY", IsWorking: true, StartTime: "09:00", EndTime: "10:00"}}, "invalid_day_of_week"},
		{"duplicate", []DayConfig{{DayOfWeek: "MONDAY"}, {DayOfWeek: "MONDAY"}}, "duplicate_day_of_week"},
		{"bad format", []DayConfig{{DayOfWeek: "MONDAY", IsWorking: true, StartTime: "9:00", EndTime: "17:00"}}, "invalid_time_format"},
		{"inverted", []DayConfig{{DayOfWeek: "MONDAY", IsWorking: true, StartTime: "17:00", EndTime: "09:00"}}, "invalid_time_range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), orgID, tt.days)
			assert.True(t, httperr.IsBusiness(err, tt.code), "%v", err)
		})
	}

	_, err := uc.Execute(context.Background(), uuid.New(), []DayConfig{{DayOfWeek: "MONDAY"}})
	assert.True(t, httperr.IsBusiness(err, "organization_not_found"))
	assert.Empty(t, pub.events)
}

func TestReplaceBreaks(t *testing.T) {
	repo, pub, orgID := setup(t)
	uc := NewReplaceBreaks(repo, pub)
	ctx := context.Background()

	breaks, err := uc.Execute(ctx, orgID, []BreakConfig{
		{StartTime: "12:00", EndTime: "13:00", Label: "Almoço"},
		{StartTime: "15:00", EndTime: "15:15"},
	})
	require.NoError(t, err)
	assert.Len(t, breaks, 2)

	breaks, err = uc.Execute(ctx, orgID, nil)
	require.NoError(t, err)
	assert.Empty(t, breaks)

	_, err = uc.Execute(ctx, orgID, []BreakConfig{{StartTime: "13:00", EndTime: "12:00"}})
	assert.True(t, httperr.IsBusiness(err, "invalid_time_range"))

	require.Len(t, pub.events, 2)
	assert.Equal(t, ChangeBreaks, pub.events[1].Metadata["change"])
}

func TestUnavailableDays(t *testing.T) {
	repo, pub, orgID := setup(t)
	add := NewAddUnavailableDay(repo, pub)
	add.now = func() time.Time { return fixedNow }
	remove := NewRemoveUnavailableDay(repo, pub)
	ctx := context.Background()

	day, err := add.Execute(ctx, orgID, "2026-10-24", "Feriado")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 24, 0, 0, 0, 0, time.UTC), day.Date)

	// Today in the organization's timezone is the 16th.
	_, err = add.Execute(ctx, orgID, "2026-10-16", "")
	require.NoError(t, err)

	_, err = add.Execute(ctx, orgID, "2026-10-24", "again")
	assert.True(t, httperr.IsBusiness(err, "already_unavailable"))

	_, err = add.Execute(ctx, orgID, "2026-10-15", "")
	assert.Equal(t, httperr.KindPastDate, httperr.KindOf(err))

	_, err = add.Execute(ctx, orgID, "24/10/2026", "")
	assert.True(t, httperr.IsBusiness(err, "invalid_date"))

	err = remove.Execute(ctx, uuid.New(), day.ID)
	assert.True(t, httperr.IsBusiness(err, "unavailable_day_not_found"))

	require.NoError(t, remove.Execute(ctx, orgID, day.ID))
	assert.True(t, httperr.IsBusiness(remove.Execute(ctx, orgID, day.ID), "unavailable_day_not_found"))

	require.Len(t, pub.events, 3)
	assert.Equal(t, ChangeUnavailableAdded, pub.events[0].Metadata["change"])
	assert.Equal(t, "2026-10-24", pub.events[0].Date)
	assert.Equal(t, ChangeUnavailableRemove, pub.events[2].Metadata["change"])
	assert.Equal(t, "2026-10-24", pub.events[2].Date)
}

func TestGetScheduleConfig(t *testing.T) {
	repo, pub, orgID := setup(t)
	ctx := context.Background()

	_, err := NewUpdateWorkingHours(repo, pub).Execute(ctx, orgID, []DayConfig{
		{DayOfWeek: "MONDAY", IsWorking: true, StartTime: "09:00", EndTime: "17:00"},
	})
	require.NoError(t, err)
	add := NewAddUnavailableDay(repo, pub)
	add.now = func() time.Time { return fixedNow }
	_, err = add.Execute(ctx, orgID, "2026-10-24", "")
	require.NoError(t, err)

	uc := NewGetScheduleConfig(repo)
	uc.now = func() time.Time { return fixedNow }

	cfg, err := uc.Execute(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", cfg.Timezone)
	assert.Len(t, cfg.WorkingHours, 1)
	assert.NotNil(t, cfg.Breaks)
	assert.Len(t, cfg.UnavailableDays, 1)
}
