package audit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/infra/repository"
)

func TestHandleStatusChange(t *testing.T) {
	repo := repository.NewMemoryRepository()
	l := New(repo)
	org, bookingID := uuid.New(), uuid.New()

	err := l.Handle(context.Background(), events.Event{
		ID:             "ev-1",
		Type:           events.TypeBookingStatusChanged,
		OrganizationID: org,
		BookingID:      bookingID,
		Status:         "CANCELLED",
		PreviousStatus: "PENDING",
		Actor:          events.ActorWebhook,
	})
	require.NoError(t, err)

	logs, total, err := repo.ListAuditLogs(context.Background(), org, domain.AuditFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	entry := logs[0]
	assert.Equal(t, "booking.cancelled", entry.Action)
	assert.Equal(t, "booking", entry.Entity)
	require.NotNil(t, entry.EntityID)
	assert.Equal(t, bookingID, *entry.EntityID)

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(entry.Metadata), &meta))
	assert.Equal(t, "PENDING", meta["from"])
	assert.Equal(t, "CANCELLED", meta["to"])
	assert.Equal(t, "webhook", meta["actor"])
}

func TestHandleScheduleChange(t *testing.T) {
	repo := repository.NewMemoryRepository()
	l := New(repo)
	org := uuid.New()

	require.NoError(t, l.Handle(context.Background(), events.Event{
		Type:           events.TypeScheduleChanged,
		OrganizationID: org,
		Metadata:       map[string]any{"change": "breaks_replaced"},
	}))

	logs, _, err := repo.ListAuditLogs(context.Background(), org, domain.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "schedule.breaks_replaced", logs[0].Action)
	assert.Nil(t, logs[0].EntityID)
}

func TestHandleServiceChange(t *testing.T) {
	repo := repository.NewMemoryRepository()
	l := New(repo)
	org, serviceID := uuid.New(), uuid.New()

	require.NoError(t, l.Handle(context.Background(), events.Event{
		Type:           events.TypeServiceChanged,
		OrganizationID: org,
		ServiceID:      serviceID,
		Metadata:       map[string]any{"change": "deactivated"},
	}))
	require.NoError(t, l.Handle(context.Background(), events.Event{
		Type:           events.TypeTemplateChanged,
		OrganizationID: org,
		Metadata:       map[string]any{"change": "reset", "template": "CONFIRMATION"},
	}))

	logs, _, err := repo.ListAuditLogs(context.Background(), org, domain.AuditFilter{Entity: "service"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "service.deactivated", logs[0].Action)
	require.NotNil(t, logs[0].EntityID)
	assert.Equal(t, serviceID, *logs[0].EntityID)

	logs, _, err = repo.ListAuditLogs(context.Background(), org, domain.AuditFilter{Entity: "whatsapp_template"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "template.reset", logs[0].Action)
}
