package audit

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
)

const subscriberName = "audit"

// Logger turns domain events into append-only audit rows.
type Logger struct {
	store domain.AuditStore
}

func New(store domain.AuditStore) *Logger {
	return &Logger{store: store}
}

func (l *Logger) Subscribe(d *events.Dispatcher) {
	d.Subscribe(events.TypeBookingCreated, subscriberName, l.Handle)
	d.Subscribe(events.TypeBookingStatusChanged, subscriberName, l.Handle)
	d.Subscribe(events.TypeScheduleChanged, subscriberName, l.Handle)
	d.Subscribe(events.TypeServiceChanged, subscriberName, l.Handle)
	d.Subscribe(events.TypeTemplateChanged, subscriberName, l.Handle)
}

func (l *Logger) Handle(ctx context.Context, ev events.Event) error {
	action, entity := describe(ev)

	var entityID *uuid.UUID
	switch {
	case ev.BookingID != uuid.Nil:
		id := ev.BookingID
		entityID = &id
	case ev.ServiceID != uuid.Nil && ev.Type == events.TypeServiceChanged:
		id := ev.ServiceID
		entityID = &id
	}

	meta := map[string]any{
		"event_id": ev.ID,
		"actor":    ev.Actor,
	}
	if ev.Date != "" {
		meta["date"] = ev.Date
	}
	if ev.PreviousStatus != "" {
		meta["from"] = ev.PreviousStatus
	}
	if ev.Status != "" {
		meta["to"] = ev.Status
	}
	for k, v := range ev.Metadata {
		meta[k] = v
	}

	return l.Log(ctx, ev.OrganizationID, action, entity, entityID, meta)
}

func (l *Logger) Log(
	ctx context.Context,
	organizationID uuid.UUID,
	action string,
	entity string,
	entityID *uuid.UUID,
	metadata any,
) error {

	var metaJSON string
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metaJSON = string(b)
		}
	}

	entry := models.AuditLog{
		OrganizationID: organizationID,
		Action:         action,
		Entity:         entity,
		EntityID:       entityID,
		Metadata:       metaJSON,
	}

	return l.store.CreateAuditLog(ctx, &entry)
}

func describe(ev events.Event) (action, entity string) {
	switch ev.Type {
	case events.TypeBookingCreated:
		return "booking.created", "booking"
	case events.TypeBookingStatusChanged:
		return "booking." + strings.ToLower(ev.Status), "booking"
	case events.TypeScheduleChanged:
		if change, ok := ev.Metadata["change"].(string); ok && change != "" {
			return "schedule." + change, "schedule"
		}
		return "schedule.updated", "schedule"
	case events.TypeServiceChanged:
		if change, ok := ev.Metadata["change"].(string); ok && change != "" {
			return "service." + change, "service"
		}
		return "service.updated", "service"
	case events.TypeTemplateChanged:
		if change, ok := ev.Metadata["change"].(string); ok && change != "" {
			return "template." + change, "whatsapp_template"
		}
		return "template.updated", "whatsapp_template"
	}
	return string(ev.Type), ""
}
