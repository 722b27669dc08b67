// Package events carries side effects of committed mutations to workers
// that run outside the request: cache reconciliation, audit rows and
// client notifications.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/agenda-engine/internal/calendar"
)

type Type string

const (
	TypeBookingCreated       Type = "booking.created"
	TypeBookingStatusChanged Type = "booking.status_changed"
	TypeScheduleChanged      Type = "organization.schedule_changed"
	TypeServiceChanged       Type = "organization.service_changed"
	TypeTemplateChanged      Type = "organization.template_changed"
	TypeCacheSweep           Type = "cache.sweep_requested"
)

// Actors recorded on events.
const (
	ActorStaff   = "staff"
	ActorClient  = "client"
	ActorWebhook = "webhook"
	ActorSystem  = "system"
)

type Event struct {
	ID             string         `json:"id"`
	Type           Type           `json:"type"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	ServiceID      uuid.UUID      `json:"service_id"`
	BookingID      uuid.UUID      `json:"booking_id"`
	Date           string         `json:"date,omitempty"`
	Status         string         `json:"status,omitempty"`
	PreviousStatus string         `json:"previous_status,omitempty"`
	Actor          string         `json:"actor,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	OccurredAt     time.Time      `json:"occurred_at"`

	// Target restricts delivery to one named subscriber; set on retries.
	Target  string `json:"target,omitempty"`
	Attempt int    `json:"attempt"`
}

// DateKey parses Date. ok is false when the event carries no date.
func (e Event) DateKey() (calendar.DateKey, bool) {
	if e.Date == "" {
		return calendar.DateKey{}, false
	}
	key, err := calendar.ParseDateKey(e.Date)
	if err != nil {
		return calendar.DateKey{}, false
	}
	return key, true
}

// Handler processes one event. Handlers may be invoked more than once for
// the same event and must tolerate it.
type Handler func(ctx context.Context, ev Event) error

// Publisher is what mutating use cases depend on.
type Publisher interface {
	Dispatch(ev Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ev Event)

func (f PublisherFunc) Dispatch(ev Event) { f(ev) }

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(Event) {})
