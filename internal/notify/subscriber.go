package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
	"github.com/BruksfildServices01/agenda-engine/internal/timezone"
)

const subscriberName = "notify"

type Repository interface {
	domain.OrganizationReader
	TemplateReader
	GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	MarkNotificationSent(ctx context.Context, id uuid.UUID) error
}

// Subscriber sends the confirmation after a booking is created and the
// cancellation notice after one is cancelled, in the organization's own
// wording when it customized the template.
type Subscriber struct {
	repo     Repository
	notifier Notifier
	log      *zerolog.Logger
}

func NewSubscriber(repo Repository, notifier Notifier, log *zerolog.Logger) *Subscriber {
	return &Subscriber{
		repo:     repo,
		notifier: notifier,
		log:      log,
	}
}

func (s *Subscriber) Subscribe(d *events.Dispatcher) {
	d.Subscribe(events.TypeBookingCreated, subscriberName, s.Handle)
	d.Subscribe(events.TypeBookingStatusChanged, subscriberName, s.Handle)
}

func (s *Subscriber) Handle(ctx context.Context, ev events.Event) error {
	switch {
	case ev.Type == events.TypeBookingCreated:
		return s.confirm(ctx, ev)
	case ev.Type == events.TypeBookingStatusChanged && ev.Status == string(domain.StatusCancelled):
		return s.cancel(ctx, ev)
	}
	return nil
}

func (s *Subscriber) confirm(ctx context.Context, ev events.Event) error {
	b, msg, err := s.compose(ctx, ev, TemplateConfirmation)
	if err != nil || b == nil {
		return err
	}
	// A retried event must not message the client twice.
	if b.NotificationSent {
		return nil
	}

	if err := s.notifier.BookingConfirmed(ctx, msg); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	if err := s.repo.MarkNotificationSent(ctx, b.ID); err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return nil
}

func (s *Subscriber) cancel(ctx context.Context, ev events.Event) error {
	_, msg, err := s.compose(ctx, ev, TemplateCancellation)
	if err != nil || msg.Text == "" {
		return err
	}

	if err := s.notifier.BookingCancelled(ctx, msg); err != nil {
		return fmt.Errorf("send cancellation: %w", err)
	}
	return nil
}

// compose loads what the template needs. A booking that no longer exists
// yields a nil booking and no error.
func (s *Subscriber) compose(ctx context.Context, ev events.Event, kind TemplateType) (*models.Booking, Message, error) {
	b, err := s.repo.GetBooking(ctx, ev.BookingID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		s.log.Warn().Str("booking_id", ev.BookingID.String()).Msg("notification for missing booking")
		return nil, Message{}, nil
	}
	if err != nil {
		return nil, Message{}, fmt.Errorf("load booking: %w", err)
	}

	org, err := s.repo.GetOrganizationByID(ctx, b.OrganizationID)
	if err != nil {
		return nil, Message{}, fmt.Errorf("load organization: %w", err)
	}

	serviceName := b.Service.Name
	if serviceName == "" {
		svc, err := s.repo.GetService(ctx, b.ServiceID)
		if err != nil {
			return nil, Message{}, fmt.Errorf("load service: %w", err)
		}
		serviceName = svc.Name
	}

	template, _, err := TemplateFor(ctx, s.repo, org.ID, kind)
	if err != nil {
		return nil, Message{}, err
	}

	text := Render(template, Vars{
		Name:         b.ClientName,
		Service:      serviceName,
		Start:        b.StartTime,
		Location:     timezone.Location(org.Timezone),
		Organization: org.Name,
	})

	return b, Message{BookingID: b.ID, To: b.ClientPhone, Text: text}, nil
}
