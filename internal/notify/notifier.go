// Package notify renders client messages for booking lifecycle events and
// hands them to a Notifier. Delivery transports live behind that interface.
package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Message struct {
	BookingID uuid.UUID
	To        string
	Text      string
}

type Notifier interface {
	BookingConfirmed(ctx context.Context, msg Message) error
	BookingCancelled(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the log instead of sending them.
type LogNotifier struct {
	log *zerolog.Logger
}

func NewLogNotifier(log *zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) BookingConfirmed(_ context.Context, msg Message) error {
	n.write(TemplateConfirmation, msg)
	return nil
}

func (n *LogNotifier) BookingCancelled(_ context.Context, msg Message) error {
	n.write(TemplateCancellation, msg)
	return nil
}

func (n *LogNotifier) write(kind TemplateType, msg Message) {
	n.log.Info().
		Str("template", string(kind)).
		Str("booking_id", msg.BookingID.String()).
		Str("to", msg.To).
		Str("text", msg.Text).
		Msg("client notification")
}
