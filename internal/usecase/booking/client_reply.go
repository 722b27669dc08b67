package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
	"github.com/BruksfildServices01/agenda-engine/internal/validators"
)

// ReplyResult tells the webhook what an inbound message did.
type ReplyResult struct {
	Reply   domain.Reply
	Booking *models.Booking
}

// Applied reports whether the message changed a booking.
func (r ReplyResult) Applied() bool {
	return r.Booking != nil
}

// HandleClientReply applies a client's confirm/cancel answer to their most
// recent pending booking.
type HandleClientReply struct {
	repo   domain.BookingStore
	status *UpdateBookingStatus
	log    *zerolog.Logger
}

func NewHandleClientReply(
	repo domain.BookingStore,
	status *UpdateBookingStatus,
	log *zerolog.Logger,
) *HandleClientReply {
	return &HandleClientReply{
		repo:   repo,
		status: status,
		log:    log,
	}
}

func (uc *HandleClientReply) Execute(ctx context.Context, phone, text string) (ReplyResult, error) {
	reply := domain.MatchReply(text)
	result := ReplyResult{Reply: reply}

	next, ok := reply.Status()
	if !ok {
		return result, nil
	}

	phone = validators.NormalizePhone(phone)
	b, err := uc.repo.FindLatestPendingByPhone(ctx, phone)
	if errors.Is(err, domain.ErrRecordNotFound) {
		uc.log.Debug().Str("phone", phone).Msg("reply without pending booking")
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("find pending booking: %w", err)
	}

	updated, err := uc.status.apply(ctx, b, next, events.ActorWebhook)
	if err != nil {
		return result, err
	}

	uc.log.Info().
		Str("booking_id", updated.ID.String()).
		Str("status", updated.Status).
		Msg("booking updated from client reply")

	result.Booking = updated
	return result, nil
}
