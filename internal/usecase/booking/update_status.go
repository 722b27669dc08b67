package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/agenda-engine/internal/calendar"
	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/metrics"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
	"github.com/BruksfildServices01/agenda-engine/internal/timezone"
)

type UpdateBookingStatus struct {
	repo      domain.Repository
	publisher events.Publisher
	now       func() time.Time
}

func NewUpdateBookingStatus(
	repo domain.Repository,
	publisher events.Publisher,
) *UpdateBookingStatus {
	return &UpdateBookingStatus{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// Execute moves a booking of organizationID to status. Bookings of other
// organizations are reported as not found.
func (uc *UpdateBookingStatus) Execute(
	ctx context.Context,
	organizationID uuid.UUID,
	bookingID uuid.UUID,
	status string,
	actor string,
) (*models.Booking, error) {

	next, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	b, err := uc.repo.GetBooking(ctx, bookingID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, httperr.ErrNotFound("booking_not_found")
	}
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if b.OrganizationID != organizationID {
		return nil, httperr.ErrNotFound("booking_not_found")
	}

	return uc.apply(ctx, b, next, actor)
}

func (uc *UpdateBookingStatus) apply(
	ctx context.Context,
	b *models.Booking,
	next domain.Status,
	actor string,
) (*models.Booking, error) {

	org, err := uc.repo.GetOrganizationByID(ctx, b.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}

	previous := b.Status
	if err := domain.Transition(b, next, uc.now().UTC()); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateBookingStatus(ctx, b, domain.Status(previous)); err != nil {
		if httperr.KindOf(err) != 0 {
			return nil, err
		}
		return nil, fmt.Errorf("update booking: %w", err)
	}
	metrics.IncStatusTransition(b.Status)

	// The reconciler keys on the calendar day of the original start.
	day := calendar.DateKeyOf(b.StartTime, timezone.Location(org.Timezone))

	uc.publisher.Dispatch(events.Event{
		Type:           events.TypeBookingStatusChanged,
		OrganizationID: b.OrganizationID,
		ServiceID:      b.ServiceID,
		BookingID:      b.ID,
		Date:           day.String(),
		Status:         b.Status,
		PreviousStatus: previous,
		Actor:          actor,
	})

	return b, nil
}
