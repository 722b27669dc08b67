package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/agenda-engine/internal/calendar"
	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/dto"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/timezone"
)

type ListBookingsByDate struct {
	repo domain.Repository
}

func NewListBookingsByDate(
	repo domain.Repository,
) *ListBookingsByDate {
	return &ListBookingsByDate{
		repo: repo,
	}
}

// Execute lists every booking, whatever its status, starting on date in
// the organization's timezone.
func (uc *ListBookingsByDate) Execute(
	ctx context.Context,
	organizationID uuid.UUID,
	date string,
) ([]dto.BookingListDTO, error) {

	day, err := calendar.ParseDateKey(date)
	if err != nil {
		return nil, httperr.ErrValidation("invalid_date", "date must be YYYY-MM-DD")
	}

	org, err := uc.repo.GetOrganizationByID(ctx, organizationID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, httperr.ErrNotFound("organization_not_found")
	}
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}

	start, end := calendar.DayBounds(day, timezone.Location(org.Timezone))

	bookings, err := uc.repo.ListBookingsForPeriod(ctx, organizationID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	out := make([]dto.BookingListDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, dto.BookingListDTO{
			ID:               b.ID,
			StartTime:        b.StartTime,
			EndTime:          b.EndTime,
			Status:           b.Status,
			ClientName:       b.ClientName,
			ClientPhone:      b.ClientPhone,
			ServiceID:        b.ServiceID,
			ServiceName:      b.Service.Name,
			NotificationSent: b.NotificationSent,
			Notes:            b.Notes,
		})
	}

	return out, nil
}
