package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/agenda-engine/internal/calendar"
	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
)

// --------------------------------------------------
// Booking
// --------------------------------------------------

// CreateBookingAtomic serializes creations per organization with a
// transaction scoped advisory lock, so the overlap check and the insert see
// the same state. bookings_no_overlap backs this up at the storage level.
func (r *GormRepository) CreateBookingAtomic(
	ctx context.Context,
	b *models.Booking,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"SELECT pg_advisory_xact_lock(hashtext(?))",
			b.OrganizationID.String(),
		).Error; err != nil {
			return fmt.Errorf("lock organization: %w", err)
		}

		var count int64
		if err := tx.
			Model(&models.Booking{}).
			Where(
				"organization_id = ? AND status IN ? AND start_time < ? AND end_time > ?",
				b.OrganizationID,
				domain.ActiveStatusStrings(),
				b.EndTime,
				b.StartTime,
			).
			Count(&count).Error; err != nil {
			return fmt.Errorf("check overlap: %w", err)
		}

		if count > 0 {
			return httperr.ErrConflict("time_conflict")
		}

		return tx.Omit(clause.Associations).Create(b).Error
	})

	if isExclusionViolation(err) {
		return httperr.ErrConflict("time_conflict")
	}
	return err
}

func (r *GormRepository) GetBooking(
	ctx context.Context,
	id uuid.UUID,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Preload("Service").
		Where("id = ?", id).
		First(&b).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *GormRepository) UpdateBookingStatus(
	ctx context.Context,
	b *models.Booking,
	from domain.Status,
) error {

	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", b.ID, string(from)).
		Updates(map[string]any{
			"status":       b.Status,
			"cancelled_at": b.CancelledAt,
			"completed_at": b.CompletedAt,
			"updated_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.Booking{}).
			Where("id = ?", b.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrRecordNotFound
		}
		return httperr.ErrConflict("booking_status_changed")
	}

	b.UpdatedAt = now
	return nil
}

func (r *GormRepository) MarkNotificationSent(
	ctx context.Context,
	id uuid.UUID,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Update("notification_sent", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepository) FindLatestPendingByPhone(
	ctx context.Context,
	phone string,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Where("client_phone = ? AND status = ?", phone, string(domain.StatusPending)).
		Order("created_at DESC").
		First(&b).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *GormRepository) ListActiveBookings(
	ctx context.Context,
	organizationID uuid.UUID,
	start time.Time,
	end time.Time,
) ([]models.Booking, error) {

	var bookings []models.Booking
	if err := r.db.WithContext(ctx).
		Select("id", "start_time", "end_time", "status").
		Where(
			"organization_id = ? AND status IN ? AND start_time < ? AND end_time > ?",
			organizationID,
			domain.ActiveStatusStrings(),
			end,
			start,
		).
		Order("start_time ASC").
		Find(&bookings).Error; err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *GormRepository) ListBookingsForPeriod(
	ctx context.Context,
	organizationID uuid.UUID,
	start time.Time,
	end time.Time,
) ([]models.Booking, error) {

	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Service").
		Where(
			"organization_id = ? AND start_time >= ? AND start_time < ?",
			organizationID,
			start,
			end,
		).
		Order("start_time ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

// --------------------------------------------------
// Fully booked cache
// --------------------------------------------------

func (r *GormRepository) UpsertFullyBooked(
	ctx context.Context,
	organizationID uuid.UUID,
	serviceID uuid.UUID,
	date calendar.DateKey,
) error {

	row := models.FullyBookedDay{
		OrganizationID: organizationID,
		ServiceID:      serviceID,
		Date:           date.Time(),
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "organization_id"},
				{Name: "service_id"},
				{Name: "date"},
			},
			DoNothing: true,
		}).
		Create(&row).Error
}

func (r *GormRepository) DeleteFullyBooked(
	ctx context.Context,
	organizationID uuid.UUID,
	serviceID uuid.UUID,
	date calendar.DateKey,
) error {

	return r.db.WithContext(ctx).
		Where(
			"organization_id = ? AND service_id = ? AND date = ?",
			organizationID,
			serviceID,
			date.String(),
		).
		Delete(&models.FullyBookedDay{}).Error
}

func (r *GormRepository) ListFullyBooked(
	ctx context.Context,
	organizationID uuid.UUID,
	serviceID uuid.UUID,
	from calendar.DateKey,
	to calendar.DateKey,
) ([]calendar.DateKey, error) {

	var rows []models.FullyBookedDay
	if err := r.db.WithContext(ctx).
		Select("date").
		Where(
			"organization_id = ? AND service_id = ? AND date BETWEEN ? AND ?",
			organizationID,
			serviceID,
			from.String(),
			to.String(),
		).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	keys := make([]calendar.DateKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, calendar.DateKeyOf(row.Date, time.UTC))
	}
	return keys, nil
}
