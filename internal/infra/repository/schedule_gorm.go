package repository

import (
	"context"
	"errors"
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
// Organization
// --------------------------------------------------

func (r *GormRepository) GetOrganizationByID(
	ctx context.Context,
	id uuid.UUID,
) (*models.Organization, error) {

	var org models.Organization
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error; err != nil {
		return nil, notFound(err)
	}
	return &org, nil
}

func (r *GormRepository) GetOrganizationBySlug(
	ctx context.Context,
	slug string,
) (*models.Organization, error) {

	var org models.Organization
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&org).Error; err != nil {
		return nil, notFound(err)
	}
	return &org, nil
}

func (r *GormRepository) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

// --------------------------------------------------
// Service
// --------------------------------------------------

func (r *GormRepository) GetService(
	ctx context.Context,
	serviceID uuid.UUID,
) (*models.Service, error) {

	var svc models.Service
	if err := r.db.WithContext(ctx).Where("id = ?", serviceID).First(&svc).Error; err != nil {
		return nil, notFound(err)
	}
	return &svc, nil
}

func (r *GormRepository) ListActiveServices(
	ctx context.Context,
	organizationID uuid.UUID,
) ([]models.Service, error) {

	var services []models.Service
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND active = ?", organizationID, true).
		Order("name ASC").
		Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

func (r *GormRepository) ListServices(
	ctx context.Context,
	organizationID uuid.UUID,
) ([]models.Service, error) {

	services := []models.Service{}
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("name ASC").
		Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

func (r *GormRepository) CreateService(
	ctx context.Context,
	svc *models.Service,
) error {
	return r.db.WithContext(ctx).Create(svc).Error
}

func (r *GormRepository) UpdateService(
	ctx context.Context,
	svc *models.Service,
) error {

	now := time.Now()

	// A map writes zero values too: inactive and free services are valid.
	res := r.db.WithContext(ctx).
		Model(&models.Service{}).
		Where("id = ? AND organization_id = ?", svc.ID, svc.OrganizationID).
		Updates(map[string]any{
			"name":             svc.Name,
			"description":      svc.Description,
			"price":            svc.Price,
			"duration_minutes": svc.DurationMinutes,
			"active":           svc.Active,
			"updated_at":       now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}

	svc.UpdatedAt = now
	return nil
}

func (r *GormRepository) DeleteService(
	ctx context.Context,
	organizationID uuid.UUID,
	serviceID uuid.UUID,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var svc models.Service
		if err := tx.
			Where("id = ? AND organization_id = ?", serviceID, organizationID).
			First(&svc).Error; err != nil {
			return notFound(err)
		}

		var bookings int64
		if err := tx.Model(&models.Booking{}).
			Where("service_id = ?", serviceID).
			Count(&bookings).Error; err != nil {
			return err
		}
		if bookings > 0 {
			return httperr.ErrConflict("service_has_bookings")
		}

		if err := tx.
			Where("organization_id = ? AND service_id = ?", organizationID, serviceID).
			Delete(&models.FullyBookedDay{}).Error; err != nil {
			return err
		}
		return tx.Delete(&svc).Error
	})

	// A booking inserted after the count still trips the RESTRICT key.
	if errors.Is(err, gorm.ErrForeignKeyViolated) || isForeignKeyViolation(err) {
		return httperr.ErrConflict("service_has_bookings")
	}
	return err
}

func (r *GormRepository) ClearFullyBooked(
	ctx context.Context,
	organizationID uuid.UUID,
	serviceID uuid.UUID,
) error {

	return r.db.WithContext(ctx).
		Where("organization_id = ? AND service_id = ?", organizationID, serviceID).
		Delete(&models.FullyBookedDay{}).Error
}

// --------------------------------------------------
// Schedule
// --------------------------------------------------

func (r *GormRepository) GetWorkingHours(
	ctx context.Context,
	organizationID uuid.UUID,
	day calendar.DayOfWeek,
) (*models.WorkingHours, error) {

	var wh models.WorkingHours
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND day_of_week = ?", organizationID, string(day)).
		First(&wh).Error; err != nil {
		return nil, notFound(err)
	}
	return &wh, nil
}

func (r *GormRepository) ListWorkingHours(
	ctx context.Context,
	organizationID uuid.UUID,
) ([]models.WorkingHours, error) {

	var hours []models.WorkingHours
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Find(&hours).Error; err != nil {
		return nil, err
	}
	return hours, nil
}

func (r *GormRepository) ListBreaks(
	ctx context.Context,
	organizationID uuid.UUID,
) ([]models.BreakTime, error) {

	var breaks []models.BreakTime
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("start_time ASC").
		Find(&breaks).Error; err != nil {
		return nil, err
	}
	return breaks, nil
}

func (r *GormRepository) IsUnavailable(
	ctx context.Context,
	organizationID uuid.UUID,
	date calendar.DateKey,
) (bool, error) {

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UnavailableDay{}).
		Where("organization_id = ? AND date = ?", organizationID, date.String()).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepository) ListUnavailableDays(
	ctx context.Context,
	organizationID uuid.UUID,
	from calendar.DateKey,
	to calendar.DateKey,
) ([]models.UnavailableDay, error) {

	var days []models.UnavailableDay
	if err := r.db.WithContext(ctx).
		Where(
			"organization_id = ? AND date BETWEEN ? AND ?",
			organizationID,
			from.String(),
			to.String(),
		).
		Order("date ASC").
		Find(&days).Error; err != nil {
		return nil, err
	}
	return days, nil
}

// --------------------------------------------------
// Settings
// --------------------------------------------------

func (r *GormRepository) UpsertWorkingHours(
	ctx context.Context,
	hours []models.WorkingHours,
) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range hours {
			if err := tx.
				Clauses(clause.OnConflict{
					Columns: []clause.Column{
						{Name: "organization_id"},
						{Name: "day_of_week"},
					},
					DoUpdates: clause.AssignmentColumns([]string{
						"is_working", "start_time", "end_time", "updated_at",
					}),
				}).
				Create(&hours[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormRepository) ReplaceBreaks(
	ctx context.Context,
	organizationID uuid.UUID,
	breaks []models.BreakTime,
) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("organization_id = ?", organizationID).
			Delete(&models.BreakTime{}).Error; err != nil {
			return err
		}
		if len(breaks) == 0 {
			return nil
		}
		return tx.Create(&breaks).Error
	})
}

func (r *GormRepository) CreateUnavailableDay(
	ctx context.Context,
	day *models.UnavailableDay,
) error {

	err := r.db.WithContext(ctx).Create(day).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return httperr.ErrConflict("already_unavailable")
	}
	return err
}

func (r *GormRepository) DeleteUnavailableDay(
	ctx context.Context,
	organizationID uuid.UUID,
	id uuid.UUID,
) (*models.UnavailableDay, error) {

	var day models.UnavailableDay
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("id = ? AND organization_id = ?", id, organizationID).
			First(&day).Error; err != nil {
			return notFound(err)
		}
		return tx.Delete(&day).Error
	})
	if err != nil {
		return nil, err
	}
	return &day, nil
}

// --------------------------------------------------
// Templates
// --------------------------------------------------

func (r *GormRepository) GetTemplate(
	ctx context.Context,
	organizationID uuid.UUID,
	kind string,
) (*models.WhatsAppTemplate, error) {

	var t models.WhatsAppTemplate
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND type = ?", organizationID, kind).
		First(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *GormRepository) ListTemplates(
	ctx context.Context,
	organizationID uuid.UUID,
) ([]models.WhatsAppTemplate, error) {

	var templates []models.WhatsAppTemplate
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("type ASC").
		Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *GormRepository) UpsertTemplate(
	ctx context.Context,
	t *models.WhatsAppTemplate,
) error {

	return r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{
					{Name: "organization_id"},
					{Name: "type"},
				},
				DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
			},
			clause.Returning{},
		).
		Create(t).Error
}

func (r *GormRepository) DeleteTemplate(
	ctx context.Context,
	organizationID uuid.UUID,
	kind string,
) error {

	return r.db.WithContext(ctx).
		Where("organization_id = ? AND type = ?", organizationID, kind).
		Delete(&models.WhatsAppTemplate{}).Error
}

// --------------------------------------------------
// Audit
// --------------------------------------------------

func (r *GormRepository) CreateAuditLog(
	ctx context.Context,
	entry *models.AuditLog,
) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormRepository) ListAuditLogs(
	ctx context.Context,
	organizationID uuid.UUID,
	filter domain.AuditFilter,
) ([]models.AuditLog, int64, error) {

	query := r.db.WithContext(ctx).
		Model(&models.AuditLog{}).
		Where("organization_id = ?", organizationID)

	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.Entity != "" {
		query = query.Where("entity = ?", filter.Entity)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	base := query.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := base.Order("created_at DESC").Offset(filter.Offset)
	if filter.Limit > 0 {
		page = page.Limit(filter.Limit)
	}

	var logs []models.AuditLog
	if err := page.Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
