package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/agenda-engine/internal/calendar"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
)

// ErrRecordNotFound is returned by every store lookup that finds nothing.
var ErrRecordNotFound = errors.New("record not found")

type OrganizationReader interface {
	GetOrganizationByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error)
	ListOrganizations(ctx context.Context) ([]models.Organization, error)

	GetService(ctx context.Context, serviceID uuid.UUID) (*models.Service, error)
	ListActiveServices(ctx context.Context, organizationID uuid.UUID) ([]models.Service, error)
}

// ScheduleReader exposes the configuration the slot engine is computed from.
type ScheduleReader interface {
	GetWorkingHours(ctx context.Context, organizationID uuid.UUID, day calendar.DayOfWeek) (*models.WorkingHours, error)
	ListWorkingHours(ctx context.Context, organizationID uuid.UUID) ([]models.WorkingHours, error)
	ListBreaks(ctx context.Context, organizationID uuid.UUID) ([]models.BreakTime, error)
	IsUnavailable(ctx context.Context, organizationID uuid.UUID, date calendar.DateKey) (bool, error)
	ListUnavailableDays(ctx context.Context, organizationID uuid.UUID, from, to calendar.DateKey) ([]models.UnavailableDay, error)
}

type BookingStore interface {
	// CreateBookingAtomic checks for an overlapping active booking of the
	// same organization and inserts b as one atomic step. An overlap yields
	// a conflict business error.
	CreateBookingAtomic(ctx context.Context, b *models.Booking) error

	GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)

	// UpdateBookingStatus writes b's status and its cancellation/completion
	// stamps only while the stored status still equals from. A booking moved
	// by another writer first yields the conflict booking_status_changed.
	// No other column is written.
	UpdateBookingStatus(ctx context.Context, b *models.Booking, from Status) error
	MarkNotificationSent(ctx context.Context, id uuid.UUID) error
	FindLatestPendingByPhone(ctx context.Context, phone string) (*models.Booking, error)

	// ListActiveBookings returns PENDING/CONFIRMED bookings overlapping
	// [start, end), ordered by start time.
	ListActiveBookings(ctx context.Context, organizationID uuid.UUID, start, end time.Time) ([]models.Booking, error)
	ListBookingsForPeriod(ctx context.Context, organizationID uuid.UUID, start, end time.Time) ([]models.Booking, error)
}

// FullyBookedStore persists the derived fully-booked cache. Upsert and
// delete are idempotent.
type FullyBookedStore interface {
	UpsertFullyBooked(ctx context.Context, organizationID, serviceID uuid.UUID, date calendar.DateKey) error
	DeleteFullyBooked(ctx context.Context, organizationID, serviceID uuid.UUID, date calendar.DateKey) error
	ListFullyBooked(ctx context.Context, organizationID, serviceID uuid.UUID, from, to calendar.DateKey) ([]calendar.DateKey, error)
}

type SettingsStore interface {
	UpsertWorkingHours(ctx context.Context, hours []models.WorkingHours) error
	ReplaceBreaks(ctx context.Context, organizationID uuid.UUID, breaks []models.BreakTime) error
	CreateUnavailableDay(ctx context.Context, day *models.UnavailableDay) error
	DeleteUnavailableDay(ctx context.Context, organizationID, id uuid.UUID) (*models.UnavailableDay, error)
}

// ServiceStore manages the service catalog of an organization. Every
// lookup is scoped to the organization; a foreign id is not found.
type ServiceStore interface {
	ListServices(ctx context.Context, organizationID uuid.UUID) ([]models.Service, error)
	CreateService(ctx context.Context, svc *models.Service) error
	UpdateService(ctx context.Context, svc *models.Service) error

	// DeleteService removes a service that no booking references. A service
	// with bookings yields the conflict service_has_bookings.
	DeleteService(ctx context.Context, organizationID, serviceID uuid.UUID) error

	// ClearFullyBooked drops every cache row of the service.
	ClearFullyBooked(ctx context.Context, organizationID, serviceID uuid.UUID) error
}

// TemplateStore persists per-organization message overrides.
type TemplateStore interface {
	GetTemplate(ctx context.Context, organizationID uuid.UUID, kind string) (*models.WhatsAppTemplate, error)
	ListTemplates(ctx context.Context, organizationID uuid.UUID) ([]models.WhatsAppTemplate, error)
	UpsertTemplate(ctx context.Context, t *models.WhatsAppTemplate) error
	DeleteTemplate(ctx context.Context, organizationID uuid.UUID, kind string) error
}

type AuditFilter struct {
	Action string
	Entity string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type AuditStore interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
	ListAuditLogs(ctx context.Context, organizationID uuid.UUID, filter AuditFilter) ([]models.AuditLog, int64, error)
}

type Repository interface {
	OrganizationReader
	ScheduleReader
	BookingStore
	FullyBookedStore
	SettingsStore
	ServiceStore
	TemplateStore
	AuditStore
}
