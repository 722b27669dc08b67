package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/agenda-engine/internal/calendar"
	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
)

type fullyBookedKey struct {
	organizationID uuid.UUID
	serviceID      uuid.UUID
	date           calendar.DateKey
}

type templateKey struct {
	organizationID uuid.UUID
	kind           string
}

type unavailableKey struct {
	organizationID uuid.UUID
	date           calendar.DateKey
}

// MemoryRepository keeps every table in process. A single mutex makes
// CreateBookingAtomic atomic. Values are copied in and out.
type MemoryRepository struct {
	mu sync.RWMutex

	orgs        map[uuid.UUID]models.Organization
	services    map[uuid.UUID]models.Service
	hours       map[uuid.UUID]map[calendar.DayOfWeek]models.WorkingHours
	breaks      map[uuid.UUID][]models.BreakTime
	unavailable map[unavailableKey]models.UnavailableDay
	bookings    map[uuid.UUID]models.Booking
	fullyBooked map[fullyBookedKey]struct{}
	templates   map[templateKey]models.WhatsAppTemplate
	auditLogs   []models.AuditLog

	now func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orgs:        make(map[uuid.UUID]models.Organization),
		services:    make(map[uuid.UUID]models.Service),
		hours:       make(map[uuid.UUID]map[calendar.DayOfWeek]models.WorkingHours),
		breaks:      make(map[uuid.UUID][]models.BreakTime),
		unavailable: make(map[unavailableKey]models.UnavailableDay),
		bookings:    make(map[uuid.UUID]models.Booking),
		fullyBooked: make(map[fullyBookedKey]struct{}),
		templates:   make(map[templateKey]models.WhatsAppTemplate),
		now:         time.Now,
	}
}

// --------------------------------------------------
// Seeding
// --------------------------------------------------

func (r *MemoryRepository) AddOrganization(org *models.Organization) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	r.orgs[org.ID] = *org
}

func (r *MemoryRepository) AddService(svc *models.Service) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	r.services[svc.ID] = *svc
}

// --------------------------------------------------
// Organization
// --------------------------------------------------

func (r *MemoryRepository) GetOrganizationByID(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	org, ok := r.orgs[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &org, nil
}

func (r *MemoryRepository) GetOrganizationBySlug(_ context.Context, slug string) (*models.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, org := range r.orgs {
		if org.Slug == slug {
			o := org
			return &o, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *MemoryRepository) ListOrganizations(_ context.Context) ([]models.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Organization, 0, len(r.orgs))
	for _, org := range r.orgs {
		out = append(out, org)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --------------------------------------------------
// Service
// --------------------------------------------------

func (r *MemoryRepository) GetService(_ context.Context, serviceID uuid.UUID) (*models.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[serviceID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &svc, nil
}

func (r *MemoryRepository) ListActiveServices(_ context.Context, organizationID uuid.UUID) ([]models.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Service
	for _, svc := range r.services {
		if svc.OrganizationID == organizationID && svc.Active {
			out = append(out, svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) ListServices(_ context.Context, organizationID uuid.UUID) ([]models.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Service{}
	for _, svc := range r.services {
		if svc.OrganizationID == organizationID {
			out = append(out, svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) CreateService(_ context.Context, svc *models.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	now := r.now()
	svc.CreatedAt = now
	svc.UpdatedAt = now
	r.services[svc.ID] = *svc
	return nil
}

func (r *MemoryRepository) UpdateService(_ context.Context, svc *models.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.services[svc.ID]
	if !ok || existing.OrganizationID != svc.OrganizationID {
		return domain.ErrRecordNotFound
	}
	svc.CreatedAt = existing.CreatedAt
	svc.UpdatedAt = r.now()
	r.services[svc.ID] = *svc
	return nil
}

func (r *MemoryRepository) DeleteService(_ context.Context, organizationID, serviceID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.services[serviceID]
	if !ok || existing.OrganizationID != organizationID {
		return domain.ErrRecordNotFound
	}
	for _, b := range r.bookings {
		if b.ServiceID == serviceID {
			return httperr.ErrConflict("service_has_bookings")
		}
	}

	delete(r.services, serviceID)
	r.clearFullyBookedLocked(organizationID, serviceID)
	return nil
}

func (r *MemoryRepository) ClearFullyBooked(_ context.Context, organizationID, serviceID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearFullyBookedLocked(organizationID, serviceID)
	return nil
}

func (r *MemoryRepository) clearFullyBookedLocked(organizationID, serviceID uuid.UUID) {
	for key := range r.fullyBooked {
		if key.organizationID == organizationID && key.serviceID == serviceID {
			delete(r.fullyBooked, key)
		}
	}
}

// --------------------------------------------------
// Schedule
// --------------------------------------------------

func (r *MemoryRepository) GetWorkingHours(_ context.Context, organizationID uuid.UUID, day calendar.DayOfWeek) (*models.WorkingHours, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wh, ok := r.hours[organizationID][day]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &wh, nil
}

func (r *MemoryRepository) ListWorkingHours(_ context.Context, organizationID uuid.UUID) ([]models.WorkingHours, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.WorkingHours
	for _, d := range calendar.Week {
		if wh, ok := r.hours[organizationID][d]; ok {
			out = append(out, wh)
		}
	}
	return out, nil
}

func (r *MemoryRepository) ListBreaks(_ context.Context, organizationID uuid.UUID) ([]models.BreakTime, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]models.BreakTime(nil), r.breaks[organizationID]...), nil
}

func (r *MemoryRepository) IsUnavailable(_ context.Context, organizationID uuid.UUID, date calendar.DateKey) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.unavailable[unavailableKey{organizationID, date}]
	return ok, nil
}

func (r *MemoryRepository) ListUnavailableDays(_ context.Context, organizationID uuid.UUID, from, to calendar.DateKey) ([]models.UnavailableDay, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.UnavailableDay
	for key, day := range r.unavailable {
		if key.organizationID != organizationID {
			continue
		}
		if key.date.Before(from) || to.Before(key.date) {
			continue
		}
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// --------------------------------------------------
// Booking
// --------------------------------------------------

func (r *MemoryRepository) CreateBookingAtomic(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.bookings {
		if existing.OrganizationID == b.OrganizationID && domain.ConflictsWith(existing, b.StartTime, b.EndTime) {
			return httperr.ErrConflict("time_conflict")
		}
	}

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := r.now()
	b.CreatedAt = now
	b.UpdatedAt = now

	stored := *b
	stored.Service = models.Service{}
	stored.Organization = models.Organization{}
	r.bookings[b.ID] = stored
	return nil
}

func (r *MemoryRepository) GetBooking(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	b.Service = r.services[b.ServiceID]
	return &b, nil
}

func (r *MemoryRepository) UpdateBookingStatus(_ context.Context, b *models.Booking, from domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.bookings[b.ID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if stored.Status != string(from) {
		return httperr.ErrConflict("booking_status_changed")
	}

	stored.Status = b.Status
	stored.CancelledAt = b.CancelledAt
	stored.CompletedAt = b.CompletedAt
	stored.UpdatedAt = r.now()
	r.bookings[b.ID] = stored

	b.UpdatedAt = stored.UpdatedAt
	b.NotificationSent = stored.NotificationSent
	return nil
}

func (r *MemoryRepository) MarkNotificationSent(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return domain.ErrRecordNotFound
	}
	b.NotificationSent = true
	r.bookings[id] = b
	return nil
}

func (r *MemoryRepository) FindLatestPendingByPhone(_ context.Context, phone string) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *models.Booking
	for _, b := range r.bookings {
		if b.ClientPhone != phone || b.Status != string(domain.StatusPending) {
			continue
		}
		if latest == nil || b.CreatedAt.After(latest.CreatedAt) {
			candidate := b
			latest = &candidate
		}
	}
	if latest == nil {
		return nil, domain.ErrRecordNotFound
	}
	return latest, nil
}

func (r *MemoryRepository) ListActiveBookings(_ context.Context, organizationID uuid.UUID, start, end time.Time) ([]models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Booking
	for _, b := range r.bookings {
		if b.OrganizationID == organizationID && domain.ConflictsWith(b, start, end) {
			out = append(out, b)
		}
	}
	sortByStart(out)
	return out, nil
}

func (r *MemoryRepository) ListBookingsForPeriod(_ context.Context, organizationID uuid.UUID, start, end time.Time) ([]models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Booking
	for _, b := range r.bookings {
		if b.OrganizationID != organizationID {
			continue
		}
		if b.StartTime.Before(start) || !b.StartTime.Before(end) {
			continue
		}
		b.Service = r.services[b.ServiceID]
		out = append(out, b)
	}
	sortByStart(out)
	return out, nil
}

func sortByStart(bookings []models.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].StartTime.Before(bookings[j].StartTime)
	})
}

// --------------------------------------------------
// Fully booked cache
// --------------------------------------------------

func (r *MemoryRepository) UpsertFullyBooked(_ context.Context, organizationID, serviceID uuid.UUID, date calendar.DateKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fullyBooked[fullyBookedKey{organizationID, serviceID, date}] = struct{}{}
	return nil
}

func (r *MemoryRepository) DeleteFullyBooked(_ context.Context, organizationID, serviceID uuid.UUID, date calendar.DateKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.fullyBooked, fullyBookedKey{organizationID, serviceID, date})
	return nil
}

func (r *MemoryRepository) ListFullyBooked(_ context.Context, organizationID, serviceID uuid.UUID, from, to calendar.DateKey) ([]calendar.DateKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []calendar.DateKey
	for key := range r.fullyBooked {
		if key.organizationID != organizationID || key.serviceID != serviceID {
			continue
		}
		if key.date.Before(from) || to.Before(key.date) {
			continue
		}
		out = append(out, key.date)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// --------------------------------------------------
// Settings
// --------------------------------------------------

func (r *MemoryRepository) UpsertWorkingHours(_ context.Context, hours []models.WorkingHours) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for _, wh := range hours {
		byDay, ok := r.hours[wh.OrganizationID]
		if !ok {
			byDay = make(map[calendar.DayOfWeek]models.WorkingHours)
			r.hours[wh.OrganizationID] = byDay
		}

		day := calendar.DayOfWeek(wh.DayOfWeek)
		if existing, ok := byDay[day]; ok {
			wh.ID = existing.ID
			wh.CreatedAt = existing.CreatedAt
		} else {
			if wh.ID == uuid.Nil {
				wh.ID = uuid.New()
			}
			wh.CreatedAt = now
		}
		wh.UpdatedAt = now
		byDay[day] = wh
	}
	return nil
}

func (r *MemoryRepository) ReplaceBreaks(_ context.Context, organizationID uuid.UUID, breaks []models.BreakTime) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	stored := make([]models.BreakTime, 0, len(breaks))
	for _, b := range breaks {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		b.OrganizationID = organizationID
		b.CreatedAt = now
		b.UpdatedAt = now
		stored = append(stored, b)
	}
	r.breaks[organizationID] = stored
	return nil
}

func (r *MemoryRepository) CreateUnavailableDay(_ context.Context, day *models.UnavailableDay) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := unavailableKey{day.OrganizationID, calendar.DateKeyOf(day.Date, time.UTC)}
	if _, exists := r.unavailable[key]; exists {
		return httperr.ErrConflict("already_unavailable")
	}

	if day.ID == uuid.Nil {
		day.ID = uuid.New()
	}
	day.CreatedAt = r.now()
	r.unavailable[key] = *day
	return nil
}

func (r *MemoryRepository) DeleteUnavailableDay(_ context.Context, organizationID, id uuid.UUID) (*models.UnavailableDay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, day := range r.unavailable {
		if day.ID == id && day.OrganizationID == organizationID {
			delete(r.unavailable, key)
			return &day, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

// --------------------------------------------------
// Templates
// --------------------------------------------------

func (r *MemoryRepository) GetTemplate(_ context.Context, organizationID uuid.UUID, kind string) (*models.WhatsAppTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[templateKey{organizationID, kind}]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &t, nil
}

func (r *MemoryRepository) ListTemplates(_ context.Context, organizationID uuid.UUID) ([]models.WhatsAppTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.WhatsAppTemplate
	for key, t := range r.templates {
		if key.organizationID == organizationID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (r *MemoryRepository) UpsertTemplate(_ context.Context, t *models.WhatsAppTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := templateKey{t.OrganizationID, t.Type}
	now := r.now()
	if existing, ok := r.templates[key]; ok {
		t.ID = existing.ID
		t.CreatedAt = existing.CreatedAt
	} else {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	r.templates[key] = *t
	return nil
}

func (r *MemoryRepository) DeleteTemplate(_ context.Context, organizationID uuid.UUID, kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.templates, templateKey{organizationID, kind})
	return nil
}

// --------------------------------------------------
// Audit
// --------------------------------------------------

func (r *MemoryRepository) CreateAuditLog(_ context.Context, entry *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.ID = uint(len(r.auditLogs) + 1)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}
	r.auditLogs = append(r.auditLogs, *entry)
	return nil
}

func (r *MemoryRepository) ListAuditLogs(_ context.Context, organizationID uuid.UUID, filter domain.AuditFilter) ([]models.AuditLog, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.AuditLog
	for i := len(r.auditLogs) - 1; i >= 0; i-- {
		entry := r.auditLogs[i]
		if entry.OrganizationID != organizationID {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.Entity != "" && entry.Entity != filter.Entity {
			continue
		}
		if filter.From != nil && entry.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !entry.CreatedAt.Before(*filter.To) {
			continue
		}
		matched = append(matched, entry)
	}

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

var _ domain.Repository = (*MemoryRepository)(nil)
