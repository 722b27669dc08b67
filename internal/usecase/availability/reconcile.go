package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/agenda-engine/internal/calendar"
	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/metrics"
	"github.com/BruksfildServices01/agenda-engine/internal/timezone"
)

const subscriberName = "reconcile"

// DefaultHorizonDays bounds schedule-wide reconciliation.
const DefaultHorizonDays = 60

type ReconcileRepository interface {
	Reader
	BookingReader
	domain.FullyBookedStore
}

// ReconcileError reports a failed cache refresh. It never reaches the
// caller of the booking mutation that triggered it.
type ReconcileError struct {
	OrganizationID uuid.UUID
	ServiceID      uuid.UUID
	Date           calendar.DateKey
	Err            error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("reconcile %s/%s on %s: %v", e.OrganizationID, e.ServiceID, e.Date, e.Err)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// Reconciler keeps FullyBookedDay rows in line with bookings and schedule.
type Reconciler struct {
	repo        ReconcileRepository
	log         *zerolog.Logger
	horizonDays int
	now         func() time.Time
}

func NewReconciler(repo ReconcileRepository, log *zerolog.Logger, horizonDays int) *Reconciler {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &Reconciler{
		repo:        repo,
		log:         log,
		horizonDays: horizonDays,
		now:         time.Now,
	}
}

// ======================================================
// Single day
// ======================================================

// Reconcile recomputes whether the service has any open slot on day and
// upserts or deletes the cache row accordingly. Running it twice gives the
// same result. A day without any candidate slot counts as fully booked.
func (r *Reconciler) Reconcile(ctx context.Context, organizationID, serviceID uuid.UUID, day calendar.DateKey) error {
	wrap := func(err error) error {
		return &ReconcileError{OrganizationID: organizationID, ServiceID: serviceID, Date: day, Err: err}
	}

	target, err := ResolveTarget(ctx, r.repo, organizationID, serviceID)
	if httperr.KindOf(err) == httperr.KindNotFound {
		// Missing or inactive services offer nothing, so no row may remain.
		if err := r.repo.DeleteFullyBooked(ctx, organizationID, serviceID, day); err != nil {
			return wrap(fmt.Errorf("delete fully booked: %w", err))
		}
		metrics.IncReconcile(metrics.ReconcileCleared)
		return nil
	}
	if err != nil {
		return wrap(err)
	}

	sched, err := LoadDaySchedule(ctx, r.repo, target, day)
	if err != nil {
		return wrap(err)
	}

	full := false
	if sched.Open() {
		if len(sched.Candidates) == 0 {
			full = true
		} else {
			free, err := openSlots(ctx, r.repo, target, sched)
			if err != nil {
				return wrap(err)
			}
			full = len(free) == 0
		}
	}

	if full {
		if err := r.repo.UpsertFullyBooked(ctx, organizationID, serviceID, day); err != nil {
			return wrap(fmt.Errorf("upsert fully booked: %w", err))
		}
		metrics.IncReconcile(metrics.ReconcileMarked)
		return nil
	}

	if err := r.repo.DeleteFullyBooked(ctx, organizationID, serviceID, day); err != nil {
		return wrap(fmt.Errorf("delete fully booked: %w", err))
	}
	metrics.IncReconcile(metrics.ReconcileCleared)
	return nil
}

// ReconcileSafe runs Reconcile and swallows any failure after logging it.
// It reports whether the refresh succeeded.
func (r *Reconciler) ReconcileSafe(ctx context.Context, organizationID, serviceID uuid.UUID, day calendar.DateKey) bool {
	return r.reconcileLogged(ctx, organizationID, serviceID, day) == nil
}

func (r *Reconciler) reconcileLogged(ctx context.Context, organizationID, serviceID uuid.UUID, day calendar.DateKey) error {
	err := r.Reconcile(ctx, organizationID, serviceID, day)
	if err == nil {
		return nil
	}

	metrics.IncReconcile(metrics.ReconcileFailed)
	r.log.Warn().
		Err(err).
		Str("organization_id", organizationID.String()).
		Str("service_id", serviceID.String()).
		Str("date", day.String()).
		Msg("fully booked cache reconciliation failed")
	return err
}

// batch counts the failures of a multi-service run. Only failures a retry
// might fix make the batch retryable.
type batch struct {
	failed    int
	transient bool
}

func (b *batch) record(err error) {
	if err == nil {
		return
	}
	b.failed++
	if httperr.KindOf(err) != httperr.KindValidation {
		b.transient = true
	}
}

func (b batch) err(format string, args ...any) error {
	if b.failed == 0 {
		return nil
	}
	err := fmt.Errorf(format+": %d reconciliation(s) failed", append(args, b.failed)...)
	if !b.transient {
		return events.Permanent(err)
	}
	return err
}

// ======================================================
// Organization day
// ======================================================

// ReconcileDay refreshes every active service of the organization on day.
// Bookings of any service consume the same capacity, so one booking can
// fill or free the day for all of them. extra services are refreshed as
// well, which clears the rows of services that are no longer active.
func (r *Reconciler) ReconcileDay(ctx context.Context, organizationID uuid.UUID, day calendar.DateKey, extra ...uuid.UUID) error {
	services, err := r.repo.ListActiveServices(ctx, organizationID)
	if err != nil {
		return fmt.Errorf("load services: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(services)+len(extra))
	seen := make(map[uuid.UUID]bool, len(services)+len(extra))
	for _, svc := range services {
		seen[svc.ID] = true
		ids = append(ids, svc.ID)
	}
	for _, id := range extra {
		if id != uuid.Nil && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	var b batch
	for _, id := range ids {
		b.record(r.reconcileLogged(ctx, organizationID, id, day))
	}
	return b.err("reconcile %s on %s", organizationID, day)
}

// ======================================================
// Horizon
// ======================================================

// ReconcileHorizon refreshes every active service of the organization from
// today (organization timezone) through the configured horizon.
func (r *Reconciler) ReconcileHorizon(ctx context.Context, organizationID uuid.UUID) error {
	org, err := r.repo.GetOrganizationByID(ctx, organizationID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load organization: %w", err)
	}

	services, err := r.repo.ListActiveServices(ctx, org.ID)
	if err != nil {
		return fmt.Errorf("load services: %w", err)
	}

	today := calendar.Today(timezone.Location(org.Timezone), r.now())

	var b batch
	for i := 0; i < r.horizonDays; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		day := today.AddDays(i)
		for _, svc := range services {
			b.record(r.reconcileLogged(ctx, org.ID, svc.ID, day))
		}
	}
	return b.err("reconcile horizon of %s", org.ID)
}

// ======================================================
// Event wiring
// ======================================================

func (r *Reconciler) Subscribe(d *events.Dispatcher) {
	d.Subscribe(events.TypeBookingCreated, subscriberName, r.Handle)
	d.Subscribe(events.TypeBookingStatusChanged, subscriberName, r.Handle)
	d.Subscribe(events.TypeScheduleChanged, subscriberName, r.Handle)
	d.Subscribe(events.TypeServiceChanged, subscriberName, r.Handle)
	d.Subscribe(events.TypeCacheSweep, subscriberName, r.Handle)
}

// Handle maps an event to the reconciliation it requires. Errors are
// returned so the dispatcher retries them; validation failures are marked
// permanent.
func (r *Reconciler) Handle(ctx context.Context, ev events.Event) error {
	switch ev.Type {
	case events.TypeBookingStatusChanged:
		if !domain.Status(ev.Status).FreesCapacity() {
			return nil
		}
		fallthrough
	case events.TypeBookingCreated:
		day, ok := ev.DateKey()
		if !ok {
			return nil
		}
		return r.ReconcileDay(ctx, ev.OrganizationID, day, ev.ServiceID)

	case events.TypeScheduleChanged, events.TypeServiceChanged, events.TypeCacheSweep:
		return r.ReconcileHorizon(ctx, ev.OrganizationID)
	}
	return nil
}
