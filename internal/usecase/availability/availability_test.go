package availability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/agenda-engine/internal/calendar"
	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/infra/repository"
	"github.com/BruksfildServices01/agenda-engine/internal/logging"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
)

// Saturday 2026-10-17, 09:00 in São Paulo.
var fixedNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

var (
	monday  = calendar.NewDateKey(2026, 10, 19)
	tuesday = calendar.NewDateKey(2026, 10, 20)
	sunday  = calendar.NewDateKey(2026, 10, 25)
)

type fixture struct {
	repo    *repository.MemoryRepository
	org     *models.Organization
	service *models.Service
	loc     *time.Location
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	repo := repository.NewMemoryRepository()
	org := &models.Organization{Name: "Studio", Slug: "studio", Timezone: "America/Sao_Paulo"}
	repo.AddOrganization(org)

	svc := &models.Service{OrganizationID: org.ID, Name: "Corte", DurationMinutes: 60, Active: true}
	repo.AddService(svc)

	require.NoError(t, repo.UpsertWorkingHours(context.Background(), []models.WorkingHours{
		{OrganizationID: org.ID, DayOfWeek: "MONDAY", IsWorking: true, StartTime: "09:00", EndTime: "17:00"},
		{OrganizationID: org.ID, DayOfWeek: "TUESDAY", IsWorking: true, StartTime: "09:00", EndTime: "17:00"},
		{OrganizationID: org.ID, DayOfWeek: "SUNDAY", IsWorking: false, StartTime: "09:00", EndTime: "17:00"},
	}))

	return &fixture{repo: repo, org: org, service: svc, loc: loc}
}

func (f *fixture) book(t *testing.T, day calendar.DateKey, minute int, status domain.Status) *models.Booking {
	t.Helper()

	start := calendar.InstantAt(day, minute, f.loc)
	b := &models.Booking{
		OrganizationID: f.org.ID,
		ServiceID:      f.service.ID,
		ClientName:     "Ana",
		ClientPhone:    "5511999998888",
		StartTime:      start.UTC(),
		EndTime:        start.Add(time.Duration(f.service.DurationMinutes) * time.Minute).UTC(),
		Status:         string(status),
	}
	require.NoError(t, f.repo.CreateBookingAtomic(context.Background(), b))
	return b
}

func (f *fixture) fillDay(t *testing.T, day calendar.DateKey) []*models.Booking {
	t.Helper()

	var out []*models.Booking
	for m := 9 * 60; m < 17*60; m += 60 {
		out = append(out, f.book(t, day, m, domain.StatusConfirmed))
	}
	return out
}

func (f *fixture) reconciler() *Reconciler {
	r := NewReconciler(f.repo, logging.Nop(), 10)
	r.now = func() time.Time { return fixedNow }
	return r
}

func (f *fixture) fullyBooked(t *testing.T) []string {
	t.Helper()
	return f.fullyBookedFor(t, f.service.ID)
}

func (f *fixture) fullyBookedFor(t *testing.T, serviceID uuid.UUID) []string {
	t.Helper()

	keys, err := f.repo.ListFullyBooked(context.Background(), f.org.ID, serviceID,
		calendar.NewDateKey(2026, 1, 1), calendar.NewDateKey(2026, 12, 31))
	require.NoError(t, err)

	out := []string{}
	for _, k := range keys {
		out = append(out, k.String())
	}
	return out
}

// ======================================================
// Day slots
// ======================================================

func TestGetSlotsForDay_ExcludesActiveBookings(t *testing.T) {
	f := newFixture(t)
	f.book(t, monday, 10*60, domain.StatusConfirmed)
	f.book(t, monday, 14*60, domain.StatusPending)

	out, err := NewGetSlotsForDay(f.repo).Execute(context.Background(), f.org.ID, f.service.ID, "2026-10-19")
	require.NoError(t, err)

	assert.Equal(t, 60, out.DurationMinutes)
	assert.Equal(t, "2026-10-19", out.Date.String())
	require.Len(t, out.Slots, 6)
	assert.Equal(t, time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC), out.Slots[0])
	assert.NotContains(t, out.Slots, time.Date(2026, 10, 19, 13, 0, 0, 0, time.UTC))
	assert.NotContains(t, out.Slots, time.Date(2026, 10, 19, 17, 0, 0, 0, time.UTC))
	for _, s := range out.Slots {
		assert.Equal(t, time.UTC, s.Location())
	}
}

func TestGetSlotsForDay_IgnoresFreedBookings(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, monday, 10*60, domain.StatusConfirmed)

	stored, err := f.repo.GetBooking(context.Background(), b.ID)
	require.NoError(t, err)
	require.NoError(t, domain.Transition(stored, domain.StatusCancelled, fixedNow))
	require.NoError(t, f.repo.UpdateBookingStatus(context.Background(), stored, domain.StatusConfirmed))

	out, err := NewGetSlotsForDay(f.repo).Execute(context.Background(), f.org.ID, f.service.ID, "2026-10-19")
	require.NoError(t, err)
	assert.Len(t, out.Slots, 8)
}

func TestGetSlotsForDay_BreaksAndClosedDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.ReplaceBreaks(ctx, f.org.ID, []models.BreakTime{{StartTime: "12:00", EndTime: "13:00"}}))
	require.NoError(t, f.repo.CreateUnavailableDay(ctx, &models.UnavailableDay{OrganizationID: f.org.ID, Date: tuesday.Time()}))

	uc := NewGetSlotsForDay(f.repo)

	out, err := uc.Execute(ctx, f.org.ID, f.service.ID, "2026-10-19")
	require.NoError(t, err)
	assert.Len(t, out.Slots, 7)

	out, err = uc.Execute(ctx, f.org.ID, f.service.ID, "2026-10-20")
	require.NoError(t, err)
	assert.Empty(t, out.Slots)

	out, err = uc.Execute(ctx, f.org.ID, f.service.ID, "2026-10-25")
	require.NoError(t, err)
	assert.Empty(t, out.Slots)
	assert.NotNil(t, out.Slots)
}

func TestGetSlotsForDay_Rejections(t *testing.T) {
	f := newFixture(t)

	other := &models.Organization{Name: "Other", Slug: "other"}
	f.repo.AddOrganization(other)
	foreign := &models.Service{OrganizationID: other.ID, Name: "Foreign", DurationMinutes: 30, Active: true}
	f.repo.AddService(foreign)
	inactive := &models.Service{OrganizationID: f.org.ID, Name: "Old", DurationMinutes: 30, Active: false}
	f.repo.AddService(inactive)
	tooLong := &models.Service{OrganizationID: f.org.ID, Name: "Marathon", DurationMinutes: 600, Active: true}
	f.repo.AddService(tooLong)

	uc := NewGetSlotsForDay(f.repo)
	ctx := context.Background()

	tests := []struct {
		name      string
		orgID     uuid.UUID
		serviceID uuid.UUID
		date      string
		code      string
	}{
		{"bad date", f.org.ID, f.service.ID, "19/10/2026", "invalid_date"},
		{"unknown org", uuid.New(), f.service.ID, "2026-10-19", "organization_not_found"},
		{"unknown service", f.org.ID, uuid.New(), "2026-10-19", "service_not_found"},
		{"foreign service", f.org.ID, foreign.ID, "2026-10-19", "service_not_found"},
		{"inactive service", f.org.ID, inactive.ID, "2026-10-19", "service_not_found"},
		{"duration out of range", f.org.ID, tooLong.ID, "2026-10-19", "invalid_duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(ctx, tt.orgID, tt.serviceID, tt.date)
			require.Error(t, err)
			assert.True(t, httperr.IsBusiness(err, tt.code), err.Error())
		})
	}
}

// ======================================================
// Reconciliation
// ======================================================

func TestReconcile_CancellationFreesFullDay(t *testing.T) {
	f := newFixture(t)
	r := f.reconciler()
	ctx := context.Background()

	bookings := f.fillDay(t, monday)

	require.NoError(t, r.Reconcile(ctx, f.org.ID, f.service.ID, monday))
	require.NoError(t, r.Reconcile(ctx, f.org.ID, f.service.ID, monday))
	assert.Equal(t, []string{"2026-10-19"}, f.fullyBooked(t))

	stored, err := f.repo.GetBooking(ctx, bookings[1].ID)
	require.NoError(t, err)
	require.NoError(t, domain.Transition(stored, domain.StatusCancelled, fixedNow))
	require.NoError(t, f.repo.UpdateBookingStatus(ctx, stored, domain.StatusConfirmed))

	require.NoError(t, r.Reconcile(ctx, f.org.ID, f.service.ID, monday))
	assert.Empty(t, f.fullyBooked(t))

	out, err := NewGetSlotsForDay(f.repo).Execute(ctx, f.org.ID, f.service.ID, "2026-10-19")
	require.NoError(t, err)
	assert.Equal(t, []time.Time{time.Date(2026, 10, 19, 13, 0, 0, 0, time.UTC)}, out.Slots)
}

func TestReconcile_ClosedDaysClearRows(t *testing.T) {
	f := newFixture(t)
	r := f.reconciler()
	ctx := context.Background()

	require.NoError(t, f.repo.UpsertFullyBooked(ctx, f.org.ID, f.service.ID, sunday))
	require.NoError(t, f.repo.UpsertFullyBooked(ctx, f.org.ID, f.service.ID, tuesday))
	require.NoError(t, f.repo.CreateUnavailableDay(ctx, &models.UnavailableDay{OrganizationID: f.org.ID, Date: tuesday.Time()}))

	require.NoError(t, r.Reconcile(ctx, f.org.ID, f.service.ID, sunday))
	require.NoError(t, r.Reconcile(ctx, f.org.ID, f.service.ID, tuesday))

	assert.Empty(t, f.fullyBooked(t))
}

func TestReconcile_DayWithoutCandidatesIsFull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.UpsertWorkingHours(ctx, []models.WorkingHours{
		{OrganizationID: f.org.ID, DayOfWeek: "TUESDAY", IsWorking: true, StartTime: "09:00", EndTime: "09:30"},
	}))

	require.NoError(t, f.reconciler().Reconcile(ctx, f.org.ID, f.service.ID, tuesday))

	assert.Equal(t, []string{"2026-10-20"}, f.fullyBooked(t))
}

func TestReconcile_UnknownServiceIsNoop(t *testing.T) {
	f := newFixture(t)

	err := f.reconciler().Reconcile(context.Background(), f.org.ID, uuid.New(), monday)

	assert.NoError(t, err)
}

func TestReconcile_InactiveServiceClearsRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fillDay(t, monday)
	require.NoError(t, f.repo.UpsertFullyBooked(ctx, f.org.ID, f.service.ID, monday))

	f.service.Active = false
	f.repo.AddService(f.service)

	require.NoError(t, f.reconciler().Reconcile(ctx, f.org.ID, f.service.ID, monday))
	assert.Empty(t, f.fullyBooked(t))
}

func TestReconcile_InvalidDurationIsPermanent(t *testing.T) {
	f := newFixture(t)
	broken := &models.Service{OrganizationID: f.org.ID, Name: "Relâmpago", DurationMinutes: 3, Active: true}
	f.repo.AddService(broken)

	err := f.reconciler().Handle(context.Background(), events.Event{
		Type:           events.TypeBookingCreated,
		OrganizationID: f.org.ID,
		ServiceID:      broken.ID,
		Date:           monday.String(),
	})
	require.Error(t, err)
	assert.True(t, events.IsPermanent(err), err.Error())
}

func TestReconcile_TransientFailuresStayRetryable(t *testing.T) {
	f := newFixture(t)
	r := NewReconciler(failingBookings{f.repo}, logging.Nop(), 10)
	r.now = func() time.Time { return fixedNow }

	err := r.ReconcileDay(context.Background(), f.org.ID, monday)
	require.Error(t, err)
	assert.False(t, events.IsPermanent(err))
}

func TestReconcile_ConcurrentRunsConverge(t *testing.T) {
	f := newFixture(t)
	r := f.reconciler()
	f.fillDay(t, monday)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Reconcile(context.Background(), f.org.ID, f.service.ID, monday))
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"2026-10-19"}, f.fullyBooked(t))
}

type failingBookings struct {
	*repository.MemoryRepository
}

func (failingBookings) ListActiveBookings(context.Context, uuid.UUID, time.Time, time.Time) ([]models.Booking, error) {
	return nil, errors.New("connection reset")
}

func TestReconcileSafe_SwallowsFailures(t *testing.T) {
	f := newFixture(t)
	r := NewReconciler(failingBookings{f.repo}, logging.Nop(), 10)

	err := r.Reconcile(context.Background(), f.org.ID, f.service.ID, monday)
	var rerr *ReconcileError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, monday, rerr.Date)
	assert.Contains(t, err.Error(), "connection reset")

	assert.False(t, r.ReconcileSafe(context.Background(), f.org.ID, f.service.ID, monday))
	assert.True(t, r.ReconcileSafe(context.Background(), f.org.ID, f.service.ID, sunday))
}

func TestReconcileHorizon(t *testing.T) {
	f := newFixture(t)
	r := f.reconciler()
	ctx := context.Background()

	f.fillDay(t, monday)
	stale := calendar.NewDateKey(2026, 10, 21)
	require.NoError(t, f.repo.UpsertFullyBooked(ctx, f.org.ID, f.service.ID, stale))

	require.NoError(t, r.ReconcileHorizon(ctx, f.org.ID))

	assert.Equal(t, []string{"2026-10-19"}, f.fullyBooked(t))
	assert.NoError(t, r.ReconcileHorizon(ctx, uuid.New()))
}

func TestHandle_RoutesEvents(t *testing.T) {
	f := newFixture(t)
	r := f.reconciler()
	ctx := context.Background()

	// A stale row on a day that still has room.
	require.NoError(t, f.repo.UpsertFullyBooked(ctx, f.org.ID, f.service.ID, monday))

	confirmed := events.Event{
		Type:           events.TypeBookingStatusChanged,
		OrganizationID: f.org.ID,
		ServiceID:      f.service.ID,
		Date:           monday.String(),
		Status:         string(domain.StatusConfirmed),
	}
	require.NoError(t, r.Handle(ctx, confirmed))
	assert.Equal(t, []string{"2026-10-19"}, f.fullyBooked(t))

	cancelled := confirmed
	cancelled.Status = string(domain.StatusCancelled)
	require.NoError(t, r.Handle(ctx, cancelled))
	assert.Empty(t, f.fullyBooked(t))

	f.fillDay(t, tuesday)
	require.NoError(t, r.Handle(ctx, events.Event{
		Type:           events.TypeBookingCreated,
		OrganizationID: f.org.ID,
		ServiceID:      f.service.ID,
		Date:           tuesday.String(),
	}))
	assert.Equal(t, []string{"2026-10-20"}, f.fullyBooked(t))

	f.fillDay(t, monday)
	require.NoError(t, r.Handle(ctx, events.Event{Type: events.TypeScheduleChanged, OrganizationID: f.org.ID}))
	assert.Equal(t, []string{"2026-10-19", "2026-10-20"}, f.fullyBooked(t))
}

func TestHandle_BookingsOfOneServiceFillTheOthers(t *testing.T) {
	f := newFixture(t)
	r := f.reconciler()
	ctx := context.Background()

	other := &models.Service{OrganizationID: f.org.ID, Name: "Barba", DurationMinutes: 60, Active: true}
	f.repo.AddService(other)

	bookings := f.fillDay(t, monday)
	for _, b := range bookings {
		require.NoError(t, r.Handle(ctx, events.Event{
			Type:           events.TypeBookingCreated,
			OrganizationID: f.org.ID,
			ServiceID:      f.service.ID,
			BookingID:      b.ID,
			Date:           monday.String(),
		}))
	}

	slots, err := NewGetSlotsForDay(f.repo).Execute(ctx, f.org.ID, other.ID, "2026-10-19")
	require.NoError(t, err)
	assert.Empty(t, slots.Slots)
	assert.Equal(t, []string{"2026-10-19"}, f.fullyBookedFor(t, other.ID))

	month := NewAvailableDays(f.repo)
	month.now = func() time.Time { return fixedNow }
	days, err := month.Execute(ctx, f.org.ID, other.ID, 2026, 10)
	require.NoError(t, err)
	var got []string
	for _, d := range days {
		got = append(got, d.String())
	}
	assert.NotContains(t, got, "2026-10-19")
	assert.Contains(t, got, "2026-10-20")

	stored, err := f.repo.GetBooking(ctx, bookings[3].ID)
	require.NoError(t, err)
	require.NoError(t, domain.Transition(stored, domain.StatusCancelled, fixedNow))
	require.NoError(t, f.repo.UpdateBookingStatus(ctx, stored, domain.StatusConfirmed))
	require.NoError(t, r.Handle(ctx, events.Event{
		Type:           events.TypeBookingStatusChanged,
		OrganizationID: f.org.ID,
		ServiceID:      f.service.ID,
		BookingID:      stored.ID,
		Date:           monday.String(),
		Status:         string(domain.StatusCancelled),
		PreviousStatus: string(domain.StatusConfirmed),
	}))

	assert.Empty(t, f.fullyBookedFor(t, other.ID))
	assert.Empty(t, f.fullyBooked(t))
}

// ======================================================
// Month
// ======================================================

func TestAvailableDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repo.CreateUnavailableDay(ctx, &models.UnavailableDay{OrganizationID: f.org.ID, Date: monday.Time()}))
	full := calendar.NewDateKey(2026, 10, 26)
	f.fillDay(t, full)
	require.NoError(t, f.reconciler().Reconcile(ctx, f.org.ID, f.service.ID, full))

	uc := NewAvailableDays(f.repo)
	uc.now = func() time.Time { return fixedNow }

	days, err := uc.Execute(ctx, f.org.ID, f.service.ID, 2026, 10)
	require.NoError(t, err)

	var got []string
	for _, d := range days {
		got = append(got, d.String())
	}
	assert.Equal(t, []string{"2026-10-20", "2026-10-27"}, got)

	slots := NewGetSlotsForDay(f.repo)
	for _, d := range days {
		out, err := slots.Execute(ctx, f.org.ID, f.service.ID, d.String())
		require.NoError(t, err)
		assert.NotEmpty(t, out.Slots, d.String())
	}
}

func TestAvailableDays_ServiceLongerThanAnyWindow(t *testing.T) {
	f := newFixture(t)
	long := &models.Service{OrganizationID: f.org.ID, Name: "Longo", DurationMinutes: 480, Active: true}
	f.repo.AddService(long)
	require.NoError(t, f.repo.ReplaceBreaks(context.Background(), f.org.ID, []models.BreakTime{{StartTime: "12:00", EndTime: "13:00"}}))

	uc := NewAvailableDays(f.repo)
	uc.now = func() time.Time { return fixedNow }

	days, err := uc.Execute(context.Background(), f.org.ID, long.ID, 2026, 11)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestAvailableDays_Validation(t *testing.T) {
	f := newFixture(t)
	uc := NewAvailableDays(f.repo)

	_, err := uc.Execute(context.Background(), f.org.ID, f.service.ID, 2026, 13)
	assert.True(t, httperr.IsBusiness(err, "invalid_month"))

	_, err = uc.Execute(context.Background(), f.org.ID, f.service.ID, 1999, 1)
	assert.True(t, httperr.IsBusiness(err, "invalid_year"))

	_, err = uc.Execute(context.Background(), uuid.New(), f.service.ID, 2026, 10)
	assert.True(t, httperr.IsBusiness(err, "organization_not_found"))
}

// ======================================================
// Sweep
// ======================================================

func TestSweeperRun(t *testing.T) {
	f := newFixture(t)
	f.repo.AddOrganization(&models.Organization{Name: "Second", Slug: "second"})

	var mu sync.Mutex
	var got []events.Event
	pub := events.PublisherFunc(func(ev events.Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev)
	})

	s := NewSweeper(f.repo, pub, logging.Nop())
	n, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	require.Len(t, got, 2)
	for _, ev := range got {
		assert.Equal(t, events.TypeCacheSweep, ev.Type)
		assert.Equal(t, events.ActorSystem, ev.Actor)
	}

	assert.Error(t, s.Start("not a schedule"))
	require.NoError(t, s.Start("0 3 * * *"))
	s.Stop()
}
