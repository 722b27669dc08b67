package booking

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/infra/repository"
	"github.com/BruksfildServices01/agenda-engine/internal/logging"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
)

// Saturday 2026-10-17, 09:00 in São Paulo.
var fixedNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

// Monday 2026-10-19 10:00 in São Paulo.
const mondayTen = "2026-10-19T13:00:00Z"

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Dispatch(ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

type fixture struct {
	repo    *repository.MemoryRepository
	pub     *recorder
	org     *models.Organization
	service *models.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := repository.NewMemoryRepository()
	org := &models.Organization{Name: "Studio", Slug: "studio", Timezone: "America/Sao_Paulo"}
	repo.AddOrganization(org)
	svc := &models.Service{OrganizationID: org.ID, Name: "Corte", DurationMinutes: 60, Active: true}
	repo.AddService(svc)

	require.NoError(t, repo.UpsertWorkingHours(context.Background(), []models.WorkingHours{
		{OrganizationID: org.ID, DayOfWeek: "MONDAY", IsWorking: true, StartTime: "09:00", EndTime: "17:00"},
	}))
	require.NoError(t, repo.ReplaceBreaks(context.Background(), org.ID, []models.BreakTime{
		{StartTime: "12:00", EndTime: "13:00"},
	}))

	return &fixture{repo: repo, pub: &recorder{}, org: org, service: svc}
}

func (f *fixture) create() *CreateBooking {
	uc := NewCreateBooking(f.repo, f.pub)
	uc.now = func() time.Time { return fixedNow }
	return uc
}

func (f *fixture) status() *UpdateBookingStatus {
	uc := NewUpdateBookingStatus(f.repo, f.pub)
	uc.now = func() time.Time { return fixedNow }
	return uc
}

func (f *fixture) input(start string) CreateBookingInput {
	return CreateBookingInput{
		OrganizationID: f.org.ID,
		ServiceID:      f.service.ID,
		Client: domain.ClientInfo{
			Name:  "  Ana Souza ",
			Phone: "+55 (11) 99999-8888",
			Email: "ana@example.com",
		},
		StartTime: start,
	}
}

// ======================================================
// Create
// ======================================================

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)

	b, err := f.create().Execute(context.Background(), f.input(mondayTen))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, b.ID)
	assert.Equal(t, "Ana Souza", b.ClientName)
	assert.Equal(t, "5511999998888", b.ClientPhone)
	assert.Equal(t, string(domain.StatusPending), b.Status)
	assert.Equal(t, time.Hour, b.EndTime.Sub(b.StartTime))
	assert.Equal(t, time.UTC, b.StartTime.Location())

	evs := f.pub.all()
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeBookingCreated, evs[0].Type)
	assert.Equal(t, "2026-10-19", evs[0].Date)
	assert.Equal(t, b.ID, evs[0].BookingID)
	assert.Equal(t, events.ActorClient, evs[0].Actor)
}

func TestCreateBooking_ValidationOrder(t *testing.T) {
	f := newFixture(t)
	uc := f.create()

	tests := []struct {
		name   string
		mutate func(in *CreateBookingInput)
		code   string
		kind   httperr.Kind
	}{
		{"short name", func(in *CreateBookingInput) { in.Client.Name = "A"; in.ServiceID = uuid.New() }, "invalid_client_name", httperr.KindValidation},
		{"bad phone", func(in *CreateBookingInput) { in.Client.Phone = "11999998888" }, "invalid_phone", httperr.KindValidation},
		{"bad email", func(in *CreateBookingInput) { in.Client.Email = "ana@" }, "invalid_email", httperr.KindValidation},
		{"unknown service before start parse", func(in *CreateBookingInput) { in.ServiceID = uuid.New(); in.StartTime = "garbage" }, "service_not_found", httperr.KindNotFound},
		{"bad start", func(in *CreateBookingInput) { in.StartTime = "2026-10-19 10:00" }, "invalid_start_time", httperr.KindValidation},
		{"past", func(in *CreateBookingInput) { in.StartTime = "2026-10-12T13:00:00Z" }, "date_in_past", httperr.KindPastDate},
		{"off grid", func(in *CreateBookingInput) { in.StartTime = "2026-10-19T13:30:00Z" }, "outside_working_hours", httperr.KindValidation},
		{"during break", func(in *CreateBookingInput) { in.StartTime = "2026-10-19T15:00:00Z" }, "outside_working_hours", httperr.KindValidation},
		{"closed day", func(in *CreateBookingInput) { in.StartTime = "2026-10-20T13:00:00Z" }, "outside_working_hours", httperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.input(mondayTen)
			tt.mutate(&in)

			_, err := uc.Execute(context.Background(), in)

			require.Error(t, err)
			assert.True(t, httperr.IsBusiness(err, tt.code), err.Error())
			assert.Equal(t, tt.kind, httperr.KindOf(err))
		})
	}

	assert.Empty(t, f.pub.all())
}

func TestCreateBooking_BlockedDay(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.repo.CreateUnavailableDay(context.Background(), &models.UnavailableDay{OrganizationID: f.org.ID, Date: day}))

	_, err := f.create().Execute(context.Background(), f.input(mondayTen))

	assert.True(t, httperr.IsBusiness(err, "outside_working_hours"))
}

func TestCreateBooking_OffsetInputIsNormalized(t *testing.T) {
	f := newFixture(t)

	b, err := f.create().Execute(context.Background(), f.input("2026-10-19T10:00:00-03:00"))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 10, 19, 13, 0, 0, 0, time.UTC), b.StartTime)
}

func TestCreateBooking_ConcurrentSameWindow(t *testing.T) {
	f := newFixture(t)
	uc := f.create()

	const n = 20
	var ok, conflicts int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Execute(context.Background(), f.input(mondayTen))
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case httperr.IsBusiness(err, "time_conflict"):
				atomic.AddInt32(&conflicts, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok)
	assert.EqualValues(t, n-1, conflicts)
	assert.Len(t, f.pub.all(), 1)
}

// ======================================================
// Status
// ======================================================

func TestUpdateBookingStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.create().Execute(ctx, f.input(mondayTen))
	require.NoError(t, err)

	updated, err := f.status().Execute(ctx, f.org.ID, b.ID, "CONFIRMED", events.ActorStaff)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", updated.Status)

	updated, err = f.status().Execute(ctx, f.org.ID, b.ID, "CANCELLED", events.ActorStaff)
	require.NoError(t, err)
	require.NotNil(t, updated.CancelledAt)
	assert.Equal(t, fixedNow, *updated.CancelledAt)

	_, err = f.status().Execute(ctx, f.org.ID, b.ID, "CONFIRMED", events.ActorStaff)
	assert.True(t, httperr.IsBusiness(err, "invalid_transition"))

	evs := f.pub.all()
	require.Len(t, evs, 3)
	last := evs[2]
	assert.Equal(t, events.TypeBookingStatusChanged, last.Type)
	assert.Equal(t, "CONFIRMED", last.PreviousStatus)
	assert.Equal(t, "CANCELLED", last.Status)
	assert.Equal(t, "2026-10-19", last.Date)

	// The interval is free again.
	_, err = f.create().Execute(ctx, f.input(mondayTen))
	assert.NoError(t, err)
}

func TestUpdateBookingStatus_Scoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.create().Execute(ctx, f.input(mondayTen))
	require.NoError(t, err)

	_, err = f.status().Execute(ctx, uuid.New(), b.ID, "CONFIRMED", events.ActorStaff)
	assert.True(t, httperr.IsBusiness(err, "booking_not_found"))

	_, err = f.status().Execute(ctx, f.org.ID, uuid.New(), "CONFIRMED", events.ActorStaff)
	assert.True(t, httperr.IsBusiness(err, "booking_not_found"))

	_, err = f.status().Execute(ctx, f.org.ID, b.ID, "DONE", events.ActorStaff)
	assert.True(t, httperr.IsBusiness(err, "invalid_status"))

	stored, err := f.repo.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", stored.Status)
}

func TestUpdateBookingStatus_ConcurrentTransitionsApplyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.create().Execute(ctx, f.input(mondayTen))
	require.NoError(t, err)

	const n = 20
	var (
		wg       sync.WaitGroup
		applied  int32
		rejected int32
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		next, actor := "CANCELLED", events.ActorWebhook
		if i%2 == 0 {
			next, actor = "COMPLETED", events.ActorStaff
		}
		go func() {
			defer wg.Done()
			_, err := f.status().Execute(ctx, f.org.ID, b.ID, next, actor)
			switch {
			case err == nil:
				atomic.AddInt32(&applied, 1)
			case httperr.IsBusiness(err, "invalid_transition"), httperr.IsBusiness(err, "booking_status_changed"):
				atomic.AddInt32(&rejected, 1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, applied)
	assert.EqualValues(t, n-1, rejected)

	var changes []events.Event
	for _, ev := range f.pub.all() {
		if ev.Type == events.TypeBookingStatusChanged {
			changes = append(changes, ev)
		}
	}
	require.Len(t, changes, 1)

	stored, err := f.repo.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, changes[0].Status, stored.Status)
}

// ======================================================
// Client reply
// ======================================================

func TestHandleClientReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.create().Execute(ctx, f.input(mondayTen))
	require.NoError(t, err)

	uc := NewHandleClientReply(f.repo, f.status(), logging.Nop())

	res, err := uc.Execute(ctx, "5511999998888", "bom dia")
	require.NoError(t, err)
	assert.False(t, res.Applied())
	assert.Equal(t, domain.ReplyUnknown, res.Reply)

	res, err = uc.Execute(ctx, "5511999998888", "Sim, confirmo!")
	require.NoError(t, err)
	require.True(t, res.Applied())
	assert.Equal(t, b.ID, res.Booking.ID)
	assert.Equal(t, "CONFIRMED", res.Booking.Status)

	evs := f.pub.all()
	assert.Equal(t, events.ActorWebhook, evs[len(evs)-1].Actor)

	// No pending booking left for this phone.
	res, err = uc.Execute(ctx, "5511999998888", "cancelar")
	require.NoError(t, err)
	assert.False(t, res.Applied())
	assert.Equal(t, domain.ReplyCancel, res.Reply)
}

// ======================================================
// List
// ======================================================

func TestListBookingsByDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.create().Execute(ctx, f.input("2026-10-19T14:00:00Z"))
	require.NoError(t, err)
	_, err = f.create().Execute(ctx, f.input(mondayTen))
	require.NoError(t, err)
	_, err = f.status().Execute(ctx, f.org.ID, first.ID, "CANCELLED", events.ActorStaff)
	require.NoError(t, err)

	uc := NewListBookingsByDate(f.repo)

	out, err := uc.Execute(ctx, f.org.ID, "2026-10-19")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "PENDING", out[0].Status)
	assert.Equal(t, "CANCELLED", out[1].Status)
	assert.Equal(t, "Corte", out[0].ServiceName)

	out, err = uc.Execute(ctx, f.org.ID, "2026-10-20")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = uc.Execute(ctx, f.org.ID, "20/10/2026")
	assert.True(t, httperr.IsBusiness(err, "invalid_date"))
}
