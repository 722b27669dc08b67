package repository

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BruksfildServices01/agenda-engine/internal/calendar"
	dbpkg "github.com/BruksfildServices01/agenda-engine/internal/db"
	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
)

// openTestDB connects to TEST_DATABASE_URL or skips.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, dbpkg.Migrate(db))
	return db
}

func seedOrganization(t *testing.T, db *gorm.DB) (models.Organization, models.Service) {
	t.Helper()

	org := models.Organization{Name: "Test Org", Slug: "org-" + uuid.NewString()[:8], Timezone: "America/Sao_Paulo"}
	require.NoError(t, db.Create(&org).Error)

	svc := models.Service{OrganizationID: org.ID, Name: "Corte", DurationMinutes: 60, Active: true}
	require.NoError(t, db.Create(&svc).Error)

	t.Cleanup(func() {
		db.Where("organization_id = ?", org.ID).Delete(&models.Booking{})
		db.Where("organization_id = ?", org.ID).Delete(&models.FullyBookedDay{})
		db.Where("organization_id = ?", org.ID).Delete(&models.UnavailableDay{})
		db.Where("organization_id = ?", org.ID).Delete(&models.WhatsAppTemplate{})
		db.Where("organization_id = ?", org.ID).Delete(&models.Service{})
		db.Delete(&org)
	})
	return org, svc
}

func TestGormCreateBookingAtomic_ConcurrentExactlyOne(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormRepository(db)
	org, svc := seedOrganization(t, db)
	start := time.Date(2030, 1, 7, 13, 0, 0, 0, time.UTC)

	const workers = 8
	var (
		wg        sync.WaitGroup
		successes int32
		conflicts int32
	)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			b := newBooking(org.ID, start, time.Hour)
			b.ServiceID = svc.ID
			err := repo.CreateBookingAtomic(context.Background(), b)
			switch {
			case err == nil:
				atomic.AddInt32(&successes, 1)
			case httperr.IsBusiness(err, "time_conflict"):
				atomic.AddInt32(&conflicts, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes)
	assert.Equal(t, int32(workers-1), conflicts)
}

func TestGormExclusionConstraintBacksInsert(t *testing.T) {
	db := openTestDB(t)
	org, svc := seedOrganization(t, db)
	start := time.Date(2030, 1, 8, 13, 0, 0, 0, time.UTC)

	first := newBooking(org.ID, start, time.Hour)
	first.ServiceID = svc.ID
	require.NoError(t, db.Omit(clause.Associations).Create(first).Error)

	second := newBooking(org.ID, start.Add(30*time.Minute), time.Hour)
	second.ServiceID = svc.ID
	err := db.Omit(clause.Associations).Create(second).Error

	require.Error(t, err)
	assert.True(t, isExclusionViolation(err))
}

func TestGormFullyBookedUpsertIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormRepository(db)
	org, svc := seedOrganization(t, db)
	ctx := context.Background()
	day := calendar.NewDateKey(2030, 1, 7)

	require.NoError(t, repo.UpsertFullyBooked(ctx, org.ID, svc.ID, day))
	require.NoError(t, repo.UpsertFullyBooked(ctx, org.ID, svc.ID, day))

	keys, err := repo.ListFullyBooked(ctx, org.ID, svc.ID, calendar.NewDateKey(2030, 1, 1), calendar.NewDateKey(2030, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, []calendar.DateKey{day}, keys)

	require.NoError(t, repo.DeleteFullyBooked(ctx, org.ID, svc.ID, day))
	keys, err = repo.ListFullyBooked(ctx, org.ID, svc.ID, calendar.NewDateKey(2030, 1, 1), calendar.NewDateKey(2030, 1, 31))
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestGormUnavailableDayDuplicate(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormRepository(db)
	org, _ := seedOrganization(t, db)
	ctx := context.Background()
	day := calendar.NewDateKey(2030, 1, 9)

	require.NoError(t, repo.CreateUnavailableDay(ctx, &models.UnavailableDay{OrganizationID: org.ID, Date: day.Time()}))
	err := repo.CreateUnavailableDay(ctx, &models.UnavailableDay{OrganizationID: org.ID, Date: day.Time()})
	assert.True(t, httperr.IsBusiness(err, "already_unavailable"))

	blocked, err := repo.IsUnavailable(ctx, org.ID, day)
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestGormUpdateBookingStatus_GuardsPreviousStatus(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormRepository(db)
	ctx := context.Background()
	org, svc := seedOrganization(t, db)
	start := time.Date(2030, 1, 10, 13, 0, 0, 0, time.UTC)

	b := newBooking(org.ID, start, time.Hour)
	b.ServiceID = svc.ID
	require.NoError(t, repo.CreateBookingAtomic(ctx, b))

	staff, err := repo.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	client, err := repo.GetBooking(ctx, b.ID)
	require.NoError(t, err)

	require.NoError(t, repo.MarkNotificationSent(ctx, b.ID))

	require.NoError(t, domain.Transition(staff, domain.StatusCompleted, start))
	require.NoError(t, repo.UpdateBookingStatus(ctx, staff, domain.StatusPending))

	require.NoError(t, domain.Transition(client, domain.StatusCancelled, start))
	err = repo.UpdateBookingStatus(ctx, client, domain.StatusPending)
	assert.True(t, httperr.IsBusiness(err, "booking_status_changed"))

	stored, err := repo.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), stored.Status)
	assert.True(t, stored.NotificationSent)
	assert.Nil(t, stored.CancelledAt)
}

func TestGormDeleteService_GuardsBookings(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormRepository(db)
	ctx := context.Background()
	org, svc := seedOrganization(t, db)

	start := time.Date(2030, 1, 7, 13, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateBookingAtomic(ctx, &models.Booking{
		OrganizationID: org.ID,
		ServiceID:      svc.ID,
		ClientName:     "Ana",
		ClientPhone:    "5511987654321",
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
		Status:         string(domain.StatusPending),
	}))

	err := repo.DeleteService(ctx, org.ID, svc.ID)
	assert.True(t, httperr.IsBusiness(err, "service_has_bookings"))

	spare := models.Service{OrganizationID: org.ID, Name: "Barba", DurationMinutes: 30, Active: true}
	require.NoError(t, repo.CreateService(ctx, &spare))
	require.NoError(t, repo.UpsertFullyBooked(ctx, org.ID, spare.ID, calendar.NewDateKey(2030, 1, 7)))

	spare.Active = false
	require.NoError(t, repo.UpdateService(ctx, &spare))
	stored, err := repo.GetService(ctx, spare.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)

	require.NoError(t, repo.DeleteService(ctx, org.ID, spare.ID))
	var rows int64
	require.NoError(t, db.Model(&models.FullyBookedDay{}).Where("service_id = ?", spare.ID).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestGormUpsertTemplateKeepsOneRow(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormRepository(db)
	ctx := context.Background()
	org, _ := seedOrganization(t, db)

	require.NoError(t, repo.UpsertTemplate(ctx, &models.WhatsAppTemplate{OrganizationID: org.ID, Type: "REMINDER", Content: "Lembrete {{nome}}"}))
	require.NoError(t, repo.UpsertTemplate(ctx, &models.WhatsAppTemplate{OrganizationID: org.ID, Type: "REMINDER", Content: "Até amanhã {{nome}}"}))

	list, err := repo.ListTemplates(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Até amanhã {{nome}}", list[0].Content)

	require.NoError(t, repo.DeleteTemplate(ctx, org.ID, "REMINDER"))
	_, err = repo.GetTemplate(ctx, org.ID, "REMINDER")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}
