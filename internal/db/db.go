package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/agenda-engine/internal/config"
	"github.com/BruksfildServices01/agenda-engine/internal/logging"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
	"github.com/BruksfildServices01/agenda-engine/internal/timezone"
)

// NoOverlapConstraint rejects two active bookings of one organization whose
// [start, end) ranges intersect.
const NoOverlapConstraint = "bookings_no_overlap"

func NewDB(cfg *config.Config, log *zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
		Logger:         logging.NewGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates the tables and the storage level overlap guard. It is
// safe to run on every start.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Organization{},
		&models.Service{},
		&models.WorkingHours{},
		&models.BreakTime{},
		&models.UnavailableDay{},
		&models.Booking{},
		&models.FullyBookedDay{},
		&models.AuditLog{},
		&models.WhatsAppTemplate{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		return fmt.Errorf("enable btree_gist: %w", err)
	}

	if err := db.Exec(fmt.Sprintf(`
        DO $$
        BEGIN
            IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
                ALTER TABLE bookings
                ADD CONSTRAINT %s
                EXCLUDE USING gist (
                    organization_id WITH =,
                    tstzrange(start_time, end_time, '[)') WITH &&
                )
                WHERE (status IN ('PENDING', 'CONFIRMED'));
            END IF;
        END
        $$;
    `, NoOverlapConstraint, NoOverlapConstraint)).Error; err != nil {
		return fmt.Errorf("install %s: %w", NoOverlapConstraint, err)
	}

	if err := db.Exec(`
        UPDATE organizations
        SET timezone = ?
        WHERE timezone IS NULL OR timezone = ''
    `, timezone.DefaultTimezone).Error; err != nil {
		return fmt.Errorf("backfill timezone: %w", err)
	}

	return nil
}
