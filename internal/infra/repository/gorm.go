package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
)

const (
	// exclusionViolation is the SQLSTATE raised by bookings_no_overlap.
	exclusionViolation  = "23P01"
	foreignKeyViolation = "23503"
)

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrRecordNotFound
	}
	return err
}

func isExclusionViolation(err error) bool {
	return hasSQLState(err, exclusionViolation)
}

func isForeignKeyViolation(err error) bool {
	return hasSQLState(err, foreignKeyViolation)
}

func hasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// Compile-time check
var _ domain.Repository = (*GormRepository)(nil)
