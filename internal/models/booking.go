package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Booking struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	OrganizationID uuid.UUID    `gorm:"type:uuid;not null;index:idx_bookings_org_start" json:"organization_id"`
	Organization   Organization `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	ServiceID uuid.UUID `gorm:"type:uuid;not null" json:"service_id"`
	Service   Service   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`

	ClientName  string `gorm:"size:100;not null" json:"client_name"`
	ClientPhone string `gorm:"size:20;not null;index" json:"client_phone"`
	ClientEmail string `gorm:"size:100" json:"client_email,omitempty"`

	StartTime time.Time `gorm:"not null;index:idx_bookings_org_start" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	Status           string `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	NotificationSent bool   `gorm:"not null;default:false" json:"notification_sent"`

	Notes       string     `gorm:"size:500" json:"notes,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// FullyBookedDay is a derived cache row: at the last reconciliation the
// service had no open slot on Date. Never written by user actions.
type FullyBookedDay struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_fully_booked_key" json:"organization_id"`
	ServiceID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_fully_booked_key" json:"service_id"`
	Date           time.Time `gorm:"type:date;not null;uniqueIndex:idx_fully_booked_key" json:"date"`

	CreatedAt time.Time `json:"created_at"`
}

func (f *FullyBookedDay) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
