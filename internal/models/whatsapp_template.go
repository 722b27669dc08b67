package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WhatsAppTemplate overrides the built-in message of one type for one
// organization. Removing the row restores the default.
type WhatsAppTemplate struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_whatsapp_template_type" json:"organization_id"`
	Type           string    `gorm:"size:20;not null;uniqueIndex:idx_whatsapp_template_type" json:"type"`
	Content        string    `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *WhatsAppTemplate) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
