package dto

import (
	"time"

	"github.com/google/uuid"
)

type BookingListDTO struct {
	ID               uuid.UUID `json:"id"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	Status           string    `json:"status"`
	ClientName       string    `json:"client_name"`
	ClientPhone      string    `json:"client_phone"`
	ServiceID        uuid.UUID `json:"service_id"`
	ServiceName      string    `json:"service_name"`
	NotificationSent bool      `json:"notification_sent"`
	Notes            string    `json:"notes,omitempty"`
}
