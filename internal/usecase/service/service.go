// Package service manages an organization's service catalog. Every change
// publishes a service event so the fully-booked cache follows the catalog.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
)

// Service change kinds, recorded as the event's "change" metadata.
const (
	ChangeCreated     = "created"
	ChangeUpdated     = "updated"
	ChangeActivated   = "activated"
	ChangeDeactivated = "deactivated"
	ChangeDeleted     = "deleted"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 500
	maxPrice             = 99999.99
)

type Repository interface {
	domain.OrganizationReader
	domain.ServiceStore
}

// Input is the editable part of a service.
type Input struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
}

func (in Input) normalize() (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)

	if n := utf8.RuneCountInString(in.Name); n == 0 || n > maxNameLength {
		return in, httperr.ErrValidation("invalid_name", "name must have between 1 and 100 characters")
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLength {
		return in, httperr.ErrValidation("invalid_description", "description must have at most 500 characters")
	}
	if math.IsNaN(in.Price) || in.Price < 0 || in.Price > maxPrice {
		return in, httperr.ErrValidation("invalid_price", "price must be between 0 and 99999.99")
	}
	if in.DurationMinutes < models.MinServiceDuration || in.DurationMinutes > models.MaxServiceDuration {
		return in, httperr.ErrValidation("invalid_duration", "service duration must be between 5 and 480 minutes")
	}

	in.Price = math.Round(in.Price*100) / 100
	return in, nil
}

func (in Input) apply(svc *models.Service) {
	svc.Name = in.Name
	svc.Description = in.Description
	svc.Price = in.Price
	svc.DurationMinutes = in.DurationMinutes
}

func loadOrganization(ctx context.Context, repo domain.OrganizationReader, id uuid.UUID) error {
	_, err := repo.GetOrganizationByID(ctx, id)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return httperr.ErrNotFound("organization_not_found")
	}
	if err != nil {
		return fmt.Errorf("load organization: %w", err)
	}
	return nil
}

// loadService returns the service only when it belongs to the organization.
// Inactive services are found.
func loadService(ctx context.Context, repo domain.OrganizationReader, organizationID, serviceID uuid.UUID) (*models.Service, error) {
	svc, err := repo.GetService(ctx, serviceID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, httperr.ErrNotFound("service_not_found")
	}
	if err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}
	if svc.OrganizationID != organizationID {
		return nil, httperr.ErrNotFound("service_not_found")
	}
	return svc, nil
}

func serviceChanged(organizationID, serviceID uuid.UUID, change string) events.Event {
	return events.Event{
		Type:           events.TypeServiceChanged,
		OrganizationID: organizationID,
		ServiceID:      serviceID,
		Actor:          events.ActorStaff,
		Metadata:       map[string]any{"change": change},
	}
}

// ======================================================
// LIST
// ======================================================

type ListServices struct {
	repo Repository
}

func NewListServices(repo Repository) *ListServices {
	return &ListServices{repo: repo}
}

// Execute returns the whole catalog, inactive services included.
func (uc *ListServices) Execute(ctx context.Context, organizationID uuid.UUID) ([]models.Service, error) {
	services, err := uc.repo.ListServices(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}
