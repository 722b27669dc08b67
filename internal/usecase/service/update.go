package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
)

// ======================================================
// UPDATE
// ======================================================

type UpdateService struct {
	repo      Repository
	publisher events.Publisher
}

func NewUpdateService(repo Repository, publisher events.Publisher) *UpdateService {
	return &UpdateService{repo: repo, publisher: publisher}
}

// Execute rewrites the editable fields. The active flag is left alone.
func (uc *UpdateService) Execute(ctx context.Context, organizationID, serviceID uuid.UUID, in Input) (*models.Service, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	svc, err := loadService(ctx, uc.repo, organizationID, serviceID)
	if err != nil {
		return nil, err
	}
	in.apply(svc)

	if err := save(ctx, uc.repo, svc); err != nil {
		return nil, err
	}

	uc.publisher.Dispatch(serviceChanged(organizationID, svc.ID, ChangeUpdated))
	return svc, nil
}

// ======================================================
// TOGGLE
// ======================================================

type ToggleService struct {
	repo      Repository
	publisher events.Publisher
}

func NewToggleService(repo Repository, publisher events.Publisher) *ToggleService {
	return &ToggleService{repo: repo, publisher: publisher}
}

// Execute activates or deactivates the service. A deactivated service
// offers no day, so its cache rows are dropped before returning.
func (uc *ToggleService) Execute(ctx context.Context, organizationID, serviceID uuid.UUID, active bool) (*models.Service, error) {
	svc, err := loadService(ctx, uc.repo, organizationID, serviceID)
	if err != nil {
		return nil, err
	}

	svc.Active = active
	if err := save(ctx, uc.repo, svc); err != nil {
		return nil, err
	}

	change := ChangeActivated
	if !active {
		change = ChangeDeactivated
		if err := uc.repo.ClearFullyBooked(ctx, organizationID, serviceID); err != nil {
			return nil, fmt.Errorf("clear fully booked: %w", err)
		}
	}

	uc.publisher.Dispatch(serviceChanged(organizationID, svc.ID, change))
	return svc, nil
}

func save(ctx context.Context, repo Repository, svc *models.Service) error {
	err := repo.UpdateService(ctx, svc)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return httperr.ErrNotFound("service_not_found")
	}
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	return nil
}
