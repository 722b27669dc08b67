package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
)

type CreateService struct {
	repo      Repository
	publisher events.Publisher
}

func NewCreateService(repo Repository, publisher events.Publisher) *CreateService {
	return &CreateService{repo: repo, publisher: publisher}
}

// Execute adds an active service to the catalog.
func (uc *CreateService) Execute(ctx context.Context, organizationID uuid.UUID, in Input) (*models.Service, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	if err := loadOrganization(ctx, uc.repo, organizationID); err != nil {
		return nil, err
	}

	svc := &models.Service{OrganizationID: organizationID, Active: true}
	in.apply(svc)

	if err := uc.repo.CreateService(ctx, svc); err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	uc.publisher.Dispatch(serviceChanged(organizationID, svc.ID, ChangeCreated))
	return svc, nil
}
