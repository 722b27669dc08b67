package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
)

type DeleteService struct {
	repo      Repository
	publisher events.Publisher
}

func NewDeleteService(repo Repository, publisher events.Publisher) *DeleteService {
	return &DeleteService{repo: repo, publisher: publisher}
}

// Execute removes a service no booking has ever referenced, together with
// its cache rows. Services with history must be deactivated instead.
func (uc *DeleteService) Execute(ctx context.Context, organizationID, serviceID uuid.UUID) error {
	err := uc.repo.DeleteService(ctx, organizationID, serviceID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return httperr.ErrNotFound("service_not_found")
	}
	if httperr.KindOf(err) != 0 {
		return err
	}
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}

	uc.publisher.Dispatch(serviceChanged(organizationID, serviceID, ChangeDeleted))
	return nil
}
