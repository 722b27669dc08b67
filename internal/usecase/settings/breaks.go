package settings

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
)

const maxBreakLabelLength = 50

type BreakConfig struct {
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Label     string `json:"label"`
}

type ReplaceBreaks struct {
	repo      Repository
	publisher events.Publisher
}

func NewReplaceBreaks(repo Repository, publisher events.Publisher) *ReplaceBreaks {
	return &ReplaceBreaks{repo: repo, publisher: publisher}
}

// Execute swaps the organization's whole break list. An empty list clears it.
func (uc *ReplaceBreaks) Execute(
	ctx context.Context,
	organizationID uuid.UUID,
	breaks []BreakConfig,
) ([]models.BreakTime, error) {

	rows := make([]models.BreakTime, 0, len(breaks))
	for _, b := range breaks {
		if err := validRange(b.StartTime, b.EndTime); err != nil {
			return nil, err
		}
		if utf8.RuneCountInString(b.Label) > maxBreakLabelLength {
			return nil, httperr.ErrValidation("invalid_label", "label must have at most 50 characters")
		}
		rows = append(rows, models.BreakTime{
			OrganizationID: organizationID,
			StartTime:      b.StartTime,
			EndTime:        b.EndTime,
			Label:          b.Label,
		})
	}

	if _, err := loadOrganization(ctx, uc.repo, organizationID); err != nil {
		return nil, err
	}

	if err := uc.repo.ReplaceBreaks(ctx, organizationID, rows); err != nil {
		return nil, fmt.Errorf("replace breaks: %w", err)
	}

	uc.publisher.Dispatch(scheduleChanged(organizationID, ChangeBreaks, map[string]any{"breaks": len(rows)}))

	return uc.repo.ListBreaks(ctx, organizationID)
}
