// Package templates lets an organization replace the wording of its client
// messages. Types without an override keep the built-in text.
package templates

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
	"github.com/BruksfildServices01/agenda-engine/internal/notify"
)

const (
	minContentLength = 10
	maxContentLength = 1000
)

// Template change kinds, recorded as the event's "change" metadata.
const (
	ChangeSaved = "saved"
	ChangeReset = "reset"
)

type Repository interface {
	domain.OrganizationReader
	domain.TemplateStore
}

// Template is one message type as the organization will send it.
type Template struct {
	Type     notify.TemplateType `json:"type"`
	Content  string              `json:"content"`
	IsCustom bool                `json:"is_custom"`
}

func parseType(raw string) (notify.TemplateType, error) {
	kind := notify.TemplateType(raw)
	if !kind.Valid() {
		return "", httperr.ErrValidation("invalid_template_type", "type must be CONFIRMATION, CANCELLATION or REMINDER")
	}
	return kind, nil
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

func templateChanged(organizationID uuid.UUID, kind notify.TemplateType, change string) events.Event {
	return events.Event{
		Type:           events.TypeTemplateChanged,
		OrganizationID: organizationID,
		Actor:          events.ActorStaff,
		Metadata:       map[string]any{"change": change, "template": string(kind)},
	}
}

// ======================================================
// GET
// ======================================================

type GetTemplates struct {
	repo Repository
}

func NewGetTemplates(repo Repository) *GetTemplates {
	return &GetTemplates{repo: repo}
}

// Execute returns every type, the override when present and the default
// otherwise.
func (uc *GetTemplates) Execute(ctx context.Context, organizationID uuid.UUID) ([]Template, error) {
	if err := loadOrganization(ctx, uc.repo, organizationID); err != nil {
		return nil, err
	}

	rows, err := uc.repo.ListTemplates(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	custom := make(map[notify.TemplateType]string, len(rows))
	for _, row := range rows {
		custom[notify.TemplateType(row.Type)] = row.Content
	}

	out := make([]Template, 0, len(notify.TemplateTypes))
	for _, kind := range notify.TemplateTypes {
		content, ok := custom[kind]
		if !ok {
			content = notify.DefaultTemplates[kind]
		}
		out = append(out, Template{Type: kind, Content: content, IsCustom: ok})
	}
	return out, nil
}

// ======================================================
// SAVE
// ======================================================

type SaveTemplate struct {
	repo      Repository
	publisher events.Publisher
}

func NewSaveTemplate(repo Repository, publisher events.Publisher) *SaveTemplate {
	return &SaveTemplate{repo: repo, publisher: publisher}
}

func (uc *SaveTemplate) Execute(ctx context.Context, organizationID uuid.UUID, rawType, content string) (*Template, error) {
	kind, err := parseType(rawType)
	if err != nil {
		return nil, err
	}
	if n := utf8.RuneCountInString(content); n < minContentLength || n > maxContentLength {
		return nil, httperr.ErrValidation("invalid_template_content", "content must have between 10 and 1000 characters")
	}
	if err := loadOrganization(ctx, uc.repo, organizationID); err != nil {
		return nil, err
	}

	row := &models.WhatsAppTemplate{
		OrganizationID: organizationID,
		Type:           string(kind),
		Content:        content,
	}
	if err := uc.repo.UpsertTemplate(ctx, row); err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}

	uc.publisher.Dispatch(templateChanged(organizationID, kind, ChangeSaved))
	return &Template{Type: kind, Content: content, IsCustom: true}, nil
}

// ======================================================
// RESET
// ======================================================

type ResetTemplate struct {
	repo      Repository
	publisher events.Publisher
}

func NewResetTemplate(repo Repository, publisher events.Publisher) *ResetTemplate {
	return &ResetTemplate{repo: repo, publisher: publisher}
}

// Execute drops the override so the default applies again. Resetting a
// type that was never customized succeeds.
func (uc *ResetTemplate) Execute(ctx context.Context, organizationID uuid.UUID, rawType string) (*Template, error) {
	kind, err := parseType(rawType)
	if err != nil {
		return nil, err
	}
	if err := loadOrganization(ctx, uc.repo, organizationID); err != nil {
		return nil, err
	}

	if err := uc.repo.DeleteTemplate(ctx, organizationID, string(kind)); err != nil {
		return nil, fmt.Errorf("reset template: %w", err)
	}

	uc.publisher.Dispatch(templateChanged(organizationID, kind, ChangeReset))
	return &Template{Type: kind, Content: notify.DefaultTemplates[kind]}, nil
}
