package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
)

type TemplateType string

const (
	TemplateConfirmation TemplateType = "CONFIRMATION"
	TemplateCancellation TemplateType = "CANCELLATION"
	TemplateReminder     TemplateType = "REMINDER"
)

// TemplateTypes lists every type an organization may customize, in display
// order.
var TemplateTypes = []TemplateType{TemplateConfirmation, TemplateCancellation, TemplateReminder}

func (t TemplateType) Valid() bool {
	_, ok := DefaultTemplates[t]
	return ok
}

// Placeholders understood by every template.
const (
	VarName         = "{{nome}}"
	VarService      = "{{serviço}}"
	VarDate         = "{{data}}"
	VarOrganization = "{{organização}}"
)

// dateLayout renders the booking start in the organization's timezone.
const dateLayout = "02/01/2006 às 15:04"

var DefaultTemplates = map[TemplateType]string{
	TemplateConfirmation: strings.Join([]string{
		"Olá {{nome}}! 👋",
		"",
		"Seu agendamento foi *confirmado*! ✅",
		"",
		"📅 *{{serviço}}*",
		"🕐 *{{data}}*",
		"📍 *{{organização}}*",
		"",
		"Caso precise cancelar ou reagendar, entre em contato conosco.",
		"",
		"_Mensagem automática - Easyfy_",
	}, "\n"),

	TemplateCancellation: strings.Join([]string{
		"Olá {{nome}},",
		"",
		"Informamos que seu agendamento para *{{serviço}}* em *{{data}}* foi *cancelado*.",
		"",
		"Se desejar reagendar, acesse nosso link de agendamento.",
		"",
		"_Mensagem automática - Easyfy_",
	}, "\n"),

	TemplateReminder: strings.Join([]string{
		"Lembrete: Olá {{nome}}! 🔔",
		"",
		"Sua consulta/reserva para *{{serviço}}* é amanhã, *{{data}}*.",
		"",
		"📍 *{{organização}}*",
		"",
		"Confirme sua presença respondendo esta mensagem.",
		"",
		"_Mensagem automática - Easyfy_",
	}, "\n"),
}

type TemplateReader interface {
	GetTemplate(ctx context.Context, organizationID uuid.UUID, kind string) (*models.WhatsAppTemplate, error)
}

// TemplateFor returns the organization's own text for kind when it has one
// and the built-in default otherwise. custom reports which one was used.
func TemplateFor(ctx context.Context, repo TemplateReader, organizationID uuid.UUID, kind TemplateType) (content string, custom bool, err error) {
	t, err := repo.GetTemplate(ctx, organizationID, string(kind))
	if errors.Is(err, domain.ErrRecordNotFound) {
		return DefaultTemplates[kind], false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load template: %w", err)
	}
	return t.Content, true, nil
}

type Vars struct {
	Name         string
	Service      string
	Start        time.Time
	Location     *time.Location
	Organization string
}

// Render replaces every placeholder occurrence. Unknown placeholders are
// left as they are.
func Render(template string, v Vars) string {
	loc := v.Location
	if loc == nil {
		loc = time.UTC
	}

	return strings.NewReplacer(
		VarName, v.Name,
		VarService, v.Service,
		VarDate, v.Start.In(loc).Format(dateLayout),
		VarOrganization, v.Organization,
	).Replace(template)
}
