package booking

import (
	"strings"
	"unicode/utf8"

	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/validators"
)

const (
	MinClientNameLength = 2
	MaxClientNameLength = 100
	MaxNotesLength      = 500
)

// ClientInfo identifies the person a booking is made for.
type ClientInfo struct {
	Name  string
	Phone string
	Email string
	Notes string
}

// Normalize trims whitespace and strips phone formatting.
func (c ClientInfo) Normalize() ClientInfo {
	return ClientInfo{
		Name:  strings.TrimSpace(c.Name),
		Phone: validators.NormalizePhone(c.Phone),
		Email: strings.TrimSpace(c.Email),
		Notes: strings.TrimSpace(c.Notes),
	}
}

func (c ClientInfo) Validate() error {
	n := utf8.RuneCountInString(c.Name)
	if n < MinClientNameLength || n > MaxClientNameLength {
		return httperr.ErrValidation("invalid_client_name", "name must have between 2 and 100 characters")
	}
	if !validators.IsPhoneValid(c.Phone) {
		return httperr.ErrValidation("invalid_phone", "phone must be in the format 55DDXXXXXXXXX")
	}
	if c.Email != "" && !validators.IsEmailValid(c.Email) {
		return httperr.ErrValidation("invalid_email", "invalid email address")
	}
	if utf8.RuneCountInString(c.Notes) > MaxNotesLength {
		return httperr.ErrValidation("invalid_notes", "notes must have at most 500 characters")
	}
	return nil
}
