package booking

import "strings"

// Reply is the intent recognized in a client's inbound message.
type Reply int

const (
	ReplyUnknown Reply = iota
	ReplyConfirm
	ReplyCancel
)

var (
	confirmKeywords = []string{"sim", "confirmo", "ok", "confirmar", "confirmado"}
	cancelKeywords  = []string{"cancelar", "cancela", "não", "nao"}
)

// MatchReply classifies free text by keyword containment. Confirmation is
// checked first.
func MatchReply(text string) Reply {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return ReplyUnknown
	}

	for _, kw := range confirmKeywords {
		if strings.Contains(normalized, kw) {
			return ReplyConfirm
		}
	}
	for _, kw := range cancelKeywords {
		if strings.Contains(normalized, kw) {
			return ReplyCancel
		}
	}
	return ReplyUnknown
}

// Status maps a recognized reply to the booking status it requests.
func (r Reply) Status() (Status, bool) {
	switch r {
	case ReplyConfirm:
		return StatusConfirmed, true
	case ReplyCancel:
		return StatusCancelled, true
	}
	return "", false
}
