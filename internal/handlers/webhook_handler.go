package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/httpresp"
	"github.com/BruksfildServices01/agenda-engine/internal/usecase/booking"
)

const (
	eventMessagesUpsert = "messages.upsert"
	whatsappJIDSuffix   = "@s.whatsapp.net"
)

// WhatsAppWebhookPayload is the subset of the gateway's message event we
// read.
type WhatsAppWebhookPayload struct {
	Event    string `json:"event"`
	Instance string `json:"instance"`
	Data     struct {
		Key struct {
			RemoteJID string `json:"remoteJid"`
			FromMe    bool   `json:"fromMe"`
			ID        string `json:"id"`
		} `json:"key"`
		Message struct {
			Conversation        string `json:"conversation"`
			ExtendedTextMessage struct {
				Text string `json:"text"`
			} `json:"extendedTextMessage"`
		} `json:"message"`
	} `json:"data"`
}

func (p WhatsAppWebhookPayload) phone() string {
	return strings.TrimSuffix(p.Data.Key.RemoteJID, whatsappJIDSuffix)
}

func (p WhatsAppWebhookPayload) text() string {
	if p.Data.Message.Conversation != "" {
		return p.Data.Message.Conversation
	}
	return p.Data.Message.ExtendedTextMessage.Text
}

type WebhookResponse struct {
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	BookingID string `json:"booking_id,omitempty"`
	NewStatus string `json:"new_status,omitempty"`
}

type WebhookHandler struct {
	reply *booking.HandleClientReply
	log   *zerolog.Logger
}

func NewWebhookHandler(reply *booking.HandleClientReply, log *zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{reply: reply, log: log}
}

// WhatsApp acknowledges every well-formed event with 200 so the gateway
// does not redeliver messages that carry nothing for us.
func (h *WebhookHandler) WhatsApp(c *gin.Context) {
	var p WhatsAppWebhookPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		httperr.BadRequest(c, "invalid_payload", "Invalid webhook payload.")
		return
	}

	switch {
	case p.Event != eventMessagesUpsert:
		httpresp.OK(c, WebhookResponse{Status: "ignored", Reason: "event"})
		return
	case p.Data.Key.FromMe:
		httpresp.OK(c, WebhookResponse{Status: "ignored", Reason: "from_me"})
		return
	case p.phone() == "" || strings.TrimSpace(p.text()) == "":
		httpresp.OK(c, WebhookResponse{Status: "ignored", Reason: "empty"})
		return
	}

	res, err := h.reply.Execute(c.Request.Context(), p.phone(), p.text())
	if err != nil {
		if httperr.KindOf(err) != 0 {
			h.log.Warn().Err(err).Str("message_id", p.Data.Key.ID).Msg("client reply rejected")
			httpresp.OK(c, WebhookResponse{Status: "ignored", Reason: "rejected"})
			return
		}
		fail(c, err, "webhook_failed")
		return
	}

	if !res.Applied() {
		httpresp.OK(c, WebhookResponse{Status: "ignored", Reason: "no_match"})
		return
	}

	httpresp.OK(c, WebhookResponse{
		Status:    "processed",
		BookingID: res.Booking.ID.String(),
		NewStatus: res.Booking.Status,
	})
}
