package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhatsAppWebhookPayload(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantPhone string
		wantText  string
	}{
		{
			name:      "conversation",
			raw:       `{"event":"messages.upsert","data":{"key":{"remoteJid":"5511999998888@s.whatsapp.net"},"message":{"conversation":"sim"}}}`,
			wantPhone: "5511999998888",
			wantText:  "sim",
		},
		{
			name:      "extended text",
			raw:       `{"event":"messages.upsert","data":{"key":{"remoteJid":"5511999998888@s.whatsapp.net"},"message":{"extendedTextMessage":{"text":"cancelar"}}}}`,
			wantPhone: "5511999998888",
			wantText:  "cancelar",
		},
		{
			name: "no message",
			raw:  `{"event":"messages.upsert","data":{"key":{}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p WhatsAppWebhookPayload
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &p))
			assert.Equal(t, tt.wantPhone, p.phone())
			assert.Equal(t, tt.wantText, p.text())
		})
	}
}
