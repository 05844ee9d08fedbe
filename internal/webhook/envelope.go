// Package webhook processes inbound WhatsApp gateway events.
package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zapleads/zapleads/internal/messaging"
)

// EventMessagesUpsert is the gateway event carrying new messages.
const EventMessagesUpsert = "messages.upsert"

// Envelope is the gateway webhook payload.
type Envelope struct {
	Event    string    `json:"event"`
	Instance string    `json:"instance"`
	Data     EventData `json:"data"`
}

// EventData is the message-level content of an envelope.
type EventData struct {
	Key              MessageKey      `json:"key"`
	PushName         string          `json:"pushName"`
	Message          *MessageContent `json:"message"`
	MessageTimestamp int64           `json:"messageTimestamp"`
}

// MessageKey identifies the message and its sender thread.
type MessageKey struct {
	RemoteJID string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

// MessageContent carries the message body in one of the gateway's shapes.
type MessageContent struct {
	Conversation        string `json:"conversation"`
	ExtendedTextMessage *struct {
		Text string `json:"text"`
	} `json:"extendedTextMessage"`
}

// ParseEnvelope decodes and minimally validates a webhook body.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("webhook: decode envelope: %w", err)
	}
	if env.Data.Key.RemoteJID == "" {
		return nil, errors.New("webhook: envelope missing remote jid")
	}
	return &env, nil
}

// Phone extracts the sender's number from the jid, digits only.
func (e *Envelope) Phone() string {
	jid := e.Data.Key.RemoteJID
	if at := strings.IndexByte(jid, '@'); at >= 0 {
		jid = jid[:at]
	}
	return messaging.NormalizePhone(jid)
}

// Text returns the message body, whichever shape the gateway used.
func (e *Envelope) Text() string {
	msg := e.Data.Message
	if msg == nil {
		return ""
	}
	if text := strings.TrimSpace(msg.Conversation); text != "" {
		return text
	}
	if msg.ExtendedTextMessage != nil {
		return strings.TrimSpace(msg.ExtendedTextMessage.Text)
	}
	return ""
}

// Timestamp converts the gateway's unix seconds to a time, falling back to
// now when absent.
func (e *Envelope) Timestamp() time.Time {
	if e.Data.MessageTimestamp <= 0 {
		return time.Now().UTC()
	}
	return time.Unix(e.Data.MessageTimestamp, 0).UTC()
}
