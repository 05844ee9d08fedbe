package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/zapleads/zapleads/internal/webhook"
	"github.com/zapleads/zapleads/pkg/logging"
)

type eventProcessor interface {
	Process(ctx context.Context, env *webhook.Envelope) (*webhook.Outcome, error)
}

// WhatsAppWebhookHandler receives gateway events and runs them through the
// inbound pipeline.
type WhatsAppWebhookHandler struct {
	processor eventProcessor
	logger    *logging.Logger
}

type WhatsAppWebhookConfig struct {
	Processor eventProcessor
	Logger    *logging.Logger
}

func NewWhatsAppWebhookHandler(cfg WhatsAppWebhookConfig) *WhatsAppWebhookHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &WhatsAppWebhookHandler{
		processor: cfg.Processor,
		logger:    cfg.Logger,
	}
}

type webhookLeadPayload struct {
	ID      string `json:"id"`
	Company string `json:"company"`
	Status  string `json:"status"`
}

type webhookResponse struct {
	OK          bool                `json:"ok"`
	Status      string              `json:"status"`
	Reason      string              `json:"reason,omitempty"`
	Lead        *webhookLeadPayload `json:"lead,omitempty"`
	Response    string              `json:"response,omitempty"`
	AIGenerated bool                `json:"ai_generated,omitempty"`
}

// HandleEvent processes one webhook delivery. Filtered events and unknown
// senders still get a 200 so the gateway stops retrying.
func (h *WhatsAppWebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	if h.processor == nil {
		respondError(w, http.StatusServiceUnavailable, "webhook processor not configured")
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	env, err := webhook.ParseEnvelope(body)
	if err != nil {
		h.logger.Warn("unparsable webhook payload", "error", err)
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	outcome, err := h.processor.Process(r.Context(), env)
	if err != nil {
		h.logger.Error("webhook processing failed", "error", err, "instance", env.Instance)
		respondError(w, http.StatusInternalServerError, "processing error")
		return
	}

	resp := webhookResponse{OK: true, Status: string(outcome.Status), Reason: outcome.Reason}
	if outcome.Lead != nil {
		resp.Lead = &webhookLeadPayload{
			ID:      outcome.Lead.ID,
			Company: outcome.Lead.Company,
			Status:  outcome.Lead.Status,
		}
		resp.Response = outcome.Response
		resp.AIGenerated = outcome.AIGenerated
	}
	respondJSON(w, http.StatusOK, resp)
}
