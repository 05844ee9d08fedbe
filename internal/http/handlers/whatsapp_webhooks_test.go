package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zapleads/zapleads/internal/leads"
	"github.com/zapleads/zapleads/internal/webhook"
)

type stubProcessor struct {
	outcome *webhook.Outcome
	err     error
	lastEnv *webhook.Envelope
}

func (s *stubProcessor) Process(_ context.Context, env *webhook.Envelope) (*webhook.Outcome, error) {
	s.lastEnv = env
	if s.err != nil {
		return nil, s.err
	}
	return s.outcome, nil
}

const inboundEvent = `{
	"event": "messages.upsert",
	"instance": "zapleads",
	"data": {
		"key": {"remoteJid": "5511999999999@s.whatsapp.net", "fromMe": false, "id": "wamid-1"},
		"pushName": "João",
		"message": {"conversation": "Quero saber mais"},
		"messageTimestamp": 1714000000
	}
}`

func TestHandleEventReplied(t *testing.T) {
	proc := &stubProcessor{outcome: &webhook.Outcome{
		Status:      webhook.StatusReplied,
		Lead:        &leads.Lead{ID: "lead-1", Company: "Padaria Central", Status: leads.StatusInConversation},
		Response:    "Claro! Posso te contar mais.",
		AIGenerated: true,
	}}
	handler := NewWhatsAppWebhookHandler(WhatsAppWebhookConfig{Processor: proc})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(inboundEvent))
	rec := httptest.NewRecorder()
	handler.HandleEvent(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp webhookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.OK || resp.Status != "replied" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Lead == nil || resp.Lead.ID != "lead-1" {
		t.Errorf("lead payload = %+v", resp.Lead)
	}
	if resp.Response != "Claro! Posso te contar mais." || !resp.AIGenerated {
		t.Errorf("response fields = %+v", resp)
	}
	if proc.lastEnv == nil || proc.lastEnv.Data.Key.ID != "wamid-1" {
		t.Errorf("processor received %+v", proc.lastEnv)
	}
}

func TestHandleEventUnmatchedStillOK(t *testing.T) {
	proc := &stubProcessor{outcome: &webhook.Outcome{Status: webhook.StatusUnmatched}}
	handler := NewWhatsAppWebhookHandler(WhatsAppWebhookConfig{Processor: proc})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(inboundEvent))
	rec := httptest.NewRecorder()
	handler.HandleEvent(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp webhookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.OK || resp.Status != "unmatched" || resp.Lead != nil {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandleEventInvalidPayload(t *testing.T) {
	handler := NewWhatsAppWebhookHandler(WhatsAppWebhookConfig{Processor: &stubProcessor{}})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.HandleEvent(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleEventProcessingError(t *testing.T) {
	proc := &stubProcessor{err: context.DeadlineExceeded}
	handler := NewWhatsAppWebhookHandler(WhatsAppWebhookConfig{Processor: proc})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(inboundEvent))
	rec := httptest.NewRecorder()
	handler.HandleEvent(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "error") {
		t.Errorf("body = %q", rec.Body.String())
	}
}
