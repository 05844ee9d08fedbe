package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zapleads/zapleads/internal/dispatch"
	"github.com/zapleads/zapleads/internal/http/handlers"
	"github.com/zapleads/zapleads/internal/leads"
	"github.com/zapleads/zapleads/internal/messaging/evolution"
	"github.com/zapleads/zapleads/internal/templates"
	"github.com/zapleads/zapleads/internal/tenants"
	"github.com/zapleads/zapleads/internal/transcript"
	"github.com/zapleads/zapleads/internal/webhook"
)

// The router test only checks routing and auth: the processor runs against
// an empty in-memory repo and never matches a lead.
type routerTranscripts struct{}

func (routerTranscripts) Append(context.Context, *transcript.Turn) error { return nil }
func (routerTranscripts) Recent(context.Context, string, int) ([]transcript.Turn, error) {
	return nil, nil
}
func (routerTranscripts) HasProviderMessage(context.Context, string) (bool, error) {
	return false, nil
}

type routerReply struct{}

func (routerReply) Generate(context.Context, *leads.Lead, []transcript.Turn, templates.SenderContext) (string, bool) {
	return "ok", false
}

type routerGateway struct{}

func (routerGateway) SendText(context.Context, evolution.SendTextRequest) (*evolution.SendTextResponse, error) {
	return &evolution.SendTextResponse{MessageID: "out-1"}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	repo := leads.NewInMemoryRepository()
	store := &routerTranscripts{}
	proc, err := webhook.NewProcessor(webhook.ProcessorConfig{
		Leads:       repo,
		Transcripts: store,
		Reply:       routerReply{},
		Gateway:     routerGateway{},
		Tenants:     tenants.NewStaticStore(tenants.Settings{OrgID: "org-1"}),
	})
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}

	engine, err := dispatch.NewEngine(dispatch.Config{
		Leads:   repo,
		Gateway: routerGateway{},
		Sender:  templates.SenderContext{Company: "ZapLeads"},
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	return New(&Config{
		WhatsAppWebhooks: handlers.NewWhatsAppWebhookHandler(handlers.WhatsAppWebhookConfig{Processor: proc}),
		Dispatch:         handlers.NewDispatchHandler(handlers.DispatchConfig{Engine: engine, DefaultOrgID: "org-1"}),
		Leads:            handlers.NewLeadsHandler(handlers.LeadsConfig{Repo: repo, DefaultOrgID: "org-1"}),
		AdminAuthSecret:  "secret",
	})
}

func TestHealthRoute(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestWebhookRouteIsPublic(t *testing.T) {
	r := newTestRouter(t)

	body := `{"event":"messages.upsert","instance":"zapleads","data":{"key":{"remoteJid":"5511999999999@s.whatsapp.net","fromMe":false,"id":"wamid-1"},"message":{"conversation":"olá"}}}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	// Unknown sender: still a 200 so the gateway stops retrying.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "unmatched") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/dispatch", strings.NewReader(`{"lead_ids":["l1"]}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAdminRoutesAcceptToken(t *testing.T) {
	r := newTestRouter(t)

	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	body := `{"org_id":"org-1","company":"Acme","phone":"5511999999999"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/leads/", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
