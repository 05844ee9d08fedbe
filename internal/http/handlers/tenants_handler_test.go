package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zapleads/zapleads/internal/tenants"
)

type stubTenantStore struct {
	settings *tenants.Settings
	byErr    error
	upserted *tenants.Settings
}

func (s *stubTenantStore) ByInstance(_ context.Context, _ string) (*tenants.Settings, error) {
	if s.byErr != nil {
		return nil, s.byErr
	}
	return s.settings, nil
}

func (s *stubTenantStore) Upsert(_ context.Context, settings *tenants.Settings) error {
	s.upserted = settings
	return nil
}

func newTenantsRouter(store tenants.Store) http.Handler {
	handler := NewTenantsHandler(TenantsConfig{Store: store})
	r := chi.NewRouter()
	r.Put("/admin/tenants/{instance}", handler.HandleUpsert)
	r.Get("/admin/tenants/{instance}", handler.HandleGet)
	return r
}

func TestTenantsHandleUpsert(t *testing.T) {
	store := &stubTenantStore{}
	r := newTenantsRouter(store)

	body := `{
		"org_id": "org-2",
		"gateway_base_url": "https://tenant.example.com",
		"gateway_api_key": "tenant-key",
		"sender_company": "Consultoria Sul",
		"sender_name": "Marina",
		"sender_category": "consultoria"
	}`
	req := httptest.NewRequest(http.MethodPut, "/admin/tenants/consultoria-sul", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if store.upserted == nil {
		t.Fatal("expected the store to receive the binding")
	}
	if store.upserted.Instance != "consultoria-sul" || store.upserted.OrgID != "org-2" {
		t.Errorf("upserted = %+v", store.upserted)
	}
	if store.upserted.GatewayAPIKey != "tenant-key" {
		t.Errorf("api key = %q", store.upserted.GatewayAPIKey)
	}
	if strings.Contains(rec.Body.String(), "tenant-key") {
		t.Error("response must not echo the gateway api key")
	}
}

func TestTenantsHandleUpsertRequiresOrgID(t *testing.T) {
	store := &stubTenantStore{}
	r := newTenantsRouter(store)

	req := httptest.NewRequest(http.MethodPut, "/admin/tenants/consultoria-sul", strings.NewReader(`{"sender_name": "Marina"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if store.upserted != nil {
		t.Error("invalid request must not reach the store")
	}
}

func TestTenantsHandleGet(t *testing.T) {
	store := &stubTenantStore{settings: &tenants.Settings{
		OrgID:          "org-2",
		Instance:       "consultoria-sul",
		GatewayBaseURL: "https://tenant.example.com",
		GatewayAPIKey:  "tenant-key",
		SenderName:     "Marina",
	}}
	r := newTenantsRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/admin/tenants/consultoria-sul", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Marina") {
		t.Errorf("body = %q", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "tenant-key") {
		t.Error("response must not expose the gateway api key")
	}
}

func TestTenantsHandleGetNotFound(t *testing.T) {
	store := &stubTenantStore{byErr: tenants.ErrTenantNotFound}
	r := newTenantsRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/admin/tenants/ghost", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
