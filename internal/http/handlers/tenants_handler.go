package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zapleads/zapleads/internal/tenants"
	"github.com/zapleads/zapleads/pkg/logging"
)

// TenantsHandler manages the binding between gateway instances and
// organizations: which org owns an instance, its gateway credentials, and
// the sender identity used in outgoing messages.
type TenantsHandler struct {
	store  tenants.Store
	logger *logging.Logger
}

type TenantsConfig struct {
	Store  tenants.Store
	Logger *logging.Logger
}

func NewTenantsHandler(cfg TenantsConfig) *TenantsHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &TenantsHandler{
		store:  cfg.Store,
		logger: cfg.Logger,
	}
}

type tenantSettingsRequest struct {
	OrgID          string `json:"org_id"`
	GatewayBaseURL string `json:"gateway_base_url"`
	GatewayAPIKey  string `json:"gateway_api_key"`
	SenderCompany  string `json:"sender_company"`
	SenderName     string `json:"sender_name"`
	SenderCategory string `json:"sender_category"`
}

type tenantSettingsResponse struct {
	OrgID          string `json:"org_id"`
	Instance       string `json:"instance"`
	GatewayBaseURL string `json:"gateway_base_url"`
	SenderCompany  string `json:"sender_company"`
	SenderName     string `json:"sender_name"`
	SenderCategory string `json:"sender_category"`
}

// HandleUpsert binds (or rebinds) the instance in the URL to an organization.
// The gateway API key is accepted on write but never echoed back.
func (h *TenantsHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	instance := strings.TrimSpace(chi.URLParam(r, "instance"))
	if instance == "" {
		respondError(w, http.StatusBadRequest, "instance is required")
		return
	}

	var req tenantSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.OrgID) == "" {
		respondError(w, http.StatusBadRequest, "org_id is required")
		return
	}

	settings := &tenants.Settings{
		OrgID:          req.OrgID,
		Instance:       instance,
		GatewayBaseURL: req.GatewayBaseURL,
		GatewayAPIKey:  req.GatewayAPIKey,
		SenderCompany:  req.SenderCompany,
		SenderName:     req.SenderName,
		SenderCategory: req.SenderCategory,
	}
	if err := h.store.Upsert(r.Context(), settings); err != nil {
		h.logger.Error("tenant upsert failed", "instance", instance, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, toTenantResponse(settings))
}

// HandleGet returns the binding for an instance.
func (h *TenantsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	instance := strings.TrimSpace(chi.URLParam(r, "instance"))
	settings, err := h.store.ByInstance(r.Context(), instance)
	if errors.Is(err, tenants.ErrTenantNotFound) {
		respondError(w, http.StatusNotFound, "tenant not found")
		return
	}
	if err != nil {
		h.logger.Error("tenant lookup failed", "instance", instance, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, toTenantResponse(settings))
}

func toTenantResponse(s *tenants.Settings) tenantSettingsResponse {
	return tenantSettingsResponse{
		OrgID:          s.OrgID,
		Instance:       s.Instance,
		GatewayBaseURL: s.GatewayBaseURL,
		SenderCompany:  s.SenderCompany,
		SenderName:     s.SenderName,
		SenderCategory: s.SenderCategory,
	}
}
