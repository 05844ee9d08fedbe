package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zapleads/zapleads/internal/dispatch"
	"github.com/zapleads/zapleads/pkg/logging"
)

type dispatchRunner interface {
	Run(ctx context.Context, req dispatch.RunRequest) (*dispatch.Summary, error)
	TestSend(ctx context.Context, req dispatch.TestSendRequest) (string, error)
}

// DispatchHandler exposes the outbound batch engine to the admin API.
type DispatchHandler struct {
	engine       dispatchRunner
	defaultOrgID string
	logger       *logging.Logger
}

type DispatchConfig struct {
	Engine       dispatchRunner
	DefaultOrgID string
	Logger       *logging.Logger
}

func NewDispatchHandler(cfg DispatchConfig) *DispatchHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &DispatchHandler{
		engine:       cfg.Engine,
		defaultOrgID: cfg.DefaultOrgID,
		logger:       cfg.Logger,
	}
}

type dispatchRunPayload struct {
	LeadIDs       []string `json:"lead_ids"`
	TemplateID    string   `json:"template_id"`
	EditedMessage string   `json:"edited_message"`
	Force         bool     `json:"force"`
}

// HandleRun starts a batch over the selected leads and blocks until it
// finishes, returning the per-lead results.
func (h *DispatchHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		respondError(w, http.StatusServiceUnavailable, "dispatch engine not configured")
		return
	}
	var payload dispatchRunPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(payload.LeadIDs) == 0 {
		respondError(w, http.StatusBadRequest, "lead_ids is required")
		return
	}

	summary, err := h.engine.Run(r.Context(), dispatch.RunRequest{
		OrgID:         orgIDFromRequest(r, h.defaultOrgID),
		LeadIDs:       payload.LeadIDs,
		TemplateID:    payload.TemplateID,
		EditedMessage: payload.EditedMessage,
		Force:         payload.Force,
	})
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrNoLeads):
			respondError(w, http.StatusNotFound, "no matching leads")
		case errors.Is(err, dispatch.ErrEditedMessageAmbiguous):
			respondError(w, http.StatusBadRequest, "edited message requires exactly one eligible lead")
		default:
			h.logger.Error("dispatch run failed", "error", err)
			respondError(w, http.StatusInternalServerError, "dispatch failed")
		}
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

type testSendPayload struct {
	Number     string `json:"number"`
	TemplateID string `json:"template_id"`
	Message    string `json:"message"`
}

// HandleTestSend sends a rendered sample message to an arbitrary number
// without touching lead records.
func (h *DispatchHandler) HandleTestSend(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		respondError(w, http.StatusServiceUnavailable, "dispatch engine not configured")
		return
	}
	var payload testSendPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Number == "" {
		respondError(w, http.StatusBadRequest, "number is required")
		return
	}

	body, err := h.engine.TestSend(r.Context(), dispatch.TestSendRequest{
		OrgID:      orgIDFromRequest(r, h.defaultOrgID),
		Number:     payload.Number,
		TemplateID: payload.TemplateID,
		Message:    payload.Message,
	})
	if err != nil {
		h.logger.Warn("test send failed", "error", err)
		respondError(w, http.StatusBadGateway, "test send failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "message": body})
}
