package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zapleads/zapleads/internal/leads"
	"github.com/zapleads/zapleads/pkg/logging"
)

// LeadsHandler exposes lead intake and lookup to the admin API.
type LeadsHandler struct {
	repo         leads.Repository
	defaultOrgID string
	logger       *logging.Logger
}

type LeadsConfig struct {
	Repo         leads.Repository
	DefaultOrgID string
	Logger       *logging.Logger
}

func NewLeadsHandler(cfg LeadsConfig) *LeadsHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &LeadsHandler{
		repo:         cfg.Repo,
		defaultOrgID: cfg.DefaultOrgID,
		logger:       cfg.Logger,
	}
}

func (h *LeadsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req leads.CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.OrgID = orgIDFromRequest(r, h.defaultOrgID)

	lead, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, lead)
}

func (h *LeadsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	lead, err := h.repo.GetByID(r.Context(), orgIDFromRequest(r, h.defaultOrgID), chi.URLParam(r, "id"))
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

func (h *LeadsHandler) writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, leads.ErrLeadNotFound):
		respondError(w, http.StatusNotFound, "lead not found")
	case errors.Is(err, leads.ErrMissingOrgID),
		errors.Is(err, leads.ErrInvalidCompany),
		errors.Is(err, leads.ErrMissingPhone):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("lead operation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
