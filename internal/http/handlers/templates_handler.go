package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zapleads/zapleads/internal/templates"
	"github.com/zapleads/zapleads/pkg/logging"
)

// TemplatesHandler exposes message template CRUD to the admin API.
type TemplatesHandler struct {
	repo         templates.Repository
	defaultOrgID string
	logger       *logging.Logger
}

type TemplatesConfig struct {
	Repo         templates.Repository
	DefaultOrgID string
	Logger       *logging.Logger
}

func NewTemplatesHandler(cfg TemplatesConfig) *TemplatesHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &TemplatesHandler{
		repo:         cfg.Repo,
		defaultOrgID: cfg.DefaultOrgID,
		logger:       cfg.Logger,
	}
}

type templatePayload struct {
	ID         string                `json:"id,omitempty"`
	Name       string                `json:"name"`
	Category   string                `json:"category,omitempty"`
	Protected  bool                  `json:"protected,omitempty"`
	Variations []templates.Variation `json:"variations"`
	Message    string                `json:"message,omitempty"`
}

func (h *TemplatesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var payload templatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tpl := &templates.Template{
		OrgID:      orgIDFromRequest(r, h.defaultOrgID),
		Name:       payload.Name,
		Category:   payload.Category,
		Protected:  payload.Protected,
		Variations: payload.Variations,
		Message:    payload.Message,
	}
	created, err := h.repo.Create(r.Context(), tpl)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *TemplatesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context(), orgIDFromRequest(r, h.defaultOrgID))
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	if list == nil {
		list = []*templates.Template{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *TemplatesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.repo.GetByID(r.Context(), orgIDFromRequest(r, h.defaultOrgID), chi.URLParam(r, "id"))
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tpl)
}

func (h *TemplatesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload templatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tpl := &templates.Template{
		ID:         chi.URLParam(r, "id"),
		OrgID:      orgIDFromRequest(r, h.defaultOrgID),
		Name:       payload.Name,
		Category:   payload.Category,
		Variations: payload.Variations,
		Message:    payload.Message,
	}
	if err := h.repo.Update(r.Context(), tpl); err != nil {
		h.writeRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tpl)
}

func (h *TemplatesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), orgIDFromRequest(r, h.defaultOrgID), chi.URLParam(r, "id")); err != nil {
		h.writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TemplatesHandler) writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, templates.ErrTemplateNotFound):
		respondError(w, http.StatusNotFound, "template not found")
	case errors.Is(err, templates.ErrTemplateProtected):
		respondError(w, http.StatusForbidden, "template is protected")
	case errors.Is(err, templates.ErrInvalidTemplate):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("template operation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
