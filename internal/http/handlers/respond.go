// Package handlers contains the HTTP surface of the messaging core.
package handlers

import (
	"encoding/json"
	"net/http"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// orgIDFromRequest resolves the organization for a request, falling back to
// the deployment default for single-org installs.
func orgIDFromRequest(r *http.Request, fallback string) string {
	if org := r.Header.Get("X-Org-Id"); org != "" {
		return org
	}
	return fallback
}
