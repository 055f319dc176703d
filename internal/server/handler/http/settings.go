package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atinyakov/flowerdaily/internal/models"
	"github.com/go-chi/chi/v5"
)

// SettingsService defines the configuration store required by the SettingsHandler.
type SettingsService interface {
	Get(ctx context.Context, key string) (models.Setting, error)
	Put(ctx context.Context, key, value string, sensitive bool) (models.Setting, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]models.Setting, error)
}

// SettingsHandler exposes the configuration store to administrators.
type SettingsHandler struct {
	Settings SettingsService
}

// PutSettingRequest is the body of PUT /admin/settings/{key}.
type PutSettingRequest struct {
	Value string `json:"value"`
	// Sensitive asks for the value to be stored encrypted.
	Sensitive bool `json:"sensitive"`
}

// List handles GET /admin/settings. Secrets are masked.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Settings.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if settings == nil {
		settings = []models.Setting{}
	}
	writeJSON(w, http.StatusOK, settings)
}

// Get handles GET /admin/settings/{key} and returns the clear value.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.Settings.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Put handles PUT /admin/settings/{key}.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req PutSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	s, err := h.Settings.Put(r.Context(), chi.URLParam(r, "key"), req.Value, req.Sensitive)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Delete handles DELETE /admin/settings/{key}.
func (h *SettingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Settings.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
