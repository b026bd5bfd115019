package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/trattoria/backend/internal/settings"
)

// SettingsStore is the allow-list store behind the settings routes.
type SettingsStore interface {
	Current() *settings.Snapshot
	Reload() (*settings.Snapshot, error)
	Replace(l settings.Lists) (*settings.Snapshot, error)
}

// SettingsHandler exposes the category and allergen allow-lists
type SettingsHandler struct {
	store  SettingsStore
	logger *slog.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(store SettingsStore, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{store: store, logger: logger}
}

// GetSettings handles GET /api/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.store.Current().Lists(), h.logger)
}

// ReplaceSettings handles PUT /api/settings
func (h *SettingsHandler) ReplaceSettings(w http.ResponseWriter, r *http.Request) {
	var lists settings.Lists
	if err := decodeJSON(w, r, &lists); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	snap, err := h.store.Replace(lists)
	if errors.Is(err, settings.ErrEmptyCategories) {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	if err != nil {
		h.logger.Error("failed to replace settings", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	h.logger.Info("settings replaced", "categories", len(snap.Lists().Categories), "allergens", len(snap.Lists().Allergens))
	WriteJSON(w, http.StatusOK, snap.Lists(), h.logger)
}

// ReloadSettings handles POST /api/settings/reload
func (h *SettingsHandler) ReloadSettings(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Reload()
	if err != nil {
		h.logger.Error("failed to reload settings", "error", err)
		WriteError(w, http.StatusInternalServerError, "failed to reload settings", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, snap.Lists(), h.logger)
}
