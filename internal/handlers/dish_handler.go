package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
	"github.com/Lixing-Zhang/trattoria/backend/internal/repository"
	"github.com/Lixing-Zhang/trattoria/backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// DishHandler handles menu HTTP requests
type DishHandler struct {
	service *service.DishService
	logger  *slog.Logger
}

// NewDishHandler creates a new dish handler
func NewDishHandler(service *service.DishService, logger *slog.Logger) *DishHandler {
	return &DishHandler{service: service, logger: logger}
}

// ListDishes handles GET /api/dishes?category=&available=
func (h *DishHandler) ListDishes(w http.ResponseWriter, r *http.Request) {
	available, err := boolQuery(r, "available")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	category := models.DishCategory(r.URL.Query().Get("category"))
	if category != "" && !category.Valid() {
		WriteError(w, http.StatusBadRequest, "category must be one of starter, main, dessert", h.logger)
		return
	}

	dishes, err := h.service.ListDishes(r.Context(), repository.DishFilter{Category: category, Available: available})
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, dishes, h.logger)
}

// GetDish handles GET /api/dishes/{name}
func (h *DishHandler) GetDish(w http.ResponseWriter, r *http.Request) {
	dish, err := h.service.GetDish(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, dish, h.logger)
}

// CreateDish handles POST /api/dishes
func (h *DishHandler) CreateDish(w http.ResponseWriter, r *http.Request) {
	var req models.DishRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	dish, err := h.service.CreateDish(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, dish, h.logger)
}

type compositionRequest struct {
	Ingredients []models.IngredientRequest `json:"ingredients"`
}

// ValidateComposition handles POST /api/dishes/validate. Nothing is stored.
func (h *DishHandler) ValidateComposition(w http.ResponseWriter, r *http.Request) {
	var req compositionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	comp, err := h.service.ValidateDishComposition(r.Context(), req.Ingredients)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, comp, h.logger)
}

// UpdateDish handles PUT /api/dishes/{name}
func (h *DishHandler) UpdateDish(w http.ResponseWriter, r *http.Request) {
	var req models.DishRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	dish, err := h.service.UpdateDish(r.Context(), chi.URLParam(r, "name"), req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, dish, h.logger)
}

// DeleteDish handles DELETE /api/dishes/{name}
func (h *DishHandler) DeleteDish(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteDish(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
