package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
	"github.com/Lixing-Zhang/trattoria/backend/internal/repository"
	"github.com/Lixing-Zhang/trattoria/backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// ProductHandler handles ingredient catalog HTTP requests
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// ListProducts handles GET /api/products?inStock=&category=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	inStock, err := boolQuery(r, "inStock")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	products, err := h.service.ListProducts(r.Context(), repository.ProductFilter{
		InStock:  inStock,
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, products, h.logger)
}

// GetProduct handles GET /api/products/{name}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, product, h.logger)
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if err := decodeJSON(w, r, &p); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	created, err := h.service.CreateProduct(r.Context(), p)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, created, h.logger)
}

// UpdateProduct handles PUT /api/products/{name}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var update models.ProductUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	updated, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "name"), update)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, updated, h.logger)
}

// AdjustStock handles POST /api/products/{name}/stock with {"delta": n}
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var adj models.StockAdjustment
	if err := decodeJSON(w, r, &adj); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	product, err := h.service.AdjustStock(r.Context(), chi.URLParam(r, "name"), adj.Delta)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, product, h.logger)
}

// DeleteProduct handles DELETE /api/products/{name}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
