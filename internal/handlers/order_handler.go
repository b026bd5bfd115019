package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
	"github.com/Lixing-Zhang/trattoria/backend/internal/repository"
	"github.com/Lixing-Zhang/trattoria/backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orderService *service.OrderService
	log          *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService, log *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		log:          log,
	}
}

// CreateOrder handles POST /api/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log.Warn("failed to decode order request", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	order, err := h.orderService.PlaceOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.log)
		return
	}

	WriteJSON(w, http.StatusCreated, order, h.log)
}

// GetOrder handles GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, h.log)
		return
	}

	WriteJSON(w, http.StatusOK, order, h.log)
}

// ListOrders handles GET /api/orders?userId=&status=
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := models.OrderStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		WriteError(w, http.StatusBadRequest, "unknown status "+string(status), h.log)
		return
	}

	orders, err := h.orderService.ListOrders(r.Context(), repository.OrderFilter{
		UserID: r.URL.Query().Get("userId"),
		Status: status,
	})
	if err != nil {
		writeServiceError(w, err, h.log)
		return
	}

	WriteJSON(w, http.StatusOK, orders, h.log)
}

// UpdateStatus handles PATCH /api/orders/{id}/status with
// {"status": "accepted", "expected": "pending"}. "expected" is optional;
// without it a request is validated against whatever status is stored when
// it runs, so of two racing requests both may succeed. With it, a request
// that finds a different status gets 409.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	order, err := h.orderService.TransitionOrder(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err, h.log)
		return
	}

	WriteJSON(w, http.StatusOK, order, h.log)
}
