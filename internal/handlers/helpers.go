package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
	"github.com/Lixing-Zhang/trattoria/backend/internal/orderstate"
	"github.com/Lixing-Zhang/trattoria/backend/internal/service"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON document from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// boolQuery parses an optional boolean query parameter.
func boolQuery(r *http.Request, key string) (*bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("query parameter %s must be true or false", key)
	}
	return &v, nil
}

// writeServiceError maps a service error to its HTTP status and body.
func writeServiceError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var (
		validation  *models.ValidationError
		unknownIng  *service.UnknownIngredientError
		unknownDish *service.UnknownDishError
		unavailable *service.DishUnavailableError
		illegal     *orderstate.IllegalTransitionError
		conflict    *service.StatusConflictError
	)

	switch {
	case errors.As(err, &validation):
		WriteJSON(w, http.StatusBadRequest, errorBody{"error": err.Error(), "field": validation.Field}, logger)
	case errors.As(err, &unknownIng):
		WriteJSON(w, http.StatusBadRequest, errorBody{"error": err.Error(), "missing": unknownIng.Missing}, logger)
	case errors.As(err, &unknownDish):
		WriteJSON(w, http.StatusBadRequest, errorBody{"error": err.Error(), "missing": unknownDish.Missing}, logger)
	case errors.Is(err, service.ErrStockNegative), errors.Is(err, service.ErrTotalMismatch):
		WriteError(w, http.StatusBadRequest, err.Error(), logger)
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), logger)
	case errors.As(err, &illegal):
		WriteJSON(w, http.StatusConflict, errorBody{
			"error":     err.Error(),
			"current":   illegal.Current,
			"requested": illegal.Requested,
			"legal":     nonNil(illegal.Legal),
		}, logger)
	case errors.As(err, &conflict):
		WriteJSON(w, http.StatusConflict, errorBody{
			"error":    err.Error(),
			"current":  conflict.Current,
			"expected": conflict.Expected,
		}, logger)
	case errors.As(err, &unavailable):
		WriteJSON(w, http.StatusConflict, errorBody{
			"error":      err.Error(),
			"dish":       unavailable.Dish,
			"outOfStock": unavailable.OutOfStock,
		}, logger)
	case errors.Is(err, service.ErrAlreadyExists), errors.Is(err, service.ErrProductInUse):
		WriteError(w, http.StatusConflict, err.Error(), logger)
	case errors.Is(err, service.ErrTransactionAborted):
		logger.Warn("transaction aborted", "error", err)
		WriteJSON(w, http.StatusServiceUnavailable, errorBody{"error": service.ErrTransactionAborted.Error(), "retry": true}, logger)
	default:
		logger.Error("unhandled service error", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", logger)
	}
}

func nonNil(s []models.OrderStatus) []models.OrderStatus {
	if s == nil {
		return []models.OrderStatus{}
	}
	return s
}
