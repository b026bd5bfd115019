package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
	"github.com/Lixing-Zhang/trattoria/backend/internal/repository"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrStockNegative = errors.New("stock must not become negative")
	ErrProductInUse  = errors.New("product is used by at least one dish")
	ErrTotalMismatch = errors.New("total price does not match the ordered items")
	// ErrTransactionAborted means nothing was committed and the request can be retried as is.
	ErrTransactionAborted = errors.New("transaction aborted, retry the operation")
)

// UnknownIngredientError lists ingredient names that have no catalog entry,
// in the order they were declared.
type UnknownIngredientError struct {
	Missing []string
}

func (e *UnknownIngredientError) Error() string {
	return "unknown ingredients: " + strings.Join(e.Missing, ", ")
}

// UnknownDishError lists ordered dish names that are not on the menu.
type UnknownDishError struct {
	Missing []string
}

func (e *UnknownDishError) Error() string {
	return "unknown dishes: " + strings.Join(e.Missing, ", ")
}

// DishUnavailableError is returned when an ordered dish uses an ingredient
// that is out of stock.
type DishUnavailableError struct {
	Dish       string
	OutOfStock []string
}

func (e *DishUnavailableError) Error() string {
	return fmt.Sprintf("dish %q is unavailable: out of %s", e.Dish, strings.Join(e.OutOfStock, ", "))
}

// StatusConflictError means the order moved on since the caller read it.
type StatusConflictError struct {
	OrderID  string
	Expected models.OrderStatus
	Current  models.OrderStatus
}

func (e *StatusConflictError) Error() string {
	return fmt.Sprintf("order %s is %s, expected %s", e.OrderID, e.Current, e.Expected)
}

// translate maps repository sentinels onto service errors. Anything else,
// including the tagged errors above, passes through unchanged.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, repository.ErrInsufficientStock):
		return ErrStockNegative
	case errors.Is(err, repository.ErrTransactionAborted):
		return fmt.Errorf("%w: %v", ErrTransactionAborted, err)
	}
	return err
}
