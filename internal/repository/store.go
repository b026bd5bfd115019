package repository

import (
	"context"
	"errors"

	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrDuplicate         = errors.New("document already exists")
	ErrInsufficientStock = errors.New("stock would become negative")
	// ErrStockOverflow means the adjusted stock does not fit in an int.
	ErrStockOverflow = errors.New("stock would overflow")
	// ErrConflict means a conditional write found the document changed since it was read.
	ErrConflict = errors.New("document changed concurrently")
	// ErrTransactionAborted means the store gave up on the unit of work; nothing was committed.
	ErrTransactionAborted = errors.New("transaction aborted")
)

// Store runs units of work. Every write that has to be atomic with another
// write goes through the same UnitOfWork value.
type Store interface {
	// WithTransaction runs fn in a single all-or-nothing unit of work. If fn
	// returns an error nothing it wrote is visible to anyone.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
	// View runs fn against a read-only view. It never blocks writers.
	View(ctx context.Context, fn func(ctx context.Context, r Reader) error) error
	Close(ctx context.Context) error
}

// StockChange is the result of an atomic stock update: the document as
// written plus the stock value it replaced.
type StockChange struct {
	Product  models.Product
	Previous int
}

// ProductFilter narrows ListProducts. Zero values match everything.
type ProductFilter struct {
	InStock  *bool
	Category string
}

// DishFilter narrows ListDishes.
type DishFilter struct {
	Category  models.DishCategory
	Available *bool
}

// OrderFilter narrows ListOrders.
type OrderFilter struct {
	UserID string
	Status models.OrderStatus
}

// UnitOfWork is the set of document operations available inside a transaction.
type UnitOfWork interface {
	ProductReader
	ProductWriter
	DishReader
	DishWriter
	OrderReader
	OrderWriter
}

// Reader is the read half of UnitOfWork.
type Reader interface {
	ProductReader
	DishReader
	OrderReader
}

type ProductReader interface {
	FindProduct(ctx context.Context, name string) (models.Product, error)
	// FindProductsByNames returns the products whose name exactly matches one of names.
	FindProductsByNames(ctx context.Context, names []string) ([]models.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	// OutOfStockProductNames lists every product whose stock is zero.
	OutOfStockProductNames(ctx context.Context) ([]string, error)
}

type ProductWriter interface {
	InsertProduct(ctx context.Context, p models.Product) error
	// ReplaceProduct stores p under its name and returns the document it replaced.
	ReplaceProduct(ctx context.Context, p models.Product) (models.Product, error)
	// AdjustProductStock adds delta to the stock in one find-and-modify. It
	// fails with ErrInsufficientStock, leaving the document untouched, when
	// the result would be negative, and with ErrStockOverflow when it would
	// exceed math.MaxInt.
	AdjustProductStock(ctx context.Context, name string, delta int) (StockChange, error)
	DeleteProduct(ctx context.Context, name string) error
}

type DishReader interface {
	FindDish(ctx context.Context, name string) (models.Dish, error)
	FindDishesByNames(ctx context.Context, names []string) ([]models.Dish, error)
	ListDishes(ctx context.Context, filter DishFilter) ([]models.Dish, error)
	CountDishesByIngredient(ctx context.Context, ingredient string) (int, error)
}

type DishWriter interface {
	InsertDish(ctx context.Context, d models.Dish) error
	ReplaceDish(ctx context.Context, d models.Dish) error
	DeleteDish(ctx context.Context, name string) error
	// SetDishAvailability sets Available on every dish referencing ingredient
	// in one bulk write. Dishes that also reference a name in blockedBy are
	// skipped. It returns the number of dishes whose flag changed.
	SetDishAvailability(ctx context.Context, ingredient string, available bool, blockedBy []string) (int, error)
}

type OrderReader interface {
	FindOrder(ctx context.Context, id string) (models.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)
}

type OrderWriter interface {
	InsertOrder(ctx context.Context, o models.Order) error
	// ReplaceOrderIfStatus replaces the order only while its stored status is
	// still expected; otherwise it returns ErrConflict.
	ReplaceOrderIfStatus(ctx context.Context, o models.Order, expected models.OrderStatus) error
}
