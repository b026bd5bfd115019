package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Lixing-Zhang/trattoria/backend/internal/repository"
)

// CrossesZero reports whether a stock change moves a product between out of
// stock and in stock. Only such changes can affect dish availability.
func CrossesZero(previous, current int) bool {
	return (previous == 0) != (current == 0)
}

// Propagator keeps Dish.Available in line with ingredient stock. It always
// runs inside the unit of work that wrote the stock, so both writes commit
// or abort together.
type Propagator struct {
	logger *slog.Logger
}

// NewPropagator creates a propagator that logs through logger.
func NewPropagator(logger *slog.Logger) *Propagator {
	return &Propagator{logger: logger}
}

// OnStockUpdate flips availability on every dish using product when the
// stock crossed zero, and returns how many dishes changed. previous and
// current must come from the same atomic stock write.
//
// On restock a dish is only made available if none of its other
// ingredients is still out of stock.
func (p *Propagator) OnStockUpdate(ctx context.Context, uow repository.UnitOfWork, product string, previous, current int) (int, error) {
	if !CrossesZero(previous, current) {
		return 0, nil
	}

	available := current != 0
	var blocked []string
	if available {
		names, err := uow.OutOfStockProductNames(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to list out of stock products: %w", err)
		}
		blocked = slices.DeleteFunc(names, func(n string) bool { return n == product })
	}

	changed, err := uow.SetDishAvailability(ctx, product, available, blocked)
	if err != nil {
		return 0, fmt.Errorf("failed to propagate stock of %q: %w", product, err)
	}

	p.logger.Info("stock propagated",
		"product", product,
		"previous", previous,
		"current", current,
		"dishes_updated", changed,
	)
	return changed, nil
}
