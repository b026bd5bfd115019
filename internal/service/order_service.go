package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Lixing-Zhang/trattoria/backend/internal/events"
	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
	"github.com/Lixing-Zhang/trattoria/backend/internal/orderstate"
	"github.com/Lixing-Zhang/trattoria/backend/internal/pricing"
	"github.com/Lixing-Zhang/trattoria/backend/internal/repository"
	"github.com/google/uuid"
)

// OrderService handles order placement and the order lifecycle
type OrderService struct {
	store     repository.Store
	publisher events.Publisher
	logger    *slog.Logger
	newID     func() string
	now       func() time.Time

	publishTimeout time.Duration
}

// NewOrderService creates a new order service
func NewOrderService(store repository.Store, publisher events.Publisher, logger *slog.Logger) *OrderService {
	return &OrderService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		newID:     generateOrderID,
		now:       func() time.Time { return time.Now().UTC() },

		publishTimeout: defaultPublishTimeout,
	}
}

// PlaceOrder validates a checkout request against the live menu and stock
// and stores the order with a snapshot of every ordered dish. Stock is not
// reserved or decremented here.
func (s *OrderService) PlaceOrder(ctx context.Context, req models.OrderRequest) (models.Order, error) {
	if err := models.ValidateOrder(req); err != nil {
		return models.Order{}, err
	}

	var order models.Order
	err := s.store.WithTransaction(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		items, err := snapshotItems(ctx, uow, req.Items)
		if err != nil {
			return err
		}

		total := pricing.Total(items)
		if req.TotalPrice != nil && !pricing.Matches(total, *req.TotalPrice) {
			return fmt.Errorf("%w: expected %s, got %.2f", ErrTotalMismatch, total.StringFixed(2), *req.TotalPrice)
		}

		now := s.now()
		status := orderstate.InitialStatus(req.Type)
		order = models.Order{
			ID:            s.newID(),
			UserID:        req.UserID,
			Items:         items,
			Type:          req.Type,
			Address:       req.Address,
			PaymentMethod: req.PaymentMethod,
			TotalPrice:    pricing.Float(total),
			Status:        status,
			History:       []models.StatusChange{{To: status, At: now}},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return uow.InsertOrder(ctx, order)
	})
	if err != nil {
		return models.Order{}, translate(err)
	}

	s.logger.Info("order placed",
		"order_id", order.ID,
		"user_id", order.UserID,
		"status", order.Status,
		"total", order.TotalPrice,
	)
	pubCtx, cancel := publishContext(ctx, s.publishTimeout)
	defer cancel()
	if err := s.publisher.PublishOrderPlaced(pubCtx, events.NewOrderPlaced(order)); err != nil {
		s.logger.Warn("failed to publish order placed", "order_id", order.ID, "error", err)
	}
	return order, nil
}

// snapshotItems copies name, price and ingredients of each ordered dish.
// Every dish must exist and every ingredient it uses must be in stock.
func snapshotItems(ctx context.Context, uow repository.UnitOfWork, requested []models.OrderItemRequest) ([]models.OrderItem, error) {
	var names []string
	for _, item := range requested {
		if !slices.Contains(names, item.Dish) {
			names = append(names, item.Dish)
		}
	}

	found, err := uow.FindDishesByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	dishes := make(map[string]models.Dish, len(found))
	for _, d := range found {
		dishes[d.Name] = d
	}

	var missing, ingredients []string
	for _, name := range names {
		d, ok := dishes[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		for _, ing := range d.IngredientNames() {
			if !slices.Contains(ingredients, ing) {
				ingredients = append(ingredients, ing)
			}
		}
	}
	if len(missing) > 0 {
		return nil, &UnknownDishError{Missing: missing}
	}

	comp, err := ResolveComposition(ctx, uow, ingredientRequests(ingredients))
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		var out []string
		for _, ing := range dishes[name].IngredientNames() {
			if slices.Contains(comp.OutOfStock, ing) {
				out = append(out, ing)
			}
		}
		if len(out) > 0 {
			return nil, &DishUnavailableError{Dish: name, OutOfStock: out}
		}
	}

	items := make([]models.OrderItem, len(requested))
	for i, item := range requested {
		d := dishes[item.Dish]
		items[i] = models.OrderItem{
			Name:        d.Name,
			Quantity:    item.Quantity,
			Price:       d.Price,
			Ingredients: models.CloneIngredients(d.Ingredients),
		}
	}
	return items, nil
}

func ingredientRequests(names []string) []models.IngredientRequest {
	out := make([]models.IngredientRequest, len(names))
	for i, name := range names {
		out[i] = models.IngredientRequest{Name: name}
	}
	return out
}

// TransitionOrder moves an order to req.Status. The current status is read,
// checked against the transition table and written back in one unit of
// work, and the write only lands if the stored status is still the one that
// was checked. When req.Expected is set it must match the stored status.
//
// Without Expected a request that loses a race is checked against the
// status the winner wrote, and succeeds if that edge is legal too. Callers
// that need exactly one of several concurrent transitions to win must send
// Expected.
func (s *OrderService) TransitionOrder(ctx context.Context, id string, req models.StatusRequest) (models.Order, error) {
	if !req.Status.Valid() {
		return models.Order{}, &models.ValidationError{Entity: "order", Field: "status", Reason: fmt.Sprintf("unknown status %q", req.Status)}
	}
	if req.Expected != "" && !req.Expected.Valid() {
		return models.Order{}, &models.ValidationError{Entity: "order", Field: "expected", Reason: fmt.Sprintf("unknown status %q", req.Expected)}
	}

	var (
		order models.Order
		from  models.OrderStatus
	)
	err := s.store.WithTransaction(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		current, err := uow.FindOrder(ctx, id)
		if err != nil {
			return err
		}
		if req.Expected != "" && current.Status != req.Expected {
			return &StatusConflictError{OrderID: id, Expected: req.Expected, Current: current.Status}
		}
		if err := orderstate.CheckTransition(current.Status, req.Status); err != nil {
			return err
		}

		now := s.now()
		next := current.Clone()
		next.Status = req.Status
		next.UpdatedAt = now
		next.History = append(next.History, models.StatusChange{From: current.Status, To: req.Status, At: now})

		err = uow.ReplaceOrderIfStatus(ctx, next, current.Status)
		if errors.Is(err, repository.ErrConflict) {
			latest, findErr := uow.FindOrder(ctx, id)
			if findErr != nil {
				return findErr
			}
			return &StatusConflictError{OrderID: id, Expected: current.Status, Current: latest.Status}
		}
		if err != nil {
			return err
		}
		order, from = next, current.Status
		return nil
	})
	if err != nil {
		return models.Order{}, orderError(id, err)
	}

	s.logger.Info("order status changed", "order_id", id, "from", from, "to", order.Status)
	msg := events.StatusChangedMessage{OrderID: id, From: from, To: order.Status, Timestamp: order.UpdatedAt}
	pubCtx, cancel := publishContext(ctx, s.publishTimeout)
	defer cancel()
	if err := s.publisher.PublishStatusChanged(pubCtx, msg); err != nil {
		s.logger.Warn("failed to publish status change", "order_id", id, "error", err)
	}
	return order, nil
}

// GetOrder returns an order by id
func (s *OrderService) GetOrder(ctx context.Context, id string) (models.Order, error) {
	var order models.Order
	err := s.store.View(ctx, func(ctx context.Context, r repository.Reader) error {
		var err error
		order, err = r.FindOrder(ctx, id)
		return err
	})
	if err != nil {
		return models.Order{}, orderError(id, err)
	}
	return order, nil
}

// ListOrders returns matching orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]models.Order, error) {
	var orders []models.Order
	err := s.store.View(ctx, func(ctx context.Context, r repository.Reader) error {
		var err error
		orders, err = r.ListOrders(ctx, filter)
		return err
	})
	return orders, translate(err)
}

func orderError(id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("order %s %w", id, ErrNotFound)
	}
	return translate(err)
}

// generateOrderID generates a unique order ID using UUID
func generateOrderID() string {
	return uuid.New().String()
}
