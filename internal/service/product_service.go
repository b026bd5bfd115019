package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Lixing-Zhang/trattoria/backend/internal/events"
	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
	"github.com/Lixing-Zhang/trattoria/backend/internal/repository"
	"github.com/Lixing-Zhang/trattoria/backend/internal/settings"
)

// SettingsProvider hands out the current allow-list snapshot.
type SettingsProvider interface {
	Current() *settings.Snapshot
}

// ProductService owns the ingredient catalog: stock counts and the
// availability facts derived from them.
type ProductService struct {
	store      repository.Store
	settings   SettingsProvider
	propagator *Propagator
	publisher  events.Publisher
	logger     *slog.Logger

	publishTimeout time.Duration
}

// NewProductService creates a new product service
func NewProductService(store repository.Store, allowList SettingsProvider, publisher events.Publisher, logger *slog.Logger) *ProductService {
	return &ProductService{
		store:      store,
		settings:   allowList,
		propagator: NewPropagator(logger),
		publisher:  publisher,
		logger:     logger,

		publishTimeout: defaultPublishTimeout,
	}
}

// ListProducts returns the catalog sorted by name
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, error) {
	var products []models.Product
	err := s.store.View(ctx, func(ctx context.Context, r repository.Reader) error {
		var err error
		products, err = r.ListProducts(ctx, filter)
		return err
	})
	return products, translate(err)
}

// GetProduct returns a product by name
func (s *ProductService) GetProduct(ctx context.Context, name string) (models.Product, error) {
	var product models.Product
	err := s.store.View(ctx, func(ctx context.Context, r repository.Reader) error {
		var err error
		product, err = r.FindProduct(ctx, name)
		return err
	})
	if err != nil {
		return models.Product{}, productError(name, err)
	}
	return product, nil
}

// CreateProduct adds a product to the catalog.
func (s *ProductService) CreateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	if err := models.ValidateProduct(p, s.settings.Current()); err != nil {
		return models.Product{}, err
	}

	now := time.Now().UTC()
	p = p.Clone()
	p.CreatedAt, p.UpdatedAt = now, now

	err := s.store.WithTransaction(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		return uow.InsertProduct(ctx, p)
	})
	if err != nil {
		return models.Product{}, productError(p.Name, err)
	}

	s.logger.Info("product created", "product", p.Name, "stock", p.Stock)
	return p, nil
}

// UpdateProduct applies a partial update. A stock change that crosses zero
// propagates to dishes in the same unit of work.
func (s *ProductService) UpdateProduct(ctx context.Context, name string, update models.ProductUpdate) (models.Product, error) {
	snapshot := s.settings.Current()

	var (
		updated models.Product
		change  availabilityChange
	)
	err := s.store.WithTransaction(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		current, err := uow.FindProduct(ctx, name)
		if err != nil {
			return err
		}

		next := update.Apply(current)
		next.UpdatedAt = time.Now().UTC()
		if err := models.ValidateProduct(next, snapshot); err != nil {
			return err
		}

		prev, err := uow.ReplaceProduct(ctx, next)
		if err != nil {
			return err
		}

		n, err := s.propagator.OnStockUpdate(ctx, uow, name, prev.Stock, next.Stock)
		if err != nil {
			return err
		}
		updated = next
		change = availabilityChange{product: name, available: next.InStock(), dishes: n}
		return nil
	})
	if err != nil {
		return models.Product{}, productError(name, err)
	}

	s.publishAvailability(ctx, change)
	return updated, nil
}

// AdjustStock adds delta to the stock of a product. The stock write and any
// dish availability change commit together; a delta that would make the
// stock negative is rejected with ErrStockNegative before anything changes,
// and one whose result does not fit in an int with a ValidationError.
func (s *ProductService) AdjustStock(ctx context.Context, name string, delta int) (models.Product, error) {
	if delta == math.MinInt {
		return models.Product{}, &models.ValidationError{Entity: "product", Field: "delta", Reason: "is out of range"}
	}

	var (
		updated models.Product
		change  availabilityChange
	)
	err := s.store.WithTransaction(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		sc, err := uow.AdjustProductStock(ctx, name, delta)
		if err != nil {
			return err
		}

		n, err := s.propagator.OnStockUpdate(ctx, uow, name, sc.Previous, sc.Product.Stock)
		if err != nil {
			return err
		}
		updated = sc.Product
		change = availabilityChange{product: name, available: sc.Product.InStock(), dishes: n}
		return nil
	})
	if err != nil {
		return models.Product{}, productError(name, err)
	}

	s.logger.Debug("stock adjusted", "product", name, "delta", delta, "stock", updated.Stock)
	s.publishAvailability(ctx, change)
	return updated, nil
}

// DeleteProduct removes a product that no dish uses.
func (s *ProductService) DeleteProduct(ctx context.Context, name string) error {
	err := s.store.WithTransaction(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		n, err := uow.CountDishesByIngredient(ctx, name)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %q is used by %d dishes", ErrProductInUse, name, n)
		}
		return uow.DeleteProduct(ctx, name)
	})
	if err != nil {
		return productError(name, err)
	}

	s.logger.Info("product deleted", "product", name)
	return nil
}

type availabilityChange struct {
	product   string
	available bool
	dishes    int
}

func (s *ProductService) publishAvailability(ctx context.Context, c availabilityChange) {
	if c.dishes == 0 {
		return
	}
	msg := events.AvailabilityChangedMessage{
		Product:       c.product,
		Available:     c.available,
		DishesChanged: c.dishes,
		Timestamp:     time.Now().UTC(),
	}
	ctx, cancel := publishContext(ctx, s.publishTimeout)
	defer cancel()
	if err := s.publisher.PublishAvailabilityChanged(ctx, msg); err != nil {
		s.logger.Warn("failed to publish availability change", "product", c.product, "error", err)
	}
}

func productError(name string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("product %q %w", name, ErrNotFound)
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("product %q %w", name, ErrAlreadyExists)
	}
	if errors.Is(err, repository.ErrStockOverflow) {
		return &models.ValidationError{Entity: "product", Field: "delta", Reason: fmt.Sprintf("would overflow the stock of %q", name)}
	}
	return translate(err)
}
