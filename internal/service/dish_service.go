package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
	"github.com/Lixing-Zhang/trattoria/backend/internal/repository"
)

// DishService manages the menu. Dish availability is derived from stock when
// a dish is written and maintained afterwards by the Propagator.
type DishService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewDishService creates a new dish service
func NewDishService(store repository.Store, logger *slog.Logger) *DishService {
	return &DishService{store: store, logger: logger}
}

// ListDishes returns the menu sorted by name
func (s *DishService) ListDishes(ctx context.Context, filter repository.DishFilter) ([]models.Dish, error) {
	var dishes []models.Dish
	err := s.store.View(ctx, func(ctx context.Context, r repository.Reader) error {
		var err error
		dishes, err = r.ListDishes(ctx, filter)
		return err
	})
	return dishes, translate(err)
}

// GetDish returns a dish by name
func (s *DishService) GetDish(ctx context.Context, name string) (models.Dish, error) {
	var dish models.Dish
	err := s.store.View(ctx, func(ctx context.Context, r repository.Reader) error {
		var err error
		dish, err = r.FindDish(ctx, name)
		return err
	})
	if err != nil {
		return models.Dish{}, dishError(name, err)
	}
	return dish, nil
}

// ValidateDishComposition resolves an ingredient list without storing anything.
func (s *DishService) ValidateDishComposition(ctx context.Context, ingredients []models.IngredientRequest) (Composition, error) {
	if err := models.ValidateIngredients(ingredients); err != nil {
		return Composition{}, err
	}

	var comp Composition
	err := s.store.View(ctx, func(ctx context.Context, r repository.Reader) error {
		var err error
		comp, err = ResolveComposition(ctx, r, ingredients)
		return err
	})
	if err != nil {
		return Composition{}, translate(err)
	}
	return comp, nil
}

// CreateDish validates the payload, resolves its ingredients against the
// catalog and stores the dish with the availability read in the same unit
// of work.
func (s *DishService) CreateDish(ctx context.Context, req models.DishRequest) (models.Dish, error) {
	if err := models.ValidateDish(req); err != nil {
		return models.Dish{}, err
	}

	var dish models.Dish
	err := s.store.WithTransaction(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		comp, err := ResolveComposition(ctx, uow, req.Ingredients)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		dish = buildDish(req, comp)
		dish.CreatedAt, dish.UpdatedAt = now, now
		return uow.InsertDish(ctx, dish)
	})
	if err != nil {
		return models.Dish{}, dishError(req.Name, err)
	}

	s.logger.Info("dish created", "dish", dish.Name, "available", dish.Available)
	return dish, nil
}

// UpdateDish replaces the content of an existing dish. The name in the path
// is authoritative; a different name in the body is rejected.
func (s *DishService) UpdateDish(ctx context.Context, name string, req models.DishRequest) (models.Dish, error) {
	if req.Name == "" {
		req.Name = name
	}
	if req.Name != name {
		return models.Dish{}, &models.ValidationError{Entity: "dish", Field: "name", Reason: "cannot be changed"}
	}
	if err := models.ValidateDish(req); err != nil {
		return models.Dish{}, err
	}

	var dish models.Dish
	err := s.store.WithTransaction(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		current, err := uow.FindDish(ctx, name)
		if err != nil {
			return err
		}
		comp, err := ResolveComposition(ctx, uow, req.Ingredients)
		if err != nil {
			return err
		}

		dish = buildDish(req, comp)
		dish.CreatedAt = current.CreatedAt
		dish.UpdatedAt = time.Now().UTC()
		return uow.ReplaceDish(ctx, dish)
	})
	if err != nil {
		return models.Dish{}, dishError(name, err)
	}

	s.logger.Info("dish updated", "dish", dish.Name, "available", dish.Available)
	return dish, nil
}

// DeleteDish removes a dish from the menu. Orders keep their snapshots.
func (s *DishService) DeleteDish(ctx context.Context, name string) error {
	err := s.store.WithTransaction(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		return uow.DeleteDish(ctx, name)
	})
	if err != nil {
		return dishError(name, err)
	}
	s.logger.Info("dish deleted", "dish", name)
	return nil
}

func buildDish(req models.DishRequest, comp Composition) models.Dish {
	d := models.Dish{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Price:       req.Price,
		Available:   comp.Available(),
		Ingredients: comp.Ingredients,
		Custom:      req.Custom,
	}
	return d.Clone()
}

func dishError(name string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("dish %q %w", name, ErrNotFound)
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("dish %q %w", name, ErrAlreadyExists)
	}
	return translate(err)
}
