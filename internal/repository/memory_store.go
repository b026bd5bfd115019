package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
	"github.com/hashicorp/go-memdb"
)

const (
	tableProducts = "products"
	tableDishes   = "dishes"
	tableOrders   = "orders"

	indexID         = "id"
	indexIngredient = "ingredient"
	indexUser       = "user"
)

// dishDocument indexes a dish by the names of its ingredients so the
// availability update can find every dependent dish in one lookup.
type dishDocument struct {
	Name            string
	IngredientNames []string
	Dish            models.Dish
}

func newDishDocument(d models.Dish) *dishDocument {
	d = d.Clone()
	return &dishDocument{Name: d.Name, IngredientNames: d.IngredientNames(), Dish: d}
}

func memorySchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableProducts: {
				Name: tableProducts,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {Name: indexID, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Name"}},
				},
			},
			tableDishes: {
				Name: tableDishes,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {Name: indexID, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Name"}},
					indexIngredient: {
						Name:         indexIngredient,
						AllowMissing: true,
						Indexer:      &memdb.StringSliceFieldIndex{Field: "IngredientNames"},
					},
				},
			},
			tableOrders: {
				Name: tableOrders,
				Indexes: map[string]*memdb.IndexSchema{
					indexID:   {Name: indexID, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					indexUser: {Name: indexUser, AllowMissing: true, Indexer: &memdb.StringFieldIndex{Field: "UserID"}},
				},
			},
		},
	}
}

// MemoryStore is a Store backed by go-memdb. Write transactions are
// serialized by memdb, so each unit of work sees a stable view and either
// commits whole or is aborted.
type MemoryStore struct {
	db *memdb.MemDB
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() (*MemoryStore, error) {
	db, err := memdb.NewMemDB(memorySchema())
	if err != nil {
		return nil, fmt.Errorf("failed to create memdb: %w", err)
	}
	return &MemoryStore{db: db}, nil
}

// WithTransaction implements Store.
func (s *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	txn := s.db.Txn(true)
	defer txn.Abort()

	if err := fn(ctx, &memoryUnit{txn: txn}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionAborted, err)
	}

	txn.Commit()
	return nil
}

// View implements Store with a memdb read transaction.
func (s *MemoryStore) View(ctx context.Context, fn func(ctx context.Context, r Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	txn := s.db.Txn(false)
	defer txn.Abort()
	return fn(ctx, &memoryUnit{txn: txn})
}

// Close implements Store.
func (s *MemoryStore) Close(context.Context) error {
	return nil
}

type memoryUnit struct {
	txn *memdb.Txn
}

func (u *memoryUnit) first(table, name string) (interface{}, error) {
	raw, err := u.txn.First(table, indexID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %q: %w", table, name, err)
	}
	return raw, nil
}

func (u *memoryUnit) all(table, index string, args ...interface{}) ([]interface{}, error) {
	it, err := u.txn.Get(table, index, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", table, err)
	}
	var out []interface{}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw)
	}
	return out, nil
}

// Products

func (u *memoryUnit) FindProduct(_ context.Context, name string) (models.Product, error) {
	raw, err := u.first(tableProducts, name)
	if err != nil {
		return models.Product{}, err
	}
	if raw == nil {
		return models.Product{}, ErrNotFound
	}
	return raw.(*models.Product).Clone(), nil
}

func (u *memoryUnit) FindProductsByNames(ctx context.Context, names []string) ([]models.Product, error) {
	seen := make(map[string]bool, len(names))
	var out []models.Product
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		p, err := u.FindProduct(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (u *memoryUnit) ListProducts(_ context.Context, filter ProductFilter) ([]models.Product, error) {
	raws, err := u.all(tableProducts, indexID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(raws))
	for _, raw := range raws {
		p := raw.(*models.Product)
		if filter.InStock != nil && p.InStock() != *filter.InStock {
			continue
		}
		if filter.Category != "" && !slices.Contains(p.Categories, filter.Category) {
			continue
		}
		out = append(out, p.Clone())
	}
	return out, nil
}

func (u *memoryUnit) OutOfStockProductNames(_ context.Context) ([]string, error) {
	raws, err := u.all(tableProducts, indexID)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, raw := range raws {
		if p := raw.(*models.Product); p.Stock == 0 {
			names = append(names, p.Name)
		}
	}
	return names, nil
}

func (u *memoryUnit) InsertProduct(ctx context.Context, p models.Product) error {
	if _, err := u.FindProduct(ctx, p.Name); err == nil {
		return ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	doc := p.Clone()
	return u.txn.Insert(tableProducts, &doc)
}

func (u *memoryUnit) ReplaceProduct(ctx context.Context, p models.Product) (models.Product, error) {
	prev, err := u.FindProduct(ctx, p.Name)
	if err != nil {
		return models.Product{}, err
	}
	doc := p.Clone()
	if err := u.txn.Insert(tableProducts, &doc); err != nil {
		return models.Product{}, fmt.Errorf("failed to replace product: %w", err)
	}
	return prev, nil
}

func (u *memoryUnit) AdjustProductStock(ctx context.Context, name string, delta int) (StockChange, error) {
	prev, err := u.FindProduct(ctx, name)
	if err != nil {
		return StockChange{}, err
	}
	if delta > 0 && prev.Stock > math.MaxInt-delta {
		return StockChange{}, ErrStockOverflow
	}
	if prev.Stock+delta < 0 {
		return StockChange{}, ErrInsufficientStock
	}

	doc := prev.Clone()
	doc.Stock = prev.Stock + delta
	doc.UpdatedAt = time.Now().UTC()
	if err := u.txn.Insert(tableProducts, &doc); err != nil {
		return StockChange{}, fmt.Errorf("failed to update stock: %w", err)
	}
	return StockChange{Product: doc.Clone(), Previous: prev.Stock}, nil
}

func (u *memoryUnit) DeleteProduct(_ context.Context, name string) error {
	raw, err := u.first(tableProducts, name)
	if err != nil {
		return err
	}
	if raw == nil {
		return ErrNotFound
	}
	return u.txn.Delete(tableProducts, raw)
}

// Dishes

func (u *memoryUnit) FindDish(_ context.Context, name string) (models.Dish, error) {
	raw, err := u.first(tableDishes, name)
	if err != nil {
		return models.Dish{}, err
	}
	if raw == nil {
		return models.Dish{}, ErrNotFound
	}
	return raw.(*dishDocument).Dish.Clone(), nil
}

func (u *memoryUnit) FindDishesByNames(ctx context.Context, names []string) ([]models.Dish, error) {
	seen := make(map[string]bool, len(names))
	var out []models.Dish
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		d, err := u.FindDish(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (u *memoryUnit) ListDishes(_ context.Context, filter DishFilter) ([]models.Dish, error) {
	raws, err := u.all(tableDishes, indexID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Dish, 0, len(raws))
	for _, raw := range raws {
		d := raw.(*dishDocument).Dish
		if filter.Category != "" && d.Category != filter.Category {
			continue
		}
		if filter.Available != nil && d.Available != *filter.Available {
			continue
		}
		out = append(out, d.Clone())
	}
	return out, nil
}

func (u *memoryUnit) CountDishesByIngredient(_ context.Context, ingredient string) (int, error) {
	raws, err := u.all(tableDishes, indexIngredient, ingredient)
	if err != nil {
		return 0, err
	}
	return len(raws), nil
}

func (u *memoryUnit) InsertDish(ctx context.Context, d models.Dish) error {
	if _, err := u.FindDish(ctx, d.Name); err == nil {
		return ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return u.txn.Insert(tableDishes, newDishDocument(d))
}

func (u *memoryUnit) ReplaceDish(ctx context.Context, d models.Dish) error {
	if _, err := u.FindDish(ctx, d.Name); err != nil {
		return err
	}
	return u.txn.Insert(tableDishes, newDishDocument(d))
}

func (u *memoryUnit) DeleteDish(_ context.Context, name string) error {
	raw, err := u.first(tableDishes, name)
	if err != nil {
		return err
	}
	if raw == nil {
		return ErrNotFound
	}
	return u.txn.Delete(tableDishes, raw)
}

func (u *memoryUnit) SetDishAvailability(_ context.Context, ingredient string, available bool, blockedBy []string) (int, error) {
	// Collect first: the tree must not be modified while iterating it.
	raws, err := u.all(tableDishes, indexIngredient, ingredient)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	changed := 0
	for _, raw := range raws {
		d := raw.(*dishDocument).Dish
		if d.Available == available || referencesAny(d, blockedBy) {
			continue
		}
		d = d.Clone()
		d.Available = available
		d.UpdatedAt = now
		if err := u.txn.Insert(tableDishes, newDishDocument(d)); err != nil {
			return 0, fmt.Errorf("failed to update dish %q: %w", d.Name, err)
		}
		changed++
	}
	return changed, nil
}

func referencesAny(d models.Dish, names []string) bool {
	for _, name := range names {
		if d.References(name) {
			return true
		}
	}
	return false
}

// Orders

func (u *memoryUnit) FindOrder(_ context.Context, id string) (models.Order, error) {
	raw, err := u.first(tableOrders, id)
	if err != nil {
		return models.Order{}, err
	}
	if raw == nil {
		return models.Order{}, ErrNotFound
	}
	return raw.(*models.Order).Clone(), nil
}

func (u *memoryUnit) ListOrders(_ context.Context, filter OrderFilter) ([]models.Order, error) {
	var (
		raws []interface{}
		err  error
	)
	if filter.UserID != "" {
		raws, err = u.all(tableOrders, indexUser, filter.UserID)
	} else {
		raws, err = u.all(tableOrders, indexID)
	}
	if err != nil {
		return nil, err
	}

	out := make([]models.Order, 0, len(raws))
	for _, raw := range raws {
		o := raw.(*models.Order)
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, o.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (u *memoryUnit) InsertOrder(ctx context.Context, o models.Order) error {
	if _, err := u.FindOrder(ctx, o.ID); err == nil {
		return ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	doc := o.Clone()
	return u.txn.Insert(tableOrders, &doc)
}

func (u *memoryUnit) ReplaceOrderIfStatus(ctx context.Context, o models.Order, expected models.OrderStatus) error {
	stored, err := u.FindOrder(ctx, o.ID)
	if err != nil {
		return err
	}
	if stored.Status != expected {
		return ErrConflict
	}
	doc := o.Clone()
	return u.txn.Insert(tableOrders, &doc)
}
