package service

import (
	"context"
	"slices"

	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
	"github.com/Lixing-Zhang/trattoria/backend/internal/repository"
)

// Composition is a declared ingredient list resolved against the catalog.
type Composition struct {
	Ingredients []models.DishIngredient `json:"ingredients"`
	// OutOfStock lists resolved ingredients whose stock was zero at resolution time.
	OutOfStock []string `json:"outOfStock,omitempty"`
}

// Available reports whether a dish with this composition can be served.
func (c Composition) Available() bool {
	return len(c.OutOfStock) == 0
}

// ResolveComposition looks every declared ingredient up by exact name in one
// batch query. Unknown names fail the whole list with UnknownIngredientError;
// nothing is written either way. Waste is taken from the caller, allergens
// from the catalog.
func ResolveComposition(ctx context.Context, products repository.ProductReader, declared []models.IngredientRequest) (Composition, error) {
	names := make([]string, len(declared))
	for i, ing := range declared {
		names[i] = ing.Name
	}

	found, err := products.FindProductsByNames(ctx, names)
	if err != nil {
		return Composition{}, translate(err)
	}
	byName := make(map[string]models.Product, len(found))
	for _, p := range found {
		byName[p.Name] = p
	}

	var missing []string
	for _, name := range names {
		if _, ok := byName[name]; !ok && !slices.Contains(missing, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Composition{}, &UnknownIngredientError{Missing: missing}
	}

	comp := Composition{Ingredients: make([]models.DishIngredient, len(declared))}
	for i, ing := range declared {
		p := byName[ing.Name]
		comp.Ingredients[i] = models.DishIngredient{
			Name:      ing.Name,
			Waste:     ing.Waste,
			Allergens: slices.Clone(p.Allergens),
		}
		if !p.InStock() {
			comp.OutOfStock = append(comp.OutOfStock, ing.Name)
		}
	}
	return comp, nil
}
