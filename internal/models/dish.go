package models

import (
	"maps"
	"slices"
	"sort"
	"time"
)

// DishCategory is the menu section a dish belongs to.
type DishCategory string

const (
	DishCategoryStarter DishCategory = "starter"
	DishCategoryMain    DishCategory = "main"
	DishCategoryDessert DishCategory = "dessert"
)

// Valid reports whether c is a known menu section.
func (c DishCategory) Valid() bool {
	switch c {
	case DishCategoryStarter, DishCategoryMain, DishCategoryDessert:
		return true
	}
	return false
}

// DishIngredient is a copy of catalog data taken when the dish was last
// validated. Waste always comes from the caller, Allergens from the catalog.
type DishIngredient struct {
	Name      string   `json:"name" bson:"name"`
	Waste     float64  `json:"waste" bson:"waste"`
	Allergens []string `json:"allergens,omitempty" bson:"allergens,omitempty"`
}

// Dish is a menu item. Available is maintained by stock propagation and must
// be false while any referenced ingredient is out of stock.
type Dish struct {
	Name        string                 `json:"name" bson:"name"`
	Category    DishCategory           `json:"category" bson:"category"`
	Description string                 `json:"description,omitempty" bson:"description,omitempty"`
	Price       float64                `json:"price" bson:"price"`
	Available   bool                   `json:"available" bson:"available"`
	Ingredients []DishIngredient       `json:"ingredients" bson:"ingredients"`
	Custom      map[string]interface{} `json:"custom,omitempty" bson:"custom,omitempty"`
	CreatedAt   time.Time              `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time              `json:"updatedAt" bson:"updated_at"`
}

// IngredientNames returns the referenced catalog names in declaration order.
func (d Dish) IngredientNames() []string {
	names := make([]string, len(d.Ingredients))
	for i, ing := range d.Ingredients {
		names[i] = ing.Name
	}
	return names
}

// References reports whether the dish uses the named ingredient.
func (d Dish) References(name string) bool {
	for _, ing := range d.Ingredients {
		if ing.Name == name {
			return true
		}
	}
	return false
}

// Allergens returns the sorted union of the ingredient allergen snapshots.
func (d Dish) Allergens() []string {
	set := make(map[string]struct{})
	for _, ing := range d.Ingredients {
		for _, a := range ing.Allergens {
			set[a] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy of the ingredient list; Custom is copied one level deep.
func (d Dish) Clone() Dish {
	d.Ingredients = CloneIngredients(d.Ingredients)
	if d.Custom != nil {
		d.Custom = maps.Clone(d.Custom)
	}
	return d
}

// CloneIngredients copies an ingredient snapshot list.
func CloneIngredients(in []DishIngredient) []DishIngredient {
	if in == nil {
		return nil
	}
	out := make([]DishIngredient, len(in))
	for i, ing := range in {
		ing.Allergens = slices.Clone(ing.Allergens)
		out[i] = ing
	}
	return out
}

// IngredientRequest is a declared ingredient before catalog resolution.
type IngredientRequest struct {
	Name  string  `json:"name"`
	Waste float64 `json:"waste"`
}

// DishRequest is the create/update payload for a dish.
type DishRequest struct {
	Name        string                 `json:"name"`
	Category    DishCategory           `json:"category"`
	Description string                 `json:"description,omitempty"`
	Price       float64                `json:"price"`
	Ingredients []IngredientRequest    `json:"ingredients"`
	Custom      map[string]interface{} `json:"custom,omitempty"`
}
