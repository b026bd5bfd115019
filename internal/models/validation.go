package models

import (
	"fmt"
	"strings"
)

// ValidationError describes the first rule an entity payload broke.
type ValidationError struct {
	Entity string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s %s", e.Entity, e.Field, e.Reason)
}

func invalid(entity, field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Entity: entity, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// AllowList is the category/allergen vocabulary products are checked against.
type AllowList interface {
	HasCategory(name string) bool
	HasAllergen(name string) bool
}

// ValidateProduct checks a product against the allow-list vocabulary.
func ValidateProduct(p Product, allow AllowList) error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("product", "name", "is required")
	}
	if p.Stock < 0 {
		return invalid("product", "stock", "must not be negative")
	}
	if len(p.Categories) == 0 {
		return invalid("product", "categories", "must not be empty")
	}
	for _, c := range p.Categories {
		if !allow.HasCategory(c) {
			return invalid("product", "categories", "contains unknown category %q", c)
		}
	}
	for _, a := range p.Allergens {
		if !allow.HasAllergen(a) {
			return invalid("product", "allergens", "contains unknown allergen %q", a)
		}
	}
	return nil
}

// ValidateDish checks the shape of a dish payload. Ingredient existence is
// checked separately against the catalog.
func ValidateDish(req DishRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return invalid("dish", "name", "is required")
	}
	if !req.Category.Valid() {
		return invalid("dish", "category", "must be one of starter, main, dessert")
	}
	if req.Price <= 0 {
		return invalid("dish", "price", "must be greater than zero")
	}
	return ValidateIngredients(req.Ingredients)
}

// ValidateIngredients checks a declared ingredient list on its own, as used
// by the dry-run composition check.
func ValidateIngredients(ingredients []IngredientRequest) error {
	if len(ingredients) == 0 {
		return invalid("dish", "ingredients", "must not be empty")
	}
	seen := make(map[string]bool, len(ingredients))
	for _, ing := range ingredients {
		if ing.Name == "" {
			return invalid("dish", "ingredients", "contains an ingredient without a name")
		}
		if seen[ing.Name] {
			return invalid("dish", "ingredients", "lists %q more than once", ing.Name)
		}
		seen[ing.Name] = true
		if ing.Waste < 0 || ing.Waste >= 1 {
			return invalid("dish", "ingredients", "waste for %q must be in [0, 1)", ing.Name)
		}
	}
	return nil
}

// ValidateOrder checks a checkout payload before any dish is looked up.
func ValidateOrder(req OrderRequest) error {
	if strings.TrimSpace(req.UserID) == "" {
		return invalid("order", "userId", "is required")
	}
	if len(req.Items) == 0 {
		return invalid("order", "items", "must contain at least one item")
	}
	for _, item := range req.Items {
		if item.Dish == "" {
			return invalid("order", "items", "contains an item without a dish")
		}
		if item.Quantity <= 0 {
			return invalid("order", "items", "quantity for %q must be positive", item.Dish)
		}
	}
	if !req.Type.Valid() {
		return invalid("order", "type", "must be one of delivery, local, take_away")
	}
	hasAddress := strings.TrimSpace(req.Address) != ""
	if req.Type == OrderTypeDelivery && !hasAddress {
		return invalid("order", "address", "is required for delivery orders")
	}
	if req.Type != OrderTypeDelivery && hasAddress {
		return invalid("order", "address", "is only accepted for delivery orders")
	}
	if !req.PaymentMethod.Valid() {
		return invalid("order", "paymentMethod", "must be one of cash, card, online")
	}
	if req.TotalPrice != nil && *req.TotalPrice < 0 {
		return invalid("order", "totalPrice", "must not be negative")
	}
	return nil
}
