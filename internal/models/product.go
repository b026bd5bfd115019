package models

import (
	"slices"
	"time"
)

// Product is an ingredient in the inventory catalog. Name is its identity.
// The catalog is the only owner of stock; dishes mirror its in-stock fact
// through their Available flag.
type Product struct {
	Name       string    `json:"name" bson:"name"`
	Stock      int       `json:"stock" bson:"stock"`
	Categories []string  `json:"categories" bson:"categories"`
	Allergens  []string  `json:"allergens,omitempty" bson:"allergens,omitempty"`
	Brand      string    `json:"brand,omitempty" bson:"brand,omitempty"`
	Notes      string    `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updated_at"`
}

// InStock reports whether at least one unit is on hand.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// Clone returns a copy that shares no slices with p.
func (p Product) Clone() Product {
	p.Categories = slices.Clone(p.Categories)
	p.Allergens = slices.Clone(p.Allergens)
	return p
}

// ProductUpdate is a partial update of a product. Nil fields are left untouched.
type ProductUpdate struct {
	Stock      *int     `json:"stock,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Allergens  []string `json:"allergens,omitempty"`
	Brand      *string  `json:"brand,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
}

// Apply returns p with the update applied.
func (u ProductUpdate) Apply(p Product) Product {
	p = p.Clone()
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.Categories != nil {
		p.Categories = slices.Clone(u.Categories)
	}
	if u.Allergens != nil {
		p.Allergens = slices.Clone(u.Allergens)
	}
	if u.Brand != nil {
		p.Brand = *u.Brand
	}
	if u.Notes != nil {
		p.Notes = *u.Notes
	}
	return p
}

// StockAdjustment is the body of a stock delta request.
type StockAdjustment struct {
	Delta int `json:"delta"`
}
