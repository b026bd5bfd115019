package service

import (
	"context"
	"testing"

	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
	"github.com/Lixing-Zhang/trattoria/backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductService_CreateProduct(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		product   models.Product
		wantField string
		wantErr   error
	}{
		{
			name:    "valid",
			product: models.Product{Name: "Tomato", Stock: 3, Categories: []string{"vegetable"}},
		},
		{
			name:    "duplicate",
			product: models.Product{Name: "Tomato", Stock: 1, Categories: []string{"vegetable"}},
			wantErr: ErrAlreadyExists,
		},
		{
			name:      "unknown category",
			product:   models.Product{Name: "Basil", Categories: []string{"herbology"}},
			wantField: "categories",
		},
		{
			name:      "unknown allergen",
			product:   models.Product{Name: "Basil", Categories: []string{"spice"}, Allergens: []string{"pollen"}},
			wantField: "allergens",
		},
		{
			name:      "negative stock",
			product:   models.Product{Name: "Basil", Stock: -1, Categories: []string{"spice"}},
			wantField: "stock",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := h.products.CreateProduct(ctx, tt.product)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantField != "":
				var verr *models.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantField, verr.Field)
			default:
				require.NoError(t, err)
				assert.False(t, p.CreatedAt.IsZero())
			}
		})
	}
}

func TestProductService_UpdateProduct(t *testing.T) {
	h := newHarness(t)
	h.product(t, "Tomato", 5)
	ctx := context.Background()

	brand := "San Marzano"
	p, err := h.products.UpdateProduct(ctx, "Tomato", models.ProductUpdate{
		Brand:     &brand,
		Allergens: []string{"celery"},
	})
	require.NoError(t, err)
	assert.Equal(t, "San Marzano", p.Brand)
	assert.Equal(t, 5, p.Stock)

	negative := -3
	_, err = h.products.UpdateProduct(ctx, "Tomato", models.ProductUpdate{Stock: &negative})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = h.products.UpdateProduct(ctx, "Basil", models.ProductUpdate{Brand: &brand})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductService_DeleteProduct(t *testing.T) {
	h := newHarness(t)
	h.pizzeria(t)
	h.product(t, "Saffron", 1)
	ctx := context.Background()

	assert.ErrorIs(t, h.products.DeleteProduct(ctx, "Tomato"), ErrProductInUse)
	require.NoError(t, h.products.DeleteProduct(ctx, "Saffron"))
	assert.ErrorIs(t, h.products.DeleteProduct(ctx, "Saffron"), ErrNotFound)
}

func TestProductService_ListProducts(t *testing.T) {
	h := newHarness(t)
	h.pizzeria(t)
	ctx := context.Background()

	_, err := h.products.AdjustStock(ctx, "Lettuce", -4)
	require.NoError(t, err)

	out := false
	products, err := h.products.ListProducts(ctx, repository.ProductFilter{InStock: &out})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Lettuce", products[0].Name)

	products, err = h.products.ListProducts(ctx, repository.ProductFilter{Category: "vegetable"})
	require.NoError(t, err)
	assert.Len(t, products, 4)
}
