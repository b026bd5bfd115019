package service

import (
	"context"
	"testing"

	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDishComposition(t *testing.T) {
	h := newHarness(t)
	h.product(t, "Tomato", 5)
	h.product(t, "Mozzarella", 0, "milk")
	ctx := context.Background()

	tests := []struct {
		name        string
		ingredients []models.IngredientRequest
		wantMissing []string
		wantOut     []string
	}{
		{
			name:        "unknown ingredient is listed",
			ingredients: []models.IngredientRequest{{Name: "Tomato", Waste: 0.1}, {Name: "Unicorn", Waste: 0}},
			wantMissing: []string{"Unicorn"},
		},
		{
			name:        "names match case-sensitively",
			ingredients: []models.IngredientRequest{{Name: "tomato"}, {Name: "Mozzarella"}, {Name: "Dragon"}},
			wantMissing: []string{"tomato", "Dragon"},
		},
		{
			name:        "out of stock ingredient resolves",
			ingredients: []models.IngredientRequest{{Name: "Mozzarella", Waste: 0.2}, {Name: "Tomato"}},
			wantOut:     []string{"Mozzarella"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp, err := h.dishes.ValidateDishComposition(ctx, tt.ingredients)
			if tt.wantMissing != nil {
				var unknown *UnknownIngredientError
				require.ErrorAs(t, err, &unknown)
				assert.Equal(t, tt.wantMissing, unknown.Missing)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOut, comp.OutOfStock)
			assert.Equal(t, len(tt.wantOut) == 0, comp.Available())
		})
	}
}

func TestValidateDishComposition_WasteFromCallerAllergensFromCatalog(t *testing.T) {
	h := newHarness(t)
	h.product(t, "Mozzarella", 3, "milk")

	comp, err := h.dishes.ValidateDishComposition(context.Background(), []models.IngredientRequest{
		{Name: "Mozzarella", Waste: 0.25},
	})
	require.NoError(t, err)
	require.Len(t, comp.Ingredients, 1)
	assert.Equal(t, models.DishIngredient{Name: "Mozzarella", Waste: 0.25, Allergens: []string{"milk"}}, comp.Ingredients[0])
}

func TestValidateDishComposition_ShapeErrors(t *testing.T) {
	h := newHarness(t)

	_, err := h.dishes.ValidateDishComposition(context.Background(), nil)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "ingredients", verr.Field)

	_, err = h.dishes.ValidateDishComposition(context.Background(), []models.IngredientRequest{{Name: "Tomato", Waste: 1}})
	require.ErrorAs(t, err, &verr)
}
