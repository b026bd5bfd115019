package handlers

import (
	"net/http"
	"reflect"
	"testing"

	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
)

func TestCreateDish_UnknownIngredient(t *testing.T) {
	srv := newTestServer(t)
	srv.seedMenu(t)

	body := map[string]interface{}{
		"name":     "Unicorn Pizza",
		"category": "main",
		"price":    12,
		"ingredients": []map[string]interface{}{
			{"name": "Tomato", "waste": 0.1},
			{"name": "Unicorn", "waste": 0},
		},
	}
	w := srv.do(t, http.MethodPost, "/api/dishes", body, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var resp struct {
		Error   string   `json:"error"`
		Missing []string `json:"missing"`
	}
	decode(t, w, &resp)
	if !reflect.DeepEqual(resp.Missing, []string{"Unicorn"}) {
		t.Errorf("missing = %v, want [Unicorn]", resp.Missing)
	}

	srv.mustDo(t, http.MethodGet, "/api/dishes/Unicorn%20Pizza", nil, http.StatusNotFound)
}

func TestValidateComposition(t *testing.T) {
	srv := newTestServer(t)
	srv.seedMenu(t)

	w := srv.mustDo(t, http.MethodPost, "/api/dishes/validate", map[string]interface{}{
		"ingredients": []map[string]interface{}{{"name": "Flour", "waste": 0.2}},
	}, http.StatusOK)

	var resp struct {
		Ingredients []models.DishIngredient `json:"ingredients"`
	}
	decode(t, w, &resp)
	want := []models.DishIngredient{{Name: "Flour", Waste: 0.2, Allergens: []string{"gluten"}}}
	if !reflect.DeepEqual(resp.Ingredients, want) {
		t.Errorf("ingredients = %+v, want %+v", resp.Ingredients, want)
	}

	srv.mustDo(t, http.MethodPost, "/api/dishes/validate", map[string]interface{}{
		"ingredients": []map[string]interface{}{{"name": "Flour", "waste": 1.5}},
	}, http.StatusBadRequest)
}

func TestListDishes(t *testing.T) {
	srv := newTestServer(t)
	srv.seedMenu(t)
	srv.mustDo(t, http.MethodPost, "/api/products/Tomato/stock", map[string]int{"delta": -5}, http.StatusOK)

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantNames []string
	}{
		{name: "all", wantCode: http.StatusOK, wantNames: []string{"Bread", "Margherita"}},
		{name: "available", query: "?available=true", wantCode: http.StatusOK, wantNames: []string{"Bread"}},
		{name: "by category", query: "?category=main", wantCode: http.StatusOK, wantNames: []string{"Margherita"}},
		{name: "bad category", query: "?category=brunch", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(t, http.MethodGet, "/api/dishes"+tt.query, nil, false)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var dishes []models.Dish
			decode(t, w, &dishes)
			var names []string
			for _, d := range dishes {
				names = append(names, d.Name)
			}
			if !reflect.DeepEqual(names, tt.wantNames) {
				t.Errorf("names = %v, want %v", names, tt.wantNames)
			}
		})
	}
}

func TestUpdateDish(t *testing.T) {
	srv := newTestServer(t)
	srv.seedMenu(t)

	w := srv.mustDo(t, http.MethodPut, "/api/dishes/Bread", map[string]interface{}{
		"category":    "starter",
		"price":       4,
		"description": "garlic bread",
		"ingredients": []map[string]interface{}{{"name": "Flour"}, {"name": "Tomato"}},
	}, http.StatusOK)

	var d models.Dish
	decode(t, w, &d)
	if d.Price != 4 || len(d.Ingredients) != 2 || !d.Available {
		t.Errorf("unexpected dish: %+v", d)
	}

	srv.mustDo(t, http.MethodPut, "/api/dishes/Focaccia", map[string]interface{}{
		"category":    "starter",
		"price":       4,
		"ingredients": []map[string]interface{}{{"name": "Flour"}},
	}, http.StatusNotFound)
}
