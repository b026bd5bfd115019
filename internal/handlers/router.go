package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Lixing-Zhang/trattoria/backend/internal/config"
	"github.com/Lixing-Zhang/trattoria/backend/internal/middleware"
	"github.com/Lixing-Zhang/trattoria/backend/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Products *service.ProductService
	Dishes   *service.DishService
	Orders   *service.OrderService
	Settings SettingsStore
	// Store is pinged by /health when set.
	Store Pinger
}

// NewRouter wires every route. Catalog, menu and settings mutations require
// an API key; reads and the order endpoints do not.
func NewRouter(deps Dependencies, auth config.AuthConfig, log *slog.Logger) http.Handler {
	healthHandler := NewHealthHandler(deps.Store, log)
	productHandler := NewProductHandler(deps.Products, log)
	dishHandler := NewDishHandler(deps.Dishes, log)
	orderHandler := NewOrderHandler(deps.Orders, log)
	settingsHandler := NewSettingsHandler(deps.Settings, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", middleware.APIKeyHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", productHandler.ListProducts)
		r.Get("/products/{name}", productHandler.GetProduct)
		r.Get("/dishes", dishHandler.ListDishes)
		r.Get("/dishes/{name}", dishHandler.GetDish)
		r.Get("/settings", settingsHandler.GetSettings)

		r.Get("/orders", orderHandler.ListOrders)
		r.Post("/orders", orderHandler.CreateOrder)
		r.Get("/orders/{id}", orderHandler.GetOrder)
		r.Patch("/orders/{id}/status", orderHandler.UpdateStatus)

		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(auth))

			r.Post("/products", productHandler.CreateProduct)
			r.Put("/products/{name}", productHandler.UpdateProduct)
			r.Post("/products/{name}/stock", productHandler.AdjustStock)
			r.Delete("/products/{name}", productHandler.DeleteProduct)

			r.Post("/dishes", dishHandler.CreateDish)
			r.Post("/dishes/validate", dishHandler.ValidateComposition)
			r.Put("/dishes/{name}", dishHandler.UpdateDish)
			r.Delete("/dishes/{name}", dishHandler.DeleteDish)

			r.Put("/settings", settingsHandler.ReplaceSettings)
			r.Post("/settings/reload", settingsHandler.ReloadSettings)
		})
	})

	return r
}
