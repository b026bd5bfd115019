package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lixing-Zhang/trattoria/backend/internal/config"
	"github.com/Lixing-Zhang/trattoria/backend/internal/events"
	"github.com/Lixing-Zhang/trattoria/backend/internal/handlers"
	"github.com/Lixing-Zhang/trattoria/backend/internal/repository"
	"github.com/Lixing-Zhang/trattoria/backend/internal/service"
	"github.com/Lixing-Zhang/trattoria/backend/internal/settings"
	"github.com/Lixing-Zhang/trattoria/backend/pkg/logger"
	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; real environment variables win
	_ = godotenv.Load()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting restaurant api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"store", cfg.Store.Driver,
		"log_level", cfg.LogLevel,
	)

	allowList, err := settings.NewStore(cfg.Settings.File)
	if err != nil {
		log.Error("failed to load settings", "file", cfg.Settings.File, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, pinger, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}

	publisher, err := openPublisher(cfg.Events)
	if err != nil {
		log.Error("failed to connect to broker", "error", err)
		os.Exit(1)
	}

	// Initialize services
	deps := handlers.Dependencies{
		Products: service.NewProductService(store, allowList, publisher, log),
		Dishes:   service.NewDishService(store, log),
		Orders:   service.NewOrderService(store, publisher, log),
		Settings: allowList,
		Store:    pinger,
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handlers.NewRouter(deps, cfg.Auth, log),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	if err := publisher.Close(); err != nil {
		log.Warn("failed to close publisher", "error", err)
	}
	if err := store.Close(ctx); err != nil {
		log.Warn("failed to close store", "error", err)
	}

	log.Info("server stopped gracefully")
}

// openStore returns the configured store and, for stores that can be
// health checked, the same value as a Pinger.
func openStore(ctx context.Context, cfg config.StoreConfig) (repository.Store, handlers.Pinger, error) {
	if cfg.Driver == config.DriverMongo {
		store, err := repository.NewMongoStore(ctx, repository.MongoConfig{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
			Timeout:  time.Duration(cfg.MongoTimeout) * time.Second,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}

	store, err := repository.NewMemoryStore()
	if err != nil {
		return nil, nil, err
	}
	return store, nil, nil
}

func openPublisher(cfg config.EventsConfig) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		return events.NoopPublisher{}, nil
	}
	return events.Dial(cfg.AMQPURL, cfg.Exchange)
}
