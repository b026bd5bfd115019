package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the application
// Following 12-factor app principles, all config is loaded from environment variables
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Store    StoreConfig
	Events   EventsConfig
	Settings SettingsConfig
	LogLevel string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

type AuthConfig struct {
	APIKeys []string // Valid API keys for the admin routes
}

const (
	DriverMemory = "memory"
	DriverMongo  = "mongo"
)

type StoreConfig struct {
	Driver        string
	MongoURI      string
	MongoDatabase string
	MongoTimeout  int
}

type EventsConfig struct {
	AMQPURL  string // empty disables publishing
	Exchange string
}

type SettingsConfig struct {
	File string // yaml allow-list file; built-in defaults when empty
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout:    getEnvAsInt("WRITE_TIMEOUT", 15),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 30),
		},
		Auth: AuthConfig{
			APIKeys: getEnvAsSlice("API_KEYS", []string{"apitest"}),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(getEnv("STORE_DRIVER", DriverMemory)),
			MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
			MongoDatabase: getEnv("MONGO_DATABASE", "restaurant"),
			MongoTimeout:  getEnvAsInt("MONGO_TIMEOUT", 10),
		},
		Events: EventsConfig{
			AMQPURL:  getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "restaurant_events"),
		},
		Settings: SettingsConfig{
			File: getEnv("SETTINGS_FILE", ""),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("at least one API key must be configured")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" {
			return fmt.Errorf("MONGO_URI and MONGO_DATABASE are required for the mongo store")
		}
		if c.Store.MongoTimeout <= 0 {
			return fmt.Errorf("MONGO_TIMEOUT must be positive")
		}
	default:
		return fmt.Errorf("invalid store driver: %s (must be memory or mongo)", c.Store.Driver)
	}

	if c.Events.AMQPURL != "" && c.Events.Exchange == "" {
		return fmt.Errorf("AMQP_EXCHANGE is required when AMQP_URL is set")
	}

	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
