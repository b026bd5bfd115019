package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_DRIVER", "API_KEYS", "LOG_LEVEL", "AMQP_URL", "SETTINGS_FILE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Store.Driver != DriverMemory {
		t.Errorf("driver = %q, want memory", cfg.Store.Driver)
	}
	if cfg.Events.Exchange != "restaurant_events" {
		t.Errorf("exchange = %q", cfg.Events.Exchange)
	}
	if len(cfg.Auth.APIKeys) != 1 || cfg.Auth.APIKeys[0] != "apitest" {
		t.Errorf("api keys = %v", cfg.Auth.APIKeys)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("MONGO_DATABASE", "menu")
	t.Setenv("API_KEYS", "a, b,,c")
	t.Setenv("READ_TIMEOUT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Driver != DriverMongo || cfg.Store.MongoDatabase != "menu" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if got := len(cfg.Auth.APIKeys); got != 3 {
		t.Errorf("api keys = %v, want 3 keys", cfg.Auth.APIKeys)
	}
	if cfg.Server.ReadTimeout != 15 {
		t.Errorf("read timeout = %d, want fallback 15", cfg.Server.ReadTimeout)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: "8080"},
			Auth:     AuthConfig{APIKeys: []string{"k"}},
			Store:    StoreConfig{Driver: DriverMemory},
			Events:   EventsConfig{Exchange: "x"},
			LogLevel: "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "no port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: true},
		{name: "no api keys", mutate: func(c *Config) { c.Auth.APIKeys = nil }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "sqlite" }, wantErr: true},
		{
			name: "mongo without database",
			mutate: func(c *Config) {
				c.Store = StoreConfig{Driver: DriverMongo, MongoURI: "mongodb://x", MongoTimeout: 5}
			},
			wantErr: true,
		},
		{
			name: "mongo complete",
			mutate: func(c *Config) {
				c.Store = StoreConfig{Driver: DriverMongo, MongoURI: "mongodb://x", MongoDatabase: "db", MongoTimeout: 5}
			},
		},
		{
			name:    "amqp without exchange",
			mutate:  func(c *Config) { c.Events = EventsConfig{AMQPURL: "amqp://localhost"} },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
