// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Undo      UndoConfig
	Favicon   FaviconConfig
	Browser   BrowserConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8090"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// StorageConfig holds persistence configuration. MaxBytes mirrors the
// browser's local-storage quota and drives usage warnings.
type StorageConfig struct {
	Path     string `envconfig:"STORAGE_PATH" default:"./data"`
	MaxBytes int64  `envconfig:"STORAGE_MAX_BYTES" default:"5242880"`
	TagsFile string `envconfig:"TAGS_FILE" default:""`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"50"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"100"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// UndoConfig bounds the lifetime of the single undo slot.
type UndoConfig struct {
	TTL time.Duration `envconfig:"UNDO_TTL" default:"5s"`
}

// FaviconConfig controls best-effort favicon resolution for tabs that
// report none.
type FaviconConfig struct {
	Enabled bool          `envconfig:"FAVICON_ENABLED" default:"true"`
	Timeout time.Duration `envconfig:"FAVICON_TIMEOUT" default:"3s"`
}

// BrowserConfig locates the extension's loopback bridge, which relays
// tab operations into the running browser.
type BrowserConfig struct {
	BridgeURL string        `envconfig:"BROWSER_BRIDGE_URL" default:"http://127.0.0.1:8091"`
	Timeout   time.Duration `envconfig:"BROWSER_TIMEOUT" default:"10s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8090", Host: "127.0.0.1"},
		Storage: StorageConfig{Path: "./data", MaxBytes: 5242880},
		Logging: LogConfig{Level: "info"},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
		Undo:    UndoConfig{TTL: 5 * time.Second},
		Favicon: FaviconConfig{Enabled: true, Timeout: 3 * time.Second},
		Browser: BrowserConfig{BridgeURL: "http://127.0.0.1:8091", Timeout: 10 * time.Second},
	}
}
