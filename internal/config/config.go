// Package config loads the storefront configuration from YAML with
// environment overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full storefront configuration.
type Config struct {
	Listen  string        `yaml:"listen"`
	Storage StorageConfig `yaml:"storage"`
	Remote  RemoteConfig  `yaml:"remote"`
	Menu    MenuConfig    `yaml:"menu"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	// Driver is one of "memory", "postgres" or "redis". Redis only holds
	// cart snapshots; orders and the menu cache fall back to memory.
	Driver      string `yaml:"driver"`
	PostgresDSN string `yaml:"postgres_dsn"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisDB     int    `yaml:"redis_db"`
}

// RemoteConfig points at the document backend holding the menu and orders.
type RemoteConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// MenuConfig tunes the catalog cache.
type MenuConfig struct {
	// RefreshInterval enables the background refresher when positive.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Listen: ":8080",
		Storage: StorageConfig{
			Driver: "memory",
		},
		Remote: RemoteConfig{
			Timeout:    10 * time.Second,
			MaxRetries: 2,
		},
		Menu: MenuConfig{
			RefreshInterval: 5 * time.Minute,
		},
	}
}

// Load reads the configuration from path, filling unset fields from Default
// and applying environment overrides.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOrDefault loads from path if it exists and falls back to the default
// configuration (plus environment overrides) otherwise.
func LoadOrDefault(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		cfg := Default()
		cfg.applyEnv()
		if err := cfg.validate(); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}
	return Load(path)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STOREFRONT_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("STOREFRONT_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("STOREFRONT_POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv("STOREFRONT_REDIS_ADDR"); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv("STOREFRONT_REMOTE_URL"); v != "" {
		c.Remote.BaseURL = v
	}
	if v := os.Getenv("STOREFRONT_REMOTE_KEY"); v != "" {
		c.Remote.APIKey = v
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "memory", "postgres", "redis":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("postgres driver requires postgres_dsn")
	}
	if c.Storage.Driver == "redis" && c.Storage.RedisAddr == "" {
		return fmt.Errorf("redis driver requires redis_addr")
	}
	return nil
}
