package app

import (
	"fmt"
	"time"

	coreconfig "github.com/m3rciful/stockbot/core/config"
	coredatabase "github.com/m3rciful/stockbot/core/database"
	"github.com/m3rciful/stockbot/core/telegram/state"
	"github.com/m3rciful/stockbot/internal/catalog"
)

// CatalogConfig names the categories and conditions that change the wizard track.
// Empty lists fall back to the built-in Russian and English names.
type CatalogConfig struct {
	PhoneCategories []string `yaml:"phone_categories" envconfig:"PHONE_CATEGORIES"`
	UsedConditions  []string `yaml:"used_conditions" envconfig:"USED_CONDITIONS"`
}

// SessionConfig bounds the in-memory conversation store.
type SessionConfig struct {
	Capacity int           `yaml:"capacity" envconfig:"SESSION_CAPACITY"`
	TTL      time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
}

// Config is the stockbot configuration file.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Catalog  CatalogConfig       `yaml:"catalog"`
	Session  SessionConfig       `yaml:"session"`
	// Reference is seeded idempotently on every start.
	Reference catalog.Reference `yaml:"reference" ignored:"true"`
}

// CoreConfig exposes the embedded core configuration to the runner.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// LoadConfig reads the YAML file at path, overlays the environment and validates.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}
	if c.Session.Capacity < 0 {
		return fmt.Errorf("session.capacity must be >= 0")
	}
	if c.Session.Capacity == 0 {
		c.Session.Capacity = state.DefaultCapacity
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must be >= 0")
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = state.DefaultTTL
	}
	for _, name := range c.Reference.Categories {
		if n := len([]rune(name)); n == 0 || n > catalog.MaxCategoryName {
			return fmt.Errorf("reference.categories: invalid name %q", name)
		}
	}
	return nil
}
