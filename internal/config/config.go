// Package config loads and validates the application configuration from a
// TOML file, with environment-sourced secrets kept out of the file entirely.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/marketforge/marketforge/pkg/models"
)

// Config is the full application configuration
type Config struct {
	Sessions   SessionsConfig            `toml:"sessions"`
	Generation GenerationConfig          `toml:"generation"`
	Providers  map[string]ProviderConfig `toml:"providers"`
	Logging    LoggingConfig             `toml:"logging"`

	// Analysis is optional in the file and validated separately, only when
	// a niche is actually present
	Analysis models.AnalysisInput `toml:"analysis" validate:"-"`
}

// SessionsConfig controls session persistence
type SessionsConfig struct {
	Dir string `toml:"dir" validate:"required"`
}

// GenerationConfig controls the image generation chain
type GenerationConfig struct {
	ProviderTimeoutSeconds int      `toml:"provider_timeout_seconds" validate:"min=1,max=600"`
	ProviderOrder          []string `toml:"provider_order" validate:"dive,oneof=openai openrouter"`
}

// ProviderConfig configures one network image provider. API keys never live
// here; they come from the environment via Secrets.
type ProviderConfig struct {
	Enabled           bool     `toml:"enabled"`
	BaseURL           string   `toml:"base_url" validate:"omitempty,url"`
	Model             string   `toml:"model"`
	Models            []string `toml:"models"`
	RequestsPerMinute int      `toml:"requests_per_minute" validate:"min=0,max=600"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level string `toml:"level" validate:"oneof=debug info warn error"`
	File  string `toml:"file"`
}

// ProviderTimeout returns the configured per-provider attempt timeout
func (g GenerationConfig) ProviderTimeout() time.Duration {
	return time.Duration(g.ProviderTimeoutSeconds) * time.Second
}

// Load reads, defaults, and validates a configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a usable configuration without a config file
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Sessions.Dir == "" {
		c.Sessions.Dir = "sessions"
	}
	if c.Generation.ProviderTimeoutSeconds == 0 {
		c.Generation.ProviderTimeoutSeconds = 90
	}
	if len(c.Generation.ProviderOrder) == 0 {
		c.Generation.ProviderOrder = []string{"openai", "openrouter"}
	}
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	for _, name := range c.Generation.ProviderOrder {
		if _, ok := c.Providers[name]; !ok {
			c.Providers[name] = ProviderConfig{Enabled: true}
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks structural constraints and the analysis input when one is
// present in the file
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Analysis.Niche != "" {
		if err := ValidateInput(v, c.Analysis); err != nil {
			return err
		}
	}
	return nil
}

// ValidateInput checks an analysis input against its declared constraints
func ValidateInput(v *validator.Validate, in models.AnalysisInput) error {
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	if err := v.Struct(in); err != nil {
		return fmt.Errorf("invalid analysis input: %w", err)
	}
	return nil
}
