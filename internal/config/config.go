// Package config loads CLI configuration for the render service.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	md2html "github.com/alnah/go-md2html"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrConfigTooLarge = errors.New("config file exceeds maximum size")
	ErrInvalidTimeout = errors.New("invalid timeout")
	ErrInvalidWorkers = errors.New("invalid workers count")
)

// MaxConfigSize limits config input to prevent memory exhaustion (1MB).
const MaxConfigSize = 1 << 20

// Config holds all configuration for the render service.
type Config struct {
	Render RenderConfig `yaml:"render"`
	Pool   PoolConfig   `yaml:"pool"`
	Policy PolicyConfig `yaml:"policy"`
}

// RenderConfig defines per-request timing options.
type RenderConfig struct {
	Timeout     string `yaml:"timeout"`     // Go duration, e.g. "10s" (empty = 10s)
	PingTimeout string `yaml:"pingTimeout"` // Go duration, e.g. "1s" (empty = 1s)
}

// PoolConfig defines renderer pool options.
type PoolConfig struct {
	Workers int `yaml:"workers"` // 0 = auto-calculate from GOMAXPROCS
}

// PolicyConfig overrides the built-in sanitization allow-list.
// Leave empty to use the default policy.
type PolicyConfig struct {
	AllowedTags       []string            `yaml:"allowedTags"`
	AllowedAttributes map[string][]string `yaml:"allowedAttributes"`
	AllowedProtocols  map[string][]string `yaml:"allowedProtocols"`
}

// Default returns a config with built-in defaults.
func Default() *Config {
	return &Config{}
}

// Load reads and parses a YAML config file. Unknown fields are
// rejected so typos fail loudly instead of silently using defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}
	if len(data) > MaxConfigSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrConfigTooLarge, len(data), MaxConfigSize)
	}

	cfg := Default()
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all settings are well-formed.
func (c *Config) Validate() error {
	if _, err := parseTimeout(c.Render.Timeout, md2html.DefaultTimeout); err != nil {
		return err
	}
	if _, err := parseTimeout(c.Render.PingTimeout, md2html.DefaultPingTimeout); err != nil {
		return err
	}
	if c.Pool.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Pool.Workers)
	}
	return nil
}

// Timeout returns the render timeout, defaulted when unset.
func (c *Config) Timeout() (time.Duration, error) {
	return parseTimeout(c.Render.Timeout, md2html.DefaultTimeout)
}

// PingTimeout returns the health check timeout, defaulted when unset.
func (c *Config) PingTimeout() (time.Duration, error) {
	return parseTimeout(c.Render.PingTimeout, md2html.DefaultPingTimeout)
}

// Schema converts the policy section to a sanitization schema.
// The zero value selects the built-in policy.
func (c *Config) Schema() md2html.Schema {
	return md2html.Schema{
		AllowedTags:       c.Policy.AllowedTags,
		AllowedAttributes: c.Policy.AllowedAttributes,
		AllowedProtocols:  c.Policy.AllowedProtocols,
	}
}

func parseTimeout(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeout, s)
	}
	return d, nil
}
