package storefront

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sony/gobreaker/v2"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/storefront/pkg/kv"
	"github.com/dmitrymomot/storefront/pkg/logger"
)

// ErrInvalidConfig is returned when a configuration source cannot be read.
var ErrInvalidConfig = errors.New("storefront: invalid config")

// Config describes a Client. Values come from the environment, then from an
// optional YAML profile that overrides them.
type Config struct {
	BaseURL     string        `env:"STOREFRONT_URL" envDefault:"http://localhost:8080" yaml:"base_url"`
	StatePath   string        `env:"STOREFRONT_STATE" yaml:"state_path"`
	RedisURL    string        `env:"STOREFRONT_REDIS_URL" yaml:"redis_url"`
	RedisPrefix string        `env:"STOREFRONT_REDIS_PREFIX" envDefault:"storefront:" yaml:"redis_prefix"`
	RoleQuery   RoleStrategy  `env:"STOREFRONT_ROLE_QUERY" envDefault:"probe" yaml:"role_query"`
	Log         logger.Config `yaml:"log"`
	Breaker     BreakerConfig `envPrefix:"STOREFRONT_BREAKER_" yaml:"breaker"`
	Timeout     time.Duration `env:"STOREFRONT_TIMEOUT" envDefault:"15s" yaml:"timeout"`
	Idempotency bool          `env:"STOREFRONT_IDEMPOTENCY" yaml:"idempotency"`
}

// BreakerConfig configures the API circuit breaker.
type BreakerConfig struct {
	OpenTimeout time.Duration `env:"OPEN_TIMEOUT" envDefault:"30s" yaml:"open_timeout"`
	MaxFailures uint32        `env:"MAX_FAILURES" envDefault:"5" yaml:"max_failures"`
	Enabled     bool          `env:"ENABLED" yaml:"enabled"`
}

// Settings converts the config into gobreaker settings.
func (b BreakerConfig) Settings() gobreaker.Settings {
	limit := b.MaxFailures
	if limit == 0 {
		limit = 5
	}
	return gobreaker.Settings{
		Name:    "storefront-api",
		Timeout: b.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= limit
		},
	}
}

// LoadConfig reads the environment and, when path is not empty, overlays the
// YAML profile at path. A missing profile is not an error.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, fmt.Errorf("parse %s: %w", path, err))
	}
	return cfg, nil
}

// NewFromConfig creates a Client from cfg. The store is Redis when RedisURL
// is set, a file when StatePath is set, memory otherwise. opts are applied
// after the config and win over it.
func NewFromConfig(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	base := []Option{
		WithLogger(logger.New(cfg.Log)),
		WithRoleStrategy(cfg.RoleQuery),
		WithTimeout(cfg.Timeout),
	}
	if cfg.Idempotency {
		base = append(base, WithIdempotencyKeys())
	}
	if cfg.Breaker.Enabled {
		base = append(base, WithBreaker(cfg.Breaker.Settings()))
	}

	var cleanup func() error
	switch {
	case cfg.RedisURL != "":
		client, err := kv.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		base = append(base,
			WithStore(kv.NewRedis(client, kv.WithPrefix(cfg.RedisPrefix))),
			withCloser(client.Close),
		)
		cleanup = client.Close
	case cfg.StatePath != "":
		store, err := kv.NewFile(cfg.StatePath)
		if err != nil {
			return nil, err
		}
		base = append(base, WithStore(store))
	}

	c, err := New(ctx, cfg.BaseURL, append(base, opts...)...)
	if err != nil {
		if cleanup != nil {
			_ = cleanup()
		}
		return nil, err
	}
	return c, nil
}
