package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/efreitasn/tradingcore/internal/engine"
	"github.com/efreitasn/tradingcore/internal/ids"
	"github.com/efreitasn/tradingcore/internal/logger"
)

// Config holds all runtime configuration for the trading core.
type Config struct {
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	MatchingStrategy   string        `env:"MATCHING_STRATEGY" envDefault:"price_time"`
	IDScheme           string        `env:"ID_SCHEME" envDefault:"ulid"`
	ExpirationInterval time.Duration `env:"EXPIRATION_INTERVAL" envDefault:"1s"`
	BookDepthLimit     int           `env:"BOOK_DEPTH_LIMIT" envDefault:"50"`
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. Variables from the given .env files are loaded
// first; with no files, a .env in the working directory is used if present.
// Variables already set in the environment always win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, errors.Wrap(err, "load env files")
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against its allowed values.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid LOG_LEVEL")
	}
	if _, err := engine.ParseStrategyKind(c.MatchingStrategy); err != nil {
		return errors.Wrap(err, "invalid MATCHING_STRATEGY")
	}
	if _, err := ids.New(ids.Scheme(c.IDScheme)); err != nil {
		return errors.Wrap(err, "invalid ID_SCHEME")
	}
	if c.ExpirationInterval <= 0 {
		return errors.Errorf("invalid EXPIRATION_INTERVAL: must be positive, got %s", c.ExpirationInterval)
	}
	if c.BookDepthLimit < 1 {
		return errors.Errorf("invalid BOOK_DEPTH_LIMIT: must be >= 1, got %d", c.BookDepthLimit)
	}
	return nil
}

// EngineOptions translates the configuration into engine options.
func (c *Config) EngineOptions() ([]engine.Option, error) {
	kind, err := engine.ParseStrategyKind(c.MatchingStrategy)
	if err != nil {
		return nil, err
	}
	gen, err := ids.New(ids.Scheme(c.IDScheme))
	if err != nil {
		return nil, err
	}
	return []engine.Option{
		engine.WithStrategy(engine.NewStrategy(kind)),
		engine.WithIDGenerator(gen),
		engine.WithDepthLimit(c.BookDepthLimit),
	}, nil
}
