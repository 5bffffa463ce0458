// Package config loads the BGG cache configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/Sternrassler/bgg-cache/pkg/bgg"
	"github.com/Sternrassler/bgg-cache/pkg/gamecache"
	"github.com/Sternrassler/bgg-cache/pkg/logging"
	"github.com/Sternrassler/bgg-cache/pkg/retry"
	"github.com/Sternrassler/bgg-cache/pkg/tracing"
	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config is the process configuration of the cache and its proxy server.
type Config struct {
	BaseURL        string        `env:"BGG_BASE_URL"        envDefault:"https://boardgamegeek.com/xmlapi2"`
	APIToken       string        `env:"BGG_API_TOKEN"`
	UserAgent      string        `env:"BGG_USER_AGENT"      envDefault:"bgg-cache/1.0"`
	RateLimitDelay time.Duration `env:"BGG_RATE_LIMIT_DELAY" envDefault:"2s"`
	MaxRetries     int           `env:"BGG_MAX_RETRIES"     envDefault:"3"`
	CacheTTL       time.Duration `env:"BGG_CACHE_TTL"       envDefault:"1h"`
	HotLimit       int           `env:"BGG_HOT_LIMIT"       envDefault:"10"`
	HotBatchSize   int           `env:"BGG_HOT_BATCH_SIZE"  envDefault:"5"`
	SearchLimit    int           `env:"BGG_SEARCH_LIMIT"    envDefault:"10"`
	RequestTimeout time.Duration `env:"BGG_REQUEST_TIMEOUT" envDefault:"30s"`

	// RedisURL enables the Redis-shared rate limiter when set,
	// e.g. "redis://localhost:6379/0".
	RedisURL string `env:"REDIS_URL"`

	Port         string `env:"PORT"                        envDefault:"8080"`
	LogLevel     string `env:"LOG_LEVEL"                   envDefault:"info"`
	LogPretty    bool   `env:"LOG_PRETTY"                  envDefault:"false"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load parses the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the cache cannot run with.
func (c Config) Validate() error {
	var errs []error

	if c.BaseURL == "" {
		errs = append(errs, errors.New("BGG_BASE_URL is required"))
	} else if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("BGG_BASE_URL %q is not an absolute url", c.BaseURL))
	}
	if c.UserAgent == "" {
		errs = append(errs, errors.New("BGG_USER_AGENT is required"))
	}
	if c.RateLimitDelay < 0 {
		errs = append(errs, fmt.Errorf("BGG_RATE_LIMIT_DELAY must not be negative, got %v", c.RateLimitDelay))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("BGG_MAX_RETRIES must not be negative, got %d", c.MaxRetries))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("BGG_CACHE_TTL must be positive, got %v", c.CacheTTL))
	}
	if c.HotLimit <= 0 {
		errs = append(errs, fmt.Errorf("BGG_HOT_LIMIT must be positive, got %d", c.HotLimit))
	}
	if c.HotBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("BGG_HOT_BATCH_SIZE must be positive, got %d", c.HotBatchSize))
	}
	if c.SearchLimit <= 0 {
		errs = append(errs, fmt.Errorf("BGG_SEARCH_LIMIT must be positive, got %d", c.SearchLimit))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("BGG_REQUEST_TIMEOUT must be positive, got %v", c.RequestTimeout))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	return errors.Join(errs...)
}

// Logging returns the logger configuration.
func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level, _ = logging.ParseLevel(c.LogLevel)
	cfg.Pretty = c.LogPretty
	return cfg
}

// Tracing returns the tracing configuration.
func (c Config) Tracing() tracing.Config {
	return tracing.Config{Endpoint: c.OTLPEndpoint}
}

// Client returns the upstream client configuration.
func (c Config) Client(logger *zerolog.Logger) bgg.Config {
	cfg := bgg.DefaultConfig(c.UserAgent)
	cfg.BaseURL = c.BaseURL
	cfg.Token = c.APIToken
	cfg.Timeout = c.RequestTimeout
	cfg.Logger = logger
	return cfg
}

// Cache returns the service configuration. The limiter is left unset; the
// caller picks the in-memory or Redis backend.
func (c Config) Cache(logger zerolog.Logger) gamecache.Config {
	cfg := gamecache.DefaultConfig()
	cfg.TTL = c.CacheTTL
	cfg.HotLimit = c.HotLimit
	cfg.HotBatchSize = c.HotBatchSize
	cfg.SearchLimit = c.SearchLimit
	cfg.Retry = retry.Config{
		MaxRetries: c.MaxRetries,
		BaseDelay:  c.RateLimitDelay,
	}
	cfg.Logger = logger
	return cfg
}
