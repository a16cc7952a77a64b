package config

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/modsmith/modsmith/pkg/errors"
)

// Config is the fully merged application configuration.
type Config struct {
	API      APIConfig      `koanf:"api"`
	Resolver ResolverConfig `koanf:"resolver"`
	Download DownloadConfig `koanf:"download"`
}

// APIConfig configures the Modrinth API client.
type APIConfig struct {
	BaseURL               string `koanf:"base_url" validate:"required,url"`
	UserAgent             string `koanf:"user_agent" validate:"required"`
	TimeoutSeconds        int    `koanf:"timeout_seconds" validate:"min=1"`
	ConnectTimeoutSeconds int    `koanf:"connect_timeout_seconds" validate:"min=1"`
	MaxResponseBytes      int64  `koanf:"max_response_bytes" validate:"min=1024"`
}

// ResolverConfig bounds the dependency resolution fan-out.
type ResolverConfig struct {
	BatchSize         int `koanf:"batch_size" validate:"min=1,max=100"`
	SearchConcurrency int `koanf:"search_concurrency" validate:"min=1,max=64"`
	SearchLimit       int `koanf:"search_limit" validate:"min=1,max=100"`
}

// DownloadConfig bounds concurrent artifact downloads.
type DownloadConfig struct {
	Concurrency int `koanf:"concurrency" validate:"min=1,max=32"`
}

// Timeout returns the total per-request timeout.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// ConnectTimeout returns the connection establishment timeout.
func (a APIConfig) ConnectTimeout() time.Duration {
	return time.Duration(a.ConnectTimeoutSeconds) * time.Second
}

// Validate checks the configuration against its struct tags.
// A config that fails validation must never reach resolution.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return errors.Wrap(err, errors.ErrConfigValid, "invalid configuration")
	}
	return nil
}
