// Copyright 2026 The Inkwell Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Env           string              `envconfig:"APP_ENV" default:"development"`
	StoreDriver   string              `envconfig:"STORE_DRIVER" default:"postgres"`
	Server        ServerConfig        `envconfig:"SERVER"`
	Database      DatabaseConfig      `envconfig:"DB"`
	Log           LogConfig           `envconfig:"LOG"`
	Observability ObservabilityConfig `envconfig:"OTEL"`
	RateLimit     RateLimitConfig     `envconfig:"RATELIMIT"`
	Auth          AuthConfig          `envconfig:"AUTH"`
	Bootstrap     BootstrapConfig     `envconfig:"BOOTSTRAP"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `split_words:"true" default:"0.0.0.0"`
	Port           string        `split_words:"true" default:"8080"`
	ReadTimeout    time.Duration `split_words:"true" default:"15s"`
	WriteTimeout   time.Duration `split_words:"true" default:"15s"`
	IdleTimeout    time.Duration `split_words:"true" default:"60s"`
	RequestTimeout time.Duration `split_words:"true" default:"30s"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL          string `split_words:"true"`
	Host         string `split_words:"true" default:"localhost"`
	Port         string `split_words:"true" default:"5432"`
	User         string `split_words:"true" default:"inkwell"`
	Password     string `split_words:"true"`
	Name         string `split_words:"true" default:"inkwell"`
	SSLMode      string `envconfig:"SSLMODE" default:"disable"`
	MaxOpenConns int    `split_words:"true" default:"25"`
	MaxIdleConns int    `split_words:"true" default:"5"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `split_words:"true" default:"info"`
	Format string `split_words:"true" default:"json"`
}

// ObservabilityConfig holds tracing and metrics configuration
type ObservabilityConfig struct {
	Enabled        bool    `split_words:"true" default:"false"`
	ServiceName    string  `split_words:"true" default:"inkwell"`
	ServiceVersion string  `split_words:"true" default:"0.1.0"`
	Endpoint       string  `split_words:"true"`
	SamplingRate   float64 `split_words:"true" default:"1.0"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64 `envconfig:"RPS" default:"10"`
	Burst             int     `split_words:"true" default:"20"`
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret string `envconfig:"JWT_SECRET"`
	Issuer    string `split_words:"true"`
}

// BootstrapConfig drives first-run provisioning
type BootstrapConfig struct {
	SeedRoles   bool   `split_words:"true" default:"true"`
	AdminEmail  string `split_words:"true"`
	AdminUserID string `split_words:"true"`
	AdminRole   string `split_words:"true" default:"super-admin"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.Database.URL == "" && c.Database.Password == "" {
			return errors.New("DB_PASSWORD or DB_URL is required")
		}
	case DriverMemory:
		if c.IsProduction() {
			return errors.New("the memory store driver is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if len(c.Auth.JWTSecret) < 32 {
		return errors.New("AUTH_JWT_SECRET must be at least 32 bytes")
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("RATELIMIT_RPS and RATELIMIT_BURST must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}
