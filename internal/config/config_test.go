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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// TestPurpose: Validates defaults and nested environment keys.
// Scope: Unit Test
// Expected: Unset values take defaults; prefixed keys land in their sections.
// Test Case ID: CFG-01
func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", testSecret)
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RATELIMIT_BURST", "5")
	t.Setenv("BOOTSTRAP_ADMIN_EMAIL", "root@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, "inkwell", cfg.Database.Name)
	assert.Equal(t, "inkwell", cfg.Database.User)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, float64(10), cfg.RateLimit.RequestsPerSecond)
	assert.True(t, cfg.Bootstrap.SeedRoles)
	assert.Equal(t, "root@example.com", cfg.Bootstrap.AdminEmail)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.IsProduction())
}

// TestPurpose: Validates configuration checks.
// Scope: Unit Test
// Expected: Missing secrets, unknown drivers and memory-in-production are rejected.
// Test Case ID: CFG-02
func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env:         "development",
			StoreDriver: DriverPostgres,
			Database:    DatabaseConfig{Password: "pw"},
			Auth:        AuthConfig{JWTSecret: testSecret},
			RateLimit:   RateLimitConfig{RequestsPerSecond: 1, Burst: 1},
		}
	}

	assert.NoError(t, valid().Validate())

	c := valid()
	c.Database.Password = ""
	assert.Error(t, c.Validate())
	c.Database.URL = "postgres://localhost/inkwell"
	assert.NoError(t, c.Validate())

	c = valid()
	c.Auth.JWTSecret = "short"
	assert.Error(t, c.Validate())

	c = valid()
	c.StoreDriver = "redis"
	assert.Error(t, c.Validate())

	c = valid()
	c.StoreDriver = DriverMemory
	assert.NoError(t, c.Validate())
	c.Env = "production"
	assert.Error(t, c.Validate())

	c = valid()
	c.RateLimit.Burst = 0
	assert.Error(t, c.Validate())
}
