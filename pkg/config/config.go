// Package config loads fulmendemo's runtime configuration from
// environment variables, following the teacher's env-tag +
// joeshaw/envdecode pattern (pkg/config/config.go) minus the
// file/dotenv layers a single-binary demo doesn't need.
package config

import (
	"fmt"
	"strings"

	"github.com/joeshaw/envdecode"
)

// Config is fulmendemo's runtime configuration.
type Config struct {
	Service     string `env:"FULMEN_SERVICE"`
	Environment string `env:"FULMEN_ENV"`
	Addr        string `env:"FULMEN_ADDR"`
	AdminToken  string `env:"FULMEN_ADMIN_TOKEN"`
	LogProfile  string `env:"FULMEN_LOG_PROFILE"`
}

// New returns a Config populated with fulmendemo's defaults.
func New() *Config {
	return &Config{
		Service:     "fulmendemo",
		Environment: "development",
		Addr:        ":8080",
		LogProfile:  "STRUCTURED",
	}
}

// Load returns New()'s defaults overridden by any FULMEN_* environment
// variables present. envdecode only overwrites tagged fields it finds
// set in the environment, leaving the caller's defaults otherwise
// untouched.
func Load() (*Config, error) {
	cfg := New()
	if err := envdecode.Decode(cfg); err != nil {
		// envdecode errors when none of the struct's tagged fields are
		// set in the environment; that just means "use the defaults".
		if !strings.Contains(err.Error(), "none of the target fields were set") {
			return nil, fmt.Errorf("decode env: %w", err)
		}
	}
	return cfg, nil
}

// AdminTokens splits AdminToken into the bearer-token list the HTTP
// admin scaffolds expect, empty when unset.
func (c *Config) AdminTokens() []string {
	if c.AdminToken == "" {
		return nil
	}
	return []string{c.AdminToken}
}
