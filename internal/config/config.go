/*
Package config reads ContentForge settings from the environment.

Values come from process environment variables, optionally seeded from a
.env file. Command-line flags override them in cmd/contentforge.

	CONTENTFORGE_DATA_DIR   directory for planner/history/session data (default ~/.contentforge)
	CONTENTFORGE_BACKEND    "json" or "sqlite" (default json)
	CONTENTFORGE_ADDR       API listen address (default :8080)
	CONTENTFORGE_PLAN       "Starter" or "Pro" (default Pro)
	ANTHROPIC_API_KEY       enables model-backed generation
	ANTHROPIC_MODEL         overrides the model name
	VOYAGE_API_KEY          enables the repetition check
	LOG_LEVEL, LOG_FORMAT, LOG_FILE
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Backend names
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds the runtime settings
type Config struct {
	DataDir string `env:"CONTENTFORGE_DATA_DIR"`
	Backend string `env:"CONTENTFORGE_BACKEND" envDefault:"json"`
	Addr    string `env:"CONTENTFORGE_ADDR" envDefault:":8080"`
	Plan    string `env:"CONTENTFORGE_PLAN" envDefault:"Pro"`

	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `env:"ANTHROPIC_MODEL"`
	VoyageAPIKey    string `env:"VOYAGE_API_KEY"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	LogFile   string `env:"LOG_FILE"`
}

// Load reads an optional .env file and then the environment
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("load env file %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat env file: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".contentforge")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (valid: %s, %s)", c.Backend, BackendJSON, BackendSQLite)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data dir is required")
	}
	return nil
}
