// Package config provides configuration management for repo-assistant.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"

	DefaultPerPage = 10
	DefaultPort    = 8080
	DefaultModel   = "claude-sonnet-4-5"
)

// Config holds the configuration shared by every command
type Config struct {
	Env string

	GitHubToken  string // Optional; unauthenticated requests are heavily rate limited
	GitHubAPIURL string // Empty means api.github.com

	AnthropicAPIKey string
	AnthropicModel  string

	DefaultPerPage int
	FallbackOrg    string // Organization listed when a request cannot be understood

	Port int

	TelemetryEnabled bool
	OTLPEndpoint     string
}

// Load reads a .env file if one exists, then loads configuration from environment variables
func Load() (Config, error) {
	// A missing .env file is normal outside local development
	_ = godotenv.Load()

	cfg := Config{
		Env:            EnvProd,
		AnthropicModel: DefaultModel,
		DefaultPerPage: DefaultPerPage,
		Port:           DefaultPort,
	}

	loadOptionalFromEnv(&cfg.Env, "APP_ENV")
	loadOptionalFromEnv(&cfg.GitHubToken, "GITHUB_TOKEN")
	loadOptionalFromEnv(&cfg.GitHubAPIURL, "GITHUB_API_URL")
	loadOptionalFromEnv(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	loadOptionalFromEnv(&cfg.AnthropicModel, "ANTHROPIC_MODEL")
	loadOptionalFromEnv(&cfg.FallbackOrg, "FALLBACK_ORG")
	loadOptionalFromEnv(&cfg.OTLPEndpoint, "OTLP_ENDPOINT")

	errs := []error{
		parseOptionalFromEnv(&cfg.DefaultPerPage, "DEFAULT_PER_PAGE", strconv.Atoi),
		parseOptionalFromEnv(&cfg.Port, "PORT", strconv.Atoi),
		parseOptionalFromEnv(&cfg.TelemetryEnabled, "TELEMETRY_ENABLED", strconv.ParseBool),
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	cfg.Env = strings.ToLower(cfg.Env)
	return cfg, nil
}

// IsDev reports whether the configuration targets local development
func (c Config) IsDev() bool {
	return c.Env == EnvDev
}

// Validate checks the configuration that every command depends on
func (c Config) Validate() error {
	if c.Env != EnvDev && c.Env != EnvProd {
		return fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDev, EnvProd, c.Env)
	}
	if c.DefaultPerPage < 1 || c.DefaultPerPage > 100 {
		return fmt.Errorf("DEFAULT_PER_PAGE must be between 1 and 100, got %d", c.DefaultPerPage)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.TelemetryEnabled && c.OTLPEndpoint == "" {
		return fmt.Errorf("missing required environment variable: OTLP_ENDPOINT (telemetry is enabled)")
	}
	return nil
}

// ValidateChat additionally checks what the chat command needs
func (c Config) ValidateChat() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("missing required environment variable: ANTHROPIC_API_KEY")
	}
	return nil
}

func loadOptionalFromEnv(dest *string, key string) {
	_ = parseOptionalFromEnv(dest, key, func(v string) (string, error) { return v, nil })
}

func parseOptionalFromEnv[T any](dest *T, key string, parseFn func(string) (T, error)) error {
	str := os.Getenv(key)
	if str == "" {
		return nil // Leave default value
	}
	v, err := parseFn(str)
	if err != nil {
		return fmt.Errorf("failed to parse environment variable '%s' value '%s' as '%T': %w", key, str, *dest, err)
	}
	*dest = v
	return nil
}
