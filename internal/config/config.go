package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the lorekeep service.
// Environment variables are parsed from the LOREKEEP_ prefix,
// e.g. LOREKEEP_HTTP_PORT, LOREKEEP_OPENAI_API_KEY.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort    int    `envconfig:"HTTP_PORT" default:"8000"`
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`

	// Storage. DBDriver selects the store adapter: sqlite | postgres.
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/lorekeep.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Upstream catalog (GraphQL)
	CatalogURL string `envconfig:"CATALOG_URL" default:"https://rickandmortyapi.com/graphql"`

	// LLM provider
	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIBaseURL  string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	ChatModel      string `envconfig:"CHAT_MODEL" default:"gpt-4-turbo-preview"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`

	// Background scoring worker
	JobPollInterval time.Duration `envconfig:"JOB_POLL_INTERVAL" default:"200ms"`

	// Outbound call timeout applied to catalog and LLM requests.
	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"30s"`
}

// ResolveDefaults validates driver selection and fills derived values.
func (c *Config) ResolveDefaults() error {
	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("LOREKEEP_SQLITE_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("LOREKEEP_POSTGRES_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.JobPollInterval <= 0 {
		c.JobPollInterval = 200 * time.Millisecond
	}
	return nil
}

// New creates a new Config by parsing environment variables.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("LOREKEEP", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Str("catalog_url", cfg.CatalogURL).
		Str("chat_model", cfg.ChatModel).
		Str("embedding_model", cfg.EmbeddingModel).
		Dur("job_poll_interval", cfg.JobPollInterval).
		Str("openai_key_present", func() string {
			if cfg.OpenAIAPIKey != "" {
				return "true"
			}
			return "false"
		}()).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	return &Config{
		Environment:     EnvTesting,
		HTTPPort:        8000,
		DBDriver:        "sqlite",
		SQLitePath:      ":memory:",
		CatalogURL:      "http://localhost:9999/graphql",
		ChatModel:       "gpt-4-turbo-preview",
		EmbeddingModel:  "text-embedding-3-small",
		JobPollInterval: 200 * time.Millisecond,
		ProviderTimeout: 30 * time.Second,
	}
}

// IsTesting returns true if the environment is set to testing.
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// CORSOriginList splits the comma-separated CORS origins.
func (c *Config) CORSOriginList() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
