// Package config loads engine configuration from config.yaml with
// environment variable overrides. Secrets only ever come from the
// environment.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for querygate-engine.
type Config struct {
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // set at load time

	// Engine store (audit trail, migrations).
	Database DatabaseConfig `yaml:"database"`

	// Target datasource the rewritten queries run against.
	Datasource DatasourceConfig `yaml:"datasource"`

	Guardrails GuardrailsConfig `yaml:"guardrails"`
	Schema     SchemaConfig     `yaml:"schema"`
	AI         AIConfig         `yaml:"ai"`
}

// DatabaseConfig holds the engine's own PostgreSQL settings.
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User     string `yaml:"user" env:"PGUSER" env-default:"querygate"`
	Password string `yaml:"-" env:"PGPASSWORD"` // secret, env only
	Database string `yaml:"database" env:"PGDATABASE" env-default:"querygate_engine"`
	SSLMode  string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`

	MaxConnections int32 `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
}

// DatasourceConfig holds the queried datasource settings.
type DatasourceConfig struct {
	Host     string `yaml:"host" env:"DSHOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DSPORT" env-default:"5432"`
	User     string `yaml:"user" env:"DSUSER" env-default:"readonly"`
	Password string `yaml:"-" env:"DSPASSWORD"` // secret, env only
	Database string `yaml:"database" env:"DSDATABASE" env-default:""`
	SSLMode  string `yaml:"ssl_mode" env:"DSSSLMODE" env-default:"disable"`

	MaxConnections int32 `yaml:"max_connections" env:"DSMAX_CONNECTIONS" env-default:"10"`
}

// GuardrailsConfig bounds what a single query may cost.
type GuardrailsConfig struct {
	// StatementTimeoutMs bounds database work inside the read-only
	// transaction.
	StatementTimeoutMs int `yaml:"statement_timeout_ms" env:"STATEMENT_TIMEOUT_MS" env-default:"5000"`
	// HardRowCap is the absolute ceiling on rows shown per page.
	HardRowCap int `yaml:"hard_row_cap" env:"HARD_ROW_CAP" env-default:"100"`
	// MaxPageSize caps the caller-supplied page size.
	MaxPageSize int `yaml:"max_page_size" env:"MAX_PAGE_SIZE" env-default:"100"`
}

// SchemaConfig controls snapshot refresh.
type SchemaConfig struct {
	RefreshPeriodSeconds int `yaml:"refresh_period_seconds" env:"SCHEMA_REFRESH_PERIOD_SECONDS" env-default:"300"`
}

// AIConfig selects and authenticates the model provider.
type AIConfig struct {
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"anthropic"`
	BaseURL  string `yaml:"base_url" env:"AI_BASE_URL" env-default:""`
	Model    string `yaml:"model" env:"AI_MODEL" env-default:""`
	APIKey   string `yaml:"-" env:"AI_API_KEY"` // secret, env only
}

// Load reads config.yaml (optional) with environment overrides and
// validates the result. The version is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Guardrails.StatementTimeoutMs <= 0 {
		return fmt.Errorf("statement timeout must be positive")
	}
	if c.Guardrails.HardRowCap <= 0 {
		return fmt.Errorf("hard row cap must be positive")
	}
	if c.Guardrails.MaxPageSize <= 0 {
		return fmt.Errorf("max page size must be positive")
	}
	if c.Schema.RefreshPeriodSeconds <= 0 {
		return fmt.Errorf("schema refresh period must be positive")
	}
	return nil
}

// ConnectionString renders a PostgreSQL DSN for the engine store.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// ConnectionString renders a PostgreSQL DSN for the datasource.
func (c *DatasourceConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
