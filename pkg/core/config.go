package core

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config contains the complete configuration for a cognition client.
//
// Example:
//
//	config := &core.Config{
//	    LLM: core.LLMConfig{
//	        APIKey: "sk-...",
//	        Model:  "gpt-4o-mini",
//	    },
//	    Store: core.StoreConfig{
//	        Provider: "sqlite",
//	        DBPath:   "./cognition.db",
//	    },
//	}
type Config struct {
	// LLM configures the model provider behind the extraction adapter.
	LLM LLMConfig

	// Store configures the state store backend.
	Store StoreConfig

	// Memory configures the memory manager.
	Memory MemoryConfig

	// Autonomy configures the autonomy engine.
	Autonomy AutonomyConfig
}

// LLMConfig contains configuration for the model provider.
type LLMConfig struct {
	// APIKey is the provider API key (required).
	APIKey string `env:"COGNITION_LLM_API_KEY"`

	// Model is the model name.
	Model string `env:"COGNITION_LLM_MODEL" envDefault:"gpt-4o-mini"`

	// BaseURL overrides the API base URL for OpenAI-compatible endpoints.
	BaseURL string `env:"COGNITION_LLM_BASE_URL"`

	// Timeout bounds each extraction call.
	Timeout time.Duration `env:"COGNITION_LLM_TIMEOUT" envDefault:"10s"`
}

// StoreConfig contains configuration for the state store.
//
// Supported providers: ristretto (in-memory), sqlite, postgres.
type StoreConfig struct {
	// Provider is the backend name.
	Provider string `env:"COGNITION_STORE_PROVIDER" envDefault:"ristretto"`

	// TableName is the key-value table name for SQL backends.
	TableName string `env:"COGNITION_STORE_TABLE" envDefault:"cognition_state"`

	// DBPath is the database file path (sqlite).
	DBPath string `env:"COGNITION_STORE_DB_PATH" envDefault:"./cognition.db"`

	// Postgres connection settings.
	Host     string `env:"COGNITION_STORE_HOST" envDefault:"localhost"`
	Port     int    `env:"COGNITION_STORE_PORT" envDefault:"5432"`
	User     string `env:"COGNITION_STORE_USER"`
	Password string `env:"COGNITION_STORE_PASSWORD"`
	DBName   string `env:"COGNITION_STORE_DBNAME"`
	SSLMode  string `env:"COGNITION_STORE_SSLMODE" envDefault:"disable"`
}

// MemoryConfig contains configuration for the memory manager.
type MemoryConfig struct {
	// TTL is the sliding expiry of conversation memory.
	TTL time.Duration `env:"COGNITION_MEMORY_TTL" envDefault:"4h"`
}

// AutonomyConfig contains configuration for the autonomy engine.
type AutonomyConfig struct {
	// CatalogPath points at a YAML risk catalog. Empty selects the built-in
	// default catalog.
	CatalogPath string `env:"COGNITION_RISK_CATALOG"`

	// AuditRetention bounds how long action audit entries are kept.
	AuditRetention time.Duration `env:"COGNITION_AUDIT_RETENTION" envDefault:"2160h"`
}

// LoadConfigFromEnv builds a Config from environment variables, loading a
// .env file first when one is present.
func LoadConfigFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, NewCoreError("LoadConfigFromEnv", err)
	}
	return cfg, nil
}

// Validate checks the configuration for missing or inconsistent settings.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("%w: llm api key is required", ErrInvalidConfig)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("%w: llm model is required", ErrInvalidConfig)
	}

	switch c.Store.Provider {
	case "ristretto":
	case "sqlite":
		if c.Store.DBPath == "" {
			return fmt.Errorf("%w: sqlite store requires a db path", ErrInvalidConfig)
		}
	case "postgres":
		if c.Store.User == "" || c.Store.DBName == "" {
			return fmt.Errorf("%w: postgres store requires user and dbname", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store provider %q", ErrInvalidConfig, c.Store.Provider)
	}

	if c.Memory.TTL < 0 {
		return fmt.Errorf("%w: memory ttl must not be negative", ErrInvalidConfig)
	}
	return nil
}
