package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioscrm/cognition-go/pkg/core"
)

func validConfig() *core.Config {
	return &core.Config{
		LLM: core.LLMConfig{
			APIKey:  "sk-test",
			Model:   "gpt-4o-mini",
			Timeout: 10 * time.Second,
		},
		Store: core.StoreConfig{
			Provider: "ristretto",
		},
		Memory: core.MemoryConfig{
			TTL: 4 * time.Hour,
		},
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("COGNITION_LLM_API_KEY", "sk-env")
	t.Setenv("COGNITION_STORE_PROVIDER", "sqlite")
	t.Setenv("COGNITION_MEMORY_TTL", "2h")

	cfg, err := core.LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "sqlite", cfg.Store.Provider)
	assert.Equal(t, 2*time.Hour, cfg.Memory.TTL)
	assert.Equal(t, 10*time.Second, cfg.LLM.Timeout)
}

func TestValidateAcceptsSaneConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.APIKey = ""
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)
}

func TestValidateRejectsUnknownStoreProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Provider = "etcd"
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)
}

func TestValidateRequiresSQLitePath(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Provider = "sqlite"
	cfg.Store.DBPath = ""
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)
}

func TestValidateRequiresPostgresSettings(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Provider = "postgres"
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)
}

func TestValidateRejectsNegativeTTL(t *testing.T) {
	cfg := validConfig()
	cfg.Memory.TTL = -time.Hour
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)
}
