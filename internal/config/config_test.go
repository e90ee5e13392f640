package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.Context.TokenBudget)
	assert.Equal(t, 10, cfg.Context.RecentWindow)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
llm:
  provider: openai
  model: gpt-4o-mini
context:
  token_budget: 8000
  recent_window: 6
storage:
  database_path: /tmp/desk.db
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 8000, cfg.Context.TokenBudget)
	assert.Equal(t, 6, cfg.Context.RecentWindow)
	assert.Equal(t, "/tmp/desk.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadInvalidBudget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("context:\n  token_budget: -1\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DESKPILOT_DB_PATH", "/var/lib/deskpilot/desk.db")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/deskpilot/desk.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "test-key", cfg.LLM.APIKey)
}

func TestProviderSpecificKeyEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "oa-key")
	t.Setenv("DESKPILOT_LLM_PROVIDER", "openai")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "oa-key", cfg.LLM.APIKey)
}
