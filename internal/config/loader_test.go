package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("NC_TEST_SET", "value")

	cases := []struct {
		in   string
		want string
	}{
		{"key: ${NC_TEST_SET}", "key: value"},
		{"key: ${NC_TEST_SET:fallback}", "key: value"},
		{"key: ${NC_TEST_UNSET:fallback}", "key: fallback"},
		{"key: ${NC_TEST_UNSET:}", "key: "},
		{"key: ${NC_TEST_UNSET}", "key: ${NC_TEST_UNSET}"},
		{"plain", "plain"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, expandEnv(tc.in), tc.in)
	}
}

func TestLoadFrom_MergesEnvFileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	base := `
app:
  name: test-app
llm:
  default_provider: openai
  providers:
    openai:
      api_key: ${NC_TEST_KEY:your-openai-api-key-here}
      model: gpt-4o-mini
ai:
  request_timeout: 15s
`
	override := `
ai:
  history_capacity: 4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(base), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.staging.yaml"), []byte(override), 0o600))
	t.Setenv("APP_ENV", "staging")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "test-app", cfg.App.Name)
	assert.Equal(t, 15*time.Second, cfg.AI.RequestTimeout)
	assert.Equal(t, 4, cfg.AI.HistoryCapacity)
	assert.Equal(t, 3, cfg.AI.SmartAttempts)
	assert.Equal(t, 300*time.Millisecond, cfg.AI.SmartPause)
	assert.Equal(t, 8080, cfg.Server.HTTP.Port)

	provider, ok := cfg.LLM.Providers["openai"]
	require.True(t, ok)
	assert.False(t, provider.Configured(), "placeholder key must count as unconfigured")
}

func TestLoadFrom_MissingBaseFile(t *testing.T) {
	_, err := LoadFrom(t.TempDir())
	assert.Error(t, err)
}

func TestProviderConfigured(t *testing.T) {
	assert.False(t, ProviderConfig{}.Configured())
	assert.False(t, ProviderConfig{APIKey: "  "}.Configured())
	assert.False(t, ProviderConfig{APIKey: placeholderAPIKey}.Configured())
	assert.True(t, ProviderConfig{APIKey: "sk-live"}.Configured())
}
