package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	unsetEnv(t, "OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_TEMPERATURE", "REDIS_ENDPOINT", "CONVERSATION_REQUEST_TIMEOUT")
	path := writeConfig(t, `
openai:
  model: gpt-4o-mini
  temperature: 0.3
conversation:
  request_timeout: 10s
redis:
  endpoint: localhost:6379
bots:
  - name: SalesBot
    type: Sales
    status: Active
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.OpenAIModel)
	assert.InDelta(t, 0.3, cfg.OpenAI.Temperature, 0.0001)
	assert.InDelta(t, 0.1, cfg.OpenAI.ProbeTemperature, 0.0001)
	assert.Equal(t, 500, cfg.OpenAI.MaxTokens)
	assert.Equal(t, 10*time.Second, cfg.Conversation.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.Conversation.ProbeTimeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Endpoint)
	require.Len(t, cfg.Bots, 1)
	assert.Equal(t, "SalesBot", cfg.Bots[0].Name)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
openai:
  model: gpt-4o-mini
`)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-3.5-turbo")
	t.Setenv("ALLOWED_TELEGRAM_ID", "1,2,3")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAI.OpenAIAPIKey)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.OpenAIModel)
	assert.Equal(t, []int64{1, 2, 3}, cfg.Telegram.AllowedTelegramID)
}

func TestLoadConfig_EnvOnlyUsesDefaults(t *testing.T) {
	unsetEnv(t, "OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_CHECK_TIMEOUT", "CONVERSATION_REQUEST_TIMEOUT")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Empty(t, cfg.OpenAI.OpenAIAPIKey)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.OpenAIModel)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.Conversation.RequestTimeout)
	assert.Equal(t, 15*time.Second, cfg.OpenAI.CheckTimeout)
	assert.Equal(t, DefaultBots(), cfg.Bots)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
