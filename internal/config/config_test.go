package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/paperdesk/internal/gateway"
	"github.com/csheth/paperdesk/internal/llm"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, geminiKeyEnv, apiKeyEnv, modelEnv,
		ollamaHostEnv, ollamaModelEnv, openAIKeyEnv, logLevelEnv,
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paperdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "Dr. Elena Rostova", cfg.Author().Name)
	assert.Equal(t, gateway.DefaultLimits(), gateway.New(nil, gateway.WithLimits(cfg.GatewayLimits())).Limits())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
ai:
  provider: ollama
  model: llama3
  timeout: 45s
limits:
  chatChars: 8000
user:
  name: Ada Lovelace
library:
  path: ./library.yaml
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.AI.Provider)
	assert.Equal(t, "llama3", cfg.AI.Model)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 8000, cfg.Limits.ChatChars)
	assert.Equal(t, 10000, cfg.Limits.ReviewChars, "unset keys keep defaults")
	assert.Equal(t, "Ada Lovelace", cfg.User.Name)
	assert.Equal(t, "./library.yaml", cfg.Library.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadUsesConfigEnvPath(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "logging:\n  level: debug\n")
	t.Setenv(configPathEnv, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := Load(missing)
	assert.Error(t, err, "an explicit path must exist")

	t.Setenv(configPathEnv, missing)
	_, err = Load("")
	assert.NoError(t, err)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "ai:\n  apiKey: from-file\n  model: gemini-2.0-flash\n")
	t.Setenv(apiKeyEnv, "from-env")
	t.Setenv(modelEnv, "gemini-2.5-pro")
	t.Setenv(logLevelEnv, "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.AI.APIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.AI.Model)
	assert.Equal(t, "warn", cfg.Logging.Level)

	t.Setenv(geminiKeyEnv, "gemini-wins")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-wins", cfg.AI.APIKey)
}

func TestProviderSpecificEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(geminiKeyEnv, "gemini-key")
	t.Setenv(openAIKeyEnv, "sk-openai")
	t.Setenv(ollamaHostEnv, "http://gpu-box:11434")
	t.Setenv(ollamaModelEnv, "qwen3")

	cfg, err := Load(writeConfig(t, "ai:\n  provider: openai\n"))
	require.NoError(t, err)
	assert.Equal(t, "sk-openai", cfg.AI.APIKey, "gemini keys never reach other providers")

	cfg, err = Load(writeConfig(t, "ai:\n  provider: ollama\n"))
	require.NoError(t, err)
	assert.Equal(t, "", cfg.AI.APIKey)
	assert.Equal(t, "http://gpu-box:11434", cfg.AI.Endpoint)
	assert.Equal(t, "qwen3", cfg.AI.Model)
	assert.Equal(t, llm.Config{Provider: llm.ProviderOllama, Model: "qwen3", Endpoint: "http://gpu-box:11434"}, cfg.LLM())
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, "ai:\n  provider: claude\n"))
	assert.ErrorContains(t, err, "ai.provider")

	_, err = Load(writeConfig(t, "limits:\n  chatChars: -1\n"))
	assert.ErrorContains(t, err, "limits")

	_, err = Load(writeConfig(t, "user:\n  name: \"  \"\n"))
	assert.ErrorContains(t, err, "user.name")

	_, err = Load(writeConfig(t, "ai: [not, a, map]\n"))
	assert.ErrorContains(t, err, "parse")
}
