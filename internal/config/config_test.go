package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 8003, cfg.Gateway.Port)
	assert.Equal(t, "loopback", cfg.Gateway.Bind)
	assert.Equal(t, []string{"*"}, cfg.Gateway.AllowedOrigins)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"price", "review", "product"}, cfg.Agent.Keywords)
	assert.Equal(t, "default_thread", cfg.Agent.DefaultThread)
	assert.Equal(t, "ollama", cfg.Models.Provider)
	assert.Equal(t, "memory", cfg.Checkpoint.Store)
	assert.Equal(t, "prodbot:", cfg.Checkpoint.KeyPrefix)

	require.Contains(t, cfg.MCP.Servers, "hybrid_search")
	srv := cfg.MCP.Servers["hybrid_search"]
	assert.Equal(t, "streamable_http", srv.Transport)
	assert.Equal(t, "http://localhost:8000/mcp", srv.URL)
}

func TestDefaults_KeywordsNotShared(t *testing.T) {
	a := Defaults()
	a.Agent.Keywords[0] = "changed"
	b := Defaults()
	assert.Equal(t, "price", b.Agent.Keywords[0])
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 8003, cfg.Gateway.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadValidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	yaml := `
gateway:
  port: 9999
  bind: lan
logging:
  level: debug
  consoleStyle: json
agent:
  keywords: [price, specs]
  defaultThread: shop
models:
  provider: openai
  model: gpt-4o-mini
mcp:
  servers:
    catalog:
      transport: stdio
      command: mcp-hybrid-search
      args: ["--stdio"]
checkpoint:
  store: sqlite
channels:
  irc:
    server: irc.libera.chat
    port: 6697
    nick: prodbot
    channels:
      - "#shop"
    useTLS: true
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Gateway.Port)
	assert.Equal(t, "lan", cfg.Gateway.Bind)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.ConsoleStyle)
	assert.Equal(t, []string{"price", "specs"}, cfg.Agent.Keywords)
	assert.Equal(t, "shop", cfg.Agent.DefaultThread)
	assert.Equal(t, "openai", cfg.Models.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Models.Model)
	assert.Equal(t, "sqlite", cfg.Checkpoint.Store)

	// An explicit servers map replaces the default server.
	require.Len(t, cfg.MCP.Servers, 1)
	assert.Equal(t, "stdio", cfg.MCP.Servers["catalog"].Transport)
	assert.Equal(t, []string{"--stdio"}, cfg.MCP.Servers["catalog"].Args)

	require.NotNil(t, cfg.Channels.IRC)
	assert.Equal(t, "irc.libera.chat", cfg.Channels.IRC.Server)
	assert.Equal(t, []string{"#shop"}, cfg.Channels.IRC.Channels)
	assert.True(t, cfg.Channels.IRC.UseTLS)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{invalid yaml"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PRODBOT_GATEWAY_PORT", "12345")
	t.Setenv("PRODBOT_LOG_LEVEL", "TRACE")
	t.Setenv("PRODBOT_PROVIDER", "Anthropic")
	t.Setenv("PRODBOT_CHECKPOINT_STORE", "redis")
	t.Setenv("PRODBOT_REDIS_URL", "redis://localhost:6379/2")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, 12345, cfg.Gateway.Port)
	assert.Equal(t, "trace", cfg.Logging.Level)
	assert.Equal(t, "anthropic", cfg.Models.Provider)
	assert.Equal(t, "redis", cfg.Checkpoint.Store)
	assert.Equal(t, "redis://localhost:6379/2", cfg.Checkpoint.RedisURL)
}

func TestLoadExpandsSecrets(t *testing.T) {
	t.Setenv("PRODBOT_TEST_KEY", "sk-expanded")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
models:
  provider: openai
  apiKey: ${PRODBOT_TEST_KEY}
gateway:
  auth:
    token: ${PRODBOT_TEST_UNSET_VAR}
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-expanded", cfg.Models.APIKey)
	assert.Equal(t, "${PRODBOT_TEST_UNSET_VAR}", cfg.Gateway.Auth.Token)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PRODBOT_DOTENV_VALUE=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("PRODBOT_DOTENV_VALUE") })

	require.NoError(t, LoadEnvFiles(dir))
	assert.Equal(t, "from-dotenv", os.Getenv("PRODBOT_DOTENV_VALUE"))
}

func TestLoadEnvFiles_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PRODBOT_DOTENV_KEEP=file\n"), 0o600))
	t.Setenv("PRODBOT_DOTENV_KEEP", "process")

	require.NoError(t, LoadEnvFiles(dir))
	assert.Equal(t, "process", os.Getenv("PRODBOT_DOTENV_KEEP"))
}

func TestLoadEnvFiles_Missing(t *testing.T) {
	assert.NoError(t, LoadEnvFiles(t.TempDir()))
}

func TestLoadRawAndSaveRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	raw := map[string]any{
		"checkpoint": map[string]any{
			"store": "sqlite",
		},
	}
	require.NoError(t, SaveRaw(path, raw))

	loaded, err := LoadRaw(path)
	require.NoError(t, err)

	val, ok := GetValueAtPath(loaded, []string{"checkpoint", "store"})
	assert.True(t, ok)
	assert.Equal(t, "sqlite", val)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadRaw_Missing(t *testing.T) {
	raw, err := LoadRaw(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Message: "boom"}
	assert.Equal(t, "config: boom", err.Error())
}

func TestFromRaw(t *testing.T) {
	cfg, err := FromRaw(map[string]any{
		"checkpoint": map[string]any{"store": "sqlite"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Checkpoint.Store)
	assert.Equal(t, 8003, cfg.Gateway.Port)

	_, err = FromRaw(map[string]any{"gateway": map[string]any{"port": "not-a-number"}})
	var ce *ConfigError
	assert.ErrorAs(t, err, &ce)
}
