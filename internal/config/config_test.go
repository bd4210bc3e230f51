package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultGlobalConfig(t *testing.T) {
	cfg := NewDefaultGlobalConfig()

	assert.Equal(t, "info", cfg.LogConfig.LogLevel)
	assert.Equal(t, 8, cfg.ProbeConfig.Concurrency)
	assert.Equal(t, 120, cfg.ProxyConfig.CooldownSeconds)
	assert.False(t, cfg.ProxyConfig.Enabled)
	assert.Equal(t, ":8000", cfg.ServerConfig.ListenAddr)
	assert.Equal(t, "http://localhost:11434", cfg.AnalyzerConfig.OllamaHost)
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, NewDefaultGlobalConfig(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	content := `
log_config:
  log_level: debug
probe_config:
  concurrency: 4
  timeout_seconds: 3
proxy_config:
  enabled: true
  proxies: ["http://127.0.0.1:8080"]
  rotation_mode: random_healthy
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogConfig.LogLevel)
	assert.Equal(t, 4, cfg.ProbeConfig.Concurrency)
	assert.Equal(t, 3, cfg.ProbeConfig.TimeoutSeconds)
	assert.True(t, cfg.ProxyConfig.Enabled)
	assert.Equal(t, "random_healthy", cfg.ProxyConfig.RotationMode)
	// Untouched sections keep defaults.
	assert.Equal(t, ":8000", cfg.ServerConfig.ListenAddr)
}

func TestLoad_JSON(t *testing.T) {
	content := `{"server_config": {"listen_addr": ":9000"}}`
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ServerConfig.ListenAddr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")

	assert.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("probe_config: ["), 0644))

	_, err := Load(path)

	assert.Error(t, err)
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, Validate(NewDefaultGlobalConfig()))
}

func TestValidate_BadRotationMode(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.ProxyConfig.RotationMode = "sticky"

	err := Validate(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "RotationMode")
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.LogConfig.LogLevel = "verbose"

	assert.Error(t, Validate(cfg))
}

func TestValidate_MissingCatalogFile(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.CatalogConfig.Path = "/definitely/not/here.yaml"

	assert.Error(t, Validate(cfg))
}

func TestValidate_ProxyEnabledWithoutProxies(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.ProxyConfig.Enabled = true
	cfg.ProxyConfig.AutoFetch = false

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auto_fetch")

	cfg.ProxyConfig.AutoFetch = true
	assert.NoError(t, Validate(cfg))
}

func TestValidate_NegativeConcurrency(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.ProbeConfig.Concurrency = -1

	assert.Error(t, Validate(cfg))
}
