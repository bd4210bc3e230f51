// Package config loads and validates the global configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"seekr/internal/logger"
	"seekr/internal/probe"
	"seekr/internal/proxypool"
)

// GlobalConfig contains all configuration sections for the application.
type GlobalConfig struct {
	LogConfig      logger.LogConfig `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	ProxyConfig    proxypool.Config `json:"proxy_config,omitempty" yaml:"proxy_config,omitempty"`
	ProbeConfig    probe.Config     `json:"probe_config,omitempty" yaml:"probe_config,omitempty"`
	CatalogConfig  CatalogConfig    `json:"catalog_config,omitempty" yaml:"catalog_config,omitempty"`
	ServerConfig   ServerConfig     `json:"server_config,omitempty" yaml:"server_config,omitempty"`
	AnalyzerConfig AnalyzerConfig   `json:"analyzer_config,omitempty" yaml:"analyzer_config,omitempty"`
}

// CatalogConfig selects the platform catalog. An empty path uses the
// catalog embedded in the binary.
type CatalogConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty" validate:"omitempty,fileexists"`
}

// ServerConfig holds the HTTP API configuration.
type ServerConfig struct {
	ListenAddr             string   `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
	CORSOrigins            []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`
	ShutdownTimeoutSeconds int      `json:"shutdown_timeout_seconds,omitempty" yaml:"shutdown_timeout_seconds,omitempty" validate:"omitempty,min=1"`
}

// AnalyzerConfig holds the model-backed analysis configuration.
type AnalyzerConfig struct {
	OllamaHost string `json:"ollama_host,omitempty" yaml:"ollama_host,omitempty" validate:"omitempty,url"`
	Model      string `json:"model,omitempty" yaml:"model,omitempty"`
	APIMode    string `json:"api_mode,omitempty" yaml:"api_mode,omitempty" validate:"omitempty,oneof=ollama openai"`
}

// NewDefaultGlobalConfig creates a GlobalConfig with default values.
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		LogConfig:   logger.NewDefaultLogConfig(),
		ProxyConfig: proxypool.NewDefaultConfig(),
		ProbeConfig: probe.NewDefaultConfig(),
		ServerConfig: ServerConfig{
			ListenAddr:             ":8000",
			CORSOrigins:            []string{"http://localhost:3000", "http://localhost:5173"},
			ShutdownTimeoutSeconds: 10,
		},
		AnalyzerConfig: AnalyzerConfig{
			OllamaHost: "http://localhost:11434",
			Model:      "llama3",
			APIMode:    "ollama",
		},
	}
}

// Load reads configuration from the given path, layered over defaults.
// YAML is used for .yaml/.yml extensions, JSON otherwise. An empty path
// returns the defaults.
func Load(path string) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}
