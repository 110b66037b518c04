// Package config loads the tollgate YAML configuration: provider
// endpoints, model quota declarations and ambient settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tollgate-ai/tollgate/pkg/keyring"
	"github.com/tollgate-ai/tollgate/pkg/models"
	"github.com/tollgate-ai/tollgate/pkg/provider"
)

// Config holds all tollgate configuration.
type Config struct {
	LogLevel  string           `yaml:"log_level"`
	JournalDB string           `yaml:"journal_db"`
	DotEnv    string           `yaml:"dotenv"`
	Providers []ProviderConfig `yaml:"providers"`
	Models    []ModelEntry     `yaml:"models"`
}

// ProviderConfig declares an upstream LLM provider endpoint. APIKey may be
// left empty to defer to the environment keyring.
type ProviderConfig struct {
	ID      string            `yaml:"id"`
	BaseURL string            `yaml:"base_url"`
	APIKey  string            `yaml:"api_key"`
	Headers map[string]string `yaml:"headers"`
}

// ModelEntry declares a model, its provider binding and its quotas.
type ModelEntry struct {
	ID           string   `yaml:"id"`
	Provider     string   `yaml:"provider"`
	Temperature  *float64 `yaml:"temperature"`
	SystemPrompt string   `yaml:"system_prompt"`
	RPM          *int64   `yaml:"rpm"`
	TPM          *int64   `yaml:"tpm"`
	RPD          *int64   `yaml:"rpd"`
	TPD          *int64   `yaml:"tpd"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		JournalDB: "tollgate.db",
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// ModelConfig resolves a declared model id into the per-call config handed
// to the dispatcher.
func (c *Config) ModelConfig(id string) (models.ModelConfig, bool) {
	for _, m := range c.Models {
		if m.ID != id {
			continue
		}
		return models.ModelConfig{
			ModelID:      m.ID,
			Provider:     m.Provider,
			Temperature:  m.Temperature,
			SystemPrompt: m.SystemPrompt,
			RPM:          m.RPM,
			TPM:          m.TPM,
			RPD:          m.RPD,
			TPD:          m.TPD,
		}, true
	}
	return models.ModelConfig{}, false
}

// Keys returns the static key source built from config-declared API keys.
func (c *Config) Keys() keyring.Static {
	keys := make(keyring.Static)
	for _, p := range c.Providers {
		if p.APIKey != "" {
			keys[p.ID] = p.APIKey
		}
	}
	return keys
}

// Apply pushes provider base URLs and headers into a registry.
func (c *Config) Apply(reg *provider.Registry) error {
	for _, p := range c.Providers {
		if p.BaseURL == "" && len(p.Headers) == 0 {
			continue
		}
		if err := reg.Configure(p.ID, p.BaseURL, p.Headers); err != nil {
			return err
		}
	}
	return nil
}
