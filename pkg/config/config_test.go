package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tollgate-ai/tollgate/pkg/provider"
)

const sampleConfig = `
log_level: debug
journal_db: /tmp/test.db
providers:
  - id: groq
    api_key: ${TEST_GROQ_KEY}
  - id: ollama
    base_url: http://localhost:11434/v1
models:
  - id: llama-3.3-70b-versatile
    provider: groq
    temperature: 0.7
    system_prompt: "be helpful"
    rpm: 30
    tpd: 500000
  - id: llama3
    provider: ollama
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tollgate.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_GROQ_KEY", "gsk_expanded")

	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}
	if cfg.JournalDB != "/tmp/test.db" {
		t.Errorf("journal_db = %q", cfg.JournalDB)
	}
	if len(cfg.Providers) != 2 || cfg.Providers[0].APIKey != "gsk_expanded" {
		t.Errorf("expected env-expanded key, got %+v", cfg.Providers)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/tollgate.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "providers: []\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "info" || cfg.JournalDB != "tollgate.db" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestModelConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}

	mc, ok := cfg.ModelConfig("llama-3.3-70b-versatile")
	if !ok {
		t.Fatal("expected model to resolve")
	}
	if mc.Provider != "groq" || mc.SystemPrompt != "be helpful" {
		t.Errorf("unexpected config %+v", mc)
	}
	if mc.RPM == nil || *mc.RPM != 30 {
		t.Errorf("rpm = %v", mc.RPM)
	}
	if mc.TPD == nil || *mc.TPD != 500000 {
		t.Errorf("tpd = %v", mc.TPD)
	}
	// Unset limits stay nil, meaning unlimited.
	if mc.RPD != nil || mc.TPM != nil {
		t.Errorf("expected nil rpd/tpm, got %v %v", mc.RPD, mc.TPM)
	}

	if _, ok := cfg.ModelConfig("nope"); ok {
		t.Error("expected unknown model to miss")
	}
}

func TestKeys(t *testing.T) {
	t.Setenv("TEST_GROQ_KEY", "gsk_expanded")
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}

	keys := cfg.Keys()
	if key, ok := keys.APIKey("groq"); !ok || key != "gsk_expanded" {
		t.Errorf("groq key = %q, %v", key, ok)
	}
	// ollama has no configured key.
	if _, ok := keys.APIKey("ollama"); ok {
		t.Error("expected no ollama key")
	}
}

func TestApply(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}

	reg := provider.NewRegistry(nil)
	if err := cfg.Apply(reg); err != nil {
		t.Fatal(err)
	}

	bad := &Config{Providers: []ProviderConfig{{ID: "bogus", BaseURL: "http://x"}}}
	if err := bad.Apply(provider.NewRegistry(nil)); err == nil {
		t.Error("expected error for unknown provider id")
	}
}
