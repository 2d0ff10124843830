package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.Addr != ":8080" || cfg.Fulfillment.Addr != ":8090" {
		t.Errorf("addr defaults = %q, %q", cfg.Gateway.Addr, cfg.Fulfillment.Addr)
	}
	if cfg.Tools.CallTimeoutMS != 15000 || cfg.Tools.HandshakeTimeoutMS != 5000 {
		t.Errorf("timeout defaults = %d, %d", cfg.Tools.CallTimeoutMS, cfg.Tools.HandshakeTimeoutMS)
	}
	if cfg.Assistant.MaxSteps != 20 {
		t.Errorf("max_steps default = %d", cfg.Assistant.MaxSteps)
	}
	if !strings.Contains(cfg.Assistant.SystemPrompt, "music store") {
		t.Error("default system prompt not applied")
	}
	if cfg.Observe.SampleRate != 1.0 {
		t.Errorf("sample_rate default = %v", cfg.Observe.SampleRate)
	}
}

func TestLoadExpandsEnvReferences(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-secret")
	path := writeConfig(t, `
model:
  provider: openai
  settings:
    api_key: ${TEST_API_KEY}
    model: gpt-4o
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	settings, err := cfg.Model.DecodeOpenAI()
	if err != nil {
		t.Fatalf("DecodeOpenAI: %v", err)
	}
	if settings.APIKey != "sk-secret" {
		t.Errorf("api key = %q", settings.APIKey)
	}
	if settings.Model != "gpt-4o" {
		t.Errorf("model = %q", settings.Model)
	}
}

func TestDecodeOpenAIRequiresKeyAndModel(t *testing.T) {
	v := VendorConfig{
		Provider: "openai",
		Settings: map[string]any{"model": "gpt-4o"},
	}
	if _, err := v.DecodeOpenAI(); err == nil {
		t.Fatal("missing api_key accepted")
	}
}

func TestDecodeOpenAIRejectsUnknownKeys(t *testing.T) {
	v := VendorConfig{
		Provider: "openai",
		Settings: map[string]any{
			"api_key":     "sk-x",
			"model":       "gpt-4o",
			"temperature": 0.5,
		},
	}
	if _, err := v.DecodeOpenAI(); err == nil {
		t.Fatal("unknown setting accepted")
	}
}

func TestValidateGateway(t *testing.T) {
	path := writeConfig(t, `
tools:
  transport: "sse://localhost:8081"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.ValidateGateway(); err != nil {
		t.Errorf("valid gateway config rejected: %v", err)
	}

	cfg.Tools.Transport = ""
	if err := cfg.ValidateGateway(); err == nil {
		t.Error("missing transport accepted")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing config file accepted")
	}
}
