package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9090
storage:
  adapter: local
  local:
    base_path: /tmp/bilingual-reader-test
library:
  prefix: sample-texts
providers:
  preferred: [openai, google]
  llm:
    - name: openai
      enabled: true
      endpoint: https://api.openai.com/v1
      model: gpt-4o-mini
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Library.Prefix != "sample-texts" {
		t.Errorf("Expected library prefix 'sample-texts', got %q", cfg.Library.Prefix)
	}
	if len(cfg.Providers.LLM) != 1 || cfg.Providers.LLM[0].Name != "openai" {
		t.Errorf("Expected one LLM provider 'openai', got %+v", cfg.Providers.LLM)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
storage:
  adapter: local
  local:
    base_path: /tmp/bilingual-reader-test
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Session.LookupDebounceMs != 500 {
		t.Errorf("Expected default lookup debounce 500, got %d", cfg.Session.LookupDebounceMs)
	}
	if cfg.Session.DismissGraceMs != 2000 {
		t.Errorf("Expected default dismiss grace 2000, got %d", cfg.Session.DismissGraceMs)
	}
	if cfg.Session.ContextPrefixChars != 200 {
		t.Errorf("Expected default context prefix 200, got %d", cfg.Session.ContextPrefixChars)
	}
	if cfg.Playback.DefaultVoice != "alloy" {
		t.Errorf("Expected default voice 'alloy', got %q", cfg.Playback.DefaultVoice)
	}
	if cfg.Playback.DefaultSpeed != 1.0 {
		t.Errorf("Expected default speed 1.0, got %g", cfg.Playback.DefaultSpeed)
	}
	if cfg.Library.Prefix != "texts" {
		t.Errorf("Expected default library prefix 'texts', got %q", cfg.Library.Prefix)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	path := writeConfig(t, `
server:
  port: -1
storage:
  adapter: local
  local:
    base_path: /tmp/bilingual-reader-test
`)

	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for invalid port")
	}
}

func TestLoad_InvalidAdapter(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
storage:
  adapter: ftp
`)

	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for invalid storage adapter")
	}
}

func TestLoad_InvalidDefaultSpeed(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
storage:
  adapter: local
  local:
    base_path: /tmp/bilingual-reader-test
playback:
  default_speed: 9.5
`)

	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for out-of-range default speed")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
storage:
  adapter: local
  local:
    base_path: /tmp/bilingual-reader-test
providers:
  llm:
    - name: openai
      enabled: true
      endpoint: https://api.openai.com/v1
      model: gpt-4o-mini
`)

	t.Setenv("BR_SERVER_PORT", "9999")
	t.Setenv("BR_LLM_OPENAI_API_KEY", "test-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Expected env-overridden port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Providers.LLM[0].APIKey != "test-key" {
		t.Errorf("Expected env-overridden API key, got %q", cfg.Providers.LLM[0].APIKey)
	}
}
