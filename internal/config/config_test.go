package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.OpenAI.Model != "gpt-3.5-turbo" {
		t.Errorf("OpenAI.Model = %s, want gpt-3.5-turbo", cfg.OpenAI.Model)
	}
	if cfg.Medusa.BaseURL != "http://localhost:9000" {
		t.Errorf("Medusa.BaseURL = %s, want http://localhost:9000", cfg.Medusa.BaseURL)
	}
	if cfg.Tokens.Budget != 3300 {
		t.Errorf("Tokens.Budget = %d, want 3300", cfg.Tokens.Budget)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9999
openai:
  api_key: file-key
  model: gpt-4
tokens:
  budget: 2000
auth:
  api_key_hashes:
    - abc123
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.OpenAI.APIKey != "file-key" {
		t.Errorf("OpenAI.APIKey = %s, want file-key", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.Model != "gpt-4" {
		t.Errorf("OpenAI.Model = %s, want gpt-4", cfg.OpenAI.Model)
	}
	if cfg.Tokens.Budget != 2000 {
		t.Errorf("Tokens.Budget = %d, want 2000", cfg.Tokens.Budget)
	}
	if len(cfg.Auth.APIKeyHashes) != 1 || cfg.Auth.APIKeyHashes[0] != "abc123" {
		t.Errorf("Auth.APIKeyHashes = %v, want [abc123]", cfg.Auth.APIKeyHashes)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("ASSISTANT_SERVER__PORT", "7777")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want env override 7777", cfg.Server.Port)
	}
}

func TestLoad_EnvNesting(t *testing.T) {
	// Single underscores survive inside key names
	t.Setenv("ASSISTANT_OPENAI__API_KEY", "env-key")
	t.Setenv("ASSISTANT_MEDUSA__BASE_URL", "http://medusa.internal:9000")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.OpenAI.APIKey != "env-key" {
		t.Errorf("OpenAI.APIKey = %s, want env-key", cfg.OpenAI.APIKey)
	}
	if cfg.Medusa.BaseURL != "http://medusa.internal:9000" {
		t.Errorf("Medusa.BaseURL = %s, want http://medusa.internal:9000", cfg.Medusa.BaseURL)
	}
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
}
