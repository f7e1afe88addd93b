// Package config loads service configuration from an optional YAML file and
// ASSISTANT_-prefixed environment variables, with env taking precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server ServerConfig `koanf:"server"`
	OpenAI OpenAIConfig `koanf:"openai"`
	Medusa MedusaConfig `koanf:"medusa"`
	Tokens TokensConfig `koanf:"tokens"`
	Auth   AuthConfig   `koanf:"auth"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type OpenAIConfig struct {
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

// MedusaConfig selects the commerce backend host and credentials.
type MedusaConfig struct {
	BaseURL  string `koanf:"base_url"`
	APIToken string `koanf:"api_token"`
}

type TokensConfig struct {
	Budget int `koanf:"budget"`
}

// AuthConfig lists the SHA-256 hashes of accepted admin API keys. An empty
// list disables authentication (local development only).
type AuthConfig struct {
	APIKeyHashes []string `koanf:"api_key_hashes"`
}

// Load reads configuration. The file is optional; environment variables
// override it.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	// Double underscore separates nesting levels so single underscores
	// survive inside key names: ASSISTANT_MEDUSA__BASE_URL -> medusa.base_url.
	if err := k.Load(env.Provider("ASSISTANT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "ASSISTANT_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("openai.model") {
		k.Set("openai.model", "gpt-3.5-turbo")
	}
	if !k.Exists("medusa.base_url") {
		k.Set("medusa.base_url", "http://localhost:9000")
	}
	if !k.Exists("tokens.budget") {
		k.Set("tokens.budget", 3300)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
