package config

import (
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v2"
)

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: "8585",
		},
		Store: StoreConfig{
			IndexTTLSeconds: 5,
		},
		Defaults: GenerationDefaults{
			Provider: "openai",
			Style:    "portrait",
			Size:     "1024x1024",
		},
		Providers: map[string]ProviderConfig{
			"openai": {
				Type:      "openai",
				Model:     "gpt-image-1",
				APIKey:    "${OPENAI_API_KEY}",
				Size:      "1024x1024",
				RateLimit: 30,
				Enabled:   true,
			},
			"mock": {
				Type:    "mock",
				Enabled: false,
			},
		},
	}
}

// defaultConfigYAML mirrors Config with yaml tags for the bootstrap file.
// viper reads it back through mapstructure, so the key names must match.
type defaultConfigYAML struct {
	Server    map[string]string         `yaml:"server"`
	Store     map[string]int            `yaml:"store"`
	Defaults  map[string]string         `yaml:"defaults"`
	Providers map[string]map[string]any `yaml:"providers"`
}

// WriteDefault writes a starter config file at path. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	cfg := DefaultConfig()
	doc := defaultConfigYAML{
		Server: map[string]string{
			"host": cfg.Server.Host,
			"port": cfg.Server.Port,
		},
		Store: map[string]int{
			"index_ttl_seconds": cfg.Store.IndexTTLSeconds,
		},
		Defaults: map[string]string{
			"provider": cfg.Defaults.Provider,
			"style":    cfg.Defaults.Style,
			"size":     cfg.Defaults.Size,
		},
		Providers: make(map[string]map[string]any, len(cfg.Providers)),
	}
	for name, p := range cfg.Providers {
		doc.Providers[name] = map[string]any{
			"type":       p.Type,
			"model":      p.Model,
			"api_key":    p.APIKey,
			"size":       p.Size,
			"rate_limit": p.RateLimit,
			"enabled":    p.Enabled,
		}
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
