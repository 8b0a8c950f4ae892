// Package config loads scanner settings from a YAML or JSON file with
// environment-variable fallbacks for the analyzer endpoint.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/bmltera/codescanner/internal/analyzer"
	"github.com/bmltera/codescanner/internal/collect"
	"github.com/bmltera/codescanner/internal/state"
)

// Config is the scanner configuration. Zero values fall back to defaults.
type Config struct {
	// BaseURL is the analyzer endpoint, e.g. "https://api.openai.com".
	BaseURL string `json:"base_url" yaml:"base_url"`
	// Model overrides the default analyzer model.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
	// KeyPath points at a file whose first line is the API key.
	KeyPath string `json:"key_path,omitempty" yaml:"key_path,omitempty"`
	// DBPath is the durable store location.
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	// Extensions restricts which source files are scanned.
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	// Excludes are directory names skipped during discovery.
	Excludes []string `json:"excludes,omitempty" yaml:"excludes,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		BaseURL:    "https://api.openai.com",
		Model:      analyzer.DefaultModel,
		KeyPath:    filepath.Join(".codescanner", "key"),
		DBPath:     state.DefaultDBPath,
		Extensions: collect.DefaultExtensions,
	}
}

// LoadFromPath reads a config file (YAML or JSON). Format is detected by
// extension (.yaml/.yml → YAML, .json → JSON) or by content. A missing
// file is not an error; defaults apply.
func LoadFromPath(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return applyEnv(Default()), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Load(data, filepath.Ext(path))
	if err != nil {
		return Config{}, err
	}
	return applyEnv(cfg), nil
}

// Load parses configuration from bytes. ext is the file extension for the
// format hint; empty means detect from content.
func Load(data []byte, ext string) (Config, error) {
	cfg := Default()
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	switch ext {
	case ".yaml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config json: %w", err)
		}
	default:
		// Detect: JSON starts with {, anything else is YAML.
		trimmed := strings.TrimSpace(string(data))
		if strings.HasPrefix(trimmed, "{") {
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config json: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto cfg. The environment wins
// over the file so deployments can retarget without editing it.
func applyEnv(cfg Config) Config {
	if v := os.Getenv("CODESCANNER_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("CODESCANNER_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("CODESCANNER_KEY_PATH"); v != "" {
		cfg.KeyPath = v
	}
	return cfg
}
