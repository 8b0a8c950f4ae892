package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromPath_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "base_url: https://llm.internal\nmodel: gpt-4o\nextensions:\n  - .py\n  - .rs\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.BaseURL != "https://llm.internal" || cfg.Model != "gpt-4o" {
		t.Errorf("got %+v", cfg)
	}
	if len(cfg.Extensions) != 2 || cfg.Extensions[1] != ".rs" {
		t.Errorf("extensions: got %v", cfg.Extensions)
	}
	// Unset fields keep their defaults.
	if cfg.DBPath == "" || cfg.KeyPath == "" {
		t.Errorf("defaults not preserved: %+v", cfg)
	}
}

func TestLoadFromPath_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{"base_url":"https://proxy.example","key_path":"/etc/scanner/key"}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.BaseURL != "https://proxy.example" || cfg.KeyPath != "/etc/scanner/key" {
		t.Errorf("got %+v", cfg)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	want := Default()
	if cfg.BaseURL != want.BaseURL || cfg.Model != want.Model {
		t.Errorf("got %+v, want defaults %+v", cfg, want)
	}
}

func TestLoad_DetectJSON(t *testing.T) {
	cfg, err := Load([]byte(`{"model":"o3-mini"}`), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "o3-mini" {
		t.Errorf("model: got %q", cfg.Model)
	}
}

func TestLoad_DetectYAML(t *testing.T) {
	cfg, err := Load([]byte("excludes:\n  - build\n"), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Excludes) != 1 || cfg.Excludes[0] != "build" {
		t.Errorf("excludes: got %v", cfg.Excludes)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load([]byte(":\n  - not valid"), ".yaml"); err == nil {
		t.Error("want error for malformed yaml")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("CODESCANNER_BASE_URL", "https://env.example")
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.BaseURL != "https://env.example" {
		t.Errorf("base url: got %q", cfg.BaseURL)
	}
}
