package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveConfigDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := resolveConfig("")
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if cfg.Paths.LogDir == "" {
		t.Fatal("expected default log directory")
	}
	if _, err := os.Stat(cfg.Paths.LogDir); err != nil {
		t.Fatalf("expected log directory to exist: %v", err)
	}
}

func TestResolveConfigExplicitPath(t *testing.T) {
	base := t.TempDir()
	logDir := filepath.Join(base, "logs")
	configPath := filepath.Join(base, "config.toml")
	content := "[paths]\nlog_dir = \"" + logDir + "\"\n\n[llm]\nprovider = \"openai\"\napi_key = \"test-key\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := resolveConfig(configPath)
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if cfg.Paths.LogDir != logDir {
		t.Fatalf("expected log dir %q, got %q", logDir, cfg.Paths.LogDir)
	}
	if _, err := os.Stat(logDir); err != nil {
		t.Fatalf("expected log directory to exist: %v", err)
	}
}

func TestResolveConfigBadFile(t *testing.T) {
	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	if err := os.WriteFile(configPath, []byte("not [valid toml"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := resolveConfig(configPath); err == nil {
		t.Fatal("expected malformed config to fail")
	}
}
