package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
backend = "elastic"
entry_type = "structures"
grammar_version = "0.10.1"
max_depth = 32

[ui]
accent = "39"
code_theme = "monokai"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Backend != "elastic" {
		t.Errorf("Backend = %q, want %q", cfg.Backend, "elastic")
	}
	if cfg.EntryType != "structures" {
		t.Errorf("EntryType = %q, want %q", cfg.EntryType, "structures")
	}
	if cfg.GrammarVersion != "0.10.1" {
		t.Errorf("GrammarVersion = %q, want %q", cfg.GrammarVersion, "0.10.1")
	}
	if cfg.MaxDepth != 32 {
		t.Errorf("MaxDepth = %d, want 32", cfg.MaxDepth)
	}
	if cfg.UI.Accent != "39" {
		t.Errorf("UI.Accent = %q, want %q", cfg.UI.Accent, "39")
	}
	if cfg.UI.CodeTheme != "monokai" {
		t.Errorf("UI.CodeTheme = %q, want %q", cfg.UI.CodeTheme, "monokai")
	}
}

func TestLoadFromInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("backend = ["), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for invalid TOML")
	}
}
