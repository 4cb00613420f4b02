// Package config handles global optiq configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/Materials-Consortia/optimade-go/internal/atomicfile"
)

// Config represents the global optiq configuration.
type Config struct {
	// Backend is the default compile target: mongo, elastic or sql.
	Backend string `toml:"backend"`

	// EntryType is the default entry type filters compile against.
	EntryType string `toml:"entry_type"`

	// Schema is the path to the backend mapping schema file. Empty
	// uses the built-in defaults.
	Schema string `toml:"schema"`

	// GrammarVersion pins the filter grammar version (e.g. "0.10.1").
	// Empty resolves to the latest registered grammar.
	GrammarVersion string `toml:"grammar_version"`

	// MaxDepth bounds filter nesting depth; 0 uses the parser default.
	MaxDepth int `toml:"max_depth"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown
	// rendering. Supported values are ANSI color codes ("0" to "255")
	// or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered
	// markdown code blocks.
	CodeTheme string `toml:"code_theme"`
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}

// DefaultPath returns the default config file path.
// Checks ~/.config/optiq/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "optiq", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "optiq", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

// CreateDefault creates a default config file if it doesn't exist.
func CreateDefault() (string, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := `# optiq configuration

# Default compile target: mongo, elastic, or sql
# backend = "mongo"

# Default entry type for filters
# entry_type = "structures"

# Backend mapping schema (empty uses the built-in defaults)
# schema = "/path/to/schema.yaml"

# Pin the filter grammar version; empty resolves to the latest
# grammar_version = "0.10.1"

# Maximum filter nesting depth (0 = parser default)
# max_depth = 64

# Optional UI accent color for headers in terminal output.
# Supports ANSI color codes (0-255) or hex (#RRGGBB).
# [ui]
# accent = "39"
# code_theme = "monokai"
`

	if err := atomicfile.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}
