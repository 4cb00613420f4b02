// Package testutil provides reusable test utilities for optiq
// integration tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TestWorkspace is a temporary directory holding the files a CLI
// invocation needs: a mapping schema, a config file, a catalog.
type TestWorkspace struct {
	Path   string
	t      *testing.T
	schema string
	files  map[string]string
}

// NewTestWorkspace creates a new workspace builder.
// Call Build() to create the actual directory.
func NewTestWorkspace(t *testing.T) *TestWorkspace {
	t.Helper()
	return &TestWorkspace{
		t:     t,
		files: make(map[string]string),
	}
}

// WithSchema sets the mapping schema (schema.yaml) content.
func (w *TestWorkspace) WithSchema(yaml string) *TestWorkspace {
	w.schema = yaml
	return w
}

// WithConfig sets the config.toml content.
func (w *TestWorkspace) WithConfig(toml string) *TestWorkspace {
	w.files["config.toml"] = toml
	return w
}

// WithFile adds a file to the workspace.
// The path is relative to the workspace root.
func (w *TestWorkspace) WithFile(path, content string) *TestWorkspace {
	w.files[path] = content
	return w
}

// Build creates the workspace directory and all configured files.
// Returns the TestWorkspace for method chaining.
func (w *TestWorkspace) Build() *TestWorkspace {
	w.t.Helper()

	w.Path = w.t.TempDir()

	if w.schema != "" {
		w.writeFile("schema.yaml", w.schema)
	}

	for path, content := range w.files {
		w.writeFile(path, content)
	}

	return w
}

// SchemaPath returns the path to the workspace schema, or "" if the
// workspace has none.
func (w *TestWorkspace) SchemaPath() string {
	if w.schema == "" {
		return ""
	}
	return filepath.Join(w.Path, "schema.yaml")
}

// writeFile writes a file to the workspace, creating directories as needed.
func (w *TestWorkspace) writeFile(relPath, content string) {
	w.t.Helper()
	fullPath := filepath.Join(w.Path, relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		w.t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		w.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
}

// ReadFile reads a file from the workspace.
// Returns the content as a string.
func (w *TestWorkspace) ReadFile(relPath string) string {
	w.t.Helper()
	fullPath := filepath.Join(w.Path, relPath)
	content, err := os.ReadFile(fullPath)
	if err != nil {
		w.t.Fatalf("failed to read file %s: %v", fullPath, err)
	}
	return string(content)
}

// FileExists checks if a file exists in the workspace.
func (w *TestWorkspace) FileExists(relPath string) bool {
	w.t.Helper()
	fullPath := filepath.Join(w.Path, relPath)
	_, err := os.Stat(fullPath)
	return err == nil
}

// MinimalSchema returns a minimal valid mapping schema.
func MinimalSchema() string {
	return `entry_types:
  structures:
    aliases:
      id: _id
`
}

// StructureSchema returns a mapping schema close to the built-in
// structures mapping, with aliases, lengths and search quantities.
func StructureSchema() string {
	return `entry_types:
  structures:
    aliases:
      id: _id
      chemical_formula: attributes.formula
    lengths:
      elements: nelements
      species_at_sites: nsites
    relationships: [references, structures]
    quantities:
      nelements:
        kind: integer
      nsites:
        kind: integer
      elements:
        kind: keyword
        length: nelements
        has_only: elements_only
      chemical_formula_descriptive:
        kind: text
      band_gap:
        kind: float
  references:
    aliases:
      id: _id
`
}
