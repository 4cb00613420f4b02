package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Materials-Consortia/optimade-go/internal/elastic"
)

func writeSchema(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	require.Contains(t, s.EntryTypes, "structures")
	require.Contains(t, s.EntryTypes, "references")
}

func TestDefaultSchemaValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadSchemaFile(t *testing.T) {
	path := writeSchema(t, `
entry_types:
  structures:
    aliases:
      id: _id
      immutable_id: _id_immutable
    lengths:
      elements: nelements
    relationships: [references]
    quantities:
      nelements:
        kind: integer
      elements:
        kind: keyword
        length: nelements
        has_only: elements_only
      chemical_formula_descriptive:
        kind: text
        field: formula_descriptive
`)
	s, err := Load(path)
	require.NoError(t, err)

	e := s.EntryType("structures")
	require.Equal(t, []string{"references"}, e.Relationships)

	table, err := e.AliasTable()
	require.NoError(t, err)
	require.Equal(t, "_id", table.Resolve("id"))
	require.Equal(t, "unmapped", table.Resolve("unmapped"))
	length, ok := table.LengthAlias("elements")
	require.True(t, ok)
	require.Equal(t, "nelements", length)

	quantities := e.ElasticQuantities()
	byName := make(map[string]*elastic.Quantity, len(quantities))
	for _, q := range quantities {
		byName[q.Name] = q
	}
	require.Equal(t, elastic.KindInteger, byName["nelements"].Kind)
	require.Same(t, byName["nelements"], byName["elements"].Length)
	require.Equal(t, "elements_only", byName["elements"].HasOnly.Name)
	require.Equal(t, "formula_descriptive", byName["chemical_formula_descriptive"].BackendField)
	require.Equal(t, elastic.KindText, byName["chemical_formula_descriptive"].Kind)
}

func TestLoadSharedNestedPath(t *testing.T) {
	path := writeSchema(t, `
entry_types:
  structures:
    quantities:
      species.name:
        kind: keyword
        nested: species
      species.mass:
        kind: float
        nested: species
`)
	s, err := Load(path)
	require.NoError(t, err)

	byName := make(map[string]*elastic.Quantity)
	for _, q := range s.EntryType("structures").ElasticQuantities() {
		byName[q.Name] = q
	}
	// Zipped filters rely on the two quantities sharing one nested
	// declaration.
	require.NotNil(t, byName["species.name"].Nested)
	require.Same(t, byName["species.name"].Nested, byName["species.mass"].Nested)
}

func TestLoadRejectsInvalidSchemas(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown kind", `
entry_types:
  structures:
    quantities:
      nelements:
        kind: decimal
`},
		{"dangling length", `
entry_types:
  structures:
    quantities:
      elements:
        kind: keyword
        length: nelements
`},
		{"reserved alias prefix", `
entry_types:
  structures:
    aliases:
      id: $id
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeSchema(t, tt.content))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestCreateDefaultRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, CreateDefault(path))
	s, err := Load(path)
	require.NoError(t, err)
	require.Contains(t, s.EntryTypes, "structures")
}
