package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Materials-Consortia/optimade-go/internal/atomicfile"
)

// Load loads a mapping schema from a YAML file. An empty path returns
// the built-in default schema.
func Load(path string) (*Schema, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}
	if schema.EntryTypes == nil {
		schema.EntryTypes = make(map[string]*EntryType)
	}
	for name, e := range schema.EntryTypes {
		if e == nil {
			schema.EntryTypes[name] = &EntryType{}
		}
	}

	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", path, err)
	}
	return &schema, nil
}

// Default returns the built-in mapping for the standard structures and
// references entry types.
func Default() *Schema {
	return &Schema{
		EntryTypes: map[string]*EntryType{
			"structures": {
				Lengths: map[string]string{
					"elements":         "nelements",
					"species_at_sites": "nsites",
				},
				Relationships: []string{"references", "structures"},
				Quantities: map[string]*QuantityDef{
					"id":                           {Kind: "keyword"},
					"type":                         {Kind: "keyword"},
					"nelements":                    {Kind: "integer"},
					"nsites":                       {Kind: "integer"},
					"elements":                     {Kind: "keyword", Length: "nelements", HasOnly: "elements_only"},
					"elements_ratios":              {Kind: "float"},
					"chemical_formula_reduced":     {Kind: "keyword"},
					"chemical_formula_anonymous":   {Kind: "keyword"},
					"chemical_formula_descriptive": {Kind: "text"},
					"structure_features":           {Kind: "keyword"},
					"species_at_sites":             {Kind: "keyword", Length: "nsites"},
					"last_modified":                {Kind: "keyword"},
					"species.name":                 {Kind: "keyword", Nested: "species"},
					"species.mass":                 {Kind: "float", Nested: "species"},
					"species.concentration":        {Kind: "float", Nested: "species"},
				},
			},
			"references": {
				Relationships: []string{"structures"},
				Quantities: map[string]*QuantityDef{
					"id":      {Kind: "keyword"},
					"type":    {Kind: "keyword"},
					"doi":     {Kind: "keyword"},
					"url":     {Kind: "keyword"},
					"title":   {Kind: "text"},
					"year":    {Kind: "integer"},
					"authors": {Kind: "keyword"},
				},
			},
		},
	}
}

// CreateDefault writes a commented starter schema file.
func CreateDefault(path string) error {
	starter := `# Backend mapping schema.
#
# Per entry type, declare how OPTIMADE properties map onto your
# backend fields.
#
# aliases:       OPTIMADE name -> backend field (document store, SQL)
# lengths:       array property -> field holding its element count
# relationships: entry types reachable as <type>.id
# quantities:    filterable properties for the search backend
#   kind:     keyword | text | integer | float
#   field:    index field if it differs from the property name
#   length:   quantity answering LENGTH filters
#   has_only: field with the canonical concatenation for HAS ONLY
#   nested:   shared nested-document path for zipped filters

entry_types:
  structures:
    aliases:
      id: _id
    lengths:
      elements: nelements
      species_at_sites: nsites
    relationships: [references, structures]
    quantities:
      nelements:
        kind: integer
      elements:
        kind: keyword
        length: nelements
        has_only: elements_only
`
	if err := atomicfile.WriteFile(path, []byte(starter), 0644); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}
	return nil
}
