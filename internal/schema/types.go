// Package schema loads the backend mapping schema: per entry type, the
// field aliases, length aliases, relationship targets and quantity
// declarations the compilers are configured with.
package schema

import (
	"github.com/Materials-Consortia/optimade-go/internal/aliases"
	"github.com/Materials-Consortia/optimade-go/internal/elastic"
)

// Schema is the full mapping configuration keyed by entry type.
type Schema struct {
	EntryTypes map[string]*EntryType `yaml:"entry_types"`
}

// EntryType describes how one entry type's properties map onto the
// backends.
type EntryType struct {
	// Aliases maps OPTIMADE property names to backend field names.
	Aliases map[string]string `yaml:"aliases"`

	// Lengths maps array-valued properties to the field holding their
	// element count.
	Lengths map[string]string `yaml:"lengths"`

	// Relationships lists the entry types reachable through
	// relationship linkage (e.g. references.id).
	Relationships []string `yaml:"relationships"`

	// Quantities declares the filterable properties for the search
	// backend.
	Quantities map[string]*QuantityDef `yaml:"quantities"`
}

// QuantityDef declares one search-backend quantity.
type QuantityDef struct {
	// Field is the index field; defaults to the quantity name.
	Field string `yaml:"field"`

	// Kind is one of keyword, text, integer, float.
	Kind string `yaml:"kind"`

	// Length names the quantity answering LENGTH filters.
	Length string `yaml:"length"`

	// HasOnly names the field holding the canonical concatenation for
	// HAS ONLY filters.
	HasOnly string `yaml:"has_only"`

	// Nested names the nested-document path shared for zipped
	// filters.
	Nested string `yaml:"nested"`
}

var quantityKinds = map[string]elastic.Kind{
	"":        elastic.KindKeyword,
	"keyword": elastic.KindKeyword,
	"text":    elastic.KindText,
	"integer": elastic.KindInteger,
	"float":   elastic.KindFloat,
}

// EntryType returns the mapping for one entry type, or an empty
// mapping when none is declared.
func (s *Schema) EntryType(name string) *EntryType {
	if e, ok := s.EntryTypes[name]; ok {
		return e
	}
	return &EntryType{}
}

// AliasTable builds the alias table for the document-store and SQL
// compilers.
func (e *EntryType) AliasTable() (*aliases.Table, error) {
	fields := make([]aliases.Pair, 0, len(e.Aliases))
	for from, to := range e.Aliases {
		fields = append(fields, aliases.Pair{From: from, To: to})
	}
	lengths := make([]aliases.Pair, 0, len(e.Lengths))
	for from, to := range e.Lengths {
		lengths = append(lengths, aliases.Pair{From: from, To: to})
	}
	return aliases.NewTable(fields, lengths)
}

// ElasticQuantities builds the quantity declarations for the search
// compiler. Length, HasOnly and Nested references resolve against the
// other declared quantities.
func (e *EntryType) ElasticQuantities() []*elastic.Quantity {
	built := make(map[string]*elastic.Quantity, len(e.Quantities))
	for name, def := range e.Quantities {
		built[name] = &elastic.Quantity{
			Name:         name,
			BackendField: def.Field,
			Kind:         quantityKinds[def.Kind],
		}
	}
	out := make([]*elastic.Quantity, 0, len(built))
	for name, def := range e.Quantities {
		q := built[name]
		if def.Length != "" {
			q.Length = built[def.Length]
		}
		if def.HasOnly != "" {
			q.HasOnly = &elastic.Quantity{Name: def.HasOnly, Kind: elastic.KindKeyword}
		}
		if def.Nested != "" {
			if parent, ok := built[def.Nested]; ok {
				q.Nested = parent
			} else {
				q.Nested = &elastic.Quantity{Name: def.Nested, Kind: elastic.KindKeyword}
				built[def.Nested] = q.Nested
			}
		}
		out = append(out, q)
	}
	return out
}
