// Package elastic compiles OPTIMADE filter parse trees into
// Elasticsearch query DSL objects. Unlike the document-store compiler
// it only accepts properties declared up front as quantities, so it
// can pick match vs term semantics per field type.
package elastic

// Kind describes how a quantity is indexed, which decides the query
// type used for equality.
type Kind int

const (
	// KindKeyword fields match exactly (term queries).
	KindKeyword Kind = iota
	// KindText fields are analyzed and match with full-text queries.
	KindText
	// KindInteger fields hold whole numbers.
	KindInteger
	// KindFloat fields hold floating-point numbers.
	KindFloat
)

// Quantity declares one filterable property and its index mapping.
type Quantity struct {
	// Name is the OPTIMADE property name the filter language uses.
	Name string
	// BackendField is the index field queried; defaults to Name.
	BackendField string
	// Kind selects equality semantics.
	Kind Kind
	// Length, when set, answers LENGTH filters from a count field.
	Length *Quantity
	// HasOnly, when set, answers HAS ONLY filters from a field
	// holding the canonical concatenation of the element values.
	HasOnly *Quantity
	// Nested, when set, names the nested-document path shared with
	// other quantities for zipped-tuple filters.
	Nested *Quantity
}

func (q *Quantity) field() string {
	if q.BackendField != "" {
		return q.BackendField
	}
	return q.Name
}

// StructureQuantities declares the filterable properties of the
// structures entry type with the standard OPTIMADE index layout.
func StructureQuantities() []*Quantity {
	nelements := &Quantity{Name: "nelements", Kind: KindInteger}
	nsites := &Quantity{Name: "nsites", Kind: KindInteger}
	species := &Quantity{Name: "species", Kind: KindKeyword}

	return []*Quantity{
		{Name: "id", Kind: KindKeyword},
		{Name: "type", Kind: KindKeyword},
		nelements,
		nsites,
		{
			Name:    "elements",
			Kind:    KindKeyword,
			Length:  nelements,
			HasOnly: &Quantity{Name: "elements_only", Kind: KindKeyword},
		},
		{Name: "elements_ratios", Kind: KindFloat},
		{Name: "chemical_formula_reduced", Kind: KindKeyword},
		{Name: "chemical_formula_anonymous", Kind: KindKeyword},
		{Name: "chemical_formula_descriptive", Kind: KindText},
		{Name: "structure_features", Kind: KindKeyword},
		{Name: "species_at_sites", Kind: KindKeyword, Length: nsites},
		{Name: "last_modified", Kind: KindKeyword},
		{Name: "species.name", BackendField: "species.name", Kind: KindKeyword, Nested: species},
		{Name: "species.mass", BackendField: "species.mass", Kind: KindFloat, Nested: species},
		{Name: "species.concentration", BackendField: "species.concentration", Kind: KindFloat, Nested: species},
	}
}
