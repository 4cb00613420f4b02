package grammar

import (
	"fmt"
	"sort"
)

// Features describes which optional constructs a grammar version
// accepts. The parser engine consults these when recognizing input.
type Features struct {
	// ZippedTuples enables multi-property correlated filters
	// (prop1:prop2 HAS a:b), introduced in the 0.10 grammar.
	ZippedTuples bool

	// LengthOperators enables LENGTH with a comparison operator
	// (LENGTH > 2), introduced in the 0.10 grammar.
	LengthOperators bool
}

// Grammar is one registered grammar definition: the bundled grammar
// text plus the feature set the engine needs to parse it.
type Grammar struct {
	Version  Version
	Variant  string
	Text     string
	Features Features
}

// DuplicateGrammarError is returned by Register when a
// (version, variant) pair is already present.
type DuplicateGrammarError struct {
	Version Version
	Variant string
}

func (e *DuplicateGrammarError) Error() string {
	return fmt.Sprintf("grammar %s (%s) already registered", e.Version, e.Variant)
}

// UnknownVersionError is returned by Resolve when no grammar matches
// the requested (version, variant) pair.
type UnknownVersionError struct {
	Version *Version
	Variant string
}

func (e *UnknownVersionError) Error() string {
	if e.Version == nil {
		return fmt.Sprintf("no grammar registered with variant %q", e.Variant)
	}
	return fmt.Sprintf("unknown grammar version %s (%s)", e.Version, e.Variant)
}

type registryKey struct {
	version Version
	variant string
}

// Registry holds the grammars available to parsers. It is populated
// once during construction and read-only afterward, so a single
// Registry may be shared across concurrent parsers.
type Registry struct {
	grammars map[registryKey]*Grammar
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{grammars: make(map[registryKey]*Grammar)}
}

// Register adds a grammar under (version, variant). An empty variant
// means DefaultVariant.
func (r *Registry) Register(g *Grammar) error {
	variant := g.Variant
	if variant == "" {
		variant = DefaultVariant
	}
	key := registryKey{version: g.Version, variant: variant}
	if _, ok := r.grammars[key]; ok {
		return &DuplicateGrammarError{Version: g.Version, Variant: variant}
	}
	stored := *g
	stored.Variant = variant
	r.grammars[key] = &stored
	return nil
}

// Resolve returns the grammar for the requested version and variant.
// A nil version selects the highest registered version that has the
// requested variant. An empty variant means DefaultVariant.
func (r *Registry) Resolve(version *Version, variant string) (*Grammar, error) {
	if variant == "" {
		variant = DefaultVariant
	}
	if version != nil {
		g, ok := r.grammars[registryKey{version: *version, variant: variant}]
		if !ok {
			return nil, &UnknownVersionError{Version: version, Variant: variant}
		}
		return g, nil
	}

	var best *Grammar
	for key, g := range r.grammars {
		if key.variant != variant {
			continue
		}
		if best == nil || g.Version.Compare(best.Version) > 0 {
			best = g
		}
	}
	if best == nil {
		return nil, &UnknownVersionError{Variant: variant}
	}
	return best, nil
}

// Versions lists the registered (version, variant) pairs, highest
// version first.
func (r *Registry) Versions() []*Grammar {
	out := make([]*Grammar, 0, len(r.grammars))
	for _, g := range r.grammars {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Version.Compare(out[j].Version); c != 0 {
			return c > 0
		}
		return out[i].Variant < out[j].Variant
	})
	return out
}
