package grammar

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// Bundled grammar text resources. File names encode the version and
// variant: v<major>.<minor>.<patch>[.<variant>].ebnf
//
//go:embed grammars
var grammarFS embed.FS

// featureSets maps grammar versions to the constructs they accept.
// Zipped tuples and LENGTH with comparison operators entered the
// grammar with 0.10.
var featureSets = map[Version]Features{
	{0, 9, 7}:  {},
	{0, 10, 1}: {ZippedTuples: true, LengthOperators: true},
}

// DefaultRegistry builds a registry from the bundled grammar files.
func DefaultRegistry() (*Registry, error) {
	reg := NewRegistry()
	entries, err := fs.ReadDir(grammarFS, "grammars")
	if err != nil {
		return nil, fmt.Errorf("reading bundled grammars: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		version, variant, err := parseGrammarFilename(name)
		if err != nil {
			return nil, err
		}
		text, err := fs.ReadFile(grammarFS, path.Join("grammars", name))
		if err != nil {
			return nil, fmt.Errorf("reading bundled grammar %s: %w", name, err)
		}
		features, ok := featureSets[version]
		if !ok {
			return nil, fmt.Errorf("bundled grammar %s has no feature set", name)
		}
		if err := reg.Register(&Grammar{
			Version:  version,
			Variant:  variant,
			Text:     string(text),
			Features: features,
		}); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// MustDefaultRegistry is DefaultRegistry for process-start wiring where
// a broken bundle is unrecoverable.
func MustDefaultRegistry() *Registry {
	reg, err := DefaultRegistry()
	if err != nil {
		panic(err)
	}
	return reg
}

func parseGrammarFilename(name string) (Version, string, error) {
	base, ok := strings.CutSuffix(name, ".ebnf")
	if !ok {
		return Version{}, "", fmt.Errorf("unexpected grammar resource %q", name)
	}
	parts := strings.SplitN(base, ".", 4)
	if len(parts) < 3 {
		return Version{}, "", fmt.Errorf("unexpected grammar resource %q", name)
	}
	variant := DefaultVariant
	if len(parts) == 4 {
		variant = parts[3]
	}
	version, err := ParseVersion(strings.Join(parts[:3], "."))
	if err != nil {
		return Version{}, "", fmt.Errorf("unexpected grammar resource %q: %w", name, err)
	}
	return version, variant, nil
}
