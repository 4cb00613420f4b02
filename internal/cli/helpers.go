package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/Materials-Consortia/optimade-go/internal/grammar"
	"github.com/Materials-Consortia/optimade-go/internal/parser"
	"github.com/Materials-Consortia/optimade-go/internal/schema"
)

// defaultEntryType is used when neither flags nor config pick one.
const defaultEntryType = "structures"

// newFilterParser builds a parser honoring the grammar version and
// depth settings from flags and config.
func newFilterParser() (*parser.Parser, error) {
	reg, err := grammar.DefaultRegistry()
	if err != nil {
		return nil, err
	}

	var opts []parser.Option

	version := grammarVersion
	if version == "" {
		version = cfg.GrammarVersion
	}
	if version != "" {
		v, err := grammar.ParseVersion(version)
		if err != nil {
			return nil, err
		}
		opts = append(opts, parser.WithVersion(v))
	}

	depth := maxDepthFlag
	if depth == 0 {
		depth = cfg.MaxDepth
	}
	if depth > 0 {
		opts = append(opts, parser.WithMaxDepth(depth))
	}

	return parser.New(reg, opts...)
}

// loadMappingSchema loads the schema named by flags or config, or the
// built-in default.
func loadMappingSchema() (*schema.Schema, error) {
	path := schemaPathFlag
	if path == "" {
		path = cfg.Schema
	}
	return schema.Load(path)
}

// resolveEntryType picks the entry type from the flag, then config,
// then the default.
func resolveEntryType(flag string) string {
	if flag != "" {
		return flag
	}
	if cfg.EntryType != "" {
		return cfg.EntryType
	}
	return defaultEntryType
}

// readFilterArg returns the filter string from the argument list, or
// from stdin when piped. An absent filter is the empty (match-all)
// filter.
func readFilterArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if isatty.IsTerminal(os.Stdin.Fd()) {
		return "", nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read filter from stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
