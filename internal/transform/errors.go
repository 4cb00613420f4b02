// Package transform implements the tree-walking compiler framework
// shared by the backend query compilers.
package transform

import (
	"fmt"

	"github.com/Materials-Consortia/optimade-go/internal/parser"
)

// UnsupportedConstructError reports a grammar production the compiler
// has no handler for: the filter is valid, the feature is simply not
// implemented by this backend. Maps to a client-facing 501.
type UnsupportedConstructError struct {
	Production parser.Production
	Args       []any
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("unsupported grammar construct %q", e.Production)
}

// NotImplementedError reports a valid operator combination this
// backend does not implement (for example LENGTH with !=). Maps to a
// client-facing 501.
type NotImplementedError struct {
	Feature string
}

func (e *NotImplementedError) Error() string {
	return e.Feature + " is not implemented"
}

// NotSupportedError reports a filter that cannot be expressed against
// this backend's field declarations (for example LENGTH on a quantity
// with no length field). Maps to a client-facing 501.
type NotSupportedError struct {
	Feature string
}

func (e *NotSupportedError) Error() string {
	return e.Feature + " is not supported"
}

// MalformedTreeError reports a tree shape the framework itself should
// never have produced. It indicates a compiler bug, never caller
// input, and must be surfaced as an internal error.
type MalformedTreeError struct {
	Production parser.Production
	Reason     string
}

func (e *MalformedTreeError) Error() string {
	return fmt.Sprintf("malformed parse tree at %q: %s", e.Production, e.Reason)
}

func malformed(prod parser.Production, format string, args ...any) error {
	return &MalformedTreeError{Production: prod, Reason: fmt.Sprintf(format, args...)}
}
