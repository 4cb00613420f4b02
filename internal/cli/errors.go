// Package cli implements the command-line interface.
package cli

import (
	"errors"

	"github.com/Materials-Consortia/optimade-go/internal/grammar"
	"github.com/Materials-Consortia/optimade-go/internal/parser"
	"github.com/Materials-Consortia/optimade-go/internal/transform"
)

// Error codes for structured error responses.
// These codes are stable and can be relied upon by API layers: syntax
// and complexity errors are the caller's fault, unsupported and
// not-implemented errors mean the filter is valid but this backend
// cannot serve it, and internal errors indicate a bug.
const (
	// Filter errors (caller input)
	ErrFilterSyntax     = "FILTER_SYNTAX"
	ErrFilterTooComplex = "FILTER_TOO_COMPLEX"

	// Backend capability errors
	ErrUnsupportedConstruct = "UNSUPPORTED_CONSTRUCT"
	ErrNotImplemented       = "NOT_IMPLEMENTED"
	ErrNotSupported         = "NOT_SUPPORTED"

	// Grammar errors
	ErrUnknownGrammar = "GRAMMAR_VERSION_UNKNOWN"

	// Configuration errors
	ErrConfigInvalid = "CONFIG_INVALID"
	ErrSchemaInvalid = "SCHEMA_INVALID"

	// Input errors
	ErrInvalidInput = "INVALID_INPUT"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// classifyFilterError maps a parse or compile error to its stable code
// and a suggestion for the caller.
func classifyFilterError(err error) (code, suggestion string) {
	var (
		syntaxErr      *parser.SyntaxError
		complexityErr  *parser.ComplexityError
		unsupportedErr *transform.UnsupportedConstructError
		notImplErr     *transform.NotImplementedError
		notSuppErr     *transform.NotSupportedError
		unknownVersion *grammar.UnknownVersionError
	)
	switch {
	case errors.As(err, &syntaxErr):
		return ErrFilterSyntax, "Check the filter against the grammar: optiq docs guide filters"
	case errors.As(err, &complexityErr):
		return ErrFilterTooComplex, "Reduce filter nesting or raise --max-depth"
	case errors.As(err, &unsupportedErr):
		return ErrUnsupportedConstruct, "Use a backend that implements this construct"
	case errors.As(err, &notImplErr):
		return ErrNotImplemented, ""
	case errors.As(err, &notSuppErr):
		return ErrNotSupported, "Declare the property in the mapping schema"
	case errors.As(err, &unknownVersion):
		return ErrUnknownGrammar, "Run 'optiq grammars' to list registered versions"
	default:
		return ErrInternal, ""
	}
}
