package parser

import "fmt"

// SyntaxError reports filter text that does not match the grammar. It
// is always attributable to the caller's input and safe to report
// verbatim.
type SyntaxError struct {
	Message string
	Pos     int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("filter syntax error at position %d: %s", e.Pos, e.Message)
}

// ComplexityError reports a filter whose nesting exceeds the parser's
// depth bound. Like SyntaxError it maps to a client-facing bad
// request; the separate type lets callers report the limit.
type ComplexityError struct {
	MaxDepth int
}

func (e *ComplexityError) Error() string {
	return fmt.Sprintf("filter too complex: nesting exceeds %d levels", e.MaxDepth)
}
