package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Materials-Consortia/optimade-go/internal/grammar"
	"github.com/Materials-Consortia/optimade-go/internal/parser"
	"github.com/Materials-Consortia/optimade-go/internal/transform"
)

func TestClassifyFilterError(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{&parser.SyntaxError{Message: "bad", Pos: 3}, ErrFilterSyntax},
		{&parser.ComplexityError{MaxDepth: 8}, ErrFilterTooComplex},
		{&transform.UnsupportedConstructError{Production: parser.ProdSetZipOpRHS}, ErrUnsupportedConstruct},
		{&transform.NotImplementedError{Feature: "LENGTH with operator !="}, ErrNotImplemented},
		{&transform.NotSupportedError{Feature: "filtering on \"x\""}, ErrNotSupported},
		{&grammar.UnknownVersionError{Variant: "default"}, ErrUnknownGrammar},
		{&transform.MalformedTreeError{Production: parser.ProdFilter, Reason: "bug"}, ErrInternal},
		{errors.New("anything else"), ErrInternal},
	}

	for _, tt := range tests {
		code, _ := classifyFilterError(tt.err)
		if code != tt.code {
			t.Errorf("classifyFilterError(%v) = %s, want %s", tt.err, code, tt.code)
		}
	}
}

func TestClassifyWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("compile failed: %w", &parser.SyntaxError{Message: "bad", Pos: 0})
	code, suggestion := classifyFilterError(wrapped)
	if code != ErrFilterSyntax {
		t.Errorf("wrapped syntax error classified as %s", code)
	}
	if suggestion == "" {
		t.Error("syntax errors should carry a suggestion")
	}
}
