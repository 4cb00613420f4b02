package parser

import (
	"fmt"
	"strings"
)

// Production names the grammar production a parse-tree node reduces.
type Production string

const (
	ProdFilter                  Production = "filter"
	ProdExpression              Production = "expression"
	ProdExpressionClause        Production = "expression_clause"
	ProdExpressionPhrase        Production = "expression_phrase"
	ProdComparison              Production = "comparison"
	ProdPropertyFirstComparison Production = "property_first_comparison"
	ProdConstantFirstComparison Production = "constant_first_comparison"
	ProdValueOpRHS              Production = "value_op_rhs"
	ProdKnownOpRHS              Production = "known_op_rhs"
	ProdFuzzyStringOpRHS        Production = "fuzzy_string_op_rhs"
	ProdSetOpRHS                Production = "set_op_rhs"
	ProdSetZipOpRHS             Production = "set_zip_op_rhs"
	ProdLengthOpRHS             Production = "length_op_rhs"
	ProdPropertyZipAddon        Production = "property_zip_addon"
	ProdProperty                Production = "property"
	ProdString                  Production = "string"
	ProdNumber                  Production = "number"
	ProdValueList               Production = "value_list"
	ProdValueZip                Production = "value_zip"
	ProdValueZipList            Production = "value_zip_list"
)

// Tree is an interior parse-tree node: a named production with ordered
// children. Children are either *Tree or Token. Trees are produced
// fresh per parse call and never mutated afterward.
type Tree struct {
	Production Production
	Children   []any
}

// Dump renders the tree in an indented form for diagnostics.
func (t *Tree) Dump() string {
	var b strings.Builder
	t.dump(&b, 0)
	return b.String()
}

func (t *Tree) dump(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s%s\n", indent, t.Production)
	for _, child := range t.Children {
		switch c := child.(type) {
		case *Tree:
			c.dump(b, depth+1)
		case Token:
			fmt.Fprintf(b, "%s  %s %q\n", indent, c.Type, c.Value)
		}
	}
}
