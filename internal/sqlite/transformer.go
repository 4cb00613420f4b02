// Package sqlite compiles OPTIMADE filter parse trees into
// parameterized SQL WHERE clauses over a JSON document catalog, and
// provides the catalog store itself.
package sqlite

import (
	"fmt"
	"strings"

	"github.com/Materials-Consortia/optimade-go/internal/aliases"
	"github.com/Materials-Consortia/optimade-go/internal/parser"
	"github.com/Materials-Consortia/optimade-go/internal/transform"
)

// Clause is a parameterized SQL fragment.
type Clause struct {
	SQL  string
	Args []any
}

var sqlOperators = map[string]string{
	"=":  "=",
	"!=": "!=",
	"<":  "<",
	"<=": "<=",
	">":  ">",
	">=": ">=",
}

var reversedOperators = map[string]string{
	"<":  ">",
	"<=": ">=",
	">":  "<",
	">=": "<=",
	"=":  "=",
	"!=": "!=",
}

// Right-hand sides reduce to typed values dispatched once the property
// is known.
type (
	valueRHS struct {
		op    string
		value any
	}
	knownRHS struct {
		known bool
	}
	fuzzyRHS struct {
		mode  parser.TokenType
		value string
	}
	setRHS struct {
		op     string
		kw     parser.TokenType
		values []any
	}
	lengthRHS struct {
		op    string
		value any
	}
)

// Transformer compiles parse trees to WHERE clauses over the doc
// column. Properties become JSON paths; unknown properties simply
// address absent paths.
type Transformer struct {
	transform.Base

	table *aliases.Table
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithAliases installs the field alias table applied before building
// JSON paths.
func WithAliases(table *aliases.Table) Option {
	return func(t *Transformer) { t.table = table }
}

// NewTransformer builds a SQL compiler.
func NewTransformer(opts ...Option) *Transformer {
	t := &Transformer{}
	for _, opt := range opts {
		opt(t)
	}
	if t.table == nil {
		t.table, _ = aliases.NewTable(nil, nil)
	}
	return t
}

// Compile reduces a parse tree to a WHERE clause.
func (t *Transformer) Compile(tree *parser.Tree) (Clause, error) {
	raw, err := transform.Walk(tree, t)
	if err != nil {
		return Clause{}, err
	}
	c, ok := raw.(Clause)
	if !ok {
		return Clause{}, &transform.MalformedTreeError{
			Production: tree.Production,
			Reason:     "filter did not reduce to a SQL clause",
		}
	}
	return c, nil
}

// jsonPath maps a property to its parameterized JSON path, applying
// the alias table first.
func (t *Transformer) jsonPath(prop transform.Property) string {
	return "$." + t.table.Resolve(string(prop))
}

// Filter reduces the top-level node; an empty filter matches every
// row.
func (t *Transformer) Filter(args []any) (any, error) {
	switch len(args) {
	case 0:
		return Clause{SQL: "1=1"}, nil
	case 1:
		return args[0], nil
	default:
		return nil, malformedArity(parser.ProdFilter, len(args))
	}
}

// Expression folds OR-joined clauses.
func (t *Transformer) Expression(args []any) (any, error) {
	return foldClauses(parser.ProdExpression, " OR ", args)
}

// ExpressionClause folds AND-joined phrases.
func (t *Transformer) ExpressionClause(args []any) (any, error) {
	return foldClauses(parser.ProdExpressionClause, " AND ", args)
}

func foldClauses(prod parser.Production, sep string, args []any) (any, error) {
	if len(args) == 0 {
		return nil, malformedArity(prod, 0)
	}
	if len(args) == 1 {
		return args[0], nil
	}
	parts := make([]string, 0, len(args))
	var allArgs []any
	for _, arg := range args {
		c, ok := arg.(Clause)
		if !ok {
			return nil, malformedChild(prod, arg)
		}
		parts = append(parts, c.SQL)
		allArgs = append(allArgs, c.Args...)
	}
	return Clause{SQL: "(" + strings.Join(parts, sep) + ")", Args: allArgs}, nil
}

// ExpressionPhrase applies an optional NOT.
func (t *Transformer) ExpressionPhrase(args []any) (any, error) {
	switch len(args) {
	case 1:
		return args[0], nil
	case 2:
		c, ok := args[1].(Clause)
		if !ok {
			return nil, malformedChild(parser.ProdExpressionPhrase, args[1])
		}
		return Clause{SQL: "NOT (" + c.SQL + ")", Args: c.Args}, nil
	default:
		return nil, malformedArity(parser.ProdExpressionPhrase, len(args))
	}
}

// Comparison passes its single child through.
func (t *Transformer) Comparison(args []any) (any, error) {
	if len(args) != 1 {
		return nil, malformedArity(parser.ProdComparison, len(args))
	}
	return args[0], nil
}

// PropertyFirstComparison dispatches on the reduced right-hand side.
func (t *Transformer) PropertyFirstComparison(args []any) (any, error) {
	if len(args) != 2 {
		return nil, malformedArity(parser.ProdPropertyFirstComparison, len(args))
	}
	prop, ok := args[0].(transform.Property)
	if !ok {
		return nil, malformedChild(parser.ProdPropertyFirstComparison, args[0])
	}
	path := t.jsonPath(prop)

	switch rhs := args[1].(type) {
	case valueRHS:
		return compareClause(path, rhs.op, rhs.value)
	case knownRHS:
		// json_extract is NULL for both absent paths and JSON null,
		// which is exactly the unknown semantics.
		if rhs.known {
			return Clause{SQL: "json_extract(doc, ?) IS NOT NULL", Args: []any{path}}, nil
		}
		return Clause{SQL: "json_extract(doc, ?) IS NULL", Args: []any{path}}, nil
	case fuzzyRHS:
		return likeClause(path, rhs.mode, rhs.value)
	case setRHS:
		return setClause(path, rhs)
	case lengthRHS:
		op, ok := sqlOperators[rhs.op]
		if !ok {
			return nil, malformedChild(parser.ProdLengthOpRHS, rhs.op)
		}
		return Clause{
			SQL:  "json_array_length(doc, ?) " + op + " ?",
			Args: []any{path, rhs.value},
		}, nil
	default:
		return nil, malformedChild(parser.ProdPropertyFirstComparison, args[1])
	}
}

// ConstantFirstComparison reverses the comparison so the property ends
// up on the left.
func (t *Transformer) ConstantFirstComparison(args []any) (any, error) {
	if len(args) != 2 {
		return nil, malformedArity(parser.ProdConstantFirstComparison, len(args))
	}
	rhs, ok := args[1].(valueRHS)
	if !ok {
		return nil, malformedChild(parser.ProdConstantFirstComparison, args[1])
	}
	prop, ok := rhs.value.(transform.Property)
	if !ok {
		return nil, &transform.NotImplementedError{Feature: "comparing two constants"}
	}
	return compareClause(t.jsonPath(prop), reversedOperators[rhs.op], args[0])
}

func compareClause(path, op string, value any) (Clause, error) {
	sqlOp, ok := sqlOperators[op]
	if !ok {
		return Clause{}, malformedChildClause(parser.ProdValueOpRHS, op)
	}
	if p, ok := value.(transform.Property); ok {
		// Property-to-property comparison within one document.
		return Clause{
			SQL:  "json_extract(doc, ?) " + sqlOp + " json_extract(doc, ?)",
			Args: []any{path, "$." + string(p)},
		}, nil
	}
	return Clause{
		SQL:  "json_extract(doc, ?) " + sqlOp + " ?",
		Args: []any{path, value},
	}, nil
}

// likeClause builds the LIKE pattern for CONTAINS, STARTS and ENDS.
// LIKE metacharacters in the literal are escaped.
func likeClause(path string, mode parser.TokenType, value string) (Clause, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
	var pattern string
	switch mode {
	case parser.TokenContains:
		pattern = "%" + escaped + "%"
	case parser.TokenStarts:
		pattern = escaped + "%"
	case parser.TokenEnds:
		pattern = "%" + escaped
	default:
		return Clause{}, malformedChildClause(parser.ProdFuzzyStringOpRHS, mode)
	}
	return Clause{
		SQL:  `json_extract(doc, ?) LIKE ? ESCAPE '\'`,
		Args: []any{path, pattern},
	}, nil
}

func memberClause(path string, value any) Clause {
	return Clause{
		SQL:  "EXISTS (SELECT 1 FROM json_each(doc, ?) WHERE json_each.value = ?)",
		Args: []any{path, value},
	}
}

// setClause builds membership predicates for the HAS family.
func setClause(path string, rhs setRHS) (any, error) {
	if rhs.op != "" {
		return nil, &transform.NotImplementedError{Feature: "HAS with a comparison operator"}
	}
	switch rhs.kw {
	case 0:
		return memberClause(path, rhs.values[0]), nil
	case parser.TokenAll, parser.TokenAny, parser.TokenOnly:
		sep := " AND "
		if rhs.kw == parser.TokenAny {
			sep = " OR "
		}
		parts := make([]string, 0, len(rhs.values)+1)
		var args []any
		for _, v := range rhs.values {
			m := memberClause(path, v)
			parts = append(parts, m.SQL)
			args = append(args, m.Args...)
		}
		if rhs.kw == parser.TokenOnly {
			parts = append(parts, "json_array_length(doc, ?) = ?")
			args = append(args, path, int64(len(rhs.values)))
		}
		return Clause{SQL: "(" + strings.Join(parts, sep) + ")", Args: args}, nil
	default:
		return nil, malformedChild(parser.ProdSetOpRHS, rhs.kw)
	}
}

// ValueOpRHS captures the operator and value.
func (t *Transformer) ValueOpRHS(args []any) (any, error) {
	if len(args) != 2 {
		return nil, malformedArity(parser.ProdValueOpRHS, len(args))
	}
	tok, ok := args[0].(parser.Token)
	if !ok || tok.Type != parser.TokenOperator {
		return nil, malformedChild(parser.ProdValueOpRHS, args[0])
	}
	return valueRHS{op: tok.Value, value: args[1]}, nil
}

// KnownOpRHS captures IS KNOWN / IS UNKNOWN.
func (t *Transformer) KnownOpRHS(args []any) (any, error) {
	if len(args) != 1 {
		return nil, malformedArity(parser.ProdKnownOpRHS, len(args))
	}
	tok, ok := args[0].(parser.Token)
	if !ok {
		return nil, malformedChild(parser.ProdKnownOpRHS, args[0])
	}
	switch tok.Type {
	case parser.TokenKnown:
		return knownRHS{known: true}, nil
	case parser.TokenUnknown:
		return knownRHS{known: false}, nil
	default:
		return nil, malformedChild(parser.ProdKnownOpRHS, tok.Value)
	}
}

// FuzzyStringOpRHS captures the match mode and literal.
func (t *Transformer) FuzzyStringOpRHS(args []any) (any, error) {
	if len(args) != 2 {
		return nil, malformedArity(parser.ProdFuzzyStringOpRHS, len(args))
	}
	tok, ok := args[0].(parser.Token)
	if !ok {
		return nil, malformedChild(parser.ProdFuzzyStringOpRHS, args[0])
	}
	value, ok := args[1].(string)
	if !ok {
		return nil, malformedChild(parser.ProdFuzzyStringOpRHS, args[1])
	}
	return fuzzyRHS{mode: tok.Type, value: value}, nil
}

// SetOpRHS captures the HAS form.
func (t *Transformer) SetOpRHS(args []any) (any, error) {
	switch len(args) {
	case 1:
		return setRHS{values: []any{args[0]}}, nil
	case 2:
		tok, ok := args[0].(parser.Token)
		if !ok {
			return nil, malformedChild(parser.ProdSetOpRHS, args[0])
		}
		switch tok.Type {
		case parser.TokenOperator:
			return setRHS{op: tok.Value, values: []any{args[1]}}, nil
		case parser.TokenAll, parser.TokenAny, parser.TokenOnly:
			values, ok := args[1].([]any)
			if !ok {
				return nil, malformedChild(parser.ProdSetOpRHS, args[1])
			}
			return setRHS{kw: tok.Type, values: values}, nil
		default:
			return nil, malformedChild(parser.ProdSetOpRHS, tok.Value)
		}
	default:
		return nil, malformedArity(parser.ProdSetOpRHS, len(args))
	}
}

// SetZipOpRHS: no relational encoding for correlated membership over
// parallel arrays.
func (t *Transformer) SetZipOpRHS(args []any) (any, error) {
	return nil, &transform.NotImplementedError{Feature: "zipped-tuple filters"}
}

// PropertyZipAddon passes through so zips fail in SetZipOpRHS.
func (t *Transformer) PropertyZipAddon(args []any) (any, error) {
	return args, nil
}

// ValueZip passes through for SetZipOpRHS.
func (t *Transformer) ValueZip(args []any) (any, error) {
	return args, nil
}

// ValueZipList passes through for SetZipOpRHS.
func (t *Transformer) ValueZipList(args []any) (any, error) {
	return args, nil
}

// LengthOpRHS captures the LENGTH form.
func (t *Transformer) LengthOpRHS(args []any) (any, error) {
	switch len(args) {
	case 1:
		return lengthRHS{op: "=", value: args[0]}, nil
	case 2:
		tok, ok := args[0].(parser.Token)
		if !ok || tok.Type != parser.TokenOperator {
			return nil, malformedChild(parser.ProdLengthOpRHS, args[0])
		}
		return lengthRHS{op: tok.Value, value: args[1]}, nil
	default:
		return nil, malformedArity(parser.ProdLengthOpRHS, len(args))
	}
}

// ValueList collects literal values, rejecting operator prefixes.
func (t *Transformer) ValueList(args []any) (any, error) {
	values := make([]any, 0, len(args))
	for _, arg := range args {
		if tok, ok := arg.(parser.Token); ok {
			if tok.Type == parser.TokenOperator {
				return nil, &transform.NotImplementedError{
					Feature: "comparison operators inside value lists",
				}
			}
			return nil, malformedChild(parser.ProdValueList, arg)
		}
		values = append(values, arg)
	}
	return values, nil
}

// Property joins the identifier path.
func (t *Transformer) Property(args []any) (any, error) {
	return transform.JoinProperty(args)
}

// String resolves the quoted literal.
func (t *Transformer) String(args []any) (any, error) {
	if len(args) != 1 {
		return nil, malformedArity(parser.ProdString, len(args))
	}
	tok, ok := args[0].(parser.Token)
	if !ok {
		return nil, malformedChild(parser.ProdString, args[0])
	}
	return transform.ParseStringToken(tok)
}

// Number resolves the numeric literal.
func (t *Transformer) Number(args []any) (any, error) {
	if len(args) != 1 {
		return nil, malformedArity(parser.ProdNumber, len(args))
	}
	tok, ok := args[0].(parser.Token)
	if !ok {
		return nil, malformedChild(parser.ProdNumber, args[0])
	}
	return transform.ParseNumberToken(tok)
}

func malformedArity(prod parser.Production, got int) error {
	return &transform.MalformedTreeError{
		Production: prod,
		Reason:     fmt.Sprintf("unexpected child count %d", got),
	}
}

func malformedChild(prod parser.Production, child any) error {
	return &transform.MalformedTreeError{
		Production: prod,
		Reason:     fmt.Sprintf("unexpected child %v (%T)", child, child),
	}
}

func malformedChildClause(prod parser.Production, child any) error {
	return malformedChild(prod, child)
}
