package elastic

import (
	"fmt"
	"strings"

	"github.com/Materials-Consortia/optimade-go/internal/parser"
	"github.com/Materials-Consortia/optimade-go/internal/transform"
)

// Query is an Elasticsearch query DSL object.
type Query = map[string]any

// rangeOperators maps filter comparisons to range query bounds.
var rangeOperators = map[string]string{
	"<":  "lt",
	"<=": "lte",
	">":  "gt",
	">=": "gte",
}

// reversedOperators flips a comparison for constant-first filters.
var reversedOperators = map[string]string{
	"<":  ">",
	"<=": ">=",
	">":  "<",
	">=": "<=",
	"=":  "=",
	"!=": "!=",
}

// Right-hand sides reduce to small typed values; the property-first
// handler dispatches on the concrete type once the quantity is known.
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
	zipRHS struct {
		addons []transform.Property
		kw     parser.TokenType
		tuples [][]any
	}
)

// Transformer compiles parse trees to search queries against a fixed
// set of declared quantities.
type Transformer struct {
	transform.Base

	quantities map[string]*Quantity
}

// NewTransformer builds a search compiler over the given quantities.
func NewTransformer(quantities []*Quantity) *Transformer {
	m := make(map[string]*Quantity, len(quantities))
	for _, q := range quantities {
		m[q.Name] = q
	}
	return &Transformer{quantities: m}
}

// Compile reduces a parse tree to a search query.
func (t *Transformer) Compile(tree *parser.Tree) (Query, error) {
	raw, err := transform.Walk(tree, t)
	if err != nil {
		return nil, err
	}
	q, ok := raw.(Query)
	if !ok {
		return nil, &transform.MalformedTreeError{
			Production: tree.Production,
			Reason:     "filter did not reduce to a query object",
		}
	}
	return q, nil
}

func (t *Transformer) lookup(prop transform.Property) (*Quantity, error) {
	q, ok := t.quantities[string(prop)]
	if !ok {
		return nil, &transform.NotSupportedError{
			Feature: fmt.Sprintf("filtering on property %q", string(prop)),
		}
	}
	return q, nil
}

// Filter reduces the top-level node; an empty filter matches all
// documents.
func (t *Transformer) Filter(args []any) (any, error) {
	switch len(args) {
	case 0:
		return Query{"match_all": map[string]any{}}, nil
	case 1:
		return args[0], nil
	default:
		return nil, malformedArity(parser.ProdFilter, len(args))
	}
}

// Expression folds OR-joined clauses into a bool should.
func (t *Transformer) Expression(args []any) (any, error) {
	return foldBool(parser.ProdExpression, "should", args)
}

// ExpressionClause folds AND-joined phrases into a bool must.
func (t *Transformer) ExpressionClause(args []any) (any, error) {
	return foldBool(parser.ProdExpressionClause, "must", args)
}

func foldBool(prod parser.Production, occurrence string, args []any) (any, error) {
	if len(args) == 0 {
		return nil, malformedArity(prod, 0)
	}
	if len(args) == 1 {
		return args[0], nil
	}
	members := make([]any, 0, len(args))
	for _, arg := range args {
		q, ok := arg.(Query)
		if !ok {
			return nil, malformedChild(prod, arg)
		}
		members = append(members, q)
	}
	return Query{"bool": map[string]any{occurrence: members}}, nil
}

// ExpressionPhrase applies an optional NOT as a bool must_not.
func (t *Transformer) ExpressionPhrase(args []any) (any, error) {
	switch len(args) {
	case 1:
		return args[0], nil
	case 2:
		q, ok := args[1].(Query)
		if !ok {
			return nil, malformedChild(parser.ProdExpressionPhrase, args[1])
		}
		return negate(q), nil
	default:
		return nil, malformedArity(parser.ProdExpressionPhrase, len(args))
	}
}

func negate(q Query) Query {
	// must_not of a must_not unwraps.
	if b, ok := q["bool"].(map[string]any); ok && len(b) == 1 {
		if members, ok := b["must_not"].([]any); ok && len(members) == 1 {
			if inner, ok := members[0].(Query); ok {
				return inner
			}
		}
	}
	return Query{"bool": map[string]any{"must_not": []any{q}}}
}

// Comparison passes its single child through.
func (t *Transformer) Comparison(args []any) (any, error) {
	if len(args) != 1 {
		return nil, malformedArity(parser.ProdComparison, len(args))
	}
	return args[0], nil
}

// PropertyFirstComparison resolves the property against the declared
// quantities and dispatches on the reduced right-hand side.
func (t *Transformer) PropertyFirstComparison(args []any) (any, error) {
	if len(args) != 2 {
		return nil, malformedArity(parser.ProdPropertyFirstComparison, len(args))
	}
	prop, ok := args[0].(transform.Property)
	if !ok {
		return nil, malformedChild(parser.ProdPropertyFirstComparison, args[0])
	}

	switch rhs := args[1].(type) {
	case valueRHS:
		q, err := t.lookup(prop)
		if err != nil {
			return nil, err
		}
		return compare(q, rhs.op, rhs.value)
	case knownRHS:
		q, err := t.lookup(prop)
		if err != nil {
			return nil, err
		}
		exists := Query{"exists": map[string]any{"field": q.field()}}
		if rhs.known {
			return exists, nil
		}
		return negate(exists), nil
	case fuzzyRHS:
		q, err := t.lookup(prop)
		if err != nil {
			return nil, err
		}
		return wildcard(q, rhs.mode, rhs.value)
	case setRHS:
		q, err := t.lookup(prop)
		if err != nil {
			return nil, err
		}
		return t.setQuery(q, rhs)
	case lengthRHS:
		q, err := t.lookup(prop)
		if err != nil {
			return nil, err
		}
		if q.Length == nil {
			return nil, &transform.NotSupportedError{
				Feature: fmt.Sprintf("LENGTH on property %q, which has no length field", q.Name),
			}
		}
		return compare(q.Length, rhs.op, rhs.value)
	case zipRHS:
		return t.zipQuery(prop, rhs)
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
	q, err := t.lookup(prop)
	if err != nil {
		return nil, err
	}
	return compare(q, reversedOperators[rhs.op], args[0])
}

// compare builds the comparison query for one quantity. Equality on
// text fields uses a match query; everything else is exact.
func compare(q *Quantity, op string, value any) (Query, error) {
	switch op {
	case "=":
		return equals(q, value), nil
	case "!=":
		return negate(equals(q, value)), nil
	default:
		bound, ok := rangeOperators[op]
		if !ok {
			return nil, malformedChild(parser.ProdValueOpRHS, op)
		}
		return Query{"range": map[string]any{
			q.field(): map[string]any{bound: value},
		}}, nil
	}
}

func equals(q *Quantity, value any) Query {
	if q.Kind == KindText {
		return Query{"match": map[string]any{
			q.field(): map[string]any{"query": value, "operator": "and"},
		}}
	}
	return termQuery(q, value)
}

func termQuery(q *Quantity, value any) Query {
	return Query{"term": map[string]any{q.field(): value}}
}

// wildcard builds the pattern query for CONTAINS, STARTS and ENDS.
// Wildcard metacharacters in the literal are escaped.
func wildcard(q *Quantity, mode parser.TokenType, value string) (Query, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`).Replace(value)
	var pattern string
	switch mode {
	case parser.TokenContains:
		pattern = "*" + escaped + "*"
	case parser.TokenStarts:
		pattern = escaped + "*"
	case parser.TokenEnds:
		pattern = "*" + escaped
	default:
		return nil, malformedChild(parser.ProdFuzzyStringOpRHS, mode)
	}
	return Query{"wildcard": map[string]any{q.field(): pattern}}, nil
}

// setQuery builds membership queries for the HAS family.
func (t *Transformer) setQuery(q *Quantity, rhs setRHS) (any, error) {
	if rhs.op != "" {
		return nil, &transform.NotImplementedError{Feature: "HAS with a comparison operator"}
	}
	switch rhs.kw {
	case 0:
		return termQuery(q, rhs.values[0]), nil
	case parser.TokenAll, parser.TokenAny:
		members := make([]any, 0, len(rhs.values))
		for _, v := range rhs.values {
			members = append(members, termQuery(q, v))
		}
		occurrence := "must"
		if rhs.kw == parser.TokenAny {
			occurrence = "should"
		}
		return Query{"bool": map[string]any{occurrence: members}}, nil
	case parser.TokenOnly:
		if q.HasOnly == nil {
			return nil, &transform.NotSupportedError{
				Feature: fmt.Sprintf("HAS ONLY on property %q, which has no exclusive-membership field", q.Name),
			}
		}
		symbols := make([]string, 0, len(rhs.values))
		for _, v := range rhs.values {
			s, ok := v.(string)
			if !ok {
				return nil, &transform.NotImplementedError{
					Feature: "HAS ONLY with non-string values",
				}
			}
			symbols = append(symbols, s)
		}
		return termQuery(q.HasOnly, canonicalElementKey(symbols)), nil
	default:
		return nil, malformedChild(parser.ProdSetOpRHS, rhs.kw)
	}
}

// zipQuery builds a nested query for correlated multi-property
// membership. Every zipped property must share one nested path.
func (t *Transformer) zipQuery(lead transform.Property, rhs zipRHS) (any, error) {
	props := append([]transform.Property{lead}, rhs.addons...)
	quantities := make([]*Quantity, 0, len(props))
	var nested *Quantity
	for _, prop := range props {
		q, err := t.lookup(prop)
		if err != nil {
			return nil, err
		}
		if q.Nested == nil {
			return nil, &transform.NotSupportedError{
				Feature: fmt.Sprintf("zipped filters on property %q, which is not nested", q.Name),
			}
		}
		if nested == nil {
			nested = q.Nested
		} else if nested != q.Nested {
			return nil, &transform.NotSupportedError{
				Feature: "zipped filters across different nested paths",
			}
		}
		quantities = append(quantities, q)
	}

	tupleQuery := func(tuple []any) (Query, error) {
		if len(tuple) != len(quantities) {
			return nil, &transform.NotSupportedError{
				Feature: fmt.Sprintf("zipped tuples of %d values against %d properties", len(tuple), len(quantities)),
			}
		}
		terms := make([]any, 0, len(tuple))
		for i, v := range tuple {
			terms = append(terms, termQuery(quantities[i], v))
		}
		return Query{"nested": map[string]any{
			"path":  nested.field(),
			"query": Query{"bool": map[string]any{"must": terms}},
		}}, nil
	}

	switch rhs.kw {
	case 0:
		return tupleQuery(rhs.tuples[0])
	case parser.TokenAll, parser.TokenAny:
		members := make([]any, 0, len(rhs.tuples))
		for _, tuple := range rhs.tuples {
			nq, err := tupleQuery(tuple)
			if err != nil {
				return nil, err
			}
			members = append(members, nq)
		}
		occurrence := "must"
		if rhs.kw == parser.TokenAny {
			occurrence = "should"
		}
		return Query{"bool": map[string]any{occurrence: members}}, nil
	case parser.TokenOnly:
		return nil, &transform.NotImplementedError{Feature: "zipped HAS ONLY"}
	default:
		return nil, malformedChild(parser.ProdSetZipOpRHS, rhs.kw)
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

// SetZipOpRHS captures the zipped HAS form.
func (t *Transformer) SetZipOpRHS(args []any) (any, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, malformedArity(parser.ProdSetZipOpRHS, len(args))
	}
	addons, ok := args[0].([]transform.Property)
	if !ok {
		return nil, malformedChild(parser.ProdSetZipOpRHS, args[0])
	}
	if len(args) == 2 {
		tuple, ok := args[1].([]any)
		if !ok {
			return nil, malformedChild(parser.ProdSetZipOpRHS, args[1])
		}
		return zipRHS{addons: addons, tuples: [][]any{tuple}}, nil
	}
	tok, ok := args[1].(parser.Token)
	if !ok {
		return nil, malformedChild(parser.ProdSetZipOpRHS, args[1])
	}
	tuples, ok := args[2].([][]any)
	if !ok {
		return nil, malformedChild(parser.ProdSetZipOpRHS, args[2])
	}
	return zipRHS{addons: addons, kw: tok.Type, tuples: tuples}, nil
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

// PropertyZipAddon collects the extra zipped properties.
func (t *Transformer) PropertyZipAddon(args []any) (any, error) {
	props := make([]transform.Property, 0, len(args))
	for _, arg := range args {
		p, ok := arg.(transform.Property)
		if !ok {
			return nil, malformedChild(parser.ProdPropertyZipAddon, arg)
		}
		props = append(props, p)
	}
	return props, nil
}

// ValueZip collects one value tuple. Operator prefixes inside zips
// have no search encoding.
func (t *Transformer) ValueZip(args []any) (any, error) {
	return collectValues(parser.ProdValueZip, args)
}

// ValueZipList collects the tuples.
func (t *Transformer) ValueZipList(args []any) (any, error) {
	tuples := make([][]any, 0, len(args))
	for _, arg := range args {
		tuple, ok := arg.([]any)
		if !ok {
			return nil, malformedChild(parser.ProdValueZipList, arg)
		}
		tuples = append(tuples, tuple)
	}
	return tuples, nil
}

// ValueList collects literal values, rejecting operator prefixes.
func (t *Transformer) ValueList(args []any) (any, error) {
	return collectValues(parser.ProdValueList, args)
}

func collectValues(prod parser.Production, args []any) ([]any, error) {
	values := make([]any, 0, len(args))
	for _, arg := range args {
		if tok, ok := arg.(parser.Token); ok {
			if tok.Type == parser.TokenOperator {
				return nil, &transform.NotImplementedError{
					Feature: "comparison operators inside value lists",
				}
			}
			return nil, malformedChild(prod, arg)
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
