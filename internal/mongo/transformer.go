// Package mongo compiles OPTIMADE filter parse trees into MongoDB-style
// document-store queries: nested maps of $-prefixed operators.
package mongo

import (
	"fmt"
	"regexp"

	"github.com/Materials-Consortia/optimade-go/internal/aliases"
	"github.com/Materials-Consortia/optimade-go/internal/parser"
	"github.com/Materials-Consortia/optimade-go/internal/transform"
)

// Query is a document-store query object: {field: {operator: value}}
// leaves under $and/$or/$nor groups.
type Query = map[string]any

// operators maps filter-language comparison operators to their
// document-store spellings.
var operators = map[string]string{
	"<":  "$lt",
	"<=": "$lte",
	">":  "$gt",
	">=": "$gte",
	"!=": "$ne",
	"=":  "$eq",
}

// reversedOperators flips a comparison for constant-first filters:
// 5 < nelements reads as nelements > 5.
var reversedOperators = map[string]string{
	"$lt":  "$gt",
	"$lte": "$gte",
	"$gt":  "$lt",
	"$gte": "$lte",
	"$eq":  "$eq",
	"$ne":  "$ne",
}

// knownKey is the internal marker emitted for IS KNOWN / IS UNKNOWN.
// The postprocessor expands it into exists/null compounds.
const knownKey = "#known"

// Transformer compiles parse trees to document-store queries. It holds
// only construction-time state and may be reused across compile calls.
type Transformer struct {
	transform.Base

	table   *aliases.Table
	targets map[string]bool
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithAliases installs the field and length alias table.
func WithAliases(table *aliases.Table) Option {
	return func(t *Transformer) { t.table = table }
}

// WithRelationshipTargets declares the entry types whose two-segment
// properties (references.id) address relationship linkage arrays.
func WithRelationshipTargets(types ...string) Option {
	return func(t *Transformer) {
		for _, name := range types {
			t.targets[name] = true
		}
	}
}

// NewTransformer builds a document-store compiler.
func NewTransformer(opts ...Option) *Transformer {
	t := &Transformer{targets: make(map[string]bool)}
	for _, opt := range opts {
		opt(t)
	}
	if t.table == nil {
		t.table, _ = aliases.NewTable(nil, nil)
	}
	return t
}

// Compile reduces a parse tree to a raw query and applies the
// postprocessing passes. The returned query is owned by the caller.
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
	return t.Postprocess(q)
}

// Filter reduces the top-level filter node. An empty filter matches
// every document.
func (t *Transformer) Filter(args []any) (any, error) {
	switch len(args) {
	case 0:
		return Query{}, nil
	case 1:
		return args[0], nil
	default:
		return nil, malformedArity(parser.ProdFilter, len(args))
	}
}

// Expression folds OR-joined clauses.
func (t *Transformer) Expression(args []any) (any, error) {
	return t.foldGroup(parser.ProdExpression, "$or", args)
}

// ExpressionClause folds AND-joined phrases.
func (t *Transformer) ExpressionClause(args []any) (any, error) {
	return t.foldGroup(parser.ProdExpressionClause, "$and", args)
}

func (t *Transformer) foldGroup(prod parser.Production, op string, args []any) (any, error) {
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
	return Query{op: members}, nil
}

// ExpressionPhrase applies an optional NOT to its child.
func (t *Transformer) ExpressionPhrase(args []any) (any, error) {
	switch len(args) {
	case 1:
		return args[0], nil
	case 2:
		q, ok := args[1].(Query)
		if !ok {
			return nil, malformedChild(parser.ProdExpressionPhrase, args[1])
		}
		return t.negate(q), nil
	default:
		return nil, malformedArity(parser.ProdExpressionPhrase, len(args))
	}
}

// negate pushes a NOT into a query. The document store has no negation
// of compound groups, so:
//   - NOT (a OR b) becomes a $nor group
//   - NOT (a AND b) negates each conjunct individually, keeping $and
//   - NOT leaf wraps the leaf predicate in $not (unwrapping a double
//     negation)
func (t *Transformer) negate(q Query) Query {
	if len(q) == 1 {
		if members, ok := q["$or"]; ok {
			return Query{"$nor": members}
		}
		if members, ok := q["$nor"]; ok {
			return Query{"$or": members}
		}
		if members, ok := q["$and"].([]any); ok {
			negated := make([]any, 0, len(members))
			for _, member := range members {
				if mq, ok := member.(Query); ok {
					negated = append(negated, t.negate(mq))
				} else {
					negated = append(negated, member)
				}
			}
			return Query{"$and": negated}
		}
	}

	out := Query{}
	for prop, pred := range q {
		if inner, ok := notWrapped(pred); ok {
			out[prop] = inner
			continue
		}
		out[prop] = map[string]any{"$not": pred}
	}
	return out
}

func notWrapped(pred any) (any, bool) {
	m, ok := pred.(map[string]any)
	if !ok || len(m) != 1 {
		return nil, false
	}
	inner, ok := m["$not"]
	return inner, ok
}

// Comparison passes its single child through.
func (t *Transformer) Comparison(args []any) (any, error) {
	if len(args) != 1 {
		return nil, malformedArity(parser.ProdComparison, len(args))
	}
	return args[0], nil
}

// PropertyFirstComparison attaches the reduced right-hand side to the
// property.
func (t *Transformer) PropertyFirstComparison(args []any) (any, error) {
	if len(args) != 2 {
		return nil, malformedArity(parser.ProdPropertyFirstComparison, len(args))
	}
	prop, ok := args[0].(transform.Property)
	if !ok {
		return nil, malformedChild(parser.ProdPropertyFirstComparison, args[0])
	}
	rhs, ok := args[1].(map[string]any)
	if !ok {
		return nil, malformedChild(parser.ProdPropertyFirstComparison, args[1])
	}
	return Query{string(prop): rhs}, nil
}

// ConstantFirstComparison reverses the comparison so the property ends
// up on the left: 5 < nelements compiles as nelements > 5.
func (t *Transformer) ConstantFirstComparison(args []any) (any, error) {
	if len(args) != 2 {
		return nil, malformedArity(parser.ProdConstantFirstComparison, len(args))
	}
	rhs, ok := args[1].(map[string]any)
	if !ok || len(rhs) != 1 {
		return nil, malformedChild(parser.ProdConstantFirstComparison, args[1])
	}
	for op, value := range rhs {
		prop, ok := value.(transform.Property)
		if !ok {
			return nil, &transform.NotImplementedError{Feature: "comparing two constants"}
		}
		reversed, ok := reversedOperators[op]
		if !ok {
			return nil, malformedChild(parser.ProdConstantFirstComparison, op)
		}
		return Query{string(prop): map[string]any{reversed: args[0]}}, nil
	}
	return nil, malformedArity(parser.ProdConstantFirstComparison, 0)
}

// ValueOpRHS builds the {operator: value} predicate.
func (t *Transformer) ValueOpRHS(args []any) (any, error) {
	if len(args) != 2 {
		return nil, malformedArity(parser.ProdValueOpRHS, len(args))
	}
	tok, ok := args[0].(parser.Token)
	if !ok {
		return nil, malformedChild(parser.ProdValueOpRHS, args[0])
	}
	op, ok := operators[tok.Value]
	if !ok {
		return nil, malformedChild(parser.ProdValueOpRHS, tok.Value)
	}
	return map[string]any{op: args[1]}, nil
}

// KnownOpRHS emits the internal #known marker; the postprocessor
// expands it into exists/null compounds.
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
		return map[string]any{knownKey: true}, nil
	case parser.TokenUnknown:
		return map[string]any{knownKey: false}, nil
	default:
		return nil, malformedChild(parser.ProdKnownOpRHS, tok.Value)
	}
}

// FuzzyStringOpRHS builds the pattern predicate for CONTAINS, STARTS
// [WITH] and ENDS [WITH]. Patterns are literal substring matches, so
// regex metacharacters in the value are escaped.
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
	pattern := regexp.QuoteMeta(value)
	switch tok.Type {
	case parser.TokenContains:
	case parser.TokenStarts:
		pattern = "^" + pattern
	case parser.TokenEnds:
		pattern = pattern + "$"
	default:
		return nil, malformedChild(parser.ProdFuzzyStringOpRHS, tok.Value)
	}
	return map[string]any{"$regex": pattern}, nil
}

// SetOpRHS builds membership predicates for HAS, HAS ALL, HAS ANY and
// HAS ONLY. HAS with a comparison operator has no direct document-store
// encoding.
func (t *Transformer) SetOpRHS(args []any) (any, error) {
	switch len(args) {
	case 1:
		return map[string]any{"$in": []any{args[0]}}, nil
	case 2:
		if tok, ok := args[0].(parser.Token); ok {
			switch tok.Type {
			case parser.TokenOperator:
				return nil, &transform.NotImplementedError{Feature: "HAS with a comparison operator"}
			case parser.TokenAll, parser.TokenAny, parser.TokenOnly:
				values, ok := args[1].([]any)
				if !ok {
					return nil, malformedChild(parser.ProdSetOpRHS, args[1])
				}
				switch tok.Type {
				case parser.TokenAll:
					return map[string]any{"$all": values}, nil
				case parser.TokenAny:
					return map[string]any{"$in": values}, nil
				default:
					return map[string]any{"$all": values, "$size": int64(len(values))}, nil
				}
			}
		}
		return nil, malformedChild(parser.ProdSetOpRHS, args[0])
	default:
		return nil, malformedArity(parser.ProdSetOpRHS, len(args))
	}
}

// LengthOpRHS builds the $size predicate. A comparison operator other
// than = yields {$size: {op: n}}, which the document store cannot
// evaluate directly; the postprocessor repairs it (or rewrites it away
// entirely when a length alias exists).
func (t *Transformer) LengthOpRHS(args []any) (any, error) {
	switch len(args) {
	case 1:
		return map[string]any{"$size": args[0]}, nil
	case 2:
		tok, ok := args[0].(parser.Token)
		if !ok || tok.Type != parser.TokenOperator {
			return nil, malformedChild(parser.ProdLengthOpRHS, args[0])
		}
		if tok.Value == "=" {
			return map[string]any{"$size": args[1]}, nil
		}
		op := operators[tok.Value]
		return map[string]any{"$size": map[string]any{op: args[1]}}, nil
	default:
		return nil, malformedArity(parser.ProdLengthOpRHS, len(args))
	}
}

// SetZipOpRHS: the document-store compiler has no encoding for
// correlated multi-property membership.
func (t *Transformer) SetZipOpRHS(args []any) (any, error) {
	return nil, &transform.NotImplementedError{Feature: "zipped-tuple filters"}
}

// PropertyZipAddon collects the extra zipped properties. Kept so that
// zipped filters reach SetZipOpRHS and fail there with a clear
// NotImplemented rather than an unsupported-construct error.
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

// ValueList collects literal values. Operator prefixes inside value
// lists have no document-store encoding.
func (t *Transformer) ValueList(args []any) (any, error) {
	values := make([]any, 0, len(args))
	for _, arg := range args {
		if tok, ok := arg.(parser.Token); ok {
			if tok.Type == parser.TokenOperator {
				return nil, &transform.NotImplementedError{Feature: "comparison operators inside value lists"}
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
