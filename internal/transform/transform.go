package transform

import (
	"github.com/Materials-Consortia/optimade-go/internal/parser"
)

// Property is a dotted property path reduced from a property node.
type Property string

// Handler has one method per grammar production. Walk reduces a parse
// tree bottom-up: each method receives the already-reduced children
// (tokens are passed through as parser.Token) and returns the reduced
// value for its node. Backend compilers embed Base and override the
// productions they implement.
type Handler interface {
	Filter(args []any) (any, error)
	Expression(args []any) (any, error)
	ExpressionClause(args []any) (any, error)
	ExpressionPhrase(args []any) (any, error)
	Comparison(args []any) (any, error)
	PropertyFirstComparison(args []any) (any, error)
	ConstantFirstComparison(args []any) (any, error)
	ValueOpRHS(args []any) (any, error)
	KnownOpRHS(args []any) (any, error)
	FuzzyStringOpRHS(args []any) (any, error)
	SetOpRHS(args []any) (any, error)
	SetZipOpRHS(args []any) (any, error)
	LengthOpRHS(args []any) (any, error)
	PropertyZipAddon(args []any) (any, error)
	Property(args []any) (any, error)
	String(args []any) (any, error)
	Number(args []any) (any, error)
	ValueList(args []any) (any, error)
	ValueZip(args []any) (any, error)
	ValueZipList(args []any) (any, error)
}

// Walk reduces the parse tree bottom-up through the handler. Interior
// nodes are reduced child-first; token leaves are passed to the parent
// handler unchanged.
func Walk(tree *parser.Tree, h Handler) (any, error) {
	args := make([]any, 0, len(tree.Children))
	for _, child := range tree.Children {
		switch c := child.(type) {
		case *parser.Tree:
			v, err := Walk(c, h)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		case parser.Token:
			args = append(args, c)
		default:
			return nil, malformed(tree.Production, "unexpected child of type %T", child)
		}
	}

	switch tree.Production {
	case parser.ProdFilter:
		return h.Filter(args)
	case parser.ProdExpression:
		return h.Expression(args)
	case parser.ProdExpressionClause:
		return h.ExpressionClause(args)
	case parser.ProdExpressionPhrase:
		return h.ExpressionPhrase(args)
	case parser.ProdComparison:
		return h.Comparison(args)
	case parser.ProdPropertyFirstComparison:
		return h.PropertyFirstComparison(args)
	case parser.ProdConstantFirstComparison:
		return h.ConstantFirstComparison(args)
	case parser.ProdValueOpRHS:
		return h.ValueOpRHS(args)
	case parser.ProdKnownOpRHS:
		return h.KnownOpRHS(args)
	case parser.ProdFuzzyStringOpRHS:
		return h.FuzzyStringOpRHS(args)
	case parser.ProdSetOpRHS:
		return h.SetOpRHS(args)
	case parser.ProdSetZipOpRHS:
		return h.SetZipOpRHS(args)
	case parser.ProdLengthOpRHS:
		return h.LengthOpRHS(args)
	case parser.ProdPropertyZipAddon:
		return h.PropertyZipAddon(args)
	case parser.ProdProperty:
		return h.Property(args)
	case parser.ProdString:
		return h.String(args)
	case parser.ProdNumber:
		return h.Number(args)
	case parser.ProdValueList:
		return h.ValueList(args)
	case parser.ProdValueZip:
		return h.ValueZip(args)
	case parser.ProdValueZipList:
		return h.ValueZipList(args)
	default:
		return nil, malformed(tree.Production, "unknown production")
	}
}

// Base provides the default handler behavior: every production fails
// with UnsupportedConstructError until a compiler overrides it.
type Base struct{}

func unsupported(prod parser.Production, args []any) (any, error) {
	return nil, &UnsupportedConstructError{Production: prod, Args: args}
}

func (Base) Filter(args []any) (any, error)     { return unsupported(parser.ProdFilter, args) }
func (Base) Expression(args []any) (any, error) { return unsupported(parser.ProdExpression, args) }
func (Base) ExpressionClause(args []any) (any, error) {
	return unsupported(parser.ProdExpressionClause, args)
}
func (Base) ExpressionPhrase(args []any) (any, error) {
	return unsupported(parser.ProdExpressionPhrase, args)
}
func (Base) Comparison(args []any) (any, error) { return unsupported(parser.ProdComparison, args) }
func (Base) PropertyFirstComparison(args []any) (any, error) {
	return unsupported(parser.ProdPropertyFirstComparison, args)
}
func (Base) ConstantFirstComparison(args []any) (any, error) {
	return unsupported(parser.ProdConstantFirstComparison, args)
}
func (Base) ValueOpRHS(args []any) (any, error) { return unsupported(parser.ProdValueOpRHS, args) }
func (Base) KnownOpRHS(args []any) (any, error) { return unsupported(parser.ProdKnownOpRHS, args) }
func (Base) FuzzyStringOpRHS(args []any) (any, error) {
	return unsupported(parser.ProdFuzzyStringOpRHS, args)
}
func (Base) SetOpRHS(args []any) (any, error)    { return unsupported(parser.ProdSetOpRHS, args) }
func (Base) SetZipOpRHS(args []any) (any, error) { return unsupported(parser.ProdSetZipOpRHS, args) }
func (Base) LengthOpRHS(args []any) (any, error) { return unsupported(parser.ProdLengthOpRHS, args) }
func (Base) PropertyZipAddon(args []any) (any, error) {
	return unsupported(parser.ProdPropertyZipAddon, args)
}
func (Base) Property(args []any) (any, error)  { return unsupported(parser.ProdProperty, args) }
func (Base) String(args []any) (any, error)    { return unsupported(parser.ProdString, args) }
func (Base) Number(args []any) (any, error)    { return unsupported(parser.ProdNumber, args) }
func (Base) ValueList(args []any) (any, error) { return unsupported(parser.ProdValueList, args) }
func (Base) ValueZip(args []any) (any, error)  { return unsupported(parser.ProdValueZip, args) }
func (Base) ValueZipList(args []any) (any, error) {
	return unsupported(parser.ProdValueZipList, args)
}
