package parser

import (
	"fmt"

	"github.com/Materials-Consortia/optimade-go/internal/grammar"
)

// DefaultMaxDepth bounds parenthesis nesting. Parsing is recursive, so
// the bound keeps adversarial filters from exhausting the stack.
const DefaultMaxDepth = 64

// Parser parses filter strings against one resolved grammar version.
// It remembers the last parsed input and tree for diagnostics, so a
// Parser instance must not be shared between concurrent parses.
type Parser struct {
	grammar  *grammar.Grammar
	maxDepth int

	lastInput string
	lastTree  *Tree
}

// Option configures a Parser.
type Option func(*parserOptions)

type parserOptions struct {
	version  *grammar.Version
	variant  string
	maxDepth int
}

// WithVersion selects a specific grammar version instead of the
// highest registered one.
func WithVersion(v grammar.Version) Option {
	return func(o *parserOptions) { o.version = &v }
}

// WithVariant selects a named grammar variant.
func WithVariant(variant string) Option {
	return func(o *parserOptions) { o.variant = variant }
}

// WithMaxDepth overrides the parenthesis nesting bound.
func WithMaxDepth(depth int) Option {
	return func(o *parserOptions) { o.maxDepth = depth }
}

// New resolves a grammar from the registry and returns a Parser for
// it. Fails with grammar.UnknownVersionError if the requested
// (version, variant) pair is not registered.
func New(reg *grammar.Registry, opts ...Option) (*Parser, error) {
	options := parserOptions{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&options)
	}
	g, err := reg.Resolve(options.version, options.variant)
	if err != nil {
		return nil, err
	}
	return &Parser{grammar: g, maxDepth: options.maxDepth}, nil
}

// Grammar returns the resolved grammar this parser uses.
func (p *Parser) Grammar() *grammar.Grammar {
	return p.grammar
}

// Parse runs the grammar engine over the filter text. An empty or
// whitespace-only filter is valid and yields an empty filter node,
// interpreted downstream as "match everything".
func (p *Parser) Parse(input string) (*Tree, error) {
	e := &engine{
		lexer:    NewLexer(input),
		features: p.grammar.Features,
		maxDepth: p.maxDepth,
	}
	if err := e.advance(); err != nil {
		return nil, err
	}
	if err := e.advance(); err != nil {
		return nil, err
	}
	tree, err := e.parseFilter()
	if err != nil {
		return nil, err
	}
	p.lastInput = input
	p.lastTree = tree
	return tree, nil
}

// Describe returns a human-readable dump of the last parsed tree, or a
// description of the grammar engine if nothing has been parsed yet.
// Diagnostics only.
func (p *Parser) Describe() string {
	if p.lastTree == nil {
		return fmt.Sprintf("filter parser, grammar %s (%s)", p.grammar.Version, p.grammar.Variant)
	}
	return fmt.Sprintf("%q ->\n%s", p.lastInput, p.lastTree.Dump())
}

// engine is the per-parse recursive-descent state.
type engine struct {
	lexer    *Lexer
	features grammar.Features
	maxDepth int
	depth    int

	curr Token
	peek Token
}

func (e *engine) advance() error {
	tok, err := e.lexer.Next()
	if err != nil {
		return err
	}
	e.curr = e.peek
	e.peek = tok
	return nil
}

func (e *engine) expect(t TokenType) (Token, error) {
	if e.curr.Type != t {
		return Token{}, e.unexpected(t.String())
	}
	tok := e.curr
	if err := e.advance(); err != nil {
		return Token{}, err
	}
	return tok, nil
}

func (e *engine) unexpected(want string) error {
	got := e.curr.Type.String()
	if e.curr.Type != TokenEOF {
		got = fmt.Sprintf("%s %q", got, e.curr.Value)
	}
	return &SyntaxError{Message: fmt.Sprintf("expected %s, got %s", want, got), Pos: e.curr.Pos}
}

// parseFilter parses: filter = [ expression ] EOF
func (e *engine) parseFilter() (*Tree, error) {
	if e.curr.Type == TokenEOF {
		return &Tree{Production: ProdFilter}, nil
	}
	expr, err := e.parseExpression()
	if err != nil {
		return nil, err
	}
	if e.curr.Type != TokenEOF {
		return nil, e.unexpected("end of filter")
	}
	return &Tree{Production: ProdFilter, Children: []any{expr}}, nil
}

// parseExpression parses: expression = expression_clause { OR expression_clause }
func (e *engine) parseExpression() (*Tree, error) {
	clause, err := e.parseExpressionClause()
	if err != nil {
		return nil, err
	}
	children := []any{clause}
	for e.curr.Type == TokenOr {
		if err := e.advance(); err != nil {
			return nil, err
		}
		clause, err := e.parseExpressionClause()
		if err != nil {
			return nil, err
		}
		children = append(children, clause)
	}
	return &Tree{Production: ProdExpression, Children: children}, nil
}

// parseExpressionClause parses: expression_clause = expression_phrase { AND expression_phrase }
func (e *engine) parseExpressionClause() (*Tree, error) {
	phrase, err := e.parseExpressionPhrase()
	if err != nil {
		return nil, err
	}
	children := []any{phrase}
	for e.curr.Type == TokenAnd {
		if err := e.advance(); err != nil {
			return nil, err
		}
		phrase, err := e.parseExpressionPhrase()
		if err != nil {
			return nil, err
		}
		children = append(children, phrase)
	}
	return &Tree{Production: ProdExpressionClause, Children: children}, nil
}

// parseExpressionPhrase parses: expression_phrase = [ NOT ] ( comparison | "(" expression ")" )
func (e *engine) parseExpressionPhrase() (*Tree, error) {
	var children []any
	if e.curr.Type == TokenNot {
		children = append(children, e.curr)
		if err := e.advance(); err != nil {
			return nil, err
		}
	}

	if e.curr.Type == TokenLParen {
		e.depth++
		if e.depth > e.maxDepth {
			return nil, &ComplexityError{MaxDepth: e.maxDepth}
		}
		if err := e.advance(); err != nil {
			return nil, err
		}
		expr, err := e.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := e.expect(TokenRParen); err != nil {
			return nil, err
		}
		e.depth--
		children = append(children, expr)
		return &Tree{Production: ProdExpressionPhrase, Children: children}, nil
	}

	cmp, err := e.parseComparison()
	if err != nil {
		return nil, err
	}
	children = append(children, cmp)
	return &Tree{Production: ProdExpressionPhrase, Children: children}, nil
}

// parseComparison parses: comparison = constant_first_comparison | property_first_comparison
func (e *engine) parseComparison() (*Tree, error) {
	switch e.curr.Type {
	case TokenString, TokenNumber:
		cfc, err := e.parseConstantFirstComparison()
		if err != nil {
			return nil, err
		}
		return &Tree{Production: ProdComparison, Children: []any{cfc}}, nil
	case TokenIdentifier:
		pfc, err := e.parsePropertyFirstComparison()
		if err != nil {
			return nil, err
		}
		return &Tree{Production: ProdComparison, Children: []any{pfc}}, nil
	default:
		return nil, e.unexpected("a property or constant")
	}
}

// parseConstantFirstComparison parses: constant value_op_rhs
func (e *engine) parseConstantFirstComparison() (*Tree, error) {
	constant, err := e.parseLiteral()
	if err != nil {
		return nil, err
	}
	rhs, err := e.parseValueOpRHS()
	if err != nil {
		return nil, err
	}
	return &Tree{Production: ProdConstantFirstComparison, Children: []any{constant, rhs}}, nil
}

// parsePropertyFirstComparison parses: property <rhs>
func (e *engine) parsePropertyFirstComparison() (*Tree, error) {
	prop, err := e.parseProperty()
	if err != nil {
		return nil, err
	}

	var rhs *Tree
	switch e.curr.Type {
	case TokenOperator:
		rhs, err = e.parseValueOpRHS()
	case TokenIs:
		rhs, err = e.parseKnownOpRHS()
	case TokenContains, TokenStarts, TokenEnds:
		rhs, err = e.parseFuzzyStringOpRHS()
	case TokenHas:
		rhs, err = e.parseSetOpRHS()
	case TokenLength:
		rhs, err = e.parseLengthOpRHS()
	case TokenColon:
		if !e.features.ZippedTuples {
			return nil, &SyntaxError{
				Message: "zipped-tuple filters are not part of this grammar version",
				Pos:     e.curr.Pos,
			}
		}
		rhs, err = e.parseSetZipOpRHS()
	default:
		return nil, e.unexpected("a comparison operator after property")
	}
	if err != nil {
		return nil, err
	}
	return &Tree{Production: ProdPropertyFirstComparison, Children: []any{prop, rhs}}, nil
}

// parseValueOpRHS parses: OPERATOR value
func (e *engine) parseValueOpRHS() (*Tree, error) {
	op, err := e.expect(TokenOperator)
	if err != nil {
		return nil, err
	}
	value, err := e.parseValue()
	if err != nil {
		return nil, err
	}
	return &Tree{Production: ProdValueOpRHS, Children: []any{op, value}}, nil
}

// parseKnownOpRHS parses: IS ( KNOWN | UNKNOWN )
func (e *engine) parseKnownOpRHS() (*Tree, error) {
	if _, err := e.expect(TokenIs); err != nil {
		return nil, err
	}
	if e.curr.Type != TokenKnown && e.curr.Type != TokenUnknown {
		return nil, e.unexpected("KNOWN or UNKNOWN")
	}
	tok := e.curr
	if err := e.advance(); err != nil {
		return nil, err
	}
	return &Tree{Production: ProdKnownOpRHS, Children: []any{tok}}, nil
}

// parseFuzzyStringOpRHS parses: CONTAINS string | STARTS [WITH] string | ENDS [WITH] string
func (e *engine) parseFuzzyStringOpRHS() (*Tree, error) {
	kw := e.curr
	if err := e.advance(); err != nil {
		return nil, err
	}
	if kw.Type != TokenContains && e.curr.Type == TokenWith {
		if err := e.advance(); err != nil {
			return nil, err
		}
	}
	if e.curr.Type != TokenString {
		return nil, e.unexpected("a string literal")
	}
	str := &Tree{Production: ProdString, Children: []any{e.curr}}
	if err := e.advance(); err != nil {
		return nil, err
	}
	return &Tree{Production: ProdFuzzyStringOpRHS, Children: []any{kw, str}}, nil
}

// parseSetOpRHS parses: HAS ( [OPERATOR] value | ALL value_list | ANY value_list | ONLY value_list )
func (e *engine) parseSetOpRHS() (*Tree, error) {
	if _, err := e.expect(TokenHas); err != nil {
		return nil, err
	}

	switch e.curr.Type {
	case TokenAll, TokenAny, TokenOnly:
		kw := e.curr
		if err := e.advance(); err != nil {
			return nil, err
		}
		list, err := e.parseValueList()
		if err != nil {
			return nil, err
		}
		return &Tree{Production: ProdSetOpRHS, Children: []any{kw, list}}, nil
	case TokenOperator:
		op := e.curr
		if err := e.advance(); err != nil {
			return nil, err
		}
		value, err := e.parseValue()
		if err != nil {
			return nil, err
		}
		return &Tree{Production: ProdSetOpRHS, Children: []any{op, value}}, nil
	default:
		value, err := e.parseValue()
		if err != nil {
			return nil, err
		}
		return &Tree{Production: ProdSetOpRHS, Children: []any{value}}, nil
	}
}

// parseSetZipOpRHS parses, starting at the first ':' after the lead
// property: property_zip_addon HAS ( value_zip | ONLY|ALL|ANY value_zip_list )
func (e *engine) parseSetZipOpRHS() (*Tree, error) {
	addon, err := e.parsePropertyZipAddon()
	if err != nil {
		return nil, err
	}
	if _, err := e.expect(TokenHas); err != nil {
		return nil, err
	}

	switch e.curr.Type {
	case TokenAll, TokenAny, TokenOnly:
		kw := e.curr
		if err := e.advance(); err != nil {
			return nil, err
		}
		list, err := e.parseValueZipList()
		if err != nil {
			return nil, err
		}
		return &Tree{Production: ProdSetZipOpRHS, Children: []any{addon, kw, list}}, nil
	default:
		zip, err := e.parseValueZip()
		if err != nil {
			return nil, err
		}
		return &Tree{Production: ProdSetZipOpRHS, Children: []any{addon, zip}}, nil
	}
}

// parsePropertyZipAddon parses: ( ":" property )+
func (e *engine) parsePropertyZipAddon() (*Tree, error) {
	var children []any
	for e.curr.Type == TokenColon {
		if err := e.advance(); err != nil {
			return nil, err
		}
		prop, err := e.parseProperty()
		if err != nil {
			return nil, err
		}
		children = append(children, prop)
	}
	if len(children) == 0 {
		return nil, e.unexpected("':' and a property")
	}
	return &Tree{Production: ProdPropertyZipAddon, Children: children}, nil
}

// parseLengthOpRHS parses: LENGTH [OPERATOR] value
func (e *engine) parseLengthOpRHS() (*Tree, error) {
	if _, err := e.expect(TokenLength); err != nil {
		return nil, err
	}
	var children []any
	if e.curr.Type == TokenOperator {
		if !e.features.LengthOperators {
			return nil, &SyntaxError{
				Message: "LENGTH with a comparison operator is not part of this grammar version",
				Pos:     e.curr.Pos,
			}
		}
		children = append(children, e.curr)
		if err := e.advance(); err != nil {
			return nil, err
		}
	}
	value, err := e.parseValue()
	if err != nil {
		return nil, err
	}
	children = append(children, value)
	return &Tree{Production: ProdLengthOpRHS, Children: children}, nil
}

// parseValueList parses: [OPERATOR] value { "," [OPERATOR] value }
// Operator prefixes are kept as tokens so compilers can reject them.
func (e *engine) parseValueList() (*Tree, error) {
	var children []any
	for {
		if e.curr.Type == TokenOperator {
			children = append(children, e.curr)
			if err := e.advance(); err != nil {
				return nil, err
			}
		}
		value, err := e.parseValue()
		if err != nil {
			return nil, err
		}
		children = append(children, value)

		if e.curr.Type != TokenComma {
			break
		}
		if err := e.advance(); err != nil {
			return nil, err
		}
	}
	return &Tree{Production: ProdValueList, Children: children}, nil
}

// parseValueZip parses: [OPERATOR] value ":" [OPERATOR] value { ":" [OPERATOR] value }
func (e *engine) parseValueZip() (*Tree, error) {
	var children []any
	elements := 0
	for {
		if e.curr.Type == TokenOperator {
			children = append(children, e.curr)
			if err := e.advance(); err != nil {
				return nil, err
			}
		}
		value, err := e.parseValue()
		if err != nil {
			return nil, err
		}
		children = append(children, value)
		elements++

		if e.curr.Type != TokenColon {
			break
		}
		if err := e.advance(); err != nil {
			return nil, err
		}
	}
	if elements < 2 {
		return nil, e.unexpected("':' and a further zipped value")
	}
	return &Tree{Production: ProdValueZip, Children: children}, nil
}

// parseValueZipList parses: value_zip { "," value_zip }
func (e *engine) parseValueZipList() (*Tree, error) {
	var children []any
	for {
		zip, err := e.parseValueZip()
		if err != nil {
			return nil, err
		}
		children = append(children, zip)
		if e.curr.Type != TokenComma {
			break
		}
		if err := e.advance(); err != nil {
			return nil, err
		}
	}
	return &Tree{Production: ProdValueZipList, Children: children}, nil
}

// parseProperty parses: identifier { "." identifier }
func (e *engine) parseProperty() (*Tree, error) {
	ident, err := e.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	children := []any{ident}
	for e.curr.Type == TokenDot {
		if err := e.advance(); err != nil {
			return nil, err
		}
		ident, err := e.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		children = append(children, ident)
	}
	return &Tree{Production: ProdProperty, Children: children}, nil
}

// parseValue parses: string | number | property
func (e *engine) parseValue() (*Tree, error) {
	switch e.curr.Type {
	case TokenString, TokenNumber:
		return e.parseLiteral()
	case TokenIdentifier:
		return e.parseProperty()
	default:
		return nil, e.unexpected("a value")
	}
}

// parseLiteral parses a string or number token into its leaf node.
func (e *engine) parseLiteral() (*Tree, error) {
	var prod Production
	switch e.curr.Type {
	case TokenString:
		prod = ProdString
	case TokenNumber:
		prod = ProdNumber
	default:
		return nil, e.unexpected("a string or number literal")
	}
	node := &Tree{Production: prod, Children: []any{e.curr}}
	if err := e.advance(); err != nil {
		return nil, err
	}
	return node, nil
}
