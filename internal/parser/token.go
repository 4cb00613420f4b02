// Package parser implements the OPTIMADE filter-language parser: a
// lexer and a recursive-descent grammar engine producing parse trees
// that backend compilers reduce to queries.
package parser

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenEOF        TokenType = iota
	TokenIdentifier           // lowercase property identifiers
	TokenString               // double-quoted string literal (value holds the raw quoted text)
	TokenNumber               // integer or float literal
	TokenOperator             // = != < <= > >=
	TokenAnd                  // AND
	TokenOr                   // OR
	TokenNot                  // NOT
	TokenIs                   // IS
	TokenKnown                // KNOWN
	TokenUnknown              // UNKNOWN
	TokenContains             // CONTAINS
	TokenStarts               // STARTS
	TokenEnds                 // ENDS
	TokenWith                 // WITH
	TokenHas                  // HAS
	TokenAll                  // ALL
	TokenAny                  // ANY
	TokenOnly                 // ONLY
	TokenLength               // LENGTH
	TokenLParen               // (
	TokenRParen               // )
	TokenComma                // ,
	TokenColon                // :
	TokenDot                  // .
)

var tokenNames = map[TokenType]string{
	TokenEOF:        "end of filter",
	TokenIdentifier: "identifier",
	TokenString:     "string",
	TokenNumber:     "number",
	TokenOperator:   "operator",
	TokenAnd:        "AND",
	TokenOr:         "OR",
	TokenNot:        "NOT",
	TokenIs:         "IS",
	TokenKnown:      "KNOWN",
	TokenUnknown:    "UNKNOWN",
	TokenContains:   "CONTAINS",
	TokenStarts:     "STARTS",
	TokenEnds:       "ENDS",
	TokenWith:       "WITH",
	TokenHas:        "HAS",
	TokenAll:        "ALL",
	TokenAny:        "ANY",
	TokenOnly:       "ONLY",
	TokenLength:     "LENGTH",
	TokenLParen:     "'('",
	TokenRParen:     "')'",
	TokenComma:      "','",
	TokenColon:      "':'",
	TokenDot:        "'.'",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "unknown token"
}

// keywords maps the uppercase keyword spellings to their token types.
// OPTIMADE keywords are case-sensitive.
var keywords = map[string]TokenType{
	"AND":      TokenAnd,
	"OR":       TokenOr,
	"NOT":      TokenNot,
	"IS":       TokenIs,
	"KNOWN":    TokenKnown,
	"UNKNOWN":  TokenUnknown,
	"CONTAINS": TokenContains,
	"STARTS":   TokenStarts,
	"ENDS":     TokenEnds,
	"WITH":     TokenWith,
	"HAS":      TokenHas,
	"ALL":      TokenAll,
	"ANY":      TokenAny,
	"ONLY":     TokenOnly,
	"LENGTH":   TokenLength,
}

// Token represents a lexer token.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}
