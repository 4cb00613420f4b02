package parser

import (
	"errors"
	"testing"
)

func lexAll(t *testing.T, input string) []Token {
	t.Helper()
	l := NewLexer(input)
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("lex %q: %v", input, err)
		}
		if tok.Type == TokenEOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func TestLexerTokens(t *testing.T) {
	tests := []struct {
		input string
		want  []Token
	}{
		{
			`nelements = 3`,
			[]Token{
				{Type: TokenIdentifier, Value: "nelements", Pos: 0},
				{Type: TokenOperator, Value: "=", Pos: 10},
				{Type: TokenNumber, Value: "3", Pos: 12},
			},
		},
		{
			`a != 1 AND b <= 2`,
			[]Token{
				{Type: TokenIdentifier, Value: "a", Pos: 0},
				{Type: TokenOperator, Value: "!=", Pos: 2},
				{Type: TokenNumber, Value: "1", Pos: 5},
				{Type: TokenAnd, Value: "AND", Pos: 7},
				{Type: TokenIdentifier, Value: "b", Pos: 11},
				{Type: TokenOperator, Value: "<=", Pos: 13},
				{Type: TokenNumber, Value: "2", Pos: 16},
			},
		},
		{
			`elements HAS ALL "Si", "O"`,
			[]Token{
				{Type: TokenIdentifier, Value: "elements", Pos: 0},
				{Type: TokenHas, Value: "HAS", Pos: 9},
				{Type: TokenAll, Value: "ALL", Pos: 13},
				{Type: TokenString, Value: `"Si"`, Pos: 17},
				{Type: TokenComma, Value: ",", Pos: 21},
				{Type: TokenString, Value: `"O"`, Pos: 23},
			},
		},
		{
			`species.name STARTS WITH "si"`,
			[]Token{
				{Type: TokenIdentifier, Value: "species", Pos: 0},
				{Type: TokenDot, Value: ".", Pos: 7},
				{Type: TokenIdentifier, Value: "name", Pos: 8},
				{Type: TokenStarts, Value: "STARTS", Pos: 13},
				{Type: TokenWith, Value: "WITH", Pos: 20},
				{Type: TokenString, Value: `"si"`, Pos: 25},
			},
		},
		{
			`a:b HAS 1:2`,
			[]Token{
				{Type: TokenIdentifier, Value: "a", Pos: 0},
				{Type: TokenColon, Value: ":", Pos: 1},
				{Type: TokenIdentifier, Value: "b", Pos: 2},
				{Type: TokenHas, Value: "HAS", Pos: 4},
				{Type: TokenNumber, Value: "1", Pos: 8},
				{Type: TokenColon, Value: ":", Pos: 9},
				{Type: TokenNumber, Value: "2", Pos: 10},
			},
		},
	}

	for _, tt := range tests {
		got := lexAll(t, tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("lex %q: got %d tokens, want %d: %+v", tt.input, len(got), len(tt.want), got)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("lex %q: token %d = %+v, want %+v", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	// The number grammar admits leading signs, bare leading dots and
	// exponents without a fraction.
	valid := []string{"3", "-5", "+42", "1.5", ".2E7", "6.02e23", "1E-3", "-.5", "5."}
	for _, input := range valid {
		tokens := lexAll(t, input)
		if len(tokens) != 1 || tokens[0].Type != TokenNumber || tokens[0].Value != input {
			t.Errorf("lex %q: got %+v, want one number token", input, tokens)
		}
	}
}

func TestLexerNumberSplits(t *testing.T) {
	// "0.0.1" is a number followed by a trailing ".1"; the parser layer
	// rejects the leftover. The lexer just tokenizes greedily.
	tokens := lexAll(t, "0.0.1")
	if len(tokens) != 2 {
		t.Fatalf("lex 0.0.1: got %+v, want 2 tokens", tokens)
	}
	if tokens[0].Value != "0.0" || tokens[1].Value != ".1" {
		t.Errorf("lex 0.0.1 = %q, %q; want \"0.0\", \".1\"", tokens[0].Value, tokens[1].Value)
	}
}

func TestLexerStringEscapes(t *testing.T) {
	tokens := lexAll(t, `name = "say \"hi\" \\ done"`)
	last := tokens[len(tokens)-1]
	if last.Type != TokenString || last.Value != `"say \"hi\" \\ done"` {
		t.Errorf("string token = %+v", last)
	}
}

func TestLexerErrors(t *testing.T) {
	bad := []string{
		`name = "unterminated`,
		`a ! b`,
		`a = #`,
		`Elements HAS "Si"`,
	}
	for _, input := range bad {
		l := NewLexer(input)
		var err error
		for err == nil {
			var tok Token
			tok, err = l.Next()
			if err == nil && tok.Type == TokenEOF {
				t.Errorf("lex %q: expected an error", input)
				break
			}
		}
		var syntax *SyntaxError
		if err != nil && !errors.As(err, &syntax) {
			t.Errorf("lex %q: error %v is not a SyntaxError", input, err)
		}
	}
}

func TestLexerKeywordsAreCaseSensitive(t *testing.T) {
	// Lowercase "and" is an identifier, not a keyword.
	tokens := lexAll(t, "and")
	if len(tokens) != 1 || tokens[0].Type != TokenIdentifier {
		t.Errorf("lex \"and\" = %+v, want identifier", tokens)
	}
}
