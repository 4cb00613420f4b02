package parser

// Lexer tokenizes a filter string.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Next returns the next token from the input.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	start := l.pos
	ch := l.input[l.pos]

	switch ch {
	case '(':
		l.pos++
		return Token{Type: TokenLParen, Value: "(", Pos: start}, nil
	case ')':
		l.pos++
		return Token{Type: TokenRParen, Value: ")", Pos: start}, nil
	case ',':
		l.pos++
		return Token{Type: TokenComma, Value: ",", Pos: start}, nil
	case ':':
		l.pos++
		return Token{Type: TokenColon, Value: ":", Pos: start}, nil
	case '=':
		l.pos++
		return Token{Type: TokenOperator, Value: "=", Pos: start}, nil
	case '<', '>':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
		}
		return Token{Type: TokenOperator, Value: l.input[start:l.pos], Pos: start}, nil
	case '!':
		l.pos++
		if l.pos >= len(l.input) || l.input[l.pos] != '=' {
			return Token{}, &SyntaxError{Message: "expected '=' after '!'", Pos: start}
		}
		l.pos++
		return Token{Type: TokenOperator, Value: "!=", Pos: start}, nil
	case '"':
		return l.scanString()
	case '.':
		// A dot starting a number (".2E7") or separating property
		// segments ("cell.a").
		if l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1]) {
			return l.scanNumber()
		}
		l.pos++
		return Token{Type: TokenDot, Value: ".", Pos: start}, nil
	}

	if ch == '+' || ch == '-' || isDigit(ch) {
		return l.scanNumber()
	}
	if isWordChar(ch) {
		return l.scanWord()
	}

	return Token{}, &SyntaxError{Message: "unexpected character " + quoteByte(ch), Pos: start}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return
		}
	}
}

// scanWord scans a keyword or a property identifier. Keywords are
// uppercase; identifiers must start with a lowercase letter or an
// underscore.
func (l *Lexer) scanWord() (Token, error) {
	start := l.pos
	for l.pos < len(l.input) && isWordChar(l.input[l.pos]) {
		l.pos++
	}
	word := l.input[start:l.pos]

	if t, ok := keywords[word]; ok {
		return Token{Type: t, Value: word, Pos: start}, nil
	}
	if !isIdentStart(word[0]) {
		return Token{}, &SyntaxError{Message: "invalid identifier " + quote(word), Pos: start}
	}
	for i := 1; i < len(word); i++ {
		if !isIdentChar(word[i]) {
			return Token{}, &SyntaxError{Message: "invalid identifier " + quote(word), Pos: start}
		}
	}
	return Token{Type: TokenIdentifier, Value: word, Pos: start}, nil
}

// scanString scans a double-quoted string literal. The token value
// keeps the surrounding quotes and escape sequences; the compiler
// framework unescapes them.
func (l *Lexer) scanString() (Token, error) {
	start := l.pos
	l.pos++ // opening quote
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case '\\':
			l.pos += 2
		case '"':
			l.pos++
			return Token{Type: TokenString, Value: l.input[start:l.pos], Pos: start}, nil
		default:
			l.pos++
		}
	}
	return Token{}, &SyntaxError{Message: "unterminated string literal", Pos: start}
}

// scanNumber scans a signed integer or float literal, including
// exponent notation.
func (l *Lexer) scanNumber() (Token, error) {
	start := l.pos
	if c := l.input[l.pos]; c == '+' || c == '-' {
		l.pos++
	}

	digitsBefore := l.scanDigits()
	digitsAfter := 0
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.pos++
		digitsAfter = l.scanDigits()
	}
	if digitsBefore == 0 && digitsAfter == 0 {
		return Token{}, &SyntaxError{Message: "malformed number", Pos: start}
	}

	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
			l.pos++
		}
		if l.scanDigits() == 0 {
			return Token{}, &SyntaxError{Message: "malformed number exponent", Pos: start}
		}
	}

	return Token{Type: TokenNumber, Value: l.input[start:l.pos], Pos: start}, nil
}

func (l *Lexer) scanDigits() int {
	n := 0
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
		n++
	}
	return n
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || ch == '_'
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

// isWordChar accepts any letter so that malformed identifiers such as
// "Foo" are reported as invalid identifiers rather than split apart.
func isWordChar(ch byte) bool {
	return isIdentChar(ch) || (ch >= 'A' && ch <= 'Z')
}

func quote(s string) string { return "'" + s + "'" }

func quoteByte(b byte) string { return quote(string(b)) }
