package transform

import (
	"errors"
	"strconv"
	"strings"

	"github.com/Materials-Consortia/optimade-go/internal/parser"
)

// ParseStringToken strips the quotes from a string token and resolves
// the backslash escapes (\" and \\).
func ParseStringToken(tok parser.Token) (string, error) {
	raw := tok.Value
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return "", malformed(parser.ProdString, "token %q is not a quoted string", raw)
	}
	raw = raw[1 : len(raw)-1]
	if !strings.ContainsRune(raw, '\\') {
		return raw, nil
	}
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
		}
		b.WriteByte(raw[i])
	}
	return b.String(), nil
}

// ParseNumberToken parses a number token into int64 or float64. A
// literal is an integer only when it has neither a decimal point nor
// an exponent. Magnitudes beyond float64 range parse to ±Inf, matching
// the grammar's arbitrary-magnitude literals.
func ParseNumberToken(tok parser.Token) (any, error) {
	s := tok.Value
	if !strings.ContainsAny(s, ".eE") {
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return n, nil
		}
		// Falls through for integers beyond int64.
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return f, nil
		}
		return nil, malformed(parser.ProdNumber, "unparseable number token %q", s)
	}
	return f, nil
}

// JoinProperty reduces a property node's identifier tokens into a
// dotted Property path.
func JoinProperty(args []any) (Property, error) {
	if len(args) == 0 {
		return "", malformed(parser.ProdProperty, "property node with no identifiers")
	}
	segments := make([]string, 0, len(args))
	for _, arg := range args {
		tok, ok := arg.(parser.Token)
		if !ok || tok.Type != parser.TokenIdentifier {
			return "", malformed(parser.ProdProperty, "property child %v is not an identifier", arg)
		}
		segments = append(segments, tok.Value)
	}
	return Property(strings.Join(segments, ".")), nil
}
