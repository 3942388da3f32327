package dsl

import "fmt"

// ParseError reports malformed rule text with the position of the offending
// token. Line and Col are 1-based.
type ParseError struct {
	Line    int
	Col     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, col %d: %s", e.Line, e.Col, e.Message)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokLParen
	tokRParen
	tokComma
	tokColon
	tokCmp
)

func (k tokenKind) name() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokNumber:
		return "number"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokComma:
		return "','"
	case tokColon:
		return "':'"
	case tokCmp:
		return "comparison operator"
	}
	return "token"
}

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

// lex tokenizes the whole input up front. Identifiers are alphanumeric or
// underscore and must not start with a digit; numbers are decimal literals
// with optional fraction and exponent.
func lex(src string) ([]token, error) {
	var toks []token
	line, col := 1, 1

	i := 0
	for i < len(src) {
		c := src[i]

		switch {
		case c == '\n':
			line++
			col = 1
			i++
			continue
		case c == ' ' || c == '\t' || c == '\r':
			i++
			col++
			continue
		}

		start := col
		switch {
		case c == '(':
			toks = append(toks, token{tokLParen, "(", line, start})
			i++
			col++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", line, start})
			i++
			col++
		case c == ',':
			toks = append(toks, token{tokComma, ",", line, start})
			i++
			col++
		case c == ':':
			toks = append(toks, token{tokColon, ":", line, start})
			i++
			col++
		case c == '>' || c == '<':
			op := string(c)
			i++
			col++
			if i < len(src) && src[i] == '=' {
				op += "="
				i++
				col++
			}
			toks = append(toks, token{tokCmp, op, line, start})
		case c == '=':
			if i+1 >= len(src) || src[i+1] != '=' {
				return nil, &ParseError{Line: line, Col: start, Message: "expected '==', got '='"}
			}
			toks = append(toks, token{tokCmp, "==", line, start})
			i += 2
			col += 2
		case isDigit(c):
			j := i
			for j < len(src) && isDigit(src[j]) {
				j++
			}
			if j < len(src) && src[j] == '.' {
				j++
				for j < len(src) && isDigit(src[j]) {
					j++
				}
			}
			if j < len(src) && (src[j] == 'e' || src[j] == 'E') {
				k := j + 1
				if k < len(src) && (src[k] == '+' || src[k] == '-') {
					k++
				}
				if k < len(src) && isDigit(src[k]) {
					j = k
					for j < len(src) && isDigit(src[j]) {
						j++
					}
				}
			}
			toks = append(toks, token{tokNumber, src[i:j], line, start})
			col += j - i
			i = j
		case isIdentStart(c):
			j := i
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, src[i:j], line, start})
			col += j - i
			i = j
		default:
			return nil, &ParseError{Line: line, Col: start, Message: fmt.Sprintf("unexpected character %q", c)}
		}
	}

	toks = append(toks, token{tokEOF, "", line, col})
	return toks, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
