package dsl

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser turns rule-language text into a Strategy tree.
//
// Grammar (keywords are case-insensitive):
//
//	strategy   := rule+
//	rule       := "ENTRY:" expr | "EXIT:" expr
//	expr       := and_expr ("OR" and_expr)*
//	and_expr   := comparison ("AND" comparison)*
//	comparison := cross_form | atom cmp_op atom | "(" expr ")"
//	cross_form := ("CROSS"|"CROSSOVER"|"CROSSUNDER") "(" atom "," atom ")"
//	atom       := name "(" [atom ("," atom)*] ")" | identifier | number
//
// OR binds loosest, then AND; chains of the same operator flatten into a
// single LogicalOperation. The Parser holds no mutable state: one instance
// may be shared and reused across concurrent parses.
type Parser struct{}

// NewParser returns a reusable parser.
func NewParser() *Parser { return &Parser{} }

// Parse parses rule text into a Strategy. On malformed input it returns a
// *ParseError and no partial tree.
func (Parser) Parse(text string) (*Strategy, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parseRun{toks: toks}
	s, err := p.parseStrategy()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Parse is a convenience wrapper around a throwaway Parser.
func Parse(text string) (*Strategy, error) {
	return Parser{}.Parse(text)
}

// parseRun is the per-call cursor over the token stream.
type parseRun struct {
	toks []token
	pos  int
}

func (p *parseRun) peek() token { return p.toks[p.pos] }

func (p *parseRun) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parseRun) expect(kind tokenKind) (token, error) {
	t := p.peek()
	if t.kind != kind {
		return t, p.errf(t, "expected %s, got %s", kind.name(), describe(t))
	}
	return p.next(), nil
}

func (p *parseRun) errf(t token, format string, args ...any) error {
	return &ParseError{Line: t.line, Col: t.col, Message: fmt.Sprintf(format, args...)}
}

func describe(t token) string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.text)
}

func isKeyword(t token, kw string) bool {
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func reserved(name string) bool {
	switch strings.ToUpper(name) {
	case "AND", "OR", "CROSS", "CROSSOVER", "CROSSUNDER":
		return true
	}
	return false
}

func (p *parseRun) parseStrategy() (*Strategy, error) {
	var rules []Rule
	for {
		t := p.peek()
		if t.kind == tokEOF {
			break
		}
		r, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if len(rules) == 0 {
		t := p.peek()
		return nil, p.errf(t, "expected at least one ENTRY or EXIT rule")
	}
	return &Strategy{Rules: rules}, nil
}

func (p *parseRun) parseRule() (Rule, error) {
	t := p.peek()
	entry := isKeyword(t, "ENTRY")
	if !entry && !isKeyword(t, "EXIT") {
		return nil, p.errf(t, "expected ENTRY or EXIT, got %s", describe(t))
	}
	p.next()
	if _, err := p.expect(tokColon); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if entry {
		return &EntryRule{Condition: cond}, nil
	}
	return &ExitRule{Condition: cond}, nil
}

// parseExpr handles OR chains. All same-level OR terms are collected into
// one operand list before the node is constructed, so no node is ever
// mutated after being returned.
func (p *parseRun) parseExpr() (Node, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	operands := []Node{first}
	for isKeyword(p.peek(), "OR") {
		p.next()
		n, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		operands = append(operands, n)
	}
	if len(operands) == 1 {
		return operands[0], nil
	}
	return &LogicalOperation{Operator: OpOr, Operands: operands}, nil
}

func (p *parseRun) parseAnd() (Node, error) {
	first, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	operands := []Node{first}
	for isKeyword(p.peek(), "AND") {
		p.next()
		n, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		operands = append(operands, n)
	}
	if len(operands) == 1 {
		return operands[0], nil
	}
	return &LogicalOperation{Operator: OpAnd, Operands: operands}, nil
}

func (p *parseRun) parseComparison() (Node, error) {
	t := p.peek()

	if t.kind == tokLParen {
		p.next()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return inner, nil
	}

	if t.kind == tokIdent {
		switch strings.ToUpper(t.text) {
		case "CROSS", "CROSSOVER", "CROSSUNDER":
			return p.parseCross(strings.ToUpper(t.text))
		}
	}

	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	opTok, err := p.expect(tokCmp)
	if err != nil {
		return nil, err
	}
	right, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	return &Comparison{Operator: CmpOp(opTok.text), Left: left, Right: right}, nil
}

func (p *parseRun) parseCross(kind string) (Node, error) {
	p.next() // keyword
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokComma); err != nil {
		return nil, err
	}
	right, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	switch kind {
	case "CROSSOVER":
		return &CrossOver{Left: left, Right: right}, nil
	case "CROSSUNDER":
		return &CrossUnder{Left: left, Right: right}, nil
	default:
		return &Cross{Left: left, Right: right}, nil
	}
}

func (p *parseRun) parseAtom() (Expr, error) {
	t := p.peek()

	switch t.kind {
	case tokNumber:
		p.next()
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, p.errf(t, "invalid number %q", t.text)
		}
		return &Number{Value: v}, nil

	case tokIdent:
		if reserved(t.text) {
			return nil, p.errf(t, "unexpected keyword %q", t.text)
		}
		p.next()
		if p.peek().kind == tokLParen {
			return p.parseIndicator(t)
		}
		return &Identifier{Name: t.text}, nil
	}
	return nil, p.errf(t, "expected identifier, number or indicator call, got %s", describe(t))
}

func (p *parseRun) parseIndicator(name token) (Expr, error) {
	p.next() // '('
	var params []Expr
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.parseAtom()
			if err != nil {
				return nil, err
			}
			params = append(params, arg)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return &Indicator{Name: strings.ToUpper(name.text), Params: params}, nil
}
