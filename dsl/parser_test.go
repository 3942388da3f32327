package dsl

import (
	"errors"
	"strings"
	"testing"
)

func mustParse(t *testing.T, text string) *Strategy {
	t.Helper()
	s, err := Parse(text)
	if err != nil {
		t.Fatalf("parse %q: %v", text, err)
	}
	return s
}

func TestParseDeterministic(t *testing.T) {
	text := "ENTRY: CROSSOVER(SMA(close, 10), SMA(close, 30))\nEXIT: RSI(close, 14) > 70"
	a := mustParse(t, text)
	b := mustParse(t, text)
	if a.String() != b.String() {
		t.Fatalf("parses differ:\n%s\n%s", a, b)
	}
}

func TestParsePrecedence(t *testing.T) {
	s := mustParse(t, "ENTRY: close > 1 AND open > 2 OR volume > 3")

	entry, ok := s.Rules[0].(*EntryRule)
	if !ok {
		t.Fatalf("expected entry rule, got %T", s.Rules[0])
	}
	or, ok := entry.Condition.(*LogicalOperation)
	if !ok || or.Operator != OpOr {
		t.Fatalf("expected OR at top, got %#v", entry.Condition)
	}
	if len(or.Operands) != 2 {
		t.Fatalf("expected 2 OR operands, got %d", len(or.Operands))
	}
	and, ok := or.Operands[0].(*LogicalOperation)
	if !ok || and.Operator != OpAnd {
		t.Fatalf("expected AND as first OR operand, got %#v", or.Operands[0])
	}
	if _, ok := or.Operands[1].(*Comparison); !ok {
		t.Fatalf("expected comparison as second OR operand, got %#v", or.Operands[1])
	}
}

func TestParseFlattensChains(t *testing.T) {
	s := mustParse(t, "ENTRY: close > 1 AND open > 2 AND volume > 3")
	and, ok := s.Rules[0].(*EntryRule).Condition.(*LogicalOperation)
	if !ok || and.Operator != OpAnd {
		t.Fatalf("expected AND node, got %#v", s.Rules[0].(*EntryRule).Condition)
	}
	if len(and.Operands) != 3 {
		t.Fatalf("expected flat list of 3 operands, got %d", len(and.Operands))
	}

	s = mustParse(t, "EXIT: close > 1 OR open > 2 OR volume > 3 OR low < 4")
	or := s.Rules[0].(*ExitRule).Condition.(*LogicalOperation)
	if or.Operator != OpOr || len(or.Operands) != 4 {
		t.Fatalf("expected flat OR of 4 operands, got %s", or)
	}
}

func TestParseParenthesesOverridePrecedence(t *testing.T) {
	s := mustParse(t, "ENTRY: close > 1 AND (open > 2 OR volume > 3)")
	and := s.Rules[0].(*EntryRule).Condition.(*LogicalOperation)
	if and.Operator != OpAnd || len(and.Operands) != 2 {
		t.Fatalf("expected binary AND, got %s", and)
	}
	if or, ok := and.Operands[1].(*LogicalOperation); !ok || or.Operator != OpOr {
		t.Fatalf("expected nested OR, got %#v", and.Operands[1])
	}
}

func TestParseCrossForms(t *testing.T) {
	s := mustParse(t, "ENTRY: CROSSOVER(close, open)\nEXIT: crossunder(SMA(close, 5), 100)")
	if _, ok := s.Rules[0].(*EntryRule).Condition.(*CrossOver); !ok {
		t.Fatalf("expected CrossOver, got %#v", s.Rules[0].(*EntryRule).Condition)
	}
	cu, ok := s.Rules[1].(*ExitRule).Condition.(*CrossUnder)
	if !ok {
		t.Fatalf("expected CrossUnder, got %#v", s.Rules[1].(*ExitRule).Condition)
	}
	if _, ok := cu.Right.(*Number); !ok {
		t.Fatalf("expected number operand, got %#v", cu.Right)
	}

	s = mustParse(t, "ENTRY: CROSS(close, open)")
	if _, ok := s.Rules[0].(*EntryRule).Condition.(*Cross); !ok {
		t.Fatalf("expected Cross, got %#v", s.Rules[0].(*EntryRule).Condition)
	}
}

func TestParseIndicatorNesting(t *testing.T) {
	s := mustParse(t, "ENTRY: sma(sma(close, 5), 10) > 100")
	cmp := s.Rules[0].(*EntryRule).Condition.(*Comparison)
	outer, ok := cmp.Left.(*Indicator)
	if !ok {
		t.Fatalf("expected indicator, got %#v", cmp.Left)
	}
	if outer.Name != "SMA" {
		t.Fatalf("indicator name not uppercased: %q", outer.Name)
	}
	inner, ok := outer.Params[0].(*Indicator)
	if !ok || inner.Name != "SMA" {
		t.Fatalf("expected nested indicator, got %#v", outer.Params[0])
	}
	if got := outer.String(); got != "SMA(SMA(close, 5), 10)" {
		t.Fatalf("canonical form mismatch: %q", got)
	}
}

func TestParseCaseInsensitiveKeywords(t *testing.T) {
	s := mustParse(t, "entry: close > 10 and volume > 100\nexit: close < 5 or volume < 10")
	if len(s.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(s.Rules))
	}
	if _, ok := s.Rules[0].(*EntryRule); !ok {
		t.Fatalf("expected entry rule first, got %T", s.Rules[0])
	}
}

func TestParseKeepsDuplicateRules(t *testing.T) {
	s := mustParse(t, "ENTRY: close > 1\nENTRY: close > 2\nEXIT: close < 1")
	if len(s.Rules) != 3 {
		t.Fatalf("expected all rules kept in order, got %d", len(s.Rules))
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string // substring of the message
	}{
		{"empty", "", "at least one"},
		{"missing colon", "ENTRY close > 1", "':'"},
		{"missing operand", "ENTRY: close >", "expected identifier"},
		{"unclosed paren", "ENTRY: (close > 1", "')'"},
		{"unclosed call", "ENTRY: SMA(close, 20 > 1", "')'"},
		{"bad char", "ENTRY: close > 1 !", "unexpected character"},
		{"single equals", "ENTRY: close = 1", "'=='"},
		{"keyword as operand", "ENTRY: AND > 1", "keyword"},
		{"not a rule", "close > 1", "expected ENTRY or EXIT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.text)
			if err == nil {
				t.Fatalf("expected error for %q", tc.text)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T: %v", err, err)
			}
			if pe.Line < 1 || pe.Col < 1 {
				t.Fatalf("missing position: %+v", pe)
			}
			if !strings.Contains(pe.Message, tc.want) {
				t.Fatalf("message %q does not mention %q", pe.Message, tc.want)
			}
		})
	}
}

func TestParserIsReusable(t *testing.T) {
	p := NewParser()
	for i := 0; i < 3; i++ {
		if _, err := p.Parse("ENTRY: close > 1"); err != nil {
			t.Fatalf("reuse %d: %v", i, err)
		}
	}
	if _, err := p.Parse("ENTRY: >"); err == nil {
		t.Fatal("expected error")
	}
	// A failed parse must not poison the next one.
	if _, err := p.Parse("ENTRY: close > 1"); err != nil {
		t.Fatalf("parse after failure: %v", err)
	}
}
