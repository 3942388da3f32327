package dsl

import (
	"strconv"
	"strings"
)

// Node is implemented by every element of a parsed strategy tree.
// Nodes are built once by the parser and never mutated afterwards, so a
// tree can be evaluated repeatedly and shared across goroutines.
type Node interface {
	// String renders the node in canonical rule-language form. Two trees
	// are structurally equal iff their renderings are equal.
	String() string
}

// Expr is a value-producing node: an identifier, a number literal, or an
// indicator call. Expressions appear as comparison and cross operands and
// as indicator parameters.
type Expr interface {
	Node
	exprNode()
}

// Rule is a single ENTRY or EXIT clause.
type Rule interface {
	Node
	ruleNode()
}

// Strategy is the root of the tree: the ordered list of rules exactly as
// they appeared in the source text. Duplicate ENTRY/EXIT rules are kept
// here; the evaluator applies the last one of each kind.
type Strategy struct {
	Rules []Rule
}

func (s *Strategy) String() string {
	parts := make([]string, 0, len(s.Rules))
	for _, r := range s.Rules {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, "\n")
}

// EntryRule holds the condition that opens a position.
type EntryRule struct {
	Condition Node
}

func (r *EntryRule) ruleNode()      {}
func (r *EntryRule) String() string { return "ENTRY: " + r.Condition.String() }

// ExitRule holds the condition that closes a position.
type ExitRule struct {
	Condition Node
}

func (r *ExitRule) ruleNode()      {}
func (r *ExitRule) String() string { return "EXIT: " + r.Condition.String() }

// LogicalOp is the connective of a LogicalOperation.
type LogicalOp string

const (
	OpAnd LogicalOp = "AND"
	OpOr  LogicalOp = "OR"
)

// LogicalOperation is an AND or OR over two or more conditions. Chains of
// the same operator at one nesting level are flattened into a single node
// with all operands in source order.
type LogicalOperation struct {
	Operator LogicalOp
	Operands []Node
}

func (l *LogicalOperation) String() string {
	parts := make([]string, 0, len(l.Operands))
	for _, op := range l.Operands {
		parts = append(parts, op.String())
	}
	return "(" + strings.Join(parts, " "+string(l.Operator)+" ") + ")"
}

// CmpOp is a comparison operator.
type CmpOp string

const (
	CmpGT CmpOp = ">"
	CmpLT CmpOp = "<"
	CmpGE CmpOp = ">="
	CmpLE CmpOp = "<="
	CmpEQ CmpOp = "=="
)

// Comparison applies a comparison operator elementwise to two expressions.
type Comparison struct {
	Operator CmpOp
	Left     Expr
	Right    Expr
}

func (c *Comparison) String() string {
	return "(" + c.Left.String() + " " + string(c.Operator) + " " + c.Right.String() + ")"
}

// Cross fires when Left crosses Right. It is evaluated identically to
// CrossOver (left transitions from at-or-below to strictly above).
type Cross struct {
	Left  Expr
	Right Expr
}

func (c *Cross) String() string {
	return "CROSS(" + c.Left.String() + ", " + c.Right.String() + ")"
}

// CrossOver fires when Left crosses above Right.
type CrossOver struct {
	Left  Expr
	Right Expr
}

func (c *CrossOver) String() string {
	return "CROSSOVER(" + c.Left.String() + ", " + c.Right.String() + ")"
}

// CrossUnder fires when Left crosses below Right.
type CrossUnder struct {
	Left  Expr
	Right Expr
}

func (c *CrossUnder) String() string {
	return "CROSSUNDER(" + c.Left.String() + ", " + c.Right.String() + ")"
}

// Indicator is a call to a named indicator function, e.g. SMA(close, 20).
// Name is normalized to uppercase at construction. Params may be nested
// indicator calls.
type Indicator struct {
	Name   string
	Params []Expr
}

func (ind *Indicator) exprNode() {}

func (ind *Indicator) String() string {
	parts := make([]string, 0, len(ind.Params))
	for _, p := range ind.Params {
		parts = append(parts, p.String())
	}
	return ind.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Identifier names a price-table column, e.g. close or volume.
type Identifier struct {
	Name string
}

func (id *Identifier) exprNode()      {}
func (id *Identifier) String() string { return id.Name }

// Number is a numeric literal.
type Number struct {
	Value float64
}

func (n *Number) exprNode() {}

func (n *Number) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}
