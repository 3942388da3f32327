// Package signal interprets a parsed strategy tree against a price table
// and produces the per-bar entry and exit signal sequences consumed by the
// simulation engine.
package signal

import (
	"fmt"

	"tradedsl/dsl"
	"tradedsl/indicator"
	"tradedsl/market"
)

// Signals are the evaluator's output: one entry flag and one exit flag per
// bar, aligned 1:1 with the table rows.
type Signals struct {
	Entry []bool
	Exit  []bool
}

// Evaluate interprets the strategy against the table. A strategy with
// several ENTRY (or EXIT) rules keeps only the last one of each kind; a
// missing kind yields an all-false sequence. Any sub-evaluation failure
// aborts the whole call, so callers never see partial signals.
func Evaluate(strategy *dsl.Strategy, table *market.Table) (*Signals, error) {
	if strategy == nil {
		return nil, &EvalError{Msg: "nil strategy"}
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}

	ev := &evaluator{
		table: table,
		n:     table.Len(),
		memo:  map[string][]float64{},
	}

	sigs := &Signals{
		Entry: make([]bool, ev.n),
		Exit:  make([]bool, ev.n),
	}
	for _, rule := range strategy.Rules {
		switch r := rule.(type) {
		case *dsl.EntryRule:
			seq, err := ev.condition(r.Condition)
			if err != nil {
				return nil, err
			}
			sigs.Entry = seq
		case *dsl.ExitRule:
			seq, err := ev.condition(r.Condition)
			if err != nil {
				return nil, err
			}
			sigs.Exit = seq
		default:
			return nil, &InternalError{Msg: fmt.Sprintf("unhandled rule node %T", rule)}
		}
	}
	return sigs, nil
}

// evaluator carries the per-call state: the table, its length, and the
// indicator memo cache. The cache is keyed by the canonical rendering of
// the indicator call, so SMA(close, 20) referenced from both the entry and
// the exit rule is computed exactly once.
type evaluator struct {
	table *market.Table
	n     int
	memo  map[string][]float64
}

func (ev *evaluator) condition(node dsl.Node) ([]bool, error) {
	switch c := node.(type) {
	case *dsl.LogicalOperation:
		if len(c.Operands) < 2 {
			return nil, &EvalError{Msg: fmt.Sprintf("logical %s needs at least 2 operands, got %d", c.Operator, len(c.Operands))}
		}
		acc, err := ev.condition(c.Operands[0])
		if err != nil {
			return nil, err
		}
		for _, op := range c.Operands[1:] {
			next, err := ev.condition(op)
			if err != nil {
				return nil, err
			}
			if c.Operator == dsl.OpAnd {
				andInto(acc, next)
			} else {
				orInto(acc, next)
			}
		}
		return acc, nil

	case *dsl.Comparison:
		left, err := ev.expr(c.Left)
		if err != nil {
			return nil, err
		}
		right, err := ev.expr(c.Right)
		if err != nil {
			return nil, err
		}
		return compare(c.Operator, left, right), nil

	case *dsl.CrossOver:
		return ev.cross(c.Left, c.Right, crossOver)
	case *dsl.Cross:
		// Generic CROSS keeps the crossover direction.
		return ev.cross(c.Left, c.Right, crossOver)
	case *dsl.CrossUnder:
		return ev.cross(c.Left, c.Right, crossUnder)

	default:
		return nil, &InternalError{Msg: fmt.Sprintf("unhandled condition node %T", node)}
	}
}

func (ev *evaluator) cross(left, right dsl.Expr, kernel func(l, r []float64) []bool) ([]bool, error) {
	l, err := ev.expr(left)
	if err != nil {
		return nil, err
	}
	r, err := ev.expr(right)
	if err != nil {
		return nil, err
	}
	return kernel(l, r), nil
}

func (ev *evaluator) expr(node dsl.Expr) ([]float64, error) {
	switch e := node.(type) {
	case *dsl.Identifier:
		return ev.table.Column(e.Name)

	case *dsl.Number:
		return broadcast(e.Value, ev.n), nil

	case *dsl.Indicator:
		return ev.indicatorSeries(e)

	default:
		return nil, &InternalError{Msg: fmt.Sprintf("unhandled expression node %T", node)}
	}
}

func (ev *evaluator) indicatorSeries(ind *dsl.Indicator) ([]float64, error) {
	key := ind.String()
	if cached, ok := ev.memo[key]; ok {
		return cached, nil
	}

	fn, ok := indicator.Lookup(ind.Name)
	if !ok {
		return nil, &UnknownIndicatorError{Name: ind.Name}
	}

	args := make([]indicator.Arg, 0, len(ind.Params))
	for _, p := range ind.Params {
		if num, ok := p.(*dsl.Number); ok {
			args = append(args, indicator.Arg{Scalar: num.Value})
			continue
		}
		series, err := ev.expr(p)
		if err != nil {
			return nil, err
		}
		args = append(args, indicator.Arg{Series: series})
	}

	out, err := fn(ev.n, args)
	if err != nil {
		return nil, &EvalError{Msg: key, Err: err}
	}
	if len(out) != ev.n {
		return nil, &EvalError{Msg: fmt.Sprintf("%s: produced %d values for %d bars", key, len(out), ev.n)}
	}
	ev.memo[key] = out
	return out, nil
}
