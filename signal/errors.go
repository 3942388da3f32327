package signal

import "fmt"

// UnknownIndicatorError means a rule referenced an indicator name that is
// not registered.
type UnknownIndicatorError struct {
	Name string
}

func (e *UnknownIndicatorError) Error() string {
	return fmt.Sprintf("unknown indicator %q", e.Name)
}

// EvalError is a generic evaluation failure, e.g. an indicator called with
// the wrong arguments.
type EvalError struct {
	Msg string
	Err error
}

func (e *EvalError) Error() string {
	if e.Err != nil {
		return "evaluation failed: " + e.Err.Error()
	}
	return "evaluation failed: " + e.Msg
}

func (e *EvalError) Unwrap() error { return e.Err }

// InternalError means the evaluator met an AST node kind it does not
// recognize. It cannot occur for trees produced by the parser.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string { return "internal error: " + e.Msg }
