package filter

import (
	"errors"
	"fmt"
)

var errNonBool = errors.New("expression did not evaluate to a boolean")

// CompilationError indicates a filter expression failed to compile.
type CompilationError struct {
	Expression string
	Reason     string
	Err        error
}

func (e *CompilationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid filter %q: %s: %v", e.Expression, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid filter %q: %s", e.Expression, e.Reason)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

// EvaluationError indicates a compiled filter failed at runtime.
type EvaluationError struct {
	Expression string
	Err        error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("filter %q failed to evaluate: %v", e.Expression, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
