package component

import (
	"errors"
	"fmt"
)

// ErrDestroyed is returned by operations on an instance past its terminal
// phase.
var ErrDestroyed = errors.New("weft: component destroyed")

// ErrNotAProgram is returned when a nested component spec carries something
// other than a render program.
var ErrNotAProgram = errors.New("weft: component spec program does not implement program.Program")

// EvaluationError wraps a failure raised while evaluating a fragment owned
// by a component. It never propagates past the owning instance.
type EvaluationError struct {
	Component uint64
	Name      string
	Err       error
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("weft: evaluation failed in component %q (#%d): %v", e.Name, e.Component, e.Err)
}

// Unwrap returns the underlying error.
func (e *EvaluationError) Unwrap() error {
	return e.Err
}
