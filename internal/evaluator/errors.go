package evaluator

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/snipcheck/internal/model"
)

// EvaluationError is an execution failure of one statement
type EvaluationError struct {
	Kind model.ErrorKind // KindTimeout, KindRuntimeFault or KindSyntaxFault
	Err  error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

func syntaxFault(err error) *EvaluationError {
	return &EvaluationError{Kind: model.KindSyntaxFault, Err: err}
}

func runtimeFault(err error) *EvaluationError {
	return &EvaluationError{Kind: model.KindRuntimeFault, Err: err}
}

func timeout(err error) *EvaluationError {
	return &EvaluationError{Kind: model.KindTimeout, Err: err}
}

// KindOf returns the failure kind of err. Deadline errors count as timeouts;
// anything unrecognised is a runtime fault.
func KindOf(err error) model.ErrorKind {
	var ee *EvaluationError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.KindTimeout
	}
	return model.KindRuntimeFault
}
