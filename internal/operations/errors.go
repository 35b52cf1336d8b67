package operations

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType represents the type of task error
type ErrorType string

const (
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypePanic        ErrorType = "panic"
)

// TaskError is the failure of one symbol task
type TaskError struct {
	Type   ErrorType `json:"type"`
	Symbol string    `json:"symbol"`
	Cause  error     `json:"-"`
}

// Error implements the error interface
func (e *TaskError) Error() string {
	if e == nil {
		return "unknown task error"
	}
	return fmt.Sprintf("[%s] %s: %v", e.Type, e.Symbol, e.Cause)
}

// Unwrap returns the underlying error
func (e *TaskError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// newTaskError classifies a task failure by its cause
func newTaskError(symbol string, cause error) *TaskError {
	typ := ErrorTypeExecution
	switch {
	case errors.Is(cause, errPanic):
		typ = ErrorTypePanic
	case errors.Is(cause, context.DeadlineExceeded):
		typ = ErrorTypeTimeout
	case errors.Is(cause, context.Canceled):
		typ = ErrorTypeCancellation
	}
	return &TaskError{Type: typ, Symbol: symbol, Cause: cause}
}

var errPanic = errors.New("task panicked")

// IsTimeout reports whether err is a task timeout
func IsTimeout(err error) bool {
	var te *TaskError
	return errors.As(err, &te) && te.Type == ErrorTypeTimeout
}
