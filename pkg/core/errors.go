// Package core wires the cognitive components together behind a single
// client exposing the assistant-loop entry points.
package core

import (
	"errors"
	"fmt"
)

// Predefined errors for common failure scenarios.
var (
	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidInput indicates that the provided input is invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// CoreError wraps errors with operation context.
type CoreError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns "cognition: <Op>: <Err>".
func (e *CoreError) Error() string {
	return fmt.Sprintf("cognition: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As.
func (e *CoreError) Unwrap() error {
	return e.Err
}

// NewCoreError wraps err with operation context. Returns nil if err is nil.
func NewCoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &CoreError{Op: op, Err: err}
}
