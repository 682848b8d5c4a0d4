package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies planner failures for API mapping
type Kind string

const (
	KindInvalidRequest Kind = "INVALID_REQUEST"
	KindDataSource     Kind = "DATA_SOURCE"
	KindInfeasible     Kind = "INFEASIBLE"
	KindTimeout        Kind = "TIMEOUT"
	KindDegraded       Kind = "DEGRADED"
)

// Error is a classified planner error. Infeasible and timed-out solves
// are reported through the Plan note instead, so those kinds appear
// here only when a caller asks for strict failure semantics.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error without a cause
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError classifies an underlying error
func WrapError(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind of a classified error, or "" for others
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
