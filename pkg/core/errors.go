package core

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a step failed.
type FailureKind int

const (
	KindUnknown FailureKind = iota
	KindAssertion
	KindPrecondition
	KindTransport
)

func (k FailureKind) String() string {
	switch k {
	case KindAssertion:
		return "assertion failed"
	case KindPrecondition:
		return "precondition not met"
	case KindTransport:
		return "transport error"
	default:
		return "error"
	}
}

// AssertionError reports an observed value that did not match the expected one.
type AssertionError struct {
	Step     string
	Check    string
	Expected any
	Actual   any
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("step %q: %s: expected %s, got %s", e.Step, e.Check, formatValue(e.Expected), formatValue(e.Actual))
}

// PreconditionError reports that a step required state an upstream step never established.
type PreconditionError struct {
	Step        string
	Requirement string
	Reason      string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("step %q requires %s: %s", e.Step, e.Requirement, e.Reason)
}

// TransportError wraps a failure of the network call itself.
type TransportError struct {
	Step string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("step %q: %v", e.Step, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UndefinedVariableError is returned by template resolution for an unknown key.
type UndefinedVariableError struct {
	Key string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined variable: %s", e.Key)
}

// Classify returns the failure kind of err.
func Classify(err error) FailureKind {
	var assertErr *AssertionError
	var preErr *PreconditionError
	var transportErr *TransportError
	switch {
	case errors.As(err, &assertErr):
		return KindAssertion
	case errors.As(err, &preErr):
		return KindPrecondition
	case errors.As(err, &transportErr):
		return KindTransport
	default:
		return KindUnknown
	}
}

func formatValue(v any) string {
	switch tv := v.(type) {
	case nil:
		return "<undefined>"
	case string:
		return fmt.Sprintf("%q", tv)
	case float64:
		if tv == float64(int64(tv)) {
			return fmt.Sprintf("%d", int64(tv))
		}
		return fmt.Sprintf("%g", tv)
	default:
		return fmt.Sprintf("%v", tv)
	}
}
