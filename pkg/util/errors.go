package util

import (
	"errors"
	"fmt"
)

// Sentinel errors for construction-time configuration failures.
var (
	ErrInvalidBackend     = errors.New("unsupported backend type")
	ErrUnknownRouter      = errors.New("router not present")
	ErrUnknownInterface   = errors.New("interface not present on router")
	ErrInvariantViolation = errors.New("internal invariant violation")
)

// ConfigError represents a construction-time configuration failure with
// context: a bad backend selector, or a rule referencing a router or
// interface that wasn't declared.
type ConfigError struct {
	Operation string
	Subject   string
	Reason    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Operation, e.Subject, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	switch {
	case e.Reason == "unsupported backend type":
		return ErrInvalidBackend
	case e.Subject != "" && e.Reason == "unknown interface":
		return ErrUnknownInterface
	default:
		return ErrUnknownRouter
	}
}

// NewConfigError creates a construction-time configuration error.
func NewConfigError(operation, subject, reason string) *ConfigError {
	return &ConfigError{Operation: operation, Subject: subject, Reason: reason}
}

// InvariantError represents a violated engine invariant: a programmer
// error, not a user-facing failure. Callers raise it as a panic value
// (see pkg/util.Assert) rather than returning it, since none of the
// engine's internal invariants can fail without a bug in the engine
// itself.
type InvariantError struct {
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant %s violated: %s", e.Invariant, e.Detail)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}

// Assert panics with an *InvariantError if cond is false. Used for
// programmer errors: overlap computed as empty when a prior
// intersection test reported non-empty, negative volume, a cycle in
// the difference-of-cubes DAG.
func Assert(cond bool, invariant, detail string) {
	if !cond {
		panic(&InvariantError{Invariant: invariant, Detail: detail})
	}
}
