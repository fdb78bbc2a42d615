package platform

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a platform failure so callers can decide
// between retrying, recording a per-unit Result, or aborting the
// invocation.
type ErrorKind int

const (
	// KindInternal is an unclassified implementation failure.
	KindInternal ErrorKind = iota

	// KindNotFound: the addressed team/repo/issue does not exist.
	KindNotFound

	// KindConflict: the entity already exists.
	KindConflict

	// KindUnauthorized: the token lacks permission for the operation.
	KindUnauthorized

	// KindBadCredentials: the token itself is invalid. Configuration
	// errors like this should abort the whole invocation.
	KindBadCredentials

	// KindUnavailable: transient network or service failure; callers
	// may retry.
	KindUnavailable
)

// PlatformError is the error type raised by contract implementations
// for any remote-operation failure.
type PlatformError struct {
	Op   string
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *PlatformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// NewError creates a PlatformError.
func NewError(op string, kind ErrorKind, format string, args ...any) *PlatformError {
	return &PlatformError{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the error's kind, or KindInternal for non-platform
// errors.
func KindOf(err error) ErrorKind {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a not-found platform error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict reports whether err is an already-exists platform error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsRetryable reports whether err is a transient failure worth
// retrying.
func IsRetryable(err error) bool { return KindOf(err) == KindUnavailable }

// IsFatal reports whether err is a configuration or credential problem
// that should abort the whole invocation rather than become a per-unit
// Result.
func IsFatal(err error) bool {
	k := KindOf(err)
	return k == KindBadCredentials || k == KindUnauthorized
}
