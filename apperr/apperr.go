// Package apperr defines the error taxonomy shared by the HTTP API and the
// tool gateway. Every component that can fail returns one of these kinds so
// both surfaces can map a single error to a consistent disposition (HTTP
// status, Markdown block) without inspecting driver-specific error types.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why an operation failed.
type Kind string

const (
	// VersionUnavailable means the target collection is absent or empty.
	VersionUnavailable Kind = "VersionUnavailable"
	// NodeNotFound means a lookup or traversal target does not exist.
	NodeNotFound Kind = "NodeNotFound"
	// InvalidArgument means a required field was missing or an enum value unknown.
	InvalidArgument Kind = "InvalidArgument"
	// StoreUnavailable means the document store connection failed.
	StoreUnavailable Kind = "StoreUnavailable"
	// CacheUnavailable means the cache connection failed; callers should degrade, not fail.
	CacheUnavailable Kind = "CacheUnavailable"
	// Timeout means a timeout budget was exceeded.
	Timeout Kind = "Timeout"
	// Internal means an unexpected failure; detail is logged, not disclosed.
	Internal Kind = "Internal"
)

// Error is the concrete error type returned by every query-engine component.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Cause returns the original error this Error wraps, or nil.
func (e *Error) Cause() error { return errors.Cause(e.cause) }

// New builds an Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error around an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, defaulting to Internal for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
