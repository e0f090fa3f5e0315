// Package corverr defines the structured error taxonomy used throughout
// corvus. Every error that crosses a component boundary is a *corverr.Error
// carrying a Kind, so callers can branch with errors.As instead of matching
// strings.
package corverr

import (
	"errors"
	"fmt"
)

// Kind classifies an error. It is the taxonomy's sole dispatch key.
type Kind string

const (
	// NotFound indicates a referenced id does not exist.
	NotFound Kind = "not_found"
	// Validation indicates a request is structurally invalid.
	Validation Kind = "validation"
	// DimensionMismatch indicates an embedding length differs from the
	// library's fixed dimension.
	DimensionMismatch Kind = "dimension_mismatch"
	// NotIndexed indicates a search was attempted on a library with no
	// current index, or the index was invalidated by concurrent mutation.
	NotIndexed Kind = "not_indexed"
	// UnsupportedIndexType indicates an unknown index_type value.
	UnsupportedIndexType Kind = "unsupported_index_type"
	// Conflict indicates a cascading delete is in progress.
	Conflict Kind = "conflict"
	// Internal indicates an unexpected invariant violation.
	Internal Kind = "internal"
)

// Error is the structured error type for corvus. It carries a Kind for
// programmatic dispatch, optional structured details for diagnostics, and an
// optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, enabling errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *Error with the same Kind, so
// errors.Is(err, corverr.New(corverr.NotFound, "")) works as a kind check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithDetail attaches a key-value diagnostic detail and returns the error for
// chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind wrapping an existing error. Returns
// nil if err is nil.
func Wrap(kind Kind, message string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: err}
}

// NotFoundf builds a NotFound error.
func NotFoundf(format string, args ...any) *Error { return Newf(NotFound, format, args...) }

// Validationf builds a Validation error.
func Validationf(format string, args ...any) *Error { return Newf(Validation, format, args...) }

// DimensionMismatchf builds a DimensionMismatch error.
func DimensionMismatchf(format string, args ...any) *Error {
	return Newf(DimensionMismatch, format, args...)
}

// NotIndexedf builds a NotIndexed error.
func NotIndexedf(format string, args ...any) *Error { return Newf(NotIndexed, format, args...) }

// UnsupportedIndexTypef builds an UnsupportedIndexType error.
func UnsupportedIndexTypef(format string, args ...any) *Error {
	return Newf(UnsupportedIndexType, format, args...)
}

// Conflictf builds a Conflict error.
func Conflictf(format string, args ...any) *Error { return Newf(Conflict, format, args...) }

// Internalf builds an Internal error.
func Internalf(format string, args ...any) *Error { return Newf(Internal, format, args...) }

// KindOf extracts the Kind from err, returning ("", false) if err is not a
// *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
