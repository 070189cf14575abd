// Package errs defines the failure taxonomy shared by the classifier's
// components. Every request either succeeds or fails with exactly one Kind.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies a failure category.
type Kind string

const (
	// FatalStartup means the vocabulary or model artifact is missing,
	// corrupt or inconsistent. The process must not serve.
	FatalStartup Kind = "fatal_startup"
	// Fetch means a remote image could not be retrieved.
	Fetch Kind = "fetch_error"
	// Decode means bytes could not be interpreted as an image.
	Decode Kind = "decode_error"
	// DegenerateScore means the model produced scores that cannot be
	// normalized (zero or non-finite sum).
	DegenerateScore Kind = "degenerate_score"
	// InvalidInput means the caller supplied a malformed request.
	InvalidInput Kind = "invalid_input"
	// Internal covers everything else, e.g. a runtime failure inside the
	// inference session.
	Internal Kind = "internal_error"
)

// AppError carries a Kind alongside a message and the underlying cause.
type AppError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// New returns an AppError without a cause.
func New(kind Kind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an AppError that wraps cause. A nil cause yields nil.
func Wrap(cause error, kind Kind, format string, args ...interface{}) error {
	if cause == nil {
		return nil
	}
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the Kind of the outermost AppError in err's chain, or
// Internal when the chain carries none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
