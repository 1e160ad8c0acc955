// Package apperr defines the failure taxonomy shared by the services and the HTTP layer.
package apperr

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Kind classifies a failure for the purposes of the public API.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
	KindConflict
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error is a failure with a message that is safe to show to API callers.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Validation reports rejected input.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized reports a failed authentication or authorization check.
func Unauthorized(message string) error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// NotFound reports a missing record.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a uniqueness violation.
func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Upstream reports a failing external service. The cause is kept for logging only.
func Upstream(cause error, message string) error {
	return &Error{Kind: KindUpstream, Message: message, cause: cause}
}

// KindOf returns the kind of the first *Error found in the chain, or KindInternal.
func KindOf(err error) Kind {
	var target *Error
	if eris.As(err, &target) {
		return target.Kind
	}
	return KindInternal
}

// MessageOf returns the public message of the first *Error in the chain.
func MessageOf(err error) (string, bool) {
	var target *Error
	if eris.As(err, &target) {
		return target.Message, true
	}
	return "", false
}
