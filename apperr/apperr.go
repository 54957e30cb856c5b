// Package apperr defines the error taxonomy shared by the moderation core.
// Handlers map each kind to an HTTP status, services pick the kind and the
// user-facing message.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// Malformed or out-of-bound input the caller can correct.
	KindValidation Kind = iota + 1
	// The requested transition conflicts with current state, e.g. a
	// duplicate claim, flag or verdict.
	KindConflict
	// A referenced entity does not exist.
	KindNotFound
	// The caller lacks the claim or ownership the operation requires.
	KindAuthorization
	// A rank-derived daily quota was exhausted. Messages must state the
	// numeric limit.
	KindRateLimit
	// Storage-layer failure, not actionable by the caller.
	KindDatabase
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Authorization(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

func RateLimit(format string, args ...interface{}) *Error {
	return &Error{Kind: KindRateLimit, Message: fmt.Sprintf(format, args...)}
}

// Database wraps a storage error. The wrapped error is kept for logs, the
// message is what the caller sees.
func Database(message string, err error) *Error {
	return &Error{Kind: KindDatabase, Message: message, Err: err}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HTTPStatus maps an error to the response status. Unknown errors are
// treated as internal.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthorization:
		return http.StatusForbidden
	case KindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
