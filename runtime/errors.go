package runtime

import (
	"errors"

	"github.com/justapithecus/hessian/hessian"
)

// SessionErrorKind classifies session failures for outcome determination.
type SessionErrorKind int

const (
	// SessionErrorStream indicates the input could not be read or deframed.
	SessionErrorStream SessionErrorKind = iota
	// SessionErrorDecode indicates a hessian decode error.
	SessionErrorDecode
	// SessionErrorPolicy indicates events could not be delivered.
	SessionErrorPolicy
	// SessionErrorCanceled indicates context cancellation.
	SessionErrorCanceled
)

func (k SessionErrorKind) String() string {
	switch k {
	case SessionErrorStream:
		return "stream"
	case SessionErrorDecode:
		return "decode"
	case SessionErrorPolicy:
		return "policy"
	case SessionErrorCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// SessionError classifies an ingestion failure.
type SessionError struct {
	// Kind is the failure class.
	Kind SessionErrorKind
	// Err is the underlying error.
	Err error
}

func (e *SessionError) Error() string {
	return e.Err.Error()
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func kindOf(err error) (SessionErrorKind, bool) {
	var sessErr *SessionError
	if errors.As(err, &sessErr) {
		return sessErr.Kind, true
	}
	return 0, false
}

// IsPolicyError returns true if the error is a delivery failure.
func IsPolicyError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == SessionErrorPolicy
}

// IsCanceledError returns true if the error is due to context cancellation.
func IsCanceledError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == SessionErrorCanceled
}

// IsStreamError returns true if the error is an input or framing error.
func IsStreamError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == SessionErrorStream
}

// IsDecodeError returns true if the error is a hessian decode error.
func IsDecodeError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == SessionErrorDecode
}

// decodeErrorKind returns the snake_case decode error kind, or "".
func decodeErrorKind(err error) string {
	if k, ok := hessian.KindOf(err); ok {
		return k.String()
	}
	return ""
}
