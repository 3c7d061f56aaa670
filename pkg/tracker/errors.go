package tracker

import (
	"errors"
	"fmt"
	"net"
)

// ErrorClass classifies a remote failure by whether retrying may help.
type ErrorClass int

const (
	// ClassRetryable indicates a transient failure (network, timeout,
	// rate limit, server error).
	ClassRetryable ErrorClass = iota
	// ClassFatal indicates a failure retrying will not fix (validation,
	// permission, not found).
	ClassFatal
)

func (c ErrorClass) String() string {
	if c == ClassRetryable {
		return "retryable"
	}
	return "fatal"
}

// Error is a structured remote-tracker error with a retry classification.
type Error struct {
	Class   ErrorClass
	Op      string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error has the same classification as target
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class
}

// NewRetryableError creates a transient error eligible for retry.
func NewRetryableError(op, message string, cause error) *Error {
	return &Error{Class: ClassRetryable, Op: op, Message: message, Cause: cause}
}

// NewFatalError creates a non-transient error that must not be retried.
func NewFatalError(op, message string, cause error) *Error {
	return &Error{Class: ClassFatal, Op: op, Message: message, Cause: cause}
}

// IsRetryable reports whether err is a tracker error of the retryable class.
func IsRetryable(err error) bool {
	var terr *Error
	if errors.As(err, &terr) {
		return terr.Class == ClassRetryable
	}
	return false
}

// ClassifyStatus maps an HTTP status code to an error class. Rate limits and
// server errors are worth retrying; other client errors are not.
func ClassifyStatus(status int) ErrorClass {
	switch {
	case status == 429:
		return ClassRetryable
	case status >= 500:
		return ClassRetryable
	default:
		return ClassFatal
	}
}

// FromHTTPError wraps a failed request using the response status code when
// one is available. Transport-level failures (no response) count as
// retryable network errors.
func FromHTTPError(op string, status int, cause error) *Error {
	if status == 0 {
		var netErr net.Error
		if errors.As(cause, &netErr) {
			return NewRetryableError(op, "network error", cause)
		}
		return NewRetryableError(op, "request failed before a response was received", cause)
	}

	msg := fmt.Sprintf("unexpected status %d", status)
	if ClassifyStatus(status) == ClassRetryable {
		return NewRetryableError(op, msg, cause)
	}
	return NewFatalError(op, msg, cause)
}
