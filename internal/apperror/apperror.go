// Package apperror classifies the failures that services hand back to the
// transport layer. Callers switch on Kind; they never need a transport type.
package apperror

import (
	"errors"
	"fmt"
)

// Kind is the class of a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindInvalidArgument
	KindTooManyRequests
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindInvalidArgument:
		return "invalid argument"
	case KindTooManyRequests:
		return "too many requests"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Reason is diagnostic text; for
// KindUnauthenticated it must not be shown to clients.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an Error of the given kind.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap returns an Error of the given kind carrying cause. A nil cause is allowed.
func Wrap(kind Kind, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: cause}
}

func Unauthenticated(reason string) error {
	return New(KindUnauthenticated, reason)
}

func Forbidden(reason string) error {
	return New(KindForbidden, reason)
}

func NotFound(reason string) error {
	return New(KindNotFound, reason)
}

func Conflict(reason string) error {
	return New(KindConflict, reason)
}

func InvalidArgument(reason string) error {
	return New(KindInvalidArgument, reason)
}

func TooManyRequests(reason string) error {
	return New(KindTooManyRequests, reason)
}

// KindOf reports the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ReasonOf returns the diagnostic reason of a classified error.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
