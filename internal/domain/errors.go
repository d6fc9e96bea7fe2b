package domain

import (
	"errors"
	"fmt"
)

// Failure kinds. Every user-facing error wraps exactly one of them.
var (
	ErrMissingArgument = errors.New("missing argument")
	ErrNoMatch         = errors.New("no match")
	ErrAmbiguous       = errors.New("ambiguous")
	ErrTrailingInput   = errors.New("trailing input")
	ErrCapacity        = errors.New("capacity exceeded")
	ErrNotFound        = errors.New("activity not found")
	ErrValidation      = errors.New("validation failed")
)

// Error is a command failure with a message meant for the chat user.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Errorf builds an *Error of the given kind.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the failure kind of err, or nil when err is not a command failure.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}

// KindName is the stable identifier of a failure kind, used in API payloads and audit events.
func KindName(kind error) string {
	switch kind {
	case ErrMissingArgument:
		return "missing_argument"
	case ErrNoMatch:
		return "no_match"
	case ErrAmbiguous:
		return "ambiguous"
	case ErrTrailingInput:
		return "trailing_input"
	case ErrCapacity:
		return "capacity"
	case ErrNotFound:
		return "not_found"
	case ErrValidation:
		return "validation"
	default:
		return "internal"
	}
}
