// Package coreerr defines the structured error taxonomy shared by
// internal/dictionary, internal/index, and the root package so every
// layer returns the same machine-readable error kinds.
package coreerr

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error category. Callers should compare
// against Kind, not against error message text.
type Kind string

const (
	// Validation — raised on the encoding path before any state change.
	KindTermTooLarge  Kind = "term_too_large"
	KindNullByteInURI Kind = "null_byte_in_uri"
	KindInvalidUTF8   Kind = "invalid_utf8"

	// Domain/range.
	KindOutOfRange   Kind = "out_of_range"
	KindNotAnInteger Kind = "not_an_integer"
	KindNotADecimal  Kind = "not_a_decimal"
	KindNotADateTime Kind = "not_a_datetime"

	// Exhaustion.
	KindSequenceOverflow Kind = "sequence_overflow"

	// Integrity.
	KindCorruptID  Kind = "corrupt_id"
	KindInvalidKey Kind = "invalid_key"

	// Lookup.
	KindNotFound Kind = "not_found"

	// Engine.
	KindAlreadyClosed Kind = "already_closed"
	KindEngine        Kind = "engine"
)

// Error is the structured error every fallible core operation returns.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, coreerr.New(kind, "")) match any *Error of the
// same Kind, regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
