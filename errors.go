package triplestore

import (
	"github.com/nshkrdotcom/triplestore-go/internal/coreerr"
	"github.com/nshkrdotcom/triplestore-go/internal/kve"
)

// Kind is the machine-readable error category carried by an *Error.
// Validation, range, sequence-exhaustion and integrity failures are
// returned as (possibly wrapped) *Error values. Engine failures,
// ErrAlreadyClosed, and a stored triple whose ID has no term are returned
// as plain errors with no Kind; no operation currently produces
// KindNotFound, KindAlreadyClosed or KindEngine. Callers should compare
// with errors.Is/KindOf, not error message text.
type Kind = coreerr.Kind

// Error is the structured error type behind every Kind; it carries a Kind
// and, where applicable, a wrapped cause.
type Error = coreerr.Error

const (
	KindTermTooLarge  = coreerr.KindTermTooLarge
	KindNullByteInURI = coreerr.KindNullByteInURI
	KindInvalidUTF8   = coreerr.KindInvalidUTF8

	KindOutOfRange   = coreerr.KindOutOfRange
	KindNotAnInteger = coreerr.KindNotAnInteger
	KindNotADecimal  = coreerr.KindNotADecimal
	KindNotADateTime = coreerr.KindNotADateTime

	KindSequenceOverflow = coreerr.KindSequenceOverflow

	KindCorruptID  = coreerr.KindCorruptID
	KindInvalidKey = coreerr.KindInvalidKey

	KindNotFound      = coreerr.KindNotFound
	KindAlreadyClosed = coreerr.KindAlreadyClosed
	KindEngine        = coreerr.KindEngine
)

// KindOf extracts the Kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	return coreerr.KindOf(err)
}

// ErrAlreadyClosed is returned by any operation requested against a Store
// after Close has been called, even while a Cursor is still open. Such a
// Cursor keeps its index scan but reports this error (wrapped) from Err
// when it next resolves a result's IDs back to terms.
var ErrAlreadyClosed = kve.ErrAlreadyClosed
