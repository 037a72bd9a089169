package triplestore

import (
	"time"

	"github.com/nshkrdotcom/triplestore-go/internal/dictionary"
)

// Tag is the high 4 bits of a term ID, discriminating the six term
// types: dictionary-allocated URIs, blank nodes, and literals, and
// inline integers, decimals, and date-times.
type Tag = dictionary.Tag

const (
	TagURI       = dictionary.TagURI
	TagBlankNode = dictionary.TagBlankNode
	TagLiteral   = dictionary.TagLiteral
	TagInteger   = dictionary.TagInteger
	TagDecimal   = dictionary.TagDecimal
	TagDateTime  = dictionary.TagDateTime
)

// MaxSequence is the highest sequence number a dictionary-allocated
// type may hand out.
const MaxSequence = dictionary.MaxSequence

// Decimal is the sign/exponent/mantissa form the inline decimal codec
// packs into a term ID: value = sign * mantissa * 10^exponent.
type Decimal = dictionary.Decimal

// EncodeID packs a tag and a 60-bit value into a term ID.
func EncodeID(tag Tag, value uint64) uint64 { return dictionary.EncodeID(tag, value) }

// DecodeID splits a term ID back into its tag and 60-bit value.
func DecodeID(id uint64) (Tag, uint64) { return dictionary.DecodeID(id) }

// TypeOf returns the tag component of id.
func TypeOf(id uint64) Tag { return dictionary.TypeOf(id) }

// IsInline reports whether id's value is packed inline (integer,
// decimal, or date-time) rather than dictionary-allocated.
func IsInline(id uint64) bool { return dictionary.IsInline(id) }

// IsAllocated reports whether id's type lives in the dictionary (URI,
// blank node, or literal).
func IsAllocated(id uint64) bool { return dictionary.IsAllocated(id) }

// EncodeInteger packs n into an inline integer ID, or reports
// out_of_range if n needs more than 60 bits two's complement; callers
// fall back to dictionary allocation as a typed literal in that case.
func EncodeInteger(n int64) (uint64, error) { return dictionary.EncodeInteger(n) }

// DecodeInteger is the inverse of EncodeInteger.
func DecodeInteger(id uint64) (int64, error) { return dictionary.DecodeInteger(id) }

// EncodeDecimal packs d into an inline decimal ID, or reports
// out_of_range if the mantissa needs more than 48 bits or the biased
// exponent falls outside its 11-bit range.
func EncodeDecimal(d Decimal) (uint64, error) { return dictionary.EncodeDecimal(d) }

// DecodeDecimal is the inverse of EncodeDecimal.
func DecodeDecimal(id uint64) (Decimal, error) { return dictionary.DecodeDecimal(id) }

// EncodeDateTime packs t's UTC Unix millisecond count into an inline
// date-time ID. Pre-epoch timestamps are out of range; sub-millisecond
// precision is lost.
func EncodeDateTime(t time.Time) (uint64, error) { return dictionary.EncodeDateTime(t) }

// DecodeDateTime returns the UTC time corresponding to id's
// millisecond payload.
func DecodeDateTime(id uint64) (time.Time, error) { return dictionary.DecodeDateTime(id) }
