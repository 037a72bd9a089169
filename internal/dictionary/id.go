// Package dictionary implements the bijective mapping between RDF terms
// and 64-bit tagged term IDs: ID encoding, the inline numeric/temporal
// codecs, term validation, the per-type sequence counter, and the
// get-or-create allocation protocol.
package dictionary

import "github.com/nshkrdotcom/triplestore-go/pkg/rdf"

// Tag is the high 4 bits of a term ID.
type Tag byte

const (
	TagUnknown Tag = iota
	TagURI
	TagBlankNode
	TagLiteral
	TagInteger
	TagDecimal
	TagDateTime
)

func (t Tag) String() string {
	switch t {
	case TagURI:
		return "uri"
	case TagBlankNode:
		return "blank"
	case TagLiteral:
		return "literal"
	case TagInteger:
		return "integer"
	case TagDecimal:
		return "decimal"
	case TagDateTime:
		return "datetime"
	default:
		return "unknown"
	}
}

const (
	valueBits = 60
	valueMask = uint64(1)<<valueBits - 1 // 0x0FFF_FFFF_FFFF_FFFF
)

// MaxSequence is the highest sequence number a dictionary-allocated type
// may hand out: 2^59 - 1.
const MaxSequence = uint64(1)<<59 - 1

// EncodeID packs tag (4 bits) and value (60 bits) into a single term ID.
// value is masked to 60 bits; callers that need overflow detection must
// check the range before calling this.
func EncodeID(tag Tag, value uint64) uint64 {
	return uint64(tag)<<valueBits | (value & valueMask)
}

// DecodeID splits a term ID back into its tag and 60-bit value.
func DecodeID(id uint64) (Tag, uint64) {
	return Tag(id >> valueBits), id & valueMask
}

// TypeOf returns the tag component of id.
func TypeOf(id uint64) Tag {
	return Tag(id >> valueBits)
}

// IsInline reports whether id's type is packed inline (integer, decimal,
// or date-time) rather than dictionary-allocated.
func IsInline(id uint64) bool {
	switch TypeOf(id) {
	case TagInteger, TagDecimal, TagDateTime:
		return true
	default:
		return false
	}
}

// IsAllocated reports whether id's type lives in the dictionary (URI,
// blank node, or literal).
func IsAllocated(id uint64) bool {
	switch TypeOf(id) {
	case TagURI, TagBlankNode, TagLiteral:
		return true
	default:
		return false
	}
}

// allocatedTagFor returns the dictionary tag for a term, or TagUnknown if
// term is nil or of an unrecognised concrete type.
func allocatedTagFor(term rdf.Term) Tag {
	switch term.(type) {
	case *rdf.IRI:
		return TagURI
	case *rdf.BlankNode:
		return TagBlankNode
	case *rdf.Literal:
		return TagLiteral
	default:
		return TagUnknown
	}
}
