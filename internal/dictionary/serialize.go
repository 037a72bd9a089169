package dictionary

import (
	"encoding/binary"
	"fmt"

	"github.com/nshkrdotcom/triplestore-go/internal/coreerr"
	"github.com/nshkrdotcom/triplestore-go/pkg/rdf"
)

// Literal sub-kinds, stored as the second byte of a serialized literal.
const (
	litPlain byte = iota
	litLang
	litTyped
)

// serializeTerm encodes a dictionary-allocated term (IRI, blank node, or
// literal — never an inline numeric/temporal term) to the byte string
// stored as the id2str value and used as the str2id key. term must already
// be NFC-normalized.
func serializeTerm(term rdf.Term) []byte {
	switch t := term.(type) {
	case *rdf.IRI:
		buf := make([]byte, 1+len(t.Value))
		buf[0] = byte(TagURI)
		copy(buf[1:], t.Value)
		return buf
	case *rdf.BlankNode:
		buf := make([]byte, 1+len(t.Label))
		buf[0] = byte(TagBlankNode)
		copy(buf[1:], t.Label)
		return buf
	case *rdf.Literal:
		return serializeLiteral(t)
	default:
		panic(fmt.Sprintf("dictionary: serializeTerm: unrecognised term type %T", term))
	}
}

func serializeLiteral(l *rdf.Literal) []byte {
	switch {
	case l.Language != "":
		buf := make([]byte, 2+2+len(l.Language)+len(l.Value))
		buf[0] = byte(TagLiteral)
		buf[1] = litLang
		binary.BigEndian.PutUint16(buf[2:4], uint16(len(l.Language)))
		n := copy(buf[4:], l.Language)
		copy(buf[4+n:], l.Value)
		return buf
	case l.Datatype != nil:
		buf := make([]byte, 2+2+len(l.Datatype.Value)+len(l.Value))
		buf[0] = byte(TagLiteral)
		buf[1] = litTyped
		binary.BigEndian.PutUint16(buf[2:4], uint16(len(l.Datatype.Value)))
		n := copy(buf[4:], l.Datatype.Value)
		copy(buf[4+n:], l.Value)
		return buf
	default:
		buf := make([]byte, 2+len(l.Value))
		buf[0] = byte(TagLiteral)
		buf[1] = litPlain
		copy(buf[2:], l.Value)
		return buf
	}
}

// deserializeTerm is the inverse of serializeTerm.
func deserializeTerm(b []byte) (rdf.Term, error) {
	if len(b) < 1 {
		return nil, coreerr.New(coreerr.KindCorruptID, "empty serialized term")
	}
	switch Tag(b[0]) {
	case TagURI:
		return rdf.NewIRI(string(b[1:])), nil
	case TagBlankNode:
		return rdf.NewBlankNode(string(b[1:])), nil
	case TagLiteral:
		return deserializeLiteral(b)
	default:
		return nil, coreerr.New(coreerr.KindCorruptID, fmt.Sprintf("unrecognised serialized tag %d", b[0]))
	}
}

func deserializeLiteral(b []byte) (rdf.Term, error) {
	if len(b) < 2 {
		return nil, coreerr.New(coreerr.KindCorruptID, "truncated serialized literal")
	}
	subkind := b[1]
	switch subkind {
	case litPlain:
		return rdf.NewLiteral(string(b[2:])), nil
	case litLang:
		if len(b) < 4 {
			return nil, coreerr.New(coreerr.KindCorruptID, "truncated language-tagged literal")
		}
		n := int(binary.BigEndian.Uint16(b[2:4]))
		if len(b) < 4+n {
			return nil, coreerr.New(coreerr.KindCorruptID, "truncated language tag")
		}
		lang := string(b[4 : 4+n])
		value := string(b[4+n:])
		return rdf.NewLangLiteral(value, lang), nil
	case litTyped:
		if len(b) < 4 {
			return nil, coreerr.New(coreerr.KindCorruptID, "truncated typed literal")
		}
		n := int(binary.BigEndian.Uint16(b[2:4]))
		if len(b) < 4+n {
			return nil, coreerr.New(coreerr.KindCorruptID, "truncated datatype IRI")
		}
		datatype := string(b[4 : 4+n])
		value := string(b[4+n:])
		return rdf.NewTypedLiteral(value, rdf.NewIRI(datatype)), nil
	default:
		return nil, coreerr.New(coreerr.KindCorruptID, fmt.Sprintf("unrecognised literal subkind %d", subkind))
	}
}

// idKey renders a term ID as the fixed 8-byte big-endian key used in
// CFID2Str.
func idKey(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}
