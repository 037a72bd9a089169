// Package index maintains the three per-ordering column families (SPO,
// POS, OSP) that store dictionary-encoded triples as fixed-width 24-byte
// keys with empty values. It issues atomic cross-index insert/delete and
// answers pattern scans by delegating index/prefix selection to
// internal/pattern.
package index

import (
	"encoding/binary"
	"fmt"

	"github.com/nshkrdotcom/triplestore-go/internal/coreerr"
	"github.com/nshkrdotcom/triplestore-go/internal/pattern"
)

// Triple is an ordered (subject, predicate, object) of dictionary term
// IDs; identity is the triple of IDs, not of the lexical terms behind
// them.
type Triple struct {
	S, P, O uint64
}

// keyLen is the fixed size of every index key: three 8-byte big-endian
// IDs concatenated in the index's order.
const keyLen = 24

func putBE(buf []byte, off int, v uint64) {
	binary.BigEndian.PutUint64(buf[off:off+8], v)
}

// SPOKey builds the SPO family's key: s||p||o.
func SPOKey(s, p, o uint64) []byte {
	buf := make([]byte, keyLen)
	putBE(buf, 0, s)
	putBE(buf, 8, p)
	putBE(buf, 16, o)
	return buf
}

// POSKey builds the POS family's key: p||o||s.
func POSKey(s, p, o uint64) []byte {
	buf := make([]byte, keyLen)
	putBE(buf, 0, p)
	putBE(buf, 8, o)
	putBE(buf, 16, s)
	return buf
}

// OSPKey builds the OSP family's key: o||s||p.
func OSPKey(s, p, o uint64) []byte {
	buf := make([]byte, keyLen)
	putBE(buf, 0, o)
	putBE(buf, 8, s)
	putBE(buf, 16, p)
	return buf
}

func keyFor(idx pattern.Index, s, p, o uint64) []byte {
	switch idx {
	case pattern.POS:
		return POSKey(s, p, o)
	case pattern.OSP:
		return OSPKey(s, p, o)
	default:
		return SPOKey(s, p, o)
	}
}

// KeyToTriple decodes a raw index key back to the canonical (s,p,o)
// order, regardless of which index the key came from. It returns
// invalid_key if the key isn't exactly 24 bytes.
func KeyToTriple(idx pattern.Index, key []byte) (Triple, error) {
	if len(key) != keyLen {
		return Triple{}, coreerr.New(coreerr.KindInvalidKey, fmt.Sprintf("index key has length %d, want %d", len(key), keyLen))
	}
	a := binary.BigEndian.Uint64(key[0:8])
	b := binary.BigEndian.Uint64(key[8:16])
	c := binary.BigEndian.Uint64(key[16:24])
	switch idx {
	case pattern.SPO:
		return Triple{S: a, P: b, O: c}, nil
	case pattern.POS:
		return Triple{P: a, O: b, S: c}, nil
	case pattern.OSP:
		return Triple{O: a, S: b, P: c}, nil
	default:
		return Triple{}, coreerr.New(coreerr.KindInvalidKey, fmt.Sprintf("unrecognised index %v", idx))
	}
}
