// Package pattern implements a pure, stateless triple-pattern selector:
// given which of subject/predicate/object are bound, it picks the index
// and byte prefix a scan should use and whether a residual filter must
// be applied after decoding. It does no I/O and allocates nothing beyond
// the returned Plan.
package pattern

import "encoding/binary"

// Index names one of the three triple orderings the index layer
// maintains.
type Index byte

const (
	SPO Index = iota
	POS
	OSP
)

func (idx Index) String() string {
	switch idx {
	case SPO:
		return "spo"
	case POS:
		return "pos"
	case OSP:
		return "osp"
	default:
		return "unknown"
	}
}

// Filter names a residual check the scan must apply to each decoded
// triple after the prefix match, because no index orders that shape's
// bound positions contiguously.
type Filter byte

const (
	FilterNone Filter = iota
	// FilterPredicate is used by the S?O shape: OSP orders (o,s,p), so a
	// prefix on (o,s) still ranges over every predicate; the caller must
	// drop triples whose predicate doesn't match.
	FilterPredicate
)

// Term is one position of a Pattern: either bound to a specific term ID,
// or free (a wildcard).
type Term struct {
	IsBound bool
	ID      uint64
}

// BoundTerm returns a bound pattern position for id.
func BoundTerm(id uint64) Term { return Term{IsBound: true, ID: id} }

// Free is the wildcard pattern position.
var Free = Term{}

// Pattern is a triple pattern: each of S, P, O is either bound to a term
// ID or free.
type Pattern struct {
	S, P, O Term
}

// Plan is the selector's output: which index to scan, the byte prefix to
// seek to, and an optional residual filter the caller must apply to each
// decoded triple.
type Plan struct {
	Index  Index
	Prefix []byte
	Filter Filter
}

func be64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// SelectIndex maps a triple pattern to the index, byte prefix, and
// residual filter a scan should use, covering all eight bound/free
// shapes. It is a pure function: same input always produces the same
// Plan, with no I/O or allocation beyond the returned Plan.
func SelectIndex(p Pattern) Plan {
	switch {
	case p.S.IsBound && p.P.IsBound && p.O.IsBound:
		return Plan{Index: SPO, Prefix: concat(be64(p.S.ID), be64(p.P.ID), be64(p.O.ID))}
	case p.S.IsBound && p.P.IsBound && !p.O.IsBound:
		return Plan{Index: SPO, Prefix: concat(be64(p.S.ID), be64(p.P.ID))}
	case p.S.IsBound && !p.P.IsBound && !p.O.IsBound:
		return Plan{Index: SPO, Prefix: be64(p.S.ID)}
	case !p.S.IsBound && p.P.IsBound && p.O.IsBound:
		return Plan{Index: POS, Prefix: concat(be64(p.P.ID), be64(p.O.ID))}
	case !p.S.IsBound && p.P.IsBound && !p.O.IsBound:
		return Plan{Index: POS, Prefix: be64(p.P.ID)}
	case !p.S.IsBound && !p.P.IsBound && p.O.IsBound:
		return Plan{Index: OSP, Prefix: be64(p.O.ID)}
	case p.S.IsBound && !p.P.IsBound && p.O.IsBound:
		// S?O: no index orders (s,o) contiguously, so OSP's (o,s) prefix
		// still ranges over every predicate; the caller filters on P.
		return Plan{Index: OSP, Prefix: concat(be64(p.O.ID), be64(p.S.ID)), Filter: FilterPredicate}
	default:
		return Plan{Index: SPO, Prefix: nil}
	}
}

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// TripleMatchesPattern reports whether the concrete triple (s,p,o)
// satisfies every bound position of pat. It is used both by the index's
// residual-filter path (for the S?O shape) and by tests that check scan
// results against the pattern that produced them.
func TripleMatchesPattern(s, p, o uint64, pat Pattern) bool {
	if pat.S.IsBound && pat.S.ID != s {
		return false
	}
	if pat.P.IsBound && pat.P.ID != p {
		return false
	}
	if pat.O.IsBound && pat.O.ID != o {
		return false
	}
	return true
}
