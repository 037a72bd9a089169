package triplestore

import (
	"fmt"

	"github.com/nshkrdotcom/triplestore-go/internal/index"
	"github.com/nshkrdotcom/triplestore-go/internal/pattern"
	"github.com/nshkrdotcom/triplestore-go/pkg/rdf"
)

// Pattern is a triple pattern at the RDF-term level: a nil position is
// free (a wildcard); a non-nil position is bound to that exact term.
type Pattern struct {
	Subject   rdf.Term
	Predicate rdf.Term
	Object    rdf.Term
}

// IndexName identifies one of the three triple orderings the index layer
// maintains.
type IndexName = pattern.Index

const (
	IndexSPO = pattern.SPO
	IndexPOS = pattern.POS
	IndexOSP = pattern.OSP
)

// KeyToTriple decodes a raw 24-byte index key (as returned by a lower
// layer consumer walking the engine directly) back to an rdf.Triple,
// regardless of which of the three families idx names.
func (s *Store) KeyToTriple(idx IndexName, key []byte) (rdf.Triple, error) {
	t, err := index.KeyToTriple(idx, key)
	if err != nil {
		return rdf.Triple{}, err
	}
	return s.decodeTriple(t)
}

// idPattern resolves pat's bound terms to IDs via LookupID (never
// allocating). ok is false if a bound term was never allocated — the
// pattern then cannot match anything, and the caller should return an
// empty result without touching the index.
func (s *Store) idPattern(pat Pattern) (ip pattern.Pattern, ok bool, err error) {
	ip.S, ok, err = s.resolvePosition(pat.Subject)
	if err != nil || !ok {
		return ip, ok, err
	}
	ip.P, ok, err = s.resolvePosition(pat.Predicate)
	if err != nil || !ok {
		return ip, ok, err
	}
	ip.O, ok, err = s.resolvePosition(pat.Object)
	if err != nil || !ok {
		return ip, ok, err
	}
	return ip, true, nil
}

func (s *Store) resolvePosition(term rdf.Term) (pattern.Term, bool, error) {
	if term == nil {
		return pattern.Free, true, nil
	}
	id, found, err := s.dict.LookupID(term)
	if err != nil {
		return pattern.Term{}, false, err
	}
	if !found {
		return pattern.Term{}, false, nil
	}
	return pattern.BoundTerm(id), true, nil
}

// Cursor is a lazy, non-restartable sequence of rdf.Triples produced by
// Store.Lookup. Each result is resolved from the underlying ID-level
// index.Cursor through the dictionary as the caller advances it.
type Cursor struct {
	store *Store
	inner *index.Cursor
	empty bool

	current rdf.Triple
	err     error
}

// Next advances the cursor to the next matching triple, resolving its
// three IDs back to RDF terms. It returns false once the underlying scan
// is exhausted, the cursor has been closed, or a resolution error
// occurred (check Err in that case).
func (c *Cursor) Next() bool {
	if c.empty || c.err != nil {
		return false
	}
	if !c.inner.Next() {
		if err := c.inner.Err(); err != nil {
			c.err = err
		}
		return false
	}
	t := c.inner.Triple()
	triple, err := c.store.decodeTriple(t)
	if err != nil {
		c.err = err
		return false
	}
	c.current = triple
	return true
}

// Triple returns the triple at the cursor's current position. Only valid
// after a call to Next that returned true.
func (c *Cursor) Triple() rdf.Triple { return c.current }

// Err returns the first error encountered while advancing the cursor, if
// any.
func (c *Cursor) Err() error { return c.err }

// Close releases the cursor's underlying iterator. Safe to call more
// than once and before the sequence is exhausted.
func (c *Cursor) Close() error {
	if c.inner == nil {
		return nil
	}
	return c.inner.Close()
}

func (s *Store) decodeTriple(t index.Triple) (rdf.Triple, error) {
	subj, found, err := s.dict.LookupTerm(t.S)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("triplestore: decode subject %d: %w", t.S, err)
	}
	if !found {
		return rdf.Triple{}, fmt.Errorf("triplestore: subject id %d has no term", t.S)
	}
	pred, found, err := s.dict.LookupTerm(t.P)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("triplestore: decode predicate %d: %w", t.P, err)
	}
	if !found {
		return rdf.Triple{}, fmt.Errorf("triplestore: predicate id %d has no term", t.P)
	}
	obj, found, err := s.dict.LookupTerm(t.O)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("triplestore: decode object %d: %w", t.O, err)
	}
	if !found {
		return rdf.Triple{}, fmt.Errorf("triplestore: object id %d has no term", t.O)
	}
	return rdf.NewTriple(subj, pred, obj), nil
}

// Lookup opens a lazy sequence of every triple matching pat. If pat binds
// a term that was never allocated, the pattern cannot match anything and
// an already-exhausted Cursor is returned rather than touching the
// index.
func (s *Store) Lookup(pat Pattern) (*Cursor, error) {
	ip, ok, err := s.idPattern(pat)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Cursor{store: s, empty: true}, nil
	}
	inner, err := s.idx.Lookup(ip)
	if err != nil {
		return nil, err
	}
	return &Cursor{store: s, inner: inner}, nil
}

// LookupAll materialises every triple matching pat into a slice.
func (s *Store) LookupAll(pat Pattern) ([]rdf.Triple, error) {
	cur, err := s.Lookup(pat)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	var out []rdf.Triple
	for cur.Next() {
		out = append(out, cur.Triple())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the cardinality of pat's match set without resolving any
// result's IDs back to terms, by consuming the ID-level index.Cursor
// directly; only pat's bound terms are looked up.
func (s *Store) Count(pat Pattern) (int, error) {
	ip, ok, err := s.idPattern(pat)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return s.idx.Count(ip)
}
