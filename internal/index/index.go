package index

import (
	"fmt"

	"github.com/nshkrdotcom/triplestore-go/internal/kve"
	"github.com/nshkrdotcom/triplestore-go/internal/pattern"
	"github.com/nshkrdotcom/triplestore-go/internal/telemetry"
)

// Index maintains the SPO/POS/OSP column families over a kve.Engine,
// keeping the triangle invariant: a triple is either present in all
// three or absent from all three.
type Index struct {
	engine kve.Engine
	hook   telemetry.Hook
}

// New wraps engine as an Index. engine is assumed already open. hook
// may be nil (telemetry.NopHook is used).
func New(engine kve.Engine, hook telemetry.Hook) *Index {
	if hook == nil {
		hook = telemetry.NopHook{}
	}
	return &Index{engine: engine, hook: hook}
}

func cfFor(idx pattern.Index) kve.ColumnFamily {
	switch idx {
	case pattern.POS:
		return kve.CFPOS
	case pattern.OSP:
		return kve.CFOSP
	default:
		return kve.CFSPO
	}
}

// InsertTriple issues a single atomic batch writing (s,p,o) to all three
// index families. Re-inserting an existing triple is a no-op write of the
// same keys, not an error.
func (ix *Index) InsertTriple(s, p, o uint64) error {
	return ix.InsertTriples([]Triple{{S: s, P: p, O: o}})
}

// InsertTriples packs every triple's three index writes into one batch,
// so either all triples are inserted or none are.
func (ix *Index) InsertTriples(triples []Triple) error {
	emptyValue := []byte{}
	ops := make([]kve.Op, 0, 3*len(triples))
	for _, t := range triples {
		ops = append(ops,
			kve.PutOp(kve.CFSPO, SPOKey(t.S, t.P, t.O), emptyValue),
			kve.PutOp(kve.CFPOS, POSKey(t.S, t.P, t.O), emptyValue),
			kve.PutOp(kve.CFOSP, OSPKey(t.S, t.P, t.O), emptyValue),
		)
	}
	if err := ix.engine.WriteBatch(ops); err != nil {
		return fmt.Errorf("index: insert %d triples: %w", len(triples), err)
	}
	return nil
}

// DeleteTriple removes (s,p,o) from all three index families in one
// atomic batch. Deleting an absent triple is not an error.
func (ix *Index) DeleteTriple(s, p, o uint64) error {
	return ix.DeleteTriples([]Triple{{S: s, P: p, O: o}})
}

// DeleteTriples packs every triple's three index deletes into one batch.
func (ix *Index) DeleteTriples(triples []Triple) error {
	ops := make([]kve.Op, 0, 3*len(triples))
	for _, t := range triples {
		ops = append(ops,
			kve.DeleteOp(kve.CFSPO, SPOKey(t.S, t.P, t.O)),
			kve.DeleteOp(kve.CFPOS, POSKey(t.S, t.P, t.O)),
			kve.DeleteOp(kve.CFOSP, OSPKey(t.S, t.P, t.O)),
		)
	}
	if err := ix.engine.WriteBatch(ops); err != nil {
		return fmt.Errorf("index: delete %d triples: %w", len(triples), err)
	}
	return nil
}

// TripleExists reports whether (s,p,o) is present, using the engine's
// existence fast path against SPO.
func (ix *Index) TripleExists(s, p, o uint64) (bool, error) {
	ok, err := ix.engine.Exists(kve.CFSPO, SPOKey(s, p, o))
	if err != nil {
		return false, fmt.Errorf("index: triple_exists: %w", err)
	}
	return ok, nil
}

// Lookup opens a lazy, non-restartable scan over every triple matching
// pat, per the plan internal/pattern selects. The returned Cursor holds
// the underlying prefix iterator's resources until it is exhausted or
// explicitly closed.
func (ix *Index) Lookup(pat pattern.Pattern) (*Cursor, error) {
	plan := pattern.SelectIndex(pat)
	it, err := ix.engine.PrefixIterator(cfFor(plan.Index), plan.Prefix)
	if err != nil {
		return nil, fmt.Errorf("index: lookup: %w", err)
	}
	return &Cursor{it: it, hook: ix.hook, index: plan.Index, filter: plan.Filter, pattern: pat}, nil
}

// LookupAll materialises every triple matching pat into a slice.
func (ix *Index) LookupAll(pat pattern.Pattern) ([]Triple, error) {
	cur, err := ix.Lookup(pat)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	var out []Triple
	for cur.Next() {
		out = append(out, cur.Triple())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the cardinality of pat's match set by consuming the lazy
// sequence without materialising tuples.
func (ix *Index) Count(pat pattern.Pattern) (int, error) {
	cur, err := ix.Lookup(pat)
	if err != nil {
		return 0, err
	}
	defer cur.Close()

	n := 0
	for cur.Next() {
		n++
	}
	if err := cur.Err(); err != nil {
		return 0, err
	}
	return n, nil
}
