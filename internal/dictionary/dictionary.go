package dictionary

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/nshkrdotcom/triplestore-go/internal/coreerr"
	"github.com/nshkrdotcom/triplestore-go/internal/kve"
	"github.com/nshkrdotcom/triplestore-go/internal/telemetry"
	"github.com/nshkrdotcom/triplestore-go/pkg/rdf"
)

// Dictionary is the bijective term<->ID mapping: it validates and
// normalizes terms, tries the inline numeric/temporal codecs first, and
// falls through to a persisted, sequence-numbered allocation coordinated
// across concurrent callers by a singleflight.Group so that two
// goroutines racing to allocate the same new term always converge on one
// ID.
type Dictionary struct {
	engine kve.Engine
	seqMgr *SequenceManager
	hook   telemetry.Hook
	sf     singleflight.Group
	cache  *termCache
}

// New builds a Dictionary over engine, loading each type's sequence
// counter with the default checkpoint interval and safety margin. hook
// may be nil (telemetry.NopHook is used).
func New(engine kve.Engine, hook telemetry.Hook) (*Dictionary, error) {
	return NewWithConfig(engine, hook, 0, 0)
}

// NewWithConfig is New with the sequence checkpoint interval and startup
// safety margin overridden; a zero value for either falls back to its
// default of 1000.
func NewWithConfig(engine kve.Engine, hook telemetry.Hook, checkpointEvery, safetyMargin uint64) (*Dictionary, error) {
	if hook == nil {
		hook = telemetry.NopHook{}
	}
	seqMgr, err := NewSequenceManagerWithConfig(engine, hook, checkpointEvery, safetyMargin)
	if err != nil {
		return nil, err
	}
	return &Dictionary{
		engine: engine,
		seqMgr: seqMgr,
		hook:   hook,
		cache:  newTermCache(defaultCacheCapacity),
	}, nil
}

// Checkpoint persists every sequence counter; call during a graceful
// shutdown.
func (d *Dictionary) Checkpoint() error {
	return d.seqMgr.Checkpoint()
}

// LookupID returns the ID already allocated to term, if any. found is
// false (with a nil error) when term has never been allocated.
func (d *Dictionary) LookupID(term rdf.Term) (id uint64, found bool, err error) {
	if err := ValidateTerm(term); err != nil {
		return 0, false, err
	}
	norm := NormalizeTerm(term)

	if lit, ok := norm.(*rdf.Literal); ok {
		if inlineID, ok2, err := tryInlineEncode(lit); err != nil {
			return 0, false, err
		} else if ok2 {
			return inlineID, true, nil
		}
	}

	key := serializeTerm(norm)
	if cached, ok := d.cache.get(key); ok {
		return cached, true, nil
	}

	v, err := d.engine.Get(kve.CFStr2ID, key)
	if err == kve.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	gotID, err := decodeIDValue(v)
	if err != nil {
		return 0, false, err
	}
	d.cache.put(key, gotID)
	return gotID, true, nil
}

// LookupTerm returns the term that id was allocated to, or resolves it
// directly if id is an inline numeric/temporal ID. found is false (with a
// nil error) when id was never allocated.
func (d *Dictionary) LookupTerm(id uint64) (term rdf.Term, found bool, err error) {
	if IsInline(id) {
		t, err := inlineIDToTerm(id)
		if err != nil {
			return nil, false, err
		}
		return t, true, nil
	}
	if !IsAllocated(id) {
		d.hook.CorruptID(id, "lookup_term")
		return nil, false, coreerr.New(coreerr.KindCorruptID, fmt.Sprintf("id %d has unrecognised tag", id))
	}

	key := idKey(id)
	v, err := d.engine.Get(kve.CFID2Str, key)
	if err == kve.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	t, err := deserializeTerm(v)
	if err != nil {
		d.hook.CorruptID(id, "deserialize_term")
		return nil, false, err
	}
	return t, true, nil
}

// GetOrCreateID returns term's existing ID, or allocates and persists a
// new one. Concurrent calls for the same not-yet-allocated term coalesce
// onto a single allocation via singleflight, so they always observe the
// same resulting ID.
func (d *Dictionary) GetOrCreateID(term rdf.Term) (uint64, error) {
	if err := ValidateTerm(term); err != nil {
		return 0, err
	}
	norm := NormalizeTerm(term)

	if lit, ok := norm.(*rdf.Literal); ok {
		if inlineID, ok2, err := tryInlineEncode(lit); err != nil {
			return 0, err
		} else if ok2 {
			return inlineID, nil
		}
	}

	key := serializeTerm(norm)
	if cached, ok := d.cache.get(key); ok {
		return cached, nil
	}

	if v, err := d.engine.Get(kve.CFStr2ID, key); err == nil {
		gotID, err := decodeIDValue(v)
		if err != nil {
			return 0, err
		}
		d.cache.put(key, gotID)
		return gotID, nil
	} else if err != kve.ErrNotFound {
		return 0, err
	}

	result, err, _ := d.sf.Do(string(key), func() (interface{}, error) {
		return d.allocate(norm, key)
	})
	if err != nil {
		return 0, err
	}
	return result.(uint64), nil
}

// allocate performs the actual term allocation, re-checking for a
// concurrent winner before minting a new sequence number. It runs inside
// the singleflight group, so at most one goroutine executes it per key at
// a time.
func (d *Dictionary) allocate(norm rdf.Term, key []byte) (uint64, error) {
	if v, err := d.engine.Get(kve.CFStr2ID, key); err == nil {
		return decodeIDValue(v)
	} else if err != kve.ErrNotFound {
		return 0, err
	}

	tag := allocatedTagFor(norm)
	if tag == TagUnknown {
		return 0, coreerr.New(coreerr.KindCorruptID, fmt.Sprintf("unrecognised term type %T", norm))
	}

	seq, err := d.seqMgr.Next(tag)
	if err != nil {
		return 0, err
	}
	id := EncodeID(tag, seq)
	idB := idKey(id)
	termBytes := serializeTerm(norm)

	ops := []kve.Op{
		kve.PutOp(kve.CFStr2ID, key, idB),
		kve.PutOp(kve.CFID2Str, idB, termBytes),
	}
	if err := d.engine.WriteBatch(ops); err != nil {
		return 0, fmt.Errorf("dictionary: persist allocation for %s: %w", tag, err)
	}
	d.cache.put(key, id)
	return id, nil
}

func decodeIDValue(v []byte) (uint64, error) {
	if len(v) != 8 {
		return 0, coreerr.New(coreerr.KindCorruptID, fmt.Sprintf("str2id value has length %d, want 8", len(v)))
	}
	return binary.BigEndian.Uint64(v), nil
}

// GetOrCreateIDs allocates IDs for terms in order, returning as many
// results as were successfully processed before the first fatal error.
func (d *Dictionary) GetOrCreateIDs(terms []rdf.Term) ([]uint64, error) {
	ids := make([]uint64, 0, len(terms))
	for _, t := range terms {
		id, err := d.GetOrCreateID(t)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// LookupIDs resolves each term to its ID if allocated; a term with no
// allocation produces a false in founds at the same index.
func (d *Dictionary) LookupIDs(terms []rdf.Term) (ids []uint64, founds []bool, err error) {
	ids = make([]uint64, 0, len(terms))
	founds = make([]bool, 0, len(terms))
	for _, t := range terms {
		id, found, err := d.LookupID(t)
		if err != nil {
			return ids, founds, err
		}
		ids = append(ids, id)
		founds = append(founds, found)
	}
	return ids, founds, nil
}

// LookupTerms resolves each ID to its term if allocated; an ID with no
// allocation produces a false in founds at the same index.
func (d *Dictionary) LookupTerms(ids []uint64) (terms []rdf.Term, founds []bool, err error) {
	terms = make([]rdf.Term, 0, len(ids))
	founds = make([]bool, 0, len(ids))
	for _, id := range ids {
		t, found, err := d.LookupTerm(id)
		if err != nil {
			return terms, founds, err
		}
		terms = append(terms, t)
		founds = append(founds, found)
	}
	return terms, founds, nil
}
