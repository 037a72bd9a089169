package triplestore

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nshkrdotcom/triplestore-go/internal/dictionary"
	"github.com/nshkrdotcom/triplestore-go/internal/index"
	"github.com/nshkrdotcom/triplestore-go/internal/kve"
	"github.com/nshkrdotcom/triplestore-go/internal/telemetry"
	"github.com/nshkrdotcom/triplestore-go/pkg/rdf"
)

// Store binds the key-value engine, dictionary, and index layers behind
// one facade.
type Store struct {
	log    *zap.Logger
	engine *kve.BadgerEngine
	dict   *dictionary.Dictionary
	idx    *index.Index
}

// Open creates the store directory if missing and opens it, the way
// kve.Open does; the dictionary's sequence counters are loaded (and the
// startup safety margin applied) before Open returns.
func Open(path string, opts ...Option) (*Store, error) {
	o := buildOptions(opts)
	log := o.Logger.Named("triplestore")

	engine, err := kve.Open(o.badgerOptions(path), o.Logger)
	if err != nil {
		return nil, err
	}

	hook := telemetry.NewZapHook(o.Logger)
	dict, err := dictionary.NewWithConfig(engine, hook, o.SequenceCheckpointInterval, o.SequenceSafetyMargin)
	if err != nil {
		engine.Close()
		return nil, err
	}

	return &Store{
		log:    log,
		engine: engine,
		dict:   dict,
		idx:    index.New(engine, hook),
	}, nil
}

// Close checkpoints the dictionary's sequence counters and closes the
// underlying engine. The engine defers releasing its resources until
// outstanding Cursors are closed, so their index scans stay valid, but
// every dictionary read after Close fails with ErrAlreadyClosed: a Cursor
// advanced after Close stops and reports that error (wrapped) from Err.
func (s *Store) Close() error {
	if err := s.dict.Checkpoint(); err != nil {
		s.log.Error("error checkpointing sequence counters on close", zap.Error(err))
	}
	return s.engine.Close()
}

// GetOrCreateID resolves term to its allocated or inline ID, minting a
// new allocation if term has never been seen.
func (s *Store) GetOrCreateID(term rdf.Term) (uint64, error) {
	return s.dict.GetOrCreateID(term)
}

// GetOrCreateIDs is the batch form of GetOrCreateID; it short-circuits
// and returns on the first error.
func (s *Store) GetOrCreateIDs(terms []rdf.Term) ([]uint64, error) {
	return s.dict.GetOrCreateIDs(terms)
}

// LookupID returns term's existing ID without allocating one.
func (s *Store) LookupID(term rdf.Term) (id uint64, found bool, err error) {
	return s.dict.LookupID(term)
}

// LookupIDs is the batch form of LookupID.
func (s *Store) LookupIDs(terms []rdf.Term) (ids []uint64, founds []bool, err error) {
	return s.dict.LookupIDs(terms)
}

// LookupTerm resolves id back to the term it was allocated to (or
// decodes it directly, for an inline numeric/temporal ID).
func (s *Store) LookupTerm(id uint64) (term rdf.Term, found bool, err error) {
	return s.dict.LookupTerm(id)
}

// LookupTerms is the batch form of LookupTerm.
func (s *Store) LookupTerms(ids []uint64) (terms []rdf.Term, founds []bool, err error) {
	return s.dict.LookupTerms(ids)
}

// InsertTriple dictionary-encodes t's three terms (allocating new IDs as
// needed) and inserts the resulting ID triple into all three index
// families atomically.
func (s *Store) InsertTriple(t rdf.Triple) error {
	sID, pID, oID, err := s.encode(t)
	if err != nil {
		return err
	}
	return s.idx.InsertTriple(sID, pID, oID)
}

// InsertTriples encodes and inserts every triple in ts, packing all of
// their index writes into a single atomic batch.
func (s *Store) InsertTriples(ts []rdf.Triple) error {
	triples, err := s.encodeAll(ts)
	if err != nil {
		return err
	}
	return s.idx.InsertTriples(triples)
}

// DeleteTriple removes t from the store. If any of t's terms were never
// allocated, t cannot exist and this is a no-op, matching the "deleting
// an absent triple is not an error" contract.
func (s *Store) DeleteTriple(t rdf.Triple) error {
	sID, pID, oID, found, err := s.lookupTripleIDs(t)
	if err != nil || !found {
		return err
	}
	return s.idx.DeleteTriple(sID, pID, oID)
}

// DeleteTriples deletes every triple in ts whose terms are all allocated,
// in one atomic batch; triples with an unallocated term are skipped (they
// cannot exist in the store).
func (s *Store) DeleteTriples(ts []rdf.Triple) error {
	var triples []index.Triple
	for _, t := range ts {
		sID, pID, oID, found, err := s.lookupTripleIDs(t)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		triples = append(triples, index.Triple{S: sID, P: pID, O: oID})
	}
	if len(triples) == 0 {
		return nil
	}
	return s.idx.DeleteTriples(triples)
}

// TripleExists reports whether t is present in the store.
func (s *Store) TripleExists(t rdf.Triple) (bool, error) {
	sID, pID, oID, found, err := s.lookupTripleIDs(t)
	if err != nil || !found {
		return false, err
	}
	return s.idx.TripleExists(sID, pID, oID)
}

func (s *Store) encode(t rdf.Triple) (sID, pID, oID uint64, err error) {
	sID, err = s.dict.GetOrCreateID(t.Subject)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("triplestore: encode subject: %w", err)
	}
	pID, err = s.dict.GetOrCreateID(t.Predicate)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("triplestore: encode predicate: %w", err)
	}
	oID, err = s.dict.GetOrCreateID(t.Object)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("triplestore: encode object: %w", err)
	}
	return sID, pID, oID, nil
}

func (s *Store) encodeAll(ts []rdf.Triple) ([]index.Triple, error) {
	out := make([]index.Triple, 0, len(ts))
	for _, t := range ts {
		sID, pID, oID, err := s.encode(t)
		if err != nil {
			return nil, err
		}
		out = append(out, index.Triple{S: sID, P: pID, O: oID})
	}
	return out, nil
}

// lookupTripleIDs resolves t's three terms without allocating. found is
// false (with a nil error) if any term was never allocated, meaning t
// cannot be present in the store.
func (s *Store) lookupTripleIDs(t rdf.Triple) (sID, pID, oID uint64, found bool, err error) {
	sID, ok, err := s.dict.LookupID(t.Subject)
	if err != nil || !ok {
		return 0, 0, 0, false, err
	}
	pID, ok, err = s.dict.LookupID(t.Predicate)
	if err != nil || !ok {
		return 0, 0, 0, false, err
	}
	oID, ok, err = s.dict.LookupID(t.Object)
	if err != nil || !ok {
		return 0, 0, 0, false, err
	}
	return sID, pID, oID, true, nil
}
