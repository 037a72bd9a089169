package dictionary

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/nshkrdotcom/triplestore-go/internal/coreerr"
	"github.com/nshkrdotcom/triplestore-go/internal/kve"
	"github.com/nshkrdotcom/triplestore-go/internal/telemetry"
)

// checkpointInterval is how often an in-memory sequence counter is
// persisted to the engine.
const checkpointInterval = 1000

// startupSafetyMargin is added to the last persisted value on load, so
// that IDs allocated in the window between the last checkpoint and an
// unclean shutdown are never reused.
const startupSafetyMargin = 1000

// seqReservedKind is a kind-discriminator byte that never collides with a
// real allocated Tag (which starts at 1), used to namespace the
// persisted-sequence key within CFStr2ID.
const seqReservedKind = 0x00

func sequenceKey(tag Tag) []byte {
	return []byte{seqReservedKind, byte(tag)}
}

// sequence is a single type's atomic, checkpointed allocation counter.
type sequence struct {
	tag     Tag
	counter uint64 // atomic; next value to hand out is counter+1
	warned  uint32 // atomic bool: 1 once SequenceWarning has fired
}

// SequenceManager owns one sequence per dictionary-allocated term type
// (URI, blank node, literal) and checkpoints each to the engine.
type SequenceManager struct {
	engine kve.Engine
	hook   telemetry.Hook
	seqs   map[Tag]*sequence

	checkpointEvery uint64
	safetyMargin    uint64
}

// NewSequenceManager loads the persisted counter for each allocated type,
// applying the default checkpoint interval (1000) and startup safety
// margin (1000), and returns a manager ready to hand out new sequence
// numbers.
func NewSequenceManager(engine kve.Engine, hook telemetry.Hook) (*SequenceManager, error) {
	return NewSequenceManagerWithConfig(engine, hook, checkpointInterval, startupSafetyMargin)
}

// NewSequenceManagerWithConfig is NewSequenceManager with the checkpoint
// interval and startup safety margin overridden; a zero value for either
// falls back to its default. Exposed so the root package's Options can
// tune both per store.
func NewSequenceManagerWithConfig(engine kve.Engine, hook telemetry.Hook, checkpointEvery, safetyMargin uint64) (*SequenceManager, error) {
	if hook == nil {
		hook = telemetry.NopHook{}
	}
	if checkpointEvery == 0 {
		checkpointEvery = checkpointInterval
	}
	if safetyMargin == 0 {
		safetyMargin = startupSafetyMargin
	}
	m := &SequenceManager{
		engine:          engine,
		hook:            hook,
		seqs:            make(map[Tag]*sequence, 3),
		checkpointEvery: checkpointEvery,
		safetyMargin:    safetyMargin,
	}
	for _, tag := range []Tag{TagURI, TagBlankNode, TagLiteral} {
		persisted, err := loadPersistedSequence(engine, tag)
		if err != nil {
			return nil, err
		}
		// The next checkpoint would have happened at most checkpointEvery
		// allocations past the persisted value, so persisted+margin is the
		// first value that cannot have been handed out before a crash.
		// counter holds the last value handed out, so start one below it.
		start := persisted
		if persisted > 0 {
			start += m.safetyMargin - 1
		}
		m.seqs[tag] = &sequence{tag: tag, counter: start}
	}
	return m, nil
}

func loadPersistedSequence(engine kve.Engine, tag Tag) (uint64, error) {
	v, err := engine.Get(kve.CFStr2ID, sequenceKey(tag))
	if err == kve.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("dictionary: load sequence for %s: %w", tag, err)
	}
	if len(v) != 8 {
		return 0, coreerr.New(coreerr.KindCorruptID, fmt.Sprintf("persisted sequence for %s has length %d, want 8", tag, len(v)))
	}
	return binary.BigEndian.Uint64(v), nil
}

// Next allocates the next sequence number for tag, checkpointing to the
// engine whenever the value is a multiple of the configured checkpoint
// interval (checkpointEvery) and reporting
// SequenceWarning/SequenceOverflow via the telemetry hook as capacity is
// approached or exhausted.
func (m *SequenceManager) Next(tag Tag) (uint64, error) {
	s, ok := m.seqs[tag]
	if !ok {
		return 0, coreerr.New(coreerr.KindOutOfRange, fmt.Sprintf("type %s has no sequence", tag))
	}

	next := atomic.AddUint64(&s.counter, 1)
	if next > MaxSequence {
		// Only the first call past the limit sees exactly MaxSequence+1, so
		// the overflow event fires once per type.
		if next == MaxSequence+1 {
			m.hook.SequenceOverflow(tag.String(), MaxSequence)
		}
		return 0, coreerr.New(coreerr.KindSequenceOverflow, fmt.Sprintf("sequence for %s is exhausted at %d", tag, MaxSequence))
	}

	if next*2 >= MaxSequence && atomic.CompareAndSwapUint32(&s.warned, 0, 1) {
		m.hook.SequenceWarning(tag.String(), next, MaxSequence)
	}

	if next%m.checkpointEvery == 0 {
		if err := m.checkpoint(tag, next); err != nil {
			return 0, err
		}
	}
	return next, nil
}

func (m *SequenceManager) checkpoint(tag Tag, value uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, value)
	if err := m.engine.Put(kve.CFStr2ID, sequenceKey(tag), buf); err != nil {
		return fmt.Errorf("dictionary: checkpoint sequence for %s: %w", tag, err)
	}
	return nil
}

// Checkpoint persists every type's current counter value; callers invoke
// this during a graceful shutdown so the next startup's safety margin is
// measured from a fresh checkpoint rather than one up to checkpointEvery
// allocations stale.
func (m *SequenceManager) Checkpoint() error {
	for tag, s := range m.seqs {
		current := atomic.LoadUint64(&s.counter)
		if current == 0 {
			continue
		}
		if err := m.checkpoint(tag, current); err != nil {
			return err
		}
	}
	return nil
}
