package kve

import (
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"
)

// DefaultBadgerOptions returns the badger.Options this core opens stores
// with: ZSTD block compression (badger links klauspost/compress for this
// internally; nothing here imports it directly) and a nil logger, since
// engine-level logging goes through the zap logger passed to Open.
func DefaultBadgerOptions(path string) badger.Options {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.Compression = options.ZSTD
	return opts
}

// BadgerEngine implements Engine over a single BadgerDB instance, using
// column-family-prefixed keys.
//
// Close is safe to call with live iterators/snapshots outstanding: the
// underlying *badger.DB is only actually closed once every borrower
// (iterator or snapshot) has released its reference. New operations
// requested after Close returns ErrAlreadyClosed regardless of
// outstanding borrowers.
type BadgerEngine struct {
	log *zap.Logger
	db  *badger.DB

	closeMu sync.RWMutex
	closed  bool

	refMu    sync.Mutex
	refs     int
	closing  bool // mirrors closed, guarded by refMu for releaseRef
	dbClosed bool
}

// Open creates the store directory if missing and opens it.
func Open(opts badger.Options, log *zap.Logger) (*BadgerEngine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("kve: open badger store at %s: %w", opts.Dir, err)
	}
	log.Named("kve").Info("opened store", zap.String("path", opts.Dir))
	return &BadgerEngine{log: log.Named("kve"), db: db}, nil
}

func prefixKey(cf ColumnFamily, key []byte) []byte {
	out := make([]byte, 1+len(key))
	out[0] = byte(cf)
	copy(out[1:], key)
	return out
}

func cfPrefix(cf ColumnFamily) []byte {
	return []byte{byte(cf)}
}

// withReadTxn runs fn against a fresh read-only transaction that is
// discarded when fn returns; used for operations that don't outlive the
// call (Get/Exists).
func (e *BadgerEngine) withReadTxn(fn func(txn *badger.Txn) error) error {
	e.closeMu.RLock()
	defer e.closeMu.RUnlock()
	if e.closed {
		return ErrAlreadyClosed
	}
	txn := e.db.NewTransaction(false)
	defer txn.Discard()
	return fn(txn)
}

func (e *BadgerEngine) Get(cf ColumnFamily, key []byte) ([]byte, error) {
	var out []byte
	err := e.withReadTxn(func(txn *badger.Txn) error {
		item, err := txn.Get(prefixKey(cf, key))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		v, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *BadgerEngine) Exists(cf ColumnFamily, key []byte) (bool, error) {
	var found bool
	err := e.withReadTxn(func(txn *badger.Txn) error {
		_, err := txn.Get(prefixKey(cf, key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

func (e *BadgerEngine) Put(cf ColumnFamily, key, value []byte) error {
	return e.WriteBatch([]Op{PutOp(cf, key, value)})
}

func (e *BadgerEngine) Delete(cf ColumnFamily, key []byte) error {
	return e.WriteBatch([]Op{DeleteOp(cf, key)})
}

// WriteBatch commits every op in a single badger transaction, so either
// all ops become visible or none do.
func (e *BadgerEngine) WriteBatch(ops []Op) error {
	e.closeMu.RLock()
	defer e.closeMu.RUnlock()
	if e.closed {
		return ErrAlreadyClosed
	}

	txn := e.db.NewTransaction(true)
	defer txn.Discard()

	for _, op := range ops {
		k := prefixKey(op.CF, op.Key)
		if op.Delete {
			if err := txn.Delete(k); err != nil {
				return fmt.Errorf("kve: delete %s: %w", op.CF, err)
			}
			continue
		}
		if err := txn.Set(k, op.Value); err != nil {
			return fmt.Errorf("kve: set %s: %w", op.CF, err)
		}
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("kve: commit batch: %w", err)
	}
	return nil
}

func (e *BadgerEngine) acquireRef() error {
	e.closeMu.RLock()
	defer e.closeMu.RUnlock()
	if e.closed {
		return ErrAlreadyClosed
	}
	e.refMu.Lock()
	e.refs++
	e.refMu.Unlock()
	return nil
}

func (e *BadgerEngine) releaseRef() {
	e.refMu.Lock()
	e.refs--
	if e.closing && e.refs == 0 && !e.dbClosed {
		if err := e.db.Close(); err != nil {
			e.log.Error("error closing store after last borrower released", zap.Error(err))
		}
		e.dbClosed = true
	}
	e.refMu.Unlock()
}

func (e *BadgerEngine) PrefixIterator(cf ColumnFamily, prefix []byte) (Iterator, error) {
	if err := e.acquireRef(); err != nil {
		return nil, err
	}
	txn := e.db.NewTransaction(false)
	scanPrefix := prefixKey(cf, prefix)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = scanPrefix
	it := txn.NewIterator(opts)
	it.Seek(scanPrefix)

	return &badgerIterator{
		engine:     e,
		txn:        txn,
		it:         it,
		cfPrefix:   cfPrefix(cf),
		scanPrefix: scanPrefix,
		started:    true,
	}, nil
}

type badgerIterator struct {
	engine     *BadgerEngine
	txn        *badger.Txn
	it         *badger.Iterator
	cfPrefix   []byte
	scanPrefix []byte
	started    bool
	closed     bool
	err        error
}

func (i *badgerIterator) Next() bool {
	if i.closed || i.err != nil {
		return false
	}
	if !i.started {
		i.it.Next()
	}
	i.started = false
	return i.it.ValidForPrefix(i.scanPrefix)
}

func (i *badgerIterator) Key() []byte {
	if i.closed {
		return nil
	}
	k := i.it.Item().KeyCopy(nil)
	return k[len(i.cfPrefix):]
}

func (i *badgerIterator) Value() []byte {
	if i.closed {
		return nil
	}
	v, err := i.it.Item().ValueCopy(nil)
	if err != nil {
		i.err = err
		return nil
	}
	return v
}

func (i *badgerIterator) Err() error { return i.err }

func (i *badgerIterator) Close() error {
	if i.closed {
		return nil
	}
	i.closed = true
	i.it.Close()
	i.txn.Discard()
	i.engine.releaseRef()
	return nil
}

// Snapshot returns a point-in-time read view backed by a single badger
// read-only transaction; badger's MVCC fixes the read timestamp at
// creation, so subsequent commits are invisible to it.
func (e *BadgerEngine) Snapshot() (Snapshot, error) {
	if err := e.acquireRef(); err != nil {
		return nil, err
	}
	return &badgerSnapshot{engine: e, txn: e.db.NewTransaction(false)}, nil
}

type badgerSnapshot struct {
	engine *BadgerEngine
	txn    *badger.Txn
	closed bool
}

func (s *badgerSnapshot) Get(cf ColumnFamily, key []byte) ([]byte, error) {
	if s.closed {
		return nil, ErrAlreadyClosed
	}
	item, err := s.txn.Get(prefixKey(cf, key))
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (s *badgerSnapshot) PrefixIterator(cf ColumnFamily, prefix []byte) (Iterator, error) {
	if s.closed {
		return nil, ErrAlreadyClosed
	}
	scanPrefix := prefixKey(cf, prefix)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = scanPrefix
	it := s.txn.NewIterator(opts)
	it.Seek(scanPrefix)
	return &snapshotIterator{
		it:         it,
		cfPrefix:   cfPrefix(cf),
		scanPrefix: scanPrefix,
		started:    true,
	}, nil
}

func (s *badgerSnapshot) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.txn.Discard()
	s.engine.releaseRef()
	return nil
}

// snapshotIterator has the same shape as badgerIterator but doesn't own
// (and must not discard) the snapshot's transaction; the snapshot itself
// releases the engine reference on Close.
type snapshotIterator struct {
	it         *badger.Iterator
	cfPrefix   []byte
	scanPrefix []byte
	started    bool
	closed     bool
	err        error
}

func (i *snapshotIterator) Next() bool {
	if i.closed || i.err != nil {
		return false
	}
	if !i.started {
		i.it.Next()
	}
	i.started = false
	return i.it.ValidForPrefix(i.scanPrefix)
}

func (i *snapshotIterator) Key() []byte {
	if i.closed {
		return nil
	}
	k := i.it.Item().KeyCopy(nil)
	return k[len(i.cfPrefix):]
}

func (i *snapshotIterator) Value() []byte {
	if i.closed {
		return nil
	}
	v, err := i.it.Item().ValueCopy(nil)
	if err != nil {
		i.err = err
		return nil
	}
	return v
}

func (i *snapshotIterator) Err() error { return i.err }

func (i *snapshotIterator) Close() error {
	if i.closed {
		return nil
	}
	i.closed = true
	i.it.Close()
	return nil
}

// Close marks the engine unusable for new operations. The underlying
// store is only actually closed once every outstanding iterator and
// snapshot has released its reference.
func (e *BadgerEngine) Close() error {
	e.closeMu.Lock()
	if e.closed {
		e.closeMu.Unlock()
		return nil
	}
	e.closed = true
	e.closeMu.Unlock()

	e.refMu.Lock()
	defer e.refMu.Unlock()
	e.closing = true
	if e.refs == 0 && !e.dbClosed {
		e.dbClosed = true
		e.log.Info("closed store")
		return e.db.Close()
	}
	e.log.Info("close deferred until outstanding borrowers release", zap.Int("refs", e.refs))
	return nil
}
