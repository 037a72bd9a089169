package index

import (
	"github.com/nshkrdotcom/triplestore-go/internal/kve"
	"github.com/nshkrdotcom/triplestore-go/internal/pattern"
	"github.com/nshkrdotcom/triplestore-go/internal/telemetry"
)

// Cursor is a lazy, non-restartable sequence of triples produced by
// Index.Lookup. It holds the underlying prefix iterator's resources
// (and, for a Badger-backed engine, a live reference that keeps the
// store open) until it is exhausted or Close is called.
type Cursor struct {
	it      kve.Iterator
	hook    telemetry.Hook
	index   pattern.Index
	filter  pattern.Filter
	pattern pattern.Pattern

	current Triple
	err     error
	closed  bool
}

// Next advances the cursor to the next matching triple, skipping any
// decoded triple the residual filter rejects. It returns false once the
// underlying iterator is exhausted, the cursor has been closed, or a
// decode error occurred (check Err in that case).
func (c *Cursor) Next() bool {
	if c.closed || c.err != nil {
		return false
	}
	for c.it.Next() {
		key := c.it.Key()
		t, err := KeyToTriple(c.index, key)
		if err != nil {
			c.hook.InvalidKey(key, "cursor_next")
			c.err = err
			return false
		}
		// Only the S?O plan carries a filter. Its OSP prefix (o,s) already
		// pins both bound positions and the predicate is free, so for a
		// well-formed scan this generic pattern check passes every key.
		if c.filter != pattern.FilterNone && !pattern.TripleMatchesPattern(t.S, t.P, t.O, c.pattern) {
			continue
		}
		c.current = t
		return true
	}
	if err := c.it.Err(); err != nil {
		c.err = err
	}
	return false
}

// Triple returns the triple at the cursor's current position. Only valid
// after a call to Next that returned true.
func (c *Cursor) Triple() Triple { return c.current }

// Err returns the first error encountered while advancing the cursor, if
// any.
func (c *Cursor) Err() error { return c.err }

// Close releases the cursor's iterator. Safe to call more than once, and
// safe to call before the sequence is exhausted — dropping a lazy
// sequence early still releases its resources.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.it.Close()
}
