package triplestore

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Stats is a snapshot of store-wide counters, useful for operators and
// admin tooling built on top of this core.
type Stats struct {
	// Triples is the total number of triples currently stored, computed
	// by a full SPO scan with the all-free pattern.
	Triples uint64
}

// Stats computes a fresh Stats snapshot. This performs a full index scan
// and is O(n) in the number of stored triples; callers on a hot path
// should cache the result themselves.
func (s *Store) Stats() (Stats, error) {
	n, err := s.Count(Pattern{})
	if err != nil {
		return Stats{}, err
	}
	return Stats{Triples: uint64(n)}, nil
}

// String renders st in a human-readable form, e.g. "12,345 triples".
func (st Stats) String() string {
	return fmt.Sprintf("%s triples", humanize.Comma(int64(st.Triples)))
}
