package index

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/nshkrdotcom/triplestore-go/internal/kve"
	"github.com/nshkrdotcom/triplestore-go/internal/pattern"
)

func openTestEngine(t *testing.T) *kve.BadgerEngine {
	t.Helper()
	dir := t.TempDir()
	e, err := kve.Open(kve.DefaultBadgerOptions(filepath.Join(dir, "data")), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func byTriple(ts []Triple) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].S != ts[j].S {
			return ts[i].S < ts[j].S
		}
		if ts[i].P != ts[j].P {
			return ts[i].P < ts[j].P
		}
		return ts[i].O < ts[j].O
	})
}

func TestIndex_InsertIdempotentAndTripleExists(t *testing.T) {
	ix := New(openTestEngine(t), nil)

	if err := ix.InsertTriple(1, 2, 3); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := ix.InsertTriple(1, 2, 3); err != nil {
		t.Fatalf("re-insert: %v", err)
	}
	ok, err := ix.TripleExists(1, 2, 3)
	if err != nil || !ok {
		t.Fatalf("exists = %v, %v; want true, nil", ok, err)
	}

	all, err := ix.LookupAll(pattern.Pattern{S: pattern.BoundTerm(1), P: pattern.Free, O: pattern.Free})
	if err != nil {
		t.Fatalf("lookup all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one triple after re-insert, got %d", len(all))
	}
}

func TestIndex_DeleteRemovesFromAllThreeFamilies(t *testing.T) {
	ix := New(openTestEngine(t), nil)
	if err := ix.InsertTriple(1, 2, 3); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := ix.DeleteTriple(1, 2, 3); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ok, err := ix.TripleExists(1, 2, 3)
	if err != nil || ok {
		t.Fatalf("exists after delete = %v, %v; want false, nil", ok, err)
	}
	for _, pat := range []pattern.Pattern{
		{S: pattern.BoundTerm(1), P: pattern.Free, O: pattern.Free},
		{S: pattern.Free, P: pattern.BoundTerm(2), O: pattern.Free},
		{S: pattern.Free, P: pattern.Free, O: pattern.BoundTerm(3)},
	} {
		got, err := ix.LookupAll(pat)
		if err != nil {
			t.Fatalf("lookup all: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("pattern %+v: expected no results after delete, got %v", pat, got)
		}
	}
	// Deleting an absent triple is not an error.
	if err := ix.DeleteTriple(1, 2, 3); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
}

func TestIndex_EightPatternShapes(t *testing.T) {
	ix := New(openTestEngine(t), nil)
	const (
		s1, knows, likes, o2, pizza = 1, 10, 11, 2, 3
	)
	if err := ix.InsertTriples([]Triple{
		{S: s1, P: knows, O: o2},
		{S: s1, P: likes, O: pizza},
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	cases := []struct {
		name string
		pat  pattern.Pattern
		want []Triple
	}{
		{"spo", pattern.Pattern{S: pattern.BoundTerm(s1), P: pattern.BoundTerm(knows), O: pattern.BoundTerm(o2)},
			[]Triple{{s1, knows, o2}}},
		{"sp_", pattern.Pattern{S: pattern.BoundTerm(s1), P: pattern.BoundTerm(likes), O: pattern.Free},
			[]Triple{{s1, likes, pizza}}},
		{"s__", pattern.Pattern{S: pattern.BoundTerm(s1), P: pattern.Free, O: pattern.Free},
			[]Triple{{s1, knows, o2}, {s1, likes, pizza}}},
		{"_po", pattern.Pattern{S: pattern.Free, P: pattern.BoundTerm(knows), O: pattern.BoundTerm(o2)},
			[]Triple{{s1, knows, o2}}},
		{"_p_", pattern.Pattern{S: pattern.Free, P: pattern.BoundTerm(likes), O: pattern.Free},
			[]Triple{{s1, likes, pizza}}},
		{"__o", pattern.Pattern{S: pattern.Free, P: pattern.Free, O: pattern.BoundTerm(pizza)},
			[]Triple{{s1, likes, pizza}}},
		{"s_o (residual filter)", pattern.Pattern{S: pattern.BoundTerm(s1), P: pattern.Free, O: pattern.BoundTerm(pizza)},
			[]Triple{{s1, likes, pizza}}},
		{"___", pattern.Pattern{S: pattern.Free, P: pattern.Free, O: pattern.Free},
			[]Triple{{s1, knows, o2}, {s1, likes, pizza}}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ix.LookupAll(c.pat)
			if err != nil {
				t.Fatalf("lookup all: %v", err)
			}
			byTriple(got)
			want := append([]Triple(nil), c.want...)
			byTriple(want)
			if len(got) != len(want) {
				t.Fatalf("got %v, want %v", got, want)
			}
			for i := range got {
				if got[i] != want[i] {
					t.Fatalf("got %v, want %v", got, want)
				}
			}
		})
	}
}

func TestIndex_CountMatchesLookupAllLength(t *testing.T) {
	ix := New(openTestEngine(t), nil)
	if err := ix.InsertTriples([]Triple{{1, 2, 3}, {1, 2, 4}, {1, 5, 6}}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	pat := pattern.Pattern{S: pattern.BoundTerm(1), P: pattern.Free, O: pattern.Free}
	n, err := ix.Count(pat)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	all, err := ix.LookupAll(pat)
	if err != nil {
		t.Fatalf("lookup all: %v", err)
	}
	if n != len(all) {
		t.Fatalf("count = %d, lookup all length = %d", n, len(all))
	}
}

func TestIndex_LookupCursorCloseEarlyReleasesResources(t *testing.T) {
	ix := New(openTestEngine(t), nil)
	for i := uint64(0); i < 10; i++ {
		if err := ix.InsertTriple(1, i, i+100); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	cur, err := ix.Lookup(pattern.Pattern{S: pattern.BoundTerm(1), P: pattern.Free, O: pattern.Free})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !cur.Next() {
		t.Fatal("expected at least one result")
	}
	if err := cur.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if cur.Next() {
		t.Fatal("expected Next to return false after Close")
	}
}
