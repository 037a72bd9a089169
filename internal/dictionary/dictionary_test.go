package dictionary

import (
	"sync"
	"testing"
	"testing/quick"

	"github.com/nshkrdotcom/triplestore-go/internal/coreerr"
	"github.com/nshkrdotcom/triplestore-go/pkg/rdf"
)

func newTestDictionary(t *testing.T) *Dictionary {
	t.Helper()
	e := openTestEngine(t)
	d, err := New(e, nil)
	if err != nil {
		t.Fatalf("new dictionary: %v", err)
	}
	return d
}

func TestDictionary_GetOrCreateID_AllocatesOnce(t *testing.T) {
	d := newTestDictionary(t)
	uri := rdf.NewIRI("http://example.org/a")

	id1, err := d.GetOrCreateID(uri)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	id2, err := d.GetOrCreateID(uri)
	if err != nil {
		t.Fatalf("get or create again: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected same ID on repeat allocation, got %d and %d", id1, id2)
	}
}

func TestDictionary_LookupID_NotFound(t *testing.T) {
	d := newTestDictionary(t)
	_, found, err := d.LookupID(rdf.NewIRI("http://example.org/never-allocated"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected not found")
	}
}

func TestDictionary_RoundTrip_URI_BlankNode_Literal(t *testing.T) {
	d := newTestDictionary(t)
	terms := []rdf.Term{
		rdf.NewIRI("http://example.org/s"),
		rdf.NewBlankNode("b0"),
		rdf.NewLiteral("hello"),
		rdf.NewLangLiteral("bonjour", "fr"),
	}
	for _, term := range terms {
		id, err := d.GetOrCreateID(term)
		if err != nil {
			t.Fatalf("get or create %s: %v", term, err)
		}
		got, found, err := d.LookupTerm(id)
		if err != nil {
			t.Fatalf("lookup term %d: %v", id, err)
		}
		if !found || !got.Equals(term) {
			t.Fatalf("round trip mismatch for %s: found=%v got=%s", term, found, got)
		}

		gotID, found, err := d.LookupID(term)
		if err != nil || !found || gotID != id {
			t.Fatalf("lookup id mismatch for %s: id=%d found=%v err=%v", term, gotID, found, err)
		}
	}
}

func TestDictionary_InlineLiterals_BypassKVE(t *testing.T) {
	d := newTestDictionary(t)
	lit := rdf.NewTypedLiteral("7", rdf.XSDInteger)

	id, err := d.GetOrCreateID(lit)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if !IsInline(id) {
		t.Fatalf("expected inline ID for small integer literal, got tag %s", TypeOf(id))
	}

	got, found, err := d.LookupTerm(id)
	if err != nil || !found {
		t.Fatalf("lookup term: found=%v err=%v", found, err)
	}
	if got.(*rdf.Literal).Value != "7" {
		t.Fatalf("unexpected round trip value %q", got.(*rdf.Literal).Value)
	}
}

func TestDictionary_DifferentTermTypesGetDistinctIDs(t *testing.T) {
	d := newTestDictionary(t)
	uriID, _ := d.GetOrCreateID(rdf.NewIRI("http://example.org/x"))
	bnodeID, _ := d.GetOrCreateID(rdf.NewBlankNode("x"))
	litID, _ := d.GetOrCreateID(rdf.NewLiteral("x"))

	if uriID == bnodeID || uriID == litID || bnodeID == litID {
		t.Fatalf("expected distinct IDs across term types, got %d %d %d", uriID, bnodeID, litID)
	}
}

func TestDictionary_ValidationErrorsPropagate(t *testing.T) {
	d := newTestDictionary(t)
	bad := rdf.NewIRI("http://example.org/\x00bad")
	if _, err := d.GetOrCreateID(bad); kindOf(err) != coreerr.KindNullByteInURI {
		t.Fatalf("expected null_byte_in_uri, got %v", err)
	}
}

// Concurrent GetOrCreateID calls for the same new term must converge on
// a single allocated ID.
func TestDictionary_ConcurrentAllocation_Coalesces(t *testing.T) {
	d := newTestDictionary(t)
	uri := rdf.NewIRI("http://example.org/concurrent")

	const n = 50
	ids := make([]uint64, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = d.GetOrCreateID(uri)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("goroutine %d: %v", i, err)
		}
	}
	first := ids[0]
	for i, id := range ids {
		if id != first {
			t.Fatalf("goroutine %d allocated divergent ID %d, want %d", i, id, first)
		}
	}
}

// P8: the dictionary is a bijection — distinct terms never collide on an
// ID and a looked-up term always equals the term that produced its ID.
func TestDictionary_Bijection_Property(t *testing.T) {
	d := newTestDictionary(t)
	seen := make(map[uint64]string)

	f := func(s string) bool {
		term := rdf.NewIRI("http://example.org/" + s)
		if err := ValidateTerm(term); err != nil {
			return true
		}
		id, err := d.GetOrCreateID(term)
		if err != nil {
			return true
		}
		key := NormalizeTerm(term).String()
		if existing, ok := seen[id]; ok && existing != key {
			return false
		}
		seen[id] = key

		got, found, err := d.LookupTerm(id)
		if err != nil || !found {
			return false
		}
		return got.Equals(NormalizeTerm(term))
	}
	cfg := &quick.Config{MaxCount: 200}
	if err := quick.Check(f, cfg); err != nil {
		t.Error(err)
	}
}
