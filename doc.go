// Package triplestore is the storage core of a persistent RDF triple
// store: it dictionary-encodes RDF terms into compact 64-bit IDs and
// maintains three complementary triple orderings (SPO, POS, OSP) over a
// pluggable ordered key-value engine, answering any of the eight
// triple-pattern shapes with a single prefix scan.
//
// Open returns a Store bound to a single on-disk directory. The Store
// combines internal/kve (the engine adapter), internal/dictionary (term
// <-> ID bijection, inline numeric/temporal codecs), and internal/index
// (the SPO/POS/OSP families and pattern-driven lookup) behind the public
// operations in this package.
//
// The SPARQL parser, query planner/optimizer beyond triple-pattern
// selection, OWL reasoner, bulk-load pipelines, and any CLI or server are
// out of scope for this module; they are expected to be built as
// consumers of the Store type.
package triplestore
