package dictionary

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/nshkrdotcom/triplestore-go/internal/coreerr"
	"github.com/nshkrdotcom/triplestore-go/pkg/rdf"
)

// MaxTermBytes is the largest lexical form the dictionary will allocate an
// ID for.
const MaxTermBytes = 16384

// ValidateTerm checks term's size, absence of a NUL byte in IRIs, and
// well-formed UTF-8. It does not allocate an ID; callers run this before
// GetOrCreateID.
func ValidateTerm(term rdf.Term) error {
	switch t := term.(type) {
	case *rdf.IRI:
		return validateString(t.Value, true)
	case *rdf.BlankNode:
		return validateString(t.Label, false)
	case *rdf.Literal:
		if err := validateString(t.Value, false); err != nil {
			return err
		}
		if t.Datatype != nil {
			return validateString(t.Datatype.Value, true)
		}
		return nil
	default:
		return coreerr.New(coreerr.KindInvalidUTF8, fmt.Sprintf("unrecognised term type %T", term))
	}
}

func validateString(s string, forbidNullByte bool) error {
	if len(s) > MaxTermBytes {
		return coreerr.New(coreerr.KindTermTooLarge, fmt.Sprintf("term of %d bytes exceeds limit of %d", len(s), MaxTermBytes))
	}
	if !utf8.ValidString(s) {
		return coreerr.New(coreerr.KindInvalidUTF8, "term is not valid UTF-8")
	}
	if forbidNullByte && strings.IndexByte(s, 0x00) >= 0 {
		return coreerr.New(coreerr.KindNullByteInURI, "URI contains a NUL byte")
	}
	return nil
}

// NormalizeTerm returns a copy of term with every lexical component
// (IRI/blank node value, literal value, literal datatype IRI) rewritten to
// Unicode NFC form, so that the dictionary hashes and compares canonically
// equivalent strings identically.
func NormalizeTerm(term rdf.Term) rdf.Term {
	switch t := term.(type) {
	case *rdf.IRI:
		return rdf.NewIRI(nfc(t.Value))
	case *rdf.BlankNode:
		return rdf.NewBlankNode(nfc(t.Label))
	case *rdf.Literal:
		value := nfc(t.Value)
		switch {
		case t.Language != "":
			return rdf.NewLangLiteral(value, t.Language)
		case t.Datatype != nil:
			return rdf.NewTypedLiteral(value, rdf.NewIRI(nfc(t.Datatype.Value)))
		default:
			return rdf.NewLiteral(value)
		}
	default:
		return term
	}
}

func nfc(s string) string {
	if norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}
