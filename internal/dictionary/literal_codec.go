package dictionary

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nshkrdotcom/triplestore-go/internal/coreerr"
	"github.com/nshkrdotcom/triplestore-go/pkg/rdf"
)

// tryInlineEncode attempts to pack lit's lexical value into an inline ID
// when its datatype is one of the three the core recognizes (integer,
// decimal, dateTime) and the value parses as a valid lexical form of that
// datatype and fits the inline range. ok is false — with a nil error — for
// any literal that should instead go through ordinary dictionary
// allocation: a literal with no recognized datatype, one whose lexical
// form fails to parse, or one whose parsed value is out of the inline
// range. err is non-nil only for unexpected internal failures.
func tryInlineEncode(lit *rdf.Literal) (id uint64, ok bool, err error) {
	if lit.Language != "" || lit.Datatype == nil {
		return 0, false, nil
	}
	switch {
	case lit.Datatype.Equals(rdf.XSDInteger):
		n, perr := strconv.ParseInt(lit.Value, 10, 64)
		if perr != nil {
			return 0, false, nil
		}
		id, eerr := EncodeInteger(n)
		if eerr != nil {
			return 0, false, nil
		}
		return id, true, nil
	case lit.Datatype.Equals(rdf.XSDDecimal):
		d, perr := parseDecimal(lit.Value)
		if perr != nil {
			return 0, false, nil
		}
		id, eerr := EncodeDecimal(d)
		if eerr != nil {
			return 0, false, nil
		}
		return id, true, nil
	case lit.Datatype.Equals(rdf.XSDDateTime):
		t, perr := parseDateTime(lit.Value)
		if perr != nil {
			return 0, false, nil
		}
		id, eerr := EncodeDateTime(t)
		if eerr != nil {
			return 0, false, nil
		}
		return id, true, nil
	default:
		return 0, false, nil
	}
}

// inlineIDToTerm renders an inline term ID back to the rdf.Literal whose
// lexical form and datatype round-trip through tryInlineEncode.
func inlineIDToTerm(id uint64) (rdf.Term, error) {
	switch TypeOf(id) {
	case TagInteger:
		n, err := DecodeInteger(id)
		if err != nil {
			return nil, err
		}
		return rdf.NewTypedLiteral(strconv.FormatInt(n, 10), rdf.XSDInteger), nil
	case TagDecimal:
		d, err := DecodeDecimal(id)
		if err != nil {
			return nil, err
		}
		return rdf.NewTypedLiteral(formatDecimal(d), rdf.XSDDecimal), nil
	case TagDateTime:
		t, err := DecodeDateTime(id)
		if err != nil {
			return nil, err
		}
		return rdf.NewTypedLiteral(formatDateTime(t), rdf.XSDDateTime), nil
	default:
		return nil, coreerr.New(coreerr.KindCorruptID, fmt.Sprintf("id %d is not an inline term", id))
	}
}

func parseDecimal(s string) (Decimal, error) {
	negative := false
	rest := s
	if strings.HasPrefix(rest, "-") {
		negative = true
		rest = rest[1:]
	} else if strings.HasPrefix(rest, "+") {
		rest = rest[1:]
	}

	intPart, fracPart, hasFrac := strings.Cut(rest, ".")
	digits := intPart
	exponent := int32(0)
	if hasFrac {
		digits += fracPart
		exponent = -int32(len(fracPart))
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		digits = "0"
	}

	mantissa, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return Decimal{}, err
	}
	if mantissa == 0 {
		return Decimal{}, nil
	}
	// Strip trailing zeros so "42", "42.0" and formatDecimal's rendering of
	// either all map to the same mantissa/exponent pair.
	for mantissa%10 == 0 {
		mantissa /= 10
		exponent++
	}
	return Decimal{Negative: negative, Exponent: exponent, Mantissa: mantissa}, nil
}

func formatDecimal(d Decimal) string {
	if d.IsZero() {
		return "0.0"
	}
	digits := strconv.FormatUint(d.Mantissa, 10)
	var sb strings.Builder
	if d.Negative {
		sb.WriteByte('-')
	}
	switch {
	case d.Exponent == 0:
		sb.WriteString(digits)
		sb.WriteString(".0")
	case d.Exponent < 0:
		point := len(digits) + int(d.Exponent)
		if point <= 0 {
			sb.WriteString("0.")
			sb.WriteString(strings.Repeat("0", -point))
			sb.WriteString(digits)
		} else {
			sb.WriteString(digits[:point])
			sb.WriteByte('.')
			sb.WriteString(digits[point:])
		}
	default:
		sb.WriteString(digits)
		sb.WriteString(strings.Repeat("0", int(d.Exponent)))
		sb.WriteString(".0")
	}
	return sb.String()
}

func parseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func formatDateTime(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02T15:04:05Z")
	}
	return t.Format("2006-01-02T15:04:05.000Z")
}
