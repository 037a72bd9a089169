package dictionary

import (
	"fmt"
	"time"

	"github.com/nshkrdotcom/triplestore-go/internal/coreerr"
)

// Integer range: [-2^59, 2^59)
const (
	minInlineInt = -(int64(1) << 59)
	maxInlineInt = int64(1) << 59
)

// EncodeInteger packs n into a tag-4 ID if it fits in 60 bits two's
// complement, else reports out_of_range so the caller can fall through to
// dictionary allocation.
func EncodeInteger(n int64) (uint64, error) {
	if n < minInlineInt || n >= maxInlineInt {
		return 0, coreerr.New(coreerr.KindOutOfRange, fmt.Sprintf("integer %d outside inline range", n))
	}
	// Two's complement in 60 bits: mask off the sign-extended high bits.
	return EncodeID(TagInteger, uint64(n)&valueMask), nil
}

// DecodeInteger sign-extends the 60-bit payload back to int64.
func DecodeInteger(id uint64) (int64, error) {
	tag, value := DecodeID(id)
	if tag != TagInteger {
		return 0, coreerr.New(coreerr.KindNotAnInteger, fmt.Sprintf("id tag %s is not integer", tag))
	}
	if value&(1<<59) != 0 {
		// Negative: sign-extend above bit 59.
		value |= ^valueMask
	}
	return int64(value), nil
}

// Decimal layout: sign(1) | biased_exponent(11) | mantissa(48).
const (
	decimalExpBias = 1023
	decimalExpBits = 11
	decimalManBits = 48
	decimalExpMax  = (1 << decimalExpBits) - 1
	decimalManMask = (uint64(1) << decimalManBits) - 1
)

// Decimal is a sign/exponent/mantissa triple suitable for the inline
// 60-bit decimal codec: value = sign * mantissa * 10^exponent. Exponent is
// the unbiased power of ten, matching how an xsd:decimal lexical form
// ("-12.340") decomposes into digits and a decimal point position.
type Decimal struct {
	Negative bool
	Exponent int32 // unbiased, base 10
	Mantissa uint64
}

// IsZero reports whether d represents the special all-zero-payload zero
// value recognised on decode.
func (d Decimal) IsZero() bool {
	return !d.Negative && d.Exponent == 0 && d.Mantissa == 0
}

// EncodeDecimal packs d into a tag-5 ID, or reports out_of_range if the
// mantissa needs more than 48 bits or the biased exponent falls outside
// [0, 2047]; callers fall through to dictionary allocation in that case
// rather than attempting renormalisation.
func EncodeDecimal(d Decimal) (uint64, error) {
	if d.IsZero() {
		return EncodeID(TagDecimal, 0), nil
	}
	if d.Mantissa > decimalManMask {
		return 0, coreerr.New(coreerr.KindOutOfRange, "decimal mantissa exceeds 48 bits")
	}
	biased := int64(d.Exponent) + decimalExpBias
	if biased < 0 || biased > decimalExpMax {
		return 0, coreerr.New(coreerr.KindOutOfRange, "decimal biased exponent out of range")
	}

	var payload uint64
	if d.Negative {
		payload |= 1 << 59
	}
	payload |= uint64(biased) << decimalManBits
	payload |= d.Mantissa & decimalManMask

	return EncodeID(TagDecimal, payload), nil
}

// DecodeDecimal is the inverse of EncodeDecimal.
func DecodeDecimal(id uint64) (Decimal, error) {
	tag, value := DecodeID(id)
	if tag != TagDecimal {
		return Decimal{}, coreerr.New(coreerr.KindNotADecimal, fmt.Sprintf("id tag %s is not decimal", tag))
	}
	if value == 0 {
		return Decimal{}, nil
	}
	negative := value&(1<<59) != 0
	biased := (value >> decimalManBits) & decimalExpMax
	mantissa := value & decimalManMask
	return Decimal{
		Negative: negative,
		Exponent: int32(biased) - decimalExpBias,
		Mantissa: mantissa,
	}, nil
}

// Date-time range: UTC milliseconds since epoch, [0, 2^60).
const maxInlineMillis = uint64(1) << 60

// EncodeDateTime packs the UTC-normalised Unix millisecond count of t
// into a tag-6 ID. Pre-epoch timestamps are out of range; sub-millisecond
// precision is lost.
func EncodeDateTime(t time.Time) (uint64, error) {
	t = t.UTC()
	millis := t.UnixMilli()
	if millis < 0 {
		return 0, coreerr.New(coreerr.KindOutOfRange, "datetime predates the Unix epoch")
	}
	if uint64(millis) >= maxInlineMillis {
		return 0, coreerr.New(coreerr.KindOutOfRange, "datetime exceeds inline range")
	}
	return EncodeID(TagDateTime, uint64(millis)), nil
}

// DecodeDateTime returns the UTC time corresponding to id's millisecond
// payload.
func DecodeDateTime(id uint64) (time.Time, error) {
	tag, value := DecodeID(id)
	if tag != TagDateTime {
		return time.Time{}, coreerr.New(coreerr.KindNotADateTime, fmt.Sprintf("id tag %s is not datetime", tag))
	}
	return time.UnixMilli(int64(value)).UTC(), nil
}
