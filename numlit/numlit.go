// Package numlit decodes C99 integer and floating constants (C99
// §6.4.4.1) into a value plus the narrowest conforming type, selected by
// a suffix/base candidate table. strconv.ParseUint/ParseFloat do the
// actual digit parsing; this package only picks the base, suffix, and
// resulting type around them.
package numlit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/codeassociates/cfront/ctype"
)

// IntResult is the decoded value and type of an integer constant.
type IntResult struct {
	Value uint64
	Type  *ctype.Type
}

// candidate is one row of the suffix/base selection table: a type, and a
// predicate for whether it can represent the decoded value.
type candidate struct {
	signed bool
	rank   ctype.IntRank
	fits   func(v uint64) bool
}

func fitsBits(bits int, signed bool) func(uint64) bool {
	return func(v uint64) bool {
		if !signed {
			if bits >= 64 {
				return true
			}
			return v < (uint64(1) << uint(bits))
		}
		if bits >= 64 {
			return v <= 1<<63-1
		}
		return v <= (uint64(1)<<uint(bits-1))-1
	}
}

var (
	cInt            = candidate{true, ctype.RankInt, fitsBits(32, true)}
	cUnsigned       = candidate{false, ctype.RankInt, fitsBits(32, false)}
	cLong           = candidate{true, ctype.RankLong, fitsBits(64, true)}
	cUnsignedLong   = candidate{false, ctype.RankLong, fitsBits(64, false)}
	cLongLong       = candidate{true, ctype.RankLongLong, fitsBits(64, true)}
	cUnsignedLLong  = candidate{false, ctype.RankLongLong, fitsBits(64, false)}
)

// DecodeInteger decodes an integer-constant lexeme exactly as produced by
// the lexer: optional 0x/0X hex or leading-0 octal or decimal, optional
// u/U and/or l/L|ll/LL suffix in any order, case-insensitive, with ll
// distinct from l. It returns the parsed value and the narrowest type
// from the first row of the candidate table that can represent it. err
// is non-nil (an overflow diagnosis) when no candidate type fits.
func DecodeInteger(lexeme string) (IntResult, error) {
	digits, base, isDecimal := splitIntegerPrefix(lexeme)
	digits, isUnsigned, isLong, isLongLong := splitIntegerSuffix(digits)
	if digits == "" && base == 8 {
		digits = "0" // a lone "0" followed only by a suffix, e.g. 0u or 0L
	}

	value, perr := strconv.ParseUint(digits, base, 64)
	if perr != nil {
		return IntResult{}, fmt.Errorf("integer constant %q out of range or malformed: %w", lexeme, perr)
	}

	candidates := selectCandidates(isDecimal, isUnsigned, isLong, isLongLong)
	for _, c := range candidates {
		if c.fits(value) {
			return IntResult{Value: value, Type: ctype.NewInteger(c.signed, c.rank)}, nil
		}
	}
	return IntResult{}, fmt.Errorf("integer constant %q (value %d) does not fit any candidate type", lexeme, value)
}

// selectCandidates returns the ordered candidate list for the given
// suffix combination and decimal-vs-octal/hex base.
func selectCandidates(isDecimal, isUnsigned, isLong, isLongLong bool) []candidate {
	switch {
	case isUnsigned && isLongLong:
		return []candidate{cUnsignedLLong}
	case isUnsigned && isLong:
		return []candidate{cUnsignedLong, cUnsignedLLong}
	case isUnsigned:
		return []candidate{cUnsigned, cUnsignedLong, cUnsignedLLong}
	case isLongLong:
		if isDecimal {
			return []candidate{cLongLong}
		}
		return []candidate{cLongLong, cUnsignedLLong}
	case isLong:
		if isDecimal {
			return []candidate{cLong, cLongLong}
		}
		return []candidate{cLong, cUnsignedLong, cLongLong, cUnsignedLLong}
	default: // no suffix
		if isDecimal {
			return []candidate{cInt, cLong, cLongLong}
		}
		return []candidate{cInt, cUnsigned, cLong, cUnsignedLong, cLongLong, cUnsignedLLong}
	}
}

// splitIntegerPrefix strips a 0x/0X or leading-0 base prefix and returns
// the remaining digits, the base for strconv, and whether the literal was
// decimal (as opposed to octal or hex) — the candidate table treats
// decimal separately from octal/hex.
func splitIntegerPrefix(lexeme string) (digits string, base int, isDecimal bool) {
	lower := strings.ToLower(lexeme)
	switch {
	case strings.HasPrefix(lower, "0x"):
		return lexeme[2:], 16, false
	case len(lexeme) > 1 && lexeme[0] == '0':
		return lexeme[1:], 8, false
	case lexeme == "0":
		return lexeme, 10, false // "0" is technically octal-with-no-digits but decays to decimal behavior harmlessly
	default:
		return lexeme, 10, true
	}
}

// splitIntegerSuffix trims trailing u/U and l/L|ll/LL suffix letters (in
// either order) and reports which were present.
func splitIntegerSuffix(digits string) (trimmed string, isUnsigned, isLong, isLongLong bool) {
	i := len(digits)
	for i > 0 {
		c := digits[i-1]
		if c == 'u' || c == 'U' {
			isUnsigned = true
			i--
			continue
		}
		if c == 'l' || c == 'L' {
			if i >= 2 && (digits[i-2] == 'l' || digits[i-2] == 'L') {
				isLongLong = true
				i -= 2
				continue
			}
			isLong = true
			i--
			continue
		}
		break
	}
	return digits[:i], isUnsigned, isLong, isLongLong
}

// FloatResult is the decoded value and type of a floating constant.
type FloatResult struct {
	Value float64
	Type  *ctype.Type
}

// DecodeFloating decodes a floating-constant lexeme (decimal or hex
// significand, optional exponent, optional f/F or l/L suffix). The value
// is quantised to the chosen precision's Go counterpart (float32 for
// `float`, float64 otherwise).
func DecodeFloating(lexeme string) (FloatResult, error) {
	body := lexeme
	rank := ctype.RankDouble
	if n := len(body); n > 0 {
		switch body[n-1] {
		case 'f', 'F':
			rank = ctype.RankFloat
			body = body[:n-1]
		case 'l', 'L':
			rank = ctype.RankLongDouble
			body = body[:n-1]
		}
	}

	v, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return FloatResult{}, fmt.Errorf("floating constant %q malformed: %w", lexeme, err)
	}
	if rank == ctype.RankFloat {
		v = float64(float32(v))
	}
	return FloatResult{Value: v, Type: ctype.NewFloating(rank)}, nil
}
