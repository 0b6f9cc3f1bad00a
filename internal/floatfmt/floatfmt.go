// Package floatfmt implements the shortest round-trip decimal formatter
// for IEEE-754 binary32 values (component C7): it writes directly into a
// caller-supplied buffer in positional (non-scientific) form.
//
// A Ryu/Schubfach-style formatter would bake fixed 64-bit power-of-five
// split tables and do the multiply-shift steps in plain uint64 arithmetic.
// This package instead derives the scaled numerator/denominator with
// math/big's exact integer arithmetic (the classical Steele & White
// "free-format" / Dragon4 construction). The digits are written straight
// into the caller's buffer, but each call allocates several big.Int
// temporaries (and a small digit slice), so Format is not allocation-free;
// in exchange every step is exact
// rational arithmetic with no hand-transcribed magic constants to get
// subtly wrong. See DESIGN.md for the full rationale.
package floatfmt

import (
	"math"
	"math/big"
)

const (
	mantissaBits = 23
	bias         = 127
)

var (
	bigOne = big.NewInt(1)
	bigTwo = big.NewInt(2)
	bigTen = big.NewInt(10)
)

// Format writes the shortest round-trip decimal representation of v into
// buf starting at pos, and returns the position just past the last byte
// written. buf must have enough room past pos (the CSV writer reserves
// 1024 bytes per line, comfortably more than any positional float32
// rendering needs).
func Format(buf []byte, pos int, v float32) int {
	bits := math.Float32bits(v)
	sign := bits>>31 != 0
	rawExp := int((bits >> mantissaBits) & 0xFF)
	rawMantissa := bits & (1<<mantissaBits - 1)

	if rawExp == 0xFF || (rawExp == 0 && rawMantissa == 0) {
		buf[pos] = '0'
		return pos + 1
	}

	if sign {
		buf[pos] = '-'
		pos++
	}

	digits, exp10 := shortestDigits(rawExp, rawMantissa)
	return writePositional(buf, pos, digits, exp10)
}

// shortestDigits returns the shortest decimal digit string d1d2...dn and
// an exponent exp10 such that the original value equals 0.d1d2...dn *
// 10^exp10, using exact integer arithmetic throughout (no rounding error
// beyond the final single round-to-nearest-even digit decision that the
// algorithm itself performs).
func shortestDigits(rawExp int, rawMantissa uint32) ([]byte, int) {
	var m2 uint64
	var e2 int
	if rawExp == 0 {
		m2 = uint64(rawMantissa)
		e2 = 1 - bias - mantissaBits
	} else {
		m2 = uint64(rawMantissa) | (1 << mantissaBits)
		e2 = rawExp - bias - mantissaBits
	}

	even := m2&1 == 0
	acceptBounds := even

	// The value sits on a power-of-two boundary (minimal normalized
	// mantissa) with an asymmetric gap to its neighbors, except right
	// above the subnormal range where the gap is symmetric again.
	isBoundary := rawMantissa == 0 && rawExp > 1

	r := new(big.Int)
	s := new(big.Int)
	mPlus := new(big.Int)
	mMinus := new(big.Int)
	m2Big := new(big.Int).SetUint64(m2)

	if e2 >= 0 {
		be := new(big.Int).Lsh(bigOne, uint(e2))
		if !isBoundary {
			r.Mul(m2Big, be)
			r.Mul(r, bigTwo)
			s.Set(bigTwo)
			mPlus.Set(be)
			mMinus.Set(be)
		} else {
			r.Mul(m2Big, be)
			r.Mul(r, big.NewInt(4))
			s.SetInt64(4)
			mPlus.Mul(be, bigTwo)
			mMinus.Set(be)
		}
	} else {
		if isBoundary {
			r.Mul(m2Big, big.NewInt(4))
			s.Lsh(bigOne, uint(1-e2))
			s.Mul(s, bigTwo)
			mPlus.SetInt64(2)
			mMinus.SetInt64(1)
		} else {
			r.Mul(m2Big, bigTwo)
			s.Lsh(bigOne, uint(-e2))
			mPlus.SetInt64(1)
			mMinus.SetInt64(1)
		}
	}

	exp10 := estimateExp10(r, s)
	scaleByExp10(r, s, mPlus, mMinus, exp10)

	// Fixup: nudge exp10 so that 0.1 <= (r+mPlus)/s <= 1, independent of
	// how rough the initial log10 estimate was.
	for {
		sum := new(big.Int).Add(r, mPlus)
		c := sum.Cmp(s)
		if c > 0 || (c == 0 && !acceptBounds) {
			s.Mul(s, bigTen)
			exp10++
			continue
		}
		break
	}
	for {
		sum := new(big.Int).Add(r, mPlus)
		sum.Mul(sum, bigTen)
		c := sum.Cmp(s)
		if c < 0 || (c == 0 && acceptBounds) {
			r.Mul(r, bigTen)
			mPlus.Mul(mPlus, bigTen)
			mMinus.Mul(mMinus, bigTen)
			exp10--
			continue
		}
		break
	}

	digits, carried := generateDigits(r, s, mPlus, mMinus, acceptBounds)
	if carried {
		exp10++
	}
	return digits, exp10
}

// estimateExp10 returns a rough decimal exponent for r/s; the fixup loops
// in shortestDigits correct any imprecision, so this only needs to be in
// the right neighborhood.
func estimateExp10(r, s *big.Int) int {
	ratio := new(big.Float).SetPrec(64).Quo(new(big.Float).SetInt(r), new(big.Float).SetInt(s))
	f64, _ := ratio.Float64()
	if f64 <= 0 {
		return 0
	}
	return int(math.Ceil(math.Log10(f64)))
}

func scaleByExp10(r, s, mPlus, mMinus *big.Int, exp10 int) {
	if exp10 > 0 {
		factor := new(big.Int).Exp(bigTen, big.NewInt(int64(exp10)), nil)
		s.Mul(s, factor)
	} else if exp10 < 0 {
		factor := new(big.Int).Exp(bigTen, big.NewInt(int64(-exp10)), nil)
		r.Mul(r, factor)
		mPlus.Mul(mPlus, factor)
		mMinus.Mul(mMinus, factor)
	}
}

// generateDigits runs the Steele & White digit-extraction loop: each
// iteration multiplies the remainder by ten and divides by s to pull off
// one decimal digit, stopping as soon as the remaining interval no longer
// needs another digit to round-trip uniquely. Reports whether the final
// rounding step carried out of an all-nines prefix (e.g. 999 -> 1000,
// collapsed to "1" with exp10 bumped by the caller).
func generateDigits(r, s, mPlus, mMinus *big.Int, acceptBounds bool) ([]byte, bool) {
	var digits []byte
	for {
		r.Mul(r, bigTen)
		mPlus.Mul(mPlus, bigTen)
		mMinus.Mul(mMinus, bigTen)

		q := new(big.Int)
		rem := new(big.Int)
		q.DivMod(r, s, rem)
		r = rem
		digit := byte(q.Int64())

		low := r.Cmp(mMinus) < 0 || (acceptBounds && r.Cmp(mMinus) == 0)
		sumHigh := new(big.Int).Add(r, mPlus)
		high := sumHigh.Cmp(s) > 0 || (acceptBounds && sumHigh.Cmp(s) == 0)

		if !low && !high {
			digits = append(digits, '0'+digit)
			continue
		}

		switch {
		case low && !high:
			digits = append(digits, '0'+digit)
		case high && !low:
			digits = append(digits, '0'+digit+1)
		default:
			doubled := new(big.Int).Mul(r, bigTwo)
			switch doubled.Cmp(s) {
			case -1:
				digits = append(digits, '0'+digit)
			case 1:
				digits = append(digits, '0'+digit+1)
			default:
				if digit%2 == 0 {
					digits = append(digits, '0'+digit)
				} else {
					digits = append(digits, '0'+digit+1)
				}
			}
		}
		return normalizeCarry(digits)
	}
}

// normalizeCarry absorbs a final digit value of 10 (written as '0'+10,
// i.e. ':') by propagating the carry leftward, collapsing an all-nines
// prefix to a single leading "1" and reporting the carry-out.
func normalizeCarry(digits []byte) ([]byte, bool) {
	i := len(digits) - 1
	if digits[i] != '0'+10 {
		return digits, false
	}
	digits[i] = '0'
	i--
	for i >= 0 {
		if digits[i] < '9' {
			digits[i]++
			return digits, false
		}
		digits[i] = '0'
		i--
	}
	return []byte{'1'}, true
}

// writePositional renders digits/exp10 (value = 0.digits * 10^exp10) in
// positional form: never scientific notation, so every output CSV column
// can be read as a plain decimal number by any downstream tool.
func writePositional(buf []byte, pos int, digits []byte, exp10 int) int {
	if exp10 <= 0 {
		buf[pos] = '0'
		pos++
		buf[pos] = '.'
		pos++
		for i := 0; i < -exp10; i++ {
			buf[pos] = '0'
			pos++
		}
		pos += copy(buf[pos:], digits)
		return pos
	}

	if exp10 >= len(digits) {
		pos += copy(buf[pos:], digits)
		for i := 0; i < exp10-len(digits); i++ {
			buf[pos] = '0'
			pos++
		}
		return pos
	}

	pos += copy(buf[pos:], digits[:exp10])
	buf[pos] = '.'
	pos++
	pos += copy(buf[pos:], digits[exp10:])
	return pos
}
