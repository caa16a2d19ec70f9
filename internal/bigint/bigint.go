// Package bigint implements the bounded-precision signed integer used for
// every guest "int" value in the engine. Magnitudes are stored as
// little-endian base-1e9 limbs in a fixed-capacity array; any operation
// whose result would not fit raises ErrOverflow rather than truncating.
package bigint

import (
	"fmt"
	"strings"
)

const (
	base       = 1_000_000_000
	baseDigits = 9
	maxLimbs   = 20
)

// ErrOverflow is returned when an operation's magnitude would exceed the
// fixed limb capacity.
var ErrOverflow = fmt.Errorf("integer overflow")

// ErrDivisionByZero is returned by QuoRem when the divisor is zero.
var ErrDivisionByZero = fmt.Errorf("division by zero")

// Int is a sign-magnitude arbitrary-precision integer bounded to maxLimbs
// base-1e9 limbs (about 180 decimal digits). The zero value is the
// integer zero.
type Int struct {
	negative bool
	limbs    [maxLimbs]uint32
	length   int // number of significant limbs; 0 means the value is zero
}

// FromInt64 builds an Int from a native 64-bit signed integer.
func FromInt64(v int64) Int {
	var out Int
	if v == 0 {
		return out
	}

	var mag uint64
	if v < 0 {
		out.negative = true
		mag = uint64(-(v + 1)) + 1
	} else {
		mag = uint64(v)
	}

	for mag > 0 {
		out.limbs[out.length] = uint32(mag % base)
		out.length++
		mag /= base
	}
	return out
}

// IsZero reports whether the value is zero.
func (a Int) IsZero() bool { return a.length == 0 }

// IsNegative reports whether the value is strictly negative.
func (a Int) IsNegative() bool { return a.negative }

// String renders the decimal representation, with a leading '-' for
// negative values. Zero renders as "0".
func (a Int) String() string {
	if a.length == 0 {
		return "0"
	}

	var sb strings.Builder
	if a.negative {
		sb.WriteByte('-')
	}
	fmt.Fprintf(&sb, "%d", a.limbs[a.length-1])
	for i := a.length - 2; i >= 0; i-- {
		fmt.Fprintf(&sb, "%0*d", baseDigits, a.limbs[i])
	}
	return sb.String()
}

// Int64 attempts to narrow the value to a native 64-bit signed integer.
// It accepts magnitudes up to INT64_MAX when non-negative and up to
// INT64_MAX+1 when negative, so that INT64_MIN round-trips.
func (a Int) Int64() (int64, bool) {
	if a.length == 0 {
		return 0, true
	}

	const maxPos = uint64(1<<63 - 1) // math.MaxInt64
	limit := maxPos
	if a.negative {
		limit = maxPos + 1
	}

	var acc uint64
	for i := a.length - 1; i >= 0; i-- {
		digit := uint64(a.limbs[i])
		if acc > (limit-digit)/base {
			return 0, false
		}
		acc = acc*base + digit
	}

	if !a.negative {
		return int64(acc), true
	}
	if acc == maxPos+1 {
		return -1 << 63, true // math.MinInt64
	}
	return -int64(acc), true
}

// Equal reports structural equality.
func Equal(a, b Int) bool {
	if a.length != b.length {
		return false
	}
	if a.length == 0 {
		return true
	}
	if a.negative != b.negative {
		return false
	}
	for i := 0; i < a.length; i++ {
		if a.limbs[i] != b.limbs[i] {
			return false
		}
	}
	return true
}

// Less reports a < b.
func Less(a, b Int) bool {
	if a.negative != b.negative {
		return a.negative
	}
	cmp := compareAbs(a, b)
	if a.negative {
		return cmp > 0
	}
	return cmp < 0
}

// LessEqual reports a <= b.
func LessEqual(a, b Int) bool { return !Less(b, a) }

// Greater reports a > b.
func Greater(a, b Int) bool { return Less(b, a) }

// GreaterEqual reports a >= b.
func GreaterEqual(a, b Int) bool { return !Less(a, b) }

// Neg returns -a.
func (a Int) Neg() Int {
	out := a
	if !out.IsZero() {
		out.negative = !out.negative
	}
	return out
}

// Add returns a+b, or ErrOverflow if the magnitude exceeds capacity.
func Add(a, b Int) (Int, error) {
	if a.negative == b.negative {
		out, err := addAbs(a, b)
		if err != nil {
			return Int{}, err
		}
		out.negative = a.negative
		out.normalizeZero()
		return out, nil
	}

	cmp := compareAbs(a, b)
	if cmp == 0 {
		return Int{}, nil
	}
	if cmp > 0 {
		out := subAbs(a, b)
		out.negative = a.negative
		out.normalizeZero()
		return out, nil
	}
	out := subAbs(b, a)
	out.negative = b.negative
	out.normalizeZero()
	return out, nil
}

// Sub returns a-b.
func Sub(a, b Int) (Int, error) {
	return Add(a, b.Neg())
}

// Mul returns a*b, or ErrOverflow if the magnitude exceeds capacity.
func Mul(a, b Int) (Int, error) {
	if a.IsZero() || b.IsZero() {
		return Int{}, nil
	}
	out, err := mulAbs(a, b)
	if err != nil {
		return Int{}, err
	}
	out.negative = a.negative != b.negative
	out.normalizeZero()
	return out, nil
}

// QuoRem returns the quotient and remainder of a/b, both truncated
// toward zero, matching C's `/` and `%` for signed integers. The
// quotient is negative iff the signs differ and it is non-zero; the
// remainder takes the sign of the dividend.
func QuoRem(a, b Int) (q, r Int, err error) {
	if b.IsZero() {
		return Int{}, Int{}, ErrDivisionByZero
	}

	absA, absB := a, b
	absA.negative, absB.negative = false, false

	q, r, err = divmodAbs(absA, absB)
	if err != nil {
		return Int{}, Int{}, err
	}
	q.negative = (a.negative != b.negative) && !q.IsZero()
	r.negative = a.negative && !r.IsZero()
	q.normalizeZero()
	r.normalizeZero()
	return q, r, nil
}

func (a *Int) normalizeZero() {
	if a.length == 0 {
		a.negative = false
	}
}

func (a *Int) trim() {
	for a.length > 0 && a.limbs[a.length-1] == 0 {
		a.length--
	}
	a.normalizeZero()
}

func compareAbs(a, b Int) int {
	if a.length != b.length {
		if a.length < b.length {
			return -1
		}
		return 1
	}
	for i := a.length - 1; i >= 0; i-- {
		if a.limbs[i] != b.limbs[i] {
			if a.limbs[i] < b.limbs[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func addAbs(a, b Int) (Int, error) {
	var out Int
	var carry uint64
	maxLen := a.length
	if b.length > maxLen {
		maxLen = b.length
	}

	for i := 0; i < maxLen || carry != 0; i++ {
		if i >= maxLimbs {
			return Int{}, ErrOverflow
		}
		sum := carry
		if i < a.length {
			sum += uint64(a.limbs[i])
		}
		if i < b.length {
			sum += uint64(b.limbs[i])
		}
		out.limbs[i] = uint32(sum % base)
		carry = sum / base
		out.length = i + 1
	}

	out.trim()
	return out, nil
}

// subAbs requires |a| >= |b|.
func subAbs(a, b Int) Int {
	var out Int
	var borrow int64
	out.length = a.length
	for i := 0; i < a.length; i++ {
		cur := int64(a.limbs[i]) - borrow
		if i < b.length {
			cur -= int64(b.limbs[i])
		}
		if cur < 0 {
			cur += base
			borrow = 1
		} else {
			borrow = 0
		}
		out.limbs[i] = uint32(cur)
	}
	out.trim()
	return out
}

func mulAbs(a, b Int) (Int, error) {
	var out Int
	if a.length == 0 || b.length == 0 {
		return out, nil
	}

	for i := 0; i < a.length; i++ {
		var carry uint64
		for j := 0; j < b.length || carry != 0; j++ {
			idx := i + j
			if idx >= maxLimbs {
				return Int{}, ErrOverflow
			}
			cur := uint64(out.limbs[idx]) + carry
			if j < b.length {
				cur += uint64(a.limbs[i]) * uint64(b.limbs[j])
			}
			out.limbs[idx] = uint32(cur % base)
			carry = cur / base
			if idx+1 > out.length {
				out.length = idx + 1
			}
		}
	}

	out.trim()
	return out, nil
}

// mulUintAbsNoThrow computes |a|*m, reporting false instead of an error
// when the result would overflow. Used by long division's quotient-digit
// search, which probes many candidate digits and must not panic/error on
// the ones that don't fit.
func mulUintAbsNoThrow(a Int, m uint32) (Int, bool) {
	var out Int
	if a.length == 0 || m == 0 {
		return out, true
	}

	var carry uint64
	for i := 0; i < a.length; i++ {
		cur := carry + uint64(a.limbs[i])*uint64(m)
		out.limbs[i] = uint32(cur % base)
		carry = cur / base
		out.length = i + 1
	}

	if carry != 0 {
		if out.length >= maxLimbs {
			return Int{}, false
		}
		out.limbs[out.length] = uint32(carry)
		out.length++
	}

	out.trim()
	return out, true
}

// shiftBaseAdd prepends digit as the new least-significant limb, i.e.
// out := out*base + digit. Used to build the running remainder in
// multi-limb long division, one dividend limb at a time.
func (a *Int) shiftBaseAdd(digit uint32) error {
	if a.length == 0 {
		if digit == 0 {
			return nil
		}
		a.limbs[0] = digit
		a.length = 1
		return nil
	}
	if a.length >= maxLimbs {
		return ErrOverflow
	}
	for i := a.length; i > 0; i-- {
		a.limbs[i] = a.limbs[i-1]
	}
	a.limbs[0] = digit
	a.length++
	return nil
}

func divmodAbs(a, b Int) (q, r Int, err error) {
	if b.length == 0 {
		return Int{}, Int{}, ErrDivisionByZero
	}
	if a.length == 0 {
		return Int{}, Int{}, nil
	}

	cmp := compareAbs(a, b)
	if cmp < 0 {
		return Int{}, a, nil
	}
	if cmp == 0 {
		return FromInt64(1), Int{}, nil
	}

	if b.length == 1 {
		divisor := uint64(b.limbs[0])
		var quo Int
		var rem uint64
		quo.length = a.length
		for i := a.length - 1; i >= 0; i-- {
			cur := uint64(a.limbs[i]) + rem*base
			quo.limbs[i] = uint32(cur / divisor)
			rem = cur % divisor
		}
		quo.trim()
		return quo, FromInt64(int64(rem)), nil
	}

	var quo, rem Int
	quo.length = a.length

	for i := a.length - 1; i >= 0; i-- {
		if err := rem.shiftBaseAdd(a.limbs[i]); err != nil {
			return Int{}, Int{}, err
		}

		var lo, hi uint32 = 0, base - 1
		var best uint32

		for lo <= hi {
			mid := lo + (hi-lo)/2
			prod, ok := mulUintAbsNoThrow(b, mid)
			if !ok || compareAbs(prod, rem) > 0 {
				hi = mid - 1
			} else {
				best = mid
				lo = mid + 1
			}
		}

		quo.limbs[i] = best
		if best != 0 {
			prod, ok := mulUintAbsNoThrow(b, best)
			if !ok {
				return Int{}, Int{}, ErrOverflow
			}
			rem = subAbs(rem, prod)
		}
	}

	quo.trim()
	rem.trim()
	return quo, rem, nil
}
