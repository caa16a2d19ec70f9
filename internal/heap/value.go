// Package heap implements the tagged Value model together with the
// mark-and-sweep collector that owns every heap-allocated string and
// array. The two live in one package because the collector must be
// able to inspect a Value's payload directly, without an accessor
// layer that could hide a live reference from the roots walk.
package heap

import (
	"fmt"

	"frog/internal/bigint"
)

// Kind identifies which variant of Value is populated.
type Kind byte

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Object is implemented by the two heap-owned object kinds. It is the
// interface the collector marks and sweeps through; it carries no
// domain behavior of its own.
type Object interface {
	marked() bool
	setMarked(bool)
	sizeBytes() int
}

// StringObject owns a character sequence.
type StringObject struct {
	Value string
	mark  bool
	size  int
}

func (o *StringObject) marked() bool     { return o.mark }
func (o *StringObject) setMarked(v bool) { o.mark = v }
func (o *StringObject) sizeBytes() int   { return o.size }

// ArrayObject owns an ordered sequence of Values.
type ArrayObject struct {
	Elements []Value
	mark     bool
	size     int
}

func (o *ArrayObject) marked() bool     { return o.mark }
func (o *ArrayObject) setMarked(v bool) { o.mark = v }
func (o *ArrayObject) sizeBytes() int   { return o.size }

// Value is the tagged sum type every guest expression evaluates to.
// Exactly one payload field is meaningful, selected by Kind; the
// accessor methods fail with a type-mismatch error when asked for the
// wrong variant.
type Value struct {
	kind Kind
	i    bigint.Int
	f    float64
	b    bool
	s    *StringObject
	arr  *ArrayObject
}

// Null is the unit value.
var Null = Value{kind: KindNull}

// NewInt wraps a BigInt as an int Value.
func NewInt(v bigint.Int) Value { return Value{kind: KindInt, i: v} }

// NewFloat wraps a float64 as a float Value.
func NewFloat(v float64) Value { return Value{kind: KindFloat, f: v} }

// NewBool wraps a bool as a bool Value.
func NewBool(v bool) Value { return Value{kind: KindBool, b: v} }

// NewString wraps a heap string object as a string-ref Value.
func NewString(o *StringObject) Value { return Value{kind: KindString, s: o} }

// NewArray wraps a heap array object as an array-ref Value.
func NewArray(o *ArrayObject) Value { return Value{kind: KindArray, arr: o} }

// Kind reports the populated variant.
func (v Value) Kind() Kind { return v.kind }

func typeMismatch(want Kind, got Kind) error {
	return fmt.Errorf("type mismatch: expected %s, got %s", want, got)
}

// Int returns the int payload, failing if v is not an int.
func (v Value) Int() (bigint.Int, error) {
	if v.kind != KindInt {
		return bigint.Int{}, typeMismatch(KindInt, v.kind)
	}
	return v.i, nil
}

// Float returns the float payload, failing if v is not a float.
func (v Value) Float() (float64, error) {
	if v.kind != KindFloat {
		return 0, typeMismatch(KindFloat, v.kind)
	}
	return v.f, nil
}

// Bool returns the bool payload, failing if v is not a bool.
func (v Value) Bool() (bool, error) {
	if v.kind != KindBool {
		return false, typeMismatch(KindBool, v.kind)
	}
	return v.b, nil
}

// StringObj returns the string-ref payload, failing if v is not a string.
func (v Value) StringObj() (*StringObject, error) {
	if v.kind != KindString {
		return nil, typeMismatch(KindString, v.kind)
	}
	return v.s, nil
}

// ArrayObj returns the array-ref payload, failing if v is not an array.
func (v Value) ArrayObj() (*ArrayObject, error) {
	if v.kind != KindArray {
		return nil, typeMismatch(KindArray, v.kind)
	}
	return v.arr, nil
}

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// heapObject returns the underlying Object for a heap-kinded Value,
// or nil for every other kind. Used only by the collector's marking
// walk.
func (v Value) heapObject() Object {
	switch v.kind {
	case KindString:
		return v.s
	case KindArray:
		return v.arr
	default:
		return nil
	}
}

// Equal implements structural equality for primitives and strings and
// identity equality for arrays. Mismatched tags are never equal.
func Equal(a, b Value) (bool, error) {
	if a.kind != b.kind {
		return false, fmt.Errorf("type mismatch in comparison: %s vs %s", a.kind, b.kind)
	}
	switch a.kind {
	case KindNull:
		return true, nil
	case KindInt:
		return bigint.Equal(a.i, b.i), nil
	case KindFloat:
		return a.f == b.f, nil
	case KindBool:
		return a.b == b.b, nil
	case KindString:
		return a.s.Value == b.s.Value, nil
	case KindArray:
		return a.arr == b.arr, nil
	default:
		return false, fmt.Errorf("type mismatch in comparison: %s vs %s", a.kind, b.kind)
	}
}

// Compare orders two same-kind numeric Values: -1, 0, or 1. Ordering
// is defined only for int and float.
func Compare(a, b Value) (int, error) {
	if a.kind != b.kind {
		return 0, fmt.Errorf("type mismatch in comparison: %s vs %s", a.kind, b.kind)
	}
	switch a.kind {
	case KindInt:
		switch {
		case bigint.Less(a.i, b.i):
			return -1, nil
		case bigint.Equal(a.i, b.i):
			return 0, nil
		default:
			return 1, nil
		}
	case KindFloat:
		switch {
		case a.f < b.f:
			return -1, nil
		case a.f == b.f:
			return 0, nil
		default:
			return 1, nil
		}
	default:
		return 0, fmt.Errorf("ordering undefined for %s", a.kind)
	}
}
