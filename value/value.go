// This file is part of brink.
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package value implements Brink's typed arithmetic: U64, I64,
// a flexible Integer that defers commitment to either side of a typed
// operation, and QuotedString. It is pure over its operands — no source
// spans, no symbol tables — so that package engine can wrap its errors
// with whatever context (span, op) it has at the call site.
package value

import (
	"fmt"
	"math"
)

// Kind distinguishes the four value types. Integer is the pending, flexible
// literal type; it unifies with whichever of U64/I64 it meets first.
type Kind uint8

const (
	Integer Kind = iota
	U64
	I64
	QuotedString
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "Integer"
	case U64:
		return "U64"
	case I64:
		return "I64"
	case QuotedString:
		return "QuotedString"
	default:
		return "?"
	}
}

// Value is a Brink runtime value. Numeric kinds store their bit pattern in
// bits (two's-complement for I64 and for Integer, which behaves like I64
// until it commits to a side); QuotedString values live in Str.
type Value struct {
	Kind Kind
	bits uint64
	Str  string
}

// NewInteger constructs a flexible Integer value from a signed magnitude.
func NewInteger(v int64) Value { return Value{Kind: Integer, bits: uint64(v)} }

// NewU64 constructs a U64 value.
func NewU64(v uint64) Value { return Value{Kind: U64, bits: v} }

// NewI64 constructs an I64 value.
func NewI64(v int64) Value { return Value{Kind: I64, bits: uint64(v)} }

// NewString constructs a QuotedString value.
func NewString(s string) Value { return Value{Kind: QuotedString, Str: s} }

// AsI64 returns the value's bit pattern interpreted as a signed 64-bit int.
func (v Value) AsI64() int64 { return int64(v.bits) }

// AsU64 returns the value's bit pattern interpreted as an unsigned 64-bit int.
func (v Value) AsU64() uint64 { return v.bits }

// IsNumeric reports whether v is Integer, U64 or I64.
func (v Value) IsNumeric() bool { return v.Kind != QuotedString }

// IsTruthy treats any non-zero value (including negative) as true.
func (v Value) IsTruthy() bool { return v.bits != 0 }

func (v Value) String() string {
	switch v.Kind {
	case QuotedString:
		return v.Str
	case U64:
		return fmt.Sprintf("0x%x", v.AsU64())
	default:
		return fmt.Sprintf("%d", v.AsI64())
	}
}

// TypeMismatchError reports mixing U64 and I64 without an explicit cast.
type TypeMismatchError struct{ A, B Kind }

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: %s vs %s", e.A, e.B)
}

// OverflowError reports a checked arithmetic overflow/underflow.
type OverflowError struct {
	Op       string
	Kind     Kind
	A, B     int64
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("arithmetic overflow: %d %s %d does not fit in %s", e.A, e.Op, e.B, e.Kind)
}

// DivZeroError reports division by zero.
type DivZeroError struct{}

func (e *DivZeroError) Error() string { return "division by zero" }

// unify resolves the result Kind of a binary numeric op between a and b:
// Integer unifies with either typed side; mixing U64 and I64 without a
// cast is an error.
func unify(a, b Value) (Kind, error) {
	ak, bk := a.Kind, b.Kind
	if ak == Integer && bk == Integer {
		return Integer, nil
	}
	if ak == Integer {
		return bk, nil
	}
	if bk == Integer {
		return ak, nil
	}
	if ak != bk {
		return 0, &TypeMismatchError{ak, bk}
	}
	return ak, nil
}

func mk(k Kind, bits uint64) Value { return Value{Kind: k, bits: bits} }

// Add, Sub and Mul are checked for overflow/underflow in the result type.
func Add(a, b Value) (Value, error) { return checkedArith("+", a, b, addChecked) }
func Sub(a, b Value) (Value, error) { return checkedArith("-", a, b, subChecked) }
func Mul(a, b Value) (Value, error) { return checkedArith("*", a, b, mulChecked) }

type checkedOp func(k Kind, a, b int64) (int64, bool)

func checkedArith(op string, a, b Value, f checkedOp) (Value, error) {
	k, err := unify(a, b)
	if err != nil {
		return Value{}, err
	}
	res, ok := f(k, a.AsI64(), b.AsI64())
	if !ok {
		return Value{}, &OverflowError{Op: op, Kind: k, A: a.AsI64(), B: b.AsI64()}
	}
	return mk(k, uint64(res)), nil
}

func addChecked(k Kind, a, b int64) (int64, bool) {
	if k == U64 {
		ua, ub := uint64(a), uint64(b)
		sum := ua + ub
		if sum < ua {
			return 0, false
		}
		return int64(sum), true
	}
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

func subChecked(k Kind, a, b int64) (int64, bool) {
	if k == U64 {
		ua, ub := uint64(a), uint64(b)
		if ub > ua {
			return 0, false
		}
		return int64(ua - ub), true
	}
	diff := a - b
	if (b < 0 && diff < a) || (b > 0 && diff > a) {
		return 0, false
	}
	return diff, true
}

func mulChecked(k Kind, a, b int64) (int64, bool) {
	if k == U64 {
		ua, ub := uint64(a), uint64(b)
		if ua == 0 || ub == 0 {
			return 0, true
		}
		prod := ua * ub
		if prod/ua != ub {
			return 0, false
		}
		return int64(prod), true
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	prod := a * b
	if prod/a != b || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return prod, true
}

// Div is checked for div-by-zero only; quotient direction follows the
// result's signedness.
func Div(a, b Value) (Value, error) {
	k, err := unify(a, b)
	if err != nil {
		return Value{}, err
	}
	if b.AsU64() == 0 {
		return Value{}, &DivZeroError{}
	}
	if k == U64 {
		return mk(k, a.AsU64()/b.AsU64()), nil
	}
	return mk(k, uint64(a.AsI64()/b.AsI64())), nil
}

// And, Or are bitwise and never overflow.
func And(a, b Value) (Value, error) { return bitwise(a, b, func(x, y uint64) uint64 { return x & y }) }
func Or(a, b Value) (Value, error)  { return bitwise(a, b, func(x, y uint64) uint64 { return x | y }) }

func bitwise(a, b Value, f func(x, y uint64) uint64) (Value, error) {
	k, err := unify(a, b)
	if err != nil {
		return Value{}, err
	}
	return mk(k, f(a.bits, b.bits)), nil
}

// Shl is a logical left shift; Shr is arithmetic for I64/Integer, logical
// for U64. Both are unchecked: the shift amount is masked mod 64 (spec
// §4.4).
func Shl(a, b Value) (Value, error) {
	k, err := unify(a, b)
	if err != nil {
		return Value{}, err
	}
	amt := uint(b.AsU64() % 64)
	return mk(k, a.bits<<amt), nil
}

func Shr(a, b Value) (Value, error) {
	k, err := unify(a, b)
	if err != nil {
		return Value{}, err
	}
	amt := uint(b.AsU64() % 64)
	if k == U64 {
		return mk(k, a.AsU64()>>amt), nil
	}
	return mk(k, uint64(a.AsI64()>>amt)), nil
}

// Cmp implements ==, !=, <, <=, >, >=; comparisons never overflow and
// return an Integer 0 or 1.
func Cmp(op string, a, b Value) (Value, error) {
	k, err := unify(a, b)
	if err != nil {
		return Value{}, err
	}
	var res bool
	if k == U64 {
		x, y := a.AsU64(), b.AsU64()
		res = cmp(op, x, y)
	} else {
		x, y := a.AsI64(), b.AsI64()
		res = cmp(op, x, y)
	}
	if res {
		return NewInteger(1), nil
	}
	return NewInteger(0), nil
}

func cmp[T int64 | uint64](op string, x, y T) bool {
	switch op {
	case "==":
		return x == y
	case "!=":
		return x != y
	case "<":
		return x < y
	case "<=":
		return x <= y
	case ">":
		return x > y
	case ">=":
		return x >= y
	default:
		return false
	}
}

// LogicalAnd/LogicalOr implement && and ||, short-circuiting over zero/non-zero. The
// caller is responsible for not evaluating the right operand when it can
// be skipped; these simply combine two already-evaluated truthiness
// values.
func LogicalAnd(a, b Value) Value {
	if a.IsTruthy() && b.IsTruthy() {
		return NewInteger(1)
	}
	return NewInteger(0)
}

func LogicalOr(a, b Value) Value {
	if a.IsTruthy() || b.IsTruthy() {
		return NewInteger(1)
	}
	return NewInteger(0)
}

// ToU64 and ToI64 bitwise-reinterpret v's bits; they never error.
func ToU64(v Value) Value { return mk(U64, v.bits) }
func ToI64(v Value) Value { return mk(I64, v.bits) }
