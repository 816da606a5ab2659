// Copyright 2025 go-highway Authors
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

// Package types defines the scalar and vector type system shared by the
// IR, function, and scheduling layers: a Type is a (code, bits, lanes)
// triple plus the arithmetic promotion rules binary operators use to pick
// a result type.
package types

import "fmt"

// Code categorizes the representation of a scalar lane.
type Code int

const (
	Int Code = iota
	UInt
	Float
	Handle
)

// String returns a human-readable name for the Code.
func (c Code) String() string {
	switch c {
	case Int:
		return "int"
	case UInt:
		return "uint"
	case Float:
		return "float"
	case Handle:
		return "handle"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// validBits are the bit widths the type system accepts.
var validBits = map[int]bool{1: true, 8: true, 16: true, 32: true, 64: true}

// Type is (code, bits, lanes): a scalar or vector element type.
// Handle types are always 64 bits, 1 lane, and code Handle.
type Type struct {
	Code  Code
	Bits  int
	Lanes int
}

// New constructs a Type, panicking on a malformed combination. Construction
// is the only place malformed types are rejected; all other code treats a
// Type value as already valid.
func New(code Code, bits, lanes int) Type {
	if lanes < 1 {
		panic(fmt.Sprintf("types: lanes must be >= 1, got %d", lanes))
	}
	if code == Handle {
		if bits != 64 || lanes != 1 {
			panic("types: Handle must be 64 bits, 1 lane")
		}
	} else if !validBits[bits] {
		panic(fmt.Sprintf("types: invalid bit width %d", bits))
	}
	return Type{Code: code, Bits: bits, Lanes: lanes}
}

// Scalar constructs a 1-lane Type.
func Scalar(code Code, bits int) Type {
	return New(code, bits, 1)
}

// Common scalar types.
var (
	Bool     = Scalar(UInt, 1)
	Int8     = Scalar(Int, 8)
	Int16    = Scalar(Int, 16)
	Int32    = Scalar(Int, 32)
	Int64    = Scalar(Int, 64)
	UInt8    = Scalar(UInt, 8)
	UInt16   = Scalar(UInt, 16)
	UInt32   = Scalar(UInt, 32)
	UInt64   = Scalar(UInt, 64)
	Float32  = Scalar(Float, 32)
	Float64  = Scalar(Float, 64)
	HandleT  = New(Handle, 64, 1)
)

// WithLanes returns t with its lane count replaced.
func (t Type) WithLanes(lanes int) Type {
	return New(t.Code, t.Bits, lanes)
}

// WithCode returns t with its Code replaced, keeping bits/lanes.
func (t Type) WithCode(code Code) Type {
	return New(code, t.Bits, t.Lanes)
}

// IsScalar reports whether t has exactly one lane.
func (t Type) IsScalar() bool { return t.Lanes == 1 }

// IsVector reports whether t has more than one lane.
func (t Type) IsVector() bool { return t.Lanes > 1 }

// IsInt reports whether t is a signed or unsigned integer type.
func (t Type) IsInt() bool { return t.Code == Int || t.Code == UInt }

// IsFloat reports whether t is a floating-point type.
func (t Type) IsFloat() bool { return t.Code == Float }

// IsBool reports whether t is the canonical 1-bit mask/bool type.
func (t Type) IsBool() bool { return t.Code == UInt && t.Bits == 1 }

// Bytes returns the size in bytes of one lane, rounding sub-byte widths up.
func (t Type) Bytes() int {
	if t.Bits <= 8 {
		return 1
	}
	return t.Bits / 8
}

// Equal reports structural equality of two types.
func (t Type) Equal(o Type) bool {
	return t.Code == o.Code && t.Bits == o.Bits && t.Lanes == o.Lanes
}

// String renders a type in a compact form, e.g. "int32", "float32x8",
// "handle".
func (t Type) String() string {
	if t.Code == Handle {
		return "handle"
	}
	if t.Lanes == 1 {
		return fmt.Sprintf("%s%d", t.Code, t.Bits)
	}
	return fmt.Sprintf("%s%dx%d", t.Code, t.Bits, t.Lanes)
}

// Promote computes the result type of a binary arithmetic operator applied
// to a and b: lanes must already agree except that a scalar (1-lane)
// operand broadcasts to the other operand's lane count.
// Between differing numeric codes the wider/more general type wins: Float
// beats Int/UInt, and among integers the wider bit width wins, with mixed
// signedness at equal width resolving to the wider-signed convention
// (promote to Int if either operand is UInt at a narrower width, else keep
// the common width unsigned only if both are UInt).
func Promote(a, b Type) (Type, error) {
	lanes, err := promoteLanes(a, b)
	if err != nil {
		return Type{}, err
	}
	if a.Code == Handle || b.Code == Handle {
		if a.Code != b.Code {
			return Type{}, fmt.Errorf("types: cannot promote %s and %s", a, b)
		}
		return New(Handle, 64, lanes), nil
	}
	code, bits := promoteScalar(a, b)
	return New(code, bits, lanes), nil
}

func promoteLanes(a, b Type) (int, error) {
	switch {
	case a.Lanes == b.Lanes:
		return a.Lanes, nil
	case a.Lanes == 1:
		return b.Lanes, nil
	case b.Lanes == 1:
		return a.Lanes, nil
	default:
		return 0, fmt.Errorf("types: lane mismatch %d vs %d, neither operand is scalar", a.Lanes, b.Lanes)
	}
}

func promoteScalar(a, b Type) (Code, int) {
	if a.Code == Float || b.Code == Float {
		bits := a.Bits
		if b.Code == Float && b.Bits > bits {
			bits = b.Bits
		} else if a.Code != Float {
			bits = b.Bits
		}
		return Float, bits
	}
	bits := a.Bits
	if b.Bits > bits {
		bits = b.Bits
	}
	if a.Code == UInt && b.Code == UInt {
		return UInt, bits
	}
	return Int, bits
}
