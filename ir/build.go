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

package ir

import (
	"stencilc/cerr"
	"stencilc/types"
)

// Every constructor in this file is a node-construction entry point: it
// type-checks its operands, performs simple algebraic canonicalization
// (constant folding, identity elimination, Sub-as-negated-Add
// normalization), and consults the package hash-cons table so that
// structurally-identical literal and Var nodes share one allocation.
// Construction never fails except with a *cerr.CompileError of Kind
// IRTypeError; unbound variables are a lowering-time concern, not a
// construction-time one.

// NewIntImm returns an IntImm of type types.Int32, hash-consed by value.
func NewIntImm(v int64) Expr { return NewTypedIntImm(v, types.Int32) }

// NewTypedIntImm returns an IntImm of an explicit integer type.
func NewTypedIntImm(v int64, t types.Type) Expr {
	if !t.IsInt() {
		panic("ir: NewTypedIntImm requires an integer Type")
	}
	return internIntImm(v, t)
}

func NewUIntImm(v uint64, t types.Type) Expr {
	if t.Code != types.UInt {
		panic("ir: NewUIntImm requires a UInt Type")
	}
	return internUIntImm(v, t)
}

// NewFloatImm returns a FloatImm of type types.Float32.
func NewFloatImm(v float64) Expr { return NewTypedFloatImm(v, types.Float32) }

func NewTypedFloatImm(v float64, t types.Type) Expr {
	if !t.IsFloat() {
		panic("ir: NewTypedFloatImm requires a Float Type")
	}
	return internFloatImm(v, t)
}

func NewStringImm(s string) Expr { return &StringImm{Val: s} }

// NewVar returns a Var node, hash-consed on (name, type).
func NewVar(name string, t types.Type) Expr { return internVar(name, t) }

// NewCast casts value to t. Casting to value's own type is an identity and
// returns value unchanged; casting an immediate folds at compile time.
func NewCast(t types.Type, value Expr) Expr {
	if value.Type().Equal(t) {
		return value
	}
	switch v := value.(type) {
	case *IntImm:
		if t.IsInt() {
			return NewTypedIntImm(v.Val, t)
		}
		if t.IsFloat() {
			return NewTypedFloatImm(float64(v.Val), t)
		}
	case *FloatImm:
		if t.IsFloat() {
			return NewTypedFloatImm(v.Val, t)
		}
		if t.IsInt() {
			return NewTypedIntImm(int64(v.Val), t)
		}
	}
	return &Cast{Typ: t, Value: value}
}

// binary is the shared constructor for all arithmetic/compare/logical/min-
// max operators: it promotes operand types, folds constant operands, and
// eliminates the additive/multiplicative identities.
func binary(op Op, a, b Expr) (Expr, error) {
	resultType, err := resultTypeFor(op, a, b)
	if err != nil {
		return nil, err
	}
	if folded := foldConstBinary(op, a, b, resultType); folded != nil {
		return folded, nil
	}
	if simplified := simplifyIdentity(op, a, b, resultType); simplified != nil {
		return simplified, nil
	}
	// Normalize Sub to Add with a negated literal operand when possible.
	if op == OpSub {
		if neg, ok := negateLiteral(b); ok {
			return binary(OpAdd, a, neg)
		}
	}
	return &BinaryExpr{Op: op, X: a, Y: b, Typ: resultType}, nil
}

func resultTypeFor(op Op, a, b Expr) (types.Type, error) {
	if op.isLogical() {
		if !a.Type().IsBool() || !b.Type().IsBool() {
			return types.Type{}, cerr.Newf(cerr.IRTypeError, "", "logical op %s requires bool operands, got %s and %s", op, a.Type(), b.Type())
		}
		return a.Type(), nil
	}
	promoted, err := types.Promote(a.Type(), b.Type())
	if err != nil {
		return types.Type{}, cerr.Wrap(cerr.IRTypeError, "", err)
	}
	if op.isComparison() {
		return maskType(promoted), nil
	}
	return promoted, nil
}

// maskType returns the boolean mask type with the same lane count as t.
func maskType(t types.Type) types.Type { return types.Bool.WithLanes(t.Lanes) }

// NewAdd, NewSub, ... perform type-checked, canonicalized construction of
// each binary operator.
func NewAdd(a, b Expr) (Expr, error) { return binary(OpAdd, a, b) }
func NewSub(a, b Expr) (Expr, error) { return binary(OpSub, a, b) }
func NewMul(a, b Expr) (Expr, error) { return binary(OpMul, a, b) }
func NewDiv(a, b Expr) (Expr, error) { return binary(OpDiv, a, b) }
func NewMod(a, b Expr) (Expr, error) { return binary(OpMod, a, b) }
func NewEQ(a, b Expr) (Expr, error)  { return binary(OpEQ, a, b) }
func NewNE(a, b Expr) (Expr, error)  { return binary(OpNE, a, b) }
func NewLT(a, b Expr) (Expr, error)  { return binary(OpLT, a, b) }
func NewLE(a, b Expr) (Expr, error)  { return binary(OpLE, a, b) }
func NewGT(a, b Expr) (Expr, error)  { return binary(OpGT, a, b) }
func NewGE(a, b Expr) (Expr, error)  { return binary(OpGE, a, b) }
func NewMin(a, b Expr) (Expr, error) { return binary(OpMin, a, b) }
func NewMax(a, b Expr) (Expr, error) { return binary(OpMax, a, b) }

// NewAnd and NewOr require bool-typed (mask) operands; use NewEQ etc. to
// produce one.
func NewAnd(a, b Expr) (Expr, error) { return binary(OpAnd, a, b) }
func NewOr(a, b Expr) (Expr, error)  { return binary(OpOr, a, b) }

// NewNot negates a bool-typed expression.
func NewNot(a Expr) (Expr, error) {
	if !a.Type().IsBool() {
		return nil, cerr.Newf(cerr.IRTypeError, a.String(), "Not requires a bool operand, got %s", a.Type())
	}
	if b, ok := a.(*BinaryExpr); ok {
		if inv, ok := invert(b.Op); ok {
			return &BinaryExpr{Op: inv, X: b.X, Y: b.Y, Typ: b.Typ}, nil
		}
	}
	return &Not{X: a, Typ: a.Type()}, nil
}

func invert(op Op) (Op, bool) {
	switch op {
	case OpEQ:
		return OpNE, true
	case OpNE:
		return OpEQ, true
	case OpLT:
		return OpGE, true
	case OpLE:
		return OpGT, true
	case OpGT:
		return OpLE, true
	case OpGE:
		return OpLT, true
	default:
		return 0, false
	}
}

// NewSelect constructs a Select(cond, t, f), requiring a bool-typed
// condition and equal-type branches.
func NewSelect(cond, t, f Expr) (Expr, error) {
	if !cond.Type().IsBool() {
		return nil, cerr.Newf(cerr.IRTypeError, cond.String(), "Select condition must be bool, got %s", cond.Type())
	}
	if !t.Type().Equal(f.Type()) {
		return nil, cerr.Newf(cerr.IRTypeError, "", "Select branches must agree: %s vs %s", t.Type(), f.Type())
	}
	if c, ok := cond.(*UIntImm); ok {
		if c.Val != 0 {
			return t, nil
		}
		return f, nil
	}
	return &Select{Cond: cond, T: t, F: f, Typ: t.Type()}, nil
}

// NewLoad constructs a Load of type t from buffer at index, which must be
// an integer-typed expression.
func NewLoad(buffer string, index Expr, t types.Type) (Expr, error) {
	if !index.Type().IsInt() {
		return nil, cerr.Newf(cerr.IRTypeError, index.String(), "Load index must be integer, got %s", index.Type())
	}
	return &Load{Buffer: buffer, Index: index, Typ: t}, nil
}

// NewRamp constructs Ramp(base, stride, lanes); base and stride must share
// a scalar integer or float type.
func NewRamp(base, stride Expr, lanes int) (Expr, error) {
	if lanes < 1 {
		return nil, cerr.Newf(cerr.IRTypeError, "", "Ramp lanes must be >= 1, got %d", lanes)
	}
	if !base.Type().IsScalar() || !stride.Type().IsScalar() {
		return nil, cerr.Newf(cerr.IRTypeError, "", "Ramp base/stride must be scalar")
	}
	if !base.Type().Equal(stride.Type()) {
		return nil, cerr.Newf(cerr.IRTypeError, "", "Ramp base/stride type mismatch: %s vs %s", base.Type(), stride.Type())
	}
	return &Ramp{Base: base, Stride: stride, Lanes: lanes, Typ: base.Type().WithLanes(lanes)}, nil
}

// NewBroadcast replicates a scalar value into lanes lanes.
func NewBroadcast(value Expr, lanes int) (Expr, error) {
	if lanes < 1 {
		return nil, cerr.Newf(cerr.IRTypeError, "", "Broadcast lanes must be >= 1, got %d", lanes)
	}
	if !value.Type().IsScalar() {
		return nil, cerr.Newf(cerr.IRTypeError, value.String(), "Broadcast value must be scalar, got %s", value.Type())
	}
	if lanes == 1 {
		return value, nil
	}
	return &Broadcast{Value: value, Lanes: lanes, Typ: value.Type().WithLanes(lanes)}, nil
}

// NewLet constructs a Let binding name to value within body.
func NewLet(name string, value Expr, body Expr) Expr {
	return &Let{Name: name, Value: value, Body: body}
}

// CallOption configures optional Call fields.
type CallOption func(*Call)

func WithFuncRef(ref any) CallOption    { return func(c *Call) { c.FuncRef = ref } }
func WithValueIndex(i int) CallOption   { return func(c *Call) { c.ValueIndex = i } }
func WithImage(isImage bool) CallOption { return func(c *Call) { c.Image = isImage } }
func WithParam(isParam bool) CallOption { return func(c *Call) { c.Param = isParam } }

// NewCall constructs a Call node: a single variadic builder, taking a
// return type and a heterogeneous argument tuple, covers every call
// arity and kind (pure function, intrinsic, or extern) with one
// constructor instead of a family of fixed-arity helpers.
func NewCall(name string, args []Expr, kind CallKind, t types.Type, opts ...CallOption) Expr {
	c := &Call{Name: name, Args: args, Kind: kind, Typ: t}
	for _, o := range opts {
		o(c)
	}
	return c
}
