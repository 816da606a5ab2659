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

import "stencilc/types"

// foldConstBinary evaluates op(a, b) at compile time when both operands are
// immediates, returning nil when folding doesn't apply.
func foldConstBinary(op Op, a, b Expr, resultType types.Type) Expr {
	ai, aIsInt := a.(*IntImm)
	bi, bIsInt := b.(*IntImm)
	if aIsInt && bIsInt {
		if op.isComparison() {
			return boolImm(compareInts(op, ai.Val, bi.Val), resultType)
		}
		if v, ok := foldIntArith(op, ai.Val, bi.Val); ok {
			return internIntImm(v, resultType)
		}
		return nil
	}

	af, aIsFloat := a.(*FloatImm)
	bf, bIsFloat := b.(*FloatImm)
	if aIsFloat && bIsFloat {
		if op.isComparison() {
			return boolImm(compareFloats(op, af.Val, bf.Val), resultType)
		}
		if v, ok := foldFloatArith(op, af.Val, bf.Val); ok {
			return internFloatImm(v, resultType)
		}
	}
	return nil
}

func boolImm(v bool, t types.Type) Expr {
	var u uint64
	if v {
		u = 1
	}
	return internUIntImm(u, t)
}

func foldIntArith(op Op, a, b int64) (int64, bool) {
	switch op {
	case OpAdd:
		return a + b, true
	case OpSub:
		return a - b, true
	case OpMul:
		return a * b, true
	case OpDiv:
		if b == 0 {
			return 0, false
		}
		return euclideanDiv(a, b), true
	case OpMod:
		if b == 0 {
			return 0, false
		}
		return euclideanMod(a, b), true
	case OpMin:
		return min(a, b), true
	case OpMax:
		return max(a, b), true
	default:
		return 0, false
	}
}

// euclideanDiv and euclideanMod implement floor-division semantics for
// integer Div/Mod: reduction-domain and loop-bound arithmetic assumes a
// non-negative remainder, unlike Go's truncating /,%.
func euclideanDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func euclideanMod(a, b int64) int64 {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

func foldFloatArith(op Op, a, b float64) (float64, bool) {
	switch op {
	case OpAdd:
		return a + b, true
	case OpSub:
		return a - b, true
	case OpMul:
		return a * b, true
	case OpDiv:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case OpMin:
		return min(a, b), true
	case OpMax:
		return max(a, b), true
	default:
		return 0, false
	}
}

func compareInts(op Op, a, b int64) bool {
	switch op {
	case OpEQ:
		return a == b
	case OpNE:
		return a != b
	case OpLT:
		return a < b
	case OpLE:
		return a <= b
	case OpGT:
		return a > b
	case OpGE:
		return a >= b
	default:
		return false
	}
}

func compareFloats(op Op, a, b float64) bool {
	switch op {
	case OpEQ:
		return a == b
	case OpNE:
		return a != b
	case OpLT:
		return a < b
	case OpLE:
		return a <= b
	case OpGT:
		return a > b
	case OpGE:
		return a >= b
	default:
		return false
	}
}

// simplifyIdentity eliminates identity operations: x+0, x-0, x*1, x*0,
// x/1, 0+x, 1*x.
func simplifyIdentity(op Op, a, b Expr, resultType types.Type) Expr {
	switch op {
	case OpAdd:
		if isZero(b) {
			return recast(a, resultType)
		}
		if isZero(a) {
			return recast(b, resultType)
		}
	case OpSub:
		if isZero(b) {
			return recast(a, resultType)
		}
	case OpMul:
		if isOne(b) {
			return recast(a, resultType)
		}
		if isOne(a) {
			return recast(b, resultType)
		}
		if isZero(a) || isZero(b) {
			return zeroOf(resultType)
		}
	case OpDiv:
		if isOne(b) {
			return recast(a, resultType)
		}
	}
	return nil
}

// recast reuses e directly when its type already matches t (preserving
// node identity for Mutate's structural-sharing check), and otherwise
// wraps it in a Cast.
func recast(e Expr, t types.Type) Expr {
	if e.Type().Equal(t) {
		return e
	}
	return NewCast(t, e)
}

func zeroOf(t types.Type) Expr {
	if t.IsFloat() {
		return internFloatImm(0, t)
	}
	return internIntImm(0, t)
}

func isZero(e Expr) bool {
	switch v := e.(type) {
	case *IntImm:
		return v.Val == 0
	case *UIntImm:
		return v.Val == 0
	case *FloatImm:
		return v.Val == 0
	default:
		return false
	}
}

func isOne(e Expr) bool {
	switch v := e.(type) {
	case *IntImm:
		return v.Val == 1
	case *UIntImm:
		return v.Val == 1
	case *FloatImm:
		return v.Val == 1
	default:
		return false
	}
}

// negateLiteral returns (-e, true) when e is a literal that can be negated
// in place, used to normalize Sub(a,b) into Add(a, -b).
func negateLiteral(e Expr) (Expr, bool) {
	switch v := e.(type) {
	case *IntImm:
		return internIntImm(-v.Val, v.Typ), true
	case *FloatImm:
		return internFloatImm(-v.Val, v.Typ), true
	default:
		return nil, false
	}
}
