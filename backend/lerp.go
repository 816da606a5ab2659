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

package backend

import (
	"stencilc/cerr"
	"stencilc/ir"
	"stencilc/types"
)

// ExpandLerp rewrites every Intrinsic Call named "lerp" with args (zero,
// one, weight) into fixed-point interpolation, using the smallest unsigned
// integer width that can represent weight without precision loss, rounding
// to nearest.
//
// result = zero + ((one - zero) * weight + half) >> bits
//
// where weight is treated as a Q0.bits fixed-point fraction of [0, 1]
// (weight's own integer type already encodes its width), half = 1 <<
// (bits-1) rounds to nearest, and the shift divides by 2^bits exactly.
func ExpandLerp(stmt ir.Stmt) (ir.Stmt, error) {
	var convErr error
	out := ir.MutateStmt(stmt, nil, func(e ir.Expr) (ir.Expr, bool) {
		if convErr != nil {
			return e, false
		}
		call, ok := e.(*ir.Call)
		if !ok || call.Kind != ir.Intrinsic || call.Name != "lerp" {
			return e, false
		}
		v, err := expandLerpCall(call)
		if err != nil {
			convErr = err
			return e, false
		}
		return v, true
	})
	if convErr != nil {
		return nil, convErr
	}
	return out, nil
}

func expandLerpCall(call *ir.Call) (ir.Expr, error) {
	if len(call.Args) != 3 {
		return nil, cerr.Newf(cerr.ArityMismatch, call.String(), "lerp takes 3 args (zero, one, weight), got %d", len(call.Args))
	}
	zero, one, weight := call.Args[0], call.Args[1], call.Args[2]

	bits := weight.Type().Bits
	if weight.Type().Code != types.UInt && weight.Type().Code != types.Int {
		return nil, cerr.Newf(cerr.IRTypeError, call.String(), "lerp weight must be an integer fixed-point fraction, got %s", weight.Type())
	}

	span, err := ir.NewSub(one, zero)
	if err != nil {
		return nil, cerr.Wrap(cerr.IRTypeError, call.String(), err)
	}
	weighted, err := ir.NewMul(span, weight)
	if err != nil {
		return nil, cerr.Wrap(cerr.IRTypeError, call.String(), err)
	}
	half := ir.NewTypedIntImm(int64(1)<<uint(bits-1), weighted.Type())
	rounded, err := ir.NewAdd(weighted, half)
	if err != nil {
		return nil, cerr.Wrap(cerr.IRTypeError, call.String(), err)
	}
	divisor := ir.NewTypedIntImm(int64(1)<<uint(bits), weighted.Type())
	scaled, err := ir.NewDiv(rounded, divisor)
	if err != nil {
		return nil, cerr.Wrap(cerr.IRTypeError, call.String(), err)
	}
	result, err := ir.NewAdd(zero, scaled)
	if err != nil {
		return nil, cerr.Wrap(cerr.IRTypeError, call.String(), err)
	}
	return result, nil
}
