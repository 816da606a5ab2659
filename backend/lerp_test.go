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
	"testing"

	"stencilc/ir"
	"stencilc/types"
)

func TestExpandLerpRewritesIntrinsicCall(t *testing.T) {
	zero := ir.NewTypedIntImm(0, types.UInt8)
	one := ir.NewTypedIntImm(255, types.UInt8)
	weight := ir.NewVar("w", types.UInt8)
	call := ir.NewCall("lerp", []ir.Expr{zero, one, weight}, ir.Intrinsic, types.UInt8)
	stmt := &ir.Evaluate{Expr: call}

	out, err := ExpandLerp(stmt)
	if err != nil {
		t.Fatalf("ExpandLerp: %v", err)
	}
	eval, ok := out.(*ir.Evaluate)
	if !ok {
		t.Fatalf("out = %T, want *ir.Evaluate", out)
	}
	if _, ok := eval.Expr.(*ir.Call); ok {
		t.Error("the lerp intrinsic call should have been replaced with fixed-point arithmetic")
	}
}

func TestExpandLerpLeavesOtherIntrinsicsAlone(t *testing.T) {
	call := ir.NewCall("gpu_texture_load", []ir.Expr{ir.NewStringImm("in")}, ir.Intrinsic, types.Int32)
	stmt := &ir.Evaluate{Expr: call}

	out, err := ExpandLerp(stmt)
	if err != nil {
		t.Fatalf("ExpandLerp: %v", err)
	}
	eval := out.(*ir.Evaluate)
	if _, ok := eval.Expr.(*ir.Call); !ok {
		t.Error("a non-lerp intrinsic call should be left untouched")
	}
}

func TestExpandLerpRejectsWrongArity(t *testing.T) {
	call := ir.NewCall("lerp", []ir.Expr{ir.NewIntImm(0), ir.NewIntImm(1)}, ir.Intrinsic, types.Int32)
	_, err := ExpandLerp(&ir.Evaluate{Expr: call})
	if err == nil {
		t.Fatal("expected an error for a lerp call with the wrong number of arguments")
	}
}
