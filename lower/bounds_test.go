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

package lower

import (
	"strings"
	"testing"

	"stencilc/cerr"
	"stencilc/ir"
	"stencilc/types"
)

func TestRegionRequiredSinglePointOffset(t *testing.T) {
	// A consumer loop "for x in [0, 10)" calling in(x+1, x): the required
	// region of in is x in [1, 10], y in [0, 9].
	x := ir.NewVar("x", types.Int32)
	xp1, err := ir.NewAdd(x, ir.NewIntImm(1))
	if err != nil {
		t.Fatalf("NewAdd: %v", err)
	}
	call := ir.NewCall("in", []ir.Expr{xp1, x}, ir.PureFunc, types.Int32)
	body := &ir.Evaluate{Expr: call}
	env := varIntervals{"x": {Lo: ir.NewIntImm(0), Hi: ir.NewIntImm(9)}}

	bounds, err := regionRequired("in", body, env)
	if err != nil {
		t.Fatalf("regionRequired: %v", err)
	}
	if len(bounds) != 2 {
		t.Fatalf("len(bounds) = %d, want 2", len(bounds))
	}
	if bounds[0].Min.String() != "1" {
		t.Errorf("dim0 min = %s, want 1", bounds[0].Min)
	}
	if bounds[0].Extent.String() != "10" {
		t.Errorf("dim0 extent = %s, want 10", bounds[0].Extent)
	}
	if bounds[1].Min.String() != "0" {
		t.Errorf("dim1 min = %s, want 0", bounds[1].Min)
	}
	if bounds[1].Extent.String() != "10" {
		t.Errorf("dim1 extent = %s, want 10", bounds[1].Extent)
	}
}

func TestRegionRequiredNoCallSitesFails(t *testing.T) {
	body := &ir.Evaluate{Expr: ir.NewIntImm(0)}
	_, err := regionRequired("in", body, varIntervals{})
	if err == nil {
		t.Fatal("regionRequired with no call sites should fail")
	}
	ce, ok := err.(*cerr.CompileError)
	if !ok || ce.Kind != cerr.BoundsInferenceFailure {
		t.Fatalf("err = %v, want a BoundsInferenceFailure CompileError", err)
	}
}

func TestInferBoundsUnionsMultipleCallSites(t *testing.T) {
	// A 3x3 box blur's horizontal pass calls in(x+dx, y) for dx in {-1,0,1};
	// the union across all three sites should span a 3-wide window.
	x := ir.NewVar("x", types.Int32)
	y := ir.NewVar("y", types.Int32)
	var calls []ir.Expr
	for _, dx := range []int64{-1, 0, 1} {
		shifted, err := ir.NewAdd(x, ir.NewIntImm(dx))
		if err != nil {
			t.Fatalf("NewAdd: %v", err)
		}
		calls = append(calls, ir.NewCall("in", []ir.Expr{shifted, y}, ir.PureFunc, types.Int32))
	}
	provide := &ir.Provide{Name: "blur_x", Values: calls, Indices: []ir.Expr{x, y}}
	inner := &ir.For{Name: "y", Min: ir.NewIntImm(0), Extent: ir.NewIntImm(8), Body: provide}
	loop := &ir.For{Name: "x", Min: ir.NewIntImm(0), Extent: ir.NewIntImm(8), Body: inner}
	realize := &ir.Realize{Name: "in", Bounds: []ir.Range{
		{Min: boundVar("in", "x", "min"), Extent: boundVar("in", "x", "extent")},
		{Min: boundVar("in", "y", "min"), Extent: boundVar("in", "y", "extent")},
	}, Body: loop}

	out, err := inferBounds(realize)
	if err != nil {
		t.Fatalf("inferBounds: %v", err)
	}
	re, ok := out.(*ir.Realize)
	if !ok {
		t.Fatalf("inferBounds result = %T, want *ir.Realize", out)
	}
	if !strings.Contains(re.Bounds[0].Min.String(), "-1") {
		t.Errorf("dim0 min = %s, want it to reflect the -1 shift", re.Bounds[0].Min)
	}
}
