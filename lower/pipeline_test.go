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
	"context"
	"testing"

	"stencilc/funcs"
	"stencilc/ir"
	"stencilc/schedule"
	"stencilc/types"
)

// buildReductionSumPipeline mirrors funcs.TestReductionSumExample:
// f(x) = 0; f(x) += in(r) for r in [0, 1000).
func buildReductionSumPipeline(t *testing.T) *Pipeline {
	t.Helper()
	in := funcs.New("in")
	rIn := ir.NewVar("r_in", types.Int32)
	if err := in.Define([]string{"r"}, rIn); err != nil {
		t.Fatalf("Define in: %v", err)
	}

	f := funcs.New("f")
	x := ir.NewVar("x", types.Int32)
	if err := f.Define([]string{"x"}, ir.NewIntImm(0)); err != nil {
		t.Fatalf("Define f: %v", err)
	}
	dom := funcs.RDom(ir.NewIntImm(0), ir.NewIntImm(1000), "r")
	inCall, err := in.Call([]ir.Expr{dom.Var(0)}, 0)
	if err != nil {
		t.Fatalf("in.Call: %v", err)
	}
	current, err := f.Call([]ir.Expr{x}, 0)
	if err != nil {
		t.Fatalf("f.Call: %v", err)
	}
	sum, err := ir.NewAdd(current, inCall)
	if err != nil {
		t.Fatalf("NewAdd: %v", err)
	}
	if err := f.Update(dom, []ir.Expr{x}, sum); err != nil {
		t.Fatalf("Update: %v", err)
	}

	p := NewPipeline("f")
	p.Add(in, schedule.New("in", []string{"r"}))
	p.Add(f, schedule.New("f", []string{"x"}))
	return p
}

func TestLowerReductionSumEndToEnd(t *testing.T) {
	p := buildReductionSumPipeline(t)
	rootBounds := []ir.Range{{Min: ir.NewIntImm(0), Extent: ir.NewIntImm(1)}}

	stmt, err := Lower(p, rootBounds)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if stmt == nil {
		t.Fatal("Lower returned a nil Stmt")
	}

	var allocNames []string
	var storeBuffers []string
	var sawAssert bool
	ir.VisitStmt(stmt, func(s ir.Stmt) {
		switch n := s.(type) {
		case *ir.Allocate:
			allocNames = append(allocNames, n.Name)
		case *ir.Store:
			storeBuffers = append(storeBuffers, n.Buffer)
		case *ir.AssertStmt:
			sawAssert = true
		case *ir.Realize:
			t.Errorf("a fully lowered Stmt should have no remaining Realize nodes, found one for %q", n.Name)
		case *ir.Provide:
			t.Errorf("a fully lowered Stmt should have no remaining Provide nodes, found one for %q", n.Name)
		}
	}, nil)

	foundIn := false
	for _, n := range allocNames {
		if n == "in" {
			foundIn = true
		}
	}
	if !foundIn {
		t.Errorf("allocations = %v, want an allocation for %q", allocNames, "in")
	}
	foundFStore := false
	for _, b := range storeBuffers {
		if b == "f" {
			foundFStore = true
		}
	}
	if !foundFStore {
		t.Errorf("stores = %v, want a store to the root buffer %q", storeBuffers, "f")
	}
	if !sawAssert {
		t.Error("lowering an Allocate should inject at least one allocation-size assertion")
	}
}

func TestLowerMissingRootFails(t *testing.T) {
	p := NewPipeline("nonexistent")
	_, err := Lower(p, nil)
	if err == nil {
		t.Fatal("Lower should fail when the pipeline's root function is not registered")
	}
}

func TestLowerRootBoundsArityMismatch(t *testing.T) {
	p := buildReductionSumPipeline(t)
	_, err := Lower(p, nil)
	if err == nil {
		t.Fatal("Lower should fail when rootBounds doesn't match the root function's dimensionality")
	}
}

func TestLowerAllRunsPipelinesConcurrently(t *testing.T) {
	p1 := buildReductionSumPipeline(t)
	p2 := buildReductionSumPipeline(t)
	bounds := []ir.Range{{Min: ir.NewIntImm(0), Extent: ir.NewIntImm(1)}}

	results, err := LowerAll(context.Background(), []*Pipeline{p1, p2}, [][]ir.Range{bounds, bounds})
	if err != nil {
		t.Fatalf("LowerAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	for i, r := range results {
		if r == nil {
			t.Errorf("results[%d] is nil", i)
		}
	}
}

func TestBindRootBounds(t *testing.T) {
	f := &funcs.Func{Name: "f", PureVars: []string{"x", "y"}}
	bounds := []ir.Range{
		{Min: ir.NewIntImm(0), Extent: ir.NewIntImm(10)},
		{Min: ir.NewIntImm(1), Extent: ir.NewIntImm(20)},
	}
	stmt := bindRootBounds(f, bounds, &ir.Evaluate{Expr: ir.NewIntImm(0)})

	names := map[string]bool{}
	cur := stmt
	for {
		let, ok := cur.(*ir.LetStmt)
		if !ok {
			break
		}
		names[let.Name] = true
		cur = let.Body
	}
	for _, want := range []string{"f.x.min", "f.x.extent", "f.y.min", "f.y.extent"} {
		if !names[want] {
			t.Errorf("bindRootBounds didn't bind %q", want)
		}
	}
}
