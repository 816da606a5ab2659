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
	"testing"

	"stencilc/funcs"
	"stencilc/ir"
	"stencilc/schedule"
	"stencilc/types"
)

func TestFoldStorageNarrowsExplicitBound(t *testing.T) {
	f := funcs.New("cache")
	x := ir.NewVar("x", types.Int32)
	if err := f.Define([]string{"x"}, x); err != nil {
		t.Fatalf("Define: %v", err)
	}
	sched := schedule.New("cache", []string{"x"})
	consumer := schedule.New("consumer", []string{"x"})
	if err := sched.StoreAt(consumer, "x"); err != nil {
		t.Fatalf("StoreAt: %v", err)
	}
	if err := sched.Bound("x", ir.NewIntImm(0), ir.NewIntImm(2)); err != nil {
		t.Fatalf("Bound: %v", err)
	}

	p := NewPipeline("consumer")
	p.Add(f, sched)

	realize := &ir.Realize{
		Name:  "cache",
		Bounds: []ir.Range{{Min: ir.NewIntImm(0), Extent: ir.NewIntImm(100)}},
		Body:  &ir.Provide{Name: "cache", Values: []ir.Expr{x}, Indices: []ir.Expr{x}},
	}

	out := foldStorage(realize, p)
	re, ok := out.(*ir.Realize)
	if !ok {
		t.Fatalf("foldStorage result = %T, want *ir.Realize", out)
	}
	imm, ok := re.Bounds[0].Extent.(*ir.IntImm)
	if !ok || imm.Val != 2 {
		t.Fatalf("folded extent = %v, want constant 2 (the explicit Bound, narrower than the inferred 100)", re.Bounds[0].Extent)
	}
}

func TestFoldStorageLeavesRootAlone(t *testing.T) {
	f := funcs.New("g")
	x := ir.NewVar("x", types.Int32)
	if err := f.Define([]string{"x"}, x); err != nil {
		t.Fatalf("Define: %v", err)
	}
	sched := schedule.New("g", []string{"x"}) // default: StoreLevel = Root
	p := NewPipeline("g")
	p.Add(f, sched)

	realize := &ir.Realize{
		Name:   "g",
		Bounds: []ir.Range{{Min: ir.NewIntImm(0), Extent: ir.NewIntImm(100)}},
		Body:   &ir.Provide{Name: "g", Values: []ir.Expr{x}, Indices: []ir.Expr{x}},
	}
	out := foldStorage(realize, p)
	re, ok := out.(*ir.Realize)
	if !ok {
		t.Fatalf("foldStorage result = %T, want *ir.Realize", out)
	}
	imm, ok := re.Bounds[0].Extent.(*ir.IntImm)
	if !ok || imm.Val != 100 {
		t.Errorf("root-level extent changed to %v, want it left at 100", re.Bounds[0].Extent)
	}
}

func TestFoldStorageDoesNotWidenPastInferredExtent(t *testing.T) {
	f := funcs.New("cache")
	x := ir.NewVar("x", types.Int32)
	if err := f.Define([]string{"x"}, x); err != nil {
		t.Fatalf("Define: %v", err)
	}
	sched := schedule.New("cache", []string{"x"})
	consumer := schedule.New("consumer", []string{"x"})
	if err := sched.StoreAt(consumer, "x"); err != nil {
		t.Fatalf("StoreAt: %v", err)
	}
	// A Bound wider than the inferred extent must not widen storage.
	if err := sched.Bound("x", ir.NewIntImm(0), ir.NewIntImm(1000)); err != nil {
		t.Fatalf("Bound: %v", err)
	}
	p := NewPipeline("consumer")
	p.Add(f, sched)

	realize := &ir.Realize{
		Name:   "cache",
		Bounds: []ir.Range{{Min: ir.NewIntImm(0), Extent: ir.NewIntImm(3)}},
		Body:   &ir.Provide{Name: "cache", Values: []ir.Expr{x}, Indices: []ir.Expr{x}},
	}
	out := foldStorage(realize, p)
	re := out.(*ir.Realize)
	imm := re.Bounds[0].Extent.(*ir.IntImm)
	if imm.Val != 3 {
		t.Errorf("extent = %d, want it to stay at the narrower inferred value 3", imm.Val)
	}
}
