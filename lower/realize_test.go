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

func TestFlattenIndexRowMajor(t *testing.T) {
	bounds := []ir.Range{
		{Min: ir.NewIntImm(0), Extent: ir.NewIntImm(10)},
		{Min: ir.NewIntImm(0), Extent: ir.NewIntImm(20)},
	}
	coords := []ir.Expr{ir.NewIntImm(3), ir.NewIntImm(5)}
	idx, err := flattenIndex(coords, bounds)
	if err != nil {
		t.Fatalf("flattenIndex: %v", err)
	}
	imm, ok := idx.(*ir.IntImm)
	if !ok {
		t.Fatalf("flattenIndex result = %v, want a folded constant", idx)
	}
	// Row-major: the last dim varies fastest, so dim 0's stride is dim 1's
	// extent (20) and index = coord[0]*20 + coord[1] = 3*20 + 5 = 65.
	if imm.Val != 65 {
		t.Errorf("flattenIndex = %d, want 65", imm.Val)
	}
}

func TestFlattenIndexEmpty(t *testing.T) {
	idx, err := flattenIndex(nil, nil)
	if err != nil {
		t.Fatalf("flattenIndex: %v", err)
	}
	imm, ok := idx.(*ir.IntImm)
	if !ok || imm.Val != 0 {
		t.Errorf("flattenIndex(nil, nil) = %v, want constant 0", idx)
	}
}

func TestRealizeToAllocateConvertsProvideAndCall(t *testing.T) {
	f := funcs.New("cache")
	x := ir.NewVar("x", types.Int32)
	if err := f.Define([]string{"x"}, x); err != nil {
		t.Fatalf("Define: %v", err)
	}
	sched := schedule.New("cache", []string{"x"})
	p := NewPipeline("cache")
	p.Add(f, sched)

	call, err := f.Call([]ir.Expr{x}, 0)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	// realize cache(x) { cache[x] = x; <consumer uses cache(x)> }
	provide := &ir.Provide{Name: "cache", Values: []ir.Expr{x}, Indices: []ir.Expr{x}}
	consumerUse := &ir.Evaluate{Expr: call}
	realize := &ir.Realize{
		Name:   "cache",
		Bounds: []ir.Range{{Min: ir.NewIntImm(0), Extent: ir.NewIntImm(16)}},
		Body:   ir.Blocks(provide, consumerUse),
	}

	out, err := realizeToAllocate(realize, p)
	if err != nil {
		t.Fatalf("realizeToAllocate: %v", err)
	}
	alloc, ok := out.(*ir.Allocate)
	if !ok {
		t.Fatalf("result = %T, want *ir.Allocate", out)
	}
	if alloc.Name != "cache" || len(alloc.Extents) != 1 {
		t.Fatalf("alloc = %+v", alloc)
	}
	if !alloc.Typ.Equal(types.Int32) {
		t.Errorf("alloc.Typ = %s, want Int32", alloc.Typ)
	}

	block, ok := alloc.Body.(*ir.Block)
	if !ok {
		t.Fatalf("alloc.Body = %T, want *ir.Block", alloc.Body)
	}
	store, ok := block.First.(*ir.Store)
	if !ok || store.Buffer != "cache" {
		t.Fatalf("first stmt = %v, want a Store to cache", block.First)
	}
	eval, ok := block.Rest.(*ir.Evaluate)
	if !ok {
		t.Fatalf("second stmt = %T, want *ir.Evaluate", block.Rest)
	}
	if _, ok := eval.Expr.(*ir.Load); !ok {
		t.Fatalf("consumer expr = %T, want it lowered to *ir.Load", eval.Expr)
	}
}

func TestLowerRootProvide(t *testing.T) {
	root := &funcs.Func{Name: "out"}
	x := ir.NewVar("x", types.Int32)
	provide := &ir.Provide{Name: "out", Values: []ir.Expr{x}, Indices: []ir.Expr{x}}
	bounds := []ir.Range{{Min: ir.NewIntImm(0), Extent: ir.NewIntImm(100)}}

	out, err := lowerRootProvide(provide, root, bounds)
	if err != nil {
		t.Fatalf("lowerRootProvide: %v", err)
	}
	store, ok := out.(*ir.Store)
	if !ok || store.Buffer != "out" {
		t.Fatalf("result = %v, want a Store to out", out)
	}
}
