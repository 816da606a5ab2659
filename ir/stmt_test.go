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
	"testing"

	"stencilc/types"
)

func TestBlocksFlattensAndSkipsNil(t *testing.T) {
	a := &Evaluate{Expr: NewIntImm(1)}
	b := &Evaluate{Expr: NewIntImm(2)}
	got := Blocks(a, nil, b)
	block, ok := got.(*Block)
	if !ok {
		t.Fatalf("Blocks(a, nil, b) = %T, want *Block", got)
	}
	if block.First != Stmt(a) || block.Rest != Stmt(b) {
		t.Errorf("Blocks did not preserve order/skip nil: %+v", block)
	}
}

func TestBlocksSingleElement(t *testing.T) {
	a := &Evaluate{Expr: NewIntImm(1)}
	got := Blocks(a)
	if got != Stmt(a) {
		t.Errorf("Blocks(a) = %v, want a itself", got)
	}
}

func TestVisitStmtCollectsVars(t *testing.T) {
	x := NewVar("x", types.Int32)
	body := &Store{Buffer: "out", Index: x, Value: x}
	loop := &For{Name: "x", Min: NewIntImm(0), Extent: NewIntImm(10), ForType: Serial, Body: body}

	var names []string
	VisitStmt(loop, func(Stmt) {}, func(e Expr) {
		if v, ok := e.(*Var); ok {
			names = append(names, v.Name)
		}
	})
	if len(names) != 2 || names[0] != "x" || names[1] != "x" {
		t.Errorf("VisitStmt found vars %v, want [x x]", names)
	}
}

func TestMutateStmtRewritesNestedFor(t *testing.T) {
	x := NewVar("x", types.Int32)
	loop := &For{
		Name:    "x",
		Min:     NewIntImm(0),
		Extent:  NewIntImm(10),
		ForType: Serial,
		Body:    &Store{Buffer: "out", Index: x, Value: x},
	}

	renamed := MutateStmt(loop, nil, func(e Expr) (Expr, bool) {
		if v, ok := e.(*Var); ok && v.Name == "x" {
			return NewVar("i", v.Typ), true
		}
		return nil, false
	})

	f, ok := renamed.(*For)
	if !ok {
		t.Fatalf("MutateStmt returned %T, want *For", renamed)
	}
	store := f.Body.(*Store)
	if v, ok := store.Value.(*Var); !ok || v.Name != "i" {
		t.Errorf("MutateStmt did not rewrite inner Var, got %v", store.Value)
	}
	// The unmodified original must remain untouched (immutability).
	if orig, ok := loop.Body.(*Store).Value.(*Var); !ok || orig.Name != "x" {
		t.Error("MutateStmt mutated the original tree in place")
	}
}
