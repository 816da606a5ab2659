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

package funcs

import (
	"strings"
	"testing"

	"stencilc/ir"
	"stencilc/types"
)

func TestReductionVariableMangling(t *testing.T) {
	dom := RDom(ir.NewIntImm(0), ir.NewIntImm(1000), "sum")
	if dom.Vars[0].Name != "sum.x$r" {
		t.Errorf("mangled name = %q, want %q", dom.Vars[0].Name, "sum.x$r")
	}
}

func TestMultiDimMangling(t *testing.T) {
	dom := NewReductionDomain("box", ir.NewIntImm(0), ir.NewIntImm(3), ir.NewIntImm(0), ir.NewIntImm(3))
	if dom.Vars[0].Name != "box.x$r" || dom.Vars[1].Name != "box.y$r" {
		t.Errorf("mangled names = %v", dom.Vars)
	}
}

func TestDefineSetsArity(t *testing.T) {
	f := New("f")
	x := ir.NewVar("x", types.Int32)
	if err := f.Define([]string{"x"}, x); err != nil {
		t.Fatalf("Define: %v", err)
	}
	if f.OutputArity() != 1 {
		t.Errorf("OutputArity() = %d, want 1", f.OutputArity())
	}
	if err := f.Define([]string{"x"}, x); err == nil {
		t.Fatal("second Define should fail")
	}
}

func TestUpdateArityMismatch(t *testing.T) {
	f := New("f")
	x := ir.NewVar("x", types.Int32)
	if err := f.Define([]string{"x"}, x); err != nil {
		t.Fatalf("Define: %v", err)
	}
	dom := RDom(ir.NewIntImm(0), ir.NewIntImm(10), "r")
	err := f.Update(dom, []ir.Expr{x}, x, x)
	if err == nil || !strings.Contains(err.Error(), "ArityMismatch") {
		t.Fatalf("Update with wrong arity: got %v, want ArityMismatch", err)
	}
}

func TestUpdateTypeMismatch(t *testing.T) {
	f := New("f")
	x := ir.NewVar("x", types.Int32)
	if err := f.Define([]string{"x"}, x); err != nil {
		t.Fatalf("Define: %v", err)
	}
	dom := RDom(ir.NewIntImm(0), ir.NewIntImm(10), "r")
	fx := ir.NewVar("fx", types.Float32)
	if err := f.Update(dom, []ir.Expr{x}, fx); err == nil {
		t.Fatal("Update with mismatched output type should fail")
	}
}

func TestCallBeforeDefineFails(t *testing.T) {
	f := New("f")
	if _, err := f.Call(nil, 0); err == nil {
		t.Fatal("Call before Define should fail")
	}
}

func TestReductionSumExample(t *testing.T) {
	// f(x) = 0; f(x) += in(r) for r in [0, 1000).
	in := New("in")
	r := ir.NewVar("r_in", types.Int32)
	if err := in.Define([]string{"r"}, r); err != nil {
		t.Fatalf("Define in: %v", err)
	}

	f := New("f")
	x := ir.NewVar("x", types.Int32)
	zero := ir.NewIntImm(0)
	if err := f.Define([]string{"x"}, zero); err != nil {
		t.Fatalf("Define f: %v", err)
	}

	dom := RDom(ir.NewIntImm(0), ir.NewIntImm(1000), "r")
	rVar := dom.Var(0)
	inCall, err := in.Call([]ir.Expr{rVar}, 0)
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
	if len(f.Updates) != 1 {
		t.Fatalf("len(Updates) = %d, want 1", len(f.Updates))
	}
}
