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

// Visit walks e and every expression reachable from it, in pre-order,
// invoking fn on each node. Exhaustive case analysis over the concrete
// Expr types drives recursion into children; leaf nodes simply invoke fn.
func Visit(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch n := e.(type) {
	case *IntImm, *UIntImm, *FloatImm, *StringImm, *Var:
		// leaves
	case *Cast:
		Visit(n.Value, fn)
	case *BinaryExpr:
		Visit(n.X, fn)
		Visit(n.Y, fn)
	case *Not:
		Visit(n.X, fn)
	case *Select:
		Visit(n.Cond, fn)
		Visit(n.T, fn)
		Visit(n.F, fn)
	case *Load:
		Visit(n.Index, fn)
	case *Ramp:
		Visit(n.Base, fn)
		Visit(n.Stride, fn)
	case *Broadcast:
		Visit(n.Value, fn)
	case *Let:
		Visit(n.Value, fn)
		Visit(n.Body, fn)
	case *Call:
		for _, a := range n.Args {
			Visit(a, fn)
		}
	default:
		panic("ir: Visit: unhandled Expr type")
	}
}

// Mutate walks e top-down, calling fn at each node before its children
// (fn never sees a node rebuilt from rewritten children). If fn returns
// (nil, false), the node's children are recursed into by default and a
// new node is built only if a child actually changed — otherwise the
// original node is returned unchanged, preserving the pointer identity
// Mutate-based fixed-point passes rely on for termination. If fn returns
// (replacement, true), Mutate returns replacement directly without
// recursing further.
func Mutate(e Expr, fn func(Expr) (Expr, bool)) Expr {
	if e == nil {
		return nil
	}
	if repl, handled := fn(e); handled {
		return repl
	}
	switch n := e.(type) {
	case *IntImm, *UIntImm, *FloatImm, *StringImm, *Var:
		return n
	case *Cast:
		v := Mutate(n.Value, fn)
		if v == n.Value {
			return n
		}
		return &Cast{Typ: n.Typ, Value: v}
	case *BinaryExpr:
		x := Mutate(n.X, fn)
		y := Mutate(n.Y, fn)
		if x == n.X && y == n.Y {
			return n
		}
		return &BinaryExpr{Op: n.Op, X: x, Y: y, Typ: n.Typ}
	case *Not:
		x := Mutate(n.X, fn)
		if x == n.X {
			return n
		}
		return &Not{X: x, Typ: n.Typ}
	case *Select:
		c := Mutate(n.Cond, fn)
		t := Mutate(n.T, fn)
		f := Mutate(n.F, fn)
		if c == n.Cond && t == n.T && f == n.F {
			return n
		}
		return &Select{Cond: c, T: t, F: f, Typ: n.Typ}
	case *Load:
		idx := Mutate(n.Index, fn)
		if idx == n.Index {
			return n
		}
		return &Load{Buffer: n.Buffer, Index: idx, Typ: n.Typ}
	case *Ramp:
		base := Mutate(n.Base, fn)
		stride := Mutate(n.Stride, fn)
		if base == n.Base && stride == n.Stride {
			return n
		}
		return &Ramp{Base: base, Stride: stride, Lanes: n.Lanes, Typ: n.Typ}
	case *Broadcast:
		v := Mutate(n.Value, fn)
		if v == n.Value {
			return n
		}
		return &Broadcast{Value: v, Lanes: n.Lanes, Typ: n.Typ}
	case *Let:
		v := Mutate(n.Value, fn)
		b := Mutate(n.Body, fn)
		if v == n.Value && b == n.Body {
			return n
		}
		return &Let{Name: n.Name, Value: v, Body: b}
	case *Call:
		args := mutateExprSlice(n.Args, fn)
		if sameSlice(args, n.Args) {
			return n
		}
		c := *n
		c.Args = args
		return &c
	default:
		panic("ir: Mutate: unhandled Expr type")
	}
}

func mutateExprSlice(es []Expr, fn func(Expr) (Expr, bool)) []Expr {
	out := make([]Expr, len(es))
	for i, e := range es {
		out[i] = Mutate(e, fn)
	}
	return out
}

func sameSlice(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
