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

// VisitStmt walks s and every statement and expression reachable from it,
// pre-order. exprFn (may be nil) is invoked on every Expr encountered;
// stmtFn (may be nil) is invoked on every Stmt.
func VisitStmt(s Stmt, stmtFn func(Stmt), exprFn func(Expr)) {
	if s == nil {
		return
	}
	if stmtFn != nil {
		stmtFn(s)
	}
	visitExpr := func(e Expr) {
		if exprFn != nil {
			Visit(e, exprFn)
		}
	}
	switch n := s.(type) {
	case *LetStmt:
		visitExpr(n.Value)
		VisitStmt(n.Body, stmtFn, exprFn)
	case *AssertStmt:
		visitExpr(n.Cond)
	case *For:
		visitExpr(n.Min)
		visitExpr(n.Extent)
		VisitStmt(n.Body, stmtFn, exprFn)
	case *Store:
		visitExpr(n.Index)
		visitExpr(n.Value)
	case *Provide:
		for _, v := range n.Values {
			visitExpr(v)
		}
		for _, i := range n.Indices {
			visitExpr(i)
		}
	case *Allocate:
		for _, e := range n.Extents {
			visitExpr(e)
		}
		VisitStmt(n.Body, stmtFn, exprFn)
	case *Free:
		// leaf
	case *Realize:
		for _, b := range n.Bounds {
			visitExpr(b.Min)
			visitExpr(b.Extent)
		}
		VisitStmt(n.Body, stmtFn, exprFn)
	case *Block:
		VisitStmt(n.First, stmtFn, exprFn)
		VisitStmt(n.Rest, stmtFn, exprFn)
	case *IfThenElse:
		visitExpr(n.Cond)
		VisitStmt(n.Then, stmtFn, exprFn)
		VisitStmt(n.Else, stmtFn, exprFn)
	case *Evaluate:
		visitExpr(n.Expr)
	default:
		panic("ir: VisitStmt: unhandled Stmt type")
	}
}

// MutateStmt walks s top-down like Mutate, but over the statement tree.
// exprFn rewrites every Expr reachable from s (pass nil to leave
// expressions untouched); stmtFn may replace a Stmt wholesale by returning
// (replacement, true), matching Mutate's contract.
func MutateStmt(s Stmt, stmtFn func(Stmt) (Stmt, bool), exprFn func(Expr) (Expr, bool)) Stmt {
	if s == nil {
		return nil
	}
	if stmtFn != nil {
		if repl, handled := stmtFn(s); handled {
			return repl
		}
	}
	me := func(e Expr) Expr {
		if exprFn == nil {
			return e
		}
		return Mutate(e, exprFn)
	}
	switch n := s.(type) {
	case *LetStmt:
		v := me(n.Value)
		b := MutateStmt(n.Body, stmtFn, exprFn)
		if v == n.Value && b == n.Body {
			return n
		}
		return &LetStmt{Name: n.Name, Value: v, Body: b}
	case *AssertStmt:
		c := me(n.Cond)
		if c == n.Cond {
			return n
		}
		return &AssertStmt{Cond: c, Message: n.Message}
	case *For:
		min := me(n.Min)
		ext := me(n.Extent)
		body := MutateStmt(n.Body, stmtFn, exprFn)
		if min == n.Min && ext == n.Extent && body == n.Body {
			return n
		}
		return &For{Name: n.Name, Min: min, Extent: ext, ForType: n.ForType, Device: n.Device, Body: body}
	case *Store:
		idx := me(n.Index)
		val := me(n.Value)
		if idx == n.Index && val == n.Value {
			return n
		}
		return &Store{Buffer: n.Buffer, Index: idx, Value: val}
	case *Provide:
		values := mutateExprSlice(n.Values, orIdentity(exprFn))
		indices := mutateExprSlice(n.Indices, orIdentity(exprFn))
		if sameSlice(values, n.Values) && sameSlice(indices, n.Indices) {
			return n
		}
		return &Provide{Name: n.Name, Values: values, Indices: indices}
	case *Allocate:
		extents := mutateExprSlice(n.Extents, orIdentity(exprFn))
		body := MutateStmt(n.Body, stmtFn, exprFn)
		if sameSlice(extents, n.Extents) && body == n.Body {
			return n
		}
		return &Allocate{Name: n.Name, Typ: n.Typ, Extents: extents, Body: body}
	case *Free:
		return n
	case *Realize:
		bounds := make([]Range, len(n.Bounds))
		changed := false
		for i, b := range n.Bounds {
			min := me(b.Min)
			ext := me(b.Extent)
			bounds[i] = Range{Min: min, Extent: ext}
			if min != b.Min || ext != b.Extent {
				changed = true
			}
		}
		body := MutateStmt(n.Body, stmtFn, exprFn)
		if !changed && body == n.Body {
			return n
		}
		return &Realize{Name: n.Name, Bounds: bounds, Body: body}
	case *Block:
		first := MutateStmt(n.First, stmtFn, exprFn)
		rest := MutateStmt(n.Rest, stmtFn, exprFn)
		if first == n.First && rest == n.Rest {
			return n
		}
		return &Block{First: first, Rest: rest}
	case *IfThenElse:
		cond := me(n.Cond)
		then := MutateStmt(n.Then, stmtFn, exprFn)
		els := MutateStmt(n.Else, stmtFn, exprFn)
		if cond == n.Cond && then == n.Then && els == n.Else {
			return n
		}
		return &IfThenElse{Cond: cond, Then: then, Else: els}
	case *Evaluate:
		e := me(n.Expr)
		if e == n.Expr {
			return n
		}
		return &Evaluate{Expr: e}
	default:
		panic("ir: MutateStmt: unhandled Stmt type")
	}
}

// orIdentity adapts a possibly-nil Expr rewrite function to the signature
// mutateExprSlice expects, treating nil as "leave every node as-is".
func orIdentity(fn func(Expr) (Expr, bool)) func(Expr) (Expr, bool) {
	if fn != nil {
		return fn
	}
	return func(e Expr) (Expr, bool) { return e, true }
}
