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
	"stencilc/cerr"
	"stencilc/ir"
)

// vectorizeLoops replaces vectorized loops with a single wide-lane
// iteration: every For marked ir.Vectorized with a constant extent is
// replaced by its body with the loop variable rewritten to a Ramp of
// that width, and the loop itself dropped — a single vector-width
// iteration standing in for the whole extent.
func vectorizeLoops(stmt ir.Stmt) (ir.Stmt, error) {
	var err error
	result := ir.MutateStmt(stmt, func(s ir.Stmt) (ir.Stmt, bool) {
		if err != nil {
			return s, true
		}
		f, ok := s.(*ir.For)
		if !ok || f.ForType != ir.Vectorized {
			return nil, false
		}
		width, ok := f.Extent.(*ir.IntImm)
		if !ok {
			err = cerr.Newf(cerr.ScheduleInconsistency, f.Name, "vectorized loop %q must have a compile-time-constant extent", f.Name)
			return s, true
		}
		lanes := int(width.Val)
		ramp, rerr := ir.NewRamp(f.Min, ir.NewIntImm(1), lanes)
		if rerr != nil {
			err = rerr
			return s, true
		}
		body, verr := vectorizeStmt(f.Body, f.Name, lanes, ramp)
		if verr != nil {
			err = verr
			return s, true
		}
		return body, true
	}, nil)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func vectorizeStmt(s ir.Stmt, name string, lanes int, ramp ir.Expr) (ir.Stmt, error) {
	var err error
	vExpr := func(e ir.Expr) (ir.Expr, bool) {
		v, verr := vectorizeExpr(e, name, lanes, ramp)
		if verr != nil {
			err = verr
		}
		return v, true
	}
	result := ir.MutateStmt(s, nil, vExpr)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// vectorizeExpr rebuilds e, widening every subexpression that depends on
// name into a lanes-wide vector: occurrences of name become ramp,
// independent subexpressions broadcast. Rebuilding through the ir package's
// own constructors (rather than patching Typ fields directly) keeps type
// promotion consistent with every other IR construction path.
func vectorizeExpr(e ir.Expr, name string, lanes int, ramp ir.Expr) (ir.Expr, error) {
	if !containsVar(e, name) {
		return ir.NewBroadcast(e, lanes)
	}
	switch n := e.(type) {
	case *ir.Var:
		return ramp, nil
	case *ir.Cast:
		v, err := vectorizeExpr(n.Value, name, lanes, ramp)
		if err != nil {
			return nil, err
		}
		return ir.NewCast(n.Typ.WithLanes(lanes), v), nil
	case *ir.BinaryExpr:
		x, err := vectorizeExpr(n.X, name, lanes, ramp)
		if err != nil {
			return nil, err
		}
		y, err := vectorizeExpr(n.Y, name, lanes, ramp)
		if err != nil {
			return nil, err
		}
		return applyOp(n.Op, x, y)
	case *ir.Not:
		x, err := vectorizeExpr(n.X, name, lanes, ramp)
		if err != nil {
			return nil, err
		}
		return ir.NewNot(x)
	case *ir.Select:
		c, err := vectorizeExpr(n.Cond, name, lanes, ramp)
		if err != nil {
			return nil, err
		}
		t, err := vectorizeExpr(n.T, name, lanes, ramp)
		if err != nil {
			return nil, err
		}
		f, err := vectorizeExpr(n.F, name, lanes, ramp)
		if err != nil {
			return nil, err
		}
		return ir.NewSelect(c, t, f)
	case *ir.Load:
		idx, err := vectorizeExpr(n.Index, name, lanes, ramp)
		if err != nil {
			return nil, err
		}
		return ir.NewLoad(n.Buffer, idx, n.Typ.WithLanes(lanes))
	case *ir.Let:
		v, err := vectorizeExpr(n.Value, name, lanes, ramp)
		if err != nil {
			return nil, err
		}
		b, err := vectorizeExpr(n.Body, name, lanes, ramp)
		if err != nil {
			return nil, err
		}
		return ir.NewLet(n.Name, v, b), nil
	case *ir.Call:
		args := make([]ir.Expr, len(n.Args))
		for i, a := range n.Args {
			v, err := vectorizeExpr(a, name, lanes, ramp)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return ir.NewCall(n.Name, args, n.Kind, n.Typ.WithLanes(lanes),
			ir.WithFuncRef(n.FuncRef), ir.WithValueIndex(n.ValueIndex), ir.WithImage(n.Image), ir.WithParam(n.Param)), nil
	default:
		return ir.NewBroadcast(e, lanes)
	}
}

func applyOp(op ir.Op, x, y ir.Expr) (ir.Expr, error) {
	switch op {
	case ir.OpAdd:
		return ir.NewAdd(x, y)
	case ir.OpSub:
		return ir.NewSub(x, y)
	case ir.OpMul:
		return ir.NewMul(x, y)
	case ir.OpDiv:
		return ir.NewDiv(x, y)
	case ir.OpMod:
		return ir.NewMod(x, y)
	case ir.OpEQ:
		return ir.NewEQ(x, y)
	case ir.OpNE:
		return ir.NewNE(x, y)
	case ir.OpLT:
		return ir.NewLT(x, y)
	case ir.OpLE:
		return ir.NewLE(x, y)
	case ir.OpGT:
		return ir.NewGT(x, y)
	case ir.OpGE:
		return ir.NewGE(x, y)
	case ir.OpAnd:
		return ir.NewAnd(x, y)
	case ir.OpOr:
		return ir.NewOr(x, y)
	case ir.OpMin:
		return ir.NewMin(x, y)
	case ir.OpMax:
		return ir.NewMax(x, y)
	default:
		return nil, cerr.Newf(cerr.IRTypeError, "", "unhandled operator %s during vectorization", op)
	}
}

func containsVar(e ir.Expr, name string) bool {
	found := false
	ir.Visit(e, func(n ir.Expr) {
		if v, ok := n.(*ir.Var); ok && v.Name == name {
			found = true
		}
	})
	return found
}
