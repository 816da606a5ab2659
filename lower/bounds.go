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
	"fmt"

	"stencilc/cerr"
	"stencilc/ir"
)

// interval is a closed [Lo, Hi] bound on an integer expression's value,
// tracked during bounds inference. The arithmetic stays purely symbolic, building
// ir.Expr bounds rather than evaluating them, since a Realize's extent is
// itself an expression in terms of the consumer's own loop bounds.
type interval struct {
	Lo, Hi ir.Expr
}

// varIntervals maps a Var's name to its known interval within the region
// currently being analyzed.
type varIntervals map[string]interval

// inferBounds solves, for every Realize node in stmt, concrete (min,
// extent) expressions for each dimension, replacing the symbolic
// "name.dim.min"/"name.dim.extent" Vars placeholderBounds introduced. For
// each producer, the region required is computed from every site that
// Loads or Calls it within the already-placed consumer code enclosing its
// Realize, using backward interval arithmetic over the enclosing loop
// variables' own intervals.
func inferBounds(stmt ir.Stmt) (ir.Stmt, error) {
	return inferBoundsRec(stmt, varIntervals{})
}

// inferBoundsRec walks stmt top-down, tracking the interval of every
// enclosing loop variable in env, and rewrites each Realize it finds with
// inferred Bounds computed from the call/load sites within its Body.
func inferBoundsRec(stmt ir.Stmt, env varIntervals) (ir.Stmt, error) {
	switch n := stmt.(type) {
	case nil:
		return nil, nil
	case *ir.For:
		lo, err := evalInterval(n.Min, env)
		if err != nil {
			return nil, err
		}
		extentIv, err := evalInterval(n.Extent, env)
		if err != nil {
			return nil, err
		}
		hi, err := ir.NewSub(addExpr(lo.Lo, extentIv.Hi), ir.NewIntImm(1))
		if err != nil {
			return nil, err
		}
		child := cloneEnv(env)
		child[n.Name] = interval{Lo: lo.Lo, Hi: hi}
		body, err := inferBoundsRec(n.Body, child)
		if err != nil {
			return nil, err
		}
		if body == n.Body {
			return n, nil
		}
		return &ir.For{Name: n.Name, Min: n.Min, Extent: n.Extent, ForType: n.ForType, Device: n.Device, Body: body}, nil
	case *ir.LetStmt:
		iv, err := evalInterval(n.Value, env)
		if err != nil {
			return nil, err
		}
		child := cloneEnv(env)
		child[n.Name] = iv
		body, err := inferBoundsRec(n.Body, child)
		if err != nil {
			return nil, err
		}
		if body == n.Body {
			return n, nil
		}
		return &ir.LetStmt{Name: n.Name, Value: n.Value, Body: body}, nil
	case *ir.Block:
		first, err := inferBoundsRec(n.First, env)
		if err != nil {
			return nil, err
		}
		rest, err := inferBoundsRec(n.Rest, env)
		if err != nil {
			return nil, err
		}
		if first == n.First && rest == n.Rest {
			return n, nil
		}
		return &ir.Block{First: first, Rest: rest}, nil
	case *ir.IfThenElse:
		then, err := inferBoundsRec(n.Then, env)
		if err != nil {
			return nil, err
		}
		els, err := inferBoundsRec(n.Else, env)
		if err != nil {
			return nil, err
		}
		if then == n.Then && els == n.Else {
			return n, nil
		}
		return &ir.IfThenElse{Cond: n.Cond, Then: then, Else: els}, nil
	case *ir.Allocate:
		body, err := inferBoundsRec(n.Body, env)
		if err != nil {
			return nil, err
		}
		if body == n.Body {
			return n, nil
		}
		return &ir.Allocate{Name: n.Name, Typ: n.Typ, Extents: n.Extents, Body: body}, nil
	case *ir.Realize:
		bounds, err := regionRequired(n.Name, n.Body, env)
		if err != nil {
			return nil, err
		}
		body, err := inferBoundsRec(n.Body, env)
		if err != nil {
			return nil, err
		}
		return &ir.Realize{Name: n.Name, Bounds: bounds, Body: body}, nil
	default:
		return stmt, nil
	}
}

// regionRequired computes, for each dimension of producer name, the
// smallest interval that covers every Call argument referencing it found
// anywhere within body, in terms of the enclosing loop variables' own
// intervals.
func regionRequired(name string, body ir.Stmt, env varIntervals) ([]ir.Range, error) {
	var argIntervals [][]interval
	var walkErr error
	ir.VisitStmt(body, func(ir.Stmt) {}, func(e ir.Expr) {
		if walkErr != nil {
			return
		}
		c, ok := e.(*ir.Call)
		if !ok || c.Name != name || c.Kind != ir.PureFunc {
			return
		}
		ivs := make([]interval, len(c.Args))
		for i, a := range c.Args {
			iv, err := evalInterval(a, env)
			if err != nil {
				walkErr = err
				return
			}
			ivs[i] = iv
		}
		argIntervals = append(argIntervals, ivs)
	})
	if walkErr != nil {
		return nil, walkErr
	}
	if len(argIntervals) == 0 {
		return nil, cerr.Newf(cerr.BoundsInferenceFailure, name, "function %q is realized but never called", name)
	}

	dims := len(argIntervals[0])
	bounds := make([]ir.Range, dims)
	for d := 0; d < dims; d++ {
		lo := argIntervals[0][d].Lo
		hi := argIntervals[0][d].Hi
		for _, ivs := range argIntervals[1:] {
			var err error
			lo, err = ir.NewMin(lo, ivs[d].Lo)
			if err != nil {
				return nil, err
			}
			hi, err = ir.NewMax(hi, ivs[d].Hi)
			if err != nil {
				return nil, err
			}
		}
		span, err := ir.NewSub(hi, lo)
		if err != nil {
			return nil, err
		}
		extent, err := ir.NewAdd(span, ir.NewIntImm(1))
		if err != nil {
			return nil, err
		}
		bounds[d] = ir.Range{Min: lo, Extent: extent}
	}
	return bounds, nil
}

// evalInterval computes a conservative [Lo, Hi] interval for e given the
// known intervals of its free variables. Unlike ir's constant folding, this
// never fails to type-check — an expression form it does not recognize
// falls back to treating e as its own single-point interval, which is
// sound (if imprecise) for any monotonic use downstream.
func evalInterval(e ir.Expr, env varIntervals) (interval, error) {
	switch n := e.(type) {
	case *ir.IntImm:
		return interval{Lo: e, Hi: e}, nil
	case *ir.Var:
		if iv, ok := env[n.Name]; ok {
			return iv, nil
		}
		return interval{Lo: e, Hi: e}, nil
	case *ir.BinaryExpr:
		return evalBinaryInterval(n, env)
	case *ir.Cast:
		return evalInterval(n.Value, env)
	case *ir.Let:
		iv, err := evalInterval(n.Value, env)
		if err != nil {
			return interval{}, err
		}
		child := cloneEnv(env)
		child[n.Name] = iv
		return evalInterval(n.Body, child)
	default:
		return interval{Lo: e, Hi: e}, nil
	}
}

func evalBinaryInterval(n *ir.BinaryExpr, env varIntervals) (interval, error) {
	x, err := evalInterval(n.X, env)
	if err != nil {
		return interval{}, err
	}
	y, err := evalInterval(n.Y, env)
	if err != nil {
		return interval{}, err
	}
	switch n.Op {
	case ir.OpAdd:
		lo, err := ir.NewAdd(x.Lo, y.Lo)
		if err != nil {
			return interval{}, err
		}
		hi, err := ir.NewAdd(x.Hi, y.Hi)
		if err != nil {
			return interval{}, err
		}
		return interval{Lo: lo, Hi: hi}, nil
	case ir.OpSub:
		lo, err := ir.NewSub(x.Lo, y.Hi)
		if err != nil {
			return interval{}, err
		}
		hi, err := ir.NewSub(x.Hi, y.Lo)
		if err != nil {
			return interval{}, err
		}
		return interval{Lo: lo, Hi: hi}, nil
	case ir.OpMin:
		lo, err := ir.NewMin(x.Lo, y.Lo)
		if err != nil {
			return interval{}, err
		}
		hi, err := ir.NewMin(x.Hi, y.Hi)
		if err != nil {
			return interval{}, err
		}
		return interval{Lo: lo, Hi: hi}, nil
	case ir.OpMax:
		lo, err := ir.NewMax(x.Lo, y.Lo)
		if err != nil {
			return interval{}, err
		}
		hi, err := ir.NewMax(x.Hi, y.Hi)
		if err != nil {
			return interval{}, err
		}
		return interval{Lo: lo, Hi: hi}, nil
	case ir.OpMul:
		// Only constant-scaling is tracked precisely (the common case for
		// split/tile-derived index arithmetic); anything else widens to the
		// combined expression as a single point, which a later simplification
		// pass may still fold.
		if imm, ok := n.Y.(*ir.IntImm); ok && imm.Val >= 0 {
			lo, err := ir.NewMul(x.Lo, n.Y)
			if err != nil {
				return interval{}, err
			}
			hi, err := ir.NewMul(x.Hi, n.Y)
			if err != nil {
				return interval{}, err
			}
			return interval{Lo: lo, Hi: hi}, nil
		}
		return interval{Lo: n, Hi: n}, nil
	default:
		return interval{Lo: n, Hi: n}, nil
	}
}

func cloneEnv(env varIntervals) varIntervals {
	out := make(varIntervals, len(env)+1)
	for k, v := range env {
		out[k] = v
	}
	return out
}

func addExpr(a, b ir.Expr) ir.Expr {
	sum, err := ir.NewAdd(a, b)
	if err != nil {
		// Min/Extent are always integer-typed by construction (For's own
		// invariant); a type error here means an earlier pass built a
		// malformed loop, which is a programmer error, not a pipeline error.
		panic(fmt.Sprintf("lower: malformed loop bound: %v", err))
	}
	return sum
}
