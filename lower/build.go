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
	"stencilc/funcs"
	"stencilc/ir"
	"stencilc/schedule"
	"stencilc/types"
)

// buildFuncBody constructs the statement that produces f's storage: the
// pure definition's loop nest, followed by one nested loop per reduction
// update stage, each revisiting the same pure-variable coordinates plus its
// own reduction domain. The pure nest and every update nest share the
// same per-dimension loop structure dictated by sched.Dims, so a
// producer's schedule only needs to be laid out once.
func buildFuncBody(f *funcs.Func, sched *schedule.Schedule) (ir.Stmt, error) {
	pureIndices := make([]ir.Expr, len(f.PureVars))
	for i, v := range f.PureVars {
		pureIndices[i] = ir.NewVar(v, types.Int32)
	}
	pureNest, err := buildLoopNest(sched, &ir.Provide{Name: f.Name, Values: f.Definition, Indices: pureIndices})
	if err != nil {
		return nil, err
	}

	stages := []ir.Stmt{pureNest}
	for _, u := range f.Updates {
		var body ir.Stmt = &ir.Provide{Name: f.Name, Values: u.Values, Indices: u.Args}
		for i := u.Domain.Len() - 1; i >= 0; i-- {
			rv := u.Domain.Vars[i]
			body = &ir.For{Name: rv.Name, Min: rv.Min, Extent: rv.Extent, ForType: ir.Serial, Device: ir.Host, Body: body}
		}
		updateNest, err := buildLoopNest(sched, body)
		if err != nil {
			return nil, err
		}
		stages = append(stages, updateNest)
	}
	return ir.Blocks(stages...), nil
}

// buildLoopNest wraps body in nested ir.For loops matching sched.Dims,
// outermost first. A dimension produced by a Split does not carry its own
// bound directly: its (min, extent) are derived from its parent's bound and
// the split factor, and once both the outer and inner half of a split are
// in scope, an ir.LetStmt re-establishes the parent variable so the body
// (which still refers to the pre-split Var) resolves correctly — this is
// what lets a Tile's reordered (yo, xo, yi, xi) nest nonetheless bind x and
// y at the point both of their halves are available, even though xo and xi
// are not adjacent in the final order.
func buildLoopNest(sched *schedule.Schedule, body ir.Stmt) (ir.Stmt, error) {
	boundsOverride := map[string]schedule.BoundConstraint{}
	for _, bc := range sched.Bounds {
		boundsOverride[bc.Dim] = bc
	}
	splitByChild := map[string]schedule.Split{}
	for _, sp := range sched.Splits {
		splitByChild[sp.Outer] = sp
		splitByChild[sp.Inner] = sp
	}

	parentBound := func(name string) (ir.Expr, ir.Expr) {
		if bc, ok := boundsOverride[name]; ok {
			return bc.Min, bc.Extent
		}
		return boundVar(sched.FuncName, name, "min"), boundVar(sched.FuncName, name, "extent")
	}

	pendingSplit := map[string]bool{}
	nest := body
	for i := len(sched.Dims) - 1; i >= 0; i-- {
		d := sched.Dims[i]
		var min, extent ir.Expr
		sp, isSplitChild := splitByChild[d.Name]
		bc, hasOverride := boundsOverride[d.Name]

		switch {
		case hasOverride:
			min, extent = bc.Min, bc.Extent
		case isSplitChild && d.Name == sp.Outer:
			_, parentExtent := parentBound(sp.Parent)
			outerExtent, err := ceilDiv(parentExtent, sp.Factor)
			if err != nil {
				return nil, err
			}
			min, extent = ir.NewIntImm(0), outerExtent
		case isSplitChild:
			min, extent = ir.NewIntImm(0), ir.NewIntImm(int64(sp.Factor))
		default:
			min, extent = boundVar(sched.FuncName, d.Name, "min"), boundVar(sched.FuncName, d.Name, "extent")
		}

		nest = &ir.For{Name: d.Name, Min: min, Extent: extent, ForType: d.ForType, Device: d.Device, Body: nest}

		if isSplitChild {
			if !pendingSplit[sp.Parent] {
				pendingSplit[sp.Parent] = true
				continue
			}
			delete(pendingSplit, sp.Parent)
			parentMin, parentExtent := parentBound(sp.Parent)
			rebound, err := reboundSplitParent(sp, parentMin)
			if err != nil {
				return nil, err
			}
			nest = &ir.LetStmt{Name: sp.Parent, Value: rebound, Body: nest}
			if sp.Tail == schedule.GuardWithIf {
				limit, err := ir.NewAdd(parentMin, parentExtent)
				if err != nil {
					return nil, err
				}
				cond, err := ir.NewLT(rebound, limit)
				if err != nil {
					return nil, err
				}
				nest = &ir.IfThenElse{Cond: cond, Then: nest}
			}
		}
	}
	return nest, nil
}

// reboundSplitParent rebuilds sp.Parent's original coordinate from its
// outer and inner loop variables: parentMin + outer*factor + inner.
func reboundSplitParent(sp schedule.Split, parentMin ir.Expr) (ir.Expr, error) {
	outerVar := ir.NewVar(sp.Outer, types.Int32)
	innerVar := ir.NewVar(sp.Inner, types.Int32)
	factor := ir.NewIntImm(int64(sp.Factor))
	scaled, err := ir.NewMul(outerVar, factor)
	if err != nil {
		return nil, err
	}
	withInner, err := ir.NewAdd(scaled, innerVar)
	if err != nil {
		return nil, err
	}
	return ir.NewAdd(withInner, parentMin)
}

// ceilDiv builds the expression ceil(extent / factor) = (extent+factor-1)/factor.
func ceilDiv(extent ir.Expr, factor int) (ir.Expr, error) {
	sum, err := ir.NewAdd(extent, ir.NewIntImm(int64(factor-1)))
	if err != nil {
		return nil, err
	}
	return ir.NewDiv(sum, ir.NewIntImm(int64(factor)))
}
