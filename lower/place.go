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
	"stencilc/funcs"
	"stencilc/ir"
	"stencilc/schedule"
)

// resolver threads the per-function state needed by step 3 (inline
// substitution and compute_at/store_at placement) through the recursive
// walk of the call graph: each function's body is resolved exactly once,
// memoized by name, with its own callees placed before it is handed back to
// whichever consumer asked for it.
type resolver struct {
	pipeline *Pipeline
	resolved map[string]ir.Stmt
}

// placeCallees walks root's own body, recursively resolving (inlining or
// realizing) every producer function it calls, and returns the resulting
// statement tree.
func placeCallees(pipeline *Pipeline) (ir.Stmt, error) {
	r := &resolver{pipeline: pipeline, resolved: map[string]ir.Stmt{}}
	return r.resolve(pipeline.Root)
}

func (r *resolver) resolve(name string) (ir.Stmt, error) {
	if body, ok := r.resolved[name]; ok {
		return body, nil
	}
	f, ok := r.pipeline.Funcs[name]
	if !ok {
		return nil, cerr.Newf(cerr.ScheduleInconsistency, name, "pipeline has no function named %q", name)
	}
	sched, ok := r.pipeline.Schedules[name]
	if !ok {
		return nil, cerr.Newf(cerr.ScheduleInconsistency, name, "function %q has no schedule", name)
	}
	body, err := buildFuncBody(f, sched)
	if err != nil {
		return nil, err
	}

	// Inlining a callee can itself introduce fresh Calls to producers the
	// inlined definition references: re-scan until a pass turns up nothing
	// new, rather than processing calleeNames's first snapshot only. Only
	// name's own code (own, inlined in step with body) is scanned, so calls
	// inside an already-realized producer do not realize its callees again.
	own := body
	processed := map[string]bool{}
	for {
		pending := calleeNames(own, name)
		progress := false
		for _, callee := range pending {
			if processed[callee] {
				continue
			}
			processed[callee] = true
			progress = true

			calleeSched, ok := r.pipeline.Schedules[callee]
			if !ok {
				return nil, cerr.Newf(cerr.ScheduleInconsistency, callee, "function %q has no schedule", callee)
			}
			calleeFunc := r.pipeline.Funcs[callee]

			if calleeSched.ComputeLevel.IsInline() {
				body = inlineCalls(body, calleeFunc)
				own = inlineCalls(own, calleeFunc)
				continue
			}

			calleeBody, err := r.resolve(callee)
			if err != nil {
				return nil, err
			}
			realize := &ir.Realize{Name: callee, Bounds: placeholderBounds(calleeSched), Body: ir.Blocks(calleeBody)}

			if calleeSched.ComputeLevel.IsRoot() {
				body = ir.Blocks(wrapRealizeBody(realize, body))
				continue
			}

			target := calleeSched.ComputeLevel.Var
			placed, ok := insertAtFor(body, target, func(inner ir.Stmt) ir.Stmt {
				return wrapRealizeBody(realize, inner)
			})
			if !ok {
				return nil, cerr.Newf(cerr.ScheduleInconsistency, callee,
					"compute_at target dimension %q not found in consumer %q's loop nest", target, name)
			}
			body = placed
		}
		if !progress {
			break
		}
	}

	r.resolved[name] = body
	return body, nil
}

// wrapRealizeBody fills in a Realize's Body (the producer's own
// computation) followed by rest (the code that consumes it).
func wrapRealizeBody(realize *ir.Realize, rest ir.Stmt) ir.Stmt {
	realize.Body = ir.Blocks(realize.Body, rest)
	return realize
}

// placeholderBounds returns one ir.Range per dimension of sched, each
// referencing the symbolic per-dimension bound variables that bounds
// inference (step 4) will later solve for and bind.
func placeholderBounds(sched *schedule.Schedule) []ir.Range {
	bounds := make([]ir.Range, len(sched.Dims))
	for i, d := range sched.Dims {
		bounds[i] = ir.Range{
			Min:    boundVar(sched.FuncName, d.Name, "min"),
			Extent: boundVar(sched.FuncName, d.Name, "extent"),
		}
	}
	return bounds
}

// calleeNames returns the distinct names, other than self, of every
// PureFunc Call reachable from stmt.
func calleeNames(stmt ir.Stmt, self string) []string {
	seen := map[string]bool{}
	var order []string
	ir.VisitStmt(stmt, func(ir.Stmt) {}, func(e ir.Expr) {
		c, ok := e.(*ir.Call)
		if !ok || c.Kind != ir.PureFunc || c.Name == self {
			return
		}
		if !seen[c.Name] {
			seen[c.Name] = true
			order = append(order, c.Name)
		}
	})
	return order
}

// insertAtFor finds the (unique) *ir.For named target within stmt and
// replaces its Body with wrap(originalBody), reporting whether target was
// found.
func insertAtFor(stmt ir.Stmt, target string, wrap func(ir.Stmt) ir.Stmt) (ir.Stmt, bool) {
	found := false
	result := ir.MutateStmt(stmt, func(s ir.Stmt) (ir.Stmt, bool) {
		f, ok := s.(*ir.For)
		if !ok || f.Name != target {
			return nil, false
		}
		found = true
		return &ir.For{Name: f.Name, Min: f.Min, Extent: f.Extent, ForType: f.ForType, Device: f.Device, Body: wrap(f.Body)}, true
	}, nil)
	return result, found
}

// inlineCalls substitutes callee's pure definition at every remaining call
// site within stmt, renaming callee's formal pure variables to the actual
// call arguments via a chain of ir.Let bindings. A callee that itself
// calls another inline function is substituted only one level deep here;
// resolve re-scans after every substitution, so the calls this introduces
// are substituted on a later pass.
func inlineCalls(stmt ir.Stmt, callee *funcs.Func) ir.Stmt {
	return ir.MutateStmt(stmt, nil, func(e ir.Expr) (ir.Expr, bool) {
		c, ok := e.(*ir.Call)
		if !ok || c.Kind != ir.PureFunc || c.Name != callee.Name {
			return nil, false
		}
		inlined := callee.Definition[c.ValueIndex]
		for i := len(callee.PureVars) - 1; i >= 0; i-- {
			inlined = ir.NewLet(callee.PureVars[i], c.Args[i], inlined)
		}
		return inlined, true
	})
}
