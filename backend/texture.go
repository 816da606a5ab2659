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

// Package backend implements back-end intrinsic injection and the
// external code generator invocation. It runs after lower.Lower's
// bounds/fold/realize passes and before the emitted IR is handed to the
// external generator, following a staged analyze -> rewrite -> emit
// structure.
package backend

import (
	"stencilc/cerr"
	"stencilc/ir"
	"stencilc/types"
)

// RewriteGPUTextures implements the GPU texture target adapter: every
// Call to a pipeline function inside a device loop becomes an intrinsic
// gpu_texture_load(name, buffer, coords...); every Provide becomes
// gpu_texture_store(name, buffer, coords..., values...). The first two
// spatial coordinates are normalized as (x - min + 0.5) / extent; further
// coordinates pass through unchanged.
//
// RewriteGPUTextures runs on the Realize-still-present Stmt tree (i.e.
// before lower's realize-to-allocate flattens everything to linear
// buffers), since a texture target addresses producers by (name,
// multi-dim coord) rather than by flat index. Bounds for normalization
// are taken from each producer's nearest enclosing Realize; Realizes
// are collected once up front rather than re-resolved per nesting
// scope, which is sound whenever a pipeline realizes a given function
// at most once (placeCallees realizes a producer once for each consumer
// that calls it directly, so this holds when every producer has a single
// direct consumer).
func RewriteGPUTextures(stmt ir.Stmt) (ir.Stmt, error) {
	bounds := map[string][]ir.Range{}
	ir.VisitStmt(stmt, func(s ir.Stmt) {
		if re, ok := s.(*ir.Realize); ok {
			bounds[re.Name] = re.Bounds
		}
	}, nil)

	var convErr error
	out := rewriteTextureStmt(stmt, false, bounds, &convErr)
	if convErr != nil {
		return nil, convErr
	}
	return out, nil
}

func rewriteTextureStmt(s ir.Stmt, insideDevice bool, bounds map[string][]ir.Range, err *error) ir.Stmt {
	if s == nil || *err != nil {
		return s
	}
	switch n := s.(type) {
	case *ir.For:
		device := insideDevice || n.Device == ir.GPUBlock || n.Device == ir.GPUThread
		body := rewriteTextureStmt(n.Body, device, bounds, err)
		return &ir.For{Name: n.Name, Min: n.Min, Extent: n.Extent, ForType: n.ForType, Device: n.Device, Body: body}
	case *ir.Block:
		first := rewriteTextureStmt(n.First, insideDevice, bounds, err)
		rest := rewriteTextureStmt(n.Rest, insideDevice, bounds, err)
		return ir.Blocks(first, rest)
	case *ir.IfThenElse:
		then := rewriteTextureStmt(n.Then, insideDevice, bounds, err)
		els := rewriteTextureStmt(n.Else, insideDevice, bounds, err)
		return &ir.IfThenElse{Cond: n.Cond, Then: then, Else: els}
	case *ir.LetStmt:
		body := rewriteTextureStmt(n.Body, insideDevice, bounds, err)
		return &ir.LetStmt{Name: n.Name, Value: n.Value, Body: body}
	case *ir.Realize:
		body := rewriteTextureStmt(n.Body, insideDevice, bounds, err)
		return &ir.Realize{Name: n.Name, Bounds: n.Bounds, Body: body}
	case *ir.Allocate:
		body := rewriteTextureStmt(n.Body, insideDevice, bounds, err)
		return &ir.Allocate{Name: n.Name, Typ: n.Typ, Extents: n.Extents, Body: body}
	case *ir.Provide:
		if !insideDevice {
			return n
		}
		coords, cerrv := normalizeCoords(n.Name, n.Indices, bounds)
		if cerrv != nil {
			*err = cerrv
			return n
		}
		values := rewriteExprsForLoads(n.Values, insideDevice, bounds, err)
		args := append([]ir.Expr{ir.NewStringImm(n.Name), ir.NewStringImm(n.Name + ".buffer")}, coords...)
		args = append(args, values...)
		call := ir.NewCall("gpu_texture_store", args, ir.Intrinsic, types.HandleT)
		return &ir.Evaluate{Expr: call}
	case *ir.Store, *ir.AssertStmt, *ir.Evaluate:
		return rewriteExprBearingStmt(n, insideDevice, bounds, err)
	default:
		return s
	}
}

// rewriteExprBearingStmt rewrites the Call expressions nested inside a
// leaf statement (Store/AssertStmt/Evaluate) without changing the
// statement's own shape.
func rewriteExprBearingStmt(s ir.Stmt, insideDevice bool, bounds map[string][]ir.Range, err *error) ir.Stmt {
	if !insideDevice {
		return s
	}
	rewrite := func(e ir.Expr) ir.Expr {
		out, cerrv := rewriteTextureExpr(e, bounds)
		if cerrv != nil {
			*err = cerrv
			return e
		}
		return out
	}
	switch n := s.(type) {
	case *ir.Store:
		return &ir.Store{Buffer: n.Buffer, Index: rewrite(n.Index), Value: rewrite(n.Value)}
	case *ir.AssertStmt:
		return &ir.AssertStmt{Cond: rewrite(n.Cond), Message: n.Message}
	case *ir.Evaluate:
		return &ir.Evaluate{Expr: rewrite(n.Expr)}
	default:
		return s
	}
}

func rewriteExprsForLoads(exprs []ir.Expr, insideDevice bool, bounds map[string][]ir.Range, err *error) []ir.Expr {
	out := make([]ir.Expr, len(exprs))
	for i, e := range exprs {
		if !insideDevice {
			out[i] = e
			continue
		}
		v, cerrv := rewriteTextureExpr(e, bounds)
		if cerrv != nil {
			*err = cerrv
			out[i] = e
			continue
		}
		out[i] = v
	}
	return out
}

// rewriteTextureExpr rewrites every Call to a pipeline function (Kind ==
// PureFunc) anywhere within e into a gpu_texture_load intrinsic, however
// deeply nested inside arithmetic, leaving intrinsic/extern calls and
// every other expression form untouched.
func rewriteTextureExpr(e ir.Expr, bounds map[string][]ir.Range) (ir.Expr, error) {
	var convErr error
	out := ir.Mutate(e, func(e ir.Expr) (ir.Expr, bool) {
		if convErr != nil {
			return e, false
		}
		call, ok := e.(*ir.Call)
		if !ok || call.Kind != ir.PureFunc {
			return e, false
		}
		coords, err := normalizeCoords(call.Name, call.Args, bounds)
		if err != nil {
			convErr = err
			return e, false
		}
		args := append([]ir.Expr{ir.NewStringImm(call.Name), ir.NewStringImm(call.Name + ".buffer")}, coords...)
		return ir.NewCall("gpu_texture_load", args, ir.Intrinsic, call.Typ), true
	})
	if convErr != nil {
		return nil, convErr
	}
	return out, nil
}

// normalizeCoords applies "(x - min + 0.5) / extent" to the first two
// spatial coordinates and passes the rest through unchanged. When name has
// no recorded Realize bound for one of the first two coordinates, that
// coordinate uses min 0 and extent 1. A third-or-later coordinate is never
// normalized, and no diagnostic is issued when its bound is missing.
func normalizeCoords(name string, coords []ir.Expr, bounds map[string][]ir.Range) ([]ir.Expr, error) {
	b := bounds[name]
	out := make([]ir.Expr, len(coords))
	for i, c := range coords {
		if i >= 2 {
			out[i] = c
			continue
		}
		var min ir.Expr
		if i < len(b) {
			min = b[i].Min
		} else {
			min = ir.NewIntImm(0)
		}
		var extent ir.Expr = ir.NewIntImm(1)
		if i < len(b) {
			extent = b[i].Extent
		}
		shifted, err := ir.NewSub(c, min)
		if err != nil {
			return nil, cerr.Wrap(cerr.IRTypeError, name, err)
		}
		halfShifted, err := ir.NewAdd(shifted, ir.NewFloatImm(0.5))
		if err != nil {
			return nil, cerr.Wrap(cerr.IRTypeError, name, err)
		}
		normalized, err := ir.NewDiv(halfShifted, extent)
		if err != nil {
			return nil, cerr.Wrap(cerr.IRTypeError, name, err)
		}
		out[i] = normalized
	}
	// Coordinates beyond the first two pass through unchanged; a missing
	// min constraint on one of them has no normalization to apply and is
	// not an error.
	return out, nil
}
