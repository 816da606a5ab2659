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
	"stencilc/types"
)

// flattenIndex builds the row-major flat index for a multi-dimensional
// coordinate against bounds: sum over dimensions d of
// ((coord[d] - bounds[d].Min) mod bounds[d].Extent) * stride[d], stride[d]
// the product of the extents of every faster-varying (later) dimension.
// Wrapping every dimension with a modulo, rather than only the ones
// storage folding (step 5) actually narrowed, is deliberate: for an
// unfolded dimension coord[d]-bounds[d].Min is already within
// [0, bounds[d].Extent) by construction, so the modulo is a no-op there
// and the same formula handles both cases without a separate code path.
func flattenIndex(coords []ir.Expr, bounds []ir.Range) (ir.Expr, error) {
	if len(coords) == 0 {
		return ir.NewIntImm(0), nil
	}
	var flat ir.Expr
	stride := ir.Expr(ir.NewIntImm(1))
	for d := len(coords) - 1; d >= 0; d-- {
		rel, err := ir.NewSub(coords[d], bounds[d].Min)
		if err != nil {
			return nil, err
		}
		wrapped, err := ir.NewMod(rel, bounds[d].Extent)
		if err != nil {
			return nil, err
		}
		term, err := ir.NewMul(wrapped, stride)
		if err != nil {
			return nil, err
		}
		if flat == nil {
			flat = term
		} else {
			flat, err = ir.NewAdd(flat, term)
			if err != nil {
				return nil, err
			}
		}
		stride, err = ir.NewMul(stride, bounds[d].Extent)
		if err != nil {
			return nil, err
		}
	}
	return flat, nil
}

// realizeToAllocate turns storage descriptions into concrete buffers:
// every *ir.Realize becomes an *ir.Allocate sized by its (by now concrete)
// Bounds, and every
// Provide/Call referencing that buffer becomes a Store/Load indexed by the
// flattened coordinate.
func realizeToAllocate(stmt ir.Stmt, pipeline *Pipeline) (ir.Stmt, error) {
	var walkErr error
	result := ir.MutateStmt(stmt, func(s ir.Stmt) (ir.Stmt, bool) {
		re, ok := s.(*ir.Realize)
		if !ok {
			return nil, false
		}
		innerBody, err := realizeToAllocate(re.Body, pipeline)
		if err != nil {
			walkErr = err
			return s, true
		}
		lowered, err := lowerProvideCalls(innerBody, re.Name, re.Bounds)
		if err != nil {
			walkErr = err
			return s, true
		}
		elemType, err := outputElemType(pipeline, re.Name)
		if err != nil {
			walkErr = err
			return s, true
		}
		extents := make([]ir.Expr, len(re.Bounds))
		for i, b := range re.Bounds {
			extents[i] = b.Extent
		}
		alloc := &ir.Allocate{Name: re.Name, Typ: elemType, Extents: extents, Body: lowered}
		return alloc, true
	}, nil)
	if walkErr != nil {
		return nil, walkErr
	}
	return result, nil
}

// lowerProvideCalls rewrites every Provide/Call naming buf within stmt into
// a Store/Load against buf's flattened coordinate space.
func lowerProvideCalls(stmt ir.Stmt, buf string, bounds []ir.Range) (ir.Stmt, error) {
	var err error
	out := ir.MutateStmt(stmt, func(s ir.Stmt) (ir.Stmt, bool) {
		p, ok := s.(*ir.Provide)
		if !ok || p.Name != buf {
			return nil, false
		}
		idx, e := flattenIndex(p.Indices, bounds)
		if e != nil {
			err = e
			return s, true
		}
		if len(p.Values) != 1 {
			err = cerr.Newf(cerr.ArityMismatch, buf, "buffer %q: multi-value outputs are not supported past storage lowering", buf)
			return s, true
		}
		return &ir.Store{Buffer: buf, Index: idx, Value: p.Values[0]}, true
	}, func(e ir.Expr) (ir.Expr, bool) {
		c, ok := e.(*ir.Call)
		if !ok || c.Name != buf || c.Kind != ir.PureFunc {
			return nil, false
		}
		idx, ferr := flattenIndex(c.Args, bounds)
		if ferr != nil {
			err = ferr
			return e, true
		}
		load, lerr := ir.NewLoad(buf, idx, c.Typ)
		if lerr != nil {
			err = lerr
			return e, true
		}
		return load, true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func outputElemType(pipeline *Pipeline, name string) (types.Type, error) {
	f, ok := pipeline.Funcs[name]
	if !ok {
		return types.Type{}, cerr.Newf(cerr.ScheduleInconsistency, name, "unknown function %q", name)
	}
	return f.OutputType(0), nil
}

// lowerRootProvide turns the root function's own Provide sites (which refer
// to the output buffer supplied by the caller, never wrapped in a Realize)
// into Stores against rootBounds, and any remaining self-Calls into Loads.
// Called once, after realizeToAllocate, with the pipeline's designated
// output name and the caller-supplied buffer bounds.
func lowerRootProvide(stmt ir.Stmt, root *funcs.Func, bounds []ir.Range) (ir.Stmt, error) {
	return lowerProvideCalls(stmt, root.Name, bounds)
}
