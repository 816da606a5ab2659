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
	"stencilc/ir"
)

// foldStorage narrows storage for producers that don't need their full
// region resident at once. A producer stored at a non-root level
// (schedule.Schedule.StoreLevel) only ever needs to hold a sliding window
// of its full region, not the whole thing; when the producer's own
// schedule declares an explicit Bound for a dimension narrower than what
// bounds inference computed, that declared width is the fold factor.
// flattenIndex (realize.go) already wraps every coordinate with a modulo
// by its dimension's extent, so narrowing the extent here is the entire
// transform — no separate circular-buffer bookkeeping is needed.
//
// General automatic fold-factor derivation (comparing the access pattern
// at consecutive steps of the storing loop) is not implemented; a
// producer relying on automatic folding without an explicit Bound keeps
// its full inferred extent, which is correct but not memory-optimal.
func foldStorage(stmt ir.Stmt, pipeline *Pipeline) ir.Stmt {
	return ir.MutateStmt(stmt, func(s ir.Stmt) (ir.Stmt, bool) {
		re, ok := s.(*ir.Realize)
		if !ok {
			return nil, false
		}
		sched, ok := pipeline.Schedules[re.Name]
		if !ok || sched.StoreLevel.IsRoot() || sched.StoreLevel.IsInline() {
			return nil, false
		}
		bounds := append([]ir.Range(nil), re.Bounds...)
		for i, d := range sched.Dims {
			for _, bc := range sched.Bounds {
				if bc.Dim != d.Name {
					continue
				}
				if imm, ok := bc.Extent.(*ir.IntImm); ok {
					if cur, ok := bounds[i].Extent.(*ir.IntImm); !ok || imm.Val < cur.Val {
						bounds[i] = ir.Range{Min: bounds[i].Min, Extent: bc.Extent}
					}
				}
			}
		}
		body := foldStorage(re.Body, pipeline)
		return &ir.Realize{Name: re.Name, Bounds: bounds, Body: body}, true
	}, nil)
}
