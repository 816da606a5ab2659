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

// unrollLoops fully unrolls annotated loops: every For marked
// ir.Unrolled with a constant extent becomes extent copies of its body,
// each with the loop variable replaced by its concrete iteration value.
func unrollLoops(stmt ir.Stmt) (ir.Stmt, error) {
	var err error
	result := ir.MutateStmt(stmt, func(s ir.Stmt) (ir.Stmt, bool) {
		if err != nil {
			return s, true
		}
		f, ok := s.(*ir.For)
		if !ok || f.ForType != ir.Unrolled {
			return nil, false
		}
		extentImm, ok := f.Extent.(*ir.IntImm)
		if !ok {
			err = cerr.Newf(cerr.ScheduleInconsistency, f.Name, "unrolled loop %q must have a compile-time-constant extent", f.Name)
			return s, true
		}
		minImm, ok := f.Min.(*ir.IntImm)
		if !ok {
			err = cerr.Newf(cerr.ScheduleInconsistency, f.Name, "unrolled loop %q must have a compile-time-constant min", f.Name)
			return s, true
		}
		copies := make([]ir.Stmt, 0, extentImm.Val)
		for i := minImm.Val; i < minImm.Val+extentImm.Val; i++ {
			iteration := ir.NewIntImm(i)
			iterBody := ir.MutateStmt(f.Body, nil, func(e ir.Expr) (ir.Expr, bool) {
				v, ok := e.(*ir.Var)
				if !ok || v.Name != f.Name {
					return nil, false
				}
				return iteration, true
			})
			copies = append(copies, iterBody)
		}
		return ir.Blocks(copies...), true
	}, nil)
	if err != nil {
		return nil, err
	}
	return result, nil
}
