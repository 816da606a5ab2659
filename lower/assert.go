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

	"stencilc/ir"
)

// injectAllocationAsserts is the final lowering pass: every Allocate gets
// a guarding AssertStmt per dimension confirming its extent is
// positive, run before the allocation's own body. A failing assertion is
// a runtime failure, not a compile-time one, since
// an extent can depend on a caller-supplied buffer parameter that is only
// known once the pipeline runs.
func injectAllocationAsserts(stmt ir.Stmt) ir.Stmt {
	return ir.MutateStmt(stmt, func(s ir.Stmt) (ir.Stmt, bool) {
		a, ok := s.(*ir.Allocate)
		if !ok {
			return nil, false
		}
		body := injectAllocationAsserts(a.Body)
		parts := make([]ir.Stmt, 0, len(a.Extents)+1)
		for i, extent := range a.Extents {
			cond, err := ir.NewGT(extent, ir.NewIntImm(0))
			if err != nil {
				continue
			}
			parts = append(parts, &ir.AssertStmt{Cond: cond, Message: fmt.Sprintf("%s: dimension %d has non-positive extent", a.Name, i)})
		}
		parts = append(parts, body)
		return &ir.Allocate{Name: a.Name, Typ: a.Typ, Extents: a.Extents, Body: ir.Blocks(parts...)}, true
	}, nil)
}
