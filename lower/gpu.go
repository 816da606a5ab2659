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

// checkGPULoopNesting validates GPU loop nesting after placement. The
// Device tag on each For is set when its loop nest is built (schedule.GPUBlocks/
// GPUThreads feed directly into buildLoopNest's Dim.Device), so this step
// is a validation rather than a marking pass: a GPUThread loop must never
// enclose a GPUBlock loop, since block indices are the outer grid and
// thread indices the inner one on every target this compiler knows about.
func checkGPULoopNesting(stmt ir.Stmt) error {
	var err error
	walk(stmt, false, &err)
	return err
}

func walk(s ir.Stmt, insideThread bool, err *error) {
	if s == nil || *err != nil {
		return
	}
	switch n := s.(type) {
	case *ir.For:
		if n.Device == ir.GPUBlock && insideThread {
			*err = cerr.Newf(cerr.UnsupportedByTarget, n.Name,
				"gpu_blocks loop %q is nested inside a gpu_threads loop; block indices must enclose thread indices", n.Name)
			return
		}
		walk(n.Body, insideThread || n.Device == ir.GPUThread, err)
	case *ir.LetStmt:
		walk(n.Body, insideThread, err)
	case *ir.Allocate:
		walk(n.Body, insideThread, err)
	case *ir.Realize:
		walk(n.Body, insideThread, err)
	case *ir.Block:
		walk(n.First, insideThread, err)
		walk(n.Rest, insideThread, err)
	case *ir.IfThenElse:
		walk(n.Then, insideThread, err)
		walk(n.Else, insideThread, err)
	}
}
