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

// Package lower implements the deterministic, ordered sequence of IR→IR
// passes that turns an (algorithm, schedule) pair into a flat, annotated
// loop nest.
//
// Each pass is a named func(*State) error that updates the State in place;
// Lower drives them in a fixed order. The boundary between "build the initial
// realization tree" and "apply the schedule's splits/reorders" is
// collapsed into a single construction function, buildFuncBody: both
// operate on the same loop nest at the same moment, and Go's lack of a
// mutable-in-place IR makes threading an intermediate "pre-split" tree
// through a second pass pure overhead with no observable difference in
// the final Stmt. This is a deliberate simplification, not a missing
// feature.
package lower

import (
	"fmt"

	"stencilc/funcs"
	"stencilc/ir"
	"stencilc/schedule"
	"stencilc/types"
)

// Pipeline is the full set of functions and their schedules that make up
// one compiled algorithm, rooted at the output function, which gets no
// Realize of its own in the lowered Stmt.
type Pipeline struct {
	Root      string
	Funcs     map[string]*funcs.Func
	Schedules map[string]*schedule.Schedule
}

// NewPipeline creates an empty Pipeline rooted at root.
func NewPipeline(root string) *Pipeline {
	return &Pipeline{
		Root:      root,
		Funcs:     map[string]*funcs.Func{},
		Schedules: map[string]*schedule.Schedule{},
	}
}

// Add registers f and its schedule s with the pipeline.
func (p *Pipeline) Add(f *funcs.Func, s *schedule.Schedule) {
	p.Funcs[f.Name] = f
	p.Schedules[s.FuncName] = s
}

// boundVar returns the symbolic parameter Var naming the min or extent of
// funcName's dimension dim, e.g. "blur_x.x.min". These are the unknowns
// bounds inference solves for; until solved, a function's own For loops
// simply reference them, exactly as the inner loops of an un-inferred
// realization would.
func boundVar(funcName, dim, which string) ir.Expr {
	return ir.NewVar(boundVarName(funcName, dim, which), types.Int32)
}

// boundVarName returns the name boundVar would wrap in a Var, for use
// where a plain string is needed (e.g. as an ir.LetStmt.Name).
func boundVarName(funcName, dim, which string) string {
	return fmt.Sprintf("%s.%s.%s", funcName, dim, which)
}

